package dataset

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// NullFloat is a float64 that may be undefined, e.g. a ratio with a zero
// denominator. Invalid values are excluded from aggregates.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Some wraps a defined value.
func Some(v float64) NullFloat { return NullFloat{Float64: v, Valid: true} }

// Missing is the undefined value.
var Missing = NullFloat{}

// String renders the value, or "NaN" when missing.
func (n NullFloat) String() string {
	if !n.Valid {
		return "NaN"
	}
	return strconv.FormatFloat(n.Float64, 'g', -1, 64)
}

// Text renders the value with a printf verb such as "%.2f".
func (n NullFloat) Text(verb string) string {
	if !n.Valid {
		return "NaN"
	}
	return fmt.Sprintf(verb, n.Float64)
}

// MarshalJSON encodes missing values as null.
func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

// UnmarshalJSON decodes null as missing.
func (n *NullFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = Missing
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = Some(v)
	return nil
}

// ClaimStatus is the content classification label of a video.
type ClaimStatus string

const (
	Claim   ClaimStatus = "claim"
	Opinion ClaimStatus = "opinion"
)

// ClaimStatuses lists claim statuses in canonical order.
var ClaimStatuses = []ClaimStatus{Claim, Opinion}

// BanStatus is the moderation state of a video's author.
type BanStatus string

const (
	Active      BanStatus = "active"
	UnderReview BanStatus = "under review"
	Banned      BanStatus = "banned"
)

// BanStatuses lists ban statuses in canonical display order.
var BanStatuses = []BanStatus{Active, UnderReview, Banned}

// VerifiedStatus is an open label; the two usual values are declared for ordering.
type VerifiedStatus string

const (
	Verified    VerifiedStatus = "verified"
	NotVerified VerifiedStatus = "not verified"
)

func parseClaimStatus(s string) (ClaimStatus, bool) {
	for _, c := range ClaimStatuses {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

func parseBanStatus(s string) (BanStatus, bool) {
	for _, b := range BanStatuses {
		if string(b) == s {
			return b, true
		}
	}
	return "", false
}

// Record is one video row.
type Record struct {
	ID              int
	ClaimStatus     ClaimStatus
	VerifiedStatus  VerifiedStatus
	AuthorBanStatus BanStatus

	Duration  float64
	Views     float64
	Likes     float64
	Comments  float64
	Shares    float64
	Downloads float64

	// Engagement rates; set by Table.DeriveRates.
	LikesPerView    NullFloat
	CommentsPerView NullFloat
	SharesPerView   NullFloat
}

// Value returns the numeric value of f for this record.
func (r *Record) Value(f Field) NullFloat {
	switch f {
	case Duration:
		return Some(r.Duration)
	case Views:
		return Some(r.Views)
	case Likes:
		return Some(r.Likes)
	case Comments:
		return Some(r.Comments)
	case Shares:
		return Some(r.Shares)
	case Downloads:
		return Some(r.Downloads)
	case LikesPerView:
		return r.LikesPerView
	case CommentsPerView:
		return r.CommentsPerView
	case SharesPerView:
		return r.SharesPerView
	}
	return Missing
}

// Label returns the value of the enum dimension d for this record.
func (r *Record) Label(d Dimension) string {
	switch d {
	case ClaimDim:
		return string(r.ClaimStatus)
	case BanDim:
		return string(r.AuthorBanStatus)
	case VerifiedDim:
		return string(r.VerifiedStatus)
	}
	return ""
}

func (r *Record) deriveRates() {
	r.LikesPerView = ratio(r.Likes, r.Views)
	r.CommentsPerView = ratio(r.Comments, r.Views)
	r.SharesPerView = ratio(r.Shares, r.Views)
}

func ratio(num, den float64) NullFloat {
	if den == 0 {
		return Missing
	}
	return Some(num / den)
}
