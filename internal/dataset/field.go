package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// Field names a numeric column, raw or derived.
type Field string

const (
	Duration  Field = "video_duration_sec"
	Views     Field = "video_view_count"
	Likes     Field = "video_like_count"
	Comments  Field = "video_comment_count"
	Shares    Field = "video_share_count"
	Downloads Field = "video_download_count"

	LikesPerView    Field = "likes_per_view"
	CommentsPerView Field = "comments_per_view"
	SharesPerView   Field = "shares_per_view"
)

// RawFields are the numeric columns read from the input, in schema order.
var RawFields = []Field{Duration, Views, Likes, Comments, Shares, Downloads}

// CountFields are the engagement counts used for outlier and per-claim summaries.
var CountFields = []Field{Views, Likes, Shares, Downloads, Comments}

// RateFields are the per-view engagement rates.
var RateFields = []Field{LikesPerView, CommentsPerView, SharesPerView}

// AllFields returns raw fields followed by rate fields.
func AllFields() []Field {
	out := make([]Field, 0, len(RawFields)+len(RateFields))
	out = append(out, RawFields...)
	return append(out, RateFields...)
}

// ParseField resolves a field name; the "video_" prefix may be omitted.
func ParseField(s string) (Field, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, f := range AllFields() {
		if string(f) == name || string(f) == "video_"+name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// ParseFields resolves a list of field names.
func ParseFields(names []string) ([]Field, error) {
	out := make([]Field, 0, len(names))
	for _, n := range names {
		f, err := ParseField(n)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Dimension names an enum column usable as a grouping key.
type Dimension string

const (
	ClaimDim    Dimension = "claim_status"
	BanDim      Dimension = "author_ban_status"
	VerifiedDim Dimension = "verified_status"
)

// ParseDimension resolves a dimension name.
func ParseDimension(s string) (Dimension, error) {
	switch Dimension(strings.ToLower(strings.TrimSpace(s))) {
	case ClaimDim, "claim":
		return ClaimDim, nil
	case BanDim, "ban", "ban_status":
		return BanDim, nil
	case VerifiedDim, "verified":
		return VerifiedDim, nil
	}
	return "", fmt.Errorf("unknown dimension %q", s)
}

// Canonical returns the display order of values for d. Closed enums use
// their declared order; verified_status lists the known labels first and
// then any other label observed in t, sorted.
func (d Dimension) Canonical(t *Table) []string {
	switch d {
	case ClaimDim:
		out := make([]string, len(ClaimStatuses))
		for i, c := range ClaimStatuses {
			out[i] = string(c)
		}
		return out
	case BanDim:
		out := make([]string, len(BanStatuses))
		for i, b := range BanStatuses {
			out[i] = string(b)
		}
		return out
	case VerifiedDim:
		out := []string{string(Verified), string(NotVerified)}
		var extra []string
		seen := map[string]bool{string(Verified): true, string(NotVerified): true}
		if t != nil {
			for i := range t.Records {
				v := string(t.Records[i].VerifiedStatus)
				if !seen[v] {
					seen[v] = true
					extra = append(extra, v)
				}
			}
		}
		sort.Strings(extra)
		return append(out, extra...)
	}
	return nil
}
