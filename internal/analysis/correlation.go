package analysis

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/claimlens/internal/dataset"
)

// ClaimIndicatorName labels the claim indicator in correlation output.
const ClaimIndicatorName = "claim_numeric"

// DefaultCorrelationFields are correlated against the claim indicator.
var DefaultCorrelationFields = []dataset.Field{dataset.Views, dataset.Likes, dataset.Shares, dataset.Comments}

// Correlation is the Pearson coefficient between the claim indicator and a field.
type Correlation struct {
	Field string            `json:"field"`
	R     dataset.NullFloat `json:"r"`
	N     int               `json:"n"`
}

// ClaimIndicator encodes claim as 1 and opinion as 0, in record order.
func ClaimIndicator(t *dataset.Table) []float64 {
	out := make([]float64, len(t.Records))
	for i := range t.Records {
		if t.Records[i].ClaimStatus == dataset.Claim {
			out[i] = 1
		}
	}
	return out
}

// Pearson returns the correlation coefficient of x and y. It is missing
// for fewer than two pairs or when either side has zero variance.
func Pearson(x, y []float64) (dataset.NullFloat, error) {
	if len(x) != len(y) {
		return dataset.Missing, fmt.Errorf("pearson: length mismatch %d != %d", len(x), len(y))
	}
	n := len(x)
	if n < 2 {
		return dataset.Missing, nil
	}
	var mx, my float64
	for i := 0; i < n; i++ {
		mx += x[i]
		my += y[i]
	}
	mx /= float64(n)
	my /= float64(n)

	var sxx, syy, sxy float64
	for i := 0; i < n; i++ {
		dx := x[i] - mx
		dy := y[i] - my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	if sxx == 0 || syy == 0 {
		return dataset.Missing, nil
	}
	r := sxy / math.Sqrt(sxx*syy)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return dataset.Missing, nil
	}
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return dataset.Some(r), nil
}

// ClaimCorrelations correlates the claim indicator with each field over the
// records where the field is present. The first entry is the indicator
// against itself.
func ClaimCorrelations(t *dataset.Table, fields []dataset.Field) ([]Correlation, error) {
	ind := ClaimIndicator(t)
	self, err := Pearson(ind, ind)
	if err != nil {
		return nil, err
	}
	out := []Correlation{{Field: ClaimIndicatorName, R: self, N: len(ind)}}
	for _, f := range fields {
		xs := make([]float64, 0, len(ind))
		ys := make([]float64, 0, len(ind))
		for i := range t.Records {
			v := t.Records[i].Value(f)
			if !v.Valid {
				continue
			}
			xs = append(xs, ind[i])
			ys = append(ys, v.Float64)
		}
		r, err := Pearson(xs, ys)
		if err != nil {
			return nil, fmt.Errorf("correlate %s: %w", f, err)
		}
		out = append(out, Correlation{Field: string(f), R: r, N: len(xs)})
	}
	return out, nil
}
