package analysis

import (
	"errors"
	"math"
	"sort"

	"github.com/KaramelBytes/claimlens/internal/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNoData is returned when a selection has no non-missing values.
var ErrNoData = errors.New("no data")

// Summary is the count/moments/five-number description of a numeric field.
type Summary struct {
	Count  int               `json:"count"`
	Mean   float64           `json:"mean"`
	Std    dataset.NullFloat `json:"std"`
	Min    float64           `json:"min"`
	Q1     float64           `json:"q1"`
	Median float64           `json:"median"`
	Q3     float64           `json:"q3"`
	Max    float64           `json:"max"`
}

// IQR returns Q3 - Q1.
func (s Summary) IQR() float64 { return s.Q3 - s.Q1 }

// FieldSummary pairs a field with its summary. NoData marks an empty selection.
type FieldSummary struct {
	Field   dataset.Field `json:"field"`
	Summary Summary       `json:"summary"`
	NoData  bool          `json:"no_data,omitempty"`
}

// Summarize describes values. The sample standard deviation is missing
// for fewer than two values.
func Summarize(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, ErrNoData
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s := Summary{
		Count:  len(sorted),
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
		Q1:     quantile(sorted, 0.25),
		Median: quantile(sorted, 0.5),
		Q3:     quantile(sorted, 0.75),
	}
	if len(sorted) == 1 {
		s.Mean = sorted[0]
		return s, nil
	}
	mean, std := stat.MeanStdDev(sorted, nil)
	s.Mean = mean
	if !math.IsNaN(std) {
		s.Std = dataset.Some(std)
	}
	return s, nil
}

// Describe summarizes the non-missing values of f in t.
func Describe(t *dataset.Table, f dataset.Field) (Summary, error) {
	return Summarize(t.Values(f))
}

// DescribeFields summarizes each field, flagging empty ones instead of failing.
func DescribeFields(t *dataset.Table, fields []dataset.Field) []FieldSummary {
	out := make([]FieldSummary, 0, len(fields))
	for _, f := range fields {
		s, err := Describe(t, f)
		out = append(out, FieldSummary{Field: f, Summary: s, NoData: errors.Is(err, ErrNoData)})
	}
	return out
}

// quantile interpolates linearly between closest ranks: pos = q*(n-1).
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*w
}

func isNoData(err error) bool { return errors.Is(err, ErrNoData) }
