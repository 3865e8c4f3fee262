package analysis

import (
	"fmt"

	"github.com/KaramelBytes/claimlens/internal/dataset"
)

// DefaultOutlierMultiplier scales the IQR above the median.
const DefaultOutlierMultiplier = 1.5

// Outliers reports how many records exceed median + multiplier*IQR.
type Outliers struct {
	Field      dataset.Field `json:"field"`
	Q1         float64       `json:"q1"`
	Q3         float64       `json:"q3"`
	IQR        float64       `json:"iqr"`
	Median     float64       `json:"median"`
	Multiplier float64       `json:"multiplier"`
	Threshold  float64       `json:"threshold"`
	Count      int           `json:"count"`
	Total      int           `json:"total"`
	// Fraction is Count/Total, where Total counts every record including
	// those with a missing value.
	Fraction float64 `json:"fraction"`
}

// Percent returns the outlier share in percent.
func (o Outliers) Percent() float64 { return o.Fraction * 100 }

// CountOutliers anchors the fence at the median, not at Q3:
// threshold = median + multiplier*(Q3-Q1). Values strictly above it count.
func CountOutliers(t *dataset.Table, f dataset.Field, multiplier float64) (Outliers, error) {
	if multiplier < 0 {
		return Outliers{}, fmt.Errorf("outliers: negative multiplier %v", multiplier)
	}
	values := t.Values(f)
	s, err := Summarize(values)
	if err != nil {
		return Outliers{Field: f, Multiplier: multiplier, Total: t.Len()}, fmt.Errorf("outliers %s: %w", f, err)
	}
	o := Outliers{
		Field:      f,
		Q1:         s.Q1,
		Q3:         s.Q3,
		IQR:        s.Q3 - s.Q1,
		Median:     s.Median,
		Multiplier: multiplier,
		Total:      t.Len(),
	}
	o.Threshold = o.Median + multiplier*o.IQR
	for _, v := range values {
		if v > o.Threshold {
			o.Count++
		}
	}
	o.Fraction = float64(o.Count) / float64(o.Total)
	return o, nil
}

// CountOutliersFields runs CountOutliers for each field, skipping fields
// without data.
func CountOutliersFields(t *dataset.Table, fields []dataset.Field, multiplier float64) ([]Outliers, error) {
	out := make([]Outliers, 0, len(fields))
	for _, f := range fields {
		o, err := CountOutliers(t, f, multiplier)
		if err != nil {
			if isNoData(err) {
				continue
			}
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}
