package analysis

import "github.com/KaramelBytes/claimlens/internal/dataset"

// ClaimSummary holds the descriptive summaries of one claim-status partition.
type ClaimSummary struct {
	Status dataset.ClaimStatus `json:"status"`
	Rows   int                 `json:"rows"`
	Fields []FieldSummary      `json:"fields"`
}

// DescribeByClaim splits t by claim status and describes each field of
// each part. Both statuses are always present, in canonical order.
func DescribeByClaim(t *dataset.Table, fields []dataset.Field) []ClaimSummary {
	out := make([]ClaimSummary, 0, len(dataset.ClaimStatuses))
	for _, s := range dataset.ClaimStatuses {
		sub := t.WhereClaim(s)
		out = append(out, ClaimSummary{
			Status: s,
			Rows:   sub.Len(),
			Fields: DescribeFields(sub, fields),
		})
	}
	return out
}
