package analysis

import (
	"sort"

	"github.com/KaramelBytes/claimlens/internal/dataset"
)

// CategoryCount is the number of records carrying a label.
type CategoryCount struct {
	Value string  `json:"value"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// ValueCounts counts labels of d, most frequent first, ties by label.
func ValueCounts(t *dataset.Table, d dataset.Dimension) []CategoryCount {
	counts := map[string]int{}
	for i := range t.Records {
		counts[t.Records[i].Label(d)]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, CategoryCount{Value: k, Count: v, Share: share(v, t.Len())})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Value < out[j].Value
		}
		return out[i].Count > out[j].Count
	})
	return out
}

// Total is the sum of a field within one group.
type Total struct {
	Value string  `json:"value"`
	Sum   float64 `json:"sum"`
	Share float64 `json:"share"`
}

// SumBy totals f per canonical value of d; Share is the fraction of the
// grand total (0 when the grand total is 0).
func SumBy(t *dataset.Table, d dataset.Dimension, f dataset.Field) []Total {
	sums := map[string]float64{}
	var grand float64
	for i := range t.Records {
		v := t.Records[i].Value(f)
		if !v.Valid {
			continue
		}
		sums[t.Records[i].Label(d)] += v.Float64
		grand += v.Float64
	}
	var out []Total
	for _, label := range d.Canonical(t) {
		sum, ok := sums[label]
		if !ok {
			continue
		}
		tot := Total{Value: label, Sum: sum}
		if grand > 0 {
			tot.Share = sum / grand
		}
		out = append(out, tot)
	}
	return out
}

// Findings are headline ratios of the dataset.
type Findings struct {
	Observations    int                           `json:"observations"`
	ClaimShare      float64                       `json:"claim_share"`
	OpinionShare    float64                       `json:"opinion_share"`
	MeanViewRatio   dataset.NullFloat             `json:"mean_view_ratio"`
	MedianViewRatio dataset.NullFloat             `json:"median_view_ratio"`
	BanShares       map[dataset.BanStatus]float64 `json:"ban_shares"`
}

// KeyFindings computes claim/opinion shares, claim-to-opinion view ratios
// and the share of videos per author ban status.
func KeyFindings(t *dataset.Table) Findings {
	claims := t.WhereClaim(dataset.Claim)
	opinions := t.WhereClaim(dataset.Opinion)
	f := Findings{
		Observations: t.Len(),
		ClaimShare:   share(claims.Len(), t.Len()),
		OpinionShare: share(opinions.Len(), t.Len()),
		BanShares:    map[dataset.BanStatus]float64{},
	}
	cs, cerr := Describe(claims, dataset.Views)
	ops, oerr := Describe(opinions, dataset.Views)
	if cerr == nil && oerr == nil {
		if ops.Mean != 0 {
			f.MeanViewRatio = dataset.Some(cs.Mean / ops.Mean)
		}
		if ops.Median != 0 {
			f.MedianViewRatio = dataset.Some(cs.Median / ops.Median)
		}
	}
	for _, b := range dataset.BanStatuses {
		f.BanShares[b] = share(t.WhereBan(b).Len(), t.Len())
	}
	return f
}

func share(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
