package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/claimlens/internal/dataset"
)

// Options controls report construction. Start from DefaultOptions: a zero
// OutlierMultiplier is honored and puts the fence at the median.
type Options struct {
	OutlierMultiplier float64
	// OutlierFields are checked for outliers; nil means CountFields.
	OutlierFields []dataset.Field
	// CorrelationFields are correlated with the claim indicator; nil means defaults.
	CorrelationFields []dataset.Field
}

// DefaultOptions returns the settings of the standard exploration run.
func DefaultOptions() Options {
	return Options{
		OutlierMultiplier: DefaultOutlierMultiplier,
		OutlierFields:     dataset.CountFields,
		CorrelationFields: DefaultCorrelationFields,
	}
}

// Report is the full exploratory analysis of a table, in print order.
type Report struct {
	Name    string `json:"name"`
	Rows    int    `json:"rows"`
	Read    int    `json:"read"`
	Dropped int    `json:"dropped"`

	Overview     []FieldSummary  `json:"overview"`
	ClaimCounts  []CategoryCount `json:"claim_counts"`
	BanCounts    []CategoryCount `json:"ban_counts"`
	ViewsByClaim GroupedMetric   `json:"views_by_claim"`
	ClaimByBan   GroupedMetric   `json:"claim_by_ban"`
	// BanEngagement aggregates views, likes and shares by author ban status.
	BanEngagement   []GroupedMetric `json:"ban_engagement"`
	RatesByClaimBan []GroupedMetric `json:"rates_by_claim_ban"`
	ViewTotals      []Total         `json:"view_totals"`
	Outliers        []Outliers      `json:"outliers"`
	Correlations    []Correlation   `json:"correlations"`
	ByClaim         []ClaimSummary  `json:"by_claim"`
	Findings        Findings        `json:"findings"`
	Warnings        []string        `json:"warnings,omitempty"`
}

// Build computes every report section for t.
func Build(t *dataset.Table, opt Options) (*Report, error) {
	if opt.OutlierFields == nil {
		opt.OutlierFields = dataset.CountFields
	}
	if opt.CorrelationFields == nil {
		opt.CorrelationFields = DefaultCorrelationFields
	}

	rep := &Report{Name: t.Name, Rows: t.Len(), Read: t.Read, Dropped: t.Dropped}
	if t.Dropped > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("dropped %d/%d incomplete rows", t.Dropped, t.Read))
	}
	if t.Len() == 0 {
		rep.Warnings = append(rep.Warnings, "no records to analyze")
	}

	rep.Overview = DescribeFields(t, dataset.AllFields())
	rep.ClaimCounts = ValueCounts(t, dataset.ClaimDim)
	rep.BanCounts = ValueCounts(t, dataset.BanDim)

	claimDims := []dataset.Dimension{dataset.ClaimDim}
	banDims := []dataset.Dimension{dataset.BanDim}
	claimBanDims := []dataset.Dimension{dataset.ClaimDim, dataset.BanDim}
	canonical := GroupOptions{Canonical: true}

	var err error
	if rep.ViewsByClaim, err = GroupBy(t, claimDims, dataset.Views, canonical); err != nil {
		return nil, err
	}
	if rep.ClaimByBan, err = GroupBy(t, claimBanDims, dataset.Views, canonical); err != nil {
		return nil, err
	}
	for _, f := range []dataset.Field{dataset.Views, dataset.Likes, dataset.Shares} {
		m, err := GroupBy(t, banDims, f, canonical)
		if err != nil {
			return nil, err
		}
		rep.BanEngagement = append(rep.BanEngagement, m)
	}
	for _, f := range dataset.RateFields {
		m, err := GroupBy(t, claimBanDims, f, canonical)
		if err != nil {
			return nil, err
		}
		rep.RatesByClaimBan = append(rep.RatesByClaimBan, m)
	}
	rep.ViewTotals = SumBy(t, dataset.ClaimDim, dataset.Views)

	if rep.Outliers, err = CountOutliersFields(t, opt.OutlierFields, opt.OutlierMultiplier); err != nil {
		return nil, err
	}
	if rep.Correlations, err = ClaimCorrelations(t, opt.CorrelationFields); err != nil {
		return nil, err
	}
	for _, c := range rep.Correlations {
		if !c.R.Valid {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("correlation of %s with %s is undefined", ClaimIndicatorName, c.Field))
		}
	}
	rep.ByClaim = DescribeByClaim(t, dataset.CountFields)
	rep.Findings = KeyFindings(t)
	return rep, nil
}

// Markdown renders the report as plain sections in a fixed order.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	if r.Dropped > 0 {
		b.WriteString(fmt.Sprintf("Rows: %d (read %d, dropped %d)\n", r.Rows, r.Read, r.Dropped))
	} else {
		b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	}

	b.WriteString("\n[DESCRIPTIVE STATISTICS]\n")
	writeSummaries(&b, r.Overview)

	b.WriteString("\n[CLAIM STATUS]\n")
	for _, c := range r.ClaimCounts {
		b.WriteString(fmt.Sprintf("- %s: %d (%.2f%%)\n", c.Value, c.Count, c.Share*100))
	}

	b.WriteString("\n[AUTHOR BAN STATUS]\n")
	for _, c := range r.BanCounts {
		b.WriteString(fmt.Sprintf("- %s: %d (%.2f%%)\n", c.Value, c.Count, c.Share*100))
	}

	b.WriteString("\n[VIEWS BY CLAIM STATUS]\n")
	for _, g := range r.ViewsByClaim.Groups {
		b.WriteString(fmt.Sprintf("- %s: mean %s, median %s\n", g.Label(), g.Mean.Text("%.2f"), g.Median.Text("%.2f")))
	}

	b.WriteString("\n[VIDEOS BY CLAIM STATUS AND AUTHOR BAN STATUS]\n")
	for _, g := range r.ClaimByBan.Groups {
		b.WriteString(fmt.Sprintf("- %s: %d\n", g.Label(), g.Size))
	}

	b.WriteString("\n[ENGAGEMENT BY AUTHOR BAN STATUS]\n")
	writeGrouped(&b, r.BanEngagement, "%.2f")
	for _, m := range r.BanEngagement {
		if m.Field != dataset.Shares {
			continue
		}
		b.WriteString("Median share count:")
		for _, g := range m.Groups {
			b.WriteString(fmt.Sprintf(" %s=%s", g.Label(), g.Median.Text("%.1f")))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n[ENGAGEMENT RATES BY CLAIM STATUS AND AUTHOR BAN STATUS]\n")
	writeGrouped(&b, r.RatesByClaimBan, "%.6f")

	b.WriteString("\n[TOTAL VIEWS BY CLAIM STATUS]\n")
	for _, v := range r.ViewTotals {
		b.WriteString(fmt.Sprintf("- %s: %.0f (%.1f%%)\n", v.Value, v.Sum, v.Share*100))
	}

	b.WriteString("\n[OUTLIERS]\n")
	for _, o := range r.Outliers {
		b.WriteString(fmt.Sprintf("- Number of outliers, %s: %d (%.2f%%) above median+%g*IQR=%.4g\n",
			o.Field, o.Count, o.Percent(), o.Multiplier, o.Threshold))
	}

	b.WriteString("\n[CORRELATION WITH CLAIM STATUS]\n")
	for _, c := range r.Correlations {
		b.WriteString(fmt.Sprintf("- %s: r=%s\n", c.Field, c.R.Text("%.6f")))
	}

	for _, cs := range r.ByClaim {
		b.WriteString(fmt.Sprintf("\n[SUMMARY STATISTICS: %s (n=%d)]\n", strings.ToUpper(string(cs.Status)), cs.Rows))
		writeSummaries(&b, cs.Fields)
	}

	f := r.Findings
	b.WriteString("\n[SUMMARY FINDINGS]\n")
	b.WriteString(fmt.Sprintf("- Total number of observations: %d\n", f.Observations))
	b.WriteString(fmt.Sprintf("- Percentage of claims: %.2f%%\n", f.ClaimShare*100))
	b.WriteString(fmt.Sprintf("- Percentage of opinions: %.2f%%\n", f.OpinionShare*100))
	b.WriteString(fmt.Sprintf("- Mean view ratio (claims/opinions): %s\n", f.MeanViewRatio.Text("%.2f")))
	b.WriteString(fmt.Sprintf("- Median view ratio (claims/opinions): %s\n", f.MedianViewRatio.Text("%.2f")))
	for _, s := range dataset.BanStatuses {
		b.WriteString(fmt.Sprintf("- Percentage of videos from %s authors: %.2f%%\n", s, f.BanShares[s]*100))
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeSummaries(b *strings.Builder, sums []FieldSummary) {
	for _, fs := range sums {
		if fs.NoData {
			b.WriteString(fmt.Sprintf("- %s: no data\n", fs.Field))
			continue
		}
		s := fs.Summary
		b.WriteString(fmt.Sprintf("- %s: count %d, mean %.4g, std %s, min %.4g, 25%% %.4g, 50%% %.4g, 75%% %.4g, max %.4g\n",
			fs.Field, s.Count, s.Mean, s.Std.Text("%.4g"), s.Min, s.Q1, s.Median, s.Q3, s.Max))
	}
}

func writeGrouped(b *strings.Builder, metrics []GroupedMetric, verb string) {
	for _, m := range metrics {
		b.WriteString(fmt.Sprintf("%s:\n", m.Field))
		for _, g := range m.Groups {
			b.WriteString(fmt.Sprintf("  • %s: count %d, mean %s, median %s\n", g.Label(), g.Count, g.Mean.Text(verb), g.Median.Text(verb)))
		}
	}
}

// SummaryText renders field summaries one per line, as in the report.
func SummaryText(sums []FieldSummary) string {
	var b strings.Builder
	writeSummaries(&b, sums)
	return b.String()
}

// GroupText renders one grouped metric, as in the report.
func GroupText(m GroupedMetric, verb string) string {
	var b strings.Builder
	writeGrouped(&b, []GroupedMetric{m}, verb)
	return b.String()
}
