package metrics

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/KaramelBytes/claimlens/internal/analysis"
	"github.com/KaramelBytes/claimlens/internal/dataset"
	"github.com/KaramelBytes/claimlens/internal/utils"
)

const namespace = "claimlens"

// family builds one gauge family; samples are emitted in the given order.
type family struct {
	mf *dto.MetricFamily
}

func newGauge(name, help string) *family {
	return &family{mf: &dto.MetricFamily{
		Name: proto.String(namespace + "_" + name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}}
}

func (f *family) add(v float64, labels ...string) {
	m := &dto.Metric{Gauge: &dto.Gauge{Value: proto.Float64(v)}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &dto.LabelPair{
			Name:  proto.String(labels[i]),
			Value: proto.String(labels[i+1]),
		})
	}
	f.mf.Metric = append(f.mf.Metric, m)
}

// Families converts a report into gauge families, sorted by name.
// Undefined correlations and fields without data produce no sample.
func Families(rep *analysis.Report) []*dto.MetricFamily {
	rows := newGauge("rows", "Records analyzed after loading.")
	rows.add(float64(rep.Rows), "source", rep.Name)

	mean := newGauge("field_mean", "Mean of a numeric field over non-missing values.")
	med := newGauge("field_median", "Median of a numeric field over non-missing values.")
	for _, fs := range rep.Overview {
		if fs.NoData {
			continue
		}
		mean.add(fs.Summary.Mean, "field", string(fs.Field))
		med.add(fs.Summary.Median, "field", string(fs.Field))
	}

	outliers := newGauge("outliers", "Records above median + multiplier*IQR.")
	ratio := newGauge("outlier_ratio", "Outlier count divided by total records.")
	for _, o := range rep.Outliers {
		outliers.add(float64(o.Count), "field", string(o.Field))
		ratio.add(o.Fraction, "field", string(o.Field))
	}

	corr := newGauge("claim_correlation", "Pearson correlation of the claim indicator with a field.")
	for _, c := range rep.Correlations {
		if !c.R.Valid || c.Field == analysis.ClaimIndicatorName {
			continue
		}
		corr.add(c.R.Float64, "field", c.Field)
	}

	groups := newGauge("group_size", "Videos per claim status and author ban status.")
	for _, g := range rep.ClaimByBan.Groups {
		groups.add(float64(g.Size), string(dataset.ClaimDim), g.Key[0], string(dataset.BanDim), g.Key[1])
	}

	out := []*dto.MetricFamily{}
	for _, f := range []*family{rows, mean, med, outliers, ratio, corr, groups} {
		if len(f.mf.Metric) > 0 {
			out = append(out, f.mf)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetName() < out[j].GetName() })
	return out
}

// Write renders the report in the Prometheus text exposition format.
func Write(w io.Writer, rep *analysis.Report) error {
	for _, mf := range Families(rep) {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteFile atomically replaces path, as node_exporter's textfile
// collector expects.
func WriteFile(path string, rep *analysis.Report) error {
	var buf bytes.Buffer
	if err := Write(&buf, rep); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}
