package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/KaramelBytes/claimlens/internal/analysis"
	"github.com/KaramelBytes/claimlens/internal/dataset"
)

func report(t *testing.T) *analysis.Report {
	t.Helper()
	tbl := dataset.NewTable("claims.csv", []dataset.Record{
		{ID: 1, ClaimStatus: dataset.Claim, AuthorBanStatus: dataset.Active, VerifiedStatus: dataset.Verified, Views: 1000, Likes: 100, Shares: 10, Comments: 3},
		{ID: 2, ClaimStatus: dataset.Opinion, AuthorBanStatus: dataset.Active, VerifiedStatus: dataset.Verified, Views: 500, Likes: 10, Shares: 1, Comments: 1},
		{ID: 3, ClaimStatus: dataset.Opinion, AuthorBanStatus: dataset.Banned, VerifiedStatus: dataset.Verified, Views: 400, Likes: 10, Shares: 1, Comments: 1},
	})
	rep, err := analysis.Build(tbl, analysis.DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return rep
}

func sampleValue(mf *dto.MetricFamily, labels map[string]string) (float64, bool) {
	for _, m := range mf.GetMetric() {
		match := true
		for _, lp := range m.GetLabel() {
			if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
				match = false
			}
		}
		if match {
			return m.GetGauge().GetValue(), true
		}
	}
	return 0, false
}

func TestWriteFileParsesBack(t *testing.T) {
	rep := report(t)
	path := filepath.Join(t.TempDir(), "claimlens.prom")
	if err := WriteFile(path, rep); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(f)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	rows := mfs["claimlens_rows"]
	if rows == nil || rows.GetType() != dto.MetricType_GAUGE {
		t.Fatalf("claimlens_rows missing or not a gauge: %v", rows)
	}
	if v, _ := sampleValue(rows, nil); v != 3 {
		t.Fatalf("rows = %v, want 3", v)
	}
	if v, ok := sampleValue(mfs["claimlens_field_mean"], map[string]string{"field": "video_view_count"}); !ok || v != 1900.0/3 {
		t.Fatalf("view mean = %v (%v)", v, ok)
	}
	if v, ok := sampleValue(mfs["claimlens_group_size"], map[string]string{"claim_status": "opinion", "author_ban_status": "banned"}); !ok || v != 1 {
		t.Fatalf("opinion/banned size = %v (%v)", v, ok)
	}
	if n := len(mfs["claimlens_group_size"].GetMetric()); n != 6 {
		t.Fatalf("group_size samples = %d, want 6", n)
	}
	if n := len(mfs["claimlens_outliers"].GetMetric()); n != 5 {
		t.Fatalf("outlier samples = %d, want 5", n)
	}
}

func TestUndefinedCorrelationsOmitted(t *testing.T) {
	tbl := dataset.NewTable("claims-only.csv", []dataset.Record{
		{ID: 1, ClaimStatus: dataset.Claim, AuthorBanStatus: dataset.Active, Views: 10},
		{ID: 2, ClaimStatus: dataset.Claim, AuthorBanStatus: dataset.Active, Views: 20},
	})
	rep, err := analysis.Build(tbl, analysis.DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var b strings.Builder
	if err := Write(&b, rep); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if strings.Contains(b.String(), "claimlens_claim_correlation") {
		t.Fatalf("undefined correlations must not be exported:\n%s", b.String())
	}
	if !strings.Contains(b.String(), "# TYPE claimlens_rows gauge") {
		t.Fatalf("missing rows gauge:\n%s", b.String())
	}
}
