package store

import (
	"errors"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/KaramelBytes/claimlens/internal/analysis"
	"github.com/KaramelBytes/claimlens/internal/dataset"
)

func testReport(t *testing.T, name string) *analysis.Report {
	t.Helper()
	tbl := dataset.NewTable(name, []dataset.Record{
		{ID: 1, ClaimStatus: dataset.Claim, AuthorBanStatus: dataset.Active, VerifiedStatus: dataset.Verified, Views: 1000, Likes: 100, Shares: 5},
		{ID: 2, ClaimStatus: dataset.Opinion, AuthorBanStatus: dataset.Banned, VerifiedStatus: dataset.NotVerified, Views: 0, Likes: 0},
		{ID: 3, ClaimStatus: dataset.Opinion, AuthorBanStatus: dataset.Active, VerifiedStatus: dataset.NotVerified, Views: 500, Likes: 10, Shares: 1},
	})
	rep, err := analysis.Build(tbl, analysis.DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return rep
}

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "history.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndListRuns(t *testing.T) {
	s := openTemp(t)
	first, err := s.SaveReport(testReport(t, "a.csv"))
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	second, err := s.SaveReport(testReport(t, "b.csv"))
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	runs, err := s.ListRuns(0, "")
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].ID != second.ID {
		t.Fatalf("newest first: got %s, want %s", runs[0].ID, second.ID)
	}
	if len(runs[1].Outliers) != 5 || len(runs[1].Fields) != 9 || len(runs[1].Correlations) != 5 {
		t.Fatalf("children = %d outliers %d fields %d correlations", len(runs[1].Outliers), len(runs[1].Fields), len(runs[1].Correlations))
	}

	only, err := s.ListRuns(10, "a.csv")
	if err != nil {
		t.Fatalf("ListRuns(source): %v", err)
	}
	if len(only) != 1 || only[0].ID != first.ID {
		t.Fatalf("filtered runs = %+v", only)
	}
}

func TestNullableValuesRoundTrip(t *testing.T) {
	s := openTemp(t)
	run, err := s.SaveReport(testReport(t, "a.csv"))
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	got, err := s.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Rows != 3 || got.Source != "a.csv" {
		t.Fatalf("run = %+v", got)
	}
	for _, c := range got.Correlations {
		if c.Field == analysis.ClaimIndicatorName {
			if c.R == nil || *c.R != 1 {
				t.Fatalf("self correlation = %v, want 1", c.R)
			}
		}
	}
	for _, f := range got.Fields {
		if f.Field == string(dataset.LikesPerView) {
			if f.Count != 2 || f.Std == nil {
				t.Fatalf("likes_per_view stat = %+v", f)
			}
		}
	}
}

func TestDeleteRun(t *testing.T) {
	s := openTemp(t)
	run, err := s.SaveReport(testReport(t, "a.csv"))
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if err := s.DeleteRun(run.ID); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	if _, err := s.GetRun(run.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("GetRun after delete: %v", err)
	}
	var n int64
	s.db.Model(&OutlierStat{}).Count(&n)
	if n != 0 {
		t.Fatalf("orphan outlier rows = %d", n)
	}
	if err := s.DeleteRun(run.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}
