package chart

import (
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/KaramelBytes/claimlens/internal/dataset"
)

func sample() *dataset.Table {
	mk := func(id int, c dataset.ClaimStatus, b dataset.BanStatus, v dataset.VerifiedStatus, views, likes float64) dataset.Record {
		return dataset.Record{
			ID: id, ClaimStatus: c, AuthorBanStatus: b, VerifiedStatus: v,
			Duration: float64(5 + id*3), Views: views, Likes: likes,
			Comments: likes / 100, Shares: likes / 10, Downloads: likes / 50,
		}
	}
	return dataset.NewTable("sample.csv", []dataset.Record{
		mk(1, dataset.Claim, dataset.Active, dataset.NotVerified, 343296, 19425),
		mk(2, dataset.Claim, dataset.UnderReview, dataset.NotVerified, 140877, 77355),
		mk(3, dataset.Claim, dataset.Banned, dataset.Verified, 902185, 97690),
		mk(4, dataset.Claim, dataset.Active, dataset.NotVerified, 437506, 239954),
		mk(5, dataset.Opinion, dataset.Active, dataset.Verified, 2540, 1072),
		mk(6, dataset.Opinion, dataset.Active, dataset.NotVerified, 6170, 1919),
		mk(7, dataset.Opinion, dataset.UnderReview, dataset.NotVerified, 437, 47),
	})
}

func TestRenderAllWritesEveryChart(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	results, err := RenderAll(context.Background(), sample(), dir, nil, Options{DPI: 50, Workers: 3})
	if err != nil {
		t.Fatalf("RenderAll: %v", err)
	}
	if len(results) != 18 {
		t.Fatalf("results = %d, want 18", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("%s: %v", r.Name, r.Err)
		}
		f, err := os.Open(r.Path)
		if err != nil {
			t.Fatalf("open %s: %v", r.Name, err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("decode %s: %v", r.Name, err)
		}
		if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
			t.Fatalf("%s: empty image", r.Name)
		}
	}

	f, err := os.Open(filepath.Join(dir, "video_view_count_histogram.png"))
	if err != nil {
		t.Fatalf("open histogram: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.Width != 250 || cfg.Height != 150 {
		t.Fatalf("histogram size = %dx%d, want 250x150", cfg.Width, cfg.Height)
	}
}

func TestRenderAllSkipsEmptyCharts(t *testing.T) {
	dir := t.TempDir()
	results, err := RenderAll(context.Background(), dataset.NewTable("empty.csv", nil), dir, nil, Options{DPI: 40})
	if err != nil {
		t.Fatalf("RenderAll: %v", err)
	}
	skipped := map[string]bool{}
	for _, r := range results {
		if errors.Is(r.Err, ErrSkipped) {
			skipped[r.Name] = true
		}
	}
	for _, name := range []string{
		"video_view_count_boxplot.png",
		"total_views_by_claim_status_pie.png",
		"views_vs_likes_scatterplot.png",
	} {
		if !skipped[name] {
			t.Fatalf("%s should be skipped, got %v", name, skipped)
		}
	}
	if skipped["video_view_count_histogram.png"] {
		t.Fatalf("histogram of no values should still render empty bins")
	}
}

func TestRenderAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RenderAll(ctx, sample(), t.TempDir(), nil, Options{DPI: 40})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestCatalogNames(t *testing.T) {
	seen := map[string]bool{}
	for _, a := range Catalog() {
		if seen[a.Name] {
			t.Fatalf("duplicate artifact %s", a.Name)
		}
		seen[a.Name] = true
	}
	if _, ok := Lookup("claim_status_by_ban_status_histogram"); !ok {
		t.Fatalf("Lookup without extension failed")
	}
	if _, ok := Lookup("video_duration_sec_boxplot.png"); ok {
		t.Fatalf("unexpected artifact")
	}
	if !seen["video_duration_boxplot.png"] || !seen["video_download_count_histogram.png"] {
		t.Fatalf("missing distribution charts: %v", seen)
	}
}

func TestBinCounts(t *testing.T) {
	edges := rangeEdges(0, 60, 5)
	if len(edges) != 13 || edges[12] != 60 {
		t.Fatalf("edges = %v", edges)
	}
	got := binCounts([]float64{0, 4.9, 5, 59, 60, 61, -1}, edges)
	want := make([]int, 12)
	want[0], want[1], want[11] = 2, 1, 2
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("binCounts = %v, want %v", got, want)
	}
}

func TestTukeyWhiskers(t *testing.T) {
	b, err := tukey([]float64{1, 2, 3, 4, 5, 6, 7, 8, 100})
	if err != nil {
		t.Fatalf("tukey: %v", err)
	}
	if b.q1 != 3 || b.median != 5 || b.q3 != 7 {
		t.Fatalf("box = %+v", b)
	}
	if b.lo != 1 || b.hi != 8 {
		t.Fatalf("whiskers = %v..%v, want 1..8", b.lo, b.hi)
	}
	if !reflect.DeepEqual(b.fliers, []float64{100}) {
		t.Fatalf("fliers = %v", b.fliers)
	}
}

func TestLabels(t *testing.T) {
	if got := thousandsLabel(300000); got != "300k" {
		t.Fatalf("thousandsLabel = %q", got)
	}
	if got := thousandsLabel(0); got != "0" {
		t.Fatalf("thousandsLabel(0) = %q", got)
	}
	if got := numberLabel(2500); got != "2500" {
		t.Fatalf("numberLabel = %q", got)
	}
	ticks := niceTicks(0, 1000, 6)
	if ticks[0] != 0 || ticks[len(ticks)-1] != 1000 {
		t.Fatalf("niceTicks = %v", ticks)
	}
}

func TestLoadFontErrors(t *testing.T) {
	if _, err := LoadFont(filepath.Join(t.TempDir(), "missing.ttf")); err == nil {
		t.Fatalf("expected error for missing font")
	}
	bad := filepath.Join(t.TempDir(), "bad.ttf")
	if err := os.WriteFile(bad, []byte("not a font"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFont(bad); err == nil {
		t.Fatalf("expected parse error")
	}
}
