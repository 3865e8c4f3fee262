package chart

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"github.com/golang/freetype/truetype"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/claimlens/internal/analysis"
	"github.com/KaramelBytes/claimlens/internal/dataset"
	"github.com/KaramelBytes/claimlens/internal/logger"
	"github.com/KaramelBytes/claimlens/internal/utils"
)

const (
	DefaultDPI     = 100
	DefaultWorkers = 4
)

// Options controls rendering.
type Options struct {
	DPI     float64
	Font    *truetype.Font // nil falls back to basicfont
	Workers int
	Log     *logger.Logger
}

// Artifact is one named chart drawn from a table.
type Artifact struct {
	Name string // file name, e.g. "video_view_count_boxplot.png"
	draw func(opt Options, t *dataset.Table) (*canvas, error)
}

type distribution struct {
	field     dataset.Field
	prefix    string
	boxWidth  float64
	histTitle string
	edges     []float64
	ticks     []float64
	label     func(float64) string
}

var distributions = []distribution{
	{dataset.Duration, "video_duration", 5, "Video duration histogram", rangeEdges(0, 60, 5), nil, nil},
	{dataset.Views, "video_view_count", 5, "Video view count histogram", rangeEdges(0, 1e6, 1e5), nil, nil},
	{dataset.Likes, "video_like_count", 10, "Video like count histogram", rangeEdges(0, 7e5, 1e5), rangeEdges(0, 7e5, 1e5), thousandsLabel},
	{dataset.Comments, "video_comment_count", 5, "Video comment count histogram", rangeEdges(0, 3000, 100), nil, nil},
	{dataset.Shares, "video_share_count", 5, "Video share count histogram", rangeEdges(0, 270000, 10000), nil, nil},
	{dataset.Downloads, "video_download_count", 5, "Video download count histogram", rangeEdges(0, 15000, 500), nil, nil},
}

// Catalog lists every chart in render order.
func Catalog() []Artifact {
	var out []Artifact
	for _, d := range distributions {
		out = append(out,
			Artifact{Name: d.prefix + "_boxplot.png", draw: func(opt Options, t *dataset.Table) (*canvas, error) {
				return boxPlot(opt, string(d.field), d.boxWidth, t.Values(d.field))
			}},
			Artifact{Name: d.prefix + "_histogram.png", draw: func(opt Options, t *dataset.Table) (*canvas, error) {
				return histogram(opt, histSpec{title: d.histTitle, xlabel: string(d.field), edges: d.edges, ticks: d.ticks, label: d.label}, t.Values(d.field))
			}},
		)
	}
	return append(out,
		Artifact{Name: "claims_by_verification_histogram.png", draw: claimsByVerification},
		Artifact{Name: "claim_status_by_ban_status_histogram.png", draw: claimByBan},
		Artifact{Name: "median_view_count_by_ban_status.png", draw: medianViewsByBan},
		Artifact{Name: "total_views_by_claim_status_pie.png", draw: totalViewsPie},
		Artifact{Name: "views_vs_likes_scatterplot.png", draw: viewsVsLikes},
		Artifact{Name: "views_vs_likes_opinions_scatterplot.png", draw: viewsVsLikesOpinions},
	)
}

// Lookup finds an artifact by file name, with or without ".png".
func Lookup(name string) (Artifact, bool) {
	for _, a := range Catalog() {
		if a.Name == name || a.Name == name+".png" {
			return a, true
		}
	}
	return Artifact{}, false
}

// countMatrix returns counts of rows x cols label pairs.
func countMatrix(t *dataset.Table, rowDim, colDim dataset.Dimension, rows, cols []string) [][]float64 {
	idx := func(labels []string, v string) int {
		for i, l := range labels {
			if l == v {
				return i
			}
		}
		return -1
	}
	m := make([][]float64, len(cols))
	for i := range m {
		m[i] = make([]float64, len(rows))
	}
	for i := range t.Records {
		r := idx(rows, t.Records[i].Label(rowDim))
		c := idx(cols, t.Records[i].Label(colDim))
		if r >= 0 && c >= 0 {
			m[c][r]++
		}
	}
	return m
}

func claimsByVerification(opt Options, t *dataset.Table) (*canvas, error) {
	cats := dataset.ClaimDim.Canonical(t)
	hues := dataset.VerifiedDim.Canonical(t)
	m := countMatrix(t, dataset.ClaimDim, dataset.VerifiedDim, cats, hues)
	palette := []color.Color{blue, orange, color.NRGBA{0x55, 0xa8, 0x68, 0xff}, color.NRGBA{0xc4, 0x4e, 0x52, 0xff}}
	ss := make([]series, len(hues))
	for i, h := range hues {
		ss[i] = series{name: h, color: palette[i%len(palette)], values: m[i]}
	}
	return dodgedBars(opt, "Claims by verification status histogram", string(dataset.ClaimDim), "Count", 7, 4, cats, ss, 0.9)
}

func claimByBan(opt Options, t *dataset.Table) (*canvas, error) {
	cats := dataset.ClaimDim.Canonical(t)
	hues := dataset.BanDim.Canonical(t)
	m := countMatrix(t, dataset.ClaimDim, dataset.BanDim, cats, hues)
	ss := make([]series, len(hues))
	for i, h := range hues {
		ss[i] = series{name: h, color: banColors[h], values: m[i]}
	}
	return dodgedBars(opt, "Claim status by author ban status - counts", string(dataset.ClaimDim), "Count", 7, 4, cats, ss, 0.9)
}

func medianViewsByBan(opt Options, t *dataset.Table) (*canvas, error) {
	g, err := analysis.GroupBy(t, []dataset.Dimension{dataset.BanDim}, dataset.Views, analysis.GroupOptions{Canonical: true})
	if err != nil {
		return nil, err
	}
	cats := make([]string, len(g.Groups))
	vals := make([]float64, len(g.Groups))
	for i, grp := range g.Groups {
		cats[i] = grp.Label()
		vals[i] = math.NaN()
		if grp.Median.Valid {
			vals[i] = grp.Median.Float64
		}
	}
	colors := make([]color.Color, len(cats))
	for i, c := range cats {
		colors[i] = banColors[c]
	}
	ss := []series{{name: string(dataset.Views), values: vals, colors: colors}}
	return dodgedBars(opt, "Median view count by ban status", string(dataset.BanDim), string(dataset.Views), 5, 3, cats, ss, 0.8)
}

func totalViewsPie(opt Options, t *dataset.Table) (*canvas, error) {
	totals := analysis.SumBy(t, dataset.ClaimDim, dataset.Views)
	labels := make([]string, len(totals))
	values := make([]float64, len(totals))
	for i, tot := range totals {
		labels[i] = tot.Value
		values[i] = tot.Sum
	}
	return pie(opt, "Total views by video claim status", labels, values)
}

func viewsLikes(t *dataset.Table, name string, col color.NRGBA) points {
	p := points{name: name, color: col}
	for i := range t.Records {
		p.xs = append(p.xs, t.Records[i].Views)
		p.ys = append(p.ys, t.Records[i].Likes)
	}
	return p
}

func viewsVsLikes(opt Options, t *dataset.Table) (*canvas, error) {
	var groups []points
	for i, s := range dataset.ClaimStatuses {
		col := blue
		if i == 1 {
			col = orange
		}
		sub := t.WhereClaim(s)
		if sub.Len() == 0 {
			continue
		}
		groups = append(groups, viewsLikes(sub, string(s), col))
	}
	return scatter(opt, "Video Views vs. Likes by Claim Status", string(dataset.Views), string(dataset.Likes), groups)
}

func viewsVsLikesOpinions(opt Options, t *dataset.Table) (*canvas, error) {
	return scatter(opt, "Video Views vs. Likes (Opinions Only)", string(dataset.Views), string(dataset.Likes),
		[]points{viewsLikes(t.WhereClaim(dataset.Opinion), string(dataset.Opinion), blue)})
}

// Result is the outcome of one artifact.
type Result struct {
	Name string
	Path string
	Err  error
}

// Render draws a single artifact into dir.
func Render(ctx context.Context, a Artifact, t *dataset.Table, dir string, opt Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c, err := a.draw(opt, t)
	if err != nil {
		return "", fmt.Errorf("%s: %w", a.Name, err)
	}
	if err := utils.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, a.Name)
	if err := c.savePNG(path); err != nil {
		return "", err
	}
	return path, nil
}

// ErrSkipped marks an artifact that had nothing to draw, such as a pie
// over zero views. It does not fail RenderAll.
var ErrSkipped = errors.New("chart skipped")

// RenderAll draws artifacts concurrently with at most opt.Workers in
// flight. Artifacts without data are skipped and reported in the results;
// the first real error cancels the rest and is returned.
func RenderAll(ctx context.Context, t *dataset.Table, dir string, artifacts []Artifact, opt Options) ([]Result, error) {
	if artifacts == nil {
		artifacts = Catalog()
	}
	workers := opt.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}
	log := opt.Log
	if log == nil {
		log = logger.Nop()
	}

	results := make([]Result, len(artifacts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, a := range artifacts {
		g.Go(func() error {
			path, err := Render(gctx, a, t, dir, opt)
			results[i] = Result{Name: a.Name, Path: path, Err: err}
			switch {
			case err == nil:
				log.Debug("chart written", "chart", a.Name, "path", path)
				return nil
			case isEmpty(err):
				results[i].Err = fmt.Errorf("%w: %v", ErrSkipped, err)
				log.Warn("chart skipped", "chart", a.Name, "reason", err)
				return nil
			default:
				return err
			}
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func isEmpty(err error) bool {
	return errors.Is(err, analysis.ErrNoData) || errors.Is(err, errEmpty)
}
