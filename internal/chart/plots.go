package chart

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/KaramelBytes/claimlens/internal/analysis"
)

var errEmpty = errors.New("nothing to draw")

// boxStats are the Tukey box plot elements of a sample.
type boxStats struct {
	q1, median, q3 float64
	lo, hi         float64 // whisker ends
	fliers         []float64
}

// tukey places whiskers at the most extreme values within 1.5 IQR of the box.
func tukey(values []float64) (boxStats, error) {
	s, err := analysis.Summarize(values)
	if err != nil {
		return boxStats{}, err
	}
	iqr := s.IQR()
	loFence, hiFence := s.Q1-1.5*iqr, s.Q3+1.5*iqr
	b := boxStats{q1: s.Q1, median: s.Median, q3: s.Q3, lo: s.Q1, hi: s.Q3}
	for _, v := range values {
		switch {
		case v < loFence || v > hiFence:
			b.fliers = append(b.fliers, v)
		default:
			b.lo = math.Min(b.lo, v)
			b.hi = math.Max(b.hi, v)
		}
	}
	return b, nil
}

func boxPlot(opt Options, title string, widthIn float64, values []float64) (*canvas, error) {
	b, err := tukey(values)
	if err != nil {
		return nil, err
	}
	c := newCanvas(opt, widthIn, 1)
	min, max := b.lo, b.hi
	for _, f := range b.fliers {
		min = math.Min(min, f)
		max = math.Max(max, f)
	}
	pad := (max - min) * 0.05
	xs := c.xScale(min-pad, max+pad)
	c.title(title)
	c.frame()
	c.xTicks(xs, niceTicks(min, max, 6), numberLabel)

	mid := c.top + c.plotHeight()/2
	half := c.plotHeight() * 0.3
	c.dc.SetColor(blue)
	c.dc.DrawRectangle(xs.at(b.q1), mid-half, xs.at(b.q3)-xs.at(b.q1), 2*half)
	c.dc.Fill()
	c.dc.SetColor(ink)
	c.dc.SetLineWidth(1.5)
	c.dc.DrawRectangle(xs.at(b.q1), mid-half, xs.at(b.q3)-xs.at(b.q1), 2*half)
	c.dc.DrawLine(xs.at(b.median), mid-half, xs.at(b.median), mid+half)
	c.dc.DrawLine(xs.at(b.lo), mid, xs.at(b.q1), mid)
	c.dc.DrawLine(xs.at(b.q3), mid, xs.at(b.hi), mid)
	c.dc.DrawLine(xs.at(b.lo), mid-half/2, xs.at(b.lo), mid+half/2)
	c.dc.DrawLine(xs.at(b.hi), mid-half/2, xs.at(b.hi), mid+half/2)
	c.dc.Stroke()
	for _, f := range b.fliers {
		c.dc.DrawCircle(xs.at(f), mid, 2)
		c.dc.Stroke()
	}
	return c, nil
}

// binCounts counts values per bin. Bins are half-open except the last,
// which includes its right edge; values outside the edges are ignored.
func binCounts(values, edges []float64) []int {
	if len(edges) < 2 {
		return nil
	}
	counts := make([]int, len(edges)-1)
	last := edges[len(edges)-1]
	for _, v := range values {
		if v < edges[0] || v > last {
			continue
		}
		i := sort.Search(len(edges), func(i int) bool { return edges[i] > v }) - 1
		if i >= len(counts) {
			i = len(counts) - 1
		}
		counts[i]++
	}
	return counts
}

// rangeEdges returns start, start+step, ... up to and including stop.
func rangeEdges(start, stop, step float64) []float64 {
	var out []float64
	for i := 0; ; i++ {
		v := start + float64(i)*step
		if v > stop {
			break
		}
		out = append(out, v)
	}
	return out
}

type histSpec struct {
	title  string
	xlabel string
	edges  []float64
	ticks  []float64 // nil uses nice ticks over the edges
	label  func(float64) string
}

func histogram(opt Options, spec histSpec, values []float64) (*canvas, error) {
	if len(spec.edges) < 2 {
		return nil, fmt.Errorf("histogram %q: need at least two bin edges", spec.title)
	}
	counts := binCounts(values, spec.edges)
	peak := 0
	for _, n := range counts {
		if n > peak {
			peak = n
		}
	}
	c := newCanvas(opt, 5, 3)
	lo, hi := spec.edges[0], spec.edges[len(spec.edges)-1]
	xs := c.xScale(lo, hi)
	ys := c.yScale(0, math.Max(float64(peak)*1.05, 1))
	c.title(spec.title)
	c.yTicks(ys, niceTicks(0, math.Max(float64(peak), 1), 5), numberLabel)
	for i, n := range counts {
		x0, x1 := xs.at(spec.edges[i]), xs.at(spec.edges[i+1])
		y := ys.at(float64(n))
		c.dc.SetColor(color.NRGBA{blue.R, blue.G, blue.B, 0xbf})
		c.dc.DrawRectangle(x0, y, x1-x0, c.bottom-y)
		c.dc.Fill()
		c.dc.SetColor(ink)
		c.dc.SetLineWidth(0.5)
		c.dc.DrawRectangle(x0, y, x1-x0, c.bottom-y)
		c.dc.Stroke()
	}
	ticks := spec.ticks
	if ticks == nil {
		ticks = niceTicks(lo, hi, 6)
	}
	label := spec.label
	if label == nil {
		label = numberLabel
	}
	c.frame()
	c.xTicks(xs, ticks, label)
	c.xlabel(spec.xlabel)
	c.ylabel("Count")
	return c, nil
}

// series is one hue of a dodged bar chart; values align with categories.
// colors, when set, overrides color per category.
type series struct {
	name   string
	color  color.Color
	colors []color.Color
	values []float64
}

// dodgedBars draws one bar per series side by side within each category
// slot. shrink is the fraction of the slot the group occupies.
func dodgedBars(opt Options, title, xlabel, ylabel string, wIn, hIn float64, categories []string, ss []series, shrink float64) (*canvas, error) {
	if len(categories) == 0 || len(ss) == 0 {
		return nil, fmt.Errorf("bar chart %q: %w", title, errEmpty)
	}
	var peak float64
	for _, s := range ss {
		if len(s.values) != len(categories) {
			return nil, fmt.Errorf("bar chart %q: series %q has %d values for %d categories", title, s.name, len(s.values), len(categories))
		}
		for _, v := range s.values {
			if !math.IsNaN(v) {
				peak = math.Max(peak, v)
			}
		}
	}
	c := newCanvas(opt, wIn, hIn)
	ys := c.yScale(0, math.Max(peak*1.05, 1))
	c.title(title)
	c.yTicks(ys, niceTicks(0, math.Max(peak, 1), 5), numberLabel)

	slot := c.plotWidth() / float64(len(categories))
	barW := slot * shrink / float64(len(ss))
	for ci, cat := range categories {
		x0 := c.left + float64(ci)*slot + slot*(1-shrink)/2
		for si, s := range ss {
			v := s.values[ci]
			if math.IsNaN(v) {
				continue
			}
			y := ys.at(v)
			if s.colors != nil {
				c.dc.SetColor(s.colors[ci])
			} else {
				c.dc.SetColor(s.color)
			}
			c.dc.DrawRectangle(x0+float64(si)*barW, y, barW, c.bottom-y)
			c.dc.Fill()
		}
		c.dc.SetColor(ink)
		c.dc.DrawStringAnchored(cat, c.left+(float64(ci)+0.5)*slot, c.bottom+6, 0.5, 1)
	}
	c.frame()
	c.xlabel(xlabel)
	c.ylabel(ylabel)
	if len(ss) > 1 {
		items := make([]legendItem, len(ss))
		for i, s := range ss {
			items[i] = legendItem{label: s.name, color: s.color}
		}
		c.legend(items)
	}
	return c, nil
}

// pie draws wedges clockwise from twelve o'clock with percentage labels.
func pie(opt Options, title string, labels []string, values []float64) (*canvas, error) {
	var total float64
	for _, v := range values {
		if v < 0 {
			return nil, fmt.Errorf("pie %q: negative wedge", title)
		}
		total += v
	}
	if total == 0 {
		return nil, fmt.Errorf("pie %q: total is zero: %w", title, errEmpty)
	}
	c := newCanvas(opt, 3, 3)
	c.title(title)
	cx := c.w / 2
	cy := c.top + (c.h-c.top)/2
	r := math.Min(c.w, c.h-c.top) * 0.35
	palette := []color.Color{blue, orange}
	angle := -math.Pi / 2
	for i, v := range values {
		sweep := v / total * 2 * math.Pi
		c.dc.SetColor(palette[i%len(palette)])
		c.dc.MoveTo(cx, cy)
		c.dc.DrawArc(cx, cy, r, angle, angle+sweep)
		c.dc.ClosePath()
		c.dc.Fill()

		mid := angle + sweep/2
		c.dc.SetColor(ink)
		c.dc.DrawStringAnchored(fmt.Sprintf("%.1f%%", v/total*100), cx+0.6*r*math.Cos(mid), cy+0.6*r*math.Sin(mid), 0.5, 0.5)
		c.dc.DrawStringAnchored(labels[i], cx+1.15*r*math.Cos(mid), cy+1.15*r*math.Sin(mid), 0.5, 0.5)
		angle += sweep
	}
	return c, nil
}

type points struct {
	name   string
	color  color.NRGBA
	xs, ys []float64
}

// scatter draws small translucent markers, one color per group.
func scatter(opt Options, title, xlabel, ylabel string, groups []points) (*canvas, error) {
	var maxX, maxY float64
	n := 0
	for _, g := range groups {
		if len(g.xs) != len(g.ys) {
			return nil, fmt.Errorf("scatter %q: %d x values for %d y values", title, len(g.xs), len(g.ys))
		}
		for i := range g.xs {
			maxX = math.Max(maxX, g.xs[i])
			maxY = math.Max(maxY, g.ys[i])
		}
		n += len(g.xs)
	}
	if n == 0 {
		return nil, fmt.Errorf("scatter %q: %w", title, errEmpty)
	}
	c := newCanvas(opt, 8, 5)
	xs := c.xScale(0, math.Max(maxX*1.05, 1))
	ys := c.yScale(0, math.Max(maxY*1.05, 1))
	c.title(title)
	c.yTicks(ys, niceTicks(0, math.Max(maxY, 1), 6), numberLabel)
	for _, g := range groups {
		col := g.color
		col.A = 0x4d
		c.dc.SetColor(col)
		for i := range g.xs {
			c.dc.DrawCircle(xs.at(g.xs[i]), ys.at(g.ys[i]), 1.6)
			c.dc.Fill()
		}
	}
	c.frame()
	c.xTicks(xs, niceTicks(0, math.Max(maxX, 1), 6), numberLabel)
	c.xlabel(xlabel)
	c.ylabel(ylabel)
	if len(groups) > 1 {
		items := make([]legendItem, len(groups))
		for i, g := range groups {
			items[i] = legendItem{label: g.name, color: g.color}
		}
		c.legend(items)
	}
	return c, nil
}
