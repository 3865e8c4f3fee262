package chart

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"strconv"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

var (
	background = color.White
	ink        = color.NRGBA{0x26, 0x26, 0x26, 0xff}
	gridColor  = color.NRGBA{0xe5, 0xe5, 0xe5, 0xff}

	// seaborn "deep" palette
	blue   = color.NRGBA{0x4c, 0x72, 0xb0, 0xff}
	orange = color.NRGBA{0xdd, 0x84, 0x52, 0xff}

	// author ban status palette, drawn at half alpha
	banColors = map[string]color.NRGBA{
		"active":       {0x00, 0x80, 0x00, 0x80},
		"under review": {0xff, 0xa5, 0x00, 0x80},
		"banned":       {0xff, 0x00, 0x00, 0x80},
	}
)

// LoadFont parses a TrueType font file.
func LoadFont(path string) (*truetype.Font, error) {
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsed, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return parsed, nil
}

// canvas is a figure of a given size in inches with a rectangular plot
// area inside margins.
type canvas struct {
	dc   *gg.Context
	w, h float64

	left, right, top, bottom float64
}

// newCanvas allocates a figure. Each canvas owns its font face since
// truetype faces are not safe for concurrent use.
func newCanvas(opt Options, wIn, hIn float64) *canvas {
	dpi := opt.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	w := int(math.Round(wIn * dpi))
	h := int(math.Round(hIn * dpi))
	dc := gg.NewContext(w, h)
	dc.SetColor(background)
	dc.Clear()

	var face font.Face = basicfont.Face7x13
	if opt.Font != nil {
		face = truetype.NewFace(opt.Font, &truetype.Options{
			Size:    9,
			DPI:     dpi,
			Hinting: font.HintingFull,
		})
	}
	dc.SetFontFace(face)

	_, lineH := dc.MeasureString("0")
	c := &canvas{dc: dc, w: float64(w), h: float64(h)}
	c.left = 4*lineH + 8
	c.right = c.w - lineH
	c.top = 2*lineH + 4
	c.bottom = c.h - 3*lineH - 4
	if c.bottom <= c.top {
		// very short figures (box plots) keep at least a thin band
		c.bottom = c.top + math.Max(c.h/3, 4)
	}
	return c
}

func (c *canvas) plotWidth() float64  { return c.right - c.left }
func (c *canvas) plotHeight() float64 { return c.bottom - c.top }

func (c *canvas) title(s string) {
	c.dc.SetColor(ink)
	c.dc.DrawStringAnchored(s, c.w/2, c.top/2, 0.5, 0.5)
}

func (c *canvas) xlabel(s string) {
	c.dc.SetColor(ink)
	c.dc.DrawStringAnchored(s, c.left+c.plotWidth()/2, c.h-4, 0.5, 0)
}

func (c *canvas) ylabel(s string) {
	c.dc.Push()
	defer c.dc.Pop()
	x, y := 4.0, c.top+c.plotHeight()/2
	c.dc.RotateAbout(gg.Radians(-90), x, y)
	c.dc.SetColor(ink)
	c.dc.DrawStringAnchored(s, x, y, 0.5, 1)
}

func (c *canvas) frame() {
	c.dc.SetColor(ink)
	c.dc.SetLineWidth(1)
	c.dc.DrawRectangle(c.left, c.top, c.plotWidth(), c.plotHeight())
	c.dc.Stroke()
}

// scale maps data values onto a pixel interval.
type scale struct {
	min, max     float64
	pxMin, pxMax float64
}

func (s scale) at(v float64) float64 {
	if s.max == s.min {
		return (s.pxMin + s.pxMax) / 2
	}
	return s.pxMin + (v-s.min)/(s.max-s.min)*(s.pxMax-s.pxMin)
}

func (c *canvas) xScale(min, max float64) scale {
	return scale{min: min, max: max, pxMin: c.left, pxMax: c.right}
}

func (c *canvas) yScale(min, max float64) scale {
	return scale{min: min, max: max, pxMin: c.bottom, pxMax: c.top}
}

func (c *canvas) xTicks(s scale, ticks []float64, label func(float64) string) {
	for _, t := range ticks {
		x := s.at(t)
		c.dc.SetColor(ink)
		c.dc.DrawLine(x, c.bottom, x, c.bottom+4)
		c.dc.Stroke()
		c.dc.DrawStringAnchored(label(t), x, c.bottom+6, 0.5, 1)
	}
}

func (c *canvas) yTicks(s scale, ticks []float64, label func(float64) string) {
	for _, t := range ticks {
		y := s.at(t)
		c.dc.SetColor(gridColor)
		c.dc.DrawLine(c.left, y, c.right, y)
		c.dc.Stroke()
		c.dc.SetColor(ink)
		c.dc.DrawLine(c.left-4, y, c.left, y)
		c.dc.Stroke()
		c.dc.DrawStringAnchored(label(t), c.left-6, y, 1, 0.5)
	}
}

type legendItem struct {
	label string
	color color.Color
}

func (c *canvas) legend(items []legendItem) {
	if len(items) == 0 {
		return
	}
	_, lineH := c.dc.MeasureString("0")
	var widest float64
	for _, it := range items {
		if w, _ := c.dc.MeasureString(it.label); w > widest {
			widest = w
		}
	}
	box := lineH
	x := c.right - widest - box - 16
	y := c.top + 6
	for i, it := range items {
		yy := y + float64(i)*(lineH+4)
		c.dc.SetColor(it.color)
		c.dc.DrawRectangle(x, yy, box, box)
		c.dc.Fill()
		c.dc.SetColor(ink)
		c.dc.DrawStringAnchored(it.label, x+box+4, yy+box/2, 0, 0.5)
	}
}

func (c *canvas) savePNG(path string) error {
	if err := c.dc.SavePNG(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// niceTicks returns round tick positions covering [min, max].
func niceTicks(min, max float64, n int) []float64 {
	if n < 2 {
		n = 2
	}
	if max <= min {
		return []float64{min}
	}
	step := niceNum((max-min)/float64(n-1), true)
	start := math.Floor(min/step) * step
	var out []float64
	for v := start; v <= max+step*1e-9; v += step {
		if v >= min-step*1e-9 {
			out = append(out, v)
		}
	}
	return out
}

func niceNum(x float64, round bool) float64 {
	exp := math.Floor(math.Log10(x))
	f := x / math.Pow(10, exp)
	var nf float64
	switch {
	case round && f < 1.5:
		nf = 1
	case round && f < 3:
		nf = 2
	case round && f < 7:
		nf = 5
	case round:
		nf = 10
	case f <= 1:
		nf = 1
	case f <= 2:
		nf = 2
	case f <= 5:
		nf = 5
	default:
		nf = 10
	}
	return nf * math.Pow(10, exp)
}

// numberLabel prints integers without a fraction and large values in
// scientific notation, like matplotlib's default formatter.
func numberLabel(v float64) string {
	if math.Abs(v) >= 1e6 {
		return strconv.FormatFloat(v, 'g', 3, 64)
	}
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// thousandsLabel prints 100000 as "100k".
func thousandsLabel(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v/1000, 'f', -1, 64) + "k"
}
