package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"slices"

	"otc-signal/internal/domain"
	"otc-signal/internal/signal"
)

const (
	MimeType = "image/png"

	chartWidth  = 960
	chartHeight = 640
	maxCandles  = 120

	marginLeft   = 60
	marginRight  = 20
	marginTop    = 20
	marginBottom = 24
)

var (
	paperColor   = color.RGBA{R: 252, G: 252, B: 250, A: 255}
	gridColor    = color.RGBA{R: 228, G: 231, B: 236, A: 255}
	wickColor    = color.RGBA{R: 70, G: 74, B: 92, A: 255}
	bullColor    = color.RGBA{R: 22, G: 150, B: 92, A: 255}
	bearColor    = color.RGBA{R: 214, G: 48, B: 72, A: 255}
	neutralColor = color.RGBA{R: 196, G: 150, B: 20, A: 255}
	bandColor    = color.RGBA{R: 120, G: 132, B: 150, A: 255}
	primaryColor = color.RGBA{R: 52, G: 96, B: 220, A: 255}
	accentColor  = color.RGBA{R: 240, G: 130, B: 20, A: 255}
)

// Renderer draws candle charts with the same windowed indicators the signal
// engine uses, so the overlays match what the engine saw at each point.
type Renderer struct {
	width  int
	height int
}

func NewRenderer() *Renderer {
	return &Renderer{width: chartWidth, height: chartHeight}
}

// Render draws candles as a PNG. The price panel carries the Bollinger bands
// and SMA, the lower panels RSI and MACD. When decision is non-nil the last
// candle is marked in the direction's color.
func (r *Renderer) Render(candles []*domain.Candle, decision *domain.SignalDecision) ([]byte, error) {
	bars := chronological(candles)
	if len(bars) < 2 {
		return nil, fmt.Errorf("need at least 2 candles to render chart, have %d", len(bars))
	}
	if len(bars) > maxCandles {
		bars = bars[len(bars)-maxCandles:]
	}
	closes := make([]float64, len(bars))
	for i, c := range bars {
		closes[i] = c.Close
	}
	ind := rollingIndicators(closes)

	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	draw.Draw(img, img.Bounds(), image.NewUniform(paperColor), image.Point{}, draw.Src)

	left, right := marginLeft, r.width-marginRight
	priceRect := image.Rect(left, marginTop, right, r.height*62/100)
	rsiRect := image.Rect(left, priceRect.Max.Y+16, right, r.height*80/100)
	macdRect := image.Rect(left, rsiRect.Max.Y+12, right, r.height-marginBottom)

	lo, hi := priceRange(bars, ind)
	price := newPanel(img, priceRect, len(bars), lo, hi)
	price.grid(8, 6)
	price.candles(bars)
	price.series(ind.upper, bandColor)
	price.series(ind.lower, bandColor)
	price.series(ind.sma, accentColor)

	rsi := newPanel(img, rsiRect, len(bars), 0, 100)
	rsi.grid(8, 2)
	rsi.level(30, bandColor)
	rsi.level(70, bandColor)
	rsi.series(ind.rsi, primaryColor)

	lo, hi = finiteBounds(slices.Concat(ind.macd, ind.macdSignal))
	macd := newPanel(img, macdRect, len(bars), lo, hi)
	macd.grid(8, 2)
	macd.level(0, bandColor)
	macd.series(ind.macd, primaryColor)
	macd.series(ind.macdSignal, accentColor)

	if decision != nil {
		x := price.x(len(bars) - 1)
		line(img, x, priceRect.Min.Y, x, priceRect.Max.Y, directionColor(decision.Direction))
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

type indicatorSeries struct {
	sma, upper, lower, rsi, macd, macdSignal []float64
}

// rollingIndicators evaluates the engine's indicator set over every trailing
// window. Points without a full window stay NaN and are not drawn.
func rollingIndicators(closes []float64) indicatorSeries {
	n := len(closes)
	blank := func() []float64 {
		s := make([]float64, n)
		for i := range s {
			s[i] = math.NaN()
		}
		return s
	}
	out := indicatorSeries{sma: blank(), upper: blank(), lower: blank(), rsi: blank(), macd: blank(), macdSignal: blank()}
	for end := signal.WindowSize; end <= n; end++ {
		set, err := signal.Compute(closes[end-signal.WindowSize : end])
		if err != nil {
			continue
		}
		i := end - 1
		out.sma[i], out.upper[i], out.lower[i] = set.SMA, set.BollingerUpper, set.BollingerLower
		out.rsi[i], out.macd[i], out.macdSignal[i] = set.RSI, set.MACD, set.MACDSignal
	}
	return out
}

func directionColor(d domain.Direction) color.RGBA {
	switch d {
	case domain.DirectionUp:
		return bullColor
	case domain.DirectionDown:
		return bearColor
	}
	return neutralColor
}

// chronological drops nil entries and orders candles oldest first.
func chronological(in []*domain.Candle) []domain.Candle {
	out := make([]domain.Candle, 0, len(in))
	for _, c := range in {
		if c != nil {
			out = append(out, *c)
		}
	}
	slices.SortFunc(out, func(a, b domain.Candle) int { return a.OpenTime.Compare(b.OpenTime) })
	return out
}

func priceRange(bars []domain.Candle, ind indicatorSeries) (float64, float64) {
	values := make([]float64, 0, len(bars)*4)
	for _, c := range bars {
		values = append(values, c.Low, c.High)
	}
	return finiteBounds(slices.Concat(values, ind.upper, ind.lower))
}

// finiteBounds ignores NaN and Inf. An empty or flat series gets a unit range.
func finiteBounds(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if isFinite(v) {
			lo, hi = min(lo, v), max(hi, v)
		}
	}
	switch {
	case lo > hi:
		return 0, 1
	case lo == hi:
		return lo, hi + 1
	}
	return lo, hi
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// panel maps candle indexes to x and values in [lo, hi] to y inside rect.
type panel struct {
	img    *image.RGBA
	rect   image.Rectangle
	n      int
	lo, hi float64
}

func newPanel(img *image.RGBA, rect image.Rectangle, n int, lo, hi float64) panel {
	return panel{img: img, rect: rect, n: n, lo: lo, hi: hi}
}

func (p panel) x(i int) int {
	if p.n <= 1 {
		return p.rect.Min.X
	}
	return p.rect.Min.X + i*(p.rect.Dx()-1)/(p.n-1)
}

func (p panel) y(v float64) int {
	if p.hi <= p.lo {
		return p.rect.Max.Y
	}
	frac := math.Max(0, math.Min(1, (v-p.lo)/(p.hi-p.lo)))
	return p.rect.Max.Y - int(frac*float64(p.rect.Dy()-1))
}

func (p panel) grid(cols, rows int) {
	for i := 0; i <= cols; i++ {
		x := p.rect.Min.X + p.rect.Dx()*i/max(1, cols)
		line(p.img, x, p.rect.Min.Y, x, p.rect.Max.Y, gridColor)
	}
	for i := 0; i <= rows; i++ {
		y := p.rect.Min.Y + p.rect.Dy()*i/max(1, rows)
		line(p.img, p.rect.Min.X, y, p.rect.Max.X, y, gridColor)
	}
}

func (p panel) level(v float64, c color.RGBA) {
	y := p.y(v)
	line(p.img, p.rect.Min.X, y, p.rect.Max.X, y, c)
}

func (p panel) candles(bars []domain.Candle) {
	half := max(3, (p.rect.Dx()-10)/len(bars)-1) / 2
	for i, c := range bars {
		x := p.x(i)
		line(p.img, x, p.y(c.High), x, p.y(c.Low), wickColor)

		top, bottom := p.y(max(c.Open, c.Close)), p.y(min(c.Open, c.Close))
		bottom = max(bottom, top+2)
		body := bullColor
		if c.Close < c.Open {
			body = bearColor
		}
		draw.Draw(p.img, image.Rect(x-half, top, x+half+1, bottom+1), image.NewUniform(body), image.Point{}, draw.Src)
	}
}

// series connects consecutive finite points; NaN leaves a gap.
func (p panel) series(values []float64, c color.RGBA) {
	var prev image.Point
	connected := false
	for i, v := range values {
		if !isFinite(v) {
			connected = false
			continue
		}
		pt := image.Pt(p.x(i), p.y(v))
		if connected {
			line(p.img, prev.X, prev.Y, pt.X, pt.Y, c)
		}
		prev, connected = pt, true
	}
}

// line is Bresenham's algorithm, clipped to the image bounds.
func line(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx, dy := x1-x0, y1-y0
	sx, sy := 1, 1
	if dx < 0 {
		dx, sx = -dx, -1
	}
	if dy < 0 {
		dy, sy = -dy, -1
	}
	bounds := img.Bounds()
	e := dx - dy
	for {
		if (image.Point{X: x0, Y: y0}).In(bounds) {
			img.SetRGBA(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 > -dy {
			e -= dy
			x0 += sx
		}
		if e2 < dx {
			e += dx
			y0 += sy
		}
	}
}
