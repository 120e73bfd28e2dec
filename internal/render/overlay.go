package render

import (
	"fmt"
	"image"
	"math"
	"strconv"

	"github.com/gogpu/gg"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"basemap/internal/config"
)

// NumTicks is the number of labelled grid lines per axis.
const NumTicks = 6

// overlay font sizes and stroke widths, in points
const (
	titleSize  = 26
	labelSize  = 20
	tickSize   = 16
	legendSize = 14
	scaleSize  = 14
	northSize  = 20
	attribSize = 8
	gridWidth  = 1.5
	frameWidth = 1.0
	tickLength = 5.0
)

var black = gg.RGBA{A: 1}

func drawOverlay(f *Figure, style config.Style, title string) error {
	dc := f.overlay
	steps := []func(*gg.Context, *Figure) error{
		drawGrid,
		drawFrame,
		drawTickLabels,
		func(dc *gg.Context, f *Figure) error { return drawTitles(dc, f, title) },
		func(dc *gg.Context, f *Figure) error { return drawLegend(dc, f, style) },
		func(dc *gg.Context, f *Figure) error { return drawScaleBar(dc, f, style.ScaleBarKM) },
		drawNorthArrow,
	}
	for _, step := range steps {
		if err := step(dc, f); err != nil {
			return err
		}
	}
	return nil
}

// Ticks returns n evenly spaced positions from lo to hi inclusive.
func Ticks(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// FormatLon renders a longitude as 12.34°E / 12.34°W.
func FormatLon(v float64) string { return formatDeg(v, "E", "W") }

// FormatLat renders a latitude as 12.34°N / 12.34°S.
func FormatLat(v float64) string { return formatDeg(v, "N", "S") }

func formatDeg(v float64, pos, neg string) string {
	hemi := pos
	if v < 0 && math.Abs(v) >= 0.005 {
		hemi = neg
	}
	return fmt.Sprintf("%.2f°%s", math.Abs(v), hemi)
}

func drawGrid(dc *gg.Context, f *Figure) error {
	dc.Push()
	defer dc.Pop()
	dc.SetRGBA(0.5, 0.5, 0.5, 0.8)
	dc.SetLineWidth(f.px(gridWidth))
	dc.SetDash(f.px(6), f.px(4))
	dc.SetLineCap(gg.LineCapButt)

	top, bottom := float64(f.Plot.Min.Y), float64(f.Plot.Max.Y)
	left, right := float64(f.Plot.Min.X), float64(f.Plot.Max.X)
	dc.ClearPath()
	for _, x := range Ticks(f.Extent.Min[0], f.Extent.Max[0], NumTicks) {
		cx, _ := f.toCanvas(orb.Point{x, f.Extent.Min[1]})
		dc.MoveTo(cx, top)
		dc.LineTo(cx, bottom)
	}
	for _, y := range Ticks(f.Extent.Min[1], f.Extent.Max[1], NumTicks) {
		_, cy := f.toCanvas(orb.Point{f.Extent.Min[0], y})
		dc.MoveTo(left, cy)
		dc.LineTo(right, cy)
	}
	err := dc.Stroke()
	dc.ClearDash()
	return err
}

func drawFrame(dc *gg.Context, f *Figure) error {
	use(dc, black)
	dc.SetLineWidth(f.px(frameWidth))
	dc.ClearPath()
	dc.DrawRectangle(float64(f.Plot.Min.X), float64(f.Plot.Min.Y), float64(f.Plot.Dx()), float64(f.Plot.Dy()))
	if err := dc.Stroke(); err != nil {
		return err
	}

	// tick marks outside the frame
	tl := f.px(tickLength)
	dc.ClearPath()
	for _, x := range Ticks(f.Extent.Min[0], f.Extent.Max[0], NumTicks) {
		cx, _ := f.toCanvas(orb.Point{x, f.Extent.Min[1]})
		dc.MoveTo(cx, float64(f.Plot.Max.Y))
		dc.LineTo(cx, float64(f.Plot.Max.Y)+tl)
	}
	for _, y := range Ticks(f.Extent.Min[1], f.Extent.Max[1], NumTicks) {
		_, cy := f.toCanvas(orb.Point{f.Extent.Min[0], y})
		dc.MoveTo(float64(f.Plot.Min.X), cy)
		dc.LineTo(float64(f.Plot.Min.X)-tl, cy)
	}
	return dc.Stroke()
}

// TickLabels returns the lon labels along the bottom edge and the lat
// labels along the left edge of a Mercator extent.
func TickLabels(extent orb.Bound, n int) (lons, lats []string) {
	for _, x := range Ticks(extent.Min[0], extent.Max[0], n) {
		ll := project.Mercator.ToWGS84(orb.Point{x, extent.Min[1]})
		lons = append(lons, FormatLon(ll[0]))
	}
	for _, y := range Ticks(extent.Min[1], extent.Max[1], n) {
		ll := project.Mercator.ToWGS84(orb.Point{extent.Min[0], y})
		lats = append(lats, FormatLat(ll[1]))
	}
	return lons, lats
}

func drawTickLabels(dc *gg.Context, f *Figure) error {
	use(dc, black)
	dc.SetFont(f.face(tickSize, false))
	gap := f.px(tickLength) + f.px(3)
	lons, lats := TickLabels(f.Extent, NumTicks)
	for i, x := range Ticks(f.Extent.Min[0], f.Extent.Max[0], NumTicks) {
		cx, _ := f.toCanvas(orb.Point{x, f.Extent.Min[1]})
		dc.DrawStringAnchored(lons[i], cx, float64(f.Plot.Max.Y)+gap, 0.5, 1)
	}
	for i, y := range Ticks(f.Extent.Min[1], f.Extent.Max[1], NumTicks) {
		_, cy := f.toCanvas(orb.Point{f.Extent.Min[0], y})
		dc.DrawStringAnchored(lats[i], float64(f.Plot.Min.X)-gap, cy, 1, 0.35)
	}
	return nil
}

func drawTitles(dc *gg.Context, f *Figure, title string) error {
	use(dc, black)
	cx := float64(f.Plot.Min.X + f.Plot.Dx()/2)

	dc.SetFont(f.face(titleSize, false))
	dc.DrawStringAnchored(title, cx, float64(f.Plot.Min.Y)-f.px(12), 0.5, 0)

	dc.SetFont(f.face(tickSize, false))
	_, tickH := dc.MeasureString("0")
	dc.SetFont(f.face(labelSize, false))
	below := float64(f.Plot.Max.Y) + f.px(tickLength+6) + tickH
	dc.DrawStringAnchored("Longitude", cx, below, 0.5, 1)

	// gg text ignores the transform, so the y label is rasterised on its
	// own and rotated by hand
	dc.SetFont(f.face(tickSize, false))
	tickW, _ := dc.MeasureString("00.00°N")
	label, err := rotatedText(f, "Latitude", labelSize)
	if err != nil {
		return err
	}
	x := float64(f.Plot.Min.X) - f.px(tickLength+6) - tickW - float64(label.Bounds().Dx())
	y := float64(f.Plot.Min.Y+f.Plot.Dy()/2) - float64(label.Bounds().Dy())/2
	dc.DrawImage(gg.ImageBufFromImage(label), math.Max(0, x), y)
	return nil
}

// rotatedText renders s and turns it 90° counter-clockwise so it reads
// bottom to top.
func rotatedText(f *Figure, s string, pt float64) (*image.RGBA, error) {
	face := f.face(pt, false)
	m := gg.NewContext(1, 1)
	m.SetFont(face)
	w, h := m.MeasureString(s)
	if err := m.Close(); err != nil {
		return nil, err
	}
	tw, th := int(math.Ceil(w))+2, int(math.Ceil(h))+2

	dc := gg.NewContext(tw, th)
	defer dc.Close()
	dc.SetFont(face)
	use(dc, black)
	dc.DrawString(s, 1, 1+h*0.78)
	if err := dc.FlushGPU(); err != nil {
		return nil, err
	}
	src := dc.Image()

	out := image.NewRGBA(image.Rect(0, 0, th, tw))
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			out.Set(y, tw-1-x, src.At(x, y))
		}
	}
	return out, nil
}

func drawLegend(dc *gg.Context, f *Figure, style config.Style) error {
	if style.Legend == "" {
		return nil
	}
	dc.SetFont(f.face(legendSize, false))
	tw, th := dc.MeasureString(style.Legend)
	pad := f.px(6)
	sw, sh := f.px(24), f.px(12)
	x := float64(f.Plot.Min.X) + f.px(10)
	y := float64(f.Plot.Min.Y) + f.px(10)
	bw := pad + sw + pad + tw + pad
	bh := math.Max(sh, th) + 2*pad

	dc.ClearPath()
	dc.DrawRectangle(x, y, bw, bh)
	dc.SetRGBA(1, 1, 1, 0.8)
	if err := dc.FillPreserve(); err != nil {
		return err
	}
	dc.SetRGBA(0.8, 0.8, 0.8, 1)
	dc.SetLineWidth(f.px(0.8))
	if err := dc.Stroke(); err != nil {
		return err
	}

	sx, sy := x+pad, y+(bh-sh)/2
	dc.ClearPath()
	dc.DrawRectangle(sx, sy, sw, sh)
	use(dc, withAlpha(style.Fill(), style.FillAlpha))
	if err := dc.FillPreserve(); err != nil {
		return err
	}
	use(dc, withAlpha(style.Edge(), 1))
	dc.SetLineWidth(f.px(1))
	if err := dc.Stroke(); err != nil {
		return err
	}

	use(dc, black)
	dc.DrawStringAnchored(style.Legend, sx+sw+pad, y+bh/2, 0, 0.35)
	return nil
}

// ScaleBarKM picks a 1, 2 or 5 times 10^n km length close to a fifth of the
// ground width of a Mercator extent.
func ScaleBarKM(extent orb.Bound) float64 {
	target := groundWidthKM(extent) / 5
	if target <= 0 {
		return 1
	}
	mag := math.Pow(10, math.Floor(math.Log10(target)))
	best := mag
	for _, m := range []float64{2, 5} {
		if m*mag <= target {
			best = m * mag
		}
	}
	return best
}

// Mercator stretches distances by 1/cos(lat); undo it at the centre.
func mercatorScale(extent orb.Bound) float64 {
	lat := project.Mercator.ToWGS84(extent.Center())[1]
	return math.Cos(lat * math.Pi / 180)
}

func groundWidthKM(extent orb.Bound) float64 {
	return (extent.Max[0] - extent.Min[0]) * mercatorScale(extent) / 1000
}

func drawScaleBar(dc *gg.Context, f *Figure, km float64) error {
	if km <= 0 {
		km = ScaleBarKM(f.Extent)
	}
	merc := km * 1000 / mercatorScale(f.Extent)
	length := merc * float64(f.Plot.Dx()) / (f.Extent.Max[0] - f.Extent.Min[0])

	x1 := float64(f.Plot.Max.X) - 0.04*float64(f.Plot.Dx())
	x0 := x1 - length
	y := float64(f.Plot.Max.Y) - 0.05*float64(f.Plot.Dy())
	tick := f.px(4)

	use(dc, black)
	dc.SetLineCap(gg.LineCapButt)
	dc.ClearPath()
	dc.MoveTo(x0, y)
	dc.LineTo(x1, y)
	dc.SetLineWidth(f.px(6))
	if err := dc.Stroke(); err != nil {
		return err
	}
	dc.ClearPath()
	dc.MoveTo(x0, y-tick)
	dc.LineTo(x0, y+tick)
	dc.MoveTo(x1, y-tick)
	dc.LineTo(x1, y+tick)
	dc.SetLineWidth(f.px(2))
	if err := dc.Stroke(); err != nil {
		return err
	}

	dc.SetFont(f.face(scaleSize, true))
	dc.DrawStringAnchored(strconv.FormatFloat(km, 'f', -1, 64)+" KM", (x0+x1)/2, y-f.px(6), 0.5, 0)
	return nil
}

func drawNorthArrow(dc *gg.Context, f *Figure) error {
	// tip at 95% of the axes, tail 5% below, as fractions of the plot height
	cx := float64(f.Plot.Min.X) + 0.95*float64(f.Plot.Dx())
	tipY := float64(f.Plot.Min.Y) + 0.05*float64(f.Plot.Dy())
	tailY := tipY + 0.05*float64(f.Plot.Dy())
	headW, headL, shaft := f.px(20), f.px(15), f.px(8)

	dc.SetFont(f.face(northSize, false))
	_, th := dc.MeasureString("N")
	shaftEnd := tailY - th*0.6

	use(dc, black)
	dc.ClearPath()
	dc.MoveTo(cx, tipY)
	dc.LineTo(cx+headW/2, tipY+headL)
	dc.LineTo(cx+shaft/2, tipY+headL)
	dc.LineTo(cx+shaft/2, shaftEnd)
	dc.LineTo(cx-shaft/2, shaftEnd)
	dc.LineTo(cx-shaft/2, tipY+headL)
	dc.LineTo(cx-headW/2, tipY+headL)
	dc.ClosePath()
	dc.SetFillRule(gg.FillRuleNonZero)
	if err := dc.Fill(); err != nil {
		return err
	}
	dc.DrawStringAnchored("N", cx, tailY, 0.5, 0.35)
	return nil
}

func drawAttribution(dc *gg.Context, f *Figure, credit string) {
	if credit == "" {
		return
	}
	dc.SetFont(f.face(attribSize, false))
	x := float64(f.Plot.Min.X) + f.px(4)
	y := float64(f.Plot.Max.Y) - f.px(4)
	w, h := dc.MeasureString(credit)
	dc.ClearPath()
	dc.DrawRectangle(x-f.px(2), y-h, w+f.px(4), h+f.px(2))
	dc.SetRGBA(1, 1, 1, 0.6)
	_ = dc.Fill()
	use(dc, black)
	dc.DrawString(credit, x, y-f.px(2))
}
