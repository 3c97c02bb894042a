package chart

import (
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"palmdash/internal/dataset"
)

// Series is one named line of the time-series chart.
type Series struct {
	Line   LineConfig
	Points []dataset.YearTotal
}

// TimeSeries is a multi-line chart sharing one year axis and one value axis.
type TimeSeries struct {
	Layout TimeSeriesLayout
	Series []Series

	svg cachedSVG
}

// NewTimeSeries builds the chart object. Styling is taken from layout as is.
func NewTimeSeries(layout TimeSeriesLayout, series ...Series) *TimeSeries {
	return &TimeSeries{Layout: layout, Series: series}
}

// Names lists the series names in drawing order.
func (ts *TimeSeries) Names() []string {
	names := make([]string, len(ts.Series))
	for i, s := range ts.Series {
		names[i] = s.Line.Name
	}
	return names
}

// Render writes the chart in the given format ("svg", "png", "pdf", ...).
func (ts *TimeSeries) Render(w io.Writer, format string) error {
	return render(w, format, ts.Layout.Width, ts.Layout.Height, ts.paint)
}

// SVG returns the chart rendered as SVG; the result is computed once.
func (ts *TimeSeries) SVG() ([]byte, error) {
	return ts.svg.get(ts.Render)
}

type legendEntry struct {
	name  string
	thumb plot.Thumbnailer
}

func (ts *TimeSeries) paint(c draw.Canvas) {
	l := ts.Layout
	p, entries := ts.plot()

	if l.Legend.Orientation != "h" || len(entries) == 0 {
		for _, e := range entries {
			p.Legend.Add(e.name, e.thumb)
		}
		p.Legend.Top = l.Legend.Y >= 0.5
		p.Legend.Left = l.Legend.X < 0.5
		p.Draw(c)
		return
	}

	stripHeight := vg.Points(l.Font.Size * 2.5)
	height := c.Max.Y - c.Min.Y
	width := c.Max.X - c.Min.X

	var strip draw.Canvas
	if l.Legend.Y < 0 {
		p.Draw(rows(c, stripHeight, height))
		strip = rows(c, 0, stripHeight)
	} else {
		p.Draw(rows(c, 0, height-stripHeight))
		strip = rows(c, height-stripHeight, height)
	}

	start := vg.Length(math.Max(0, math.Min(1, l.Legend.X))) * width
	cell := (width - start) / vg.Length(len(entries))
	for i, e := range entries {
		legend := plot.NewLegend()
		legend.TextStyle = p.Legend.TextStyle
		legend.Top = true
		legend.Left = true
		legend.Add(e.name, e.thumb)
		x0 := start + vg.Length(i)*cell
		legend.Draw(columns(strip, x0, x0+cell))
	}
}

func (ts *TimeSeries) plot() (*plot.Plot, []legendEntry) {
	l := ts.Layout
	textColor := mustColor(l.Font.Color)

	p := plot.New()
	p.BackgroundColor = mustColor(l.PlotColor)
	if l.Title != "" {
		p.Title.Text = l.Title
		p.Title.TextStyle.Font = fontFor(l.Font, l.Font.Size)
		p.Title.TextStyle.Color = textColor
	}
	styleAxis(&p.X, l.XAxis, l.Font)
	styleAxis(&p.Y, l.YAxis, l.Font)
	p.X.Tick.Marker = yearTicker{max: l.XAxis.NTicks}
	p.Legend.TextStyle.Font = fontFor(l.Font, l.Font.Size)
	p.Legend.TextStyle.Color = textColor

	grid := plotter.NewGrid()
	grid.Vertical.Color = gridColor(l.XAxis.GridColor)
	grid.Horizontal.Color = gridColor(l.YAxis.GridColor)
	p.Add(grid)

	var entries []legendEntry
	for _, s := range ts.Series {
		if len(s.Points) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(s.Points))
		for i, pt := range s.Points {
			pts[i].X = float64(pt.Year)
			pts[i].Y = pt.Value
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			// NaN or Inf areas cannot be drawn; the series is left out.
			continue
		}
		line.Color = mustColor(s.Line.Color)
		line.Width = vg.Points(lineWidth(s.Line.Width))
		p.Add(line)
		entries = append(entries, legendEntry{name: s.Line.Name, thumb: line})
	}

	if math.IsInf(p.X.Min, 0) || math.IsInf(p.X.Max, 0) {
		p.X.Min, p.X.Max = 0, 1
		p.Y.Min, p.Y.Max = 0, 1
	}
	return p, entries
}

func styleAxis(a *plot.Axis, cfg AxisConfig, f FontConfig) {
	textColor := mustColor(f.Color)

	a.Label.Text = cfg.Title
	a.Label.TextStyle.Font = fontFor(f, f.Size)
	a.Label.TextStyle.Color = textColor

	tickSize := cfg.TickFontSize
	if tickSize == 0 {
		tickSize = f.Size
	}
	a.Tick.Label.Font = fontFor(f, tickSize)
	a.Tick.Label.Color = textColor

	if cfg.LineColor != "" {
		lc := mustColor(cfg.LineColor)
		a.LineStyle.Color = lc
		a.Tick.LineStyle.Color = lc
	}
	if cfg.Ticks == "inside" {
		a.Tick.Length = -a.Tick.Length
	}
}

func gridColor(s string) color.Color {
	if s == "" {
		return color.Transparent
	}
	return mustColor(s)
}

func lineWidth(w float64) float64 {
	if w <= 0 {
		return 2
	}
	return w
}
