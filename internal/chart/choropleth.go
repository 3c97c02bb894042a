package chart

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"palmdash/internal/spatial"
)

const (
	earthRadius = 6378137.0
	// tileSize matches the 512 px vector tiles zoom levels are defined against.
	tileSize   = 512.0
	colorBarPx = 90
)

// Choropleth is a polygon map filled from a continuous color scale.
type Choropleth struct {
	Config MapConfig
	Layer  *spatial.Layer

	scale  *Scale
	shapes []filledShape
	view   orb.Bound
	svg    cachedSVG
}

type filledShape struct {
	geometry orb.MultiPolygon // web mercator metres
	fill     color.Color
}

// NewChoropleth colors every feature of a reprojected layer by its year.
func NewChoropleth(cfg MapConfig, layer *spatial.Layer) (*Choropleth, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if layer.CRS == nil || layer.CRS.EPSG() != spatial.EPSG4326 {
		return nil, fmt.Errorf("layer %s must be reprojected to EPSG:%d before mapping", layer.Name, spatial.EPSG4326)
	}

	scale, err := ScaleByName(cfg.Scale)
	if err != nil {
		return nil, err
	}
	if min, max, ok := layer.YearRange(); ok {
		scale.SetRange(float64(min), float64(max))
	}

	m := &Choropleth{
		Config: cfg,
		Layer:  layer,
		scale:  scale,
		shapes: make([]filledShape, 0, len(layer.Features)),
	}
	for _, f := range layer.Features {
		fill, err := scale.At(float64(f.Year))
		if err != nil {
			return nil, fmt.Errorf("color feature %d of %s: %w", f.ID, layer.Name, err)
		}
		m.shapes = append(m.shapes, filledShape{
			geometry: project.MultiPolygon(f.Geometry.Clone(), project.WGS84.ToMercator),
			fill:     fill,
		})
	}

	mapWidth := cfg.Width - m.colorBarWidth()
	m.view = viewport(cfg.Center, cfg.Zoom, float64(mapWidth), float64(cfg.Height))
	return m, nil
}

// Scale is the color scale spanning the layer's years.
func (m *Choropleth) Scale() *Scale { return m.scale }

// Fills returns the fill color of each feature, in layer order.
func (m *Choropleth) Fills() []color.Color {
	fills := make([]color.Color, len(m.shapes))
	for i, s := range m.shapes {
		fills[i] = s.fill
	}
	return fills
}

// Visible reports whether a longitude/latitude falls inside the map viewport.
func (m *Choropleth) Visible(p orb.Point) bool {
	return m.view.Contains(project.WGS84.ToMercator(p))
}

// Render writes the map in the given format.
func (m *Choropleth) Render(w io.Writer, format string) error {
	return render(w, format, m.Config.Width, m.Config.Height, m.paint)
}

// SVG returns the map rendered as SVG; the result is computed once.
func (m *Choropleth) SVG() ([]byte, error) {
	return m.svg.get(m.Render)
}

func (m *Choropleth) colorBarWidth() int {
	if w := m.Config.Width / 4; w < colorBarPx {
		return w
	}
	return colorBarPx
}

func (m *Choropleth) paint(c draw.Canvas) {
	width := c.Max.X - c.Min.X
	bar := pixels(m.colorBarWidth())

	p := plot.New()
	p.HideAxes()
	p.X.Padding, p.Y.Padding = 0, 0
	p.BackgroundColor = mapBackgrounds[m.Config.Style]
	p.Add(&polygons{
		shapes: m.shapes,
		line:   draw.LineStyle{Color: color.White, Width: vg.Points(m.Config.MarkerLineWidth)},
	})
	p.X.Min, p.X.Max = m.view.Min.X(), m.view.Max.X()
	p.Y.Min, p.Y.Max = m.view.Min.Y(), m.view.Max.Y()
	p.Draw(columns(c, 0, width-bar))

	cb := plot.New()
	cb.HideX()
	cb.Y.Label.Text = m.Config.Label
	cb.Y.Label.TextStyle.Font = fontFor(FontConfig{}, 10)
	cb.Y.Tick.Label.Font = fontFor(FontConfig{}, 9)
	cb.Y.Tick.Marker = yearTicker{max: 6}
	cb.Add(&plotter.ColorBar{ColorMap: m.scale, Vertical: true, Colors: 64})
	cb.Draw(columns(c, width-bar, width))
}

// viewport is the web-mercator rectangle shown by a map of the given pixel
// size centred on center at a fractional zoom level.
func viewport(center LatLon, zoom float64, widthPx, heightPx float64) orb.Bound {
	c := project.WGS84.ToMercator(orb.Point{center.Lon, center.Lat})
	metresPerPixel := 2 * math.Pi * earthRadius / (tileSize * math.Pow(2, zoom))
	hw, hh := widthPx/2*metresPerPixel, heightPx/2*metresPerPixel
	return orb.Bound{
		Min: orb.Point{c.X() - hw, c.Y() - hh},
		Max: orb.Point{c.X() + hw, c.Y() + hh},
	}
}

// polygons fills multipolygons given in plot data coordinates.
type polygons struct {
	shapes []filledShape
	line   draw.LineStyle
}

func (ps *polygons) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)

	for _, s := range ps.shapes {
		var path vg.Path
		for _, poly := range s.geometry {
			for _, ring := range poly {
				pts := make([]vg.Point, len(ring))
				for i, pt := range ring {
					pts[i] = vg.Point{X: trX(pt.X()), Y: trY(pt.Y())}
				}
				pts = c.ClipPolygonXY(pts)
				if len(pts) < 3 {
					continue
				}
				path.Move(pts[0])
				for _, pt := range pts[1:] {
					path.Line(pt)
				}
				path.Close()
			}
		}
		if len(path) == 0 {
			continue
		}

		c.SetColor(s.fill)
		c.Fill(path)
		if ps.line.Width > 0 {
			c.SetLineStyle(ps.line)
			c.Stroke(path)
		}
	}
}

func (ps *polygons) DataRange() (xmin, xmax, ymin, ymax float64) {
	if len(ps.shapes) == 0 {
		return 0, 1, 0, 1
	}
	b := ps.shapes[0].geometry.Bound()
	for _, s := range ps.shapes[1:] {
		b = b.Union(s.geometry.Bound())
	}
	return b.Min.X(), b.Max.X(), b.Min.Y(), b.Max.Y()
}
