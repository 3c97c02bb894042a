package chart

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

var (
	ErrUnknownScale  = errors.New("unknown color scale")
	ErrUnknownStyle  = errors.New("unknown map style")
	ErrUnknownFormat = errors.New("unknown output format")
	ErrInvalidColor  = errors.New("invalid color")
)

// LatLon is a geographic position in degrees.
type LatLon struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lon float64 `yaml:"lon" json:"lon"`
}

// FontConfig styles chart text. Family is matched against the metric
// compatible Liberation faces bundled with the renderer.
type FontConfig struct {
	Family string
	Size   float64
	Color  string
}

// AxisConfig styles one axis. Ticks is "outside", "inside" or "" for the
// renderer default; NTicks caps the number of labelled ticks.
type AxisConfig struct {
	Title        string
	GridColor    string
	LineColor    string
	Ticks        string
	NTicks       int
	TickFontSize float64
}

// LegendConfig places the legend. X and Y are fractions of the plot area;
// a negative Y puts a horizontal legend below the plot.
type LegendConfig struct {
	Orientation string
	X           float64
	Y           float64
}

// LineConfig styles one series.
type LineConfig struct {
	Name  string
	Color string
	Width float64
}

// TimeSeriesLayout is the fixed styling of the dual-line chart.
type TimeSeriesLayout struct {
	Title      string
	Width      int
	Height     int
	Font       FontConfig
	XAxis      AxisConfig
	YAxis      AxisConfig
	Legend     LegendConfig
	PaperColor string
	PlotColor  string
}

// DefaultTimeSeriesLayout is the layout of the expansion/deforestation chart.
func DefaultTimeSeriesLayout() TimeSeriesLayout {
	return TimeSeriesLayout{
		Width:  800,
		Height: 600,
		Font:   FontConfig{Family: "Helvetica", Size: 16, Color: "Black"},
		XAxis: AxisConfig{
			Title:        "Year",
			GridColor:    "#D3D3D3",
			LineColor:    "Black",
			Ticks:        "outside",
			NTicks:       8,
			TickFontSize: 14,
		},
		YAxis: AxisConfig{
			Title:     "Area (km²)",
			GridColor: "#D3D3D3",
			LineColor: "Black",
			Ticks:     "outside",
		},
		Legend:     LegendConfig{Orientation: "h", X: 0.20, Y: -0.15},
		PaperColor: "rgba(0,0,0,0)",
		PlotColor:  "rgba(0,0,0,0)",
	}
}

// Map styles recognised by the renderer. Basemap tiles are not fetched; the
// style selects the background the polygons are drawn on.
var mapBackgrounds = map[string]color.Color{
	"satellite":         color.NRGBA{R: 0x2b, G: 0x3a, B: 0x2e, A: 0xff},
	"satellite-streets": color.NRGBA{R: 0x2b, G: 0x3a, B: 0x2e, A: 0xff},
	"open-street-map":   color.NRGBA{R: 0xf2, G: 0xef, B: 0xe9, A: 0xff},
	"streets":           color.NRGBA{R: 0xf2, G: 0xef, B: 0xe9, A: 0xff},
	"outdoors":          color.NRGBA{R: 0xe8, G: 0xe6, B: 0xd9, A: 0xff},
	"light":             color.NRGBA{R: 0xf5, G: 0xf5, B: 0xf3, A: 0xff},
	"dark":              color.NRGBA{R: 0x1e, G: 0x1e, B: 0x1e, A: 0xff},
	"white-bg":          color.White,
}

// MapConfig describes one choropleth map.
type MapConfig struct {
	Center          LatLon
	Zoom            float64
	Style           string
	Width           int
	Height          int
	Scale           string
	Label           string
	MarkerLineWidth float64
}

// Validate checks the enumerated fields of the map configuration.
func (c MapConfig) Validate() error {
	if _, ok := mapBackgrounds[c.Style]; !ok {
		return fmt.Errorf("%q: %w", c.Style, ErrUnknownStyle)
	}
	if _, err := ScaleByName(c.Scale); err != nil {
		return err
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("map size %dx%d must be positive", c.Width, c.Height)
	}
	return nil
}

// ParseColor accepts "#rgb", "#rrggbb", "rgb(r,g,b)", "rgba(r,g,b,a)" and
// CSS color names.
func ParseColor(s string) (color.Color, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)

	switch {
	case lower == "" || lower == "transparent":
		return color.Transparent, nil
	case strings.HasPrefix(lower, "#"):
		return parseHex(lower[1:], s)
	case strings.HasPrefix(lower, "rgba(") && strings.HasSuffix(lower, ")"):
		return parseFunc(lower[5:len(lower)-1], 4, s)
	case strings.HasPrefix(lower, "rgb(") && strings.HasSuffix(lower, ")"):
		return parseFunc(lower[4:len(lower)-1], 3, s)
	}

	if c, ok := colornames.Map[lower]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%q: %w", s, ErrInvalidColor)
}

func parseHex(hex, orig string) (color.Color, error) {
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return nil, fmt.Errorf("%q: %w", orig, ErrInvalidColor)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", orig, ErrInvalidColor)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func parseFunc(args string, n int, orig string) (color.Color, error) {
	parts := strings.Split(args, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("%q: %w", orig, ErrInvalidColor)
	}

	var ch [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || v < 0 || v > 255 {
			return nil, fmt.Errorf("%q: %w", orig, ErrInvalidColor)
		}
		ch[i] = uint8(v)
	}

	alpha := 1.0
	if n == 4 {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return nil, fmt.Errorf("%q: %w", orig, ErrInvalidColor)
		}
		alpha = a
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: uint8(alpha*255 + 0.5)}, nil
}

func mustColor(s string) color.Color {
	c, err := ParseColor(s)
	if err != nil {
		return color.Black
	}
	return c
}
