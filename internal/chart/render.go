package chart

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Chart is a renderable chart object.
type Chart interface {
	Render(w io.Writer, format string) error
	SVG() ([]byte, error)
}

var formats = map[string]bool{
	"svg": true, "png": true, "pdf": true, "eps": true,
	"jpg": true, "jpeg": true, "tiff": true,
}

// SupportedFormat reports whether format can be passed to Render.
func SupportedFormat(format string) bool {
	return formats[strings.ToLower(format)]
}

// pixels converts CSS pixels to vg lengths (96 px per inch).
func pixels(px int) vg.Length {
	return vg.Length(px) * vg.Inch / 96
}

func render(w io.Writer, format string, width, height int, paint func(draw.Canvas)) error {
	format = strings.ToLower(format)
	if !formats[format] {
		return fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}

	cw, err := draw.NewFormattedCanvas(pixels(width), pixels(height), format)
	if err != nil {
		return fmt.Errorf("create %s canvas: %w", format, err)
	}
	paint(draw.New(cw))

	if _, err := cw.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}
	return nil
}

// cachedSVG renders a chart to SVG at most once.
type cachedSVG struct {
	once sync.Once
	data []byte
	err  error
}

func (c *cachedSVG) get(r func(io.Writer, string) error) ([]byte, error) {
	c.once.Do(func() {
		var buf bytes.Buffer
		c.err = r(&buf, "svg")
		c.data = buf.Bytes()
	})
	return c.data, c.err
}

func fontFor(cfg FontConfig, size float64) font.Font {
	f := font.Font{Typeface: "Liberation", Variant: "Sans", Size: vg.Points(size)}
	switch strings.ToLower(cfg.Family) {
	case "times", "times new roman", "serif", "georgia":
		f.Variant = "Serif"
	case "courier", "courier new", "monospace", "mono":
		f.Variant = "Mono"
	}
	return f
}

// columns splits c horizontally between x0 and x1, measured from its left edge.
func columns(c draw.Canvas, x0, x1 vg.Length) draw.Canvas {
	return draw.Crop(c, x0, x1-(c.Max.X-c.Min.X), 0, 0)
}

// rows splits c vertically between y0 and y1, measured from its bottom edge.
func rows(c draw.Canvas, y0, y1 vg.Length) draw.Canvas {
	return draw.Crop(c, 0, 0, y0, y1-(c.Max.Y-c.Min.Y))
}
