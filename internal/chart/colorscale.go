package chart

import (
	"fmt"
	"image/color"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/palette/moreland"
)

// Scale is a continuous color scale interpolated in CIELAB with luminance
// linear in the mapped value. It satisfies palette.ColorMap so it can drive
// a plotter.ColorBar.
type Scale struct {
	name string
	cmap palette.ColorMap
	// reversed is set when the controls run from light to dark; values are
	// mirrored across the range before lookup.
	reversed bool
	alpha    float64
}

var _ palette.ColorMap = (*Scale)(nil)

// Control colors of the inferno scale, dark to light.
var infernoControls = []string{
	"#000004", "#1b0c41", "#4a0c6b", "#781c6d", "#a52c60",
	"#cf4446", "#ed6925", "#fb9b06", "#f7d13d", "#fcffa4",
}

// NewScale builds a scale over [0, 1] from at least two stops. The stops
// must be strictly monotone in luminance, either direction.
func NewScale(name string, stops ...color.Color) (*Scale, error) {
	if len(stops) < 2 {
		return nil, fmt.Errorf("scale %q needs at least two stops", name)
	}
	s := &Scale{name: name, alpha: 1}
	cmap, err := moreland.NewLuminance(stops)
	if err != nil {
		reversed := slices.Clone(stops)
		slices.Reverse(reversed)
		var rerr error
		if cmap, rerr = moreland.NewLuminance(reversed); rerr != nil {
			return nil, fmt.Errorf("scale %q: %w", name, err)
		}
		s.reversed = true
	}
	s.cmap = cmap
	s.cmap.SetMin(0)
	s.cmap.SetMax(1)
	return s, nil
}

// ScaleByName returns a fresh copy of a named scale.
func ScaleByName(name string) (*Scale, error) {
	key := strings.ToLower(name)
	var controls []color.Color
	switch key {
	case "reds":
		p, err := brewer.GetPalette(brewer.TypeSequential, "Reds", 9)
		if err != nil {
			return nil, err
		}
		controls = p.Colors()
	case "inferno":
		for _, h := range infernoControls {
			c, err := ParseColor(h)
			if err != nil {
				return nil, err
			}
			controls = append(controls, c)
		}
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownScale)
	}
	return NewScale(key, controls...)
}

func (s *Scale) Name() string { return s.name }

// Position maps v to its place on the scale, clamped to [0, 1]. It is
// non-decreasing in v.
func (s *Scale) Position(v float64) float64 {
	min, max := s.cmap.Min(), s.cmap.Max()
	if max <= min {
		return 0
	}
	p := (v - min) / (max - min)
	return math.Max(0, math.Min(1, p))
}

// At returns the color for v. Values within a rounding error of the range
// ends are clamped rather than rejected.
func (s *Scale) At(v float64) (color.Color, error) {
	if math.IsNaN(v) {
		return nil, palette.ErrNaN
	}
	min, max := s.cmap.Min(), s.cmap.Max()
	eps := 1e-9 * math.Max(1, math.Abs(max-min))
	if v < min-eps {
		return nil, palette.ErrUnderflow
	}
	if v > max+eps {
		return nil, palette.ErrOverflow
	}
	v = math.Max(min, math.Min(max, v))
	if s.reversed {
		v = math.Max(min, math.Min(max, min+max-v))
	}
	c, err := s.cmap.At(v)
	if err != nil {
		return nil, err
	}
	return color.NRGBAModel.Convert(c), nil
}

func (s *Scale) Min() float64     { return s.cmap.Min() }
func (s *Scale) Max() float64     { return s.cmap.Max() }
func (s *Scale) SetMin(v float64) { s.cmap.SetMin(v) }
func (s *Scale) SetMax(v float64) { s.cmap.SetMax(v) }
func (s *Scale) Alpha() float64   { return s.alpha }

// SetAlpha sets the opacity of returned colors, clamped to [0, 1].
func (s *Scale) SetAlpha(a float64) {
	s.alpha = math.Max(0, math.Min(1, a))
	s.cmap.SetAlpha(s.alpha)
}

// SetRange spans the scale over [min, max]. A degenerate range is widened
// by half a unit on each side so every value still maps to a color.
func (s *Scale) SetRange(min, max float64) {
	if max <= min {
		min, max = min-0.5, min+0.5
	}
	s.cmap.SetMin(min)
	s.cmap.SetMax(max)
}

// Palette samples n evenly spaced colors across the scale.
func (s *Scale) Palette(n int) palette.Palette {
	min, max := s.cmap.Min(), s.cmap.Max()
	colors := make(colorList, n)
	for i := range colors {
		v := min
		if n > 1 {
			v += (max - min) * float64(i) / float64(n-1)
		}
		c, _ := s.At(v)
		colors[i] = c
	}
	return colors
}

type colorList []color.Color

func (c colorList) Colors() []color.Color { return c }
