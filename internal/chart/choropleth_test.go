package chart

import (
	"bytes"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"palmdash/internal/spatial"
)

var studyCenter = LatLon{Lat: -8.540459, Lon: -74.743779}

func square(lon, lat, size float64) orb.MultiPolygon {
	return orb.MultiPolygon{{{
		{lon, lat}, {lon, lat + size}, {lon + size, lat + size}, {lon + size, lat}, {lon, lat},
	}}}
}

func sampleLayer() *spatial.Layer {
	return &spatial.Layer{
		Name:           "deforestation",
		ColorAttribute: "year",
		CRS:            spatial.Geographic{},
		Features: []spatial.Feature{
			{ID: 0, Geometry: square(-74.75, -8.545, 0.004), Year: 2009},
			{ID: 1, Geometry: square(-74.74, -8.545, 0.004), Year: 2001},
			{ID: 2, Geometry: square(-74.73, -8.545, 0.004), Year: 2015},
		},
	}
}

func lossConfig() MapConfig {
	return MapConfig{
		Center: studyCenter,
		Zoom:   11,
		Style:  "satellite-streets",
		Width:  400,
		Height: 400,
		Scale:  "Reds",
		Label:  "Year of forest loss",
	}
}

func TestNewChoropleth(t *testing.T) {
	t.Parallel()

	m, err := NewChoropleth(lossConfig(), sampleLayer())
	if err != nil {
		t.Fatalf("NewChoropleth: %v", err)
	}

	if m.Scale().Min() != 2001 || m.Scale().Max() != 2015 {
		t.Fatalf("scale spans %v..%v", m.Scale().Min(), m.Scale().Max())
	}

	fills := m.Fills()
	if len(fills) != 3 {
		t.Fatalf("expected 3 fills, got %d", len(fills))
	}
	want, _ := m.Scale().At(2001)
	if fills[1] != want {
		t.Fatalf("feature 1 fill: expected %v, got %v", want, fills[1])
	}
	// 2001 < 2009 < 2015 means progressively darker reds.
	if !(luminance(fills[1]) > luminance(fills[0]) && luminance(fills[0]) > luminance(fills[2])) {
		t.Fatalf("fills not ordered by year: %v", fills)
	}

	if !m.Visible(orb.Point{studyCenter.Lon, studyCenter.Lat}) {
		t.Fatalf("centre must be visible")
	}
	if m.Visible(orb.Point{-74.0, -8.54}) {
		t.Fatalf("a point 80 km away must not be visible at zoom 11")
	}
}

func TestChoroplethZoomWidensView(t *testing.T) {
	t.Parallel()

	near := lossConfig()
	far := lossConfig()
	far.Zoom = 10

	mNear, err := NewChoropleth(near, sampleLayer())
	if err != nil {
		t.Fatalf("NewChoropleth: %v", err)
	}
	mFar, err := NewChoropleth(far, sampleLayer())
	if err != nil {
		t.Fatalf("NewChoropleth: %v", err)
	}

	p := orb.Point{-74.67, -8.54}
	if mNear.Visible(p) || !mFar.Visible(p) {
		t.Fatalf("expected %v visible only at zoom 10", p)
	}
}

func TestNewChoroplethRequiresGeographicLayer(t *testing.T) {
	t.Parallel()

	layer := sampleLayer()
	layer.CRS = spatial.UTM{Zone: 18, South: true}
	if _, err := NewChoropleth(lossConfig(), layer); err == nil {
		t.Fatalf("expected error for a layer that was not reprojected")
	}
}

func TestChoroplethRender(t *testing.T) {
	t.Parallel()

	cfg := lossConfig()
	cfg.Scale = "inferno"
	cfg.MarkerLineWidth = 0.5
	m, err := NewChoropleth(cfg, sampleLayer())
	if err != nil {
		t.Fatalf("NewChoropleth: %v", err)
	}

	svg, err := m.SVG()
	if err != nil {
		t.Fatalf("SVG: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Fatalf("output is not an svg document")
	}

	var buf bytes.Buffer
	if err := m.Render(&buf, "png"); err != nil {
		t.Fatalf("Render png: %v", err)
	}
}

func TestChoroplethEmptyLayer(t *testing.T) {
	t.Parallel()

	layer := &spatial.Layer{Name: "empty", CRS: spatial.Geographic{}}
	m, err := NewChoropleth(lossConfig(), layer)
	if err != nil {
		t.Fatalf("NewChoropleth: %v", err)
	}
	if _, err := m.SVG(); err != nil {
		t.Fatalf("SVG: %v", err)
	}
}
