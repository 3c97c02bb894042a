package spatial

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"

	"palmdash/internal/testutil"
)

func writeLayer(t *testing.T, polygons []testutil.Polygon, prj string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "layer.shp")
	testutil.WriteShapefile(t, path, "year", prj, polygons)
	return path
}

func TestLoadShapefile(t *testing.T) {
	t.Parallel()

	x, y := testutil.StudyEasting, testutil.StudyNorthing
	path := writeLayer(t, []testutil.Polygon{
		{Rings: [][]shp.Point{testutil.Square(x, y, 500)}, Year: 2004},
		{Rings: [][]shp.Point{testutil.Square(x+600, y, 500)}},
		{Rings: [][]shp.Point{testutil.Square(x+1200, y, 500)}, Year: 2011},
	}, testutil.PRJUTM18S)

	layer, err := LoadShapefile(path, LoadOptions{Name: "loss", ColorAttribute: "year"})
	if err != nil {
		t.Fatalf("LoadShapefile returned error: %v", err)
	}

	if layer.CRS != (UTM{Zone: 18, South: true}) {
		t.Fatalf("unexpected crs %#v", layer.CRS)
	}
	if len(layer.Features) != 2 || layer.Dropped != 1 || layer.NullShapes != 0 {
		t.Fatalf("expected 2 features, 1 dropped and no null shapes, got %d/%d/%d",
			len(layer.Features), layer.Dropped, layer.NullShapes)
	}
	// The writer pads short numeric values with NUL bytes.
	if got := layer.Features[0].Attributes["year"]; got != "2004" {
		t.Fatalf("expected padding stripped from attribute, got %q", got)
	}
	if layer.Features[0].Year != 2004 || layer.Features[1].Year != 2011 {
		t.Fatalf("unexpected years %d, %d", layer.Features[0].Year, layer.Features[1].Year)
	}
	if layer.Features[1].ID != 2 {
		t.Fatalf("expected feature id 2, got %d", layer.Features[1].ID)
	}

	min, max, ok := layer.YearRange()
	if !ok || min != 2004 || max != 2011 {
		t.Fatalf("unexpected year range %d-%d", min, max)
	}
}

func TestLoadShapefileNullShapes(t *testing.T) {
	t.Parallel()

	x, y := testutil.StudyEasting, testutil.StudyNorthing
	path := writeLayer(t, []testutil.Polygon{
		{Rings: [][]shp.Point{testutil.Square(x, y, 500)}, Year: 2004},
		{Year: 2005},
		{Rings: [][]shp.Point{testutil.Square(x+600, y, 500)}},
	}, testutil.PRJUTM18S)

	layer, err := LoadShapefile(path, LoadOptions{ColorAttribute: "year"})
	if err != nil {
		t.Fatalf("LoadShapefile returned error: %v", err)
	}
	if len(layer.Features) != 1 || layer.NullShapes != 1 || layer.Dropped != 1 {
		t.Fatalf("expected 1 feature, 1 null shape and 1 without a year, got %d/%d/%d",
			len(layer.Features), layer.NullShapes, layer.Dropped)
	}
}

func TestTrimAttribute(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"2004\x00\x00\x00\x00": "2004",
		"  2004  ":             "2004",
		"2004 \x00\x00":        "2004",
		"\x00\x00\x00\x00":     "",
		"":                     "",
	}
	for in, want := range cases {
		if got := trimAttribute(in); got != want {
			t.Fatalf("trimAttribute(%q) = %q, want %q", in, got, want)
		}
	}
	if year, err := parseYear(trimAttribute("2011\x00\x00")); err != nil || year != 2011 {
		t.Fatalf("expected 2011 from a NUL padded value, got %d (%v)", year, err)
	}
}

func TestLayerReproject(t *testing.T) {
	t.Parallel()

	x, y := testutil.StudyEasting, testutil.StudyNorthing
	path := writeLayer(t, []testutil.Polygon{
		{Rings: [][]shp.Point{testutil.Square(x, y, 1000)}, Year: 2004},
	}, testutil.PRJUTM18S)

	layer, err := LoadShapefile(path, LoadOptions{Name: "loss", ColorAttribute: "year"})
	if err != nil {
		t.Fatalf("LoadShapefile returned error: %v", err)
	}
	source := layer.CRS
	original := layer.Features[0].Geometry.Clone()

	layer.Reproject()
	if layer.CRS.EPSG() != EPSG4326 {
		t.Fatalf("expected EPSG:4326 after reprojection, got %d", layer.CRS.EPSG())
	}

	ring := layer.Features[0].Geometry[0][0]
	for i, pt := range ring {
		if pt.Lon() < -75 || pt.Lon() > -74 || pt.Lat() < -9 || pt.Lat() > -8 {
			t.Fatalf("point %d outside the study area: %v", i, pt)
		}
		back := source.FromWGS84(pt)
		want := original[0][0][i]
		if math.Abs(back.X()-want.X()) > 1e-2 || math.Abs(back.Y()-want.Y()) > 1e-2 {
			t.Fatalf("point %d round trip: want %v, got %v", i, want, back)
		}
	}

	stats := layer.YearStats()
	if len(stats) != 1 || stats[0].Features != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	// 1 km² square, scale factor and geodesic area differ by well under 1%.
	if math.Abs(stats[0].AreaKm2-1) > 0.01 {
		t.Fatalf("expected roughly 1 km², got %v", stats[0].AreaKm2)
	}

	layer.Reproject()
	if got := layer.Features[0].Geometry[0][0][0]; got != ring[0] {
		t.Fatalf("second reprojection moved geometry: %v", got)
	}
}

func TestLoadShapefileHoles(t *testing.T) {
	t.Parallel()

	x, y := testutil.StudyEasting, testutil.StudyNorthing
	hole := testutil.Square(x+100, y+100, 100)
	for i, j := 0, len(hole)-1; i < j; i, j = i+1, j-1 {
		hole[i], hole[j] = hole[j], hole[i]
	}

	path := writeLayer(t, []testutil.Polygon{
		{Rings: [][]shp.Point{testutil.Square(x, y, 500), hole, testutil.Square(x+1000, y, 200)}, Year: 2004},
	}, testutil.PRJUTM18S)

	layer, err := LoadShapefile(path, LoadOptions{ColorAttribute: "year"})
	if err != nil {
		t.Fatalf("LoadShapefile returned error: %v", err)
	}

	mp := layer.Features[0].Geometry
	if len(mp) != 2 {
		t.Fatalf("expected 2 polygons, got %d", len(mp))
	}
	if len(mp[0]) != 2 || len(mp[1]) != 1 {
		t.Fatalf("expected shell+hole and a bare shell, got %d and %d rings", len(mp[0]), len(mp[1]))
	}
}

func TestLoadShapefileErrors(t *testing.T) {
	t.Parallel()

	x, y := testutil.StudyEasting, testutil.StudyNorthing
	square := [][]shp.Point{testutil.Square(x, y, 500)}

	t.Run("missing attribute", func(t *testing.T) {
		path := writeLayer(t, []testutil.Polygon{{Rings: square, Year: 2004}}, testutil.PRJUTM18S)
		_, err := LoadShapefile(path, LoadOptions{ColorAttribute: "year_plant"})
		if !errors.Is(err, ErrMissingAttribute) {
			t.Fatalf("expected ErrMissingAttribute, got %v", err)
		}
	})

	t.Run("no prj", func(t *testing.T) {
		path := writeLayer(t, []testutil.Polygon{{Rings: square, Year: 2004}}, "")
		_, err := LoadShapefile(path, LoadOptions{ColorAttribute: "year"})
		if !errors.Is(err, ErrUnknownCRS) {
			t.Fatalf("expected ErrUnknownCRS, got %v", err)
		}
	})

	t.Run("epsg override", func(t *testing.T) {
		path := writeLayer(t, []testutil.Polygon{{Rings: square, Year: 2004}}, "")
		layer, err := LoadShapefile(path, LoadOptions{ColorAttribute: "year", SourceEPSG: 32718})
		if err != nil {
			t.Fatalf("LoadShapefile returned error: %v", err)
		}
		if layer.CRS.EPSG() != 32718 {
			t.Fatalf("expected EPSG:32718, got %d", layer.CRS.EPSG())
		}
	})

	t.Run("missing dbf", func(t *testing.T) {
		path := writeLayer(t, []testutil.Polygon{{Rings: square, Year: 2004}}, testutil.PRJUTM18S)
		dbf := strings.TrimSuffix(path, ".shp") + ".dbf"
		if err := os.Remove(dbf); err != nil {
			t.Fatalf("remove %s: %v", dbf, err)
		}
		_, err := LoadShapefile(path, LoadOptions{ColorAttribute: "year"})
		if !errors.Is(err, os.ErrNotExist) || errors.Is(err, ErrMissingAttribute) {
			t.Fatalf("expected a not-exist error for the attribute table, got %v", err)
		}
		if !strings.Contains(err.Error(), "layer.dbf") {
			t.Fatalf("error should name the attribute table: %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadShapefile(filepath.Join(t.TempDir(), "absent.shp"), LoadOptions{ColorAttribute: "year", SourceEPSG: 4326})
		if err == nil {
			t.Fatalf("expected error for missing shapefile")
		}
	})
}

func TestLayerGeoJSON(t *testing.T) {
	t.Parallel()

	x, y := testutil.StudyEasting, testutil.StudyNorthing
	path := writeLayer(t, []testutil.Polygon{
		{Rings: [][]shp.Point{testutil.Square(x, y, 500)}, Year: 2004},
		{Rings: [][]shp.Point{testutil.Square(x+600, y, 500)}, Year: 2009},
	}, testutil.PRJUTM18S)

	layer, err := LoadShapefile(path, LoadOptions{Name: "loss", ColorAttribute: "year"})
	if err != nil {
		t.Fatalf("LoadShapefile returned error: %v", err)
	}
	layer.Reproject()

	raw, err := layer.GeoJSON()
	if err != nil {
		t.Fatalf("GeoJSON returned error: %v", err)
	}

	var doc struct {
		Type     string `json:"type"`
		Features []struct {
			ID         float64               `json:"id"`
			Geometry   struct{ Type string } `json:"geometry"`
			Properties map[string]float64    `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode geojson: %v", err)
	}
	if doc.Type != "FeatureCollection" || len(doc.Features) != 2 {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if doc.Features[1].ID != 1 || doc.Features[1].Properties["year"] != 2009 {
		t.Fatalf("unexpected feature: %+v", doc.Features[1])
	}
	if doc.Features[0].Geometry.Type != "MultiPolygon" {
		t.Fatalf("unexpected geometry type %q", doc.Features[0].Geometry.Type)
	}
}
