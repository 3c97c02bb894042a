// Package testutil writes small CSV and shapefile fixtures shaped like the
// study-area datasets.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
)

// PRJUTM18S is the ESRI WKT of WGS 84 / UTM zone 18S (EPSG:32718).
const PRJUTM18S = `PROJCS["WGS_1984_UTM_Zone_18S",GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Transverse_Mercator"],PARAMETER["False_Easting",500000.0],PARAMETER["False_Northing",10000000.0],PARAMETER["Central_Meridian",-75.0],PARAMETER["Scale_Factor",0.9996],PARAMETER["Latitude_Of_Origin",0.0],UNIT["Meter",1.0]]`

// Study area centre in UTM 18S metres.
const (
	StudyEasting  = 528000.0
	StudyNorthing = 9055000.0
)

// Polygon is a fixture feature. A zero Year leaves the attribute blank.
type Polygon struct {
	Rings [][]shp.Point
	Year  int
}

// Square returns a clockwise ring with its lower-left corner at (x, y).
func Square(x, y, size float64) []shp.Point {
	return []shp.Point{
		{X: x, Y: y},
		{X: x, Y: y + size},
		{X: x + size, Y: y + size},
		{X: x + size, Y: y},
		{X: x, Y: y},
	}
}

// WriteCSV writes the given lines joined by newlines.
func WriteCSV(t testing.TB, path string, lines ...string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteShapefile writes a polygon shapefile with a single numeric attribute
// and, when prj is not empty, a .prj sidecar.
func WriteShapefile(t testing.TB, path, attribute, prj string, polygons []Polygon) {
	t.Helper()

	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	if err := w.SetFields([]shp.Field{shp.NumberField(attribute, 8)}); err != nil {
		t.Fatalf("set fields: %v", err)
	}
	for _, p := range polygons {
		poly := shp.Polygon(*shp.NewPolyLine(p.Rings))
		row := w.Write(&poly)
		if p.Year == 0 {
			continue
		}
		if err := w.WriteAttribute(int(row), 0, p.Year); err != nil {
			t.Fatalf("write attribute: %v", err)
		}
	}
	w.Close()

	// The writer names the table base+"dbf" without the dot.
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		t.Fatalf("rename attribute table: %v", err)
	}

	if prj == "" {
		return
	}
	prjPath := base + ".prj"
	if err := os.WriteFile(prjPath, []byte(prj), 0o644); err != nil {
		t.Fatalf("write %s: %v", prjPath, err)
	}
}

// StudyArea writes the four dashboard inputs into dir under their default
// file names and returns dir.
func StudyArea(t testing.TB, dir string) string {
	t.Helper()

	WriteCSV(t, filepath.Join(dir, "palm_areaYear2001-2015_timeseries_quadrat_25km2.csv"),
		"quadrat,year_plant,areakm2",
		"1,2001,0.5",
		"2,2001,0.25",
		"1,2003,1.0",
		"3,2005,2.0",
	)
	WriteCSV(t, filepath.Join(dir, "gfw_deforestation_with_distance_Year2001-2015_timeseries_quadrat_25km2.csv"),
		"quadrat,year,areakm2,near_road,near_palm",
		"1,2001,1.0,100,250",
		"2,2001,2.0,300,350",
		"1,2002,5.0,200,",
	)

	x, y := StudyEasting, StudyNorthing
	WriteShapefile(t, filepath.Join(dir, "deforestation_nonpalm.shp"), "year", PRJUTM18S, []Polygon{
		{Rings: [][]shp.Point{Square(x, y, 500)}, Year: 2001},
		{Rings: [][]shp.Point{Square(x+600, y, 500)}, Year: 2008},
		{Rings: [][]shp.Point{Square(x+1200, y, 500)}, Year: 2015},
	})
	WriteShapefile(t, filepath.Join(dir, "plantations_aged_mapped.shp"), "year_plant", PRJUTM18S, []Polygon{
		{Rings: [][]shp.Point{Square(x, y-1000, 800)}, Year: 2003},
		{Rings: [][]shp.Point{Square(x+1000, y-1000, 800)}, Year: 2012},
	})
	return dir
}
