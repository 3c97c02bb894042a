package spatial

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
)

const esriUTM18S = `PROJCS["WGS_1984_UTM_Zone_18S",GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Transverse_Mercator"],PARAMETER["False_Easting",500000.0],PARAMETER["False_Northing",10000000.0],PARAMETER["Central_Meridian",-75.0],PARAMETER["Scale_Factor",0.9996],PARAMETER["Latitude_Of_Origin",0.0],UNIT["Meter",1.0]]`

func TestUTMCentralMeridian(t *testing.T) {
	t.Parallel()

	zone := UTM{Zone: 18, South: true}

	got := zone.FromWGS84(orb.Point{-75, 0})
	if math.Abs(got.X()-500000) > 1e-6 || math.Abs(got.Y()-10000000) > 1e-6 {
		t.Fatalf("equator on central meridian: got %v", got)
	}

	got = zone.FromWGS84(orb.Point{-75, -8.540459})
	if math.Abs(got.X()-500000) > 1e-6 {
		t.Fatalf("expected easting 500000 on the central meridian, got %v", got.X())
	}
	if got.Y() >= 10000000 || got.Y() < 9000000 {
		t.Fatalf("unexpected northing %v", got.Y())
	}

	east := zone.FromWGS84(orb.Point{-74.743779, -8.540459})
	if east.X() <= 500000 {
		t.Fatalf("points east of the central meridian must have easting > 500000, got %v", east.X())
	}
}

func TestUTMRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		crs  UTM
		pt   orb.Point
	}{
		{name: "study area", crs: UTM{Zone: 18, South: true}, pt: orb.Point{-74.743779, -8.540459}},
		{name: "zone edge", crs: UTM{Zone: 18, South: true}, pt: orb.Point{-72.0, -12.25}},
		{name: "northern zone", crs: UTM{Zone: 33}, pt: orb.Point{15.5, 52.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projected := tt.crs.FromWGS84(tt.pt)
			back := tt.crs.ToWGS84(projected)
			if math.Abs(back.Lon()-tt.pt.Lon()) > 1e-7 || math.Abs(back.Lat()-tt.pt.Lat()) > 1e-7 {
				t.Fatalf("round trip drifted: %v -> %v -> %v", tt.pt, projected, back)
			}

			again := tt.crs.FromWGS84(back)
			if math.Abs(again.X()-projected.X()) > 1e-2 || math.Abs(again.Y()-projected.Y()) > 1e-2 {
				t.Fatalf("projected round trip drifted: %v vs %v", projected, again)
			}
		})
	}
}

func TestWebMercatorRoundTrip(t *testing.T) {
	t.Parallel()

	pt := orb.Point{-74.743779, -8.540459}
	back := WebMercator{}.ToWGS84(WebMercator{}.FromWGS84(pt))
	if math.Abs(back.Lon()-pt.Lon()) > 1e-9 || math.Abs(back.Lat()-pt.Lat()) > 1e-9 {
		t.Fatalf("round trip drifted: %v -> %v", pt, back)
	}
}

func TestFromEPSG(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code int
		want CRS
	}{
		{4326, Geographic{}},
		{3857, WebMercator{}},
		{32718, UTM{Zone: 18, South: true}},
		{32633, UTM{Zone: 33}},
	}
	for _, tt := range tests {
		got, err := FromEPSG(tt.code)
		if err != nil {
			t.Fatalf("EPSG:%d: %v", tt.code, err)
		}
		if got != tt.want {
			t.Fatalf("EPSG:%d: expected %#v, got %#v", tt.code, tt.want, got)
		}
		if got.EPSG() != tt.code {
			t.Fatalf("EPSG:%d reported as %d", tt.code, got.EPSG())
		}
	}

	if _, err := FromEPSG(27700); !errors.Is(err, ErrUnknownCRS) {
		t.Fatalf("expected ErrUnknownCRS, got %v", err)
	}
}

func TestParsePRJ(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		wkt     string
		want    CRS
		wantErr bool
	}{
		{name: "esri utm", wkt: esriUTM18S, want: UTM{Zone: 18, South: true}},
		{name: "epsg style utm", wkt: `PROJCS["WGS 84 / UTM zone 19N",GEOGCS["WGS 84"],UNIT["metre",1]]`, want: UTM{Zone: 19}},
		{name: "authority", wkt: `PROJCS["anything",GEOGCS["WGS 84"],AUTHORITY["EPSG","32718"]]`, want: UTM{Zone: 18, South: true}},
		{name: "geographic", wkt: `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984"]]`, want: Geographic{}},
		{name: "web mercator", wkt: `PROJCS["WGS_1984_Web_Mercator_Auxiliary_Sphere",GEOGCS["GCS_WGS_1984"]]`, want: WebMercator{}},
		{name: "other datum", wkt: `PROJCS["PSAD_1956_UTM_Zone_18S",GEOGCS["GCS_Provisional_S_American_1956"]]`, wantErr: true},
		{name: "empty", wkt: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePRJ(tt.wkt)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownCRS) {
					t.Fatalf("expected ErrUnknownCRS, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePRJ returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}
