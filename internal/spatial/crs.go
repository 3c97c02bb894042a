package spatial

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// EPSG4326 is the geographic CRS every layer is reprojected to.
const EPSG4326 = 4326

// CRS converts coordinates between a source system and WGS84 longitude/latitude.
type CRS interface {
	EPSG() int
	ToWGS84(orb.Point) orb.Point
	FromWGS84(orb.Point) orb.Point
}

// Geographic is EPSG:4326 itself.
type Geographic struct{}

func (Geographic) EPSG() int                       { return EPSG4326 }
func (Geographic) ToWGS84(p orb.Point) orb.Point   { return p }
func (Geographic) FromWGS84(p orb.Point) orb.Point { return p }

// WebMercator is EPSG:3857.
type WebMercator struct{}

func (WebMercator) EPSG() int                       { return 3857 }
func (WebMercator) ToWGS84(p orb.Point) orb.Point   { return project.Mercator.ToWGS84(p) }
func (WebMercator) FromWGS84(p orb.Point) orb.Point { return project.WGS84.ToMercator(p) }

// WGS84 ellipsoid.
const (
	semiMajor  = 6378137.0
	flattening = 1 / 298.257223563

	utmScale       = 0.9996
	utmFalseEast   = 500000.0
	utmFalseNorthS = 10000000.0
)

// UTM is a WGS84 Universal Transverse Mercator zone (EPSG:326zz north,
// EPSG:327zz south). Conversions use the Krüger series to third order,
// which stays within a millimetre inside a zone.
type UTM struct {
	Zone  int
	South bool
}

var (
	tmN     = flattening / (2 - flattening)
	tmE     = math.Sqrt(flattening * (2 - flattening))
	tmA     = semiMajor / (1 + tmN) * (1 + tmN*tmN/4 + math.Pow(tmN, 4)/64)
	tmAlpha = [3]float64{
		tmN/2 - 2*tmN*tmN/3 + 5*math.Pow(tmN, 3)/16,
		13*tmN*tmN/48 - 3*math.Pow(tmN, 3)/5,
		61 * math.Pow(tmN, 3) / 240,
	}
	tmBeta = [3]float64{
		tmN/2 - 2*tmN*tmN/3 + 37*math.Pow(tmN, 3)/96,
		tmN*tmN/48 + math.Pow(tmN, 3)/15,
		17 * math.Pow(tmN, 3) / 480,
	}
	tmDelta = [3]float64{
		2*tmN - 2*tmN*tmN/3 - 2*math.Pow(tmN, 3),
		7*tmN*tmN/3 - 8*math.Pow(tmN, 3)/5,
		56 * math.Pow(tmN, 3) / 15,
	}
)

func (u UTM) EPSG() int {
	if u.South {
		return 32700 + u.Zone
	}
	return 32600 + u.Zone
}

func (u UTM) centralMeridian() float64 {
	return float64(u.Zone*6-183) * math.Pi / 180
}

func (u UTM) falseNorthing() float64 {
	if u.South {
		return utmFalseNorthS
	}
	return 0
}

// ToWGS84 converts easting/northing to longitude/latitude in degrees.
func (u UTM) ToWGS84(p orb.Point) orb.Point {
	xi := (p.Y() - u.falseNorthing()) / (utmScale * tmA)
	eta := (p.X() - utmFalseEast) / (utmScale * tmA)

	xiP, etaP := xi, eta
	for j := 1; j <= 3; j++ {
		b := tmBeta[j-1]
		xiP -= b * math.Sin(2*float64(j)*xi) * math.Cosh(2*float64(j)*eta)
		etaP -= b * math.Cos(2*float64(j)*xi) * math.Sinh(2*float64(j)*eta)
	}

	chi := math.Asin(math.Sin(xiP) / math.Cosh(etaP))
	lat := chi
	for j := 1; j <= 3; j++ {
		lat += tmDelta[j-1] * math.Sin(2*float64(j)*chi)
	}
	lon := u.centralMeridian() + math.Atan2(math.Sinh(etaP), math.Cos(xiP))

	return orb.Point{lon * 180 / math.Pi, lat * 180 / math.Pi}
}

// FromWGS84 converts longitude/latitude in degrees to easting/northing.
func (u UTM) FromWGS84(p orb.Point) orb.Point {
	lat := p.Lat() * math.Pi / 180
	dLon := p.Lon()*math.Pi/180 - u.centralMeridian()

	sinLat := math.Sin(lat)
	t := math.Sinh(math.Atanh(sinLat) - tmE*math.Atanh(tmE*sinLat))
	xiP := math.Atan2(t, math.Cos(dLon))
	etaP := math.Atanh(math.Sin(dLon) / math.Sqrt(1+t*t))

	easting, northing := etaP, xiP
	for j := 1; j <= 3; j++ {
		a := tmAlpha[j-1]
		easting += a * math.Cos(2*float64(j)*xiP) * math.Sinh(2*float64(j)*etaP)
		northing += a * math.Sin(2*float64(j)*xiP) * math.Cosh(2*float64(j)*etaP)
	}

	return orb.Point{
		utmFalseEast + utmScale*tmA*easting,
		u.falseNorthing() + utmScale*tmA*northing,
	}
}

// FromEPSG resolves the EPSG codes this package can reproject.
func FromEPSG(code int) (CRS, error) {
	switch {
	case code == EPSG4326:
		return Geographic{}, nil
	case code == 3857 || code == 900913:
		return WebMercator{}, nil
	case code > 32600 && code <= 32660:
		return UTM{Zone: code - 32600}, nil
	case code > 32700 && code <= 32760:
		return UTM{Zone: code - 32700, South: true}, nil
	}
	return nil, fmt.Errorf("EPSG:%d: %w", code, ErrUnknownCRS)
}

var (
	utmZoneRe   = regexp.MustCompile(`(?i)UTM[ _]?zone[ _]?(\d{1,2})[ _]?([NS])`)
	authorityRe = regexp.MustCompile(`AUTHORITY\["EPSG",\s*"?(\d+)"?\]\s*\]\s*$`)
)

// ParsePRJ identifies the CRS described by the WKT of a .prj sidecar.
func ParsePRJ(wkt string) (CRS, error) {
	wkt = strings.TrimSpace(wkt)
	if wkt == "" {
		return nil, fmt.Errorf("empty projection: %w", ErrUnknownCRS)
	}

	if m := authorityRe.FindStringSubmatch(wkt); m != nil {
		if code, err := strconv.Atoi(m[1]); err == nil {
			if crs, err := FromEPSG(code); err == nil {
				return crs, nil
			}
		}
	}

	upper := strings.ToUpper(wkt)
	switch {
	case strings.HasPrefix(upper, "PROJCS"):
		if m := utmZoneRe.FindStringSubmatch(wkt); m != nil {
			zone, _ := strconv.Atoi(m[1])
			if zone < 1 || zone > 60 {
				return nil, fmt.Errorf("utm zone %d: %w", zone, ErrUnknownCRS)
			}
			if !strings.Contains(upper, "WGS") {
				return nil, fmt.Errorf("utm zone %d on a non-WGS84 datum: %w", zone, ErrUnknownCRS)
			}
			return UTM{Zone: zone, South: strings.EqualFold(m[2], "S")}, nil
		}
		if strings.Contains(upper, "PSEUDO_MERCATOR") || strings.Contains(upper, "PSEUDO-MERCATOR") ||
			strings.Contains(upper, "WEB_MERCATOR") || strings.Contains(upper, "MERCATOR_AUXILIARY_SPHERE") {
			return WebMercator{}, nil
		}
	case strings.HasPrefix(upper, "GEOGCS"):
		if strings.Contains(upper, "WGS") {
			return Geographic{}, nil
		}
	}

	return nil, fmt.Errorf("projection %.40q: %w", wkt, ErrUnknownCRS)
}
