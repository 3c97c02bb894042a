package spatial

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

var errNotIntegral = errors.New("year is not a whole number")

// LoadOptions controls how a shapefile is read.
type LoadOptions struct {
	Name string
	// ColorAttribute is the .dbf field holding the year used for coloring.
	ColorAttribute string
	// SourceEPSG overrides the CRS declared in the .prj sidecar when non-zero.
	SourceEPSG int
}

// LoadShapefile reads the polygons and attributes of path. The layer is left
// in its source CRS; call Reproject before rendering.
func LoadShapefile(path string, opts LoadOptions) (*Layer, error) {
	crs, err := sourceCRS(path, opts.SourceEPSG)
	if err != nil {
		return nil, err
	}

	dbf := strings.TrimSuffix(path, filepath.Ext(path)) + ".dbf"
	if _, err := os.Stat(dbf); err != nil {
		return nil, fmt.Errorf("open attribute table: %w", err)
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer reader.Close()

	fields := reader.Fields()
	colorIdx := -1
	for i, f := range fields {
		if strings.EqualFold(f.String(), opts.ColorAttribute) {
			colorIdx = i
			break
		}
	}
	if colorIdx < 0 {
		return nil, fmt.Errorf("%s: attribute %q: %w", path, opts.ColorAttribute, ErrMissingAttribute)
	}

	layer := &Layer{
		Name:           opts.Name,
		Source:         path,
		ColorAttribute: opts.ColorAttribute,
		CRS:            crs,
	}

	for reader.Next() {
		n, shape := reader.Shape()

		geometry, ok := toMultiPolygon(shape)
		if !ok {
			layer.NullShapes++
			continue
		}

		raw := trimAttribute(reader.ReadAttribute(n, colorIdx))
		if raw == "" || strings.Trim(raw, "*") == "" {
			layer.Dropped++
			continue
		}
		year, err := parseYear(raw)
		if err != nil {
			return nil, &AttributeError{Source: path, Feature: n, Attribute: opts.ColorAttribute, Value: raw, Err: err}
		}

		attrs := make(map[string]string, len(fields))
		for i, f := range fields {
			attrs[f.String()] = trimAttribute(reader.ReadAttribute(n, i))
		}

		layer.Features = append(layer.Features, Feature{
			ID:         n,
			Geometry:   geometry,
			Year:       year,
			Attributes: attrs,
		})
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return layer, nil
}

// trimAttribute strips the space and NUL padding of a dBASE field.
func trimAttribute(v string) string {
	return strings.Trim(v, " \x00")
}

func sourceCRS(path string, override int) (CRS, error) {
	if override != 0 {
		return FromEPSG(override)
	}

	prj := strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
	raw, err := os.ReadFile(prj)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: no .prj sidecar and no source EPSG configured: %w", path, ErrUnknownCRS)
		}
		return nil, fmt.Errorf("read %s: %w", prj, err)
	}

	crs, err := ParsePRJ(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", prj, err)
	}
	return crs, nil
}

// toMultiPolygon groups shapefile rings into polygons. Clockwise rings are
// shells; counter-clockwise rings are holes of the preceding shell.
func toMultiPolygon(shape shp.Shape) (orb.MultiPolygon, bool) {
	var (
		parts  []int32
		points []shp.Point
	)
	switch s := shape.(type) {
	case *shp.Polygon:
		parts, points = s.Parts, s.Points
	case *shp.PolygonZ:
		parts, points = s.Parts, s.Points
	case *shp.PolygonM:
		parts, points = s.Parts, s.Points
	default:
		return nil, false
	}
	if len(points) == 0 {
		return nil, false
	}

	var mp orb.MultiPolygon
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start >= end || int(end) > len(points) {
			continue
		}

		ring := make(orb.Ring, 0, end-start)
		for _, p := range points[start:end] {
			ring = append(ring, orb.Point{p.X, p.Y})
		}
		if len(ring) < 3 {
			continue
		}

		if signedArea(ring) <= 0 || len(mp) == 0 {
			mp = append(mp, orb.Polygon{ring})
			continue
		}
		last := len(mp) - 1
		mp[last] = append(mp[last], ring)
	}

	return mp, len(mp) > 0
}

// signedArea is negative for clockwise rings.
func signedArea(ring orb.Ring) float64 {
	var sum float64
	for i := range ring {
		j := (i + 1) % len(ring)
		sum += ring[i][0]*ring[j][1] - ring[j][0]*ring[i][1]
	}
	return sum / 2
}

func parseYear(raw string) (int, error) {
	if year, err := strconv.Atoi(raw); err == nil {
		return year, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, errNotIntegral
	}
	return int(f), nil
}
