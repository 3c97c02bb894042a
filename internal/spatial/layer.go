package spatial

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

// Feature is one mapped polygon with the year used for color mapping.
type Feature struct {
	ID         int
	Geometry   orb.MultiPolygon
	Year       int
	Attributes map[string]string
}

// Layer is a polygon dataset loaded from one shapefile.
type Layer struct {
	Name           string
	Source         string
	ColorAttribute string
	CRS            CRS
	Features       []Feature
	// Dropped counts features discarded for a blank color attribute.
	Dropped int
	// NullShapes counts records with no polygon geometry.
	NullShapes int
}

// Reproject converts every feature to EPSG:4326 in place. It is a no-op
// when the layer is already geographic.
func (l *Layer) Reproject() {
	if l.CRS == nil || l.CRS.EPSG() == EPSG4326 {
		l.CRS = Geographic{}
		return
	}
	for i := range l.Features {
		l.Features[i].Geometry = transform(l.Features[i].Geometry, l.CRS.ToWGS84)
	}
	l.CRS = Geographic{}
}

func transform(mp orb.MultiPolygon, fn orb.Projection) orb.MultiPolygon {
	for _, poly := range mp {
		for _, ring := range poly {
			for i, pt := range ring {
				ring[i] = fn(pt)
			}
		}
	}
	return mp
}

// Bound is the bounding box of all features in the layer's current CRS.
func (l *Layer) Bound() orb.Bound {
	var (
		bound orb.Bound
		set   bool
	)
	for _, f := range l.Features {
		if len(f.Geometry) == 0 {
			continue
		}
		b := f.Geometry.Bound()
		if !set {
			bound, set = b, true
			continue
		}
		bound = bound.Union(b)
	}
	return bound
}

// YearRange returns the smallest and largest color-attribute year.
func (l *Layer) YearRange() (min, max int, ok bool) {
	for i, f := range l.Features {
		if i == 0 || f.Year < min {
			min = f.Year
		}
		if i == 0 || f.Year > max {
			max = f.Year
		}
	}
	return min, max, len(l.Features) > 0
}

// YearStat counts features and their geodesic area for one year.
type YearStat struct {
	Year     int     `json:"year"`
	Features int     `json:"features"`
	AreaKm2  float64 `json:"area_km2"`
}

// YearStats groups features by year. Areas are only meaningful once the
// layer has been reprojected to EPSG:4326.
func (l *Layer) YearStats() []YearStat {
	byYear := make(map[int]*YearStat)
	for _, f := range l.Features {
		s, ok := byYear[f.Year]
		if !ok {
			s = &YearStat{Year: f.Year}
			byYear[f.Year] = s
		}
		s.Features++
		s.AreaKm2 += geo.Area(f.Geometry) / 1e6
	}

	stats := make([]YearStat, 0, len(byYear))
	for _, s := range byYear {
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Year < stats[j].Year })
	return stats
}

// GeoJSON encodes the layer as a FeatureCollection keyed by feature index.
func (l *Layer) GeoJSON() ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, f := range l.Features {
		feature := geojson.NewFeature(f.Geometry)
		feature.ID = f.ID
		feature.Properties[l.ColorAttribute] = f.Year
		fc.Append(feature)
	}

	raw, err := json.Marshal(fc)
	if err != nil {
		return nil, fmt.Errorf("encode %s as geojson: %w", l.Name, err)
	}
	return raw, nil
}
