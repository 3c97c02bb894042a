// Package report exports the dashboard numbers as a workbook and a markdown
// summary.
package report

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"palmdash/internal/dataset"
	"palmdash/internal/spatial"
)

// Data is everything the exports draw on.
type Data struct {
	Deforestation []dataset.YearTotal
	Expansion     []dataset.YearTotal
	RoadDistance  []dataset.YearTotal
	PalmDistance  []dataset.YearTotal
	Layers        []*spatial.Layer
	Generated     time.Time
}

// yearRow joins both yearly series on year.
type yearRow struct {
	Year          int
	Deforestation float64
	Expansion     float64
	HasLoss       bool
	HasPalm       bool
}

func joinYears(loss, palm []dataset.YearTotal) []yearRow {
	byYear := make(map[int]*yearRow)
	row := func(year int) *yearRow {
		r, ok := byYear[year]
		if !ok {
			r = &yearRow{Year: year}
			byYear[year] = r
		}
		return r
	}
	for _, t := range loss {
		r := row(t.Year)
		r.Deforestation, r.HasLoss = t.Value, true
	}
	for _, t := range palm {
		r := row(t.Year)
		r.Expansion, r.HasPalm = t.Value, true
	}

	rows := make([]yearRow, 0, len(byYear))
	for _, r := range byYear {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Year < rows[j].Year })
	return rows
}

// correlation is Pearson's r between the two series over the years both
// cover. It is NaN with fewer than three shared years or a constant series.
func correlation(loss, palm []dataset.YearTotal) float64 {
	var xs, ys []float64
	for _, r := range joinYears(loss, palm) {
		if r.HasLoss && r.HasPalm {
			xs = append(xs, r.Deforestation)
			ys = append(ys, r.Expansion)
		}
	}
	if len(xs) < 3 {
		return math.NaN()
	}
	if stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

func formatNumber(num float64) string {
	if num >= 1000000 {
		return fmt.Sprintf("%.2fM", num/1000000)
	} else if num >= 1000 {
		return fmt.Sprintf("%.1fK", num/1000)
	}
	return fmt.Sprintf("%.2f", num)
}

func formatCorrelation(r float64) string {
	if math.IsNaN(r) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", r)
}
