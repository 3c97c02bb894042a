package pipeline

import (
	"fmt"
	"time"

	"palmdash/internal/cache"
	"palmdash/internal/chart"
	"palmdash/internal/dataset"
)

// Distance-to-feature columns of the deforestation table.
const (
	RoadDistanceColumn = "near_road"
	PalmDistanceColumn = "near_palm"
)

var (
	palmSchema = dataset.Schema{YearColumn: "year_plant", AreaColumn: "areakm2"}
	lossSchema = dataset.Schema{
		YearColumn: "year",
		AreaColumn: "areakm2",
		Extra:      []string{RoadDistanceColumn, PalmDistanceColumn},
	}
)

// Trends is the output of the time-series pipeline.
type Trends struct {
	Deforestation []dataset.YearTotal `json:"deforestation"`
	Expansion     []dataset.YearTotal `json:"expansion"`
	Distances     Distances           `json:"distances"`
	Chart         *chart.TimeSeries   `json:"-"`
}

// Distances holds per-year mean distances from deforested units to the
// nearest road and plantation. Either is empty when its column is absent.
type Distances struct {
	Road []dataset.YearTotal `json:"road"`
	Palm []dataset.YearTotal `json:"palm"`
}

// TimeSeries sums both tables by year and plots them as two lines.
func (d *Dashboard) TimeSeries() (*Trends, error) {
	palmPath := d.data.Path(d.data.PalmTimeSeries)
	lossPath := d.data.Path(d.data.DeforestationTimeSeries)
	return cache.Get(d.memo, TimeSeriesPipeline, []string{palmPath, lossPath}, func() (*Trends, error) {
		start := time.Now()
		palm, err := d.loadTable(palmPath, palmSchema)
		if err != nil {
			return nil, err
		}
		loss, err := d.loadTable(lossPath, lossSchema)
		if err != nil {
			return nil, err
		}

		t := &Trends{
			Deforestation: dataset.SumByYear(loss.Rows),
			Expansion:     dataset.SumByYear(palm.Rows),
			Distances: Distances{
				Road: dataset.MeanByYear(loss.Rows, RoadDistanceColumn),
				Palm: dataset.MeanByYear(loss.Rows, PalmDistanceColumn),
			},
		}
		t.Chart = chart.NewTimeSeries(chart.DefaultTimeSeriesLayout(),
			chart.Series{
				Line:   chart.LineConfig{Name: "Non-oil palm deforestation", Color: "#DB0000"},
				Points: t.Deforestation,
			},
			chart.Series{
				Line:   chart.LineConfig{Name: "Oil palm expansion", Color: "#F07605"},
				Points: t.Expansion,
			},
		)
		d.logger.Info("time series built",
			"deforestation_years", len(t.Deforestation),
			"expansion_years", len(t.Expansion),
			"duration", time.Since(start),
		)
		return t, nil
	})
}

// Distances returns the mean distance-to-feature series of the deforestation
// table.
func (d *Dashboard) Distances() (Distances, error) {
	t, err := d.TimeSeries()
	if err != nil {
		return Distances{}, err
	}
	return t.Distances, nil
}

func (d *Dashboard) loadTable(path string, schema dataset.Schema) (*dataset.Table, error) {
	table, err := dataset.LoadCSV(path, schema)
	if err != nil {
		return nil, fmt.Errorf("load time series: %w", err)
	}
	d.logger.Info("table loaded", "file", path, "rows", len(table.Rows), "extra", table.Extra)
	return table, nil
}
