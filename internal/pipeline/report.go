package pipeline

import (
	"time"

	"palmdash/internal/report"
	"palmdash/internal/spatial"
)

// Report gathers the outputs of every pipeline for the exports.
func (d *Dashboard) Report() (report.Data, error) {
	t, err := d.TimeSeries()
	if err != nil {
		return report.Data{}, err
	}

	var layers []*spatial.Layer
	for _, name := range []string{DeforestationPipeline, ExpansionPipeline} {
		l, err := d.Layer(name)
		if err != nil {
			return report.Data{}, err
		}
		layers = append(layers, l)
	}

	return report.Data{
		Deforestation: t.Deforestation,
		Expansion:     t.Expansion,
		RoadDistance:  t.Distances.Road,
		PalmDistance:  t.Distances.Palm,
		Layers:        layers,
		Generated:     time.Now(),
	}, nil
}
