package pipeline

import (
	"fmt"
	"time"

	"palmdash/internal/cache"
	"palmdash/internal/chart"
	"palmdash/internal/spatial"
)

// Deforestation maps non-oil-palm forest loss colored by year of loss.
func (d *Dashboard) Deforestation() (*chart.Choropleth, error) {
	return d.choropleth(DeforestationPipeline, d.data.DeforestationLayer, "year",
		d.mapConfig(11, "Reds", "Year of forest loss"))
}

// Expansion maps oil palm plantations colored by year planted.
func (d *Dashboard) Expansion() (*chart.Choropleth, error) {
	return d.choropleth(ExpansionPipeline, d.data.ExpansionLayer, "year_plant",
		d.mapConfig(10, "Inferno", "Year Planted"))
}

func (d *Dashboard) choropleth(name, file, attribute string, cfg chart.MapConfig) (*chart.Choropleth, error) {
	path := d.data.Path(file)
	return cache.Get(d.memo, name, []string{path}, func() (*chart.Choropleth, error) {
		start := time.Now()
		layer, err := spatial.LoadShapefile(path, spatial.LoadOptions{
			Name:           name,
			ColorAttribute: attribute,
			SourceEPSG:     d.data.SourceEPSG,
		})
		if err != nil {
			return nil, fmt.Errorf("load %s layer: %w", name, err)
		}
		if layer.Dropped > 0 {
			d.logger.Warn("features without a year dropped",
				"file", path, "attribute", attribute, "dropped", layer.Dropped)
		}
		if layer.NullShapes > 0 {
			d.logger.Warn("null shapes skipped", "file", path, "null_shapes", layer.NullShapes)
		}
		sourceEPSG := layer.CRS.EPSG()
		layer.Reproject()

		m, err := chart.NewChoropleth(cfg, layer)
		if err != nil {
			return nil, fmt.Errorf("map %s layer: %w", name, err)
		}
		d.logger.Info("layer mapped",
			"file", path,
			"features", len(layer.Features),
			"source_epsg", sourceEPSG,
			"duration", time.Since(start),
		)
		return m, nil
	})
}
