// Package pipeline wires the dashboard's read, aggregate and render steps and
// memoizes each of them against its input files.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"palmdash/internal/cache"
	"palmdash/internal/chart"
	"palmdash/internal/config"
	"palmdash/internal/spatial"
)

// Pipeline names, also used as cache keys and chart names.
const (
	TimeSeriesPipeline    = "timeseries"
	DeforestationPipeline = "deforestation"
	ExpansionPipeline     = "expansion"
)

// ErrUnknownPipeline is returned for names outside Names.
var ErrUnknownPipeline = errors.New("unknown pipeline")

// Names lists every pipeline in page order.
var Names = []string{DeforestationPipeline, ExpansionPipeline, TimeSeriesPipeline}

// Dashboard runs the three pipelines behind the page.
type Dashboard struct {
	data   config.DataConfig
	maps   config.MapsConfig
	memo   *cache.Memo
	logger *slog.Logger
}

// New returns a Dashboard reading the files named in cfg.Data.
func New(cfg config.Config, memo *cache.Memo, logger *slog.Logger) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{
		data:   cfg.Data,
		maps:   cfg.Maps,
		memo:   memo,
		logger: logger.With("component", "pipeline"),
	}
}

// Chart returns the rendered output of the named pipeline.
func (d *Dashboard) Chart(name string) (chart.Chart, error) {
	switch name {
	case TimeSeriesPipeline:
		t, err := d.TimeSeries()
		if err != nil {
			return nil, err
		}
		return t.Chart, nil
	case DeforestationPipeline, ExpansionPipeline:
		m, err := d.mapFor(name)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownPipeline)
	}
}

func (d *Dashboard) mapFor(name string) (*chart.Choropleth, error) {
	switch name {
	case DeforestationPipeline:
		return d.Deforestation()
	case ExpansionPipeline:
		return d.Expansion()
	default:
		return nil, fmt.Errorf("%q is not a map: %w", name, ErrUnknownPipeline)
	}
}

// Layer returns the reprojected polygons behind a map pipeline.
func (d *Dashboard) Layer(name string) (*spatial.Layer, error) {
	m, err := d.mapFor(name)
	if err != nil {
		return nil, err
	}
	return m.Layer, nil
}

// Warm runs every pipeline once and returns the first failure.
func (d *Dashboard) Warm() error {
	var g errgroup.Group
	for _, name := range Names {
		g.Go(func() error {
			start := time.Now()
			if _, err := d.Chart(name); err != nil {
				return fmt.Errorf("warm %s: %w", name, err)
			}
			d.logger.Debug("pipeline ready", "pipeline", name, "duration", time.Since(start))
			return nil
		})
	}
	return g.Wait()
}

// Invalidate forgets the cached outputs of names, or of every pipeline when
// names is empty.
func (d *Dashboard) Invalidate(names ...string) error {
	if len(names) == 0 {
		d.memo.Purge()
		d.logger.Info("cache purged")
		return nil
	}
	for _, name := range names {
		if !known(name) {
			return fmt.Errorf("%q: %w", name, ErrUnknownPipeline)
		}
	}
	d.memo.Invalidate(names...)
	d.logger.Info("cache invalidated", "pipelines", names)
	return nil
}

func known(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}

func (d *Dashboard) mapConfig(zoom float64, scale, label string) chart.MapConfig {
	return chart.MapConfig{
		Center: d.maps.Center,
		Zoom:   zoom,
		Style:  d.maps.Style,
		Width:  d.maps.Width,
		Height: d.maps.Height,
		Scale:  scale,
		Label:  label,
	}
}
