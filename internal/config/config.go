package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"palmdash/internal/chart"
)

const (
	configPathEnv = "PALMDASH_CONFIG"
	addrEnv       = "PALMDASH_ADDR"
	dataDirEnv    = "PALMDASH_DATA_DIR"
	logLevelEnv   = "PALMDASH_LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Data    DataConfig    `yaml:"data"`
	Maps    MapsConfig    `yaml:"maps"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout"`
}

// DataConfig names the four input files. Relative names resolve against Dir.
type DataConfig struct {
	Dir                     string `yaml:"dir"`
	PalmTimeSeries          string `yaml:"palmTimeSeries"`
	DeforestationTimeSeries string `yaml:"deforestationTimeSeries"`
	DeforestationLayer      string `yaml:"deforestationLayer"`
	ExpansionLayer          string `yaml:"expansionLayer"`
	// SourceEPSG overrides the .prj of both layers when non-zero.
	SourceEPSG int `yaml:"sourceEpsg"`
}

// Path resolves name against the data directory.
func (d DataConfig) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.Dir, name)
}

// MapsConfig holds the settings shared by both maps.
type MapsConfig struct {
	Center chart.LatLon `yaml:"center"`
	Style  string       `yaml:"style"`
	Width  int          `yaml:"width"`
	Height int          `yaml:"height"`
}

// CacheConfig bounds the pipeline memo.
type CacheConfig struct {
	Size int `yaml:"size"`
}

// LoggingConfig selects the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration from path, or from $PALMDASH_CONFIG when path
// is empty, merges it over the defaults and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(addrEnv); v != "" {
		c.Server.Addr = v
	}

	if v := os.Getenv(dataDirEnv); v != "" {
		c.Data.Dir = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.ReadHeaderTimeout > 0 {
		base.Server.ReadHeaderTimeout = override.Server.ReadHeaderTimeout
	}
	if override.Server.ShutdownTimeout > 0 {
		base.Server.ShutdownTimeout = override.Server.ShutdownTimeout
	}

	if override.Data.Dir != "" {
		base.Data.Dir = override.Data.Dir
	}
	if override.Data.PalmTimeSeries != "" {
		base.Data.PalmTimeSeries = override.Data.PalmTimeSeries
	}
	if override.Data.DeforestationTimeSeries != "" {
		base.Data.DeforestationTimeSeries = override.Data.DeforestationTimeSeries
	}
	if override.Data.DeforestationLayer != "" {
		base.Data.DeforestationLayer = override.Data.DeforestationLayer
	}
	if override.Data.ExpansionLayer != "" {
		base.Data.ExpansionLayer = override.Data.ExpansionLayer
	}
	if override.Data.SourceEPSG != 0 {
		base.Data.SourceEPSG = override.Data.SourceEPSG
	}

	if override.Maps.Center != (chart.LatLon{}) {
		base.Maps.Center = override.Maps.Center
	}
	if override.Maps.Style != "" {
		base.Maps.Style = override.Maps.Style
	}
	if override.Maps.Width > 0 {
		base.Maps.Width = override.Maps.Width
	}
	if override.Maps.Height > 0 {
		base.Maps.Height = override.Maps.Height
	}

	if override.Cache.Size > 0 {
		base.Cache.Size = override.Cache.Size
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

// Default returns the settings the dashboard was published with.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":8501",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Data: DataConfig{
			Dir:                     ".",
			PalmTimeSeries:          "palm_areaYear2001-2015_timeseries_quadrat_25km2.csv",
			DeforestationTimeSeries: "gfw_deforestation_with_distance_Year2001-2015_timeseries_quadrat_25km2.csv",
			DeforestationLayer:      "deforestation_nonpalm.shp",
			ExpansionLayer:          "plantations_aged_mapped.shp",
		},
		Maps: MapsConfig{
			Center: chart.LatLon{Lat: -8.540459, Lon: -74.743779},
			Style:  "satellite-streets",
			Width:  400,
			Height: 400,
		},
		Cache:   CacheConfig{Size: 16},
		Logging: LoggingConfig{Level: "info"},
	}
}
