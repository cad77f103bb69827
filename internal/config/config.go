package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Render    RenderConfig    `yaml:"render" envconfig:"RENDER"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Snapshot  SnapshotConfig  `yaml:"snapshot" envconfig:"SNAPSHOT"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/genderviz.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// PathsConfig contains file system locations. Relative paths resolve against the working directory.
type PathsConfig struct {
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR" default:"Clean_Datasets" validate:"required"`
	RawDir    string `yaml:"raw_dir" envconfig:"RAW_DIR" default:"Raw_Datasets" validate:"required"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"." validate:"required"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// RenderConfig controls the generated HTML page
type RenderConfig struct {
	CDN             string `yaml:"cdn" envconfig:"CDN" default:"https://cdn.jsdelivr.net/npm" validate:"required,url"`
	VegaVersion     string `yaml:"vega_version" envconfig:"VEGA_VERSION" default:"5" validate:"required"`
	VegaLiteVersion string `yaml:"vega_lite_version" envconfig:"VEGA_LITE_VERSION" default:"5" validate:"required"`
	EmbedVersion    string `yaml:"embed_version" envconfig:"EMBED_VERSION" default:"6" validate:"required"`
	GeoJSONURL      string `yaml:"geojson_url" envconfig:"GEOJSON_URL" default:"https://raw.githubusercontent.com/datasets/geo-countries/master/data/countries.geojson" validate:"required,url"`
	GeoKey          string `yaml:"geo_key" envconfig:"GEO_KEY" default:"properties.ISO_A3" validate:"required"`
	Font            string `yaml:"font" envconfig:"FONT" default:"Open Sans"`
}

// TelemetryConfig toggles tracing and the metrics textfile
type TelemetryConfig struct {
	EnableTracing bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING" default:"false"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"stdout" validate:"oneof=stdout none"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1" validate:"gte=0,lte=1"`
	EnableMetrics bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS" default:"true"`
	// MetricsFile is a node-exporter textfile written at the end of a run; empty disables it.
	MetricsFile string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// SnapshotConfig controls optional PNG previews of exported dashboards
type SnapshotConfig struct {
	Enabled bool          `yaml:"enabled" envconfig:"ENABLED" default:"false"`
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"30s" validate:"gt=0"`
	Width   int64         `yaml:"width" envconfig:"WIDTH" default:"1400" validate:"gt=0"`
	Height  int64         `yaml:"height" envconfig:"HEIGHT" default:"1000" validate:"gt=0"`
}

// Load loads configuration from .env, environment variables and an optional YAML file.
// An explicit path overrides the default file lookup.
func Load(path string) (*Config, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := path
	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config. Env values win unless they are
// still the built-in default, in which case the file value is used.
func mergeConfigs(fileConfig, envConfig Config) Config {
	def := Default()

	pick := func(env, file, dflt string) string {
		if env != dflt || file == "" {
			return env
		}
		return file
	}

	envConfig.Logging.Level = pick(envConfig.Logging.Level, fileConfig.Logging.Level, def.Logging.Level)
	envConfig.Logging.Output = pick(envConfig.Logging.Output, fileConfig.Logging.Output, def.Logging.Output)
	envConfig.Logging.FilePath = pick(envConfig.Logging.FilePath, fileConfig.Logging.FilePath, def.Logging.FilePath)

	envConfig.Paths.DataDir = pick(envConfig.Paths.DataDir, fileConfig.Paths.DataDir, def.Paths.DataDir)
	envConfig.Paths.RawDir = pick(envConfig.Paths.RawDir, fileConfig.Paths.RawDir, def.Paths.RawDir)
	envConfig.Paths.OutputDir = pick(envConfig.Paths.OutputDir, fileConfig.Paths.OutputDir, def.Paths.OutputDir)
	envConfig.Paths.LogsDir = pick(envConfig.Paths.LogsDir, fileConfig.Paths.LogsDir, def.Paths.LogsDir)

	envConfig.Render.CDN = pick(envConfig.Render.CDN, fileConfig.Render.CDN, def.Render.CDN)
	envConfig.Render.GeoJSONURL = pick(envConfig.Render.GeoJSONURL, fileConfig.Render.GeoJSONURL, def.Render.GeoJSONURL)
	envConfig.Render.GeoKey = pick(envConfig.Render.GeoKey, fileConfig.Render.GeoKey, def.Render.GeoKey)
	envConfig.Render.Font = pick(envConfig.Render.Font, fileConfig.Render.Font, def.Render.Font)

	envConfig.Telemetry.TraceExporter = pick(envConfig.Telemetry.TraceExporter, fileConfig.Telemetry.TraceExporter, def.Telemetry.TraceExporter)
	envConfig.Telemetry.MetricsFile = pick(envConfig.Telemetry.MetricsFile, fileConfig.Telemetry.MetricsFile, def.Telemetry.MetricsFile)
	if fileConfig.Telemetry.EnableTracing {
		envConfig.Telemetry.EnableTracing = true
	}
	if fileConfig.Snapshot.Enabled {
		envConfig.Snapshot.Enabled = true
	}
	// ... booleans can only be switched on from the file

	return envConfig
}

// validate validates the configuration
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/genderviz.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"genderviz.yaml",
		"configs/genderviz.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/genderviz.log",
		},
		Paths: PathsConfig{
			DataDir:   DefaultDataDir,
			RawDir:    DefaultRawDir,
			OutputDir: DefaultOutputDir,
			LogsDir:   DefaultLogsDir,
		},
		Render: RenderConfig{
			CDN:             "https://cdn.jsdelivr.net/npm",
			VegaVersion:     "5",
			VegaLiteVersion: "5",
			EmbedVersion:    "6",
			GeoJSONURL:      DefaultGeoJSONURL,
			GeoKey:          "properties.ISO_A3",
			Font:            DefaultFont,
		},
		Telemetry: TelemetryConfig{
			TraceExporter: "stdout",
			SampleRatio:   1,
			EnableMetrics: true,
		},
		Snapshot: SnapshotConfig{
			Timeout: 30 * time.Second,
			Width:   1400,
			Height:  1000,
		},
	}
}
