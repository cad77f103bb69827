package config

import "genderviz/pkg/contracts"

// Application constants
const (
	AppName    = "genderviz"
	AppVersion = contracts.Version

	// EnvPrefix namespaces every environment variable (GENDERVIZ_PATHS_DATA_DIR, ...)
	EnvPrefix = "GENDERVIZ"

	// File Paths (relative to the working directory)
	DefaultDataDir   = "Clean_Datasets"
	DefaultRawDir    = "Raw_Datasets"
	DefaultOutputDir = "."
	DefaultLogsDir   = "logs"

	// Rendering
	DefaultFont       = "Open Sans"
	DefaultGeoJSONURL = "https://raw.githubusercontent.com/datasets/geo-countries/master/data/countries.geojson"

	// Cleaning
	DefaultPrecision = 2
	DefaultSentinel  = "ALL"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
