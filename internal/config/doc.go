// Package config provides configuration loading for the dashboard builders.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority), optionally seeded from a .env file
//	2. A YAML file (genderviz.yaml or configs/genderviz.yaml, or an explicit path)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern GENDERVIZ_<SECTION>_<FIELD>:
//
//	GENDERVIZ_PATHS_DATA_DIR=Clean_Datasets
//	GENDERVIZ_PATHS_OUTPUT_DIR=out
//	GENDERVIZ_LOGGING_LEVEL=debug
//	GENDERVIZ_TELEMETRY_METRICS_FILE=/var/lib/node_exporter/genderviz.prom
//	GENDERVIZ_SNAPSHOT_ENABLED=true
//
// # Path Management
//
// Paths are resolved against the working directory, which is where the
// dashboards are written by default:
//
//	paths, err := config.GetPaths(cfg.Paths)
//	src := paths.GetDataPath("OECD_Test_Scores_Clean.csv")
//	out := paths.GetOutputPath("test_scores_altair.html")
//
// # Validation
//
// The loaded struct is validated with go-playground/validator; invalid values
// (unknown log level, non-URL CDN, negative sample ratio) fail the load.
package config
