package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"genderviz/internal/binder"
	"genderviz/internal/config"
	"genderviz/internal/dataprocessing"
	"genderviz/internal/datasets"
	apperrors "genderviz/internal/errors"
	"genderviz/internal/exporter"
	"genderviz/internal/infrastructure"
	"genderviz/internal/snapshot"
	"genderviz/pkg/contracts/domain"
)

// Pipeline stage names used for spans and metrics
const (
	StageLoad      = "load"
	StageNormalize = "normalize"
	StageBind      = "bind"
	StageExport    = "export"
	StageSnapshot  = "snapshot"
	StageMunge     = "munge"
)

// Application wires configuration, logging, telemetry and the pipeline stages
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	Paths         *config.Paths
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.PipelineMetrics
	RunID         string

	// ExportCSV also writes the cleaned table next to each dashboard
	ExportCSV bool

	loader   *dataprocessing.Loader
	html     *exporter.HTMLExporter
	csv      *exporter.CSVWriter
	snapshot *snapshot.Capturer
}

// NewApplication loads configuration from configPath (empty for the default lookup)
// and initializes the global logger and telemetry
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to load configuration", err)
	}

	paths, err := config.GetPaths(cfg.Paths)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to resolve paths", err)
	}
	cfg.Logging.FilePath = logFilePath(cfg.Logging.FilePath, paths)

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New builds an application from an already loaded configuration
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	paths, err := config.GetPaths(cfg.Paths)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to resolve paths", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, apperrors.NewIOError("failed to create directories", err)
	}
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	runID := infrastructure.GenerateRunID()
	logger = logger.With(slog.String("run_id", runID))

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		Paths:         paths,
		OTelProviders: providers,
		Metrics:       metrics,
		RunID:         runID,
		loader:        dataprocessing.NewLoader(logger),
		html:          exporter.NewHTMLExporter(cfg.Render, logger).WithRunID(runID),
		csv:           exporter.NewCSVWriter(paths, logger),
	}
	if cfg.Snapshot.Enabled {
		a.snapshot = snapshot.NewCapturer(cfg.Snapshot, logger)
	}

	return a, nil
}

// Run builds the named dashboards, or every dashboard when names is empty.
// The first failure aborts the run.
func (a *Application) Run(ctx context.Context, names []string) error {
	selected, err := selectDatasets(names)
	if err != nil {
		return err
	}

	a.Logger.InfoContext(ctx, "Starting dashboard run",
		slog.Int("datasets", len(selected)),
		slog.String("output_dir", a.Paths.OutputDir))

	start := time.Now()
	for _, d := range selected {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.RunDataset(ctx, d); err != nil {
			return fmt.Errorf("dataset %s: %w", d.Name, err)
		}
	}

	a.Logger.InfoContext(ctx, "Dashboard run complete",
		slog.Int("datasets", len(selected)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// selectDatasets resolves names against the catalog
func selectDatasets(names []string) ([]datasets.Dataset, error) {
	if len(names) == 0 {
		return datasets.All(), nil
	}

	var out []datasets.Dataset
	for _, name := range names {
		d, ok := datasets.ByName(strings.TrimSpace(name))
		if !ok {
			return nil, apperrors.NewAppValidationError(
				fmt.Sprintf("unknown dataset %q (available: %s)", name, strings.Join(datasets.Names(), ", ")))
		}
		out = append(out, d)
	}
	return out, nil
}

// RunDataset drives one dataset through load, normalize, bind and export
func (a *Application) RunDataset(ctx context.Context, d datasets.Dataset) error {
	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := a.OTelProviders.Tracer.Start(ctx, "pipeline.dataset",
		trace.WithAttributes(attribute.String("dataset", d.Name)))
	defer span.End()

	logger := a.Logger.With(slog.String("dataset", d.Name))
	attrs := metric.WithAttributes(attribute.String("dataset", d.Name))

	var raw *domain.RawTable
	err := a.stage(ctx, d.Name, StageLoad, func(ctx context.Context) error {
		var err error
		raw, err = a.loader.LoadFile(a.Paths.GetDataPath(d.Source), d.Load)
		return err
	})
	if err != nil {
		return fail(span, err)
	}
	a.Metrics.RowsLoaded.Add(ctx, int64(len(raw.Rows)), attrs)

	var result *dataprocessing.Result
	err = a.stage(ctx, d.Name, StageNormalize, func(ctx context.Context) error {
		var err error
		result, err = dataprocessing.Normalize(raw, d.Rules)
		return err
	})
	if err != nil {
		return fail(span, err)
	}
	for _, issue := range result.Issues {
		logger.WarnContext(ctx, "Dropped row during cleaning",
			slog.Int("row", issue.Row),
			slog.String("column", issue.Column),
			slog.String("value", issue.Value),
			slog.Any("error", issue.Err))
	}
	a.Metrics.RowsDropped.Add(ctx, int64(len(result.Issues)), attrs)
	a.Metrics.RowsAggregated.Add(ctx, int64(result.Aggregates), attrs)

	var spec *binder.ComposedSpec
	err = a.stage(ctx, d.Name, StageBind, func(ctx context.Context) error {
		bctx, layout := d.Compose(result.Table, a.Config.Render)
		if bctx.Precision == nil {
			precision := d.Rules.Precision
			bctx.Precision = &precision
		}
		var err error
		spec, err = binder.Bind(result.Table, bctx, layout)
		return err
	})
	if err != nil {
		return fail(span, err)
	}

	outPath := a.Paths.GetOutputPath(d.Output)
	err = a.stage(ctx, d.Name, StageExport, func(ctx context.Context) error {
		if err := a.html.ExportHTML(spec, outPath); err != nil {
			return err
		}
		a.Metrics.ArtifactsWritten.Add(ctx, 1, attrs)

		if a.ExportCSV {
			if err := a.csv.WriteCanonical(csvName(d.Output), result.Table, d.Rules.Precision); err != nil {
				return err
			}
			a.Metrics.ArtifactsWritten.Add(ctx, 1, attrs)
		}
		return nil
	})
	if err != nil {
		return fail(span, err)
	}

	if a.snapshot != nil {
		err = a.stage(ctx, d.Name, StageSnapshot, func(ctx context.Context) error {
			return a.snapshot.Capture(ctx, outPath, pngName(outPath))
		})
		if err != nil {
			return fail(span, err)
		}
	}

	span.SetAttributes(
		attribute.Int("rows.loaded", len(raw.Rows)),
		attribute.Int("rows.canonical", result.Table.Len()),
		attribute.Int("rows.dropped", len(result.Issues)))

	logger.InfoContext(ctx, "Dashboard written",
		slog.String("path", outPath),
		slog.Int("rows_loaded", len(raw.Rows)),
		slog.Int("rows", result.Table.Len()),
		slog.Int("rows_dropped", len(result.Issues)),
		slog.Int("aggregates", result.Aggregates))
	return nil
}

// Munge converts a raw spreadsheet into a clean CSV in the output directory
func (a *Application) Munge(ctx context.Context, job datasets.MungeJob) error {
	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := a.OTelProviders.Tracer.Start(ctx, "pipeline.munge",
		trace.WithAttributes(attribute.String("dataset", job.Name)))
	defer span.End()

	var table *domain.RawTable
	err := a.stage(ctx, job.Name, StageLoad, func(ctx context.Context) error {
		var err error
		table, err = a.loader.LoadExcel(a.Paths.GetRawPath(job.Source), job.Load)
		return err
	})
	if err != nil {
		return fail(span, err)
	}
	a.Metrics.RowsLoaded.Add(ctx, int64(len(table.Rows)),
		metric.WithAttributes(attribute.String("dataset", job.Name)))

	outPath := a.Paths.GetOutputPath(job.Output)
	err = a.stage(ctx, job.Name, StageMunge, func(ctx context.Context) error {
		munged, err := dataprocessing.ExtractSections(table, job.Sections)
		if err != nil {
			return err
		}
		table = munged
		return a.csv.WriteRaw(outPath, table)
	})
	if err != nil {
		return fail(span, err)
	}
	a.Metrics.ArtifactsWritten.Add(ctx, 1, metric.WithAttributes(attribute.String("dataset", job.Name)))

	a.Logger.InfoContext(ctx, "Munged spreadsheet",
		slog.String("dataset", job.Name),
		slog.String("path", outPath),
		slog.Int("rows", len(table.Rows)))
	return nil
}

// stage runs fn in its own span and records its duration
func (a *Application) stage(ctx context.Context, dataset, name string, fn func(context.Context) error) error {
	ctx, span := a.OTelProviders.Tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	infrastructure.RecordStage(ctx, a.Metrics, dataset, name, time.Since(start), err)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		infrastructure.WithError(infrastructure.WithComponent(a.Logger, "runner"), err).
			ErrorContext(ctx, "Pipeline stage failed",
				slog.String("dataset", dataset),
				slog.String("stage", name),
				slog.String("error_type", string(apperrors.TypeOf(err))))
	}
	return err
}

func fail(span trace.Span, err error) error {
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Shutdown writes the metrics textfile and stops the telemetry providers
func (a *Application) Shutdown(ctx context.Context) error {
	var errs []string
	if err := a.OTelProviders.WriteMetricsFile(a.Config.Telemetry.MetricsFile); err != nil {
		errs = append(errs, err.Error())
	}
	if err := a.OTelProviders.Shutdown(ctx); err != nil {
		errs = append(errs, err.Error())
	}
	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// logFilePath places a relative log file name in the logs directory
func logFilePath(filePath string, paths *config.Paths) string {
	if filepath.IsAbs(filePath) {
		return filePath
	}
	name := filepath.Base(filePath)
	if filePath == "" {
		name = config.AppName + ".log"
	}
	return paths.GetLogPath(name)
}

func csvName(htmlName string) string {
	return strings.TrimSuffix(htmlName, filepath.Ext(htmlName)) + ".csv"
}

func pngName(htmlPath string) string {
	return strings.TrimSuffix(htmlPath, filepath.Ext(htmlPath)) + ".png"
}
