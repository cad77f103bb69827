package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"genderviz/internal/binder"
	"genderviz/internal/config"
	"genderviz/internal/dataprocessing"
	"genderviz/internal/datasets"
	apperrors "genderviz/internal/errors"
	"genderviz/internal/infrastructure"
	"genderviz/pkg/contracts/domain"
)

type testDirs struct {
	data, raw, out, logs string
}

func newTestApp(t *testing.T) (*Application, testDirs) {
	t.Helper()

	root := t.TempDir()
	dirs := testDirs{
		data: filepath.Join(root, "clean"),
		raw:  filepath.Join(root, "raw"),
		out:  filepath.Join(root, "out"),
		logs: filepath.Join(root, "logs"),
	}
	for _, d := range []string{dirs.data, dirs.raw, dirs.out} {
		require.NoError(t, os.MkdirAll(d, 0755))
	}

	cfg := config.Default()
	cfg.Paths = config.PathsConfig{DataDir: dirs.data, RawDir: dirs.raw, OutputDir: dirs.out, LogsDir: dirs.logs}
	cfg.Telemetry.MetricsFile = filepath.Join(root, "genderviz.prom")

	a, err := New(cfg, infrastructure.NewLogger(io.Discard, cfg.Logging))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.OTelProviders.Shutdown(context.Background()) })
	return a, dirs
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// yearly is a small line-chart dataset with the mean added as ALL
func yearly() datasets.Dataset {
	return datasets.Dataset{
		Name:   "yearly",
		Source: "yearly.csv",
		Output: "yearly.html",
		Rules: dataprocessing.CleaningRules{
			Schema: domain.Schema{
				Entity: "Country",
				Columns: []domain.Column{
					{Name: "Country", Kind: domain.KindCategorical},
					{Name: "Year", Kind: domain.KindTemporal},
					{Name: "Score", Kind: domain.KindMeasure},
				},
			},
			Aggregate: &dataprocessing.AggregateRule{Measures: []string{"Score"}},
			SortBy:    []string{"Country"},
			Precision: 2,
		},
		Compose: func(t *domain.CanonicalTable, render config.RenderConfig) (binder.Context, binder.Layout) {
			sel := &binder.SelectionState{
				Name:     "country",
				Fields:   []string{"Country"},
				Bindings: []binder.Binding{{Field: "Country", Kind: binder.BindSelect}},
				Init:     map[string]any{"Country": config.DefaultSentinel},
			}
			view := binder.ViewSpec{
				Name: "trend",
				Mark: binder.MarkLine,
				Role: binder.RoleReader,
				Encoding: binder.Encoding{
					X: &binder.Channel{Field: "Year"},
					Y: &binder.Channel{Field: "Score"},
				},
			}
			return binder.Context{Selection: sel, Title: "Scores"}, binder.Single(view)
		},
	}
}

func TestNew(t *testing.T) {
	a, dirs := newTestApp(t)

	assert.NotEmpty(t, a.RunID)
	assert.Equal(t, dirs.out, a.Paths.OutputDir)
	assert.NotNil(t, a.Metrics)
	assert.Nil(t, a.snapshot)
	assert.DirExists(t, dirs.logs)
}

func TestApplication_RunDataset(t *testing.T) {
	a, dirs := newTestApp(t)
	writeFile(t, filepath.Join(dirs.data, "yearly.csv"),
		"Country,Year,Score\nAUT,2015,480\nAUT,2018,490\nBEL,2015,500\nBEL,2018,n/a\n")

	require.NoError(t, a.RunDataset(context.Background(), yearly()))

	page, err := os.ReadFile(filepath.Join(dirs.out, "yearly.html"))
	require.NoError(t, err)
	html := string(page)
	assert.Contains(t, html, `"Country":"ALL"`)
	assert.Contains(t, html, `"name":"country"`)
	assert.Contains(t, html, a.RunID)
	// the malformed BEL 2018 row is dropped, so the 2018 mean is AUT alone
	assert.Contains(t, html, `{"Country":"ALL","Score":490,"Year":"2018-01-01"}`)

	assert.NoFileExists(t, filepath.Join(dirs.out, "yearly.csv"))
}

func TestApplication_RunDataset_ExportCSV(t *testing.T) {
	a, dirs := newTestApp(t)
	a.ExportCSV = true
	writeFile(t, filepath.Join(dirs.data, "yearly.csv"),
		"Country,Year,Score\nAUT,2015,480.123\n")

	require.NoError(t, a.RunDataset(context.Background(), yearly()))

	data, err := os.ReadFile(filepath.Join(dirs.out, "yearly.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Country,Year,Score", lines[0])
	assert.Equal(t, "ALL,2015,480.12", lines[1])
	assert.Equal(t, "AUT,2015,480.12", lines[2])
}

func TestApplication_RunDataset_EmptyTable(t *testing.T) {
	a, dirs := newTestApp(t)
	writeFile(t, filepath.Join(dirs.data, "yearly.csv"), "Country,Year,Score\n")

	require.NoError(t, a.RunDataset(context.Background(), yearly()))

	page, err := os.ReadFile(filepath.Join(dirs.out, "yearly.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), `"datasets":{"table":[]}`)
}

func TestApplication_RunDataset_ZeroPrecision(t *testing.T) {
	a, dirs := newTestApp(t)
	writeFile(t, filepath.Join(dirs.data, "yearly.csv"), "Country,Year,Score\nAUT,2015,480.6\n")
	d := yearly()
	d.Rules.Precision = 0

	require.NoError(t, a.RunDataset(context.Background(), d))

	page, err := os.ReadFile(filepath.Join(dirs.out, "yearly.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), `{"Country":"AUT","Score":481,"Year":"2015-01-01"}`)
	assert.NotContains(t, string(page), "480.6")
}

func TestApplication_RunDataset_Errors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T, a *Application, dirs testDirs)
		wantType apperrors.ErrorType
	}{
		{
			name:     "missing source",
			setup:    func(t *testing.T, a *Application, dirs testDirs) {},
			wantType: apperrors.ErrTypeIO,
		},
		{
			name: "missing column",
			setup: func(t *testing.T, a *Application, dirs testDirs) {
				writeFile(t, filepath.Join(dirs.data, "yearly.csv"), "Country,Score\nAUT,480\n")
			},
			wantType: apperrors.ErrTypeSchemaMismatch,
		},
		{
			name: "missing output directory",
			setup: func(t *testing.T, a *Application, dirs testDirs) {
				writeFile(t, filepath.Join(dirs.data, "yearly.csv"), "Country,Year,Score\nAUT,2015,480\n")
				a.Paths.OutputDir = filepath.Join(dirs.out, "missing")
			},
			wantType: apperrors.ErrTypeIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, dirs := newTestApp(t)
			tt.setup(t, a, dirs)

			err := a.RunDataset(context.Background(), yearly())
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
			assert.NoDirExists(t, filepath.Join(dirs.out, "missing"))
		})
	}
}

func TestApplication_Run_UnknownDataset(t *testing.T) {
	a, _ := newTestApp(t)

	err := a.Run(context.Background(), []string{"test_scores", "nope"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
	assert.Contains(t, err.Error(), `"nope"`)
}

func TestApplication_Run_Catalog(t *testing.T) {
	a, dirs := newTestApp(t)
	writeFile(t, filepath.Join(dirs.data, "OECD_Test_Scores_Clean.csv"),
		"country_code,gender,subject,year,test_score\n"+
			"AUS,girl,read,2015,519\n"+
			"AUS,boy,read,2015,487\n"+
			"AUT,girl,read,2015,495\n"+
			"AUT,boy,read,2015,471\n")

	require.NoError(t, a.Run(context.Background(), []string{"test_scores"}))
	assert.FileExists(t, filepath.Join(dirs.out, "test_scores_altair.html"))
}

func TestApplication_Run_Canceled(t *testing.T) {
	a, _ := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.Run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestApplication_Munge(t *testing.T) {
	a, dirs := newTestApp(t)

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Table 1. Occupations"},
		{"Computer occupations:"},
		{"Software developers.", 100, 80},
		{"Analysts", 50, 30},
		{"Engineers:"},
		{"Civil engineers", 20, 18},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(filepath.Join(dirs.raw, "stem.xlsx")))
	require.NoError(t, f.Close())

	job := datasets.MungeJob{
		Name:   "stem",
		Source: "stem.xlsx",
		Output: "stem.csv",
		Load: dataprocessing.LoadOptions{
			SkipRows: 1,
			Header:   []string{"occupation", "total", "men"},
		},
		Sections: dataprocessing.SectionRule{LabelColumn: "occupation", CategoryColumn: "category"},
	}
	// the munged CSV lands in the output directory; the data directory is not needed
	require.NoError(t, os.RemoveAll(dirs.data))
	require.NoError(t, a.Munge(context.Background(), job))

	assert.NoDirExists(t, dirs.data)
	data, err := os.ReadFile(filepath.Join(dirs.out, "stem.csv"))
	require.NoError(t, err)
	assert.Equal(t,
		"occupation,category,total,men\n"+
			"Software developers,Computer occupations,100,80\n"+
			"Analysts,Computer occupations,50,30\n"+
			"Civil engineers,Engineers,20,18\n",
		string(data))
}

func TestApplication_Munge_MissingWorkbook(t *testing.T) {
	a, _ := newTestApp(t)

	err := a.Munge(context.Background(), datasets.StemJobs())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeIO))
}

func TestApplication_Shutdown_WritesMetrics(t *testing.T) {
	a, dirs := newTestApp(t)
	writeFile(t, filepath.Join(dirs.data, "yearly.csv"), "Country,Year,Score\nAUT,2015,480\n")
	require.NoError(t, a.RunDataset(context.Background(), yearly()))

	require.NoError(t, a.Shutdown(context.Background()))

	data, err := os.ReadFile(a.Config.Telemetry.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pipeline_rows_loaded")
	assert.Contains(t, string(data), "pipeline_stage_duration_seconds")
}

func TestApplication_Shutdown_ClosesLogFile(t *testing.T) {
	infrastructure.ResetLoggerForTesting()
	defer infrastructure.ResetLoggerForTesting()

	a, dirs := newTestApp(t)
	logPath := filepath.Join(dirs.logs, "run.log")
	logger, err := infrastructure.InitializeLogger(config.LoggingConfig{Level: "info", Format: "json", Output: "file", FilePath: logPath})
	require.NoError(t, err)
	a.Logger = logger

	a.Logger.Info("before shutdown")
	require.NoError(t, a.Shutdown(context.Background()))
	a.Logger.Info("after shutdown")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "before shutdown")
	assert.NotContains(t, string(data), "after shutdown")
}

func TestLogFilePath(t *testing.T) {
	paths := &config.Paths{LogsDir: filepath.Join("var", "logs")}
	abs, err := filepath.Abs(filepath.Join("elsewhere", "app.log"))
	require.NoError(t, err)

	tests := []struct {
		name     string
		filePath string
		want     string
	}{
		{name: "relative", filePath: filepath.Join("logs", "genderviz.log"), want: filepath.Join("var", "logs", "genderviz.log")},
		{name: "bare name", filePath: "run.log", want: filepath.Join("var", "logs", "run.log")},
		{name: "absolute", filePath: abs, want: abs},
		{name: "empty", filePath: "", want: filepath.Join("var", "logs", config.AppName+".log")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logFilePath(tt.filePath, paths))
		})
	}
}

func TestOutputNames(t *testing.T) {
	assert.Equal(t, "OECD_Novel_Viz.csv", csvName("OECD_Novel_Viz.html"))
	assert.Equal(t, filepath.Join("out", "a.png"), pngName(filepath.Join("out", "a.html")))
}
