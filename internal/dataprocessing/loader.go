package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "genderviz/internal/errors"
	"genderviz/internal/validation"
	"genderviz/pkg/contracts/domain"
)

// LoadOptions trims spreadsheets that carry title rows, footnotes or spacer columns
type LoadOptions struct {
	// Sheet selects a workbook sheet; empty means the first sheet
	Sheet string
	// SkipRows drops leading rows before the header (or before the data when Header is set)
	SkipRows int
	// MaxRows keeps at most this many data rows; 0 keeps all
	MaxRows int
	// Columns keeps only these zero-based positions, in the given order
	Columns []int
	// Header names the columns when the file has no header row
	Header []string
}

// Loader reads source files into raw tables
type Loader struct {
	logger    *slog.Logger
	validator *validation.FileValidator
}

// NewLoader creates a loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "loader"))
	return &Loader{
		logger:    logger,
		validator: validation.NewFileValidator(logger),
	}
}

// LoadFile reads path with the default loader
func LoadFile(path string, opts LoadOptions) (*domain.RawTable, error) {
	return NewLoader(nil).LoadFile(path, opts)
}

// LoadFile dispatches on the file extension
func (l *Loader) LoadFile(path string, opts LoadOptions) (*domain.RawTable, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return l.LoadCSV(path, opts)
	case ".xlsx", ".xlsm":
		return l.LoadExcel(path, opts)
	default:
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("unsupported source format %q", ext)).
			WithContext("source", path)
	}
}

// LoadCSV reads a comma separated file. Ragged rows are accepted and a UTF-8 BOM is removed.
func (l *Loader) LoadCSV(path string, opts LoadOptions) (*domain.RawTable, error) {
	if err := l.validator.ValidateCSVFile(path); err != nil {
		return nil, apperrors.NewIOError("source not readable", err).WithContext("source", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewIOError("failed to open source", err).WithContext("source", path)
	}
	defer f.Close()

	records, err := readCSV(f)
	if err != nil {
		return nil, apperrors.NewParsingError("malformed csv", err).WithContext("source", path)
	}

	raw, err := buildRawTable(filepath.Base(path), records, opts)
	if err != nil {
		return nil, err
	}

	l.logger.Info("Source loaded",
		slog.String("source", path),
		slog.Int("columns", len(raw.Header)),
		slog.Int("rows", len(raw.Rows)))
	return raw, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}

// LoadExcel reads one sheet of a workbook
func (l *Loader) LoadExcel(path string, opts LoadOptions) (*domain.RawTable, error) {
	if err := l.validator.ValidateExcelFile(path); err != nil {
		return nil, apperrors.NewIOError("workbook not readable", err).WithContext("source", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewIOError("failed to open workbook", err).WithContext("source", path)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewAppValidationError("workbook has no sheets").WithContext("source", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("sheet %q not readable: %v", sheet, err)).
			WithContext("source", path)
	}

	raw, err := buildRawTable(filepath.Base(path), rows, opts)
	if err != nil {
		return nil, err
	}

	l.logger.Info("Workbook loaded",
		slog.String("source", path),
		slog.String("sheet", sheet),
		slog.Int("columns", len(raw.Header)),
		slog.Int("rows", len(raw.Rows)))
	return raw, nil
}

// buildRawTable applies LoadOptions to the records read from a source
func buildRawTable(source string, records [][]string, opts LoadOptions) (*domain.RawTable, error) {
	if opts.SkipRows < 0 || opts.MaxRows < 0 {
		return nil, apperrors.NewAppValidationError("skip and max rows must not be negative")
	}

	if opts.SkipRows >= len(records) {
		records = nil
	} else {
		records = records[opts.SkipRows:]
	}

	raw := &domain.RawTable{Source: source}
	if len(opts.Header) > 0 {
		raw.Header = append([]string(nil), opts.Header...)
	} else if len(records) > 0 {
		raw.Header = records[0]
		records = records[1:]
	}

	if opts.MaxRows > 0 && len(records) > opts.MaxRows {
		records = records[:opts.MaxRows]
	}

	if len(opts.Columns) > 0 {
		if len(opts.Header) == 0 {
			raw.Header = pick(raw.Header, opts.Columns)
		}
		projected := make([][]string, len(records))
		for i, rec := range records {
			projected[i] = pick(rec, opts.Columns)
		}
		records = projected
	}

	if len(opts.Header) > 0 && len(opts.Columns) > 0 && len(opts.Header) != len(opts.Columns) {
		return nil, apperrors.NewAppValidationError(
			fmt.Sprintf("%d header names for %d selected columns", len(opts.Header), len(opts.Columns)))
	}

	raw.Rows = records
	return raw, nil
}

// pick returns the cells at the given positions; positions past the end read as ""
func pick(rec []string, positions []int) []string {
	out := make([]string, len(positions))
	for i, p := range positions {
		if p >= 0 && p < len(rec) {
			out[i] = rec[p]
		}
	}
	return out
}
