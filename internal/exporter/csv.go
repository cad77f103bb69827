package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"genderviz/internal/config"
	"genderviz/pkg/contracts/domain"
)

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance. Relative paths resolve against the
// output directory.
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{paths: paths, logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options, replacing it atomically
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	return writeAtomic(fullPath, func(out io.Writer) error {
		// Write BOM if requested (helps Excel recognize UTF-8)
		if options.BOMPrefix {
			if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
				return fmt.Errorf("failed to write BOM: %w", err)
			}
		}

		writer := csv.NewWriter(out)
		if len(options.Headers) > 0 {
			if err := writer.Write(options.Headers); err != nil {
				return fmt.Errorf("failed to write headers: %w", err)
			}
		}
		for i, record := range options.Records {
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write record %d: %w", i, err)
			}
		}
		writer.Flush()
		return writer.Error()
	})
}

// WriteRaw writes a raw table with its header row
func (w *CSVWriter) WriteRaw(filePath string, table *domain.RawTable) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers: table.Header,
		Records: table.Rows,
	})
}

// WriteCanonical writes a cleaned table, formatting measures with the given precision
func (w *CSVWriter) WriteCanonical(filePath string, table *domain.CanonicalTable, precision int) error {
	records := make([][]string, len(table.Rows))
	for i, row := range table.Rows {
		rec := make([]string, len(row))
		for j, cell := range row {
			rec[j] = formatCell(cell, precision)
		}
		records[i] = rec
	}
	return w.WriteCSV(filePath, WriteOptions{
		Headers: table.Schema.Names(),
		Records: records,
	})
}

// resolvePath resolves a path to the output directory
func (w *CSVWriter) resolvePath(filePath string) string {
	// If the path is already absolute, return it as-is
	if filepath.IsAbs(filePath) || w.paths == nil {
		return filePath
	}
	return w.paths.GetOutputPath(filePath)
}
