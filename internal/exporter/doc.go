// Package exporter writes pipeline artifacts to disk.
//
// HTMLExporter renders a binder.ComposedSpec into a self-contained page that loads
// vega, vega-lite and vega-embed from a CDN and embeds the chart JSON inline. The
// dashboard footnote is markdown.
//
// CSVWriter writes raw and canonical tables, optionally with a UTF-8 BOM for Excel.
//
// Both write through a temporary file in the target directory followed by a rename, so
// a failed export never leaves a partial file. Missing directories are not created.
//
// Example usage:
//
//	exp := exporter.NewHTMLExporter(cfg.Render, logger).WithRunID(runID)
//	if err := exp.ExportHTML(spec, paths.GetOutputPath("fertility_part_dashboard.html")); err != nil {
//	    return err
//	}
package exporter
