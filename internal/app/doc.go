// Package app wires the dashboard pipeline together.
//
// An Application owns the configuration, the logger, the resolved paths and the
// OpenTelemetry providers of one run. Each dataset from the catalog goes through
// the same stages:
//
//	load → normalize → bind → export (→ snapshot)
//
// Every stage runs in its own span and records its duration in the pipeline
// metrics. Rows dropped during cleaning are logged as warnings. The first error
// aborts the run and is returned to the caller; the app never calls os.Exit.
//
// # Usage
//
//	a, err := app.NewApplication("")
//	if err != nil {
//	    return err
//	}
//	defer a.Shutdown(ctx)
//	return a.Run(ctx, nil)
package app
