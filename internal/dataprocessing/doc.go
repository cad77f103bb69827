// Package dataprocessing turns raw CSV and Excel sources into canonical tables.
//
// # Architecture
//
// The package is organized into three parts:
//
// 1. Loader: reads CSV and Excel files into an untyped domain.RawTable
// 2. Normalizer: binds the raw header to a typed schema, filters, relabels,
// reshapes and aggregates according to a CleaningRules value
// 3. Sections: splits spreadsheets whose label column carries category marker rows
//
// # Usage
//
//	raw, err := dataprocessing.LoadFile("Clean_Datasets/OECD_Test_Scores_Clean.csv", dataprocessing.LoadOptions{})
//	if err != nil {
//	    return err
//	}
//
//	result, err := dataprocessing.Normalize(raw, rules)
//	if err != nil {
//	    return err
//	}
//	for _, issue := range result.Issues {
//	    logger.Warn("row dropped", slog.String("issue", issue.String()))
//	}
//
// # Error Handling
//
// Every failure is an *errors.AppError. A missing or unreadable source is an IO error,
// a schema column absent from the header is a SCHEMA_MISMATCH error, and malformed cells
// are recorded as domain.RowIssue values unless CleaningRules.Strict is set, in which case
// the first one is returned as a PARSING error.
//
// Values in the canonical table are never rounded; Round is applied by the binder when data
// is serialized.
package dataprocessing
