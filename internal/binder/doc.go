// Package binder composes linked Vega-Lite views over a canonical table.
//
// A dashboard is a Layout of ViewSpec values plus at most one SelectionState carried in
// the Context. The selection is hosted by a single view: the anchor for click selections,
// or the first reader for selections bound to input widgets. Readers are filtered by the
// selection; the anchor is not.
package binder
