// Package cli implements the command-line interface for xoso-draws.
//
// The cli package provides the Cobra-based commands: fetch retrieves draws for
// a date range and refreshes the view files, views regenerates the view files
// from stored records, stats reports number frequencies, and serve exposes the
// stored data over HTTP. Settings come from the config package; flags that
// are set explicitly override them. Results are printed as text or JSON.
package cli
