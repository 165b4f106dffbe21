// Package store provides the date-indexed record stores for each region.
//
// A store holds every known draw for one region in memory, keyed by date, and
// persists the full set as one JSON array (<prefix>.json) sorted by date and
// province. Loading is forgiving: a missing or corrupt file yields an empty
// store and a warning, so the next fetch rebuilds it. Persisting replaces the
// file atomically, leaving the previous file in place on any error.
//
// The default data directory is ~/.local/share/xoso-draws/.
package store
