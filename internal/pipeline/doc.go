// Package pipeline runs the fetch, parse, build, merge, export and persist
// steps for each region.
//
// A run walks a date range one date at a time. Dates already in the store are
// skipped without a request; any other date is fetched, parsed and built into
// records. A date that fails at any step is logged and counted and the batch
// moves on, so one bad page never costs the rest of the range. After the
// batch the records file is persisted and the views are regenerated from the
// complete store.
//
// Regions are independent: RunAll isolates failures so that one region's
// persist or export error is reported in its Summary without stopping the
// others.
package pipeline
