// Package stats summarizes two-digit draw tables: which numbers come up most
// often, and which have gone longest without appearing.
package stats

import (
	"sort"

	"github.com/pfrederiksen/xoso-draws/internal/draw"
	"github.com/pfrederiksen/xoso-draws/internal/view"
)

// DefaultTop is the number of entries reported when no limit is given.
const DefaultTop = 10

// Count is how often a two-digit number appeared.
type Count struct {
	Number string `json:"number"`
	Count  int64  `json:"count"`
}

// Absence is how long a two-digit number has been missing. Never is set for
// numbers that do not appear at all; they rank ahead of every seen number.
type Absence struct {
	Number   string     `json:"number"`
	LastSeen *draw.Date `json:"last_seen,omitempty"`
	Days     int        `json:"days"`
	Never    bool       `json:"never,omitempty"`
}

// Report is the analysis of one table.
type Report struct {
	AsOf         draw.Date `json:"as_of"`
	Rows         int       `json:"rows"`
	MostFrequent []Count   `json:"most_frequent"`
	LeastRecent  []Absence `json:"least_recent"`
}

// Analyze computes both rankings, limited to top entries each.
func Analyze(t view.Table, asOf draw.Date, top int) Report {
	return Report{
		AsOf:         asOf,
		Rows:         len(t.Rows),
		MostFrequent: MostFrequent(t, top),
		LeastRecent:  LeastRecent(t, asOf, top),
	}
}

// MostFrequent counts every value of a two-digit table and returns the top
// numbers by count. Ties go to the lower number; numbers never seen are omitted.
func MostFrequent(t view.Table, top int) []Count {
	var counts [100]int64
	for _, r := range t.Rows {
		for _, v := range r.Values {
			counts[view.TwoDigits(v)]++
		}
	}

	var out []Count
	for n, c := range counts {
		if c > 0 {
			out = append(out, Count{Number: view.Bins[n], Count: c})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return limit(out, top)
}

// LeastRecent returns the numbers that have gone longest without appearing,
// measured in days from their last row date to asOf.
func LeastRecent(t view.Table, asOf draw.Date, top int) []Absence {
	var last [100]draw.Date
	for _, r := range t.Rows {
		for _, v := range r.Values {
			n := view.TwoDigits(v)
			if r.Date.After(last[n]) {
				last[n] = r.Date
			}
		}
	}

	out := make([]Absence, 0, len(last))
	for n, d := range last {
		a := Absence{Number: view.Bins[n]}
		if d.IsZero() {
			a.Never = true
		} else {
			seen := d
			a.LastSeen = &seen
			a.Days = seen.DaysUntil(asOf)
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Never != out[j].Never {
			return out[i].Never
		}
		return out[i].Days > out[j].Days
	})
	return limit(out, top)
}

func limit[T any](s []T, top int) []T {
	if top <= 0 {
		top = DefaultTop
	}
	if len(s) > top {
		return s[:top]
	}
	return s
}
