// Package view derives the analytical tables of a region from its records.
//
// Every generation recomputes all three tables from scratch:
//
//   - Raw: one row per record with every prize field.
//   - TwoDigit: the same shape with each value reduced to its last two digits.
//   - Sparse: a 100-bin histogram per record; column "07" counts the prize
//     fields whose last two digits are 07, so each row sums to the schema's
//     field count.
package view

import (
	"fmt"

	"github.com/pfrederiksen/xoso-draws/internal/draw"
)

// Name identifies a view.
type Name string

const (
	Raw      Name = "raw"
	TwoDigit Name = "two-digits"
	Sparse   Name = "sparse"
)

// Names lists the views in generation order.
func Names() []Name {
	return []Name{Raw, TwoDigit, Sparse}
}

// ParseName accepts a view name as used in file suffixes and URLs.
func ParseName(s string) (Name, error) {
	for _, n := range Names() {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown view %q (want raw, two-digits or sparse)", s)
}

// Suffix is appended to the region prefix to name the view's files.
func (n Name) Suffix() string {
	switch n {
	case TwoDigit:
		return "-2-digits"
	case Sparse:
		return "-sparse"
	}
	return ""
}

// Row is one table row. Province is empty in single-draw regions.
type Row struct {
	Date     draw.Date
	Province string
	Values   []int64
}

// Table is one generated view.
type Table struct {
	Name Name
	// Provinces reports whether the table has a province column.
	Provinces bool
	// Fields names the value columns in order.
	Fields []string
	Rows   []Row
}

// Columns returns the full header: date, province when present, then Fields.
func (t Table) Columns() []string {
	cols := []string{"date"}
	if t.Provinces {
		cols = append(cols, "province")
	}
	return append(cols, t.Fields...)
}

// Set holds the three views of one region.
type Set struct {
	Raw      Table
	TwoDigit Table
	Sparse   Table
}

// Tables returns the views in generation order.
func (s Set) Tables() []Table {
	return []Table{s.Raw, s.TwoDigit, s.Sparse}
}

// Get returns the table with the given name.
func (s Set) Get(n Name) (Table, bool) {
	for _, t := range s.Tables() {
		if t.Name == n {
			return t, true
		}
	}
	return Table{}, false
}

// Bins names the sparse columns "00" through "99".
var Bins = func() []string {
	bins := make([]string, 100)
	for i := range bins {
		bins[i] = fmt.Sprintf("%02d", i)
	}
	return bins
}()

// Generate builds all views from rows, which are expected in store order.
func Generate(schema draw.Schema, rows []draw.Row) Set {
	provinces := schema.Kind == draw.MultiProvince
	fields := schema.Fields()

	set := Set{
		Raw:      Table{Name: Raw, Provinces: provinces, Fields: fields, Rows: make([]Row, 0, len(rows))},
		TwoDigit: Table{Name: TwoDigit, Provinces: provinces, Fields: fields, Rows: make([]Row, 0, len(rows))},
		Sparse:   Table{Name: Sparse, Provinces: provinces, Fields: Bins, Rows: make([]Row, 0, len(rows))},
	}

	for _, r := range rows {
		raw := make([]int64, len(fields))
		copy(raw, r.Prizes)

		two := make([]int64, len(fields))
		hist := make([]int64, len(Bins))
		for i, v := range raw {
			two[i] = TwoDigits(v)
			hist[two[i]]++
		}

		set.Raw.Rows = append(set.Raw.Rows, Row{Date: r.Date, Province: r.Province, Values: raw})
		set.TwoDigit.Rows = append(set.TwoDigit.Rows, Row{Date: r.Date, Province: r.Province, Values: two})
		set.Sparse.Rows = append(set.Sparse.Rows, Row{Date: r.Date, Province: r.Province, Values: hist})
	}
	return set
}

// TwoDigits returns the last two decimal digits of a non-negative prize.
func TwoDigits(v int64) int64 {
	v %= 100
	if v < 0 {
		v = -v
	}
	return v
}
