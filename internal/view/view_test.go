package view

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pfrederiksen/xoso-draws/internal/draw"
)

func TestGenerate_Single(t *testing.T) {
	prizes := make([]int64, draw.SingleFieldCount)
	prizes[0] = 12345 // special
	prizes[1] = 98745 // prize1, same last two digits
	prizes[2] = 7
	rows := []draw.Row{{Date: draw.NewDate(2024, 3, 15), Prizes: prizes}}

	set := Generate(draw.SingleSchema, rows)

	if diff := cmp.Diff(append([]string{"date"}, draw.SingleSchema.Fields()...), set.Raw.Columns()); diff != "" {
		t.Errorf("Raw columns mismatch (-want +got):\n%s", diff)
	}
	if got := set.Raw.Rows[0].Values[0]; got != 12345 {
		t.Errorf("Raw special = %d, want 12345", got)
	}
	if got := set.TwoDigit.Rows[0].Values[:3]; !cmp.Equal(got, []int64{45, 45, 7}) {
		t.Errorf("TwoDigit first values = %v, want [45 45 7]", got)
	}

	hist := set.Sparse.Rows[0].Values
	if hist[45] != 2 {
		t.Errorf("sparse[45] = %d, want 2", hist[45])
	}
	if hist[7] != 1 {
		t.Errorf("sparse[7] = %d, want 1", hist[7])
	}
	if hist[0] != draw.SingleFieldCount-3 {
		t.Errorf("sparse[0] = %d, want %d zero-valued fields", hist[0], draw.SingleFieldCount-3)
	}
	if cols := set.Sparse.Columns(); len(cols) != 101 || cols[1] != "00" || cols[100] != "99" {
		t.Errorf("Sparse columns = %v", cols)
	}
}

func TestGenerate_Conservation(t *testing.T) {
	tests := []struct {
		name   string
		schema draw.Schema
		want   int64
	}{
		{"single draw", draw.SingleSchema, draw.SingleFieldCount},
		{"multi province", draw.ProvinceSchema, draw.ProvinceFieldCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := tt.schema.NumFields()
			var rows []draw.Row
			for day := 1; day <= 5; day++ {
				prizes := make([]int64, n)
				for i := range prizes {
					prizes[i] = int64(day*7919 + i*104729)
				}
				rows = append(rows, draw.Row{Date: draw.NewDate(2024, 1, day), Province: "P", Prizes: prizes})
			}

			set := Generate(tt.schema, rows)
			for i, r := range set.Sparse.Rows {
				var sum int64
				for _, c := range r.Values {
					sum += c
				}
				if sum != tt.want {
					t.Errorf("row %d sums to %d, want %d", i, sum, tt.want)
				}
			}
			for _, r := range set.TwoDigit.Rows {
				for _, v := range r.Values {
					if v < 0 || v > 99 {
						t.Fatalf("two-digit value %d out of range", v)
					}
				}
			}
		})
	}
}

func TestGenerate_ProvinceColumns(t *testing.T) {
	rows := []draw.Row{
		{Date: draw.NewDate(2024, 3, 15), Province: "Huế", Prizes: make([]int64, draw.ProvinceFieldCount)},
		{Date: draw.NewDate(2024, 3, 15), Province: "Phú Yên", Prizes: make([]int64, draw.ProvinceFieldCount)},
	}
	set := Generate(draw.ProvinceSchema, rows)

	for _, tbl := range set.Tables() {
		cols := tbl.Columns()
		if cols[0] != "date" || cols[1] != "province" {
			t.Errorf("%s columns start with %v", tbl.Name, cols[:2])
		}
		if len(tbl.Rows) != 2 || tbl.Rows[1].Province != "Phú Yên" {
			t.Errorf("%s rows = %+v", tbl.Name, tbl.Rows)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	rows := []draw.Row{{Date: draw.NewDate(2024, 3, 15), Prizes: []int64{1, 2, 3}}}
	a := Generate(draw.SingleSchema, rows)
	b := Generate(draw.SingleSchema, rows)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("Generate() not deterministic:\n%s", diff)
	}

	empty := Generate(draw.SingleSchema, nil)
	if len(empty.Raw.Rows) != 0 || len(empty.Sparse.Rows) != 0 {
		t.Error("Generate(nil) produced rows")
	}
}

func TestTwoDigits(t *testing.T) {
	for in, want := range map[int64]int64{0: 0, 7: 7, 100: 0, 12345: 45, 999999: 99} {
		if got := TwoDigits(in); got != want {
			t.Errorf("TwoDigits(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestParseName(t *testing.T) {
	for _, n := range Names() {
		got, err := ParseName(string(n))
		if err != nil || got != n {
			t.Errorf("ParseName(%q) = %q, %v", n, got, err)
		}
	}
	if _, err := ParseName("dense"); err == nil {
		t.Error("ParseName(dense) expected error")
	}
	if Raw.Suffix() != "" || TwoDigit.Suffix() != "-2-digits" || Sparse.Suffix() != "-sparse" {
		t.Error("unexpected suffixes")
	}
}
