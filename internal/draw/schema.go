package draw

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Kind distinguishes single-draw regions from multi-province regions.
type Kind int

const (
	SingleDraw Kind = iota
	MultiProvince
)

func (k Kind) String() string {
	switch k {
	case SingleDraw:
		return "single-draw"
	case MultiProvince:
		return "multi-province"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Tier describes one prize class as printed in a result table.
type Tier struct {
	Label   string   // canonical row label, e.g. "ĐB" or "3"
	Aliases []string // other labels seen for the same row
	Fields  []string // record fields filled by this tier, in order
	Width   int      // chunk width for tiers printed as one digit string; 0 means space-separated
}

// Schema is the ordered list of prize tiers of a region.
type Schema struct {
	Kind  Kind
	Tiers []Tier
}

// SingleSchema is the MB prize layout: 27 fields, tiers 2-7 printed as undivided digit strings.
var SingleSchema = Schema{
	Kind: SingleDraw,
	Tiers: []Tier{
		{Label: "ĐB", Aliases: []string{"DB", "ĐẶCBIỆT", "DACBIET"}, Fields: []string{"special"}},
		{Label: "1", Aliases: []string{"NHẤT"}, Fields: []string{"prize1"}},
		{Label: "2", Aliases: []string{"NHÌ"}, Fields: numbered("prize2", 2), Width: 5},
		{Label: "3", Aliases: []string{"BA"}, Fields: numbered("prize3", 6), Width: 5},
		{Label: "4", Aliases: []string{"TƯ"}, Fields: numbered("prize4", 4), Width: 4},
		{Label: "5", Aliases: []string{"NĂM"}, Fields: numbered("prize5", 6), Width: 4},
		{Label: "6", Aliases: []string{"SÁU"}, Fields: numbered("prize6", 3), Width: 3},
		{Label: "7", Aliases: []string{"BẢY"}, Fields: numbered("prize7", 4), Width: 2},
	},
}

// ProvinceSchema is the MN/MT prize layout: 18 fields per province, space-separated numbers.
var ProvinceSchema = Schema{
	Kind: MultiProvince,
	Tiers: []Tier{
		{Label: "ĐB", Aliases: []string{"DB", "ĐẶCBIỆT", "DACBIET"}, Fields: []string{"special"}},
		{Label: "1", Fields: []string{"prize1"}},
		{Label: "2", Fields: []string{"prize2"}},
		{Label: "3", Fields: numbered("prize3", 2)},
		{Label: "4", Fields: numbered("prize4", 7)},
		{Label: "5", Fields: []string{"prize5"}},
		{Label: "6", Fields: numbered("prize6", 3)},
		{Label: "7", Fields: []string{"prize7"}},
		{Label: "8", Fields: []string{"prize8"}},
	},
}

func numbered(prefix string, n int) []string {
	fields := make([]string, n)
	for i := range fields {
		fields[i] = fmt.Sprintf("%s_%d", prefix, i+1)
	}
	return fields
}

// Fields returns every prize field name in record order.
func (s Schema) Fields() []string {
	fields := make([]string, 0, s.NumFields())
	for _, t := range s.Tiers {
		fields = append(fields, t.Fields...)
	}
	return fields
}

// NumFields returns the number of prize fields in a record.
func (s Schema) NumFields() int {
	n := 0
	for _, t := range s.Tiers {
		n += len(t.Fields)
	}
	return n
}

// Tier finds the tier printed under label, accepting aliases and "G"/"Giải" prefixes.
func (s Schema) Tier(label string) (Tier, bool) {
	key := NormalizeLabel(label)
	if key == "" {
		return Tier{}, false
	}
	for _, t := range s.Tiers {
		if NormalizeLabel(t.Label) == key {
			return t, true
		}
		for _, a := range t.Aliases {
			if NormalizeLabel(a) == key {
				return t, true
			}
		}
	}
	return Tier{}, false
}

// NormalizeLabel canonicalizes a prize-tier row label: "G.3", "Giải 3" and "3" all become "3".
func NormalizeLabel(label string) string {
	s := norm.NFC.String(strings.ToUpper(strings.Join(strings.Fields(label), "")))
	for _, prefix := range []string{"GIẢI", "GIAI", "G."} {
		s = strings.TrimPrefix(s, prefix)
	}
	if len(s) > 1 && s[0] == 'G' && isDigits(s[1:]) {
		s = s[1:]
	}
	return s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FieldError reports a prize value that could not be parsed. The field is left at 0.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: parsing %q: %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Build maps one province's printed tokens, keyed by canonical tier label, to prize
// values in Fields() order. Absent tiers and missing sub-fields are 0. Values that
// fail to parse are 0 and reported as *FieldError; building itself never fails.
func (s Schema) Build(tiers map[string][]string) ([]int64, []error) {
	values := make([]int64, 0, s.NumFields())
	var errs []error
	for _, t := range s.Tiers {
		printed := tiers[t.Label]
		if t.Width > 0 {
			printed = Chunk(strings.Join(printed, ""), t.Width)
		}
		for i, field := range t.Fields {
			if i >= len(printed) {
				values = append(values, 0)
				continue
			}
			v, err := parsePrize(printed[i])
			if err != nil {
				errs = append(errs, &FieldError{Field: field, Value: printed[i], Err: err})
			}
			values = append(values, v)
		}
	}
	return values, errs
}

// Chunk splits s left to right into pieces of width runes. A shorter trailing piece is kept.
func Chunk(s string, width int) []string {
	if width <= 0 || s == "" {
		return nil
	}
	runes := []rune(s)
	chunks := make([]string, 0, (len(runes)+width-1)/width)
	for i := 0; i < len(runes); i += width {
		end := i + width
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

func parsePrize(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative prize value %d", v)
	}
	return v, nil
}
