package draw

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	SingleFieldCount   = 27
	ProvinceFieldCount = 18
)

// Row is the flattened form of a record used by views and exports.
// Province is empty for single-draw regions.
type Row struct {
	Date     Date
	Province string
	Prizes   []int64
}

// SingleRecord is one single-draw result (MB). Prizes follow SingleSchema.Fields().
type SingleRecord struct {
	Date   Date
	Prizes [SingleFieldCount]int64 `validate:"dive,gte=0"`
}

// NewSingleRecord builds a record from values in SingleSchema field order.
// Missing trailing values are 0 and extra values are ignored.
func NewSingleRecord(date Date, prizes []int64) SingleRecord {
	r := SingleRecord{Date: date}
	copy(r.Prizes[:], prizes)
	return r
}

// Row returns the record as a view row.
func (r SingleRecord) Row() Row {
	return Row{Date: r.Date, Prizes: append([]int64(nil), r.Prizes[:]...)}
}

// Prize returns the value of a named field, e.g. "prize3_2".
func (r SingleRecord) Prize(field string) (int64, bool) {
	return lookup(SingleSchema.Fields(), r.Prizes[:], field)
}

// MarshalJSON writes a flat object: date first, then prize fields in schema order.
func (r SingleRecord) MarshalJSON() ([]byte, error) {
	return marshalRecord(r.Date, nil, SingleSchema.Fields(), r.Prizes[:])
}

// UnmarshalJSON requires the date and every prize field to be present.
func (r *SingleRecord) UnmarshalJSON(data []byte) error {
	date, _, prizes, err := unmarshalRecord(data, false, SingleSchema.Fields())
	if err != nil {
		return err
	}
	*r = NewSingleRecord(date, prizes)
	return nil
}

// ProvinceRecord is one province's result in a multi-province region (MN, MT).
// Prizes follow ProvinceSchema.Fields().
type ProvinceRecord struct {
	Date     Date
	Province string                    `validate:"required"`
	Prizes   [ProvinceFieldCount]int64 `validate:"dive,gte=0"`
}

// NewProvinceRecord builds a record from values in ProvinceSchema field order.
func NewProvinceRecord(date Date, province string, prizes []int64) ProvinceRecord {
	r := ProvinceRecord{Date: date, Province: province}
	copy(r.Prizes[:], prizes)
	return r
}

// Row returns the record as a view row.
func (r ProvinceRecord) Row() Row {
	return Row{Date: r.Date, Province: r.Province, Prizes: append([]int64(nil), r.Prizes[:]...)}
}

// Prize returns the value of a named field, e.g. "prize4_7".
func (r ProvinceRecord) Prize(field string) (int64, bool) {
	return lookup(ProvinceSchema.Fields(), r.Prizes[:], field)
}

// MarshalJSON writes a flat object: date, province, then prize fields in schema order.
func (r ProvinceRecord) MarshalJSON() ([]byte, error) {
	return marshalRecord(r.Date, &r.Province, ProvinceSchema.Fields(), r.Prizes[:])
}

// UnmarshalJSON requires date, province and every prize field to be present.
func (r *ProvinceRecord) UnmarshalJSON(data []byte) error {
	date, province, prizes, err := unmarshalRecord(data, true, ProvinceSchema.Fields())
	if err != nil {
		return err
	}
	*r = NewProvinceRecord(date, province, prizes)
	return nil
}

func lookup(fields []string, values []int64, field string) (int64, bool) {
	for i, f := range fields {
		if f == field {
			return values[i], true
		}
	}
	return 0, false
}

func marshalRecord(date Date, province *string, fields []string, prizes []int64) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"date":`)
	d, err := json.Marshal(date)
	if err != nil {
		return nil, err
	}
	buf.Write(d)
	if province != nil {
		p, err := json.Marshal(*province)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`,"province":`)
		buf.Write(p)
	}
	for i, f := range fields {
		fmt.Fprintf(&buf, `,%q:%d`, f, prizes[i])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func unmarshalRecord(data []byte, withProvince bool, fields []string) (Date, string, []int64, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Date{}, "", nil, fmt.Errorf("decoding record: %w", err)
	}

	var date Date
	d, ok := raw["date"]
	if !ok {
		return Date{}, "", nil, fmt.Errorf("record missing field %q", "date")
	}
	if err := json.Unmarshal(d, &date); err != nil {
		return Date{}, "", nil, fmt.Errorf("field date: %w", err)
	}

	var province string
	if withProvince {
		p, ok := raw["province"]
		if !ok {
			return Date{}, "", nil, fmt.Errorf("record %s missing field %q", date, "province")
		}
		if err := json.Unmarshal(p, &province); err != nil {
			return Date{}, "", nil, fmt.Errorf("record %s field province: %w", date, err)
		}
	}

	prizes := make([]int64, len(fields))
	for i, f := range fields {
		v, ok := raw[f]
		if !ok {
			return Date{}, "", nil, fmt.Errorf("record %s missing field %q", date, f)
		}
		if err := json.Unmarshal(v, &prizes[i]); err != nil {
			return Date{}, "", nil, fmt.Errorf("record %s field %s: %w", date, f, err)
		}
	}
	return date, province, prizes, nil
}
