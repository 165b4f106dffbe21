package export

import (
	"fmt"
	"io"
	"reflect"

	"github.com/parquet-go/parquet-go"

	"github.com/pfrederiksen/xoso-draws/internal/draw"
	"github.com/pfrederiksen/xoso-draws/internal/view"
)

var epoch = draw.NewDate(1970, 1, 1)

// WriteParquet writes the table as one snappy-compressed row group stream.
// The date column uses the DATE logical type; values are INT64.
func WriteParquet(w io.Writer, t view.Table) error {
	model := rowType(t)
	schema := parquet.SchemaOf(reflect.New(model).Elem().Interface())
	pw := parquet.NewWriter(w, schema, parquet.Compression(&parquet.Snappy))

	first := 1
	if t.Provinces {
		first = 2
	}
	for _, r := range t.Rows {
		row := reflect.New(model).Elem()
		row.Field(0).SetInt(int64(epoch.DaysUntil(r.Date)))
		if t.Provinces {
			row.Field(1).SetString(r.Province)
		}
		for i, v := range r.Values {
			row.Field(first + i).SetInt(v)
		}
		if err := pw.Write(row.Interface()); err != nil {
			pw.Close()
			return fmt.Errorf("writing row %s: %w", r.Date, err)
		}
	}
	return pw.Close()
}

// rowType builds a struct type whose parquet tags follow the table columns,
// keeping them in table order.
func rowType(t view.Table) reflect.Type {
	fields := []reflect.StructField{{
		Name: "Date",
		Type: reflect.TypeOf(int32(0)),
		Tag:  `parquet:"date,date"`,
	}}
	if t.Provinces {
		fields = append(fields, reflect.StructField{
			Name: "Province",
			Type: reflect.TypeOf(""),
			Tag:  `parquet:"province"`,
		})
	}
	for i, name := range t.Fields {
		fields = append(fields, reflect.StructField{
			Name: fmt.Sprintf("V%d", i),
			Type: reflect.TypeOf(int64(0)),
			Tag:  reflect.StructTag(fmt.Sprintf(`parquet:%q`, name)),
		})
	}
	return reflect.StructOf(fields)
}
