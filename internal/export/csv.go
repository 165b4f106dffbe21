package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pfrederiksen/xoso-draws/internal/draw"
	"github.com/pfrederiksen/xoso-draws/internal/view"
)

// WriteCSV writes a header row followed by one line per table row.
func WriteCSV(w io.Writer, t view.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return err
	}

	record := make([]string, 0, len(t.Columns()))
	for _, r := range t.Rows {
		record = append(record[:0], r.Date.Format(draw.ISOLayout))
		if t.Provinces {
			record = append(record, r.Province)
		}
		for _, v := range r.Values {
			record = append(record, strconv.FormatInt(v, 10))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
