package store

import (
	"fmt"
	"sort"

	"github.com/pfrederiksen/xoso-draws/internal/draw"
	"github.com/pfrederiksen/xoso-draws/internal/logger"
)

// ProvinceStore holds the province records of each date. A date is present
// only while it has at least one record.
type ProvinceStore struct {
	file
	records map[draw.Date][]draw.ProvinceRecord
}

// NewProvince creates an empty store backed by <dir>/<prefix>.json. Call Load to read it.
func NewProvince(dir, prefix string, log *logger.Logger) *ProvinceStore {
	return &ProvinceStore{
		file:    newFile(dir, prefix, log),
		records: make(map[draw.Date][]draw.ProvinceRecord),
	}
}

// Load reads the records file. Each date's records are kept sorted by province.
func (s *ProvinceStore) Load() {
	s.records = make(map[draw.Date][]draw.ProvinceRecord)

	var recs []draw.ProvinceRecord
	if !s.read(&recs) {
		return
	}

	loaded := make(map[draw.Date][]draw.ProvinceRecord)
	for _, rec := range recs {
		if err := checkRecord(rec.Date, rec); err != nil {
			s.invalid(err)
			return
		}
		if hasProvince(loaded[rec.Date], rec.Province) {
			s.invalid(fmt.Errorf("record %s: duplicate province %q", rec.Date, rec.Province))
			return
		}
		loaded[rec.Date] = insertSorted(loaded[rec.Date], rec)
	}
	s.records = loaded
	s.log.Debug("Loaded records", logger.Fields{"path": s.path, "dates": len(loaded), "count": len(recs)})
}

// Contains reports whether any province is stored for d.
func (s *ProvinceStore) Contains(d draw.Date) bool {
	return len(s.records[d]) > 0
}

// Insert adds the provinces of one date. Records take the given date and
// provinces already stored for that date are skipped.
// It returns the number of records added; an empty slice adds nothing.
func (s *ProvinceStore) Insert(d draw.Date, recs []draw.ProvinceRecord) int {
	added := 0
	for _, rec := range recs {
		if hasProvince(s.records[d], rec.Province) {
			continue
		}
		rec.Date = d
		s.records[d] = insertSorted(s.records[d], rec)
		added++
	}
	return added
}

// Get returns the records for a date sorted by province, the order Persist writes.
func (s *ProvinceStore) Get(d draw.Date) []draw.ProvinceRecord {
	return append([]draw.ProvinceRecord(nil), s.records[d]...)
}

// Records returns all records sorted by date, then province.
func (s *ProvinceStore) Records() []draw.ProvinceRecord {
	var out []draw.ProvinceRecord
	for _, d := range s.Dates() {
		out = append(out, s.records[d]...)
	}
	if out == nil {
		out = []draw.ProvinceRecord{}
	}
	return out
}

// Persist writes every record to the records file atomically.
func (s *ProvinceStore) Persist() error {
	return s.write(s.Records())
}

// Len returns the number of province records, not dates.
func (s *ProvinceStore) Len() int {
	n := 0
	for _, recs := range s.records {
		n += len(recs)
	}
	return n
}

// Dates returns the stored dates in ascending order.
func (s *ProvinceStore) Dates() []draw.Date {
	dates := make([]draw.Date, 0, len(s.records))
	for d := range s.records {
		dates = append(dates, d)
	}
	return sortDates(dates)
}

// LastDate returns the newest stored date.
func (s *ProvinceStore) LastDate() (draw.Date, bool) {
	return lastOf(s.Dates())
}

// Rows returns one view row per record, in Records order.
func (s *ProvinceStore) Rows() []draw.Row {
	recs := s.Records()
	rows := make([]draw.Row, len(recs))
	for i, rec := range recs {
		rows[i] = rec.Row()
	}
	return rows
}

func insertSorted(recs []draw.ProvinceRecord, rec draw.ProvinceRecord) []draw.ProvinceRecord {
	i := sort.Search(len(recs), func(i int) bool { return recs[i].Province >= rec.Province })
	recs = append(recs, draw.ProvinceRecord{})
	copy(recs[i+1:], recs[i:])
	recs[i] = rec
	return recs
}

func hasProvince(recs []draw.ProvinceRecord, province string) bool {
	for _, r := range recs {
		if r.Province == province {
			return true
		}
	}
	return false
}
