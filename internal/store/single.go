package store

import (
	"github.com/pfrederiksen/xoso-draws/internal/draw"
	"github.com/pfrederiksen/xoso-draws/internal/logger"
)

// SingleStore holds one SingleRecord per date.
type SingleStore struct {
	file
	records map[draw.Date]draw.SingleRecord
}

// NewSingle creates an empty store backed by <dir>/<prefix>.json. Call Load to read it.
func NewSingle(dir, prefix string, log *logger.Logger) *SingleStore {
	return &SingleStore{
		file:    newFile(dir, prefix, log),
		records: make(map[draw.Date]draw.SingleRecord),
	}
}

// Load reads the records file.
func (s *SingleStore) Load() {
	s.records = make(map[draw.Date]draw.SingleRecord)

	var recs []draw.SingleRecord
	if !s.read(&recs) {
		return
	}

	loaded := make(map[draw.Date]draw.SingleRecord, len(recs))
	for _, rec := range recs {
		if err := checkRecord(rec.Date, rec); err != nil {
			s.invalid(err)
			return
		}
		if _, dup := loaded[rec.Date]; dup {
			s.invalid(duplicateDate(rec.Date))
			return
		}
		loaded[rec.Date] = rec
	}
	s.records = loaded
	s.log.Debug("Loaded records", logger.Fields{"path": s.path, "count": len(loaded)})
}

// Contains reports whether a record is stored for d.
func (s *SingleStore) Contains(d draw.Date) bool {
	_, ok := s.records[d]
	return ok
}

// Insert adds rec unless its date is already present. It reports whether rec was added.
func (s *SingleStore) Insert(rec draw.SingleRecord) bool {
	if s.Contains(rec.Date) {
		return false
	}
	s.records[rec.Date] = rec
	return true
}

// Get returns the record for a date.
func (s *SingleStore) Get(d draw.Date) (draw.SingleRecord, bool) {
	rec, ok := s.records[d]
	return rec, ok
}

// Records returns all records sorted by date.
func (s *SingleStore) Records() []draw.SingleRecord {
	out := make([]draw.SingleRecord, 0, len(s.records))
	for _, d := range s.Dates() {
		out = append(out, s.records[d])
	}
	return out
}

// Persist writes every record to the records file atomically.
func (s *SingleStore) Persist() error {
	return s.write(s.Records())
}

// Len returns the number of stored dates.
func (s *SingleStore) Len() int {
	return len(s.records)
}

// Dates returns the stored dates in ascending order.
func (s *SingleStore) Dates() []draw.Date {
	dates := make([]draw.Date, 0, len(s.records))
	for d := range s.records {
		dates = append(dates, d)
	}
	return sortDates(dates)
}

// LastDate returns the newest stored date.
func (s *SingleStore) LastDate() (draw.Date, bool) {
	return lastOf(s.Dates())
}

// Rows returns one view row per record, sorted by date.
func (s *SingleStore) Rows() []draw.Row {
	recs := s.Records()
	rows := make([]draw.Row, len(recs))
	for i, rec := range recs {
		rows[i] = rec.Row()
	}
	return rows
}
