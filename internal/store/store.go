package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/renameio/v2"

	"github.com/pfrederiksen/xoso-draws/internal/draw"
	"github.com/pfrederiksen/xoso-draws/internal/logger"
)

// Store is the behavior shared by the single-draw and multi-province stores.
type Store interface {
	// Load replaces the contents with the records file. Failures leave the store empty.
	Load()
	// Damaged reports whether the last Load found a records file it could not use.
	Damaged() bool
	Contains(d draw.Date) bool
	Persist() error
	Len() int
	Dates() []draw.Date
	LastDate() (draw.Date, bool)
	Rows() []draw.Row
	Path() string
}

var validate = validator.New()

// Dir expands a leading "~/" and creates the directory if needed.
func Dir(dataDir string) (string, error) {
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}
	return dataDir, nil
}

// file is the JSON file behind a store. A damaged file is moved aside to
// <path>.corrupt by the next write instead of being overwritten.
type file struct {
	path    string
	log     *logger.Logger
	damaged bool
}

func newFile(dir, prefix string, log *logger.Logger) file {
	if log == nil {
		log = logger.Discard()
	}
	return file{path: filepath.Join(dir, prefix+".json"), log: log}
}

// Path returns the records file location.
func (f *file) Path() string {
	return f.path
}

// Damaged reports whether the last Load found a records file it could not use.
func (f *file) Damaged() bool {
	return f.damaged
}

// read decodes the records file into v. ok is false when the file is absent
// or unusable; the reason is logged.
func (f *file) read(v interface{}) bool {
	f.damaged = false
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			f.log.Info("No records file, starting empty", logger.Fields{"path": f.path})
		} else {
			f.damaged = true
			f.log.Warn("Cannot read records file, starting empty", logger.Fields{"path": f.path, "error": err.Error()})
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		f.damaged = true
		f.log.Warn("Corrupt records file, starting empty", logger.Fields{"path": f.path, "error": err.Error()})
		return false
	}
	return true
}

func (f *file) invalid(err error) {
	f.damaged = true
	f.log.Warn("Invalid records file, starting empty", logger.Fields{"path": f.path, "error": err.Error()})
}

func (f *file) write(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	data = append(data, '\n')

	if f.damaged {
		if err := f.moveAside(); err != nil {
			return err
		}
	}

	if err := renameio.WriteFile(f.path, data, 0644); err != nil {
		return fmt.Errorf("writing records: %w", err)
	}
	return nil
}

// moveAside renames a damaged regular file to <path>.corrupt.
func (f *file) moveAside() error {
	info, err := os.Stat(f.path)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	aside := f.path + ".corrupt"
	if err := os.Rename(f.path, aside); err != nil {
		return fmt.Errorf("moving damaged records file aside: %w", err)
	}
	f.log.Warn("Moved damaged records file aside", logger.Fields{"path": f.path, "moved_to": aside})
	f.damaged = false
	return nil
}

func checkRecord(date draw.Date, rec interface{}) error {
	if date.IsZero() {
		return errors.New("record has no date")
	}
	if err := validate.Struct(rec); err != nil {
		return fmt.Errorf("record %s: %w", date, err)
	}
	return nil
}

func sortDates(dates []draw.Date) []draw.Date {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func lastOf(dates []draw.Date) (draw.Date, bool) {
	if len(dates) == 0 {
		return draw.Date{}, false
	}
	last := dates[0]
	for _, d := range dates[1:] {
		if d.After(last) {
			last = d
		}
	}
	return last, true
}

func duplicateDate(d draw.Date) error {
	return fmt.Errorf("duplicate record for %s", d)
}
