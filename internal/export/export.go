// Package export writes generated views to CSV and Parquet files.
//
// Each view of a region produces one file per format, named after the
// region prefix and the view suffix: xsmn.csv, xsmn-2-digits.parquet,
// xsmn-sparse.csv and so on. Files are replaced atomically.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/pfrederiksen/xoso-draws/internal/view"
)

// Format is an output file format.
type Format string

const (
	CSV     Format = "csv"
	Parquet Format = "parquet"
)

// ParseFormats parses format names; an empty list selects every format.
func ParseFormats(names []string) ([]Format, error) {
	if len(names) == 0 {
		return []Format{CSV, Parquet}, nil
	}
	var formats []Format
	seen := make(map[Format]bool)
	for _, n := range names {
		f := Format(strings.ToLower(strings.TrimSpace(n)))
		if f != CSV && f != Parquet {
			return nil, fmt.Errorf("unknown export format %q (want csv or parquet)", n)
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// Exporter writes view sets into a directory.
type Exporter struct {
	dir     string
	formats []Format
}

// New creates an exporter. With no formats it writes both CSV and Parquet.
func New(dir string, formats ...Format) *Exporter {
	if len(formats) == 0 {
		formats = []Format{CSV, Parquet}
	}
	return &Exporter{dir: dir, formats: formats}
}

// Export writes every table of set in every format and returns the written paths.
// It stops at the first failure; files already written stay in place.
func (e *Exporter) Export(prefix string, set view.Set) ([]string, error) {
	var paths []string
	for _, t := range set.Tables() {
		for _, f := range e.formats {
			path := filepath.Join(e.dir, prefix+t.Name.Suffix()+"."+string(f))
			if err := writeAtomic(path, func(w io.Writer) error { return Write(w, f, t) }); err != nil {
				return paths, fmt.Errorf("exporting %s: %w", filepath.Base(path), err)
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// Write encodes one table in the given format.
func Write(w io.Writer, f Format, t view.Table) error {
	switch f {
	case CSV:
		return WriteCSV(w, t)
	case Parquet:
		return WriteParquet(w, t)
	}
	return fmt.Errorf("unknown export format %q", f)
}

func writeAtomic(path string, encode func(io.Writer) error) error {
	pf, err := renameio.NewPendingFile(path, renameio.WithPermissions(0644))
	if err != nil {
		return err
	}
	defer pf.Cleanup()

	if err := encode(pf); err != nil {
		return err
	}
	return pf.CloseAtomicallyReplace()
}
