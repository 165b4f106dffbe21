package scraper

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"github.com/pfrederiksen/xoso-draws/internal/draw"
)

// ResultTableSelector locates the result table on a page.
const ResultTableSelector = "table.table-result"

var (
	ErrNoTable        = errors.New("result table not found")
	ErrNoProvinces    = errors.New("no provinces in result table header")
	ErrNoResults      = errors.New("result table has no prize rows")
	ErrIncompleteDraw = errors.New("draw results incomplete")
)

// Draw holds the printed tokens of one province, keyed by canonical tier label.
// Province is empty for single-draw regions.
type Draw struct {
	Province string
	Tiers    map[string][]string
}

// ParseBytes is Parse over an in-memory page.
func ParseBytes(page []byte, schema draw.Schema) ([]Draw, error) {
	return Parse(bytes.NewReader(page), schema)
}

// Parse extracts per-province prize tokens from a result page. A placeholder
// token or a known tier without numbers anywhere in the table means the draw is
// still in progress, and the whole page is rejected with ErrIncompleteDraw.
func Parse(r io.Reader, schema draw.Schema) ([]Draw, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	table := doc.Find(ResultTableSelector).First()
	if table.Length() == 0 {
		return nil, ErrNoTable
	}
	rows := table.Find("tr")

	var draws []Draw
	body := rows
	if schema.Kind == draw.MultiProvince {
		provinces, err := headerProvinces(rows.First())
		if err != nil {
			return nil, err
		}
		for _, p := range provinces {
			draws = append(draws, Draw{Province: p, Tiers: make(map[string][]string)})
		}
		body = rows.Slice(1, goquery.ToEnd)
	} else {
		draws = []Draw{{Tiers: make(map[string][]string)}}
	}

	var parseErr error
	found := false
	body.EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.ChildrenFiltered("th, td")
		if cells.Length() < 2 {
			return true
		}

		label := strings.TrimSpace(cells.First().Text())
		tier, known := schema.Tier(label)

		for i := range draws {
			// Single-draw pages print every number of a tier in the second cell.
			cell := cells.Eq(i + 1)
			tokens := strings.Fields(cell.Text())

			for _, tok := range tokens {
				if isPlaceholder(tok) {
					parseErr = fmt.Errorf("%w: %s tier %q has placeholder %q", ErrIncompleteDraw, provinceName(draws[i]), label, tok)
					return false
				}
			}
			if !known {
				continue
			}
			if len(tokens) == 0 {
				parseErr = fmt.Errorf("%w: %s tier %q is empty", ErrIncompleteDraw, provinceName(draws[i]), label)
				return false
			}
			draws[i].Tiers[tier.Label] = append(draws[i].Tiers[tier.Label], tokens...)
			found = true
		}
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	if !found {
		return nil, ErrNoResults
	}
	return draws, nil
}

func headerProvinces(header *goquery.Selection) ([]string, error) {
	if header.Length() == 0 {
		return nil, ErrNoProvinces
	}

	var provinces []string
	seen := make(map[string]bool)
	var err error
	header.Find("th").Slice(1, goquery.ToEnd).EachWithBreak(func(i int, th *goquery.Selection) bool {
		name := NormalizeProvince(th.Text())
		switch {
		case name == "":
			err = fmt.Errorf("%w: empty label in column %d", ErrNoProvinces, i+1)
		case seen[name]:
			err = fmt.Errorf("%w: duplicate province %q", ErrNoProvinces, name)
		default:
			seen[name] = true
			provinces = append(provinces, name)
			return true
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	if len(provinces) == 0 {
		return nil, ErrNoProvinces
	}
	return provinces, nil
}

// NormalizeProvince trims and collapses whitespace and applies Unicode NFC,
// so labels from different pages compare equal.
func NormalizeProvince(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

func isPlaceholder(tok string) bool {
	return strings.Trim(tok, ".…") == ""
}

func provinceName(d Draw) string {
	if d.Province == "" {
		return "draw"
	}
	return d.Province
}
