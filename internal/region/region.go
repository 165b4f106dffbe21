// Package region defines the three lottery regions as data: code, URL slug and
// file prefix, prize schema, and the local time results are published.
package region

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/xoso-draws/internal/draw"
)

// Timezone is where draws take place; publication times are expressed in it.
const Timezone = "Asia/Ho_Chi_Minh"

// Region is one lottery format.
type Region struct {
	Code   string      // "MB", "MN", "MT"
	Slug   string      // URL slug and data file prefix, e.g. "xsmb"
	Name   string      // human-readable name
	Schema draw.Schema // prize layout

	// Results are complete from this local time onward.
	ResultsHour   int
	ResultsMinute int
}

var (
	MB = Region{Code: "MB", Slug: "xsmb", Name: "Miền Bắc", Schema: draw.SingleSchema, ResultsHour: 18, ResultsMinute: 35}
	MN = Region{Code: "MN", Slug: "xsmn", Name: "Miền Nam", Schema: draw.ProvinceSchema, ResultsHour: 16, ResultsMinute: 35}
	MT = Region{Code: "MT", Slug: "xsmt", Name: "Miền Trung", Schema: draw.ProvinceSchema, ResultsHour: 17, ResultsMinute: 35}
)

// All returns every region in processing order.
func All() []Region {
	return []Region{MB, MN, MT}
}

// Lookup finds a region by code ("MB") or slug ("xsmb"), case-insensitively.
func Lookup(name string) (Region, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, r := range All() {
		if key == strings.ToLower(r.Code) || key == r.Slug {
			return r, nil
		}
	}
	return Region{}, fmt.Errorf("unknown region %q (want MB, MN or MT)", name)
}

// Parse resolves a list of region names. An empty list or "all" selects every region.
func Parse(names []string) ([]Region, error) {
	var regions []Region
	seen := make(map[string]bool)
	for _, n := range names {
		for _, part := range strings.Split(n, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if strings.EqualFold(part, "all") {
				return All(), nil
			}
			r, err := Lookup(part)
			if err != nil {
				return nil, err
			}
			if !seen[r.Code] {
				seen[r.Code] = true
				regions = append(regions, r)
			}
		}
	}
	if len(regions) == 0 {
		return All(), nil
	}
	return regions, nil
}

// LatestAvailable returns the most recent date whose results are complete at now.
func (r Region) LatestAvailable(now time.Time, loc *time.Location) draw.Date {
	local := now.In(loc)
	today := draw.DateOf(local)
	release := time.Date(local.Year(), local.Month(), local.Day(), r.ResultsHour, r.ResultsMinute, 0, 0, loc)
	if local.Before(release) {
		return today.AddDays(-1)
	}
	return today
}

// Path returns the page path for date d, e.g. "xsmn-15-03-2024.html".
func (r Region) Path(d draw.Date) string {
	return fmt.Sprintf("%s-%s.html", r.Slug, d.Format("02-01-2006"))
}

func (r Region) String() string {
	return r.Code
}
