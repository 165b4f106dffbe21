package pipeline

import (
	"time"

	"github.com/pfrederiksen/xoso-draws/internal/draw"
	"github.com/pfrederiksen/xoso-draws/internal/region"
)

// DefaultDays is how many days before the latest available draw a fetch starts.
const DefaultDays = 7

// Window returns the default range for r at now: from days before the latest
// date with published results, through that date.
func Window(r region.Region, now time.Time, loc *time.Location, days int) (from, to draw.Date) {
	to = r.LatestAvailable(now, loc)
	return to.AddDays(-days), to
}

// SinceLast narrows from to the day after the newest stored date, when that is later.
func SinceLast(st interface {
	LastDate() (draw.Date, bool)
}, from draw.Date) draw.Date {
	last, ok := st.LastDate()
	if !ok {
		return from
	}
	if next := last.AddDays(1); next.After(from) {
		return next
	}
	return from
}
