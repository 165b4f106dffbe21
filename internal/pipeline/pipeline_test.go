package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/pfrederiksen/xoso-draws/internal/draw"
	"github.com/pfrederiksen/xoso-draws/internal/export"
	"github.com/pfrederiksen/xoso-draws/internal/logger"
	"github.com/pfrederiksen/xoso-draws/internal/region"
	"github.com/pfrederiksen/xoso-draws/internal/scraper"
	"github.com/pfrederiksen/xoso-draws/internal/store"
)

// fakeFetcher serves pages by region page path and counts requests.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls map[string]int
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages, calls: make(map[string]int)}
}

func (f *fakeFetcher) Fetch(_ context.Context, r region.Region, d draw.Date) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := r.Path(d)
	f.calls[path]++
	page, ok := f.pages[path]
	if !ok {
		return nil, &scraper.StatusError{URL: path, StatusCode: 404}
	}
	return []byte(page), nil
}

func (f *fakeFetcher) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func mbPage(special string) string {
	return `<table class="table-result">
		<tr><th>ĐB</th><td>` + special + `</td></tr>
		<tr><th>G.1</th><td>54321</td></tr>
		<tr><th>G.2</th><td><span>1234556789</span></td></tr>
		<tr><th>G.7</th><td>01 23 45 67</td></tr>
	</table>`
}

func provincePage(provinces []string, special string) string {
	var b strings.Builder
	b.WriteString(`<table class="table-result"><tr><th>Giải</th>`)
	for _, p := range provinces {
		fmt.Fprintf(&b, "<th>%s</th>", p)
	}
	b.WriteString(`</tr><tr><th>G.8</th>`)
	for range provinces {
		b.WriteString("<td>12</td>")
	}
	b.WriteString(`</tr><tr><th>ĐB</th>`)
	for range provinces {
		fmt.Fprintf(&b, "<td>%s</td>", special)
	}
	b.WriteString(`</tr></table>`)
	return b.String()
}

func newTestPipeline(t *testing.T, dir string, f scraper.Fetcher) *Pipeline {
	t.Helper()
	return New(Options{
		DataDir:  dir,
		Fetcher:  f,
		Exporter: export.New(dir, export.CSV),
		Logger:   logger.Discard(),
	})
}

var (
	day1 = draw.NewDate(2024, 3, 15)
	day2 = draw.NewDate(2024, 3, 16)
	day3 = draw.NewDate(2024, 3, 17)
)

func TestRun_SingleDraw(t *testing.T) {
	dir := t.TempDir()
	f := newFakeFetcher(map[string]string{
		region.MB.Path(day1): mbPage("12345"),
		region.MB.Path(day2): mbPage("99999"),
	})

	sum := newTestPipeline(t, dir, f).Run(context.Background(), region.MB, day1, day3)
	if sum.Err != nil {
		t.Fatalf("Run() error = %v", sum.Err)
	}
	want := Summary{Region: "MB", Requested: 3, Fetched: 2, Failed: 1, Added: 2, Records: 2}
	got := Summary{Region: sum.Region, Requested: sum.Requested, Fetched: sum.Fetched, Failed: sum.Failed, Added: sum.Added, Records: sum.Records}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
	if len(sum.Files) != 3 {
		t.Errorf("Files = %v, want 3 CSV views", sum.Files)
	}

	st := store.NewSingle(dir, "xsmb", nil)
	st.Load()
	rec, ok := st.Get(day1)
	if !ok {
		t.Fatal("day1 not persisted")
	}
	for field, want := range map[string]int64{"special": 12345, "prize1": 54321, "prize2_1": 12345, "prize2_2": 56789, "prize7_3": 45} {
		if got, _ := rec.Prize(field); got != want {
			t.Errorf("%s = %d, want %d", field, got, want)
		}
	}
}

func TestRun_SkipsStoredDates(t *testing.T) {
	dir := t.TempDir()
	f := newFakeFetcher(map[string]string{
		region.MB.Path(day1): mbPage("12345"),
		region.MB.Path(day2): mbPage("99999"),
	})
	p := newTestPipeline(t, dir, f)

	p.Run(context.Background(), region.MB, day1, day2)
	before, err := os.ReadFile(filepath.Join(dir, "xsmb.json"))
	if err != nil {
		t.Fatal(err)
	}

	sum := p.Run(context.Background(), region.MB, day1, day2)
	if sum.Skipped != 2 || sum.Fetched != 0 {
		t.Errorf("second run fetched %d, skipped %d; want 0, 2", sum.Fetched, sum.Skipped)
	}
	if f.total() != 2 {
		t.Errorf("fetcher called %d times across both runs, want 2", f.total())
	}

	after, _ := os.ReadFile(filepath.Join(dir, "xsmb.json"))
	if string(before) != string(after) {
		t.Error("re-running over stored dates changed the records file")
	}
}

func TestRun_MultiProvince(t *testing.T) {
	dir := t.TempDir()
	f := newFakeFetcher(map[string]string{
		region.MN.Path(day1): provincePage([]string{"Vĩnh Long", "Bình Dương", "Trà Vinh"}, "123456"),
		region.MN.Path(day2): provincePage([]string{"TP. HCM", "Long An"}, "..."),
		region.MN.Path(day3): provincePage([]string{"Tiền Giang", "Kiên Giang"}, "654321"),
	})
	p := newTestPipeline(t, dir, f)

	sum := p.Run(context.Background(), region.MN, day1, day3)
	if sum.Err != nil {
		t.Fatalf("Run() error = %v", sum.Err)
	}
	if sum.Fetched != 2 || sum.Failed != 1 || sum.Records != 5 {
		t.Errorf("summary = %+v, want 2 fetched, 1 failed, 5 records", sum)
	}
	snap := p.Metrics().Snapshot()
	if got := snap.Counter(MetricIncomplete); got != 1 {
		t.Errorf("incomplete counter = %d, want 1", got)
	}
	if got := snap.Gauges[MetricStoredRecords+".MN"]; got != 5 {
		t.Errorf("stored records gauge = %v, want 5", got)
	}

	st := store.NewProvince(dir, "xsmn", nil)
	st.Load()
	if st.Contains(day2) {
		t.Error("incomplete date was stored")
	}
	recs := st.Get(day1)
	if len(recs) != 3 || recs[0].Province != "Bình Dương" || recs[2].Province != "Vĩnh Long" {
		t.Errorf("day1 records = %+v, want sorted by province", recs)
	}
	if v, _ := recs[0].Prize("prize8"); v != 12 {
		t.Errorf("prize8 = %d, want 12", v)
	}

	csv, err := os.ReadFile(filepath.Join(dir, "xsmn-sparse.csv"))
	if err != nil {
		t.Fatalf("sparse view not written: %v", err)
	}
	if lines := strings.Count(strings.TrimSpace(string(csv)), "\n"); lines != 5 {
		t.Errorf("sparse view has %d data rows, want 5", lines)
	}
}

func TestRun_IncompleteDateRetriedNextRun(t *testing.T) {
	dir := t.TempDir()
	pages := map[string]string{region.MT.Path(day1): provincePage([]string{"Huế", "Phú Yên"}, "…")}
	f := newFakeFetcher(pages)

	first := newTestPipeline(t, dir, f).Run(context.Background(), region.MT, day1, day1)
	if first.Failed != 1 {
		t.Fatalf("first run failed = %d, want 1", first.Failed)
	}

	pages[region.MT.Path(day1)] = provincePage([]string{"Huế", "Phú Yên"}, "111111")
	second := newTestPipeline(t, dir, f).Run(context.Background(), region.MT, day1, day1)
	if second.Fetched != 1 || second.Records != 2 {
		t.Errorf("second run = %+v, want the completed draw stored", second)
	}
}

func TestRun_DamagedStoreLeftUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xsmb.json")
	good := mbPage("12345")
	f := newFakeFetcher(map[string]string{region.MB.Path(day1): good})
	if sum := newTestPipeline(t, dir, f).Run(context.Background(), region.MB, day1, day1); sum.Err != nil {
		t.Fatalf("seeding run: %v", sum.Err)
	}

	// A second record with a negative prize makes the whole file unusable.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	damaged := strings.Replace(string(data), "\n]", `,{"date":"2024-03-16","special":-1}]`, 1)
	if err := os.WriteFile(path, []byte(damaged), 0644); err != nil {
		t.Fatal(err)
	}

	p := newTestPipeline(t, dir, f)
	sum := p.Run(context.Background(), region.MB, day3, day3)
	if !errors.Is(sum.Err, ErrDamagedStore) {
		t.Errorf("Run() error = %v, want ErrDamagedStore", sum.Err)
	}
	after, _ := os.ReadFile(path)
	if string(after) != damaged {
		t.Errorf("records file rewritten:\n%s", after)
	}

	if vs := p.Views(region.MB); !errors.Is(vs.Err, ErrDamagedStore) {
		t.Errorf("Views() error = %v, want ErrDamagedStore", vs.Err)
	}
}

func TestRun_DamagedStoreMovedAsideOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xsmb.json")
	if err := os.WriteFile(path, []byte("{oops"), 0644); err != nil {
		t.Fatal(err)
	}
	f := newFakeFetcher(map[string]string{region.MB.Path(day1): mbPage("12345")})

	sum := newTestPipeline(t, dir, f).Run(context.Background(), region.MB, day1, day1)
	if sum.Err != nil || sum.Records != 1 {
		t.Fatalf("Run() = %+v", sum)
	}
	if aside, err := os.ReadFile(path + ".corrupt"); err != nil || string(aside) != "{oops" {
		t.Errorf("damaged file not kept aside: %q, %v", aside, err)
	}
}

func TestRun_PersistFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	f := newFakeFetcher(map[string]string{region.MB.Path(day1): mbPage("12345")})
	p := New(Options{DataDir: dir, Fetcher: f})

	sum := p.Run(context.Background(), region.MB, day1, day1)
	if sum.Err == nil {
		t.Fatal("Run() into a missing directory reported no error")
	}
	if sum.Error == "" {
		t.Error("Summary.Error not set")
	}
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newFakeFetcher(nil)
	sum := newTestPipeline(t, t.TempDir(), f).Run(ctx, region.MB, day1, day3)
	if !errors.Is(sum.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", sum.Err)
	}
	if f.total() != 0 {
		t.Errorf("fetcher called %d times after cancel", f.total())
	}
}

func TestRunAll_IsolatesRegions(t *testing.T) {
	dir := t.TempDir()
	// A directory where MN's records file should be makes its persist fail.
	if err := os.Mkdir(filepath.Join(dir, "xsmn.json"), 0755); err != nil {
		t.Fatal(err)
	}
	f := newFakeFetcher(map[string]string{
		region.MB.Path(day1): mbPage("12345"),
		region.MN.Path(day1): provincePage([]string{"Cà Mau"}, "222222"),
		region.MT.Path(day1): provincePage([]string{"Huế"}, "333333"),
	})

	sums := newTestPipeline(t, dir, f).RunAll(context.Background(), region.All(), day1, day1)
	if len(sums) != 3 {
		t.Fatalf("got %d summaries, want 3", len(sums))
	}
	if sums[0].Err != nil || sums[2].Err != nil {
		t.Errorf("MB/MT errors = %v / %v, want none", sums[0].Err, sums[2].Err)
	}
	if sums[1].Err == nil {
		t.Error("MN persisted over a directory without error")
	}
	if !Failed(sums) {
		t.Error("Failed() = false")
	}
	if sums[0].RunID != sums[2].RunID || sums[0].RunID == "" {
		t.Error("summaries of one run should share a run ID")
	}
}

func TestViews(t *testing.T) {
	dir := t.TempDir()
	f := newFakeFetcher(map[string]string{region.MB.Path(day1): mbPage("12345")})
	New(Options{DataDir: dir, Fetcher: f}).Run(context.Background(), region.MB, day1, day1)

	if _, err := os.Stat(filepath.Join(dir, "xsmb.csv")); err == nil {
		t.Fatal("views written without an exporter")
	}

	sum := newTestPipeline(t, dir, f).Views(region.MB)
	if sum.Err != nil || sum.Records != 1 || len(sum.Files) != 3 {
		t.Errorf("Views() = %+v", sum)
	}
	if f.total() != 1 {
		t.Errorf("Views() fetched; calls = %d", f.total())
	}
}

func TestWindow(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		t.Skip("timezone data unavailable")
	}
	now := time.Date(2024, 3, 15, 17, 0, 0, 0, loc)

	from, to := Window(region.MN, now, loc, DefaultDays)
	if to != day1 || from != draw.NewDate(2024, 3, 8) {
		t.Errorf("MN window = %s..%s", from, to)
	}
	_, to = Window(region.MB, now, loc, DefaultDays)
	if to != draw.NewDate(2024, 3, 14) {
		t.Errorf("MB window ends %s, want 2024-03-14 before 18:35", to)
	}
}

func TestSinceLast(t *testing.T) {
	st := store.NewSingle(t.TempDir(), "xsmb", nil)
	from := draw.NewDate(2024, 3, 1)
	if got := SinceLast(st, from); got != from {
		t.Errorf("empty store: SinceLast() = %s, want %s", got, from)
	}

	st.Insert(draw.NewSingleRecord(day1, nil))
	if got := SinceLast(st, from); got != day2 {
		t.Errorf("SinceLast() = %s, want %s", got, day2)
	}
	if got := SinceLast(st, day3); got != day3 {
		t.Errorf("SinceLast() = %s, want later from %s kept", got, day3)
	}
}
