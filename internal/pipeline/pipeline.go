package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/xoso-draws/internal/draw"
	"github.com/pfrederiksen/xoso-draws/internal/export"
	"github.com/pfrederiksen/xoso-draws/internal/logger"
	"github.com/pfrederiksen/xoso-draws/internal/region"
	"github.com/pfrederiksen/xoso-draws/internal/scraper"
	"github.com/pfrederiksen/xoso-draws/internal/store"
	"github.com/pfrederiksen/xoso-draws/internal/view"
)

// Metric names recorded per run.
const (
	MetricFetched      = "dates.fetched"
	MetricSkipped      = "dates.skipped"
	MetricFailed       = "dates.failed"
	MetricIncomplete   = "dates.incomplete"
	MetricFieldErrors  = "fields.invalid"
	MetricRecordsAdded = "records.added"
	MetricFetchTime    = "fetch"

	// MetricStoredRecords is a gauge per region, suffixed with the region code.
	MetricStoredRecords = "records.stored"
)

// ErrDamagedStore means the records file exists but could not be loaded, so
// nothing is written over it until new records are added.
var ErrDamagedStore = errors.New("records file could not be loaded")

// Options wires the pipeline's collaborators.
type Options struct {
	DataDir  string
	Fetcher  scraper.Fetcher
	Exporter *export.Exporter // nil disables view files
	Logger   *logger.Logger
	Metrics  *logger.Metrics
}

// Pipeline processes regions. One Pipeline is one run and carries one run ID.
type Pipeline struct {
	opts  Options
	runID string
	log   *logger.Logger
}

// New creates a pipeline with a fresh run ID.
func New(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Metrics == nil {
		opts.Metrics = logger.NewMetrics()
	}
	id := uuid.NewString()
	return &Pipeline{
		opts:  opts,
		runID: id,
		log:   opts.Logger.With(logger.Fields{"run_id": id}),
	}
}

// RunID identifies this run in logs and summaries.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Metrics returns the run's metrics.
func (p *Pipeline) Metrics() *logger.Metrics {
	return p.opts.Metrics
}

// Summary reports the outcome of one region.
type Summary struct {
	Region    string   `json:"region"`
	RunID     string   `json:"run_id"`
	From      string   `json:"from,omitempty"`
	To        string   `json:"to,omitempty"`
	Requested int      `json:"requested"`
	Fetched   int      `json:"fetched"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Added     int      `json:"added"`
	Records   int      `json:"records"`
	Files     []string `json:"files,omitempty"`
	Error     string   `json:"error,omitempty"`

	// Err is set when the region as a whole failed.
	Err error `json:"-"`
}

func (s *Summary) fail(err error) {
	s.Err = err
	s.Error = err.Error()
}

// Open loads the store of a region.
func (p *Pipeline) Open(r region.Region) store.Store {
	v := newVariant(r, p.opts.DataDir, p.log.With(logger.Fields{"region": r.Code}))
	v.Store().Load()
	return v.Store()
}

// Run processes the dates from..to inclusive for one region.
func (p *Pipeline) Run(ctx context.Context, r region.Region, from, to draw.Date) Summary {
	log := p.log.With(logger.Fields{"region": r.Code})
	sum := Summary{Region: r.Code, RunID: p.runID, From: from.String(), To: to.String()}

	v := newVariant(r, p.opts.DataDir, log)
	st := v.Store()
	st.Load()

	dates := draw.Range(from, to)
	sum.Requested = len(dates)
	log.Info("Starting region", logger.Fields{"from": from.String(), "to": to.String(), "dates": len(dates), "stored": st.Len()})

	for _, d := range dates {
		if err := ctx.Err(); err != nil {
			sum.fail(fmt.Errorf("interrupted before %s: %w", d, err))
			break
		}
		if st.Contains(d) {
			sum.Skipped++
			p.opts.Metrics.IncrCounter(MetricSkipped)
			log.Debug("Date already stored", logger.Fields{"date": d.String()})
			continue
		}

		added, err := p.ingest(ctx, r, v, d, log)
		if err != nil {
			sum.Failed++
			p.opts.Metrics.IncrCounter(MetricFailed)
			if errors.Is(err, scraper.ErrIncompleteDraw) {
				p.opts.Metrics.IncrCounter(MetricIncomplete)
			}
			log.Warn("Skipping date", logger.Fields{"date": d.String(), "error": err.Error()})
			continue
		}
		sum.Fetched++
		sum.Added += added
		p.opts.Metrics.IncrCounter(MetricFetched)
		p.opts.Metrics.AddCounter(MetricRecordsAdded, int64(added))
	}

	if st.Damaged() && sum.Added == 0 {
		err := fmt.Errorf("%s: %w", st.Path(), ErrDamagedStore)
		log.Error("Leaving records file untouched", nil, err)
		sum.fail(err)
		return sum
	}

	if err := st.Persist(); err != nil {
		log.Error("Persisting records failed", nil, err)
		sum.fail(fmt.Errorf("persisting %s: %w", r.Code, err))
		return sum
	}
	sum.Records = st.Len()
	p.opts.Metrics.SetGauge(MetricStoredRecords+"."+r.Code, float64(sum.Records))

	files, err := p.export(r, st)
	sum.Files = files
	if err != nil {
		log.Error("Exporting views failed", nil, err)
		sum.fail(err)
		return sum
	}

	log.Info("Finished region", logger.Fields{
		"fetched": sum.Fetched,
		"skipped": sum.Skipped,
		"failed":  sum.Failed,
		"records": sum.Records,
	})
	return sum
}

func (p *Pipeline) ingest(ctx context.Context, r region.Region, v variant, d draw.Date, log *logger.Logger) (int, error) {
	start := time.Now()
	page, err := p.opts.Fetcher.Fetch(ctx, r, d)
	p.opts.Metrics.RecordTiming(MetricFetchTime, time.Since(start))
	if err != nil {
		return 0, fmt.Errorf("fetching: %w", err)
	}

	draws, err := scraper.ParseBytes(page, r.Schema)
	if err != nil {
		return 0, fmt.Errorf("parsing: %w", err)
	}

	added, fieldErrs, err := v.Ingest(d, draws)
	if err != nil {
		return 0, err
	}
	for _, fe := range fieldErrs {
		p.opts.Metrics.IncrCounter(MetricFieldErrors)
		log.Warn("Invalid prize value stored as 0", logger.Fields{"date": d.String(), "error": fe.Error()})
	}
	log.Debug("Stored draw", logger.Fields{"date": d.String(), "records": added})
	return added, nil
}

// export regenerates the views of r from the whole store and writes them.
func (p *Pipeline) export(r region.Region, st store.Store) ([]string, error) {
	if p.opts.Exporter == nil {
		return nil, nil
	}
	set := view.Generate(r.Schema, st.Rows())
	files, err := p.opts.Exporter.Export(r.Slug, set)
	if err != nil {
		return files, fmt.Errorf("exporting %s views: %w", r.Code, err)
	}
	return files, nil
}

// RunAll runs each region over the same range. A failing region does not stop the others.
func (p *Pipeline) RunAll(ctx context.Context, regions []region.Region, from, to draw.Date) []Summary {
	summaries := make([]Summary, 0, len(regions))
	for _, r := range regions {
		summaries = append(summaries, p.Run(ctx, r, from, to))
	}
	return summaries
}

// Views regenerates and writes the view files of r from its stored records without fetching.
func (p *Pipeline) Views(r region.Region) Summary {
	sum := Summary{Region: r.Code, RunID: p.runID}
	st := p.Open(r)
	if st.Damaged() {
		sum.fail(fmt.Errorf("%s: %w", st.Path(), ErrDamagedStore))
		return sum
	}
	sum.Records = st.Len()

	files, err := p.export(r, st)
	sum.Files = files
	if err != nil {
		sum.fail(err)
	}
	return sum
}

// Failed reports whether any summary carries a region failure.
func Failed(summaries []Summary) bool {
	for _, s := range summaries {
		if s.Err != nil {
			return true
		}
	}
	return false
}
