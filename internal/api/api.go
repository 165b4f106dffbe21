// Package api serves stored draws, views and statistics over a read-only HTTP API.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pfrederiksen/xoso-draws/internal/draw"
	"github.com/pfrederiksen/xoso-draws/internal/logger"
	"github.com/pfrederiksen/xoso-draws/internal/region"
	"github.com/pfrederiksen/xoso-draws/internal/stats"
	"github.com/pfrederiksen/xoso-draws/internal/store"
	"github.com/pfrederiksen/xoso-draws/internal/view"
)

// Source opens the current store of a region. Each request reads the records file afresh.
type Source interface {
	Open(r region.Region) store.Store
}

// Handler implements the API endpoints.
type Handler struct {
	src Source
	loc *time.Location
	log *logger.Logger
	now func() time.Time
}

// NewHandler creates a handler. loc is used to decide "today" for statistics.
func NewHandler(src Source, loc *time.Location, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{src: src, loc: loc, log: log, now: time.Now}
}

// NewRouter registers every route on a new gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.logRequests)

	r.GET("/healthz", h.Health)
	r.GET("/api/regions", h.ListRegions)
	r.GET("/api/regions/:code/records", h.ListRecords)
	r.GET("/api/regions/:code/views/:view", h.GetView)
	r.GET("/api/regions/:code/stats", h.GetStats)
	return r
}

func (h *Handler) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	h.log.Info("Request", logger.Fields{
		"method":   c.Request.Method,
		"path":     c.FullPath(),
		"status":   c.Writer.Status(),
		"duration": time.Since(start).String(),
	})
}

// Health reports liveness.
// GET /healthz
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RegionInfo describes a region and the state of its store.
type RegionInfo struct {
	Code     string `json:"code"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Records  int    `json:"records"`
	Dates    int    `json:"dates"`
	LastDate string `json:"last_date,omitempty"`
}

// ListRegions lists every region with record counts.
// GET /api/regions
func (h *Handler) ListRegions(c *gin.Context) {
	var out []RegionInfo
	for _, r := range region.All() {
		st := h.src.Open(r)
		info := RegionInfo{
			Code:    r.Code,
			Slug:    r.Slug,
			Name:    r.Name,
			Kind:    r.Schema.Kind.String(),
			Records: st.Len(),
			Dates:   len(st.Dates()),
		}
		if last, ok := st.LastDate(); ok {
			info.LastDate = last.String()
		}
		out = append(out, info)
	}
	c.JSON(http.StatusOK, out)
}

// ListRecords returns the stored records of a region, optionally limited to a date range.
// GET /api/regions/:code/records?from=2024-03-01&to=2024-03-31
func (h *Handler) ListRecords(c *gin.Context) {
	r, ok := h.region(c)
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}

	in := func(d draw.Date) bool {
		return (from.IsZero() || !d.Before(from)) && (to.IsZero() || !d.After(to))
	}

	switch st := h.src.Open(r).(type) {
	case *store.SingleStore:
		recs := []draw.SingleRecord{}
		for _, rec := range st.Records() {
			if in(rec.Date) {
				recs = append(recs, rec)
			}
		}
		c.JSON(http.StatusOK, recs)
	case *store.ProvinceStore:
		recs := []draw.ProvinceRecord{}
		for _, rec := range st.Records() {
			if in(rec.Date) {
				recs = append(recs, rec)
			}
		}
		c.JSON(http.StatusOK, recs)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unsupported store"})
	}
}

// TableResponse is a view in column/row form. Each row holds the date string,
// the province when present, then the numeric values.
type TableResponse struct {
	Region  string          `json:"region"`
	View    string          `json:"view"`
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// GetView returns one generated view of a region.
// GET /api/regions/:code/views/:view
func (h *Handler) GetView(c *gin.Context) {
	r, ok := h.region(c)
	if !ok {
		return
	}
	name, err := view.ParseName(c.Param("view"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	t, _ := view.Generate(r.Schema, h.src.Open(r).Rows()).Get(name)
	resp := TableResponse{Region: r.Code, View: string(name), Columns: t.Columns(), Rows: make([][]interface{}, 0, len(t.Rows))}
	for _, row := range t.Rows {
		cells := make([]interface{}, 0, len(resp.Columns))
		cells = append(cells, row.Date.String())
		if t.Provinces {
			cells = append(cells, row.Province)
		}
		for _, v := range row.Values {
			cells = append(cells, v)
		}
		resp.Rows = append(resp.Rows, cells)
	}
	c.JSON(http.StatusOK, resp)
}

// GetStats returns the most frequent and least recent two-digit numbers.
// GET /api/regions/:code/stats?top=10
func (h *Handler) GetStats(c *gin.Context) {
	r, ok := h.region(c)
	if !ok {
		return
	}
	top, err := strconv.Atoi(c.DefaultQuery("top", strconv.Itoa(stats.DefaultTop)))
	if err != nil || top < 1 || top > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "top must be between 1 and 100"})
		return
	}

	set := view.Generate(r.Schema, h.src.Open(r).Rows())
	report := stats.Analyze(set.TwoDigit, draw.DateOf(h.now().In(h.loc)), top)
	c.JSON(http.StatusOK, gin.H{"region": r.Code, "stats": report})
}

func (h *Handler) region(c *gin.Context) (region.Region, bool) {
	r, err := region.Lookup(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return region.Region{}, false
	}
	return r, true
}

func dateRange(c *gin.Context) (from, to draw.Date, ok bool) {
	for _, p := range []struct {
		key string
		dst *draw.Date
	}{{"from", &from}, {"to", &to}} {
		s := c.Query(p.key)
		if s == "" {
			continue
		}
		d, err := draw.ParseDate(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return draw.Date{}, draw.Date{}, false
		}
		*p.dst = d
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to is before from"})
		return draw.Date{}, draw.Date{}, false
	}
	return from, to, true
}
