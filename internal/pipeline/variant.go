package pipeline

import (
	"fmt"

	"github.com/pfrederiksen/xoso-draws/internal/draw"
	"github.com/pfrederiksen/xoso-draws/internal/logger"
	"github.com/pfrederiksen/xoso-draws/internal/region"
	"github.com/pfrederiksen/xoso-draws/internal/scraper"
	"github.com/pfrederiksen/xoso-draws/internal/store"
)

// variant adapts the pipeline to a region's store type.
type variant interface {
	Store() store.Store
	// Ingest builds records for one date and inserts them. It returns the
	// number of records added and any field errors found while building.
	Ingest(d draw.Date, draws []scraper.Draw) (int, []error, error)
}

func newVariant(r region.Region, dir string, log *logger.Logger) variant {
	if r.Schema.Kind == draw.MultiProvince {
		return &provinceVariant{schema: r.Schema, store: store.NewProvince(dir, r.Slug, log)}
	}
	return &singleVariant{schema: r.Schema, store: store.NewSingle(dir, r.Slug, log)}
}

type singleVariant struct {
	schema draw.Schema
	store  *store.SingleStore
}

func (v *singleVariant) Store() store.Store { return v.store }

func (v *singleVariant) Ingest(d draw.Date, draws []scraper.Draw) (int, []error, error) {
	if len(draws) != 1 {
		return 0, nil, fmt.Errorf("single-draw page produced %d draws", len(draws))
	}
	values, fieldErrs := v.schema.Build(draws[0].Tiers)
	if !v.store.Insert(draw.NewSingleRecord(d, values)) {
		return 0, fieldErrs, nil
	}
	return 1, fieldErrs, nil
}

type provinceVariant struct {
	schema draw.Schema
	store  *store.ProvinceStore
}

func (v *provinceVariant) Store() store.Store { return v.store }

func (v *provinceVariant) Ingest(d draw.Date, draws []scraper.Draw) (int, []error, error) {
	recs := make([]draw.ProvinceRecord, 0, len(draws))
	var fieldErrs []error
	for _, dr := range draws {
		values, errs := v.schema.Build(dr.Tiers)
		for _, err := range errs {
			fieldErrs = append(fieldErrs, fmt.Errorf("%s: %w", dr.Province, err))
		}
		recs = append(recs, draw.NewProvinceRecord(d, dr.Province, values))
	}
	return v.store.Insert(d, recs), fieldErrs, nil
}
