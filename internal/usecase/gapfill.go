package usecase

import (
	"context"
	"fmt"

	"StyleTranslator/internal/scanner"
	"StyleTranslator/internal/state"
)

// GapFill is the outcome for one under-covered brand.
type GapFill struct {
	Brand     string
	Had       int
	Requested int
	Added     int
	Err       error
}

// GapReport lists every brand that needed a supplemental fetch.
type GapReport struct {
	Threshold int
	Brands    []GapFill
}

// targetBrands is the configured list or, when empty, every discovered brand.
func (p *Pipeline) targetBrands(st *state.State) []string {
	if len(p.settings.GapFillBrands) > 0 {
		return p.settings.GapFillBrands
	}
	return st.DiscoveredBrands()
}

// fillBrandGaps asks the fallback provider for exactly the missing number of
// items per brand. Counts are taken once, before any fetch, so a brand is
// never queried twice in one pass.
func (p *Pipeline) fillBrandGaps(ctx context.Context, st *state.State) GapReport {
	threshold := p.settings.MinItemsPerBrand
	report := GapReport{Threshold: threshold}
	if threshold <= 0 || p.settings.GapFillProvider == "" {
		return report
	}
	provider, err := p.registry.Resolve(p.settings.GapFillProvider)
	if err != nil {
		p.stageError(st, "gapfill", err)
		return report
	}

	brands := p.targetBrands(st)
	counts := st.ItemCountsByBrand()
	p.logger.Info("gap fill started", "brands", len(brands), "threshold", threshold, "provider", provider.Name())

	for _, brand := range brands {
		if ctx.Err() != nil {
			break
		}
		have := counts[brand]
		if have >= threshold {
			continue
		}
		need := threshold - have
		stage := "gapfill/" + brand
		p.setProgress(PhaseBetweenSources, -1, stage)

		added, err := p.ingest(ctx, st, provider, scanner.Request{
			Stage:      stage,
			Target:     scanner.Target{Name: brand},
			Query:      brand,
			MaxResults: need,
		})
		fill := GapFill{Brand: brand, Had: have, Requested: need, Added: added}
		if err != nil {
			fill.Err = err
			p.stageError(st, stage, fmt.Errorf("%s: %w", provider.Name(), err))
		}
		p.logger.Info("gap fill", "brand", brand, "had", have, "requested", need, "added", added)
		report.Brands = append(report.Brands, fill)
	}

	p.save(st)
	return report
}
