package reorder

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
)

const (
	reportCoverageItems = 20
	coverageWindowDays  = 30
)

// GetReport assembles the reorder overview: suggestion totals, alert counts by
// status, auto-reorder adoption and stock coverage for the most urgent
// suggestions. Results are cached per org until the next reorder mutation.
func (s *Service) GetReport(ctx context.Context, orgID int64) (Report, error) {
	var report Report
	key, err := s.cacheKey(ctx, orgID)
	if err != nil {
		return Report{}, err
	}
	if s.cache != nil {
		err := s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (interface{}, error) {
			return s.buildReport(ctx, orgID)
		})
		return report, err
	}
	return s.buildReport(ctx, orgID)
}

func (s *Service) cacheKey(ctx context.Context, orgID int64) (string, error) {
	if s.cache == nil {
		return "", nil
	}
	return s.cache.BuildKey(ctx, orgID)
}

func (s *Service) buildReport(ctx context.Context, orgID int64) (Report, error) {
	var (
		suggestions []Suggestion
		alertCounts map[AlertStatus]int
		autoEnabled int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		suggestions, err = s.GetSuggestions(gctx, orgID)
		return err
	})
	g.Go(func() error {
		var err error
		alertCounts, err = s.repo.CountAlertsByStatus(gctx, orgID)
		return err
	})
	g.Go(func() error {
		var err error
		autoEnabled, err = s.repo.CountAutoReorderEnabled(gctx, orgID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report := Report{
		TotalSuggestions:   len(suggestions),
		AlertCounts:        alertCounts,
		AutoReorderEnabled: autoEnabled,
		Suggestions:        suggestions,
		Coverage:           []CoverageRow{},
	}

	top := suggestions
	if len(top) > reportCoverageItems {
		top = top[:reportCoverageItems]
	}
	for _, sug := range top {
		avg, err := s.sales.AverageDailyDemand(ctx, orgID, sug.ItemID, coverageWindowDays)
		if err != nil {
			return Report{}, err
		}
		report.Coverage = append(report.Coverage, CoverageRow{
			ItemID:         sug.ItemID,
			SKU:            sug.SKU,
			Name:           sug.Name,
			CurrentStock:   sug.CurrentStock,
			AvgDailyDemand: avg,
			CoverageDays:   coverageDays(sug.CurrentStock, avg),
		})
	}
	return report, nil
}

// coverageDays estimates days of stock left. No stock and no demand means the
// item is simply dormant; stock with no recent demand is reported as the
// very-long sentinel rather than infinity.
func coverageDays(stock, avgDaily float64) int {
	if avgDaily <= 0 {
		if stock <= 0 {
			return 0
		}
		return CoverageVeryLong
	}
	return int(math.Round(stock / avgDaily))
}
