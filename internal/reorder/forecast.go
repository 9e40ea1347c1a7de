package reorder

import (
	"context"
	"math"
	"time"
)

const (
	forecastHistoryMonths  = 12
	forecastWindowMonths   = 3
	forecastDefaultPeriods = 3
	forecastMethod         = "moving_average"
)

// ForecastDemand projects future monthly demand for one item using a moving
// average over the most recent months of sales history. With fewer than two
// months of history no projection is made; the historical series is still
// returned so callers can show what little there is.
func (s *Service) ForecastDemand(ctx context.Context, orgID, itemID int64, periods int) (Forecast, error) {
	if periods <= 0 {
		periods = forecastDefaultPeriods
	}
	if _, err := s.catalog.GetItem(ctx, orgID, itemID); err != nil {
		return Forecast{}, err
	}

	to := s.now().UTC()
	from := to.AddDate(0, -forecastHistoryMonths, 0)
	history, err := s.sales.MonthlyQuantities(ctx, orgID, itemID, from, to)
	if err != nil {
		return Forecast{}, err
	}

	forecast := Forecast{
		ItemID:     itemID,
		Historical: make([]HistoryPoint, 0, len(history)),
		Forecast:   []ForecastPoint{},
	}
	for _, m := range history {
		forecast.Historical = append(forecast.Historical, HistoryPoint{Period: m.Period, Qty: m.Qty})
	}
	if len(history) < 2 {
		return forecast, nil
	}

	window := forecastWindowMonths
	if len(history) < window {
		window = len(history)
	}
	var sum float64
	for _, m := range history[len(history)-window:] {
		sum += m.Qty
	}
	avg := sum / float64(window)

	confidence := math.Min(0.95, 0.5+0.05*float64(len(history)))

	start := s.now().UTC()
	start = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= periods; i++ {
		forecast.Forecast = append(forecast.Forecast, ForecastPoint{
			Period:      start.AddDate(0, i, 0).Format("2006-01"),
			ForecastQty: avg,
			Confidence:  confidence,
			Method:      forecastMethod,
		})
	}
	return forecast, nil
}
