package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/stockpilot-erp/stockpilot/internal/observability"
	"github.com/stockpilot-erp/stockpilot/internal/reorder"
)

// NewReorderCheckHandler builds the Asynq handler for reorder sweeps. Metrics
// is optional.
func NewReorderCheckHandler(service *reorder.Service, metrics *observability.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReorderCheckPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.OrgID == 0 {
			return asynq.SkipRetry
		}
		trigger := payload.Trigger
		if trigger == "" {
			trigger = "scheduled"
		}

		result, err := service.CheckReorderPoints(ctx, payload.OrgID)
		if metrics != nil {
			metrics.ObserveReorderCheck(trigger, len(result.Created), err)
		}
		if err != nil {
			logger.Error("reorder check failed",
				slog.Int64("org_id", payload.OrgID),
				slog.String("trigger", trigger),
				slog.Any("error", err))
			return err
		}
		logger.Info("reorder check finished",
			slog.Int64("org_id", payload.OrgID),
			slog.String("trigger", trigger),
			slog.Int("checked", result.Checked),
			slog.Int("created", len(result.Created)),
			slog.Int("skipped", result.Skipped))
		return nil
	}
}
