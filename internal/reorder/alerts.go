package reorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// CheckReorderPoints runs the suggestion scan and creates a PENDING alert for
// every suggested item that has no open alert yet. The pre-check plus the
// store's open-alert uniqueness guarantee at most one open alert per item even
// under concurrent sweeps.
func (s *Service) CheckReorderPoints(ctx context.Context, orgID int64) (CheckResult, error) {
	suggestions, err := s.GetSuggestions(ctx, orgID)
	if err != nil {
		return CheckResult{}, err
	}

	result := CheckResult{Checked: len(suggestions), Created: []Alert{}}
	for _, sug := range suggestions {
		exists, err := s.repo.OpenAlertExists(ctx, orgID, sug.ItemID)
		if err != nil {
			return CheckResult{}, err
		}
		if exists {
			result.Skipped++
			continue
		}

		alert := Alert{
			OrgID:        orgID,
			ItemID:       sug.ItemID,
			WarehouseID:  sug.LowWarehouseID,
			CurrentStock: sug.CurrentStock,
			ReorderLevel: sug.ReorderLevel,
			SuggestedQty: sug.SuggestedQty,
			Status:       AlertStatusPending,
			NotifiedAt:   s.now().UTC(),
		}
		err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			id, err := tx.InsertAlert(ctx, alert)
			if err != nil {
				return err
			}
			alert.ID = id
			return nil
		})
		if err != nil {
			// A concurrent sweep won the insert; same outcome as the pre-check.
			if errors.Is(err, ErrAlertOpen) {
				result.Skipped++
				continue
			}
			return CheckResult{}, err
		}
		result.Created = append(result.Created, alert)
	}

	if len(result.Created) > 0 {
		s.bumpReportCache(ctx, orgID)
		s.logger.Info("reorder check created alerts",
			slog.Int64("org_id", orgID),
			slog.Int("checked", result.Checked),
			slog.Int("created", len(result.Created)))
	}
	return result, nil
}

// ListAlerts returns alerts matching the filter.
func (s *Service) ListAlerts(ctx context.Context, orgID int64, filter AlertFilter) ([]Alert, error) {
	return s.repo.ListAlerts(ctx, orgID, filter)
}

// AcknowledgeAlert transitions a PENDING alert to ACKNOWLEDGED. Any other
// current state is an error.
func (s *Service) AcknowledgeAlert(ctx context.Context, orgID, alertID, actorID int64) (Alert, error) {
	var alert Alert
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetAlertForUpdate(ctx, orgID, alertID)
		if err != nil {
			return err
		}
		if current.Status != AlertStatusPending {
			return fmt.Errorf("%w: cannot acknowledge %s alert", ErrInvalidState, current.Status)
		}
		if err := tx.UpdateAlertStatus(ctx, alertID, AlertStatusAcknowledged, nil); err != nil {
			return err
		}
		alert = current
		alert.Status = AlertStatusAcknowledged
		return nil
	})
	if err != nil {
		return Alert{}, err
	}
	s.recordAudit(ctx, orgID, actorID, "REORDER_ALERT_ACK", alertID, map[string]any{"item_id": alert.ItemID})
	s.bumpReportCache(ctx, orgID)
	return alert, nil
}

// ResolveAlert closes an alert from any non-terminal state and stamps the
// resolution time.
func (s *Service) ResolveAlert(ctx context.Context, orgID, alertID, actorID int64) (Alert, error) {
	var alert Alert
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetAlertForUpdate(ctx, orgID, alertID)
		if err != nil {
			return err
		}
		if current.Status.Terminal() {
			return fmt.Errorf("%w: alert already %s", ErrInvalidState, current.Status)
		}
		resolvedAt := s.now().UTC()
		if err := tx.UpdateAlertStatus(ctx, alertID, AlertStatusResolved, &resolvedAt); err != nil {
			return err
		}
		alert = current
		alert.Status = AlertStatusResolved
		alert.ResolvedAt = &resolvedAt
		return nil
	})
	if err != nil {
		return Alert{}, err
	}
	s.recordAudit(ctx, orgID, actorID, "REORDER_ALERT_RESOLVE", alertID, map[string]any{"item_id": alert.ItemID})
	s.bumpReportCache(ctx, orgID)
	return alert, nil
}
