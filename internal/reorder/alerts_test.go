package reorder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockpilot-erp/stockpilot/internal/catalog"
)

func lowStockFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture()
	f.addItem(catalog.Item{ID: 1, SKU: "A-001", Name: "Low item", CostPrice: 10, ReorderLevel: 20, ReorderQty: 50})
	f.addStock(1, 1, 5, 0)
	return f
}

func TestCheckReorderPointsCreatesPendingAlert(t *testing.T) {
	f := lowStockFixture(t)

	result, err := f.service.CheckReorderPoints(context.Background(), testOrg)
	require.NoError(t, err)
	require.Equal(t, 1, result.Checked)
	require.Len(t, result.Created, 1)
	require.Equal(t, 0, result.Skipped)

	alert := result.Created[0]
	require.Equal(t, AlertStatusPending, alert.Status)
	require.Equal(t, int64(1), alert.ItemID)
	require.Equal(t, float64(50), alert.SuggestedQty)
	require.NotZero(t, alert.ID)
}

func TestCheckReorderPointsNeverDuplicatesOpenAlert(t *testing.T) {
	f := lowStockFixture(t)

	first, err := f.service.CheckReorderPoints(context.Background(), testOrg)
	require.NoError(t, err)
	require.Len(t, first.Created, 1)

	second, err := f.service.CheckReorderPoints(context.Background(), testOrg)
	require.NoError(t, err)
	require.Empty(t, second.Created)
	require.Equal(t, 1, second.Skipped)

	alerts, err := f.service.ListAlerts(context.Background(), testOrg, AlertFilter{ItemID: 1})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
}

func TestCheckReorderPointsAfterResolutionCreatesFreshAlert(t *testing.T) {
	f := lowStockFixture(t)

	first, err := f.service.CheckReorderPoints(context.Background(), testOrg)
	require.NoError(t, err)
	_, err = f.service.ResolveAlert(context.Background(), testOrg, first.Created[0].ID, 99)
	require.NoError(t, err)

	second, err := f.service.CheckReorderPoints(context.Background(), testOrg)
	require.NoError(t, err)
	require.Len(t, second.Created, 1)
}

func TestAcknowledgeAlertOnlyFromPending(t *testing.T) {
	f := newFixture()
	pending := f.addAlert(Alert{ItemID: 1})
	resolved := f.addAlert(Alert{ItemID: 2, Status: AlertStatusResolved})

	alert, err := f.service.AcknowledgeAlert(context.Background(), testOrg, pending.ID, 99)
	require.NoError(t, err)
	require.Equal(t, AlertStatusAcknowledged, alert.Status)

	_, err = f.service.AcknowledgeAlert(context.Background(), testOrg, resolved.ID, 99)
	require.ErrorIs(t, err, ErrInvalidState)

	// Acknowledging twice is also illegal.
	_, err = f.service.AcknowledgeAlert(context.Background(), testOrg, pending.ID, 99)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestResolveAlertStampsResolutionTime(t *testing.T) {
	f := newFixture()
	fixed := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	f.service.WithNow(func() time.Time { return fixed })

	pending := f.addAlert(Alert{ItemID: 1})
	alert, err := f.service.ResolveAlert(context.Background(), testOrg, pending.ID, 99)
	require.NoError(t, err)
	require.Equal(t, AlertStatusResolved, alert.Status)
	require.NotNil(t, alert.ResolvedAt)
	require.Equal(t, fixed, *alert.ResolvedAt)
}

func TestResolveAlertFromAcknowledged(t *testing.T) {
	f := newFixture()
	ack := f.addAlert(Alert{ItemID: 1, Status: AlertStatusAcknowledged})

	alert, err := f.service.ResolveAlert(context.Background(), testOrg, ack.ID, 99)
	require.NoError(t, err)
	require.Equal(t, AlertStatusResolved, alert.Status)
}

func TestResolveAlertRejectsTerminalStates(t *testing.T) {
	f := newFixture()
	resolved := f.addAlert(Alert{ItemID: 1, Status: AlertStatusResolved})
	poCreated := f.addAlert(Alert{ItemID: 2, Status: AlertStatusPOCreated})

	_, err := f.service.ResolveAlert(context.Background(), testOrg, resolved.ID, 99)
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = f.service.ResolveAlert(context.Background(), testOrg, poCreated.ID, 99)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestAlertsScopedToOrganization(t *testing.T) {
	f := newFixture()
	alert := f.addAlert(Alert{ItemID: 1})

	_, err := f.service.AcknowledgeAlert(context.Background(), testOrg+1, alert.ID, 99)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = f.service.ResolveAlert(context.Background(), testOrg+1, alert.ID, 99)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListAlertsFiltersByStatus(t *testing.T) {
	f := newFixture()
	f.addAlert(Alert{ItemID: 1})
	f.addAlert(Alert{ItemID: 2, Status: AlertStatusResolved})

	alerts, err := f.service.ListAlerts(context.Background(), testOrg, AlertFilter{Status: AlertStatusPending})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.Equal(t, int64(1), alerts[0].ItemID)
}
