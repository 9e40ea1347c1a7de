package reorder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stockpilot-erp/stockpilot/internal/catalog"
)

func TestGetSuggestionsInclusionRule(t *testing.T) {
	f := newFixture()
	f.addItem(catalog.Item{ID: 1, SKU: "A-001", Name: "Low item", CostPrice: 10, ReorderLevel: 20, ReorderQty: 50})
	f.addStock(1, 1, 15, 0)
	f.addItem(catalog.Item{ID: 2, SKU: "B-001", Name: "Healthy item", CostPrice: 5, ReorderLevel: 20})
	f.addStock(2, 1, 100, 0)
	f.addItem(catalog.Item{ID: 3, SKU: "C-001", Name: "No level", CostPrice: 5, ReorderLevel: 0})
	f.addStock(3, 1, 0, 0)

	suggestions, err := f.service.GetSuggestions(context.Background(), testOrg)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	require.Equal(t, int64(1), suggestions[0].ItemID)
	require.Equal(t, float64(50), suggestions[0].SuggestedQty)
	require.Equal(t, float64(500), suggestions[0].EstimatedCost)
}

func TestGetSuggestionsBoundaryAndCommitted(t *testing.T) {
	f := newFixture()
	// Available exactly at the level is included.
	f.addItem(catalog.Item{ID: 1, SKU: "A-001", Name: "At level", ReorderLevel: 20})
	f.addStock(1, 1, 20, 0)
	// Committed stock pulls an otherwise healthy item below its level.
	f.addItem(catalog.Item{ID: 2, SKU: "B-001", Name: "Committed", ReorderLevel: 20})
	f.addStock(2, 1, 30, 15)

	suggestions, err := f.service.GetSuggestions(context.Background(), testOrg)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
}

func TestGetSuggestionsDefaultQtyIsTwiceLevel(t *testing.T) {
	f := newFixture()
	f.addItem(catalog.Item{ID: 1, SKU: "A-001", Name: "No qty", ReorderLevel: 25, ReorderQty: 0})
	f.addStock(1, 1, 10, 0)

	suggestions, err := f.service.GetSuggestions(context.Background(), testOrg)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	require.Equal(t, float64(50), suggestions[0].SuggestedQty)
}

func TestGetSuggestionsExplicitSettingsOverrideItemDefaults(t *testing.T) {
	f := newFixture()
	f.addItem(catalog.Item{ID: 1, SKU: "A-001", Name: "Overridden", ReorderLevel: 5, ReorderQty: 10})
	f.addStock(1, 1, 8, 0)

	level, qty := 20.0, 75.0
	_, err := f.repo.UpsertSettings(context.Background(), testOrg, 1, 0, SettingsPatch{ReorderLevel: &level, ReorderQty: &qty})
	require.NoError(t, err)

	suggestions, err := f.service.GetSuggestions(context.Background(), testOrg)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	require.Equal(t, float64(20), suggestions[0].ReorderLevel)
	require.Equal(t, float64(75), suggestions[0].SuggestedQty)
}

func TestGetSuggestionsOrderedByShortfall(t *testing.T) {
	f := newFixture()
	f.addItem(catalog.Item{ID: 1, SKU: "A-001", Name: "Mildly low", ReorderLevel: 20})
	f.addStock(1, 1, 18, 0)
	f.addItem(catalog.Item{ID: 2, SKU: "B-001", Name: "Out of stock", ReorderLevel: 20})
	f.addStock(2, 1, 0, 0)

	suggestions, err := f.service.GetSuggestions(context.Background(), testOrg)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	require.Equal(t, int64(2), suggestions[0].ItemID)
	require.Equal(t, int64(1), suggestions[1].ItemID)
}

func TestGetSuggestionsAggregatesWarehouses(t *testing.T) {
	f := newFixture()
	f.addItem(catalog.Item{ID: 1, SKU: "A-001", Name: "Spread", ReorderLevel: 20})
	f.addStock(1, 1, 5, 0)
	f.addStock(1, 2, 30, 0)

	suggestions, err := f.service.GetSuggestions(context.Background(), testOrg)
	require.NoError(t, err)
	require.Empty(t, suggestions, "total across warehouses is above the level")
}

func TestGetSuggestionsPositionsCarryWarehouseCodes(t *testing.T) {
	f := newFixture()
	f.addItem(catalog.Item{ID: 1, SKU: "A-001", Name: "Spread", ReorderLevel: 20})
	f.addWarehouse(1, "MAIN")
	f.addWarehouse(2, "EAST")
	f.addStock(1, 1, 5, 0)
	f.addStock(1, 2, 3, 0)

	suggestions, err := f.service.GetSuggestions(context.Background(), testOrg)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	require.Len(t, suggestions[0].Positions, 2)
	require.Equal(t, "MAIN", suggestions[0].Positions[0].WarehouseCode)
	require.Equal(t, "EAST", suggestions[0].Positions[1].WarehouseCode)
}
