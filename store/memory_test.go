package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotaflow/quota-engine/core"
)

func sampleState() core.State {
	return core.State{
		Stores: []core.Store{{
			ID:            "s1",
			StoreName:     "达里奥",
			CompanyName:   "杭州达里奥贸易有限公司",
			QuarterIncome: core.MoneyFromInt(500000),
			TaxType:       core.TaxSmallScale,
		}},
		Suppliers: []core.Supplier{{
			ID:             "p1",
			Name:           "安吉皓翔家具经营部",
			Owner:          "雷超",
			Type:           core.SupplierIndividual,
			QuarterlyLimit: core.StatutoryQuarterlyLimit,
			Status:         core.StatusActive,
		}},
		CurrentQuarter:    "2025Q3",
		AvailableQuarters: []core.QuarterID{"2025Q3"},
		FactoryOwners:     []string{"雷超"},
	}
}

func TestMemory_RoundTrip(t *testing.T) {
	// GIVEN an empty memory store
	m := NewMemory()
	ctx := context.Background()

	// THEN Load reports no saved state
	_, found, err := m.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	// WHEN a state is saved
	state := sampleState()
	require.NoError(t, m.Save(ctx, state))

	// THEN Load returns an equal state
	got, found, err := m.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, state.CurrentQuarter, got.CurrentQuarter)
	assert.Equal(t, state.Stores, got.Stores)
	assert.Equal(t, state.Suppliers, got.Suppliers)
	assert.Equal(t, state.FactoryOwners, got.FactoryOwners)
}

func TestMemory_LoadReturnsCopy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Save(ctx, sampleState()))

	got, _, err := m.Load(ctx)
	require.NoError(t, err)
	got.Stores[0].StoreName = "mutated"

	again, _, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "达里奥", again.Stores[0].StoreName, "callers must not be able to mutate stored state")
}

func TestFallback_WritesFileWhenPrimaryFails(t *testing.T) {
	// GIVEN a primary store that rejects saves
	m := NewMemory()
	m.FailSaves = errors.New("disk full")
	path := filepath.Join(t.TempDir(), "fallback.json")
	f := NewFallback(m, path, zerolog.Nop())

	// WHEN a save goes through the wrapper
	state := sampleState()
	err := f.Save(context.Background(), state)

	// THEN the primary error surfaces but the file holds the state
	require.Error(t, err)
	data, rerr := os.ReadFile(path)
	require.NoError(t, rerr)

	var got core.State
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, core.QuarterID("2025Q3"), got.CurrentQuarter)
	assert.Equal(t, "雷超", got.Suppliers[0].Owner)
}

func TestFallback_NoFileWhenPrimarySucceeds(t *testing.T) {
	m := NewMemory()
	path := filepath.Join(t.TempDir(), "fallback.json")
	f := NewFallback(m, path, zerolog.Nop())

	require.NoError(t, f.Save(context.Background(), sampleState()))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
