package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryRecord_Reserve(t *testing.T) {
	record := &InventoryRecord{ProductID: 100, QuantityAvailable: 50, QuantityReserved: 10}

	require.NoError(t, record.Reserve(20))
	assert.Equal(t, 30, record.QuantityAvailable)
	assert.Equal(t, 30, record.QuantityReserved)
}

func TestInventoryRecord_Reserve_InsufficientStock(t *testing.T) {
	record := &InventoryRecord{ProductID: 100, QuantityAvailable: 5, QuantityReserved: 0}

	err := record.Reserve(10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	// 失败不能留下任何半程变更
	assert.Equal(t, 5, record.QuantityAvailable)
	assert.Equal(t, 0, record.QuantityReserved)
}

func TestInventoryRecord_Reserve_ExactlyAvailable(t *testing.T) {
	record := &InventoryRecord{ProductID: 100, QuantityAvailable: 10}

	require.NoError(t, record.Reserve(10))
	assert.Equal(t, 0, record.QuantityAvailable)
	assert.Equal(t, 10, record.QuantityReserved)
}

func TestInventoryRecord_Release(t *testing.T) {
	record := &InventoryRecord{ProductID: 100, QuantityAvailable: 30, QuantityReserved: 30}

	require.NoError(t, record.Release(20))
	assert.Equal(t, 50, record.QuantityAvailable)
	assert.Equal(t, 10, record.QuantityReserved)
}

func TestInventoryRecord_Release_MoreThanReserved(t *testing.T) {
	record := &InventoryRecord{ProductID: 100, QuantityAvailable: 30, QuantityReserved: 5}

	err := record.Release(10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.Equal(t, 30, record.QuantityAvailable)
	assert.Equal(t, 5, record.QuantityReserved)
}

func TestInventoryRecord_Confirm(t *testing.T) {
	record := &InventoryRecord{ProductID: 100, QuantityAvailable: 30, QuantityReserved: 30}

	// 发货确认：货物永久离开库存，available 不回补
	require.NoError(t, record.Confirm(20))
	assert.Equal(t, 30, record.QuantityAvailable)
	assert.Equal(t, 10, record.QuantityReserved)
}

func TestInventoryRecord_Confirm_MoreThanReserved(t *testing.T) {
	record := &InventoryRecord{ProductID: 100, QuantityReserved: 5}

	err := record.Confirm(10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidState))
}

func TestInventoryRecord_NeedsReorder(t *testing.T) {
	tests := []struct {
		name      string
		available int
		reserved  int
		level     int
		want      bool
	}{
		{"well stocked", 50, 10, 10, false},
		{"at level", 5, 5, 10, true},
		{"below level", 2, 1, 10, true},
		{"empty", 0, 0, 10, true},
		{"zero level never triggers with stock", 1, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := &InventoryRecord{
				QuantityAvailable: tt.available,
				QuantityReserved:  tt.reserved,
				ReorderLevel:      tt.level,
			}
			assert.Equal(t, tt.want, record.NeedsReorder())
		})
	}
}
