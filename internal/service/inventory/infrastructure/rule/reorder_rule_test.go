package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocknexus/internal/service/inventory/domain"
)

func TestCELReorderPolicy_DefaultExpression(t *testing.T) {
	policy, err := NewCELReorderPolicy("")
	require.NoError(t, err)
	assert.Equal(t, DefaultExpression, policy.Expression())

	tests := []struct {
		name      string
		available int
		reserved  int
		level     int
		want      bool
	}{
		{"well stocked", 50, 10, 10, false},
		{"at level", 6, 4, 10, true},
		{"below level", 1, 0, 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			needs, err := policy.Evaluate(&domain.InventoryRecord{
				QuantityAvailable: tt.available,
				QuantityReserved:  tt.reserved,
				ReorderLevel:      tt.level,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, needs)
		})
	}
}

func TestCELReorderPolicy_CustomExpression(t *testing.T) {
	// 只看可用量、忽略在途预留的自定义规则
	policy, err := NewCELReorderPolicy("available < reorder_level")
	require.NoError(t, err)

	needs, err := policy.Evaluate(&domain.InventoryRecord{QuantityAvailable: 3, QuantityReserved: 100, ReorderLevel: 10})
	require.NoError(t, err)
	assert.True(t, needs)

	needs, err = policy.Evaluate(&domain.InventoryRecord{QuantityAvailable: 30, ReorderLevel: 10})
	require.NoError(t, err)
	assert.False(t, needs)
}

func TestCELReorderPolicy_RejectsInvalidExpression(t *testing.T) {
	_, err := NewCELReorderPolicy("available +")
	assert.Error(t, err)
}

func TestCELReorderPolicy_RejectsNonBoolExpression(t *testing.T) {
	_, err := NewCELReorderPolicy("available + reserved")
	assert.Error(t, err)
}

func TestCELReorderPolicy_RejectsUnknownVariable(t *testing.T) {
	_, err := NewCELReorderPolicy("warehouse_total <= reorder_level")
	assert.Error(t, err)
}
