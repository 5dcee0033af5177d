package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderEvent_DecodeOrderServicePayload(t *testing.T) {
	// 字段名必须与订单服务发布的 JSON 保持兼容
	payload := `{
		"eventId": "evt-8801",
		"eventType": "ORDER_CREATED",
		"correlationId": "corr-42",
		"timestamp": "2026-08-30T12:00:00Z",
		"orderId": 7001,
		"productId": 100,
		"quantity": 20
	}`

	var event OrderEvent
	require.NoError(t, json.Unmarshal([]byte(payload), &event))
	assert.Equal(t, int64(7001), event.OrderID)
	assert.Equal(t, int64(100), event.ProductID)
	assert.Equal(t, 20, event.Quantity)
	assert.Equal(t, "corr-42", event.CorrelationID)
	assert.NoError(t, event.ValidateCreated())
}

func TestOrderEvent_ValidateCreated(t *testing.T) {
	tests := []struct {
		name  string
		event OrderEvent
		valid bool
	}{
		{"complete", OrderEvent{OrderID: 1, ProductID: 2, Quantity: 3}, true},
		{"missing order id", OrderEvent{ProductID: 2, Quantity: 3}, false},
		{"missing product id", OrderEvent{OrderID: 1, Quantity: 3}, false},
		{"zero quantity", OrderEvent{OrderID: 1, ProductID: 2}, false},
		{"negative quantity", OrderEvent{OrderID: 1, ProductID: 2, Quantity: -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.ValidateCreated()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrMalformedEvent))
			}
		})
	}
}

func TestOrderEvent_ValidateUpdated(t *testing.T) {
	assert.NoError(t, (&OrderEvent{OrderID: 1, Status: StatusShipped}).ValidateUpdated())
	assert.Error(t, (&OrderEvent{OrderID: 1}).ValidateUpdated())
	assert.Error(t, (&OrderEvent{Status: StatusShipped}).ValidateUpdated())
}

func TestOrderEvent_ValidateCancelled(t *testing.T) {
	assert.NoError(t, (&OrderEvent{OrderID: 1}).ValidateCancelled())
	assert.Error(t, (&OrderEvent{}).ValidateCancelled())
}
