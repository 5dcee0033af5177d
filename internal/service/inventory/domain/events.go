// internal/service/inventory/domain/events.go
package domain

import (
	"errors"
	"time"
)

// 订单域发布的三个事件 topic，按 orderId 分区，同一订单的事件保证有序
const (
	TopicOrderCreated   = "order.created"
	TopicOrderUpdated   = "order.updated"
	TopicOrderCancelled = "order.cancelled"
)

// OrderEvent 是订单域事件的统一载荷。
// 字段与订单服务发布的 JSON 对齐，不同事件只填自己关心的字段。
type OrderEvent struct {
	EventID       string      `json:"eventId"`
	EventType     string      `json:"eventType"`
	CorrelationID string      `json:"correlationId"`
	Timestamp     time.Time   `json:"timestamp"`
	OrderID       int64       `json:"orderId"`
	ProductID     int64       `json:"productId,omitempty"`
	ProductName   string      `json:"productName,omitempty"`
	Quantity      int         `json:"quantity,omitempty"`
	Status        OrderStatus `json:"status,omitempty"`
	PreviousStatus OrderStatus `json:"previousStatus,omitempty"`
}

// ErrMalformedEvent 载荷缺少必要字段，属于结构性坏消息，直接进死信
var ErrMalformedEvent = errors.New("malformed order event")

// ValidateCreated 校验 order.created 事件必要字段
func (e *OrderEvent) ValidateCreated() error {
	if e.OrderID == 0 || e.ProductID == 0 || e.Quantity <= 0 {
		return ErrMalformedEvent
	}
	return nil
}

// ValidateUpdated 校验 order.updated 事件必要字段
func (e *OrderEvent) ValidateUpdated() error {
	if e.OrderID == 0 || e.Status == "" {
		return ErrMalformedEvent
	}
	return nil
}

// ValidateCancelled 校验 order.cancelled 事件必要字段
func (e *OrderEvent) ValidateCancelled() error {
	if e.OrderID == 0 {
		return ErrMalformedEvent
	}
	return nil
}
