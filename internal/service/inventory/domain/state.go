// internal/service/inventory/domain/state.go
package domain

// OrderStatus 是订单域对外暴露的状态枚举，这里只消费不生产
type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusConfirmed  OrderStatus = "CONFIRMED"
	StatusPaid       OrderStatus = "PAID"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"
	StatusFailed     OrderStatus = "FAILED"
)

// ReservationAction 是状态变更映射到库存引擎的动作
type ReservationAction int

const (
	ActionNone ReservationAction = iota
	ActionConfirm
	ActionRelease
)

// statusTransitionActions 把 (previousStatus, newStatus) 显式映射为动作，
// 取代对 newStatus 的隐式 switch。动作只由 newStatus 决定（SHIPPED -> 确认，
// FAILED -> 释放），但把合法的前置状态列全，未列出的组合一律 ActionNone，
// 这样合法迁移集合一目了然，也便于测试穷举。
var statusTransitionActions = map[[2]OrderStatus]ReservationAction{
	{StatusConfirmed, StatusShipped}:  ActionConfirm,
	{StatusPaid, StatusShipped}:       ActionConfirm,
	{StatusProcessing, StatusShipped}: ActionConfirm,

	{StatusPending, StatusFailed}:    ActionRelease,
	{StatusConfirmed, StatusFailed}:  ActionRelease,
	{StatusPaid, StatusFailed}:       ActionRelease,
	{StatusProcessing, StatusFailed}: ActionRelease,
}

// ActionForTransition 查表返回状态迁移对应的库存动作。
// 对于表里没有但目标状态语义明确的迁移（乱序到达、跳过中间态），
// 仍按目标状态兜底，保证不落下确认/释放。
func ActionForTransition(previous, next OrderStatus) ReservationAction {
	if action, ok := statusTransitionActions[[2]OrderStatus{previous, next}]; ok {
		return action
	}
	switch next {
	case StatusShipped:
		return ActionConfirm
	case StatusFailed:
		return ActionRelease
	default:
		return ActionNone
	}
}
