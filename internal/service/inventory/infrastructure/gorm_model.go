// internal/service/inventory/infrastructure/gorm_model.go
package infrastructure

import "time"

// InventoryModel 对应台账表 inventory
type InventoryModel struct {
	ID                int64     `gorm:"primaryKey;autoIncrement"`
	ProductID         int64     `gorm:"column:product_id;uniqueIndex:idx_product_id;not null"`
	ProductName       string    `gorm:"column:product_name;size:255;not null"`
	QuantityAvailable int       `gorm:"column:quantity_available;not null"`
	QuantityReserved  int       `gorm:"column:quantity_reserved;not null"`
	ReorderLevel      int       `gorm:"column:reorder_level;not null"`
	Version           int64     `gorm:"column:version;not null;default:0"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime;index:idx_updated_at"`
}

func (InventoryModel) TableName() string {
	return "inventory"
}

// ReservationModel 对应幂等见证表 inventory_reservations。
// order_id 上的唯一键是重复投递竞态的最后一道防线。
type ReservationModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	OrderID   int64     `gorm:"column:order_id;uniqueIndex:idx_order_id;not null"`
	ProductID int64     `gorm:"column:product_id;index:idx_res_product_id;not null"`
	Quantity  int       `gorm:"column:quantity;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ReservationModel) TableName() string {
	return "inventory_reservations"
}
