// internal/service/inventory/infrastructure/mapper.go
package infrastructure

import "stocknexus/internal/service/inventory/domain"

// 数据库模型与领域模型之间的转换函数

func toDomainRecord(model *InventoryModel) *domain.InventoryRecord {
	return &domain.InventoryRecord{
		ProductID:         model.ProductID,
		ProductName:       model.ProductName,
		QuantityAvailable: model.QuantityAvailable,
		QuantityReserved:  model.QuantityReserved,
		ReorderLevel:      model.ReorderLevel,
		Version:           model.Version,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
}

func toInventoryModel(record *domain.InventoryRecord) *InventoryModel {
	return &InventoryModel{
		ProductID:         record.ProductID,
		ProductName:       record.ProductName,
		QuantityAvailable: record.QuantityAvailable,
		QuantityReserved:  record.QuantityReserved,
		ReorderLevel:      record.ReorderLevel,
		Version:           record.Version,
	}
}

func toDomainReservation(model *ReservationModel) *domain.Reservation {
	return &domain.Reservation{
		OrderID:   model.OrderID,
		ProductID: model.ProductID,
		Quantity:  model.Quantity,
		CreatedAt: model.CreatedAt,
	}
}

func toReservationModel(reservation *domain.Reservation) *ReservationModel {
	return &ReservationModel{
		OrderID:   reservation.OrderID,
		ProductID: reservation.ProductID,
		Quantity:  reservation.Quantity,
	}
}
