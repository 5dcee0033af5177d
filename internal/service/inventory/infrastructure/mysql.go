// internal/service/inventory/infrastructure/mysql.go
package infrastructure

import (
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"stocknexus/internal/pkg/logger"
)

// NewDB 初始化 MySQL 连接并迁移库存相关的表。
// 建表交给 AutoMigrate，schema 版本管理不在本服务范围内。
func NewDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&InventoryModel{}, &ReservationModel{}); err != nil {
		return nil, err
	}

	logger.Logger.Info().Msg("✅ Connected to inventory database")
	return db, nil
}
