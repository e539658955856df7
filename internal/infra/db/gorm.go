package db

import (
	"fmt"
	"time"

	"payrecon/internal/config"
	"payrecon/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{}
	if cfg.IsProd() {
		gcfg.Logger = logger.Default.LogMode(logger.Warn)
	}

	gormDB, err := gorm.Open(postgres.Open(cfg.DSN()), gcfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	//コネクションプール
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return gormDB, nil
}

// Migrate はテーブルとユニークインデックスを作る。
// 冪等性はインデックス頼みなので、起動前に必ず流す。
func Migrate(gormDB *gorm.DB) error {
	return gormDB.AutoMigrate(
		&model.Payment{},
		&model.Order{},
		&model.OrderItem{},
		&model.ActivityRecord{},
	)
}
