package storage

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tutor_room/internal/models"
	"tutor_room/pkg/config"
)

// PostgresDB 包裝 gorm 連線，倉儲層以此為唯一的資料庫入口
type PostgresDB struct {
	*gorm.DB
}

// NewPostgresDB 依配置建立 postgres 連線
func NewPostgresDB(cfg config.DBConfig) (*PostgresDB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode, cfg.TimeZone)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("連接資料庫失敗: %v", err)
	}

	return &PostgresDB{DB: db}, nil
}

func (db *PostgresDB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate 建立或更新即時教室子系統的所有資料表
func (db *PostgresDB) Migrate() error {
	return db.DB.AutoMigrate(
		&models.User{},
		&models.Room{},
		&models.WhiteboardStroke{},
		&models.ChatMessage{},
		&models.Notification{},
	)
}
