package models

import (
	"fmt"

	"github.com/taskhive/backend/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	if err := setupJoinTables(db); err != nil {
		return err
	}

	DB = db
	return nil
}

// setupJoinTables binds the explicit join models so membership and
// assignment sets keep their composite unique indexes.
func setupJoinTables(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Project{}, "Members", &ProjectMember{}); err != nil {
		return err
	}
	return db.SetupJoinTable(&Task{}, "Assignees", &TaskAssignee{})
}

func AutoMigrate() error {
	return DB.AutoMigrate(
		&User{},
		&Project{},
		&ProjectMember{},
		&JoinRequest{},
		&Task{},
		&TaskAssignee{},
		&Comment{},
		&Attachment{},
		&Activity{},
	)
}

func GetDB() *gorm.DB {
	return DB
}
