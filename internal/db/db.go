// Package db manages the MySQL connection and schema migration.
package db

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/herniaclinic/clinic-chat/internal/data"
)

// New opens a GORM handle against MySQL, tunes the pool, and migrates the
// schema. The DSN comes from configuration; a missing DSN is a startup
// error, not a default.
func New(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is not set")
	}

	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:      gormlogger.Default.LogMode(gormlogger.Warn),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to MySQL: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("sql.DB error: %w", err)
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return gdb, nil
}

// Migrate creates or updates the schema for every model, including the
// unique email indexes and the foreign keys (message->conversation and
// appointment->client cascade, conversation->client set-null,
// slot->schedule and schedule->user cascade).
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&data.User{},
		&data.Client{},
		&data.Conversation{},
		&data.Message{},
		&data.Appointment{},
		&data.Schedule{},
		&data.ScheduleSlot{},
	)
}

// Close releases the underlying connection pool.
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
