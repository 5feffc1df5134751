package database

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"DemoHub/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQuery = 200 * time.Millisecond

// Open connects to the configured driver. Timestamps are stored in UTC and
// unique violations are translated to gorm.ErrDuplicatedKey. Failed and slow
// queries go to log; a missing row is not a failure.
func Open(driver, dsn string, log *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	gormLog := logger.NewSlogLogger(log.With(slog.String("component", "db")), logger.Config{
		SlowThreshold:             slowQuery,
		IgnoreRecordNotFoundError: true,
		LogLevel:                  logger.Warn,
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return db, nil
}

// Migrate creates or updates every table the server owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Chat{}, &models.Message{}, &models.ModelInfo{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// OpenAndMigrate is the startup path used by main.
func OpenAndMigrate(driver, dsn string, log *slog.Logger) (*gorm.DB, error) {
	db, err := Open(driver, dsn, log)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("database ready", slog.String("driver", driver))
	return db, nil
}

// OpenMemory returns a migrated private in-memory sqlite database that logs
// nowhere.
func OpenMemory() (*gorm.DB, error) {
	return openMemory(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// openMemory pins the pool to one connection because every sqlite :memory:
// connection is a separate database.
func openMemory(log *slog.Logger) (*gorm.DB, error) {
	db, err := Open("sqlite", ":memory:", log)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
