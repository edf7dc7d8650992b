// package database provides database connection management.
package database

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vigiads/vigia/internal/models"
)

// DB wraps a GORM instance over sqlite or postgresql.
type DB struct {
	GORM *gorm.DB
}

// New opens a database by URL. postgres:// URLs use the postgresql driver,
// anything else is treated as a sqlite path or file: URL.
func New(databaseURL string) (*DB, error) {
	dialector, err := dialectorFor(databaseURL)
	if err != nil {
		return nil, err
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// sqlite allows one writer; a larger pool would also split an
	// in-memory database across connections
	if _, ok := dialector.(*sqlite.Dialector); ok {
		sqlDB, err := gormDB.DB()
		if err != nil {
			return nil, fmt.Errorf("access connection pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return &DB{GORM: gormDB}, nil
}

// Migrate creates or updates the schema for all persisted models.
func (db *DB) Migrate() error {
	if err := db.GORM.AutoMigrate(&models.AdRecord{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	sqlDB, err := db.GORM.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks if the database is reachable.
func (db *DB) Ping() error {
	sqlDB, err := db.GORM.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func dialectorFor(databaseURL string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.Open(databaseURL), nil
	case databaseURL == "":
		return nil, fmt.Errorf("database url is empty")
	default:
		return sqlite.Open(strings.TrimPrefix(databaseURL, "file:")), nil
	}
}
