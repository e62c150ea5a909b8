package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	_ "github.com/glebarez/go-sqlite" // Pure Go SQLite driver
	_ "github.com/lib/pq"             // Postgres driver
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gmsas95/medtrack/internal/config"
)

// Store provides unified access to the relational store and BadgerDB
type Store struct {
	db     *gorm.DB
	sqlDB  *sql.DB
	badger *badger.DB
}

// New opens the configured relational database, migrates it and opens the
// Badger event journal.
func New(cfg *config.StorageConfig) (*Store, error) {
	sqlDB, dialector, err := openSQL(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to open %s: %w", cfg.Driver, err)
	}

	if err := db.AutoMigrate(
		&ScheduleModel{},
		&ScheduleSlot{},
		&AdherenceModel{},
	); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	badgerOpts := badger.DefaultOptions(cfg.BadgerPath).
		WithLogger(nil).
		WithNumVersionsToKeep(1).
		WithCompactL0OnClose(true).
		WithValueLogFileSize(16 << 20).
		WithMemTableSize(16 << 20)
	if cfg.BadgerPath == "" {
		badgerOpts = badgerOpts.WithInMemory(true)
	}

	badgerDB, err := badger.Open(badgerOpts)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	return &Store{
		db:     db,
		sqlDB:  sqlDB,
		badger: badgerDB,
	}, nil
}

func openSQL(cfg *config.StorageConfig) (*sql.DB, gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		sqlDB, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(time.Hour)
		return sqlDB, postgres.New(postgres.Config{Conn: sqlDB}), nil

	case "sqlite", "":
		path := cfg.SQLitePath
		if path == "" {
			path = ":memory:"
		}
		sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		if path == ":memory:" {
			// Every connection to :memory: is a separate database.
			sqlDB.SetMaxOpenConns(1)
			sqlDB.SetMaxIdleConns(1)
			sqlDB.SetConnMaxLifetime(0)
		} else {
			sqlDB.SetMaxOpenConns(10)
			sqlDB.SetMaxIdleConns(5)
			sqlDB.SetConnMaxLifetime(time.Hour)
		}
		return sqlDB, sqlite.Dialector{Conn: sqlDB}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// Close closes all database connections
func (s *Store) Close() error {
	berr := s.badger.Close()
	if err := s.sqlDB.Close(); err != nil {
		return err
	}
	return berr
}

// Ping checks the relational connection.
func (s *Store) Ping() error {
	return s.sqlDB.Ping()
}
