// Package store is the persistence layer: one repository method per
// operation the conversation engine needs, backed by a shared database so
// every service instance observes the same state.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/models"
)

// Store wraps the shared database handle.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger

	// now is swappable for deterministic expiry tests.
	now func() time.Time
}

// Open connects to postgres when databaseURL is set, otherwise to a local
// sqlite file under dataDir, and migrates the schema.
func Open(databaseURL, dataDir string) (*Store, error) {
	lg := zerolog.New(os.Stdout).With().Timestamp().Str("component", "Store").Logger()

	var (
		db  *gorm.DB
		err error
	)
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	}

	if databaseURL != "" {
		db, err = gorm.Open(postgres.Open(databaseURL), gormCfg)
		lg.Info().Msg("connecting to postgres")
	} else {
		if mkErr := os.MkdirAll(dataDir, 0o755); mkErr != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", mkErr)
		}
		path := filepath.Join(dataDir, "temple.db")
		db, err = gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), gormCfg)
		lg.Info().Str("path", path).Msg("connecting to local sqlite")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if databaseURL == "" {
		// sqlite tolerates one writer; serialize through a single conn.
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	s := &Store{db: db, log: lg, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenTest opens an isolated in-memory database for tests. The database
// is named so every pooled connection sees the same data.
func OpenTest() (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if sqlDB, dbErr := db.DB(); dbErr == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	s := &Store{db: db, log: zerolog.Nop(), now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	err := s.db.AutoMigrate(
		&models.Devotee{},
		&models.Session{},
		&models.LanguagePreference{},
		&models.ProcessedMessage{},
		&models.BookingCounter{},
		&models.Booking{},
		&models.AdminUser{},
		&models.AdminSession{},
		&models.AuditEntry{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// SetNow overrides the clock; tests only.
func (s *Store) SetNow(now func() time.Time) { s.now = now }

// DB exposes the underlying handle for migrations and tests.
func (s *Store) DB() *gorm.DB { return s.db }
