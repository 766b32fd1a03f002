package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/BudHamud/safe/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Manager owns the gorm connection and the migration source
type Manager struct {
	db         *gorm.DB
	url        string
	migrations string
}

// NewManager opens the postgres connection pool
func NewManager(config *Config) (*Manager, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  config.DSN(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Manager{db: db, url: config.URL(), migrations: config.MigrationsPath}, nil
}

// RunMigrations applies pending SQL migrations.
func (m *Manager) RunMigrations() error {
	return m.migrate(func(mig *migrate.Migrate) error { return mig.Up() })
}

// RollbackMigration reverts the most recent migration.
func (m *Manager) RollbackMigration() error {
	return m.migrate(func(mig *migrate.Migrate) error { return mig.Steps(-1) })
}

func (m *Manager) migrate(step func(*migrate.Migrate) error) error {
	log := logger.Get()
	log.Infow("Running database migrations", "source", m.migrations)

	mig, err := migrate.New(m.migrations, m.url)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := mig.Close()
		if srcErr != nil {
			log.Warnf("migrate source close error: %v", srcErr)
		}
		if dbErr != nil {
			log.Warnf("migrate database close error: %v", dbErr)
		}
	}()

	if err := step(mig); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Info("Database migrations completed successfully")
	return nil
}

// DB returns the underlying GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Close releases the connection pool
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
