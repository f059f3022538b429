package main

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lingocall/internal/config"
	"lingocall/internal/repository"
	"lingocall/internal/repository/postgres"
	"lingocall/internal/repository/sqlite"

	"github.com/golang-migrate/migrate/v4"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// stores are the durable repositories of the configured driver
type stores struct {
	db       *sql.DB
	vocab    repository.VocabularyRepository
	learners repository.LearnerRepository
	contacts repository.ContactRepository
}

func (s *stores) Close() error {
	return s.db.Close()
}

// openStores connects to the configured database and brings its schema up to date
func openStores(cfg *config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.Store.Driver == config.DriverSQLite {
		db, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("SQLite store opened", zap.String("path", cfg.Store.SQLitePath))
		return &stores{
			db:       db,
			vocab:    sqlite.NewVocabRepo(db),
			learners: sqlite.NewLearnerRepo(db),
			contacts: sqlite.NewContactRepo(db),
		}, nil
	}

	db, err := connectDatabase(cfg.DSN(), logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Database connection established")

	if err := runMigrations(db, logger); err != nil {
		db.Close()
		return nil, err
	}

	return &stores{
		db:       db,
		vocab:    postgres.NewVocabRepo(db),
		learners: postgres.NewLearnerRepo(db),
		contacts: postgres.NewContactRepo(db),
	}, nil
}

// connectDatabase connects to PostgreSQL with retries
func connectDatabase(dsn string, logger *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Warn("Failed to open database connection",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(retryDelay)
			continue
		}

		if err = db.Ping(); err != nil {
			logger.Warn("Failed to ping database",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			db.Close()
			time.Sleep(retryDelay)
			continue
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB, logger *zap.Logger) error {
	driver, err := postgresdb.WithInstance(db, &postgresdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(migrationsURL, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Migrations applied successfully")
	return nil
}
