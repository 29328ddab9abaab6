package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrateOptions selects the schema and how far to move it.
type MigrateOptions struct {
	Driver           string // postgres or mysql
	ConnectionString string
	Dir              string // root holding postgresql/ and mysql/, default "migrations"
	Steps            int    // 0 applies every pending migration, negative rolls back
}

// RunMigrations migrates the api_keys schema. An up-to-date schema is not an error.
func RunMigrations(logger *slog.Logger, opts MigrateOptions) error {
	sourceURL, databaseURL, err := migrationURLs(opts)
	if err != nil {
		return err
	}

	logger.Info("running database migrations",
		slog.String("driver", opts.Driver),
		slog.String("source", sourceURL),
		slog.Int("steps", opts.Steps))

	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	if opts.Steps == 0 {
		err = m.Up()
	} else {
		err = m.Steps(opts.Steps)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Info("migrations completed, schema is empty")
	case err != nil:
		return fmt.Errorf("failed to read migration version: %w", err)
	default:
		logger.Info("migrations completed successfully",
			slog.Uint64("version", uint64(version)),
			slog.Bool("dirty", dirty))
	}
	return nil
}

// migrationURLs builds the golang-migrate source and database URLs for opts.
func migrationURLs(opts MigrateOptions) (string, string, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "migrations"
	}

	switch opts.Driver {
	case "postgres":
		return "file://" + filepath.ToSlash(filepath.Join(dir, "postgresql")), opts.ConnectionString, nil
	case "mysql":
		databaseURL := opts.ConnectionString
		if !strings.HasPrefix(databaseURL, "mysql://") {
			databaseURL = "mysql://" + databaseURL
		}
		return "file://" + filepath.ToSlash(filepath.Join(dir, "mysql")), databaseURL, nil
	default:
		return "", "", fmt.Errorf("unsupported database driver: %s", opts.Driver)
	}
}
