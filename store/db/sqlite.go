package db

import (
	"context"
	"database/sql"
	"embed"
	"os"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/irc-library/maktaba/config"
	"github.com/irc-library/maktaba/version"
)

type DB struct {
	*sql.DB
}

func NewDB(path string) (*DB, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}

	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	return &DB{d}, nil
}

func (d *DB) Close() error {
	return d.DB.Close()
}

//go:embed migration
var migrationFS embed.FS

const latestSchemaFileName = "LATEST_SCHEMA.sql"

// Migrate applies the latest schema to the database.
func (d *DB) Migrate(ctx context.Context) error {
	currentVersion := version.GetCurrentVersion()

	if _, err := os.Stat(config.Opts.DSN); err != nil {
		// If the db file does not exist, create a new one with latest schema
		if !errors.Is(err, os.ErrNotExist) {
			return errors.Wrap(err, "failed to check database file")
		}
		if err := d.applyLatestSchema(ctx); err != nil {
			return errors.Wrap(err, "failed to apply latest schema")
		}
		if _, err := d.UpsertMigrationHistory(ctx, currentVersion); err != nil {
			return errors.Wrap(err, "failed to upsert migration history")
		}
		return nil
	}

	exist, err := d.checkTableExists(ctx, "migration_history")
	if err != nil {
		return errors.Wrap(err, "failed to check database table")
	}
	if !exist {
		// Pre-history database file, apply the schema from scratch: every
		// statement is CREATE IF NOT EXISTS so existing rows survive.
		if err := d.applyLatestSchema(ctx); err != nil {
			return errors.Wrap(err, "failed to apply latest schema")
		}
	} else {
		histories, err := d.FindMigrationHistoryList(ctx, &FindMigrationHistory{})
		if err != nil {
			return errors.Wrap(err, "failed to read migration history")
		}
		// Patch releases share a schema; only a minor bump records a new
		// history row.
		if len(histories) > 0 && version.GetSchemaVersion(histories[0].Version) == version.GetSchemaVersion(currentVersion) {
			return nil
		}
	}
	if _, err := d.UpsertMigrationHistory(ctx, currentVersion); err != nil {
		return errors.Wrap(err, "failed to upsert migration history")
	}
	return nil
}

func (d *DB) applyLatestSchema(ctx context.Context) error {
	buf, err := migrationFS.ReadFile("migration/" + latestSchemaFileName)
	if err != nil {
		return errors.Wrapf(err, "failed to read latest schema file: %q", latestSchemaFileName)
	}

	stmt := string(buf)
	if err := d.execute(ctx, stmt); err != nil {
		return errors.Wrapf(err, "failed to apply latest schema: %s", stmt)
	}
	return nil
}

func (d *DB) checkTableExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	stmt := `SELECT EXISTS(SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?)`
	if err := d.DB.QueryRowContext(ctx, stmt, name).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// execute runs a single SQL statement within a transaction.
func (d *DB) execute(ctx context.Context, stmt string) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "failed to execute statement")
	}

	return tx.Commit()
}
