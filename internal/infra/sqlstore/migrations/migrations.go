package migrations

import (
	"context"
	"log"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/migrate"
)

var Migrations = migrate.NewMigrations()

// Apply creates the migration tables if needed and runs pending migrations.
func Apply(ctx context.Context, db *bun.DB) error {
	migrator := migrate.NewMigrator(db, Migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Printf("no new migrations")
		return nil
	}
	log.Printf("migrations applied: %s", group)
	return nil
}

// columnTypes returns the identity, timestamp and JSON column types of the dialect.
func columnTypes(db *bun.DB) (identity, timestamp, json string) {
	if db.Dialect().Name() == dialect.PG {
		return "BIGSERIAL PRIMARY KEY", "TIMESTAMPTZ", "JSONB"
	}
	return "INTEGER PRIMARY KEY", "TIMESTAMP", "TEXT"
}
