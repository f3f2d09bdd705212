package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
)

// SchemaVersion is the current bundle schema version.
const SchemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

-- One row per (model, neuron, checkpoint); arrays are stored as JSON.
CREATE TABLE IF NOT EXISTS checkpoints (
    model TEXT NOT NULL,
    layer INTEGER NOT NULL,
    neuron INTEGER NOT NULL,
    step INTEGER NOT NULL,
    text_examples TEXT NOT NULL,
    cluster_labels TEXT NOT NULL,
    PRIMARY KEY (model, layer, neuron, step)
);
CREATE INDEX IF NOT EXISTS idx_checkpoints_model ON checkpoints(model);
`

// InitSchema creates the bundle tables and records the schema version.
// It refuses bundles written by a newer schema.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	version, err := schemaVersion(ctx, db)
	if err != nil {
		return err
	}
	if version > SchemaVersion {
		return fmt.Errorf("bundle schema version %d is newer than supported version %d", version, SchemaVersion)
	}
	if version == SchemaVersion {
		return nil
	}

	_, err = db.ExecContext(ctx,
		`INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)`,
		strconv.Itoa(SchemaVersion))
	if err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}

// schemaVersion returns the recorded version, or 0 for a fresh database.
func schemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid schema version %q: %w", value, err)
	}
	return v, nil
}
