package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/anon96881/PythiaEvolution/internal/config"
	"github.com/anon96881/PythiaEvolution/internal/logging"
	"github.com/anon96881/PythiaEvolution/internal/neuron"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteSource reads series from a bundle written by Pack.
type SQLiteSource struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// OpenSQLiteSource opens an existing bundle read-only.
func OpenSQLiteSource(path string, logger *slog.Logger) (*SQLiteSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=query_only(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	version, err := schemaVersion(context.Background(), db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s is not a pythiaevo bundle: %w", path, err)
	}
	if version != SchemaVersion {
		db.Close()
		return nil, fmt.Errorf("%s has schema version %d, want %d", path, version, SchemaVersion)
	}

	return &SQLiteSource{db: db, path: path, logger: logging.Component(logger, "store")}, nil
}

// Load reads every checkpoint row for model. Rows that fail to decode are
// recorded in LoadErrors and drop their whole neuron.
func (s *SQLiteSource) Load(ctx context.Context, model config.ModelVariant) (*Dataset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT layer, neuron, step, text_examples, cluster_labels
		FROM checkpoints WHERE model = ?
		ORDER BY layer, neuron, step`, model.Key)
	if err != nil {
		return nil, fmt.Errorf("query checkpoints: %w", err)
	}
	defer rows.Close()

	ds := NewDataset(model)
	records := make(map[neuron.ID][]neuron.Record)
	bad := make(map[neuron.ID]bool)
	var order []neuron.ID

	for rows.Next() {
		var (
			id            neuron.ID
			step          int
			texts, labels string
		)
		if err := rows.Scan(&id.Layer, &id.Index, &step, &texts, &labels); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		if bad[id] {
			continue
		}
		if _, seen := records[id]; !seen {
			order = append(order, id)
			records[id] = nil
		}

		r := neuron.Record{Step: step}
		err := json.Unmarshal([]byte(texts), &r.TextExamples)
		if err == nil {
			err = json.Unmarshal([]byte(labels), &r.ClusterLabels)
		}
		if err == nil {
			err = r.Validate()
		}
		if err != nil {
			bad[id] = true
			ds.recordError(s.logger, s.path+"#"+SeriesFileName(id, model),
				&MalformedRecordError{File: s.path, Err: fmt.Errorf("step %d: %w", step, err)})
			continue
		}
		records[id] = append(records[id], r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkpoints: %w", err)
	}

	for _, id := range order {
		if bad[id] {
			continue
		}
		ds.Add(neuron.NewSeries(id, records[id]))
	}

	s.logger.Info("bundle loaded", "model", model.Key, "neurons", len(ds.IDs), "errors", len(ds.LoadErrors))

	if len(ds.IDs) == 0 {
		return ds, fmt.Errorf("%w for %s in %s", ErrNoData, model.Name, s.path)
	}
	return ds, nil
}

// Close closes the database.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

// Pack writes ds into the bundle at path, creating it if needed. Rows for
// ds.Model already in the bundle are replaced; other models are kept.
func Pack(ctx context.Context, path string, ds *Dataset) (int, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("creating directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return 0, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := InitSchema(ctx, db); err != nil {
		return 0, fmt.Errorf("failed to initialize schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM checkpoints WHERE model = ?`, ds.Model.Key); err != nil {
		return 0, fmt.Errorf("clear model rows: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO checkpoints (model, layer, neuron, step, text_examples, cluster_labels)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, id := range ds.IDs {
		for _, r := range ds.Series[id].Records {
			texts, err := json.Marshal(r.TextExamples)
			if err != nil {
				return 0, fmt.Errorf("marshal texts of %s step %d: %w", id, r.Step, err)
			}
			labels, err := json.Marshal(r.ClusterLabels)
			if err != nil {
				return 0, fmt.Errorf("marshal labels of %s step %d: %w", id, r.Step, err)
			}
			if _, err := stmt.ExecContext(ctx, ds.Model.Key, id.Layer, id.Index, r.Step, string(texts), string(labels)); err != nil {
				return 0, fmt.Errorf("insert %s step %d: %w", id, r.Step, err)
			}
			written++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return written, nil
}
