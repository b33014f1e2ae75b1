// internal/store/modelstore.go

package store

import (
	"context"
	"database/sql"
	"fmt"

	"talentrank-workers/internal/common/logger"
)

// ModelStore persists trained ensemble artifacts in Postgres. Versions are
// monotonically increasing integers; the payload is the serialized ensemble.
// Old versions stay around so a bad artifact can be rolled back by hand.
type ModelStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewModelStore(db *sql.DB, log logger.Logger) *ModelStore {
	return &ModelStore{db: db, logger: log}
}

// NextVersion returns the version number a new training run should use.
func (s *ModelStore) NextVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM trained_models`,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("next model version: %w", err)
	}
	return version, nil
}

// SaveArtifact stores one trained ensemble under its version.
func (s *ModelStore) SaveArtifact(ctx context.Context, version int, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trained_models (version, payload, created_at) VALUES ($1, $2, NOW())`,
		version, payload,
	)
	if err != nil {
		return fmt.Errorf("save model artifact v%d: %w", version, err)
	}
	s.logger.Info("model artifact saved", map[string]interface{}{
		"version": version,
		"bytes":   len(payload),
	})
	return nil
}

// LoadLatest returns the newest artifact, or (0, nil, nil) when no model has
// been trained yet. Callers treat the empty case as "provider unavailable",
// not as an error.
func (s *ModelStore) LoadLatest(ctx context.Context) (int, []byte, error) {
	var version int
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT version, payload FROM trained_models ORDER BY version DESC LIMIT 1`,
	).Scan(&version, &payload)
	if err == sql.ErrNoRows {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, fmt.Errorf("load latest model artifact: %w", err)
	}
	return version, payload, nil
}
