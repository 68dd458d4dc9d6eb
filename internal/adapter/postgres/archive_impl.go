package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/domcapture-service/internal/entity"
	"github.com/user/domcapture-service/internal/repository"
)

// ArchiveRepoImpl persists captures in the `captures` PostgreSQL table,
// keyed by content fingerprint.
type ArchiveRepoImpl struct {
	db *pgxpool.Pool
}

// NewArchiveRepo creates a new instance of ArchiveRepoImpl.
func NewArchiveRepo(db *pgxpool.Pool) *ArchiveRepoImpl {
	return &ArchiveRepoImpl{db: db}
}

// Save stores or updates an archived capture. Recapturing an unchanged page
// produces the same fingerprint and updates the record in place.
func (r *ArchiveRepoImpl) Save(ctx context.Context, state *entity.SerializedDOMState) error {
	metadataJSON, err := json.Marshal(state.Metadata)
	if err != nil {
		return fmt.Errorf("encoding capture metadata: %w", err)
	}
	warningsJSON, err := json.Marshal(state.Warnings)
	if err != nil {
		return fmt.Errorf("encoding capture warnings: %w", err)
	}

	query := `
		INSERT INTO captures (fingerprint, url, title, tree, node_count, interactive_elements, metadata, warnings, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (fingerprint) DO UPDATE SET
			url = EXCLUDED.url,
			title = EXCLUDED.title,
			tree = EXCLUDED.tree,
			node_count = EXCLUDED.node_count,
			interactive_elements = EXCLUDED.interactive_elements,
			metadata = EXCLUDED.metadata,
			warnings = EXCLUDED.warnings,
			captured_at = EXCLUDED.captured_at;
	`

	_, err = r.db.Exec(ctx, query,
		state.Metadata.Fingerprint,
		state.Metadata.URL,
		state.Metadata.Title,
		state.Tree,
		state.Metadata.NodeCount,
		state.Metadata.InteractiveElements,
		metadataJSON,
		warningsJSON,
		state.Metadata.Timestamp,
	)
	return err
}

// FindByFingerprint retrieves an archived capture. The selector map is not
// persisted; archived states carry the tree and metadata only.
func (r *ArchiveRepoImpl) FindByFingerprint(ctx context.Context, fingerprint string) (*entity.SerializedDOMState, error) {
	query := `
		SELECT tree, metadata, warnings
		FROM captures
		WHERE fingerprint = $1;
	`
	row := r.db.QueryRow(ctx, query, fingerprint)

	var state entity.SerializedDOMState
	var metadataJSON, warningsJSON []byte

	if err := row.Scan(&state.Tree, &metadataJSON, &warningsJSON); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrArchiveNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(metadataJSON, &state.Metadata); err != nil {
		return nil, err
	}
	if len(warningsJSON) > 0 {
		if err := json.Unmarshal(warningsJSON, &state.Warnings); err != nil {
			return nil, err
		}
	}
	return &state, nil
}
