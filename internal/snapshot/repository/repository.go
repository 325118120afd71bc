package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"areabutler_backend/internal/location"
	"areabutler_backend/internal/snapshot/domain"
	"areabutler_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const snapshotNotFoundMsg = "snapshot not found"

// Repository provides database operations for snapshots, user config
// defaults and rendered exports.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new snapshot repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type ListParams struct {
	UserID   uuid.UUID
	Page     int
	PageSize int
}

type ListResult struct {
	Items      []domain.Snapshot
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

const snapshotColumns = `
	id, user_id, token, integration_vendor, location, search_response, config,
	preferred_locations, description, created_at, updated_at, last_accessed_at`

func (r *Repository) Create(ctx context.Context, s domain.Snapshot) (domain.Snapshot, error) {
	locationJSON, searchJSON, configJSON, preferredJSON, err := marshalSnapshot(s)
	if err != nil {
		return domain.Snapshot{}, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO search_snapshots (
			id, user_id, token, integration_vendor, location, search_response, config,
			preferred_locations, description, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING `+snapshotColumns,
		s.ID, s.UserID, s.Token, s.IntegrationVendor, locationJSON, searchJSON, configJSON,
		preferredJSON, s.Description, s.CreatedAt,
	)
	created, err := scanSnapshot(row)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("create snapshot: %w", err)
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id, userID uuid.UUID) (domain.Snapshot, error) {
	s, err := scanSnapshot(r.pool.QueryRow(ctx, `
		SELECT `+snapshotColumns+`
		FROM search_snapshots
		WHERE id = $1 AND user_id = $2
	`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Snapshot{}, apperr.NotFound(snapshotNotFoundMsg)
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	return s, nil
}

// GetByToken loads a snapshot for public display and records the access.
func (r *Repository) GetByToken(ctx context.Context, token string) (domain.Snapshot, error) {
	s, err := scanSnapshot(r.pool.QueryRow(ctx, `
		UPDATE search_snapshots SET last_accessed_at = now()
		WHERE token = $1
		RETURNING `+snapshotColumns,
		token))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Snapshot{}, apperr.NotFound(snapshotNotFoundMsg)
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("get snapshot by token: %w", err)
	}
	return s, nil
}

func (r *Repository) List(ctx context.Context, params ListParams) (ListResult, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM search_snapshots WHERE user_id = $1`, params.UserID).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("count snapshots: %w", err)
	}

	page := params.Page
	pageSize := params.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	rows, err := r.pool.Query(ctx, `
		SELECT `+snapshotColumns+`
		FROM search_snapshots
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, params.UserID, pageSize, offset)
	if err != nil {
		return ListResult{}, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Snapshot, 0)
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return ListResult{}, fmt.Errorf("scan snapshot: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, fmt.Errorf("list snapshots: %w", err)
	}

	return ListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// Update persists the editable fields: config, preferred locations and description.
func (r *Repository) Update(ctx context.Context, s domain.Snapshot) (domain.Snapshot, error) {
	_, _, configJSON, preferredJSON, err := marshalSnapshot(s)
	if err != nil {
		return domain.Snapshot{}, err
	}

	updated, err := scanSnapshot(r.pool.QueryRow(ctx, `
		UPDATE search_snapshots
		SET config = $3, preferred_locations = $4, description = $5, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+snapshotColumns,
		s.ID, s.UserID, configJSON, preferredJSON, s.Description))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Snapshot{}, apperr.NotFound(snapshotNotFoundMsg)
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("update snapshot: %w", err)
	}
	return updated, nil
}

func (r *Repository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM search_snapshots WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(snapshotNotFoundMsg)
	}
	return nil
}

// GetUserDefaults returns the user's default config, or nil when none is stored.
func (r *Repository) GetUserDefaults(ctx context.Context, userID uuid.UUID) (*domain.SnapshotConfig, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT config FROM user_config_defaults WHERE user_id = $1`, userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get config defaults: %w", err)
	}
	return decodeConfig(raw)
}

func (r *Repository) UpsertUserDefaults(ctx context.Context, userID uuid.UUID, cfg domain.SnapshotConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config defaults: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO user_config_defaults (user_id, config, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET config = EXCLUDED.config, updated_at = now()
	`, userID, raw)
	if err != nil {
		return fmt.Errorf("upsert config defaults: %w", err)
	}
	return nil
}

// GetCRMOverrides returns the config overrides stored on the user's CRM
// connection for vendor, or nil when there are none.
func (r *Repository) GetCRMOverrides(ctx context.Context, userID uuid.UUID, vendor string) (*domain.SnapshotConfig, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `
		SELECT config_overrides FROM crm_connections WHERE user_id = $1 AND vendor = $2
	`, userID, vendor).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get crm overrides: %w", err)
	}
	return decodeConfig(raw)
}

func (r *Repository) CreateExport(ctx context.Context, e domain.Export) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO snapshot_exports (id, snapshot_id, format, file_key, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ID, e.SnapshotID, string(e.Format), e.FileKey, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("create snapshot export: %w", err)
	}
	return nil
}

// DeleteExportsBefore removes export records older than before and returns
// them so the caller can delete the stored files.
func (r *Repository) DeleteExportsBefore(ctx context.Context, before time.Time) ([]domain.Export, error) {
	rows, err := r.pool.Query(ctx, `
		DELETE FROM snapshot_exports WHERE created_at < $1
		RETURNING id, snapshot_id, format, file_key, created_at
	`, before)
	if err != nil {
		return nil, fmt.Errorf("delete snapshot exports: %w", err)
	}
	defer rows.Close()

	deleted := make([]domain.Export, 0)
	for rows.Next() {
		var e domain.Export
		var format string
		if err := rows.Scan(&e.ID, &e.SnapshotID, &format, &e.FileKey, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot export: %w", err)
		}
		e.Format = domain.ExportFormat(format)
		deleted = append(deleted, e)
	}
	return deleted, rows.Err()
}

func scanSnapshot(row pgx.Row) (domain.Snapshot, error) {
	var s domain.Snapshot
	var locationJSON, searchJSON, configJSON, preferredJSON []byte
	err := row.Scan(
		&s.ID, &s.UserID, &s.Token, &s.IntegrationVendor, &locationJSON, &searchJSON, &configJSON,
		&preferredJSON, &s.Description, &s.CreatedAt, &s.UpdatedAt, &s.LastAccessedAt,
	)
	if err != nil {
		return domain.Snapshot{}, err
	}

	if err := json.Unmarshal(locationJSON, &s.Location); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode location: %w", err)
	}
	if err := json.Unmarshal(searchJSON, &s.SearchResponse); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode search response: %w", err)
	}
	if s.Config, err = decodeConfig(configJSON); err != nil {
		return domain.Snapshot{}, err
	}
	s.PreferredLocations = []location.PreferredLocation{}
	if len(preferredJSON) > 0 {
		if err := json.Unmarshal(preferredJSON, &s.PreferredLocations); err != nil {
			return domain.Snapshot{}, fmt.Errorf("decode preferred locations: %w", err)
		}
	}
	return s, nil
}

func decodeConfig(raw []byte) (*domain.SnapshotConfig, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var cfg domain.SnapshotConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func marshalSnapshot(s domain.Snapshot) (locationJSON, searchJSON, configJSON, preferredJSON []byte, err error) {
	if locationJSON, err = json.Marshal(s.Location); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal location: %w", err)
	}
	search := s.SearchResponse
	if search == nil {
		search = location.SearchResponse{}
	}
	if searchJSON, err = json.Marshal(search); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal search response: %w", err)
	}
	if s.Config != nil {
		if configJSON, err = json.Marshal(s.Config); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshal config: %w", err)
		}
	}
	preferred := s.PreferredLocations
	if preferred == nil {
		preferred = []location.PreferredLocation{}
	}
	if preferredJSON, err = json.Marshal(preferred); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal preferred locations: %w", err)
	}
	return locationJSON, searchJSON, configJSON, preferredJSON, nil
}
