package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"areabutler_backend/internal/realestate/domain"
	"areabutler_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const listingNotFoundMsg = "real estate listing not found"
const connectionNotFoundMsg = "crm connection not found"

// Repository provides database operations for real-estate listings and CRM connections.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new real-estate repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type ListParams struct {
	UserID   uuid.UUID
	Status   domain.Status
	Page     int
	PageSize int
}

type ListResult struct {
	Items      []domain.Listing
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// Connection is a user's stored CRM credential. APIKey holds the sealed value.
type Connection struct {
	UserID          uuid.UUID
	Vendor          string
	APIKey          string
	ConfigOverrides json.RawMessage
	LastSyncedAt    *time.Time
	CreatedAt       time.Time
}

const listingColumns = `
	id, user_id, name, address, lat, lng, cost_structure, characteristics,
	status, status2, show_in_snippet, external_source, external_id,
	created_at, updated_at`

func (r *Repository) Create(ctx context.Context, listing domain.Listing) (domain.Listing, error) {
	costJSON, characteristicsJSON, err := marshalDetails(listing)
	if err != nil {
		return domain.Listing{}, err
	}

	query := `
		INSERT INTO real_estate_listings (
			id, user_id, name, address, lat, lng, cost_structure, characteristics,
			status, status2, show_in_snippet, external_source, external_id,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13,
			$14, $15
		)
	`

	_, err = r.pool.Exec(ctx, query,
		listing.ID,
		listing.UserID,
		listing.Name,
		listing.Address,
		listing.Coordinates.Lat,
		listing.Coordinates.Lng,
		costJSON,
		characteristicsJSON,
		nullable(string(listing.Status)),
		nullable(listing.Status2),
		listing.ShowInSnippet,
		nullable(listing.ExternalSource),
		nullable(listing.ExternalID),
		listing.CreatedAt,
		listing.UpdatedAt,
	)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("create listing: %w", err)
	}

	return listing, nil
}

func (r *Repository) GetByID(ctx context.Context, id, userID uuid.UUID) (domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM real_estate_listings WHERE id = $1 AND user_id = $2`

	listing, err := scanListing(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Listing{}, apperr.NotFound(listingNotFoundMsg)
		}
		return domain.Listing{}, fmt.Errorf("get listing: %w", err)
	}
	return listing, nil
}

// Update replaces the editable fields of a listing.
func (r *Repository) Update(ctx context.Context, listing domain.Listing) (domain.Listing, error) {
	costJSON, characteristicsJSON, err := marshalDetails(listing)
	if err != nil {
		return domain.Listing{}, err
	}

	query := `
		UPDATE real_estate_listings
		SET
			name = $3,
			address = $4,
			lat = $5,
			lng = $6,
			cost_structure = $7,
			characteristics = $8,
			status = $9,
			status2 = $10,
			show_in_snippet = $11,
			updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + listingColumns

	updated, err := scanListing(r.pool.QueryRow(ctx, query,
		listing.ID,
		listing.UserID,
		listing.Name,
		listing.Address,
		listing.Coordinates.Lat,
		listing.Coordinates.Lng,
		costJSON,
		characteristicsJSON,
		nullable(string(listing.Status)),
		nullable(listing.Status2),
		listing.ShowInSnippet,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Listing{}, apperr.NotFound(listingNotFoundMsg)
		}
		return domain.Listing{}, fmt.Errorf("update listing: %w", err)
	}
	return updated, nil
}

func (r *Repository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM real_estate_listings WHERE id = $1 AND user_id = $2`

	result, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(listingNotFoundMsg)
	}
	return nil
}

// Upsert inserts an imported listing or refreshes the row with the same
// (user, external source, external id). The returned flag is true on insert.
// show_in_snippet is owned by the user once the row exists and is left untouched.
func (r *Repository) Upsert(ctx context.Context, listing domain.Listing) (domain.Listing, bool, error) {
	costJSON, characteristicsJSON, err := marshalDetails(listing)
	if err != nil {
		return domain.Listing{}, false, err
	}

	query := `
		INSERT INTO real_estate_listings (
			id, user_id, name, address, lat, lng, cost_structure, characteristics,
			status, status2, show_in_snippet, external_source, external_id,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13,
			now(), now()
		)
		ON CONFLICT (user_id, external_source, external_id)
			WHERE external_source IS NOT NULL AND external_id IS NOT NULL
		DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			cost_structure = EXCLUDED.cost_structure,
			characteristics = EXCLUDED.characteristics,
			status = COALESCE(EXCLUDED.status, real_estate_listings.status),
			status2 = EXCLUDED.status2,
			updated_at = now()
		RETURNING ` + listingColumns + `, (xmax = 0) AS inserted`

	var inserted bool
	row := r.pool.QueryRow(ctx, query,
		listing.ID,
		listing.UserID,
		listing.Name,
		listing.Address,
		listing.Coordinates.Lat,
		listing.Coordinates.Lng,
		costJSON,
		characteristicsJSON,
		nullable(string(listing.Status)),
		nullable(listing.Status2),
		listing.ShowInSnippet,
		nullable(listing.ExternalSource),
		nullable(listing.ExternalID),
	)
	stored, err := scanListing(row, &inserted)
	if err != nil {
		return domain.Listing{}, false, fmt.Errorf("upsert listing %s: %w", listing.ExternalID, err)
	}
	return stored, inserted, nil
}

// List returns a page of the user's listings. StatusAll and the empty status
// both mean no filter.
func (r *Repository) List(ctx context.Context, params ListParams) (ListResult, error) {
	var statusParam *string
	if params.Status != "" && params.Status != domain.StatusAll {
		s := string(params.Status)
		statusParam = &s
	}

	baseQuery := `
		FROM real_estate_listings
		WHERE user_id = $1
			AND ($2::text IS NULL OR status = $2)
	`
	args := []interface{}{params.UserID, statusParam}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("count listings: %w", err)
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

	selectQuery := `SELECT ` + listingColumns + baseQuery + `
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, selectQuery, append(args, pageSize, offset)...)
	if err != nil {
		return ListResult{}, fmt.Errorf("list listings: %w", err)
	}
	items, err := collectListings(rows)
	if err != nil {
		return ListResult{}, fmt.Errorf("list listings: %w", err)
	}

	return ListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// ListAll returns every listing of the user, used when deriving entity groups.
func (r *Repository) ListAll(ctx context.Context, userID uuid.UUID) ([]domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM real_estate_listings WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list all listings: %w", err)
	}
	items, err := collectListings(rows)
	if err != nil {
		return nil, fmt.Errorf("list all listings: %w", err)
	}
	return items, nil
}

func (r *Repository) GetConnection(ctx context.Context, userID uuid.UUID, vendor string) (Connection, error) {
	query := `
		SELECT user_id, vendor, api_key, config_overrides, last_synced_at, created_at
		FROM crm_connections
		WHERE user_id = $1 AND vendor = $2
	`

	var conn Connection
	var overrides []byte
	err := r.pool.QueryRow(ctx, query, userID, vendor).Scan(
		&conn.UserID,
		&conn.Vendor,
		&conn.APIKey,
		&overrides,
		&conn.LastSyncedAt,
		&conn.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Connection{}, apperr.NotFound(connectionNotFoundMsg)
		}
		return Connection{}, fmt.Errorf("get crm connection: %w", err)
	}
	if len(overrides) > 0 {
		conn.ConfigOverrides = json.RawMessage(overrides)
	}
	return conn, nil
}

// UpsertConnection stores the sealed API key and config overrides of a vendor connection.
func (r *Repository) UpsertConnection(ctx context.Context, conn Connection) error {
	var overrides []byte
	if len(conn.ConfigOverrides) > 0 {
		overrides = conn.ConfigOverrides
	}

	query := `
		INSERT INTO crm_connections (user_id, vendor, api_key, config_overrides)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, vendor) DO UPDATE SET
			api_key = EXCLUDED.api_key,
			config_overrides = EXCLUDED.config_overrides
	`

	if _, err := r.pool.Exec(ctx, query, conn.UserID, conn.Vendor, conn.APIKey, overrides); err != nil {
		return fmt.Errorf("upsert crm connection: %w", err)
	}
	return nil
}

// TouchConnection records a finished sync.
func (r *Repository) TouchConnection(ctx context.Context, userID uuid.UUID, vendor string, at time.Time) error {
	query := `UPDATE crm_connections SET last_synced_at = $3 WHERE user_id = $1 AND vendor = $2`

	result, err := r.pool.Exec(ctx, query, userID, vendor, at)
	if err != nil {
		return fmt.Errorf("touch crm connection: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(connectionNotFoundMsg)
	}
	return nil
}

func collectListings(rows pgx.Rows) ([]domain.Listing, error) {
	defer rows.Close()

	items := make([]domain.Listing, 0)
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, listing)
	}
	return items, rows.Err()
}

// scanListing reads listingColumns in order; extra destinations follow them.
func scanListing(row pgx.Row, extra ...any) (domain.Listing, error) {
	var (
		listing             domain.Listing
		status              *string
		status2             *string
		externalSource      *string
		externalID          *string
		costJSON            []byte
		characteristicsJSON []byte
	)

	dest := []any{
		&listing.ID,
		&listing.UserID,
		&listing.Name,
		&listing.Address,
		&listing.Coordinates.Lat,
		&listing.Coordinates.Lng,
		&costJSON,
		&characteristicsJSON,
		&status,
		&status2,
		&listing.ShowInSnippet,
		&externalSource,
		&externalID,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.Listing{}, err
	}

	listing.Status = domain.Status(deref(status))
	listing.Status2 = deref(status2)
	listing.ExternalSource = deref(externalSource)
	listing.ExternalID = deref(externalID)

	if len(costJSON) > 0 {
		if err := json.Unmarshal(costJSON, &listing.CostStructure); err != nil {
			return domain.Listing{}, fmt.Errorf("decode cost structure: %w", err)
		}
	}
	if len(characteristicsJSON) > 0 {
		if err := json.Unmarshal(characteristicsJSON, &listing.Characteristics); err != nil {
			return domain.Listing{}, fmt.Errorf("decode characteristics: %w", err)
		}
	}
	return listing, nil
}

func marshalDetails(listing domain.Listing) ([]byte, []byte, error) {
	var costJSON, characteristicsJSON []byte
	var err error
	if listing.CostStructure != nil {
		if costJSON, err = json.Marshal(listing.CostStructure); err != nil {
			return nil, nil, fmt.Errorf("encode cost structure: %w", err)
		}
	}
	if listing.Characteristics != nil {
		if characteristicsJSON, err = json.Marshal(listing.Characteristics); err != nil {
			return nil, nil, fmt.Errorf("encode characteristics: %w", err)
		}
	}
	return costJSON, characteristicsJSON, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
