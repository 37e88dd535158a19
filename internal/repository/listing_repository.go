package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"agrigenie/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// foreignKeyViolation is the SQLSTATE raised when a delete would orphan a row.
const foreignKeyViolation = "23503"

const listingColumns = `
	l.id, l.farmer_id, COALESCE(p.full_name, ''), l.crop_name, l.quantity, l.unit,
	l.price_per_unit, l.description, l.category, l.location, l.image_url,
	l.available, l.created_at, l.updated_at`

// listingRepository implements the ListingRepository interface using PostgreSQL.
type listingRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewListingRepository creates a new PostgreSQL-backed listing repository.
func NewListingRepository(pool *pgxpool.Pool, logger zerolog.Logger) ListingRepository {
	return &listingRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "listing").Logger(),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*model.Listing, error) {
	var l model.Listing
	err := row.Scan(
		&l.ID,
		&l.FarmerID,
		&l.FarmerName,
		&l.CropName,
		&l.Quantity,
		&l.Unit,
		&l.PricePerUnit,
		&l.Description,
		&l.Category,
		&l.Location,
		&l.ImageURL,
		&l.Available,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create inserts a new listing.
func (r *listingRepository) Create(ctx context.Context, listing *model.Listing) error {
	query := `
		INSERT INTO marketplace_listings (
			id, farmer_id, crop_name, quantity, unit, price_per_unit,
			description, category, location, image_url, available, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		listing.ID,
		listing.FarmerID,
		listing.CropName,
		listing.Quantity,
		listing.Unit,
		listing.PricePerUnit,
		listing.Description,
		listing.Category,
		listing.Location,
		listing.ImageURL,
		listing.Available,
		listing.CreatedAt,
		listing.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("listing_id", listing.ID.String()).
			Msg("failed to create listing")
		return fmt.Errorf("failed to create listing: %w", err)
	}

	r.logger.Debug().
		Str("listing_id", listing.ID.String()).
		Str("farmer_id", listing.FarmerID.String()).
		Msg("listing created successfully")

	return nil
}

// GetByID retrieves a single listing by its ID.
func (r *listingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Listing, error) {
	query := `SELECT ` + listingColumns + `
		FROM marketplace_listings l
		LEFT JOIN profiles p ON p.id = l.farmer_id
		WHERE l.id = $1
	`

	listing, err := scanListing(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("listing_id", id.String()).Msg("listing not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("listing_id", id.String()).Msg("failed to query listing")
		return nil, fmt.Errorf("failed to query listing: %w", err)
	}

	return listing, nil
}

// List retrieves listings matching filter, newest first.
func (r *listingRepository) List(ctx context.Context, filter model.ListingFilter) ([]model.Listing, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.FarmerID != nil {
		args = append(args, *filter.FarmerID)
		conditions = append(conditions, fmt.Sprintf("l.farmer_id = $%d", len(args)))
	}
	if filter.AvailableOnly {
		conditions = append(conditions, "l.available")
	}
	if filter.CropName != "" {
		args = append(args, filter.CropName)
		conditions = append(conditions, fmt.Sprintf("l.crop_name ILIKE '%%' || $%d || '%%'", len(args)))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + listingColumns + `
		FROM marketplace_listings l
		LEFT JOIN profiles p ON p.id = l.farmer_id`)
	if len(conditions) > 0 {
		sb.WriteString("\n\t\tWHERE " + strings.Join(conditions, " AND "))
	}
	sb.WriteString("\n\t\tORDER BY l.created_at DESC, l.id")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sb.WriteString(fmt.Sprintf("\n\t\tLIMIT $%d", len(args)))
	}

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		r.logger.Error().Err(err).
			Bool("available_only", filter.AvailableOnly).
			Int("limit", filter.Limit).
			Msg("failed to query listings")
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	listings := make([]model.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan listing row")
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, *l)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating listing rows")
		return nil, fmt.Errorf("error iterating listings: %w", err)
	}

	return listings, nil
}

// Update writes the fields present in fields and returns the new row.
// Quantity and availability are only touched when supplied, so concurrent
// stock reservations are never overwritten. Returns nil when the listing
// does not exist.
func (r *listingRepository) Update(ctx context.Context, id uuid.UUID, fields model.ListingFields) (*model.Listing, error) {
	args := []any{id}
	set := []string{"updated_at = NOW()"}
	assign := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if fields.CropName != nil {
		assign("crop_name", *fields.CropName)
	}
	if fields.Quantity != nil {
		assign("quantity", *fields.Quantity)
	}
	if fields.Unit != nil {
		assign("unit", *fields.Unit)
	}
	if fields.PricePerUnit != nil {
		assign("price_per_unit", *fields.PricePerUnit)
	}
	if fields.Description != nil {
		assign("description", nullable(*fields.Description))
	}
	if fields.Category != nil {
		assign("category", nullable(*fields.Category))
	}
	if fields.Location != nil {
		assign("location", nullable(*fields.Location))
	}
	if fields.ImageURL != nil {
		assign("image_url", nullable(*fields.ImageURL))
	}
	if fields.Available != nil {
		assign("available", *fields.Available)
	}

	query := `
		WITH l AS (
			UPDATE marketplace_listings
			SET ` + strings.Join(set, ", ") + `
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + listingColumns + `
		FROM l
		LEFT JOIN profiles p ON p.id = l.farmer_id
	`

	listing, err := scanListing(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("listing_id", id.String()).Msg("failed to update listing")
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}

	r.logger.Debug().
		Str("listing_id", id.String()).
		Int("columns", len(set)).
		Msg("listing updated")

	return listing, nil
}

// nullable stores blank optional text as NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ToggleAvailability flips the availability flag and returns the new row.
func (r *listingRepository) ToggleAvailability(ctx context.Context, id uuid.UUID) (*model.Listing, error) {
	query := `
		WITH l AS (
			UPDATE marketplace_listings
			SET available = NOT available, updated_at = NOW()
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + listingColumns + `
		FROM l
		LEFT JOIN profiles p ON p.id = l.farmer_id
	`

	listing, err := scanListing(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("listing_id", id.String()).Msg("failed to toggle listing availability")
		return nil, fmt.Errorf("failed to toggle listing availability: %w", err)
	}

	r.logger.Debug().
		Str("listing_id", id.String()).
		Bool("available", listing.Available).
		Msg("listing availability toggled")

	return listing, nil
}

// Delete removes a listing permanently. It returns ErrListingReferenced
// when an order item still points at the listing.
func (r *listingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM marketplace_listings WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			r.logger.Debug().Str("listing_id", id.String()).Msg("listing referenced by orders, not deleted")
			return ErrListingReferenced
		}
		r.logger.Error().Err(err).Str("listing_id", id.String()).Msg("failed to delete listing")
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	return nil
}

// HasOrders reports whether any order item references the listing.
func (r *listingRepository) HasOrders(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM marketplace_order_items WHERE listing_id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		r.logger.Error().Err(err).Str("listing_id", id.String()).Msg("failed to check listing orders")
		return false, fmt.Errorf("failed to check listing orders: %w", err)
	}
	return exists, nil
}

// GetForUpdate reads a listing and locks its row for the rest of tx.
func (r *listingRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Listing, error) {
	query := `SELECT ` + listingColumns + `
		FROM marketplace_listings l
		LEFT JOIN profiles p ON p.id = l.farmer_id
		WHERE l.id = $1
		FOR UPDATE OF l
	`

	listing, err := scanListing(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("listing_id", id.String()).Msg("failed to lock listing")
		return nil, fmt.Errorf("failed to lock listing: %w", err)
	}
	return listing, nil
}

// DecrementQuantity reserves quantity from an available listing within tx.
func (r *listingRepository) DecrementQuantity(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity decimal.Decimal) (bool, error) {
	query := `
		UPDATE marketplace_listings
		SET quantity = quantity - $2,
			available = (quantity - $2) > 0,
			updated_at = NOW()
		WHERE id = $1 AND available AND quantity >= $2
	`

	tag, err := tx.Exec(ctx, query, id, quantity)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("listing_id", id.String()).
			Str("quantity", quantity.String()).
			Msg("failed to decrement listing quantity")
		return false, fmt.Errorf("failed to decrement listing quantity: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Debug().
			Str("listing_id", id.String()).
			Str("quantity", quantity.String()).
			Msg("listing stock condition not met")
		return false, nil
	}
	return true, nil
}

// RestoreQuantity returns quantity to a listing within tx.
func (r *listingRepository) RestoreQuantity(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity decimal.Decimal) error {
	query := `
		UPDATE marketplace_listings
		SET quantity = quantity + $2, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := tx.Exec(ctx, query, id, quantity); err != nil {
		r.logger.Error().
			Err(err).
			Str("listing_id", id.String()).
			Str("quantity", quantity.String()).
			Msg("failed to restore listing quantity")
		return fmt.Errorf("failed to restore listing quantity: %w", err)
	}
	return nil
}
