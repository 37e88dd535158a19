package repository

import (
	"context"
	"testing"
	"time"

	"agrigenie/internal/database"
	"agrigenie/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL testcontainer with the marketplace schema applied.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

func seedProfile(t *testing.T, pool *pgxpool.Pool, name string, role model.Role) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO profiles (id, full_name, role) VALUES ($1, $2, $3)`,
		id, name, string(role))
	require.NoError(t, err)
	return id
}

func newTestListing(farmerID uuid.UUID, crop string, quantity, price string, createdAt time.Time) *model.Listing {
	return &model.Listing{
		ID:           uuid.New(),
		FarmerID:     farmerID,
		CropName:     crop,
		Quantity:     decimal.RequireFromString(quantity),
		Unit:         "kg",
		PricePerUnit: decimal.RequireFromString(price),
		Available:    true,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

func seedListing(t *testing.T, pool *pgxpool.Pool, listing *model.Listing) {
	t.Helper()
	repo := NewListingRepository(pool, zerolog.Nop())
	require.NoError(t, repo.Create(context.Background(), listing))
}
