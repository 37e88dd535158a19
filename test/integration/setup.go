package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"agrigenie/internal/config"
	"agrigenie/internal/database"
	"agrigenie/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
}

// SetupTestDB starts a PostgreSQL container and applies the schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := postgresContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "testuser",
		Password:        "testpass",
		Database:        "testdb",
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	logger := zerolog.Nop()
	pool, err := database.NewPool(ctx, dbConfig, logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := database.Migrate(ctx, pool, logger); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
	}
}

// SeedProfile inserts a user profile.
func SeedProfile(t *testing.T, pool *pgxpool.Pool, id uuid.UUID, name string, role model.Role) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		"INSERT INTO profiles (id, full_name, role) VALUES ($1, $2, $3)",
		id, name, string(role),
	)
	if err != nil {
		t.Fatalf("failed to seed profile %s: %v", id, err)
	}
}

// SeedListing inserts an available listing and returns its id.
func SeedListing(t *testing.T, pool *pgxpool.Pool, farmerID uuid.UUID, crop string, quantity, price int64) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO marketplace_listings (id, farmer_id, crop_name, quantity, unit, price_per_unit, available)
		 VALUES ($1, $2, $3, $4, 'kg', $5, TRUE)`,
		id, farmerID, crop, decimal.NewFromInt(quantity), decimal.NewFromInt(price),
	)
	if err != nil {
		t.Fatalf("failed to seed listing %s: %v", crop, err)
	}
	return id
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"marketplace_order_items", "marketplace_orders", "marketplace_listings", "profiles", "user_state", "payment_methods"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
