package repository

import (
	"context"
	"testing"
	"time"

	"agrigenie/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(buyerID uuid.UUID, listing *model.Listing, quantity string) *model.Order {
	now := time.Now().UTC()
	qty := decimal.RequireFromString(quantity)
	total := listing.PricePerUnit.Mul(qty)
	orderID := uuid.New()
	return &model.Order{
		ID:          orderID,
		BuyerID:     buyerID,
		FarmerID:    listing.FarmerID,
		Status:      model.OrderStatusPending,
		Subtotal:    total,
		ShippingFee: decimal.Zero,
		TotalPrice:  total,
		CreatedAt:   now,
		UpdatedAt:   now,
		Items: []model.OrderItem{{
			ID:        uuid.New(),
			OrderID:   orderID,
			ListingID: listing.ID,
			CropName:  listing.CropName,
			Unit:      listing.Unit,
			UnitPrice: listing.PricePerUnit,
			Quantity:  qty,
			LineTotal: total,
		}},
	}
}

// seedOrder commits a pending order for quantity of listing.
func seedOrder(t *testing.T, repo OrderRepository, buyerID uuid.UUID, listing *model.Listing, quantity string) *model.Order {
	t.Helper()
	ctx := context.Background()
	order := newTestOrder(buyerID, listing, quantity)

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	require.NoError(t, repo.CreateOrderItems(ctx, tx, order.Items))
	require.NoError(t, tx.Commit(ctx))
	return order
}

func TestOrderRepository_BeginTx(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)

	require.NoError(t, err)
	require.NotNil(t, tx)

	err = tx.Rollback(ctx)
	assert.NoError(t, err)
}

func TestOrderRepository_CreateOrder(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	farmerID := seedProfile(t, pool, "Farmer", model.RoleFarmer)
	buyerID := seedProfile(t, pool, "Buyer", model.RoleBuyer)
	listing := newTestListing(farmerID, "Rice", "100", "40", time.Now().UTC())
	seedListing(t, pool, listing)

	withAddress := newTestOrder(buyerID, listing, "2")
	withAddress.ShippingAddress = &model.ShippingAddress{
		FullName:     "Ravi Kumar",
		AddressLine1: "12 MG Road",
		City:         "Pune",
		State:        "Maharashtra",
		PostalCode:   "411001",
		Country:      "India",
		PhoneNumber:  "+91 9876543210",
	}
	withAddress.PaymentMethod = "cod"

	tests := []struct {
		name  string
		order *model.Order
	}{
		{name: "Create order with shipping address", order: withAddress},
		{name: "Create order without shipping address", order: newTestOrder(buyerID, listing, "1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := repo.BeginTx(ctx)
			require.NoError(t, err)

			require.NoError(t, repo.CreateOrder(ctx, tx, tt.order))
			require.NoError(t, repo.CreateOrderItems(ctx, tx, tt.order.Items))
			require.NoError(t, tx.Commit(ctx))

			got, err := repo.GetByID(ctx, tt.order.ID)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, model.OrderStatusPending, got.Status)
			assert.True(t, tt.order.TotalPrice.Equal(got.TotalPrice))
			assert.Equal(t, tt.order.ShippingAddress, got.ShippingAddress)
			assert.Equal(t, tt.order.PaymentMethod, got.PaymentMethod)
			require.Len(t, got.Items, 1)
			assert.Equal(t, listing.ID, got.Items[0].ListingID)
		})
	}
}

func TestOrderRepository_CreateOrderItems(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	farmerID := seedProfile(t, pool, "Farmer", model.RoleFarmer)
	buyerID := seedProfile(t, pool, "Buyer", model.RoleBuyer)
	rice := newTestListing(farmerID, "Rice", "100", "40", time.Now().UTC())
	wheat := newTestListing(farmerID, "Wheat", "100", "25", time.Now().UTC())
	seedListing(t, pool, rice)
	seedListing(t, pool, wheat)

	tests := []struct {
		name        string
		build       func(order *model.Order) []model.OrderItem
		expectError bool
	}{
		{
			name: "Create multiple order items",
			build: func(order *model.Order) []model.OrderItem {
				second := order.Items[0]
				second.ID = uuid.New()
				second.ListingID = wheat.ID
				second.CropName = wheat.CropName
				return append(order.Items, second)
			},
		},
		{
			name:  "Create empty order items",
			build: func(order *model.Order) []model.OrderItem { return []model.OrderItem{} },
		},
		{
			name: "Unknown listing violates foreign key",
			build: func(order *model.Order) []model.OrderItem {
				item := order.Items[0]
				item.ListingID = uuid.New()
				return []model.OrderItem{item}
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := newTestOrder(buyerID, rice, "1")

			tx, err := repo.BeginTx(ctx)
			require.NoError(t, err)
			defer tx.Rollback(ctx)

			require.NoError(t, repo.CreateOrder(ctx, tx, order))

			items := tt.build(order)
			err = repo.CreateOrderItems(ctx, tx, items)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			var count int
			err = tx.QueryRow(ctx, "SELECT COUNT(*) FROM marketplace_order_items WHERE order_id = $1", order.ID).Scan(&count)
			require.NoError(t, err)
			assert.Equal(t, len(items), count)
		})
	}
}

func TestOrderRepository_ListByBuyerAndFarmer(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	farmerA := seedProfile(t, pool, "Farmer A", model.RoleFarmer)
	farmerB := seedProfile(t, pool, "Farmer B", model.RoleFarmer)
	buyer := seedProfile(t, pool, "Buyer", model.RoleBuyer)
	other := seedProfile(t, pool, "Other Buyer", model.RoleBuyer)

	rice := newTestListing(farmerA, "Rice", "100", "40", time.Now().UTC())
	onion := newTestListing(farmerB, "Onion", "100", "30", time.Now().UTC())
	seedListing(t, pool, rice)
	seedListing(t, pool, onion)

	first := seedOrder(t, repo, buyer, rice, "1")
	second := seedOrder(t, repo, buyer, onion, "2")
	seedOrder(t, repo, other, rice, "3")

	byBuyer, err := repo.ListByBuyer(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, byBuyer, 2)
	ids := []uuid.UUID{byBuyer[0].ID, byBuyer[1].ID}
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, ids)
	for _, o := range byBuyer {
		assert.Len(t, o.Items, 1)
	}

	byFarmer, err := repo.ListByFarmer(ctx, farmerA)
	require.NoError(t, err)
	assert.Len(t, byFarmer, 2)

	none, err := repo.ListByBuyer(ctx, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	farmerID := seedProfile(t, pool, "Farmer", model.RoleFarmer)
	buyerID := seedProfile(t, pool, "Buyer", model.RoleBuyer)
	listing := newTestListing(farmerID, "Rice", "100", "40", time.Now().UTC())
	seedListing(t, pool, listing)
	order := seedOrder(t, repo, buyerID, listing, "5")

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	ok, err := repo.UpdateStatus(ctx, tx, order.ID, model.OrderStatusPending, model.OrderStatusAccepted)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, tx.Commit(ctx))

	tx, err = repo.BeginTx(ctx)
	require.NoError(t, err)
	ok, err = repo.UpdateStatus(ctx, tx, order.ID, model.OrderStatusPending, model.OrderStatusCancelled)
	require.NoError(t, err)
	assert.False(t, ok, "stale from status must not match")
	require.NoError(t, tx.Rollback(ctx))

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusAccepted, got.Status)
}

func TestOrderRepository_TransactionRollback(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	farmerID := seedProfile(t, pool, "Farmer", model.RoleFarmer)
	buyerID := seedProfile(t, pool, "Buyer", model.RoleBuyer)
	listing := newTestListing(farmerID, "Rice", "100", "40", time.Now().UTC())
	seedListing(t, pool, listing)

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	order := newTestOrder(buyerID, listing, "1")
	require.NoError(t, repo.CreateOrder(ctx, tx, order))

	require.NoError(t, tx.Rollback(ctx))

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOrderRepository_ErrorPaths(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	pool.Close()

	t.Run("BeginTx with closed pool", func(t *testing.T) {
		tx, err := repo.BeginTx(ctx)

		require.Error(t, err)
		assert.Nil(t, tx)
	})

	t.Run("GetByID with closed pool", func(t *testing.T) {
		order, err := repo.GetByID(ctx, uuid.New())

		require.Error(t, err)
		assert.Nil(t, order)
	})

	t.Run("ListByFarmer with closed pool", func(t *testing.T) {
		orders, err := repo.ListByFarmer(ctx, uuid.New())

		require.Error(t, err)
		assert.Nil(t, orders)
	})
}
