package service

import (
	"context"
	"sync"

	"agrigenie/internal/events"
	"agrigenie/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockListingRepository is a mock implementation of ListingRepository.
type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) Create(ctx context.Context, listing *model.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Listing), args.Error(1)
}

func (m *MockListingRepository) List(ctx context.Context, filter model.ListingFilter) ([]model.Listing, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Listing), args.Error(1)
}

func (m *MockListingRepository) Update(ctx context.Context, id uuid.UUID, fields model.ListingFields) (*model.Listing, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Listing), args.Error(1)
}

func (m *MockListingRepository) ToggleAvailability(ctx context.Context, id uuid.UUID) (*model.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Listing), args.Error(1)
}

func (m *MockListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockListingRepository) HasOrders(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockListingRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Listing, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Listing), args.Error(1)
}

func (m *MockListingRepository) DecrementQuantity(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity decimal.Decimal) (bool, error) {
	args := m.Called(ctx, tx, id, quantity)
	return args.Bool(0), args.Error(1)
}

func (m *MockListingRepository) RestoreQuantity(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity decimal.Decimal) error {
	args := m.Called(ctx, tx, id, quantity)
	return args.Error(0)
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	// Return a MockTx interface value, not a pointer
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	args := m.Called(ctx, tx, items)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]model.Order, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]model.Order, error) {
	args := m.Called(ctx, farmerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to model.OrderStatus) (bool, error) {
	args := m.Called(ctx, tx, id, from, to)
	return args.Bool(0), args.Error(1)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
	committed  bool
	rolledBack bool
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.committed = true
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.rolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }

// MockPublisher records published events.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.OrderEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockStatsRepository is a mock implementation of StatsRepository.
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) FarmerStats(ctx context.Context, farmerID uuid.UUID) (*model.MarketplaceStats, error) {
	args := m.Called(ctx, farmerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MarketplaceStats), args.Error(1)
}

func (m *MockStatsRepository) BuyerStats(ctx context.Context, buyerID uuid.UUID) (*model.MarketplaceStats, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MarketplaceStats), args.Error(1)
}

// MockProfileRepository is a mock implementation of ProfileRepository.
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockProfileRepository) Upsert(ctx context.Context, profile *model.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

// MockPaymentMethodRepository is a mock implementation of PaymentMethodRepository.
type MockPaymentMethodRepository struct {
	mock.Mock
}

func (m *MockPaymentMethodRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PaymentMethod, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PaymentMethod), args.Error(1)
}

func (m *MockPaymentMethodRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentMethod, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentMethod), args.Error(1)
}

func (m *MockPaymentMethodRepository) GetDefault(ctx context.Context, userID uuid.UUID) (*model.PaymentMethod, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentMethod), args.Error(1)
}

func (m *MockPaymentMethodRepository) Create(ctx context.Context, method *model.PaymentMethod) error {
	args := m.Called(ctx, method)
	return args.Error(0)
}

func (m *MockPaymentMethodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPaymentMethodRepository) SetDefault(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, id)
	return args.Bool(0), args.Error(1)
}

// memoryStateRepository keeps client state in a map.
type memoryStateRepository struct {
	mu   sync.Mutex
	docs map[string][]byte
	err  error
}

func newMemoryStateRepository() *memoryStateRepository {
	return &memoryStateRepository{docs: make(map[string][]byte)}
}

func (r *memoryStateRepository) Get(ctx context.Context, userID uuid.UUID, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.docs[userID.String()+"/"+key], nil
}

func (r *memoryStateRepository) Put(ctx context.Context, userID uuid.UUID, key string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.docs[userID.String()+"/"+key] = data
	return nil
}

func (r *memoryStateRepository) Modify(ctx context.Context, userID uuid.UUID, key string, fn func([]byte) ([]byte, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	next, err := fn(r.docs[userID.String()+"/"+key])
	if err != nil {
		return err
	}
	r.docs[userID.String()+"/"+key] = next
	return nil
}

func farmer() model.Actor {
	return model.Actor{ID: uuid.New(), Role: model.RoleFarmer}
}

func buyer() model.Actor {
	return model.Actor{ID: uuid.New(), Role: model.RoleBuyer}
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testListing(farmerID uuid.UUID, quantity, price string) *model.Listing {
	return &model.Listing{
		ID:           uuid.New(),
		FarmerID:     farmerID,
		FarmerName:   "Asha Patil",
		CropName:     "Rice",
		Quantity:     d(quantity),
		Unit:         "kg",
		PricePerUnit: d(price),
		Available:    true,
	}
}
