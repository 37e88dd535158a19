package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"agrigenie/internal/clientstate"
	"agrigenie/internal/middleware"
	"agrigenie/internal/model"
	"agrigenie/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockListingService is a mock implementation of ListingService.
type MockListingService struct {
	mock.Mock
}

func (m *MockListingService) Create(ctx context.Context, actor model.Actor, input model.ListingInput) (*model.Listing, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Listing), args.Error(1)
}

func (m *MockListingService) List(ctx context.Context, actor model.Actor, query service.ListingQuery) ([]model.Listing, error) {
	args := m.Called(ctx, actor, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Listing), args.Error(1)
}

func (m *MockListingService) MyListings(ctx context.Context, actor model.Actor) ([]model.Listing, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Listing), args.Error(1)
}

func (m *MockListingService) Get(ctx context.Context, id uuid.UUID) (*model.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Listing), args.Error(1)
}

func (m *MockListingService) Update(ctx context.Context, actor model.Actor, id uuid.UUID, input model.ListingInput) (*model.Listing, error) {
	args := m.Called(ctx, actor, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Listing), args.Error(1)
}

func (m *MockListingService) ToggleAvailability(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Listing, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Listing), args.Error(1)
}

func (m *MockListingService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.DeleteListingResult, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DeleteListingResult), args.Error(1)
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Place(ctx context.Context, actor model.Actor, req model.PlaceOrderRequest) (*model.Order, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) List(ctx context.Context, actor model.Actor) ([]model.Order, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, actor model.Actor, id uuid.UUID, status string) (*model.Order, error) {
	args := m.Called(ctx, actor, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

// MockStatsService is a mock implementation of StatsService.
type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) Get(ctx context.Context, actor model.Actor) (*model.MarketplaceStats, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MarketplaceStats), args.Error(1)
}

// MockCartService is a mock implementation of CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) view(args mock.Arguments) (*model.CartView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartView), args.Error(1)
}

func (m *MockCartService) wishlist(args mock.Arguments) ([]model.WishlistItem, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WishlistItem), args.Error(1)
}

func (m *MockCartService) View(ctx context.Context, actor model.Actor) (*model.CartView, error) {
	return m.view(m.Called(ctx, actor))
}

func (m *MockCartService) AddItem(ctx context.Context, actor model.Actor, req model.AddCartItemRequest) (*model.CartView, error) {
	return m.view(m.Called(ctx, actor, req))
}

func (m *MockCartService) UpdateItem(ctx context.Context, actor model.Actor, listingID uuid.UUID, quantity decimal.Decimal) (*model.CartView, error) {
	return m.view(m.Called(ctx, actor, listingID, quantity))
}

func (m *MockCartService) RemoveItem(ctx context.Context, actor model.Actor, listingID uuid.UUID) (*model.CartView, error) {
	return m.view(m.Called(ctx, actor, listingID))
}

func (m *MockCartService) Clear(ctx context.Context, actor model.Actor) error {
	args := m.Called(ctx, actor)
	return args.Error(0)
}

func (m *MockCartService) Checkout(ctx context.Context, actor model.Actor, req model.CheckoutRequest) (*model.CheckoutResponse, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutResponse), args.Error(1)
}

func (m *MockCartService) Wishlist(ctx context.Context, actor model.Actor) ([]model.WishlistItem, error) {
	return m.wishlist(m.Called(ctx, actor))
}

func (m *MockCartService) AddToWishlist(ctx context.Context, actor model.Actor, listingID uuid.UUID) ([]model.WishlistItem, error) {
	return m.wishlist(m.Called(ctx, actor, listingID))
}

func (m *MockCartService) RemoveFromWishlist(ctx context.Context, actor model.Actor, listingID uuid.UUID) ([]model.WishlistItem, error) {
	return m.wishlist(m.Called(ctx, actor, listingID))
}

// MockMarketService is a mock implementation of MarketService.
type MockMarketService struct {
	mock.Mock
}

func (m *MockMarketService) CropData(ctx context.Context, state, commodity string, mockData bool) (*service.CropData, error) {
	args := m.Called(ctx, state, commodity, mockData)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CropData), args.Error(1)
}

func (m *MockMarketService) PriceComparison(ctx context.Context, crop string) ([]model.MarketPrice, error) {
	args := m.Called(ctx, crop)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MarketPrice), args.Error(1)
}

func (m *MockMarketService) Trends(ctx context.Context, crop string) (*model.MarketTrend, error) {
	args := m.Called(ctx, crop)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MarketTrend), args.Error(1)
}

func (m *MockMarketService) Lookup(ctx context.Context, kind service.Lookup) ([]string, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockTreatmentService is a mock implementation of TreatmentService.
type MockTreatmentService struct {
	mock.Mock
}

func (m *MockTreatmentService) Generate(ctx context.Context, req model.TreatmentRequest) (*model.TreatmentPlan, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TreatmentPlan), args.Error(1)
}

// MockProfileService is a mock implementation of ProfileService.
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) Get(ctx context.Context, actor model.Actor) (*model.Profile, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockProfileService) Update(ctx context.Context, actor model.Actor, update model.ProfileUpdate) (*model.Profile, error) {
	args := m.Called(ctx, actor, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

// MockStateService is a mock implementation of StateService.
type MockStateService struct {
	mock.Mock
}

func (m *MockStateService) Get(ctx context.Context, actor model.Actor, key string) (clientstate.Envelope, error) {
	args := m.Called(ctx, actor, key)
	return args.Get(0).(clientstate.Envelope), args.Error(1)
}

func (m *MockStateService) Put(ctx context.Context, actor model.Actor, key string, body []byte) (clientstate.Envelope, error) {
	args := m.Called(ctx, actor, key, body)
	return args.Get(0).(clientstate.Envelope), args.Error(1)
}

func (m *MockStateService) Prepend(ctx context.Context, actor model.Actor, key string, item json.RawMessage) (clientstate.Envelope, error) {
	args := m.Called(ctx, actor, key, item)
	return args.Get(0).(clientstate.Envelope), args.Error(1)
}

var (
	testFarmer = model.Actor{ID: uuid.New(), Role: model.RoleFarmer}
	testBuyer  = model.Actor{ID: uuid.New(), Role: model.RoleBuyer}
)

// newRequest builds a request as the given actor. pathValues are name/value pairs.
// MockPaymentMethodService is a mock implementation of PaymentMethodService.
type MockPaymentMethodService struct {
	mock.Mock
}

func (m *MockPaymentMethodService) List(ctx context.Context, actor model.Actor) ([]model.PaymentMethod, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PaymentMethod), args.Error(1)
}

func (m *MockPaymentMethodService) Create(ctx context.Context, actor model.Actor, input model.PaymentMethodInput) (*model.PaymentMethod, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentMethod), args.Error(1)
}

func (m *MockPaymentMethodService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockPaymentMethodService) SetDefault(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func newRequest(method, target, body string, actor model.Actor, pathValues ...string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	if actor.ID != uuid.Nil {
		req = req.WithContext(middleware.WithActor(req.Context(), actor))
	}
	return req
}

func decodeError(body *httptest.ResponseRecorder) model.ErrorResponse {
	var resp model.ErrorResponse
	_ = json.NewDecoder(body.Body).Decode(&resp)
	return resp
}
