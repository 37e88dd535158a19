package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agrigenie/internal/cart"
	"agrigenie/internal/events"
	"agrigenie/internal/gemini"
	"agrigenie/internal/handler"
	"agrigenie/internal/market"
	"agrigenie/internal/middleware"
	"agrigenie/internal/model"
	"agrigenie/internal/repository"
	"agrigenie/internal/router"
	"agrigenie/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-api-key"

func setupTestServer(t *testing.T, testDB *TestDB) http.Handler {
	t.Helper()

	logger := zerolog.Nop()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	// The price feed is always down so advisory requests take the fallback path.
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(feed.Close)

	// Initialize repositories
	listingRepo := repository.NewListingRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)
	profileRepo := repository.NewProfileRepository(testDB.Pool, logger)
	statsRepo := repository.NewStatsRepository(testDB.Pool, logger)
	stateRepo := repository.NewStateRepository(testDB.Pool, logger)
	paymentRepo := repository.NewPaymentMethodRepository(testDB.Pool, logger)

	publisher := events.NopPublisher{}
	cartStore := cart.NewRedisStore(redisClient, "test:", time.Hour, logger)
	marketClient := market.NewClient(market.ClientConfig{BaseURL: feed.URL, APIKey: "k", Timeout: time.Second}, logger)
	priceCache := market.NewRedisCache(redisClient, "test:", time.Minute, logger)

	// Initialize services
	listingService := service.NewListingService(listingRepo, logger)
	orderService := service.NewOrderService(orderRepo, listingRepo, publisher, logger)
	statsService := service.NewStatsService(statsRepo, logger)
	cartService := service.NewCartService(cartStore, listingRepo, orderRepo, paymentRepo, publisher, cart.DefaultShippingFee, logger)
	marketService := service.NewMarketService(marketClient, priceCache, market.NewGenerator(market.DefaultCatalogue(), 1), logger)
	treatmentService := service.NewTreatmentService(gemini.NewClient(gemini.Config{}, logger), logger)

	return router.New(router.Handlers{
		Listings: handler.NewListingHandler(listingService, logger),
		Orders:   handler.NewOrderHandler(orderService, statsService, logger),
		Cart:     handler.NewCartHandler(cartService, logger),
		Advisory: handler.NewAdvisoryHandler(marketService, treatmentService, logger),
		Account:  handler.NewAccountHandler(service.NewProfileService(profileRepo, logger), service.NewStateService(stateRepo, logger), logger),
		Payments: handler.NewPaymentMethodHandler(service.NewPaymentMethodService(paymentRepo, logger), logger),
	}, testAPIKey, logger)
}

// do sends a request as the given user. A zero actor sends no identity.
func do(t *testing.T, server http.Handler, method, path string, body any, actor model.Actor) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderAPIKey, testAPIKey)
	if actor.ID != uuid.Nil {
		req.Header.Set(middleware.HeaderUserID, actor.ID.String())
		req.Header.Set(middleware.HeaderUserRole, string(actor.Role))
	}
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func TestMarketplaceAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB)

	farmer := model.Actor{ID: uuid.New(), Role: model.RoleFarmer}
	otherFarmer := model.Actor{ID: uuid.New(), Role: model.RoleFarmer}
	buyer := model.Actor{ID: uuid.New(), Role: model.RoleBuyer}

	t.Run("listing, order and ownership flow", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedProfile(t, testDB.Pool, farmer.ID, "Asha Patil", model.RoleFarmer)

		w := do(t, server, http.MethodPost, "/api/marketplace/listings", map[string]any{
			"crop_name":      "Rice",
			"quantity":       100,
			"unit":           "kg",
			"price_per_unit": 40,
		}, farmer)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var listing model.Listing
		require.NoError(t, json.NewDecoder(w.Body).Decode(&listing))
		assert.True(t, listing.Available)

		w = do(t, server, http.MethodGet, "/api/marketplace/listings", nil, buyer)
		require.Equal(t, http.StatusOK, w.Code)
		var listings []model.Listing
		require.NoError(t, json.NewDecoder(w.Body).Decode(&listings))
		require.Len(t, listings, 1)
		assert.Equal(t, "Asha Patil", listings[0].FarmerName)

		w = do(t, server, http.MethodPost, "/api/marketplace/orders", map[string]any{
			"listing_id": listing.ID,
			"quantity":   30,
		}, buyer)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var order model.Order
		require.NoError(t, json.NewDecoder(w.Body).Decode(&order))
		assert.Equal(t, model.OrderStatusPending, order.Status)
		assert.True(t, decimal.NewFromInt(1200).Equal(order.TotalPrice), order.TotalPrice.String())

		w = do(t, server, http.MethodGet, "/api/marketplace/listings/"+listing.ID.String(), nil, buyer)
		require.NoError(t, json.NewDecoder(w.Body).Decode(&listing))
		assert.True(t, decimal.NewFromInt(70).Equal(listing.Quantity))

		w = do(t, server, http.MethodPost, "/api/marketplace/listings/"+listing.ID.String()+"/toggle", nil, otherFarmer)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = do(t, server, http.MethodPost, "/api/marketplace/listings/"+listing.ID.String()+"/toggle", nil, farmer)
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.NewDecoder(w.Body).Decode(&listing))
		assert.False(t, listing.Available)

		w = do(t, server, http.MethodPost, "/api/marketplace/orders", map[string]any{
			"listing_id": listing.ID,
			"quantity":   1,
		}, buyer)
		assert.Equal(t, http.StatusConflict, w.Code)

		// referenced by an order, so delete withdraws it instead
		w = do(t, server, http.MethodDelete, "/api/marketplace/listings/"+listing.ID.String(), nil, farmer)
		require.Equal(t, http.StatusOK, w.Code)
		var result model.DeleteListingResult
		require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
		assert.False(t, result.Deleted)
	})

	t.Run("order status lifecycle restores stock", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		listingID := SeedListing(t, testDB.Pool, farmer.ID, "Wheat", 50, 30)

		w := do(t, server, http.MethodPost, "/api/marketplace/orders", map[string]any{
			"crop_listing_id": listingID,
			"quantity":        20,
		}, buyer)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var order model.Order
		require.NoError(t, json.NewDecoder(w.Body).Decode(&order))

		w = do(t, server, http.MethodPut, "/api/marketplace/orders/"+order.ID.String(), map[string]string{"status": "completed"}, farmer)
		assert.Equal(t, http.StatusConflict, w.Code)

		w = do(t, server, http.MethodPut, "/api/marketplace/orders/"+order.ID.String(), map[string]string{"status": "rejected"}, farmer)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = do(t, server, http.MethodGet, "/api/marketplace/listings/"+listingID.String(), nil, buyer)
		var listing model.Listing
		require.NoError(t, json.NewDecoder(w.Body).Decode(&listing))
		assert.True(t, decimal.NewFromInt(50).Equal(listing.Quantity))

		w = do(t, server, http.MethodGet, "/api/marketplace/stats", nil, farmer)
		require.Equal(t, http.StatusOK, w.Code)
		var stats model.MarketplaceStats
		require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
		assert.Equal(t, 1, stats.TotalOrders)
		assert.Equal(t, 0, stats.PendingOrders)
	})

	t.Run("cart checkout creates one order per farmer", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		riceID := SeedListing(t, testDB.Pool, farmer.ID, "Rice", 100, 40)
		dalID := SeedListing(t, testDB.Pool, otherFarmer.ID, "Toor Dal", 20, 120)

		for _, item := range []map[string]any{
			{"listing_id": riceID, "quantity": 5},
			{"listing_id": dalID, "quantity": 2},
		} {
			w := do(t, server, http.MethodPost, "/api/cart/items", item, buyer)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		}

		w := do(t, server, http.MethodPost, "/api/cart/checkout", map[string]any{
			"shipping_address": map[string]string{
				"full_name":     "Ravi Kumar",
				"address_line1": "12 Market Road",
				"city":          "Pune",
				"state":         "Maharashtra",
				"postal_code":   "411001",
				"country":       "India",
				"phone_number":  "9876543210",
			},
		}, buyer)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var resp model.CheckoutResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Len(t, resp.Orders, 2)
		assert.True(t, decimal.RequireFromString("451.98").Equal(resp.Total), resp.Total.String())

		w = do(t, server, http.MethodGet, "/api/cart", nil, buyer)
		var view model.CartView
		require.NoError(t, json.NewDecoder(w.Body).Decode(&view))
		assert.Equal(t, 0, view.ItemCount)

		w = do(t, server, http.MethodGet, "/api/marketplace/orders", nil, buyer)
		var orders []model.Order
		require.NoError(t, json.NewDecoder(w.Body).Decode(&orders))
		assert.Len(t, orders, 2)
	})

	t.Run("checkout charges the default saved payment method", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		riceID := SeedListing(t, testDB.Pool, farmer.ID, "Rice", 100, 40)

		w := do(t, server, http.MethodPost, "/api/profile/payment-methods", map[string]any{
			"type":    "upi",
			"details": map[string]string{"upi_id": "ravi@okbank"},
		}, buyer)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var upi model.PaymentMethod
		require.NoError(t, json.NewDecoder(w.Body).Decode(&upi))
		assert.True(t, upi.IsDefault)

		w = do(t, server, http.MethodPost, "/api/profile/payment-methods", map[string]any{
			"type":    "card",
			"details": map[string]string{"card_number": "4111 1111 1111 1111", "expiry": "12/29"},
		}, buyer)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var card model.PaymentMethod
		require.NoError(t, json.NewDecoder(w.Body).Decode(&card))
		assert.False(t, card.IsDefault)
		assert.Equal(t, "1111", card.Details.CardNumber)

		w = do(t, server, http.MethodPut, "/api/profile/payment-methods/"+card.ID.String()+"/default", nil, buyer)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = do(t, server, http.MethodGet, "/api/profile/payment-methods", nil, buyer)
		require.Equal(t, http.StatusOK, w.Code)
		var methods []model.PaymentMethod
		require.NoError(t, json.NewDecoder(w.Body).Decode(&methods))
		require.Len(t, methods, 2)
		defaults := 0
		for _, m := range methods {
			if m.IsDefault {
				defaults++
				assert.Equal(t, card.ID, m.ID)
			}
		}
		assert.Equal(t, 1, defaults)

		w = do(t, server, http.MethodPost, "/api/cart/items", map[string]any{"listing_id": riceID, "quantity": 1}, buyer)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = do(t, server, http.MethodPost, "/api/cart/checkout", map[string]any{
			"shipping_address": map[string]string{
				"full_name":     "Ravi Kumar",
				"address_line1": "12 Market Road",
				"city":          "Pune",
				"state":         "Maharashtra",
				"postal_code":   "411001",
				"country":       "India",
				"phone_number":  "9876543210",
			},
		}, buyer)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var resp model.CheckoutResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Len(t, resp.Orders, 1)
		assert.Equal(t, "card", resp.Orders[0].PaymentMethod)

		w = do(t, server, http.MethodDelete, "/api/profile/payment-methods/"+upi.ID.String(), nil, farmer)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("requests without API key are rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/marketplace/listings", nil)
		w := httptest.NewRecorder()

		server.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("GET /health returns 200 without API key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()

		server.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAccountAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB)
	farmer := model.Actor{ID: uuid.New(), Role: model.RoleFarmer}

	t.Run("profile is created on first update", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		w := do(t, server, http.MethodGet, "/api/profile", nil, farmer)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = do(t, server, http.MethodPut, "/api/profile", map[string]string{"full_name": "Asha Patil", "location": "Nashik"}, farmer)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = do(t, server, http.MethodGet, "/api/profile", nil, farmer)
		require.Equal(t, http.StatusOK, w.Code)
		var profile model.Profile
		require.NoError(t, json.NewDecoder(w.Body).Decode(&profile))
		assert.Equal(t, "Asha Patil", profile.FullName)
		assert.Equal(t, model.RoleFarmer, profile.Role)
	})

	t.Run("client state keeps the newest five assessments", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		for i := 0; i < 7; i++ {
			w := do(t, server, http.MethodPost, "/api/state/cropAssessments", map[string]int{"n": i}, farmer)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		}

		w := do(t, server, http.MethodGet, "/api/state/cropAssessments", nil, farmer)
		require.Equal(t, http.StatusOK, w.Code)
		var env struct {
			Version int              `json:"version"`
			Data    []map[string]int `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
		assert.Equal(t, 1, env.Version)
		require.Len(t, env.Data, 5)
		assert.Equal(t, 6, env.Data[0]["n"])
	})

	t.Run("crop data falls back when the feed is down", func(t *testing.T) {
		w := do(t, server, http.MethodGet, "/api/fetch-crop-data?state=Maharashtra&commodity=Onion", nil, farmer)
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data    []model.PriceObservation `json:"data"`
			Message string                   `json:"message"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.NotEmpty(t, body.Data)
		assert.NotEmpty(t, body.Message)
	})

	t.Run("market routes report an unavailable feed", func(t *testing.T) {
		for _, path := range []string{
			"/api/price-comparison?crop=Onion",
			"/api/market-trends?crop=Onion",
			"/api/states",
		} {
			w := do(t, server, http.MethodGet, path, nil, farmer)
			assert.Equal(t, http.StatusBadGateway, w.Code, path)
			assert.Contains(t, w.Body.String(), model.ErrCodeMarketUnavailable, path)
		}
	})

	t.Run("treatment plan falls back without a generator key", func(t *testing.T) {
		w := do(t, server, http.MethodPost, "/api/generate-treatment", map[string]any{"diseases": []string{"Leaf rust"}}, farmer)
		require.Equal(t, http.StatusOK, w.Code)
		var plan model.TreatmentPlan
		require.NoError(t, json.NewDecoder(w.Body).Decode(&plan))
		assert.NotEmpty(t, plan.ImmediateSteps)
	})
}
