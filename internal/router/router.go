package router

import (
	"net/http"

	"agrigenie/internal/handler"
	"agrigenie/internal/middleware"
	"agrigenie/internal/service"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Listings *handler.ListingHandler
	Orders   *handler.OrderHandler
	Cart     *handler.CartHandler
	Advisory *handler.AdvisoryHandler
	Account  *handler.AccountHandler
	Payments *handler.PaymentMethodHandler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, apiKey string, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	mux.HandleFunc("GET /api/marketplace/listings", h.Listings.List)
	mux.HandleFunc("POST /api/marketplace/listings", h.Listings.Create)
	mux.HandleFunc("GET /api/marketplace/listings/my-listings", h.Listings.MyListings)
	mux.HandleFunc("GET /api/marketplace/listings/{id}", h.Listings.Get)
	mux.HandleFunc("PUT /api/marketplace/listings/{id}", h.Listings.Update)
	mux.HandleFunc("DELETE /api/marketplace/listings/{id}", h.Listings.Delete)
	mux.HandleFunc("POST /api/marketplace/listings/{id}/toggle", h.Listings.Toggle)

	mux.HandleFunc("GET /api/marketplace/orders", h.Orders.List)
	mux.HandleFunc("POST /api/marketplace/orders", h.Orders.Create)
	mux.HandleFunc("GET /api/marketplace/orders/{id}", h.Orders.GetByID)
	mux.HandleFunc("PUT /api/marketplace/orders/{id}", h.Orders.UpdateStatus)
	mux.HandleFunc("GET /api/marketplace/stats", h.Orders.Stats)

	mux.HandleFunc("GET /api/cart", h.Cart.View)
	mux.HandleFunc("DELETE /api/cart", h.Cart.Clear)
	mux.HandleFunc("POST /api/cart/items", h.Cart.AddItem)
	mux.HandleFunc("PUT /api/cart/items/{listing_id}", h.Cart.UpdateItem)
	mux.HandleFunc("DELETE /api/cart/items/{listing_id}", h.Cart.RemoveItem)
	mux.HandleFunc("POST /api/cart/checkout", h.Cart.Checkout)
	mux.HandleFunc("GET /api/wishlist", h.Cart.Wishlist)
	mux.HandleFunc("POST /api/wishlist", h.Cart.AddToWishlist)
	mux.HandleFunc("DELETE /api/wishlist/{listing_id}", h.Cart.RemoveFromWishlist)

	mux.HandleFunc("GET /api/fetch-crop-data", h.Advisory.CropData)
	mux.HandleFunc("POST /api/generate-treatment", h.Advisory.Treatment)
	mux.HandleFunc("GET /api/price-comparison", h.Advisory.PriceComparison)
	mux.HandleFunc("GET /api/market-trends", h.Advisory.MarketTrends)
	mux.HandleFunc("GET /api/states", h.Advisory.Lookup(service.LookupStates))
	mux.HandleFunc("GET /api/markets", h.Advisory.Lookup(service.LookupMarkets))
	mux.HandleFunc("GET /api/crops", h.Advisory.Lookup(service.LookupCrops))

	mux.HandleFunc("GET /api/profile", h.Account.Profile)
	mux.HandleFunc("PUT /api/profile", h.Account.UpdateProfile)
	mux.HandleFunc("GET /api/profile/payment-methods", h.Payments.List)
	mux.HandleFunc("POST /api/profile/payment-methods", h.Payments.Create)
	mux.HandleFunc("DELETE /api/profile/payment-methods/{id}", h.Payments.Delete)
	mux.HandleFunc("PUT /api/profile/payment-methods/{id}/default", h.Payments.SetDefault)
	mux.HandleFunc("GET /api/state/{key}", h.Account.GetState)
	mux.HandleFunc("PUT /api/state/{key}", h.Account.PutState)
	mux.HandleFunc("POST /api/state/{key}", h.Account.PrependState)

	// Recovery -> tracing -> Logging -> CORS -> APIKeyAuth -> Identity
	return middleware.Chain(mux,
		middleware.Recovery(logger),
		func(next http.Handler) http.Handler {
			return otelhttp.NewHandler(next, "agrigenie-api",
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					return r.Method + " " + r.URL.Path
				}),
			)
		},
		middleware.Logging(logger),
		middleware.CORS,
		middleware.APIKeyAuth(apiKey, logger),
		middleware.Identity(logger),
	)
}
