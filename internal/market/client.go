package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"agrigenie/internal/model"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// DefaultBaseURL is the data.gov.in daily mandi price resource.
	DefaultBaseURL = "https://api.data.gov.in/resource/9ef84268-d588-465a-a308-a864a43d0070"

	defaultTimeout = 10 * time.Second
	recordLimit    = 100
)

// Client fetches observed prices from the mandi price feed.
type Client interface {
	// Fetch returns observations for a commodity in a state, sorted oldest
	// first. An empty slice means the feed had no records.
	Fetch(ctx context.Context, state, commodity string) ([]model.PriceObservation, error)

	// Records returns raw feed rows matching q in feed order.
	Records(ctx context.Context, q Query) ([]model.MarketRecord, error)
}

// Query selects feed rows. Empty filters are not sent.
type Query struct {
	State     string
	Commodity string
	Limit     int
}

// ClientConfig configures the data.gov.in client.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// StatusError reports a non-200 response from the price API.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("crop data API returned status %d", e.StatusCode)
}

type client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     zerolog.Logger
}

// NewClient creates a data.gov.in client.
func NewClient(cfg ClientConfig, logger zerolog.Logger) Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		logger:  logger.With().Str("component", "market-client").Logger(),
	}
}

type resourceResponse struct {
	Records []resourceRecord `json:"records"`
}

type resourceRecord struct {
	State       string `json:"state"`
	Commodity   string `json:"commodity"`
	ArrivalDate string `json:"arrival_date"`
	MinPrice    string `json:"min_price"`
	MaxPrice    string `json:"max_price"`
	ModalPrice  string `json:"modal_price"`
	District    string `json:"district"`
	Market      string `json:"market"`
}

func (c *client) Fetch(ctx context.Context, state, commodity string) ([]model.PriceObservation, error) {
	records, err := c.Records(ctx, Query{State: state, Commodity: commodity, Limit: recordLimit})
	if err != nil {
		return nil, err
	}

	return Observations(records), nil
}

func (c *client) Records(ctx context.Context, q Query) ([]model.MarketRecord, error) {
	params := url.Values{}
	params.Set("api-key", c.apiKey)
	params.Set("format", "json")
	if q.State != "" {
		params.Set("filters[state.keyword]", q.State)
	}
	if q.Commodity != "" {
		params.Set("filters[commodity]", q.Commodity)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = recordLimit
	}
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch crop data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("crop data API returned an error")
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var payload resourceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode crop data: %w", err)
	}

	out := make([]model.MarketRecord, 0, len(payload.Records))
	for _, r := range payload.Records {
		out = append(out, model.MarketRecord{
			State:       r.State,
			District:    r.District,
			Market:      r.Market,
			Commodity:   r.Commodity,
			ArrivalDate: r.ArrivalDate,
			MinPrice:    parsePrice(r.MinPrice),
			MaxPrice:    parsePrice(r.MaxPrice),
			ModalPrice:  parsePrice(r.ModalPrice),
		})
	}

	c.logger.Debug().
		Str("state", q.State).
		Str("commodity", q.Commodity).
		Int("records", len(out)).
		Msg("fetched crop data")

	return out, nil
}

// Observations converts feed rows into a chronologically sorted series.
func Observations(records []model.MarketRecord) []model.PriceObservation {
	out := make([]model.PriceObservation, 0, len(records))
	for _, r := range records {
		out = append(out, model.PriceObservation{
			Date:       r.ArrivalDate,
			MinPrice:   r.MinPrice,
			MaxPrice:   r.MaxPrice,
			ModalPrice: r.ModalPrice,
			District:   r.District,
			Market:     r.Market,
		})
	}
	SortByDate(out)
	return out
}

// SortByDate orders observations chronologically. Entries with unparseable
// dates sort first, keeping their relative order.
func SortByDate(series []model.PriceObservation) {
	sort.SliceStable(series, func(i, j int) bool {
		a, errA := time.Parse(DateLayout, series[i].Date)
		b, errB := time.Parse(DateLayout, series[j].Date)
		switch {
		case errA != nil && errB != nil:
			return false
		case errA != nil:
			return true
		case errB != nil:
			return false
		}
		return a.Before(b)
	})
}

func parsePrice(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
