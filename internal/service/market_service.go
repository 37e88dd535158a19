package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"agrigenie/internal/market"
	"agrigenie/internal/model"
	"agrigenie/internal/pricetrend"

	"github.com/rs/zerolog"
)

// minSeriesLength is the shortest history returned; shorter feeds are
// padded with generated observations.
const minSeriesLength = 7

const (
	msgMockRequested = "Using mock data"
	msgAPIFailure    = "Using mock data due to API failure"
	msgNoData        = "Using mock data due to no data found"
	msgError         = "Using mock data due to error"
)

const (
	comparisonLimit = 1000
	lookupLimit     = 1000
	trendLimit      = 100
	historyDays     = 14
	forecastDays    = 7

	significantChange = 5.0
	volatileReturns   = 0.1
	volatilityWindow  = 5
)

var generalTrendFactors = []string{
	"Based on historical market data analysis",
	"Considers seasonal trends and patterns",
}

var (
	errStateCommodityRequired = model.NewDomainError(model.ErrCodeInvalidRequest, "State and commodity are required")
	errCropRequired           = model.NewDomainError(model.ErrCodeInvalidRequest, "Crop parameter is required")
)

type marketService struct {
	client    market.Client
	cache     market.Cache
	generator *market.Generator
	now       func() time.Time
	logger    zerolog.Logger
}

// NewMarketService creates a market service. cache may be nil.
func NewMarketService(client market.Client, cache market.Cache, generator *market.Generator, logger zerolog.Logger) MarketService {
	return &marketService{
		client:    client,
		cache:     cache,
		generator: generator,
		now:       time.Now,
		logger:    logger.With().Str("service", "market").Logger(),
	}
}

func (s *marketService) CropData(ctx context.Context, state, commodity string, mock bool) (*CropData, error) {
	state = strings.TrimSpace(state)
	commodity = strings.TrimSpace(commodity)
	if state == "" || commodity == "" {
		return nil, errStateCommodityRequired
	}

	if mock {
		return s.mockData(state, commodity, msgMockRequested), nil
	}

	series, ok := s.cached(ctx, state, commodity)
	if !ok {
		var err error
		series, err = s.client.Fetch(ctx, state, commodity)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("state", state).
				Str("commodity", commodity).
				Msg("crop data fetch failed, using mock data")
			var statusErr *market.StatusError
			if errors.As(err, &statusErr) {
				return s.mockData(state, commodity, msgAPIFailure), nil
			}
			return s.mockData(state, commodity, msgError), nil
		}
		if len(series) == 0 {
			s.logger.Info().Str("state", state).Str("commodity", commodity).Msg("no crop data found, using mock data")
			return s.mockData(state, commodity, msgNoData), nil
		}
		s.store(ctx, state, commodity, series)
	}

	if len(series) < minSeriesLength {
		series = s.generator.Pad(series, state, commodity, minSeriesLength)
	}

	return &CropData{
		Data:           series,
		PredictedPrice: pricetrend.Predict(series),
		Trend:          pricetrend.FromSeries(series),
	}, nil
}

func (s *marketService) mockData(state, commodity, message string) *CropData {
	series := s.generator.Generate(state, commodity)
	return &CropData{
		Data:           series,
		PredictedPrice: pricetrend.PredictFromLast(series),
		Trend:          pricetrend.FromSeries(series),
		Message:        message,
	}
}

func (s *marketService) cached(ctx context.Context, state, commodity string) ([]model.PriceObservation, bool) {
	if s.cache == nil {
		return nil, false
	}
	series, ok, err := s.cache.Get(ctx, state, commodity)
	if err != nil {
		s.logger.Warn().Err(err).Msg("crop data cache read failed")
		return nil, false
	}
	return series, ok && len(series) > 0
}

func (s *marketService) store(ctx context.Context, state, commodity string, series []model.PriceObservation) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, state, commodity, series); err != nil {
		s.logger.Warn().Err(err).Msg("crop data cache write failed")
	}
}

func (s *marketService) PriceComparison(ctx context.Context, crop string) ([]model.MarketPrice, error) {
	crop = strings.TrimSpace(crop)
	if crop == "" {
		return nil, errCropRequired
	}

	records, err := s.records(ctx, market.Query{Commodity: crop, Limit: comparisonLimit})
	if err != nil {
		return nil, err
	}

	type total struct {
		sum   float64
		count int
	}
	totals := make(map[string]*total)
	for _, r := range records {
		name := strings.TrimSpace(r.Market)
		if name == "" {
			continue
		}
		t, ok := totals[name]
		if !ok {
			t = &total{}
			totals[name] = t
		}
		t.sum += r.ModalPrice
		t.count++
	}

	prices := make([]model.MarketPrice, 0, len(totals))
	for name, t := range totals {
		prices = append(prices, model.MarketPrice{Market: name, Price: round2(t.sum / float64(t.count))})
	}
	sort.Slice(prices, func(i, j int) bool {
		if prices[i].Price != prices[j].Price {
			return prices[i].Price > prices[j].Price
		}
		return prices[i].Market < prices[j].Market
	})
	return prices, nil
}

func (s *marketService) Trends(ctx context.Context, crop string) (*model.MarketTrend, error) {
	crop = strings.TrimSpace(crop)
	if crop == "" {
		return nil, errCropRequired
	}

	records, err := s.records(ctx, market.Query{Commodity: crop, Limit: trendLimit})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	series := market.Observations(records)
	if len(series) > historyDays {
		series = series[len(series)-historyDays:]
	}

	prices := make([]float64, len(series))
	history := make([]model.PricePoint, len(series))
	for i, obs := range series {
		prices[i] = obs.ModalPrice
		history[i] = model.PricePoint{Date: obs.Date, Price: obs.ModalPrice}
	}

	today := s.now()
	forecast := make([]model.PricePoint, 0, forecastDays)
	for i, p := range pricetrend.Extrapolate(prices, forecastDays) {
		forecast = append(forecast, model.PricePoint{
			Date:  today.AddDate(0, 0, i+1).Format(market.DateLayout),
			Price: p,
		})
	}

	trend := pricetrend.FromSeries(series)
	return &model.MarketTrend{
		CropName:         crop,
		CurrentPrice:     prices[len(prices)-1],
		HistoricalPrices: history,
		ForecastPrices:   forecast,
		Direction:        string(trend.Direction),
		Factors:          trendFactors(trend, prices),
	}, nil
}

func trendFactors(trend pricetrend.Result, prices []float64) []string {
	var factors []string
	if trend.Direction != pricetrend.InsufficientData && math.Abs(trend.PercentChange) > significantChange {
		kind := "increase"
		if trend.PercentChange < 0 {
			kind = "decrease"
		}
		factors = append(factors, fmt.Sprintf("Significant price %s of %.1f%%", kind, math.Abs(trend.PercentChange)))
	}

	recent := prices
	if len(recent) > volatilityWindow {
		recent = recent[len(recent)-volatilityWindow:]
	}
	if pricetrend.Volatility(recent) > volatileReturns {
		factors = append(factors, "High market volatility observed")
	}

	return append(factors, generalTrendFactors...)
}

func (s *marketService) Lookup(ctx context.Context, kind Lookup) ([]string, error) {
	var column func(model.MarketRecord) string
	switch kind {
	case LookupStates:
		column = func(r model.MarketRecord) string { return r.State }
	case LookupMarkets:
		column = func(r model.MarketRecord) string { return r.Market }
	case LookupCrops:
		column = func(r model.MarketRecord) string { return r.Commodity }
	default:
		return nil, model.NewDomainError(model.ErrCodeInvalidRequest, "Unknown lookup")
	}

	if s.cache != nil {
		values, ok, err := s.cache.GetList(ctx, string(kind))
		if err != nil {
			s.logger.Warn().Err(err).Str("lookup", string(kind)).Msg("lookup cache read failed")
		} else if ok {
			return values, nil
		}
	}

	records, err := s.records(ctx, market.Query{Limit: lookupLimit})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, r := range records {
		v := strings.TrimSpace(column(r))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)

	if s.cache != nil && len(values) > 0 {
		if err := s.cache.SetList(ctx, string(kind), values); err != nil {
			s.logger.Warn().Err(err).Str("lookup", string(kind)).Msg("lookup cache write failed")
		}
	}
	return values, nil
}

func (s *marketService) records(ctx context.Context, q market.Query) ([]model.MarketRecord, error) {
	records, err := s.client.Records(ctx, q)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("commodity", q.Commodity).
			Msg("market feed request failed")
		return nil, model.ErrMarketUnavailable
	}
	return records, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
