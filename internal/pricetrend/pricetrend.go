// Package pricetrend derives price direction and short-term predictions from
// mandi price series.
package pricetrend

import (
	"math"

	"agrigenie/internal/model"
)

// Direction classifies a price movement.
type Direction string

const (
	Rising           Direction = "rising"
	Falling          Direction = "falling"
	Stable           Direction = "stable"
	InsufficientData Direction = "insufficient_data"
)

const (
	// StableBand is the percent change, either side of zero, treated as stable.
	StableBand = 1.0

	predictionWindow = 5
	predictionMarkup = 1.05
)

// Result is the derived trend between two prices.
type Result struct {
	Direction     Direction `json:"direction"`
	PercentChange float64   `json:"percentChange"`
}

// Derive compares two consecutive prices. A non-positive or non-finite
// previous price yields InsufficientData.
func Derive(previous, current float64) Result {
	if previous <= 0 || !isFinite(previous) || !isFinite(current) {
		return Result{Direction: InsufficientData}
	}

	pct := (current - previous) * 100 / previous
	switch {
	case pct > StableBand:
		return Result{Direction: Rising, PercentChange: pct}
	case pct < -StableBand:
		return Result{Direction: Falling, PercentChange: pct}
	default:
		return Result{Direction: Stable, PercentChange: pct}
	}
}

// FromSeries derives the trend from the last two modal prices of a
// chronologically ordered series.
func FromSeries(series []model.PriceObservation) Result {
	if len(series) < 2 {
		return Result{Direction: InsufficientData}
	}
	n := len(series)
	return Derive(series[n-2].ModalPrice, series[n-1].ModalPrice)
}

// Predict estimates the next price as the mean of the last five modal prices
// plus a 5% markup, rounded to the nearest unit. It returns nil for series
// shorter than five observations.
func Predict(series []model.PriceObservation) *float64 {
	if len(series) < predictionWindow {
		return nil
	}
	var sum float64
	for _, obs := range series[len(series)-predictionWindow:] {
		sum += obs.ModalPrice
	}
	p := math.Round(sum / predictionWindow * predictionMarkup)
	return &p
}

// PredictFromLast applies the markup to the latest modal price. It is used
// for generated series where averaging adds nothing.
func PredictFromLast(series []model.PriceObservation) *float64 {
	if len(series) == 0 {
		return nil
	}
	p := math.Round(series[len(series)-1].ModalPrice * predictionMarkup)
	return &p
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Volatility is the population standard deviation of the period-on-period
// returns of a chronologically ordered price list. Returns from a
// non-positive price are skipped; fewer than two returns yield zero.
func Volatility(prices []float64) float64 {
	var returns []float64
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 || !isFinite(prices[i-1]) || !isFinite(prices[i]) {
			continue
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	if len(returns) < 2 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	return math.Sqrt(variance / float64(len(returns)))
}

// Extrapolate projects days prices beyond the last element of a
// chronologically ordered list, stepping by the average change between the
// first and last price. Projections are rounded to two places and floored
// at zero.
func Extrapolate(prices []float64, days int) []float64 {
	if len(prices) == 0 || days <= 0 {
		return nil
	}
	last := prices[len(prices)-1]
	var step float64
	if n := len(prices); n > 1 {
		step = (last - prices[0]) / float64(n-1)
	}

	out := make([]float64, days)
	for i := range out {
		p := math.Round((last+step*float64(i+1))*100) / 100
		out[i] = math.Max(p, 0)
	}
	return out
}
