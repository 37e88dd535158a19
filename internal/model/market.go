package model

// MarketRecord is one raw row of the mandi price feed.
type MarketRecord struct {
	State       string
	District    string
	Market      string
	Commodity   string
	ArrivalDate string
	MinPrice    float64
	MaxPrice    float64
	ModalPrice  float64
}

// MarketPrice is the average modal price of a commodity at one market.
type MarketPrice struct {
	Market string  `json:"market"`
	Price  float64 `json:"price"`
}

// PricePoint is a price on a given day.
type PricePoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// MarketTrend summarises recent prices for a commodity across markets.
type MarketTrend struct {
	CropName         string       `json:"crop_name"`
	CurrentPrice     float64      `json:"current_price"`
	HistoricalPrices []PricePoint `json:"historical_prices"`
	ForecastPrices   []PricePoint `json:"forecast_prices"`
	Direction        string       `json:"direction"`
	Factors          []string     `json:"factors"`
}
