package model

// PriceObservation is one day's mandi price for a commodity.
// Date uses the DD/MM/YYYY format of the upstream feed.
type PriceObservation struct {
	Date       string  `json:"date"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
	ModalPrice float64 `json:"modalPrice"`
	District   string  `json:"district"`
	Market     string  `json:"market"`
}
