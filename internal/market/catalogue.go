// Package market provides mandi price data: the data.gov.in client, a
// generator for synthetic series, the price catalogue that seeds it and a
// Redis cache of fetched series.
package market

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultKey names the catalogue entry used for unknown commodities and states.
const DefaultKey = "Default"

// Catalogue holds reference base prices per commodity and market names per state.
type Catalogue struct {
	BasePrices map[string]float64  `yaml:"base_prices"`
	Markets    map[string][]string `yaml:"markets"`
}

// ParseCatalogue decodes a YAML catalogue and checks it is usable.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalogue: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate requires default entries and positive prices.
func (c *Catalogue) Validate() error {
	if _, ok := c.BasePrices[DefaultKey]; !ok {
		return fmt.Errorf("catalogue has no %s base price", DefaultKey)
	}
	if len(c.Markets[DefaultKey]) == 0 {
		return fmt.Errorf("catalogue has no %s markets", DefaultKey)
	}
	for name, price := range c.BasePrices {
		if price <= 0 {
			return fmt.Errorf("catalogue base price for %s must be positive", name)
		}
	}
	return nil
}

// BasePrice returns the reference price for commodity, matching names
// case-insensitively and falling back to the default.
func (c *Catalogue) BasePrice(commodity string) float64 {
	if p, ok := lookup(c.BasePrices, commodity); ok {
		return p
	}
	return c.BasePrices[DefaultKey]
}

// MarketsFor returns the market names for state, or the default list.
func (c *Catalogue) MarketsFor(state string) []string {
	if m, ok := lookup(c.Markets, state); ok && len(m) > 0 {
		return m
	}
	return c.Markets[DefaultKey]
}

func lookup[V any](m map[string]V, name string) (V, bool) {
	name = strings.TrimSpace(name)
	if v, ok := m[name]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// DefaultCatalogue returns the built-in catalogue.
func DefaultCatalogue() *Catalogue {
	return &Catalogue{
		BasePrices: map[string]float64{
			"Wheat":     2200,
			"Rice":      3500,
			"Groundnut": 5500,
			"Maize":     1800,
			"Sugarcane": 350,
			"Cotton":    6000,
			"Soybean":   4200,
			"Jowar":     2800,
			"Bajra":     2500,
			"Ragi":      3000,
			"Turmeric":  12000,
			"Chilli":    15000,
			"Onion":     2000,
			"Potato":    1500,
			"Tomato":    3000,
			DefaultKey:  3000,
		},
		Markets: map[string][]string{
			"Telangana":      {"Warangal", "Karimnagar", "Nizamabad", "Khammam", "Nalgonda", "Siddipet", "Suryapet"},
			"Andhra Pradesh": {"Guntur", "Kurnool", "Krishna", "Prakasam", "Anantapur", "Chittoor", "Visakhapatnam"},
			"Karnataka":      {"Bangalore", "Mysore", "Hubli", "Mangalore", "Belgaum", "Gulbarga", "Bellary"},
			"Maharashtra":    {"Mumbai", "Pune", "Nagpur", "Nashik", "Kolhapur", "Aurangabad", "Solapur"},
			"Gujarat":        {"Ahmedabad", "Surat", "Vadodara", "Rajkot", "Bhavnagar", "Jamnagar", "Junagadh"},
			"Uttar Pradesh":  {"Lucknow", "Kanpur", "Agra", "Varanasi", "Prayagraj", "Gorakhpur", "Meerut"},
			"Punjab":         {"Amritsar", "Ludhiana", "Jalandhar", "Patiala", "Bathinda", "Mohali", "Ferozepur"},
			"Haryana":        {"Gurgaon", "Faridabad", "Rohtak", "Hisar", "Karnal", "Ambala", "Sonipat"},
			"Rajasthan":      {"Jaipur", "Jodhpur", "Kota", "Bikaner", "Udaipur", "Alwar", "Bhilwara"},
			"Madhya Pradesh": {"Bhopal", "Indore", "Jabalpur", "Gwalior", "Ujjain", "Rewa", "Satna"},
			DefaultKey:       {"Central Market", "City Market", "District Market", "Regional Market", "State Market", "Town Market", "Village Market"},
		},
	}
}
