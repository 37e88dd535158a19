package market

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"agrigenie/internal/model"
)

// DateLayout is the DD/MM/YYYY layout used by the upstream feed.
const DateLayout = "02/01/2006"

const (
	// MockDays is the length of a generated series.
	MockDays = 10

	priceVariation = 0.05
	spread         = 0.05
)

// Generator produces synthetic daily price series around catalogue base prices.
// It is safe for concurrent use.
type Generator struct {
	catalogue *Catalogue
	now       func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator creates a generator. Equal seeds yield equal sequences of series.
func NewGenerator(catalogue *Catalogue, seed uint64) *Generator {
	if catalogue == nil {
		catalogue = DefaultCatalogue()
	}
	return &Generator{
		catalogue: catalogue,
		now:       time.Now,
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Generate returns MockDays observations ending today, oldest first.
func (g *Generator) Generate(state, commodity string) []model.PriceObservation {
	today := g.now()
	start := today.AddDate(0, 0, -(MockDays - 1))
	return g.series(state, commodity, start, MockDays)
}

// Pad prepends generated observations dated before the first entry until
// series has at least minLen entries. series must be in chronological order.
func (g *Generator) Pad(series []model.PriceObservation, state, commodity string, minLen int) []model.PriceObservation {
	missing := minLen - len(series)
	if missing <= 0 {
		return series
	}

	anchor := g.now()
	if len(series) > 0 {
		if t, err := time.Parse(DateLayout, series[0].Date); err == nil {
			anchor = t
		}
	}

	out := g.series(state, commodity, anchor.AddDate(0, 0, -missing), missing)
	return append(out, series...)
}

func (g *Generator) series(state, commodity string, start time.Time, days int) []model.PriceObservation {
	base := g.catalogue.BasePrice(commodity)
	markets := g.catalogue.MarketsFor(state)

	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]model.PriceObservation, 0, days)
	for i := 0; i < days; i++ {
		market := markets[g.rng.IntN(len(markets))]
		variation := g.rng.Float64()*2*priceVariation - priceVariation
		price := base * (1 + variation)

		out = append(out, model.PriceObservation{
			Date:       start.AddDate(0, 0, i).Format(DateLayout),
			MinPrice:   math.Round(price * (1 - spread)),
			MaxPrice:   math.Round(price * (1 + spread)),
			ModalPrice: math.Round(price),
			District:   market,
			Market:     market,
		})
	}
	return out
}
