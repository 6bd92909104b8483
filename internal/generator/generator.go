// Package generator synthesizes representative sales transactions from a catalog.
package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"salesheet/internal/catalog"
	"salesheet/internal/clock"
	"salesheet/internal/core"
)

const (
	openingHour = 8
	closingHour = 20 // last hour a sale can start in
)

// Generator is not safe for concurrent use; its random source is unsynchronized.
type Generator struct {
	catalog *catalog.Catalog
	rng     *rand.Rand
	clock   clock.Clock
}

type Option func(*Generator)

// WithRand replaces the random source, typically with a seeded one in tests.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rng = r }
}

// WithClock sets the clock that decides the last generated day.
func WithClock(c clock.Clock) Option {
	return func(g *Generator) { g.clock = c }
}

func New(cat *catalog.Catalog, opts ...Option) *Generator {
	if cat == nil {
		cat = catalog.Default()
	}
	g := &Generator{
		catalog: cat,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		clock:   clock.NewRealClock(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns transactions for dayCount consecutive days ending today.
// Weekend days draw their volume from [round(0.8*max), max], weekdays from
// [min, round(0.7*max)].
func (g *Generator) Generate(dayCount, minPerDay, maxPerDay int) ([]core.Transaction, error) {
	if err := ValidateBounds(dayCount, minPerDay, maxPerDay); err != nil {
		return nil, err
	}

	last := core.DateOf(g.clock.Now())
	first := last.AddDate(0, 0, -(dayCount - 1))

	var out []core.Transaction
	for i := 0; i < dayCount; i++ {
		day := core.Date{Time: first.AddDate(0, 0, i)}
		lo, hi := DayVolumeRange(day, minPerDay, maxPerDay)
		n := lo + g.rng.Intn(hi-lo+1)
		for j := 0; j < n; j++ {
			out = append(out, g.transaction(day))
		}
	}
	return out, nil
}

// ValidateBounds checks generator parameters without generating anything.
func ValidateBounds(dayCount, minPerDay, maxPerDay int) error {
	switch {
	case dayCount <= 0:
		return fmt.Errorf("%w: day count must be positive, got %d", core.ErrInvalidParameter, dayCount)
	case minPerDay <= 0 || maxPerDay <= 0:
		return fmt.Errorf("%w: per-day bounds must be positive, got [%d, %d]", core.ErrInvalidParameter, minPerDay, maxPerDay)
	case minPerDay > maxPerDay:
		return fmt.Errorf("%w: minimum per day %d exceeds maximum %d", core.ErrInvalidParameter, minPerDay, maxPerDay)
	}
	return nil
}

// DayVolumeRange returns the inclusive transaction count bounds for day.
// A weekday upper bound below minPerDay is raised to minPerDay.
func DayVolumeRange(day core.Date, minPerDay, maxPerDay int) (int, int) {
	if day.IsWeekend() {
		return roundTenths(8 * maxPerDay), maxPerDay
	}
	hi := roundTenths(7 * maxPerDay)
	if hi < minPerDay {
		hi = minPerDay
	}
	return minPerDay, hi
}

// roundTenths returns round(v/10) with halves rounded up.
func roundTenths(v int) int {
	return (v + 5) / 10
}

func (g *Generator) transaction(day core.Date) core.Transaction {
	cats := g.catalog.Categories()
	cat := cats[g.rng.Intn(len(cats))]
	products := g.catalog.Products(cat)
	product := products[g.rng.Intn(len(products))]

	pms := g.catalog.PaymentMethods()
	cts := g.catalog.CustomerTypes()

	tx := core.NewTransaction(day, product, cat, g.quantity(), g.unitPrice(cat),
		pms[g.rng.Intn(len(pms))], cts[g.rng.Intn(len(cts))])

	hour := openingHour + g.rng.Intn(closingHour-openingHour+1)
	minute := g.rng.Intn(60)
	tx.SoldAt = time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
	return tx
}

func (g *Generator) quantity() int {
	weights := g.catalog.QuantityWeights()
	total := 0
	for _, w := range weights {
		total += w.Weight
	}
	r := g.rng.Intn(total)
	for _, w := range weights {
		if r < w.Weight {
			return w.Quantity
		}
		r -= w.Weight
	}
	return weights[len(weights)-1].Quantity
}

// unitPrice draws a whole-cent price uniformly from the category range.
func (g *Generator) unitPrice(cat core.Category) decimal.Decimal {
	pr, _ := g.catalog.PriceRange(cat)
	lo := pr.Min.Shift(2).Ceil().IntPart()
	hi := pr.Max.Shift(2).Floor().IntPart()
	if hi < lo {
		return pr.Min
	}
	return decimal.New(lo+g.rng.Int63n(hi-lo+1), -2)
}
