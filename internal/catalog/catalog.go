// Package catalog holds the immutable shop configuration the generator samples from:
// product lists, per-category price ranges, the payment and customer enumerations
// and the quantity distribution.
package catalog

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"salesheet/internal/core"
)

// PriceRange is an inclusive unit price interval.
type PriceRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Contains reports whether p lies within the range.
func (r PriceRange) Contains(p decimal.Decimal) bool {
	return p.GreaterThanOrEqual(r.Min) && p.LessThanOrEqual(r.Max)
}

// Weight is one entry of the quantity distribution.
type Weight struct {
	Quantity int
	Weight   int
}

// Catalog is read-only after construction. Accessors return copies.
type Catalog struct {
	categories      []core.Category
	products        map[core.Category][]string
	prices          map[core.Category]PriceRange
	paymentMethods  []core.PaymentMethod
	customerTypes   []core.CustomerType
	quantityWeights []Weight
}

// Definition is the mutable input used to build a Catalog.
type Definition struct {
	Products        map[core.Category][]string
	Prices          map[core.Category]PriceRange
	PaymentMethods  []core.PaymentMethod
	CustomerTypes   []core.CustomerType
	QuantityWeights []Weight
}

var ErrInvalidCatalog = errors.New("invalid catalog")

// New validates def and returns an immutable Catalog. Categories keep the
// fixed Food, Beverage, Snack, Dessert order; categories without products are skipped.
func New(def Definition) (*Catalog, error) {
	c := &Catalog{
		products: make(map[core.Category][]string),
		prices:   make(map[core.Category]PriceRange),
	}
	for _, cat := range core.Categories() {
		names, ok := def.Products[cat]
		if !ok {
			continue
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("%w: category %s has no products", ErrInvalidCatalog, cat)
		}
		pr, ok := def.Prices[cat]
		if !ok {
			return nil, fmt.Errorf("%w: category %s has no price range", ErrInvalidCatalog, cat)
		}
		if !pr.Min.IsPositive() || pr.Max.LessThan(pr.Min) {
			return nil, fmt.Errorf("%w: category %s price range %s-%s", ErrInvalidCatalog, cat, pr.Min, pr.Max)
		}
		for _, n := range names {
			if n == "" {
				return nil, fmt.Errorf("%w: category %s has an empty product name", ErrInvalidCatalog, cat)
			}
		}
		c.categories = append(c.categories, cat)
		c.products[cat] = append([]string(nil), names...)
		c.prices[cat] = pr
	}
	for cat := range def.Products {
		if !cat.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidCatalog, cat)
		}
	}
	if len(c.categories) == 0 {
		return nil, fmt.Errorf("%w: no categories", ErrInvalidCatalog)
	}
	if len(def.PaymentMethods) == 0 || len(def.CustomerTypes) == 0 {
		return nil, fmt.Errorf("%w: payment methods and customer types are required", ErrInvalidCatalog)
	}
	for _, pm := range def.PaymentMethods {
		if !pm.Valid() {
			return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidCatalog, pm)
		}
	}
	for _, ct := range def.CustomerTypes {
		if !ct.Valid() {
			return nil, fmt.Errorf("%w: unknown customer type %q", ErrInvalidCatalog, ct)
		}
	}
	if len(def.QuantityWeights) == 0 {
		return nil, fmt.Errorf("%w: quantity weights are required", ErrInvalidCatalog)
	}
	for _, w := range def.QuantityWeights {
		if w.Quantity < 1 || w.Weight <= 0 {
			return nil, fmt.Errorf("%w: quantity weight %d:%d", ErrInvalidCatalog, w.Quantity, w.Weight)
		}
	}
	c.paymentMethods = append([]core.PaymentMethod(nil), def.PaymentMethods...)
	c.customerTypes = append([]core.CustomerType(nil), def.CustomerTypes...)
	c.quantityWeights = append([]Weight(nil), def.QuantityWeights...)
	return c, nil
}

// Default returns the catalog of the reference shop.
func Default() *Catalog {
	c, err := New(DefaultDefinition())
	if err != nil {
		panic(err)
	}
	return c
}

func DefaultDefinition() Definition {
	price := func(lo, hi string) PriceRange {
		return PriceRange{Min: decimal.RequireFromString(lo), Max: decimal.RequireFromString(hi)}
	}
	return Definition{
		Products: map[core.Category][]string{
			core.Food:     {"Sandwich", "Burger", "Pizza Slice", "Salad", "Wrap", "Soup"},
			core.Beverage: {"Coffee", "Tea", "Juice", "Soda", "Water", "Smoothie"},
			core.Snack:    {"Chips", "Cookies", "Nuts", "Fruit", "Granola Bar", "Crackers"},
			core.Dessert:  {"Cake", "Ice Cream", "Pastry", "Muffin", "Donut", "Pie"},
		},
		Prices: map[core.Category]PriceRange{
			core.Food:     price("5.99", "15.99"),
			core.Beverage: price("1.99", "6.99"),
			core.Snack:    price("0.99", "4.99"),
			core.Dessert:  price("2.99", "8.99"),
		},
		PaymentMethods:  core.PaymentMethods(),
		CustomerTypes:   core.CustomerTypes(),
		QuantityWeights: []Weight{{1, 50}, {2, 30}, {3, 15}, {4, 4}, {5, 1}},
	}
}

func (c *Catalog) Categories() []core.Category {
	return append([]core.Category(nil), c.categories...)
}

func (c *Catalog) Products(cat core.Category) []string {
	return append([]string(nil), c.products[cat]...)
}

func (c *Catalog) PriceRange(cat core.Category) (PriceRange, bool) {
	pr, ok := c.prices[cat]
	return pr, ok
}

func (c *Catalog) PaymentMethods() []core.PaymentMethod {
	return append([]core.PaymentMethod(nil), c.paymentMethods...)
}

func (c *Catalog) CustomerTypes() []core.CustomerType {
	return append([]core.CustomerType(nil), c.customerTypes...)
}

func (c *Catalog) QuantityWeights() []Weight {
	return append([]Weight(nil), c.quantityWeights...)
}

// ProductCategory looks up the category a product belongs to.
func (c *Catalog) ProductCategory(name string) (core.Category, bool) {
	for _, cat := range c.categories {
		for _, p := range c.products[cat] {
			if p == name {
				return cat, true
			}
		}
	}
	return "", false
}
