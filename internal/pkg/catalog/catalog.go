package catalog

import (
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/ManuelReschke/SaaSKit/app/models"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/money"
)

//go:embed products.yaml
var productsYAML []byte

// Mode selects which Stripe account the product ids belong to.
type Mode string

const (
	ModeTest       Mode = "test"
	ModeProduction Mode = "production"
)

// ModeFor maps the APP_ENV value to a catalog mode.
func ModeFor(appEnv string) Mode {
	if appEnv == "prod" || appEnv == "production" {
		return ModeProduction
	}
	return ModeTest
}

type Product struct {
	ID              string   `yaml:"id" json:"id"`
	Name            string   `yaml:"name" json:"name"`
	Description     string   `yaml:"description" json:"description"`
	StripePriceID   string   `yaml:"stripe_price_id" json:"stripe_price_id"`
	StripeProductID string   `yaml:"stripe_product_id" json:"stripe_product_id"`
	Price           int64    `yaml:"price" json:"price"`
	Currency        string   `yaml:"currency" json:"currency"`
	Type            string   `yaml:"type" json:"type"`
	Interval        string   `yaml:"interval,omitempty" json:"interval,omitempty"`
	Features        []string `yaml:"features" json:"features"`
	Popular         bool     `yaml:"popular,omitempty" json:"popular"`
}

// DisplayPrice renders the price with its currency, e.g. "29.99 USD".
func (p Product) DisplayPrice() string {
	return money.Format(p.Price, p.Currency)
}

// Model converts the entry into its persisted form.
func (p Product) Model() models.Product {
	return models.Product{
		Slug:            p.ID,
		Name:            p.Name,
		Description:     p.Description,
		StripePriceID:   p.StripePriceID,
		StripeProductID: p.StripeProductID,
		Price:           p.Price,
		Currency:        p.Currency,
		Type:            p.Type,
		Interval:        p.Interval,
		Features:        slices.Clone(p.Features),
		Popular:         p.Popular,
	}
}

func (p Product) clone() Product {
	p.Features = slices.Clone(p.Features)
	return p
}

// Catalog is a read-only product table. All accessors return copies.
type Catalog struct {
	mode     Mode
	products []Product
	byID     map[string]int
	byPrice  map[string]int
}

// Load builds the catalog for mode from the embedded products file.
func Load(mode Mode) (*Catalog, error) {
	return Parse(productsYAML, mode)
}

// MustLoad is Load for process start-up.
func MustLoad(mode Mode) *Catalog {
	c, err := Load(mode)
	if err != nil {
		panic(err)
	}
	return c
}

// Parse reads a YAML document keyed by mode and validates the selected set.
func Parse(data []byte, mode Mode) (*Catalog, error) {
	var doc map[Mode][]Product
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	products, ok := doc[mode]
	if !ok || len(products) == 0 {
		return nil, fmt.Errorf("catalog has no products for mode %q", mode)
	}
	return New(mode, products)
}

// New validates products and indexes them by id and Stripe price id.
func New(mode Mode, products []Product) (*Catalog, error) {
	c := &Catalog{
		mode:     mode,
		products: make([]Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
		byPrice:  make(map[string]int, len(products)),
	}
	for _, p := range products {
		if p.ID == "" || p.StripePriceID == "" {
			return nil, fmt.Errorf("catalog product %q: id and stripe_price_id are required", p.Name)
		}
		if !models.IsValidProductType(p.Type) {
			return nil, fmt.Errorf("catalog product %q: invalid type %q", p.ID, p.Type)
		}
		if p.Type == models.ProductTypeSubscription && p.Interval != "month" && p.Interval != "year" {
			return nil, fmt.Errorf("catalog product %q: subscription needs interval month or year", p.ID)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("catalog product %q: duplicate id", p.ID)
		}
		if _, dup := c.byPrice[p.StripePriceID]; dup {
			return nil, fmt.Errorf("catalog product %q: duplicate price id %q", p.ID, p.StripePriceID)
		}
		c.byID[p.ID] = len(c.products)
		c.byPrice[p.StripePriceID] = len(c.products)
		c.products = append(c.products, p.clone())
	}
	return c, nil
}

func (c *Catalog) Mode() Mode {
	return c.mode
}

// All returns every product in file order.
func (c *Catalog) All() []Product {
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p.clone())
	}
	return out
}

// ByType filters by product type; an empty type returns everything.
func (c *Catalog) ByType(productType string) []Product {
	if productType == "" {
		return c.All()
	}
	out := []Product{}
	for _, p := range c.products {
		if p.Type == productType {
			out = append(out, p.clone())
		}
	}
	return out
}

func (c *Catalog) SubscriptionPlans() []Product {
	return c.ByType(models.ProductTypeSubscription)
}

func (c *Catalog) OneTimeProducts() []Product {
	return c.ByType(models.ProductTypeOneTime)
}

func (c *Catalog) ByID(id string) (Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i].clone(), true
}

func (c *Catalog) ByPriceID(priceID string) (Product, bool) {
	i, ok := c.byPrice[priceID]
	if !ok {
		return Product{}, false
	}
	return c.products[i].clone(), true
}

// PlanName returns the catalog name for a Stripe price id.
func (c *Catalog) PlanName(priceID string) (string, bool) {
	p, ok := c.ByPriceID(priceID)
	if !ok {
		return "", false
	}
	return p.Name, true
}
