package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedCatalog(t *testing.T) {
	for _, mode := range []Mode{ModeTest, ModeProduction} {
		c, err := Load(mode)
		require.NoError(t, err, mode)
		assert.Len(t, c.All(), 5)
		assert.Len(t, c.SubscriptionPlans(), 3)
		assert.Len(t, c.OneTimeProducts(), 2)
	}
}

func TestCatalogLookups(t *testing.T) {
	c := MustLoad(ModeTest)

	pro, ok := c.ByID("pro-monthly")
	require.True(t, ok)
	assert.Equal(t, "Pro Plan", pro.Name)
	assert.Equal(t, int64(2999), pro.Price)
	assert.True(t, pro.Popular)
	assert.Equal(t, "29.99 USD", pro.DisplayPrice())

	byPrice, ok := c.ByPriceID("price_1Rvl649s881ETZA7SvB8Mytj")
	require.True(t, ok)
	assert.Equal(t, "template-pack", byPrice.ID)
	assert.Empty(t, byPrice.Interval)

	name, ok := c.PlanName("price_1Rvl5u9s881ETZA7iVC1tLBm")
	assert.True(t, ok)
	assert.Equal(t, "Basic Plan", name)

	_, ok = c.ByID("missing")
	assert.False(t, ok)
	_, ok = c.ByPriceID("price_missing")
	assert.False(t, ok)
}

func TestCatalogReturnsCopies(t *testing.T) {
	c := MustLoad(ModeTest)

	all := c.All()
	all[0].Name = "changed"
	all[0].Features[0] = "changed"

	p, _ := c.ByID(all[0].ID)
	assert.NotEqual(t, "changed", p.Name)
	assert.NotEqual(t, "changed", p.Features[0])
}

func TestModeFor(t *testing.T) {
	assert.Equal(t, ModeProduction, ModeFor("prod"))
	assert.Equal(t, ModeProduction, ModeFor("production"))
	assert.Equal(t, ModeTest, ModeFor("dev"))
	assert.Equal(t, ModeTest, ModeFor(""))
}

func TestNewRejectsInvalidProducts(t *testing.T) {
	tests := []struct {
		name     string
		products []Product
	}{
		{
			name:     "missing price id",
			products: []Product{{ID: "a", Type: "one_time"}},
		},
		{
			name:     "bad type",
			products: []Product{{ID: "a", StripePriceID: "p1", Type: "lifetime"}},
		},
		{
			name:     "subscription without interval",
			products: []Product{{ID: "a", StripePriceID: "p1", Type: "subscription"}},
		},
		{
			name: "duplicate price",
			products: []Product{
				{ID: "a", StripePriceID: "p1", Type: "one_time"},
				{ID: "b", StripePriceID: "p1", Type: "one_time"},
			},
		},
		{
			name: "duplicate id",
			products: []Product{
				{ID: "a", StripePriceID: "p1", Type: "one_time"},
				{ID: "a", StripePriceID: "p2", Type: "one_time"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(ModeTest, tt.products)
			assert.Error(t, err)
		})
	}
}

func TestParseUnknownMode(t *testing.T) {
	_, err := Parse([]byte("test: []\n"), ModeProduction)
	assert.Error(t, err)
}
