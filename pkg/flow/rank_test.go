package flow

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-shopflow-be/pkg/store"
)

func ratingPtr(v float64) *float64 { return &v }

func TestRankProductsDropsOverBudgetItems(t *testing.T) {
	spec := &store.RequirementSpec{
		ProductType: "laptop",
		Price:       &store.PriceFilter{Max: ratingPtr(1000)},
	}
	raw := &store.SearchResults{
		Products: []store.ProductResult{
			{ProductID: "cheap", Price: 650, Rating: ratingPtr(4.0)},
			{ProductID: "pricey", Price: 1500, Rating: ratingPtr(4.9)},
			{ProductID: "mid", Price: 900, Rating: ratingPtr(4.5)},
		},
		TotalCount: 3,
	}

	ranked := rankProducts(spec, raw)
	require.Len(t, ranked, 2)
	for _, product := range ranked {
		assert.NotEqual(t, "pricey", product.ProductID)
	}
}

func TestRankProductsPrefersHigherRatingAtSimilarPrice(t *testing.T) {
	spec := &store.RequirementSpec{ProductType: "laptop"}
	raw := &store.SearchResults{
		Products: []store.ProductResult{
			{ProductID: "low", Price: 800, Rating: ratingPtr(3.2)},
			{ProductID: "high", Price: 800, Rating: ratingPtr(4.9)},
		},
		TotalCount: 2,
	}

	ranked := rankProducts(spec, raw)
	require.Len(t, ranked, 2)
	assert.Equal(t, "high", ranked[0].ProductID)
}

func TestRankProductsRewardsAttributeMatches(t *testing.T) {
	spec := &store.RequirementSpec{
		ProductType:      "laptop",
		BrandPreferences: []string{"UltraBook"},
	}
	raw := &store.SearchResults{
		Products: []store.ProductResult{
			{ProductID: "other", Title: "ProBook 15", Price: 800, Rating: ratingPtr(4.5)},
			{ProductID: "brand", Title: "UltraBook 14", Price: 800, Rating: ratingPtr(4.5)},
		},
		TotalCount: 2,
	}

	ranked := rankProducts(spec, raw)
	require.Len(t, ranked, 2)
	assert.Equal(t, "brand", ranked[0].ProductID)
	assert.Contains(t, ranked[0].WhyRanked, "UltraBook")
}

func TestRankProductsCapsResultCount(t *testing.T) {
	spec := &store.RequirementSpec{ProductType: "laptop"}
	raw := &store.SearchResults{TotalCount: 25}
	for i := 0; i < 25; i++ {
		raw.Products = append(raw.Products, store.ProductResult{
			ProductID: fmt.Sprintf("p%d", i),
			Price:     float64(100 + i),
			Rating:    ratingPtr(4.0),
		})
	}

	ranked := rankProducts(spec, raw)
	assert.Len(t, ranked, maxRankedResults)
}

func TestRankProductsFillsWhyRanked(t *testing.T) {
	spec := &store.RequirementSpec{
		ProductType: "laptop",
		Price:       &store.PriceFilter{Max: ratingPtr(1000)},
	}
	raw := &store.SearchResults{
		Products: []store.ProductResult{
			{ProductID: "p1", Marketplace: store.MarketplaceAmazon, Title: "UltraBook", Price: 899, Currency: "USD", Rating: ratingPtr(4.6)},
		},
		TotalCount: 1,
	}

	ranked := rankProducts(spec, raw)
	require.Len(t, ranked, 1)
	assert.Contains(t, ranked[0].WhyRanked, "$899.00")
	assert.Contains(t, ranked[0].WhyRanked, "4.6/5")
}

func TestRankProductsEmptyInput(t *testing.T) {
	assert.Nil(t, rankProducts(&store.RequirementSpec{ProductType: "laptop"}, nil))
	assert.Nil(t, rankProducts(&store.RequirementSpec{ProductType: "laptop"}, &store.SearchResults{}))
}

func TestComposeSummary(t *testing.T) {
	spec := &store.RequirementSpec{ProductType: "laptop"}

	empty := composeSummary(spec, nil, 0)
	assert.Contains(t, empty, "could not find")
	assert.Contains(t, empty, "laptop")

	ranked := []store.ProductResult{
		{Title: "UltraBook 14", Price: 899, Currency: "USD", Marketplace: store.MarketplaceAmazon, Rating: ratingPtr(4.6)},
	}
	summary := composeSummary(spec, ranked, 12)
	assert.Contains(t, summary, "12")
	assert.Contains(t, summary, "UltraBook 14")
	assert.Contains(t, summary, "amazon")
}
