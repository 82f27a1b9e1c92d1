package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestPriceFilterRejectsInvertedBounds(t *testing.T) {
	filter := &PriceFilter{Min: floatPtr(500), Max: floatPtr(100)}
	assert.Error(t, filter.Validate())
}

func TestPriceFilterRejectsNegativeBounds(t *testing.T) {
	assert.Error(t, (&PriceFilter{Min: floatPtr(-1)}).Validate())
	assert.Error(t, (&PriceFilter{Max: floatPtr(-100)}).Validate())
}

func TestPriceFilterAcceptsValidBounds(t *testing.T) {
	assert.NoError(t, (*PriceFilter)(nil).Validate())
	assert.NoError(t, (&PriceFilter{Max: floatPtr(1000)}).Validate())
	assert.NoError(t, (&PriceFilter{Min: floatPtr(100), Max: floatPtr(1000)}).Validate())
}

func TestRequirementSpecValidate(t *testing.T) {
	assert.Error(t, (&RequirementSpec{}).Validate(), "product type is required")
	assert.Error(t, (&RequirementSpec{ProductType: "laptop", RatingMin: floatPtr(6)}).Validate())
	assert.Error(t, (&RequirementSpec{
		ProductType: "laptop",
		Price:       &PriceFilter{Min: floatPtr(2000), Max: floatPtr(1000)},
	}).Validate())

	require.NoError(t, (&RequirementSpec{
		ProductType: "laptop",
		Price:       &PriceFilter{Max: floatPtr(1000), Currency: "USD"},
		RatingMin:   floatPtr(4),
	}).Validate())
}

func TestRequirementSpecHasConstraint(t *testing.T) {
	assert.False(t, (*RequirementSpec)(nil).HasConstraint())
	assert.False(t, (&RequirementSpec{ProductType: "phone"}).HasConstraint())
	assert.False(t, (&RequirementSpec{ProductType: "phone", Price: &PriceFilter{Currency: "USD"}}).HasConstraint())

	assert.True(t, (&RequirementSpec{ProductType: "phone", Price: &PriceFilter{Max: floatPtr(300)}}).HasConstraint())
	assert.True(t, (&RequirementSpec{ProductType: "phone", BrandPreferences: []string{"apple"}}).HasConstraint())
	assert.True(t, (&RequirementSpec{ProductType: "phone", Attributes: map[string]string{"color": "black"}}).HasConstraint())
}

func TestStageTerminal(t *testing.T) {
	assert.True(t, StageCompleted.Terminal())
	assert.True(t, StageFailed.Terminal())
	assert.True(t, StageCancelled.Terminal())
	assert.False(t, StageInitial.Terminal())
	assert.False(t, StageClarifying.Terminal())
	assert.False(t, StageSearching.Terminal())
}
