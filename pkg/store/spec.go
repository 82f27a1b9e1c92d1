package store

import "fmt"

// Condition narrows results to a product condition.
type Condition string

const (
	ConditionNew         Condition = "new"
	ConditionUsed        Condition = "used"
	ConditionRefurbished Condition = "refurbished"
)

// Marketplace identifies a search target.
type Marketplace string

const (
	MarketplaceAmazon  Marketplace = "amazon"
	MarketplaceWalmart Marketplace = "walmart"
	MarketplaceEbay    Marketplace = "ebay"
	MarketplaceKroger  Marketplace = "kroger"
)

// DefaultMarketplaces is used when the extracted spec names no target.
func DefaultMarketplaces() []Marketplace {
	return []Marketplace{MarketplaceAmazon, MarketplaceWalmart}
}

// PriceFilter bounds the acceptable price range.
type PriceFilter struct {
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Currency string   `json:"currency,omitempty"`
}

// Validate rejects inverted or negative bounds.
func (p *PriceFilter) Validate() error {
	if p == nil {
		return nil
	}
	if p.Min != nil && *p.Min < 0 {
		return fmt.Errorf("price filter: min %v is negative", *p.Min)
	}
	if p.Max != nil && *p.Max < 0 {
		return fmt.Errorf("price filter: max %v is negative", *p.Max)
	}
	if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
		return fmt.Errorf("price filter: min %v exceeds max %v", *p.Min, *p.Max)
	}
	return nil
}

// RequirementSpec is the structured representation of user search intent,
// built up incrementally across turns.
type RequirementSpec struct {
	ProductType      string            `json:"product_type"`
	Attributes       map[string]string `json:"attributes,omitempty"`
	Filters          map[string]string `json:"filters,omitempty"`
	Price            *PriceFilter      `json:"price,omitempty"`
	BrandPreferences []string          `json:"brand_preferences,omitempty"`
	RatingMin        *float64          `json:"rating_min,omitempty"`
	Condition        Condition         `json:"condition,omitempty"`
	Marketplaces     []Marketplace     `json:"marketplaces,omitempty"`
}

// Validate enforces the spec's structural invariants.
func (r *RequirementSpec) Validate() error {
	if r.ProductType == "" {
		return fmt.Errorf("requirement spec: product type is empty")
	}
	if err := r.Price.Validate(); err != nil {
		return err
	}
	if r.RatingMin != nil && (*r.RatingMin < 0 || *r.RatingMin > 5) {
		return fmt.Errorf("requirement spec: rating_min %v out of range", *r.RatingMin)
	}
	return nil
}

// HasConstraint reports whether the spec carries at least one meaningful
// narrowing beyond the bare product type. Vague specs trigger clarification.
func (r *RequirementSpec) HasConstraint() bool {
	if r == nil {
		return false
	}
	if r.Price != nil && (r.Price.Min != nil || r.Price.Max != nil) {
		return true
	}
	return len(r.BrandPreferences) > 0 ||
		r.RatingMin != nil ||
		r.Condition != "" ||
		len(r.Attributes) > 0 ||
		len(r.Filters) > 0
}
