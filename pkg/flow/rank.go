package flow

import (
	"fmt"
	"sort"
	"strings"

	"ai-shopflow-be/pkg/store"
)

// maxRankedResults caps how many products a run surfaces to the client.
const maxRankedResults = 10

// Scoring weights. Price fit and rating dominate; attribute match breaks the
// remaining ties toward products that actually mention what the user asked for.
const (
	weightPriceFit  = 0.4
	weightRating    = 0.4
	weightAttrMatch = 0.2
)

type scoredProduct struct {
	product store.ProductResult
	score   float64
}

// rankProducts filters raw results against the requirement's hard constraints,
// scores the survivors and returns the top slice with why_ranked filled in.
func rankProducts(spec *store.RequirementSpec, raw *store.SearchResults) []store.ProductResult {
	if raw == nil || len(raw.Products) == 0 {
		return nil
	}

	scored := make([]scoredProduct, 0, len(raw.Products))
	for _, product := range raw.Products {
		if !withinBudget(spec, product.Price) {
			continue
		}
		priceFit := priceFitScore(spec, product.Price)
		rating := ratingScore(product.Rating)
		attrMatch, matchedTerms := attrMatchScore(spec, product)

		score := weightPriceFit*priceFit + weightRating*rating + weightAttrMatch*attrMatch
		product.WhyRanked = whyRanked(product, matchedTerms)
		scored = append(scored, scoredProduct{product: product, score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].product.Price < scored[j].product.Price
	})

	limit := len(scored)
	if limit > maxRankedResults {
		limit = maxRankedResults
	}
	ranked := make([]store.ProductResult, 0, limit)
	for _, item := range scored[:limit] {
		ranked = append(ranked, item.product)
	}
	return ranked
}

// withinBudget enforces the price filter as a hard constraint, not a soft
// scoring factor. A product over budget is never surfaced.
func withinBudget(spec *store.RequirementSpec, price float64) bool {
	if spec == nil || spec.Price == nil {
		return true
	}
	if spec.Price.Max != nil && price > *spec.Price.Max {
		return false
	}
	if spec.Price.Min != nil && price < *spec.Price.Min {
		return false
	}
	return true
}

// priceFitScore rewards headroom under the budget ceiling. Without a ceiling
// every price is equally acceptable.
func priceFitScore(spec *store.RequirementSpec, price float64) float64 {
	if spec == nil || spec.Price == nil || spec.Price.Max == nil || *spec.Price.Max <= 0 {
		return 0.5
	}
	fit := (*spec.Price.Max - price) / *spec.Price.Max
	if fit < 0 {
		return 0
	}
	if fit > 1 {
		return 1
	}
	return fit
}

func ratingScore(rating *float64) float64 {
	if rating == nil {
		return 0
	}
	score := *rating / 5.0
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// attrMatchScore measures how many of the requirement's attribute values and
// brand preferences appear in the product's title or attributes. With nothing
// to match against, the factor is neutral.
func attrMatchScore(spec *store.RequirementSpec, product store.ProductResult) (float64, []string) {
	if spec == nil {
		return 0.5, nil
	}
	terms := make([]string, 0, len(spec.Attributes)+len(spec.BrandPreferences))
	for _, value := range spec.Attributes {
		terms = append(terms, value)
	}
	terms = append(terms, spec.BrandPreferences...)
	if len(terms) == 0 {
		return 0.5, nil
	}
	sort.Strings(terms)

	haystack := strings.ToLower(product.Title)
	for key, value := range product.Attributes {
		haystack += " " + strings.ToLower(key) + " " + strings.ToLower(value)
	}

	var matched []string
	for _, term := range terms {
		if term != "" && strings.Contains(haystack, strings.ToLower(term)) {
			matched = append(matched, term)
		}
	}
	return float64(len(matched)) / float64(len(terms)), matched
}

func whyRanked(product store.ProductResult, matchedTerms []string) string {
	parts := []string{fmt.Sprintf("%s%.2f on %s", currencySymbol(product.Currency), product.Price, product.Marketplace)}
	if product.Rating != nil {
		parts = append(parts, fmt.Sprintf("rated %.1f/5", *product.Rating))
	}
	if len(matchedTerms) > 0 {
		parts = append(parts, "matches "+strings.Join(matchedTerms, ", "))
	}
	return strings.Join(parts, ", ")
}

func currencySymbol(currency string) string {
	switch strings.ToUpper(currency) {
	case "", "USD":
		return "$"
	case "EUR":
		return "€"
	case "GBP":
		return "£"
	default:
		return currency + " "
	}
}

// composeSummary renders the short natural-language recap sent with results.
func composeSummary(spec *store.RequirementSpec, ranked []store.ProductResult, totalCount int) string {
	productType := "products"
	if spec != nil && spec.ProductType != "" {
		productType = spec.ProductType
	}
	if len(ranked) == 0 {
		return fmt.Sprintf("I could not find any %s matching your requirements. Try relaxing the budget or constraints.", productType)
	}

	top := ranked[0]
	summary := fmt.Sprintf("I found %d matching %s (showing the top %d). Best match: %s at %s%.2f on %s",
		totalCount, productType, len(ranked), top.Title, currencySymbol(top.Currency), top.Price, top.Marketplace)
	if top.Rating != nil {
		summary += fmt.Sprintf(", rated %.1f/5", *top.Rating)
	}
	return summary + "."
}
