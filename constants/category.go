package constants

import (
	"strings"
)

type Category string

const (
	Food          Category = "Food"
	Gas           Category = "Gas"
	Groceries     Category = "Groceries"
	Retail        Category = "Retail"
	Travel        Category = "Travel"
	Utilities     Category = "Utilities"
	OfficeSupply  Category = "OfficeSupplies"
	Entertainment Category = "Entertainment"
	Other         Category = "Other"
)

var allCategories = []Category{
	Food,
	Gas,
	Groceries,
	Retail,
	Travel,
	Utilities,
	OfficeSupply,
	Entertainment,
	Other,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps a free-text receipt category from the model onto the
// fixed category list. The bool is false when nothing matched and Other was
// substituted.
func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]Category{
		"restaurant":      Food,
		"dining":          Food,
		"meals":           Food,
		"coffee":          Food,
		"fast food":       Food,
		"fuel":            Gas,
		"gas station":     Gas,
		"petrol":          Gas,
		"grocery":         Groceries,
		"supermarket":     Groceries,
		"shopping":        Retail,
		"clothing":        Retail,
		"hotel":           Travel,
		"airline":         Travel,
		"taxi":            Travel,
		"uber":            Travel,
		"lyft":            Travel,
		"parking":         Travel,
		"electric":        Utilities,
		"internet":        Utilities,
		"phone":           Utilities,
		"office supplies": OfficeSupply,
		"stationery":      OfficeSupply,
		"movies":          Entertainment,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	// check if it matches any category string
	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return Other, false
}
