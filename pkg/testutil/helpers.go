// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/property-analyzer/internal/strategy"
	"github.com/shopspring/decimal"
)

// FindProperty finds a property's metrics by name in the results slice.
// Returns nil if no property has that name.
func FindProperty(results []*strategy.Metrics, name string) *strategy.Metrics {
	for _, m := range results {
		if m != nil && m.Name == name {
			return m
		}
	}
	return nil
}

// MoneyWithin reports whether got is within tolerance of want.
func MoneyWithin(got decimal.Decimal, want string, tolerance float64) bool {
	w, err := decimal.NewFromString(want)
	if err != nil {
		return false
	}
	return got.Sub(w).Abs().LessThanOrEqual(decimal.NewFromFloat(tolerance))
}
