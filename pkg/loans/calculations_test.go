package loans

import (
	"errors"
	"math"
	"testing"

	"github.com/iwvelando/property-analyzer/pkg/mathutil"
	"github.com/shopspring/decimal"
)

func TestCalculateMonthlyPayment(t *testing.T) {
	tests := []struct {
		name               string
		principal          float64
		annualInterestRate float64
		termMonths         int
		expected           float64
	}{
		{"30-year investor mortgage", 150000, 6.0, 360, 899.33},
		{"BRRRR refinance", 176250, 7.125, 360, 1187.43},
		{"5-year note", 20000, 4.0, 60, 368.33},
		{"Zero interest loan", 10000, 0.0, 60, 166.67},
		{"Zero principal", 0, 5.0, 60, 0},
		{"Zero term", 10000, 5.0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateMonthlyPayment(tt.principal, tt.annualInterestRate, tt.termMonths)
			if math.Abs(mathutil.Round(result)-tt.expected) > 0.005 {
				t.Errorf("CalculateMonthlyPayment() = %.4f, expected %.2f", result, tt.expected)
			}
		})
	}
}

func TestCalculateInterestPayment(t *testing.T) {
	tests := []struct {
		name               string
		remainingPrincipal float64
		annualInterestRate float64
		expected           float64
	}{
		{"Standard mortgage interest", 200000, 6.0, 1000.0},
		{"Hard money interest", 120000, 12.0, 1200.0},
		{"Zero interest", 10000, 0.0, 0.0},
		{"Very small principal", 100, 6.0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateInterestPayment(tt.remainingPrincipal, tt.annualInterestRate)
			if math.Abs(result-tt.expected) > 0.01 {
				t.Errorf("CalculateInterestPayment() = %.2f, expected %.2f", result, tt.expected)
			}
		})
	}
}

func TestTermsMonthlyPayment(t *testing.T) {
	tests := []struct {
		name     string
		terms    Terms
		expected string
	}{
		{
			name:     "Amortizing",
			terms:    Terms{Principal: decimal.NewFromInt(150000), InterestRate: 6, TermMonths: 360},
			expected: "899.33",
		},
		{
			name:     "Interest only",
			terms:    Terms{Principal: decimal.NewFromInt(120000), InterestRate: 10, TermMonths: 12, InterestOnly: true},
			expected: "1000",
		},
		{
			name:     "Inactive loan",
			terms:    Terms{Principal: decimal.Zero, InterestRate: 6, TermMonths: 360},
			expected: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.terms.MonthlyPayment()
			if !result.Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("MonthlyPayment() = %s, expected %s", result, tt.expected)
			}
			again := tt.terms.MonthlyPayment()
			if !again.Equal(result) {
				t.Errorf("MonthlyPayment() not deterministic: %s then %s", result, again)
			}
		})
	}
}

func TestCombine(t *testing.T) {
	combined := Combine(
		Terms{Name: "First", Principal: decimal.NewFromInt(150000), InterestRate: 6, TermMonths: 360,
			DownPayment: decimal.NewFromInt(37500), ClosingCosts: decimal.NewFromInt(4000)},
		Terms{Principal: decimal.NewFromInt(20000), InterestRate: 8, TermMonths: 120, InterestOnly: true,
			ClosingCosts: decimal.NewFromInt(500)},
		Terms{Name: "Seller credit", Principal: decimal.Zero, TermMonths: 0,
			DownPayment: decimal.NewFromInt(1000), ClosingCosts: decimal.NewFromInt(250)},
	)

	if len(combined.Loans) != 2 {
		t.Fatalf("expected 2 active loans in detail, got %d", len(combined.Loans))
	}
	if combined.Loans[1].Name != "Loan 2" {
		t.Errorf("expected default name Loan 2, got %q", combined.Loans[1].Name)
	}

	// 899.33 + 20000 * 8% / 12 = 899.33 + 133.33
	if !combined.TotalPayment.Equal(decimal.RequireFromString("1032.66")) {
		t.Errorf("TotalPayment = %s, expected 1032.66", combined.TotalPayment)
	}
	if !combined.TotalDownPayment.Equal(decimal.NewFromInt(38500)) {
		t.Errorf("TotalDownPayment = %s, expected 38500", combined.TotalDownPayment)
	}
	if !combined.TotalClosingCosts.Equal(decimal.NewFromInt(4750)) {
		t.Errorf("TotalClosingCosts = %s, expected 4750", combined.TotalClosingCosts)
	}
	if !combined.TotalPrincipal.Equal(decimal.NewFromInt(170000)) {
		t.Errorf("TotalPrincipal = %s, expected 170000", combined.TotalPrincipal)
	}
}

func TestCombineEmpty(t *testing.T) {
	combined := Combine()
	if len(combined.Loans) != 0 || !combined.TotalPayment.IsZero() {
		t.Errorf("expected empty combination, got %+v", combined)
	}
}

func TestNewScheduleRejectsInvalidTerms(t *testing.T) {
	tests := []struct {
		name  string
		terms Terms
	}{
		{"Zero principal", Terms{Principal: decimal.Zero, InterestRate: 5, TermMonths: 360}},
		{"Negative principal", Terms{Principal: decimal.NewFromInt(-1), InterestRate: 5, TermMonths: 360}},
		{"Zero term", Terms{Principal: decimal.NewFromInt(1000), InterestRate: 5, TermMonths: 0}},
		{"Negative rate", Terms{Principal: decimal.NewFromInt(1000), InterestRate: -1, TermMonths: 12}},
		{"NaN rate", Terms{Principal: decimal.NewFromInt(1000), InterestRate: math.NaN(), TermMonths: 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchedule(tt.terms)
			if !errors.Is(err, ErrInvalidTerms) {
				t.Errorf("NewSchedule() error = %v, expected ErrInvalidTerms", err)
			}
		})
	}
}
