// Package loans provides loan payment and amortization calculations.
package loans

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// ErrInvalidTerms is returned when a schedule is requested for a loan that
// cannot amortize (non-positive principal or term, negative rate).
var ErrInvalidTerms = errors.New("invalid loan terms")

// Terms holds the values describing a single loan. InterestRate is the
// annual rate as a percentage, e.g. 6.5 for 6.5%.
type Terms struct {
	Name         string          `json:"name,omitempty"`
	Principal    decimal.Decimal `json:"principal"`
	InterestRate float64         `json:"interest_rate"`
	TermMonths   int             `json:"term_months"`
	InterestOnly bool            `json:"interest_only"`
	DownPayment  decimal.Decimal `json:"down_payment"`
	ClosingCosts decimal.Decimal `json:"closing_costs"`
}

// Active reports whether the loan carries a payment at all.
func (t Terms) Active() bool {
	return t.Principal.IsPositive() && t.TermMonths > 0
}

// MonthlyPayment returns the periodic payment for the loan rounded to the
// cent. Inactive loans pay nothing.
func (t Terms) MonthlyPayment() decimal.Decimal {
	if !t.Active() {
		return decimal.Zero
	}
	principal := mathutil.Float(t.Principal)
	if t.InterestOnly {
		return mathutil.Cents(CalculateInterestPayment(principal, t.InterestRate))
	}
	return mathutil.Cents(CalculateMonthlyPayment(principal, t.InterestRate, t.TermMonths))
}

// MonthlyInterest returns one month of interest on the full principal.
func (t Terms) MonthlyInterest() decimal.Decimal {
	if !t.Principal.IsPositive() {
		return decimal.Zero
	}
	return mathutil.Cents(CalculateInterestPayment(mathutil.Float(t.Principal), t.InterestRate))
}

// MonthlyRate converts an annual percentage rate into a monthly fraction.
func MonthlyRate(annualInterestRate float64) float64 {
	return annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

// CalculateMonthlyPayment calculates the monthly payment for a loan using the standard amortization formula.
// The result is unrounded so that callers can round once at emission.
func CalculateMonthlyPayment(principal, annualInterestRate float64, termMonths int) float64 {
	if principal <= 0 || termMonths <= 0 {
		return 0
	}

	periodicInterestRate := MonthlyRate(annualInterestRate)
	if periodicInterestRate == 0 {
		// For zero interest, simply divide the principal by term
		return principal / float64(termMonths)
	}

	power := math.Pow(1.00+periodicInterestRate, float64(termMonths))
	return principal * periodicInterestRate * power / (power - 1.00)
}

// CalculateInterestPayment calculates the interest portion of a payment.
func CalculateInterestPayment(remainingPrincipal, annualInterestRate float64) float64 {
	return remainingPrincipal * MonthlyRate(annualInterestRate)
}

// Detail is the per-loan line of a combined debt service calculation.
type Detail struct {
	Name         string          `json:"name"`
	Principal    decimal.Decimal `json:"principal"`
	InterestRate float64         `json:"interest_rate"`
	TermMonths   int             `json:"term_months"`
	InterestOnly bool            `json:"interest_only"`
	Payment      decimal.Decimal `json:"payment"`
}

// Combined aggregates several concurrent loans.
type Combined struct {
	Loans             []Detail        `json:"loans"`
	TotalPrincipal    decimal.Decimal `json:"total_principal"`
	TotalPayment      decimal.Decimal `json:"total_payment"`
	TotalDownPayment  decimal.Decimal `json:"total_down_payment"`
	TotalClosingCosts decimal.Decimal `json:"total_closing_costs"`
}

// Combine computes every loan's payment independently and sums them. Loans
// that cannot carry a payment are left out of the per-loan detail but their
// down payment and closing costs still count.
func Combine(terms ...Terms) Combined {
	combined := Combined{
		TotalPrincipal:    decimal.Zero,
		TotalPayment:      decimal.Zero,
		TotalDownPayment:  decimal.Zero,
		TotalClosingCosts: decimal.Zero,
	}

	for i, t := range terms {
		combined.TotalDownPayment = combined.TotalDownPayment.Add(t.DownPayment)
		combined.TotalClosingCosts = combined.TotalClosingCosts.Add(t.ClosingCosts)
		if !t.Active() {
			continue
		}

		name := t.Name
		if name == "" {
			name = fmt.Sprintf("Loan %d", i+1)
		}
		payment := t.MonthlyPayment()
		combined.Loans = append(combined.Loans, Detail{
			Name:         name,
			Principal:    t.Principal,
			InterestRate: t.InterestRate,
			TermMonths:   t.TermMonths,
			InterestOnly: t.InterestOnly,
			Payment:      payment,
		})
		combined.TotalPrincipal = combined.TotalPrincipal.Add(t.Principal)
		combined.TotalPayment = combined.TotalPayment.Add(payment)
	}

	return combined
}
