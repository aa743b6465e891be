package loans

import (
	"fmt"
	"iter"
	"math"
	"slices"

	"github.com/iwvelando/property-analyzer/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Entry holds the values for a given month of an amortization schedule.
type Entry struct {
	Month               int             `json:"month"`
	Payment             decimal.Decimal `json:"payment"`
	Principal           decimal.Decimal `json:"principal"`
	Interest            decimal.Decimal `json:"interest"`
	Balance             decimal.Decimal `json:"balance"`
	CumulativePrincipal decimal.Decimal `json:"cumulative_principal"`
	CumulativeInterest  decimal.Decimal `json:"cumulative_interest"`
}

// Schedule is a month-by-month amortization schedule for one loan. Entries
// are produced lazily and the sequence can be walked any number of times.
type Schedule struct {
	terms       Terms
	principal   float64
	monthlyRate float64
	payment     float64
}

// NewSchedule prepares the schedule for a loan.
func NewSchedule(terms Terms) (*Schedule, error) {
	if !terms.Principal.IsPositive() {
		return nil, fmt.Errorf("%w: principal must be positive, got %s", ErrInvalidTerms, terms.Principal)
	}
	if terms.TermMonths <= 0 {
		return nil, fmt.Errorf("%w: term must be positive, got %d months", ErrInvalidTerms, terms.TermMonths)
	}
	if terms.InterestRate < 0 || math.IsNaN(terms.InterestRate) || math.IsInf(terms.InterestRate, 0) {
		return nil, fmt.Errorf("%w: interest rate must be a non-negative number, got %v", ErrInvalidTerms, terms.InterestRate)
	}

	principal := mathutil.Float(terms.Principal)
	s := &Schedule{
		terms:       terms,
		principal:   principal,
		monthlyRate: MonthlyRate(terms.InterestRate),
	}
	if terms.InterestOnly {
		s.payment = CalculateInterestPayment(principal, terms.InterestRate)
	} else {
		s.payment = CalculateMonthlyPayment(principal, terms.InterestRate, terms.TermMonths)
	}
	return s, nil
}

// Terms returns the loan the schedule was built from.
func (s *Schedule) Terms() Terms {
	return s.terms
}

// Len returns the number of entries in the schedule.
func (s *Schedule) Len() int {
	return s.terms.TermMonths
}

// MonthlyPayment returns the scheduled payment rounded to the cent.
func (s *Schedule) MonthlyPayment() decimal.Decimal {
	return mathutil.Cents(s.payment)
}

// All yields one entry per month of the term. Amounts are carried unrounded
// between months. Each emitted payment and interest is the difference of the
// running totals rounded to the cent, so the columns of any prefix of the
// schedule sum exactly to its cumulative figures and every row reconciles
// with the balance of the row before it.
func (s *Schedule) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		balance := s.principal
		var paid, charged float64
		emittedBalance := s.terms.Principal.Round(2)
		var emittedPaid, emittedInterest decimal.Decimal

		for month := 1; month <= s.terms.TermMonths; month++ {
			interest := balance * s.monthlyRate
			payment := s.payment
			principal := payment - interest
			last := month == s.terms.TermMonths

			switch {
			case s.terms.InterestOnly:
				principal = 0
				payment = interest
			case last:
				principal = balance
				payment = principal + interest
			}

			balance = math.Max(0, balance-principal)
			paid += payment
			charged += interest

			totalPaid := mathutil.Cents(paid)
			totalInterest := mathutil.Cents(charged)
			entryInterest := totalInterest.Sub(emittedInterest)
			entryPayment := totalPaid.Sub(emittedPaid)
			entryPrincipal := entryPayment.Sub(entryInterest)
			switch {
			case s.terms.InterestOnly:
				entryPrincipal = decimal.Zero
			case last:
				// Retire the remaining cents so the loan ends at zero.
				entryPrincipal = emittedBalance
			}
			entryPrincipal = decimal.Min(decimal.Max(entryPrincipal, decimal.Zero), emittedBalance)
			entryPayment = entryPrincipal.Add(entryInterest)
			emittedBalance = emittedBalance.Sub(entryPrincipal)
			emittedPaid = totalPaid
			emittedInterest = totalInterest

			entry := Entry{
				Month:               month,
				Payment:             entryPayment,
				Principal:           entryPrincipal,
				Interest:            entryInterest,
				Balance:             emittedBalance,
				CumulativePrincipal: s.terms.Principal.Round(2).Sub(emittedBalance),
				CumulativeInterest:  totalInterest,
			}
			if !yield(entry) {
				return
			}
		}
	}
}

// Entries materializes the full schedule.
func (s *Schedule) Entries() []Entry {
	return slices.Collect(s.All())
}

// BalanceAfter returns the remaining balance once the given number of
// payments has been made. Zero or negative months return the principal.
func (s *Schedule) BalanceAfter(months int) decimal.Decimal {
	balance := s.terms.Principal.Round(2)
	if months <= 0 {
		return balance
	}
	for entry := range s.All() {
		balance = entry.Balance
		if entry.Month >= months {
			break
		}
	}
	return balance
}
