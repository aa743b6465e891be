package loans

import (
	"math"
	"testing"

	"github.com/iwvelando/property-analyzer/pkg/mathutil"
	"github.com/shopspring/decimal"
)

func TestScheduleConvergence(t *testing.T) {
	tests := []struct {
		name      string
		principal int64
		rate      float64
		term      int
	}{
		{"30-year conventional", 150000, 6.0, 360},
		{"15-year", 320000, 5.25, 180},
		{"Zero interest", 12000, 0, 48},
		{"Single month", 5000, 9.0, 1},
		{"High rate short term", 45000, 14.5, 24},
		{"Odd principal", 98765, 3.333, 97},
		{"Fractional rate 30-year", 176250, 7.125, 360},
		{"Reference 30-year", 175000, 4.5, 360},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule, err := NewSchedule(Terms{
				Principal:    decimal.NewFromInt(tt.principal),
				InterestRate: tt.rate,
				TermMonths:   tt.term,
			})
			if err != nil {
				t.Fatalf("NewSchedule() error = %v", err)
			}

			entries := schedule.Entries()
			if len(entries) != tt.term {
				t.Fatalf("expected %d entries, got %d", tt.term, len(entries))
			}

			previous := decimal.NewFromInt(tt.principal)
			sumPrincipal := decimal.Zero
			sumInterest := decimal.Zero
			for i, entry := range entries {
				if entry.Month != i+1 {
					t.Fatalf("entry %d has month %d", i, entry.Month)
				}
				if entry.Balance.IsNegative() {
					t.Fatalf("month %d balance is negative: %s", entry.Month, entry.Balance)
				}
				if !entry.Payment.Equal(entry.Principal.Add(entry.Interest)) {
					t.Errorf("month %d payment %s != principal %s + interest %s",
						entry.Month, entry.Payment, entry.Principal, entry.Interest)
				}
				if !previous.Sub(entry.Principal).Equal(entry.Balance) {
					t.Errorf("month %d balance %s != previous balance %s - principal %s",
						entry.Month, entry.Balance, previous, entry.Principal)
				}
				sumPrincipal = sumPrincipal.Add(entry.Principal)
				sumInterest = sumInterest.Add(entry.Interest)
				if !sumPrincipal.Equal(entry.CumulativePrincipal) {
					t.Errorf("month %d cumulative principal = %s, principal column sums to %s",
						entry.Month, entry.CumulativePrincipal, sumPrincipal)
				}
				if !sumInterest.Equal(entry.CumulativeInterest) {
					t.Errorf("month %d cumulative interest = %s, interest column sums to %s",
						entry.Month, entry.CumulativeInterest, sumInterest)
				}
				previous = entry.Balance
			}

			last := entries[len(entries)-1]
			if math.Abs(mathutil.Float(last.Balance)) > 0.01 {
				t.Errorf("final balance = %s, expected 0", last.Balance)
			}
			if math.Abs(mathutil.Float(sumPrincipal)-float64(tt.principal)) > 0.01 {
				t.Errorf("sum of principal portions = %s, expected %d", sumPrincipal, tt.principal)
			}
			if math.Abs(mathutil.Float(last.CumulativePrincipal)-float64(tt.principal)) > 0.01 {
				t.Errorf("cumulative principal = %s, expected %d", last.CumulativePrincipal, tt.principal)
			}
		})
	}
}

func TestScheduleFirstYear(t *testing.T) {
	schedule, err := NewSchedule(Terms{Principal: decimal.NewFromInt(150000), InterestRate: 6, TermMonths: 360})
	if err != nil {
		t.Fatalf("NewSchedule() error = %v", err)
	}

	if !schedule.MonthlyPayment().Equal(decimal.RequireFromString("899.33")) {
		t.Errorf("MonthlyPayment() = %s, expected 899.33", schedule.MonthlyPayment())
	}

	var twelfth Entry
	for entry := range schedule.All() {
		if entry.Month == 12 {
			twelfth = entry
			break
		}
	}

	if math.Abs(mathutil.Float(twelfth.CumulativePrincipal)-1842.02) > 0.01 {
		t.Errorf("cumulative principal after 12 months = %s, expected 1842.02", twelfth.CumulativePrincipal)
	}
	if math.Abs(mathutil.Float(twelfth.Balance)-148157.98) > 0.01 {
		t.Errorf("balance after 12 months = %s, expected 148157.98", twelfth.Balance)
	}
	if !twelfth.Balance.Equal(schedule.BalanceAfter(12)) {
		t.Errorf("BalanceAfter(12) = %s, expected %s", schedule.BalanceAfter(12), twelfth.Balance)
	}
}

func TestScheduleZeroInterest(t *testing.T) {
	schedule, err := NewSchedule(Terms{Principal: decimal.NewFromInt(10000), InterestRate: 0, TermMonths: 3})
	if err != nil {
		t.Fatalf("NewSchedule() error = %v", err)
	}

	entries := schedule.Entries()
	for _, entry := range entries {
		if !entry.Interest.IsZero() {
			t.Errorf("month %d interest = %s, expected 0", entry.Month, entry.Interest)
		}
	}
	if !entries[0].Payment.Equal(decimal.RequireFromString("3333.33")) {
		t.Errorf("first payment = %s, expected 3333.33", entries[0].Payment)
	}
	if !entries[2].Balance.IsZero() {
		t.Errorf("final balance = %s, expected 0", entries[2].Balance)
	}
}

func TestSchedulePaymentsStayWithinACent(t *testing.T) {
	schedule, err := NewSchedule(Terms{Principal: decimal.NewFromInt(176250), InterestRate: 7.125, TermMonths: 360})
	if err != nil {
		t.Fatalf("NewSchedule() error = %v", err)
	}

	scheduled := schedule.MonthlyPayment()
	cent := decimal.RequireFromString("0.01")
	for entry := range schedule.All() {
		if entry.Payment.Sub(scheduled).Abs().GreaterThan(cent) {
			t.Errorf("month %d payment = %s, scheduled %s", entry.Month, entry.Payment, scheduled)
		}
		if entry.Principal.IsNegative() {
			t.Errorf("month %d principal is negative: %s", entry.Month, entry.Principal)
		}
	}
}

func TestScheduleInterestOnly(t *testing.T) {
	schedule, err := NewSchedule(Terms{
		Principal:    decimal.NewFromInt(120000),
		InterestRate: 10,
		TermMonths:   12,
		InterestOnly: true,
	})
	if err != nil {
		t.Fatalf("NewSchedule() error = %v", err)
	}

	previous := decimal.NewFromInt(120000)
	for entry := range schedule.All() {
		if !entry.Principal.IsZero() {
			t.Errorf("month %d principal = %s, expected 0", entry.Month, entry.Principal)
		}
		if entry.Balance.LessThan(previous) {
			t.Errorf("month %d balance decreased from %s to %s", entry.Month, previous, entry.Balance)
		}
		if !entry.Payment.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("month %d payment = %s, expected 1000", entry.Month, entry.Payment)
		}
		previous = entry.Balance
	}
	if !schedule.BalanceAfter(12).Equal(decimal.NewFromInt(120000)) {
		t.Errorf("BalanceAfter(12) = %s, expected 120000", schedule.BalanceAfter(12))
	}
}

func TestPaymentParity(t *testing.T) {
	cases := []Terms{
		{Principal: decimal.NewFromInt(150000), InterestRate: 6, TermMonths: 360},
		{Principal: decimal.NewFromInt(176250), InterestRate: 7.125, TermMonths: 360},
		{Principal: decimal.RequireFromString("48213.77"), InterestRate: 11.9, TermMonths: 84},
		{Principal: decimal.NewFromInt(9000), InterestRate: 0, TermMonths: 36},
		{Principal: decimal.NewFromInt(250000), InterestRate: 9, TermMonths: 24, InterestOnly: true},
	}

	for _, terms := range cases {
		schedule, err := NewSchedule(terms)
		if err != nil {
			t.Fatalf("NewSchedule(%+v) error = %v", terms, err)
		}
		var first Entry
		for entry := range schedule.All() {
			first = entry
			break
		}
		if !first.Payment.Equal(terms.MonthlyPayment()) {
			t.Errorf("first entry payment %s differs from MonthlyPayment() %s for %+v",
				first.Payment, terms.MonthlyPayment(), terms)
		}
	}
}

func TestScheduleIsRestartable(t *testing.T) {
	schedule, err := NewSchedule(Terms{Principal: decimal.NewFromInt(50000), InterestRate: 5, TermMonths: 60})
	if err != nil {
		t.Fatalf("NewSchedule() error = %v", err)
	}

	first := schedule.Entries()
	second := schedule.Entries()
	if len(first) != len(second) || len(first) != schedule.Len() {
		t.Fatalf("schedule lengths differ: %d, %d, Len() %d", len(first), len(second), schedule.Len())
	}
	for i := range first {
		if !sameEntry(first[i], second[i]) {
			t.Fatalf("entry %d differs between walks: %+v vs %+v", i, first[i], second[i])
		}
	}

	// A partial walk must not disturb a later full walk.
	count := 0
	for range schedule.All() {
		count++
		if count == 10 {
			break
		}
	}
	if third := schedule.Entries(); len(third) != 60 || !sameEntry(third[59], first[59]) {
		t.Errorf("schedule changed after partial iteration")
	}
}

func TestBalanceAfterBounds(t *testing.T) {
	schedule, err := NewSchedule(Terms{Principal: decimal.NewFromInt(50000), InterestRate: 5, TermMonths: 60})
	if err != nil {
		t.Fatalf("NewSchedule() error = %v", err)
	}
	if !schedule.BalanceAfter(0).Equal(decimal.NewFromInt(50000)) {
		t.Errorf("BalanceAfter(0) = %s, expected principal", schedule.BalanceAfter(0))
	}
	if !schedule.BalanceAfter(500).IsZero() {
		t.Errorf("BalanceAfter past term = %s, expected 0", schedule.BalanceAfter(500))
	}
}

func sameEntry(a, b Entry) bool {
	return a.Month == b.Month &&
		a.Payment.Equal(b.Payment) &&
		a.Principal.Equal(b.Principal) &&
		a.Interest.Equal(b.Interest) &&
		a.Balance.Equal(b.Balance) &&
		a.CumulativePrincipal.Equal(b.CumulativePrincipal) &&
		a.CumulativeInterest.Equal(b.CumulativeInterest)
}
