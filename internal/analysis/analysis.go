package analysis

import (
	"fmt"

	"github.com/iwvelando/property-analyzer/pkg/loans"
	"github.com/shopspring/decimal"
)

// Analysis is a normalized record in typed form: the fields every strategy
// shares plus exactly one strategy variant. A balloon payment may accompany
// any variant.
type Analysis struct {
	Base    Base
	Variant Variant
	Balloon *Balloon
}

// Base holds the fields every strategy reads. Expenses are monthly.
type Base struct {
	ID                 string
	Owner              string
	Name               string
	Type               Type
	Address            string
	PurchaseDate       string
	PurchasePrice      decimal.Decimal
	AfterRepairValue   decimal.Decimal
	RenovationCosts    decimal.Decimal
	RenovationDuration int
	AssignmentFee      decimal.Decimal
	MarketingCosts     decimal.Decimal
	MonthlyRent        decimal.Decimal
	OtherIncome        decimal.Decimal
	Expenses           OperatingExpenses
	Loans              []loans.Terms
	// PrimaryLTV is loan1's loan-to-value percentage, either as given or
	// derived from its amount and the purchase price. Zero when unknown.
	PrimaryLTV float64
	Comps      *Comps
	Partners   []Partner
}

// OperatingExpenses are the fixed monthly costs plus the percentage-based
// reserves applied to income.
type OperatingExpenses struct {
	PropertyTaxes        decimal.Decimal
	Insurance            decimal.Decimal
	HOA                  decimal.Decimal
	Utilities            decimal.Decimal
	ManagementPercentage float64
	CapexPercentage      float64
	VacancyPercentage    float64
	RepairsPercentage    float64
}

// Variant is one of LongTermRental, BRRRR, PadSplit, LeaseOption or
// MultiFamily.
type Variant interface {
	variant()
}

// LongTermRental uses only the shared fields.
type LongTermRental struct{}

// BRRRR finances the purchase with an initial loan and later refinances at
// a percentage of the after-repair value.
type BRRRR struct {
	InitialLoan   loans.Terms
	RefinanceLoan loans.Terms
	RefinanceLTV  float64
}

// PadSplit rents by the room. Strategy is the underlying LongTermRental or
// BRRRR financing.
type PadSplit struct {
	Strategy Variant
	Expenses PadSplitExpenses
}

// PadSplitExpenses are monthly, apart from the platform fee percentage of
// gross rent.
type PadSplitExpenses struct {
	PlatformPercentage float64
	Utilities          decimal.Decimal
	Internet           decimal.Decimal
	Cleaning           decimal.Decimal
	PestControl        decimal.Decimal
	Landscaping        decimal.Decimal
}

// LeaseOption leases the property with an option to buy at StrikePrice.
// A RentCreditCap of zero means the credit is uncapped.
type LeaseOption struct {
	OptionFee            decimal.Decimal
	TermMonths           int
	StrikePrice          decimal.Decimal
	RentCreditPercentage float64
	RentCreditCap        decimal.Decimal
}

// MultiFamily earns its income from unit types rather than a single rent.
type MultiFamily struct {
	TotalUnits    int
	OccupiedUnits int
	UnitTypes     []UnitType
	Common        CommonAreaExpenses
}

// CommonAreaExpenses are the monthly building-level costs of a multi-family
// property.
type CommonAreaExpenses struct {
	Maintenance         decimal.Decimal
	ElevatorMaintenance decimal.Decimal
	StaffPayroll        decimal.Decimal
	TrashRemoval        decimal.Decimal
	Utilities           decimal.Decimal
}

// Total sums the common area expenses.
func (c CommonAreaExpenses) Total() decimal.Decimal {
	return c.Maintenance.Add(c.ElevatorMaintenance).Add(c.StaffPayroll).Add(c.TrashRemoval).Add(c.Utilities)
}

// Balloon describes a balloon payment due on the generic loans and the loan
// that refinances it.
type Balloon struct {
	DueDate       string
	RefinanceLTV  float64
	RefinanceLoan loans.Terms
}

func (LongTermRental) variant() {}
func (BRRRR) variant()          {}
func (PadSplit) variant()       {}
func (LeaseOption) variant()    {}
func (MultiFamily) variant()    {}

// Build converts a normalized record into its typed form.
func Build(r Record) (Analysis, error) {
	t, err := ParseType(string(r.Type))
	if err != nil {
		return Analysis{}, err
	}

	a := Analysis{Base: buildBase(r, t)}

	switch t {
	case TypeLTR:
		a.Variant = LongTermRental{}
	case TypeBRRRR:
		a.Variant = buildBRRRR(r)
	case TypePadSplitLTR:
		a.Variant = PadSplit{Strategy: LongTermRental{}, Expenses: buildPadSplitExpenses(r)}
	case TypePadSplitBRRRR:
		a.Variant = PadSplit{Strategy: buildBRRRR(r), Expenses: buildPadSplitExpenses(r)}
	case TypeLeaseOption:
		a.Variant = LeaseOption{
			OptionFee:            r.OptionConsiderationFee,
			TermMonths:           r.OptionTermMonths,
			StrikePrice:          orZero(r.StrikePrice),
			RentCreditPercentage: r.MonthlyRentCreditPercentage,
			RentCreditCap:        r.RentCreditCap,
		}
	case TypeMultiFamily:
		a.Variant = MultiFamily{
			TotalUnits:    r.TotalUnits,
			OccupiedUnits: r.OccupiedUnits,
			UnitTypes:     r.UnitTypes,
			Common: CommonAreaExpenses{
				Maintenance:         r.CommonAreaMaintenance,
				ElevatorMaintenance: r.ElevatorMaintenance,
				StaffPayroll:        r.StaffPayroll,
				TrashRemoval:        r.TrashRemoval,
				Utilities:           r.CommonUtilities,
			},
		}
	default:
		return Analysis{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}

	if r.HasBalloonPayment {
		b := &Balloon{
			DueDate:      r.BalloonDueDate,
			RefinanceLTV: r.BalloonRefinanceLTV,
			RefinanceLoan: loans.Terms{
				Name:         "Balloon Refinance",
				Principal:    orZero(r.BalloonRefinanceLoanAmount),
				ClosingCosts: r.BalloonRefinanceClosingCosts,
			},
		}
		if r.BalloonRefinanceInterestRate != nil {
			b.RefinanceLoan.InterestRate = *r.BalloonRefinanceInterestRate
		}
		if r.BalloonRefinanceLoanTerm != nil {
			b.RefinanceLoan.TermMonths = *r.BalloonRefinanceLoanTerm
		}
		a.Balloon = b
	}

	return a, nil
}

func buildBase(r Record, t Type) Base {
	b := Base{
		ID:                 r.ID,
		Owner:              r.Owner,
		Name:               r.Name,
		Type:               t,
		Address:            r.Address,
		PurchaseDate:       r.PurchaseDate,
		PurchasePrice:      orZero(r.PurchasePrice),
		AfterRepairValue:   r.AfterRepairValue,
		RenovationCosts:    r.RenovationCosts,
		RenovationDuration: r.RenovationDuration,
		AssignmentFee:      r.AssignmentFee,
		MarketingCosts:     r.MarketingCosts,
		MonthlyRent:        orZero(r.MonthlyRent),
		OtherIncome:        r.OtherIncome,
		Expenses: OperatingExpenses{
			PropertyTaxes:        r.PropertyTaxes,
			Insurance:            r.Insurance,
			HOA:                  r.HOA,
			Utilities:            r.Utilities,
			ManagementPercentage: r.ManagementPercentage,
			CapexPercentage:      r.CapexPercentage,
			VacancyPercentage:    r.VacancyPercentage,
			RepairsPercentage:    r.RepairsPercentage,
		},
		Comps:    r.Comps,
		Partners: r.Partners,
	}

	for i, l := range []*LoanTerms{r.Loan1, r.Loan2, r.Loan3} {
		if l == nil {
			continue
		}
		terms := l.Terms()
		if terms.Name == "" {
			terms.Name = fmt.Sprintf("Loan %d", i+1)
		}
		b.Loans = append(b.Loans, terms)
	}

	if r.Loan1 != nil {
		switch {
		case r.Loan1.LTV > 0:
			b.PrimaryLTV = r.Loan1.LTV
		case b.PurchasePrice.IsPositive() && r.Loan1.LoanAmount.IsPositive():
			b.PrimaryLTV = r.Loan1.LoanAmount.Div(b.PurchasePrice).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
	}

	return b
}

func buildBRRRR(r Record) BRRRR {
	b := BRRRR{RefinanceLTV: r.RefinanceLTV}
	if r.InitialLoan != nil {
		b.InitialLoan = r.InitialLoan.Terms()
	}
	if b.InitialLoan.Name == "" {
		b.InitialLoan.Name = "Initial Loan"
	}
	if r.RefinanceLoan != nil {
		b.RefinanceLoan = r.RefinanceLoan.Terms()
	}
	if b.RefinanceLoan.Name == "" {
		b.RefinanceLoan.Name = "Refinance Loan"
	}
	return b
}

func buildPadSplitExpenses(r Record) PadSplitExpenses {
	e := PadSplitExpenses{
		Utilities:   orZero(r.PadSplitUtilities),
		Internet:    orZero(r.PadSplitInternet),
		Cleaning:    orZero(r.PadSplitCleaning),
		PestControl: orZero(r.PadSplitPestControl),
		Landscaping: orZero(r.PadSplitLandscaping),
	}
	if r.PadSplitPlatformPercentage != nil {
		e.PlatformPercentage = *r.PadSplitPlatformPercentage
	}
	return e
}

func orZero(n decimal.NullDecimal) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	return n.Decimal
}
