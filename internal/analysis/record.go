package analysis

import (
	"github.com/iwvelando/property-analyzer/pkg/loans"
	"github.com/shopspring/decimal"
)

// Record is the analysis as it arrives from the record store, a config file
// or an HTTP request. Field names follow the stored keys. Money fields whose
// presence is checked by validation are nullable; every other money field
// defaults to zero.
type Record struct {
	ID           string `mapstructure:"id" json:"id,omitempty"`
	Owner        string `mapstructure:"owner" json:"owner,omitempty"`
	Name         string `mapstructure:"analysis_name" json:"analysis_name"`
	Type         Type   `mapstructure:"analysis_type" json:"analysis_type"`
	Address      string `mapstructure:"address" json:"address"`
	PurchaseDate string `mapstructure:"purchase_date" json:"purchase_date,omitempty"`

	PurchasePrice      decimal.NullDecimal `mapstructure:"purchase_price" json:"purchase_price"`
	AfterRepairValue   decimal.Decimal     `mapstructure:"after_repair_value" json:"after_repair_value"`
	RenovationCosts    decimal.Decimal     `mapstructure:"renovation_costs" json:"renovation_costs"`
	RenovationDuration int                 `mapstructure:"renovation_duration" json:"renovation_duration"`
	AssignmentFee      decimal.Decimal     `mapstructure:"assignment_fee" json:"assignment_fee"`
	MarketingCosts     decimal.Decimal     `mapstructure:"marketing_costs" json:"marketing_costs"`

	MonthlyRent decimal.NullDecimal `mapstructure:"monthly_rent" json:"monthly_rent"`
	OtherIncome decimal.Decimal     `mapstructure:"other_income" json:"other_income"`

	// Monthly operating expenses.
	PropertyTaxes        decimal.Decimal `mapstructure:"property_taxes" json:"property_taxes"`
	Insurance            decimal.Decimal `mapstructure:"insurance" json:"insurance"`
	HOA                  decimal.Decimal `mapstructure:"hoa_coa_coop" json:"hoa_coa_coop"`
	Utilities            decimal.Decimal `mapstructure:"utilities" json:"utilities"`
	ManagementPercentage float64         `mapstructure:"management_percentage" json:"management_percentage"`
	CapexPercentage      float64         `mapstructure:"capex_percentage" json:"capex_percentage"`
	VacancyPercentage    float64         `mapstructure:"vacancy_percentage" json:"vacancy_percentage"`
	RepairsPercentage    float64         `mapstructure:"repairs_percentage" json:"repairs_percentage"`

	Loan1 *LoanTerms `mapstructure:"loan1" json:"loan1,omitempty"`
	Loan2 *LoanTerms `mapstructure:"loan2" json:"loan2,omitempty"`
	Loan3 *LoanTerms `mapstructure:"loan3" json:"loan3,omitempty"`

	// BRRRR financing phases.
	InitialLoan   *LoanTerms `mapstructure:"initial_loan" json:"initial_loan,omitempty"`
	RefinanceLoan *LoanTerms `mapstructure:"refinance_loan" json:"refinance_loan,omitempty"`
	RefinanceLTV  float64    `mapstructure:"refinance_ltv" json:"refinance_ltv"`

	// PadSplit expenses.
	PadSplitPlatformPercentage *float64            `mapstructure:"padsplit_platform_percentage" json:"padsplit_platform_percentage,omitempty"`
	PadSplitUtilities          decimal.NullDecimal `mapstructure:"padsplit_utilities" json:"padsplit_utilities"`
	PadSplitInternet           decimal.NullDecimal `mapstructure:"padsplit_internet" json:"padsplit_internet"`
	PadSplitCleaning           decimal.NullDecimal `mapstructure:"padsplit_cleaning" json:"padsplit_cleaning"`
	PadSplitPestControl        decimal.NullDecimal `mapstructure:"padsplit_pest_control" json:"padsplit_pest_control"`
	PadSplitLandscaping        decimal.NullDecimal `mapstructure:"padsplit_landscaping" json:"padsplit_landscaping"`

	// Balloon payment.
	HasBalloonPayment            bool                `mapstructure:"has_balloon_payment" json:"has_balloon_payment"`
	BalloonDueDate               string              `mapstructure:"balloon_due_date" json:"balloon_due_date,omitempty"`
	BalloonRefinanceLTV          float64             `mapstructure:"balloon_refinance_ltv" json:"balloon_refinance_ltv"`
	BalloonRefinanceLoanAmount   decimal.NullDecimal `mapstructure:"balloon_refinance_loan_amount" json:"balloon_refinance_loan_amount"`
	BalloonRefinanceInterestRate *float64            `mapstructure:"balloon_refinance_interest_rate" json:"balloon_refinance_interest_rate,omitempty"`
	BalloonRefinanceLoanTerm     *int                `mapstructure:"balloon_refinance_loan_term" json:"balloon_refinance_loan_term,omitempty"`
	BalloonRefinanceClosingCosts decimal.Decimal     `mapstructure:"balloon_refinance_closing_costs" json:"balloon_refinance_closing_costs"`

	// Lease option.
	OptionConsiderationFee      decimal.Decimal     `mapstructure:"option_consideration_fee" json:"option_consideration_fee"`
	OptionTermMonths            int                 `mapstructure:"option_term_months" json:"option_term_months"`
	StrikePrice                 decimal.NullDecimal `mapstructure:"strike_price" json:"strike_price"`
	MonthlyRentCreditPercentage float64             `mapstructure:"monthly_rent_credit_percentage" json:"monthly_rent_credit_percentage"`
	RentCreditCap               decimal.Decimal     `mapstructure:"rent_credit_cap" json:"rent_credit_cap"`

	// Multi-family.
	TotalUnits            int             `mapstructure:"total_units" json:"total_units"`
	OccupiedUnits         int             `mapstructure:"occupied_units" json:"occupied_units"`
	UnitTypes             []UnitType      `mapstructure:"unit_types" json:"unit_types,omitempty"`
	CommonAreaMaintenance decimal.Decimal `mapstructure:"common_area_maintenance" json:"common_area_maintenance"`
	ElevatorMaintenance   decimal.Decimal `mapstructure:"elevator_maintenance" json:"elevator_maintenance"`
	StaffPayroll          decimal.Decimal `mapstructure:"staff_payroll" json:"staff_payroll"`
	TrashRemoval          decimal.Decimal `mapstructure:"trash_removal" json:"trash_removal"`
	CommonUtilities       decimal.Decimal `mapstructure:"common_utilities" json:"common_utilities"`

	Comps    *Comps    `mapstructure:"comps" json:"comps,omitempty"`
	Partners []Partner `mapstructure:"partners" json:"partners,omitempty"`
}

// LoanTerms is a loan as stored on a record. InterestRate and LTV are
// percentages.
type LoanTerms struct {
	Name         string          `mapstructure:"name" json:"name,omitempty"`
	LoanAmount   decimal.Decimal `mapstructure:"loan_amount" json:"loan_amount"`
	InterestRate float64         `mapstructure:"interest_rate" json:"interest_rate"`
	LoanTerm     int             `mapstructure:"loan_term" json:"loan_term"`
	InterestOnly bool            `mapstructure:"interest_only" json:"interest_only"`
	DownPayment  decimal.Decimal `mapstructure:"down_payment" json:"down_payment"`
	ClosingCosts decimal.Decimal `mapstructure:"closing_costs" json:"closing_costs"`
	LTV          float64         `mapstructure:"ltv" json:"ltv"`
}

// Terms converts the stored loan into calculator terms.
func (l LoanTerms) Terms() loans.Terms {
	return loans.Terms{
		Name:         l.Name,
		Principal:    l.LoanAmount,
		InterestRate: l.InterestRate,
		TermMonths:   l.LoanTerm,
		InterestOnly: l.InterestOnly,
		DownPayment:  l.DownPayment,
		ClosingCosts: l.ClosingCosts,
	}
}

// UnitType is one group of identical units in a multi-family property.
type UnitType struct {
	Label         string          `mapstructure:"label" json:"label"`
	UnitCount     int             `mapstructure:"unit_count" json:"unit_count"`
	OccupiedCount int             `mapstructure:"occupied_count" json:"occupied_count"`
	SquareFootage int             `mapstructure:"square_footage" json:"square_footage"`
	RentPerUnit   decimal.Decimal `mapstructure:"rent_per_unit" json:"rent_per_unit"`
}

// Comps is comparable-sales data fetched by the caller from a valuation
// service.
type Comps struct {
	EstimatedValue decimal.Decimal `mapstructure:"estimated_value" json:"estimated_value"`
	ValueRangeLow  decimal.Decimal `mapstructure:"value_range_low" json:"value_range_low"`
	ValueRangeHigh decimal.Decimal `mapstructure:"value_range_high" json:"value_range_high"`
	EstimatedRent  decimal.Decimal `mapstructure:"estimated_rent" json:"estimated_rent"`
}

// Partner is one owner of a property. EquityShare is a percentage.
type Partner struct {
	Name              string  `mapstructure:"name" json:"name"`
	EquityShare       float64 `mapstructure:"equity_share" json:"equity_share"`
	IsPropertyManager bool    `mapstructure:"is_property_manager" json:"is_property_manager"`
}

// GenericLoans returns loan1..loan3 in order, skipping unset slots.
func (r Record) GenericLoans() []LoanTerms {
	var out []LoanTerms
	for _, l := range []*LoanTerms{r.Loan1, r.Loan2, r.Loan3} {
		if l != nil {
			out = append(out, *l)
		}
	}
	return out
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := r
	out.Loan1 = cloneLoan(r.Loan1)
	out.Loan2 = cloneLoan(r.Loan2)
	out.Loan3 = cloneLoan(r.Loan3)
	out.InitialLoan = cloneLoan(r.InitialLoan)
	out.RefinanceLoan = cloneLoan(r.RefinanceLoan)
	if r.PadSplitPlatformPercentage != nil {
		v := *r.PadSplitPlatformPercentage
		out.PadSplitPlatformPercentage = &v
	}
	if r.BalloonRefinanceInterestRate != nil {
		v := *r.BalloonRefinanceInterestRate
		out.BalloonRefinanceInterestRate = &v
	}
	if r.BalloonRefinanceLoanTerm != nil {
		v := *r.BalloonRefinanceLoanTerm
		out.BalloonRefinanceLoanTerm = &v
	}
	if r.UnitTypes != nil {
		out.UnitTypes = append([]UnitType(nil), r.UnitTypes...)
	}
	if r.Partners != nil {
		out.Partners = append([]Partner(nil), r.Partners...)
	}
	if r.Comps != nil {
		c := *r.Comps
		out.Comps = &c
	}
	return out
}

func cloneLoan(l *LoanTerms) *LoanTerms {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}
