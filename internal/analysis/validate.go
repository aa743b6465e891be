package analysis

import (
	"fmt"
	"strings"

	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/datetime"
	"github.com/iwvelando/property-analyzer/pkg/mathutil"
	"github.com/iwvelando/property-analyzer/pkg/money"
	"github.com/iwvelando/property-analyzer/pkg/validation"
	"github.com/shopspring/decimal"
)

// Validate checks a normalized record against the universal rules and the
// rule set of analysis type t. Every violated rule is reported; the returned
// error is a validation.Errors list or nil.
func Validate(t Type, r Record) error {
	var c validation.Collector

	c.Required("analysis_name", r.Name)
	c.Required("address", r.Address)
	if c.Required("analysis_type", string(t)) {
		if canonical, err := ParseType(string(t)); err != nil {
			c.Addf("analysis_type", "unknown analysis type %q", t)
		} else {
			if r.Type != "" {
				if recType, err := ParseType(string(r.Type)); err != nil || recType != canonical {
					c.Addf("analysis_type", "record type %q does not match requested type %q", r.Type, t)
				}
			}
			t = canonical
		}
	}
	c.RequiredMoney("purchase_price", r.PurchasePrice)

	validateMoney(&c, r)
	validatePercentages(&c, r)
	c.Date("purchase_date", r.PurchaseDate)
	c.Check(r.RenovationDuration >= 0, "renovation_duration", "must be greater than or equal to 0, got %d", r.RenovationDuration)
	for _, l := range namedLoans(r) {
		validateLoan(&c, l.field, l.terms)
	}

	switch t {
	case TypeLTR:
		validateRent(&c, r)
	case TypePadSplitLTR:
		validateRent(&c, r)
		validatePadSplit(&c, r, true)
	case TypeBRRRR:
		validateBRRRR(&c, r)
	case TypePadSplitBRRRR:
		validateBRRRR(&c, r)
		validatePadSplit(&c, r, false)
	case TypeLeaseOption:
		validateRent(&c, r)
		validateLeaseOption(&c, r)
	case TypeMultiFamily:
		validateMultiFamily(&c, r)
	}

	if r.HasBalloonPayment {
		validateBalloon(&c, r)
	}

	if len(r.Partners) > 0 {
		collectPartnerErrors(&c, r.Partners)
	}

	return c.Err()
}

type namedMoney struct {
	field string
	value decimal.Decimal
}

func validateMoney(c *validation.Collector, r Record) {
	fields := []namedMoney{
		{"after_repair_value", r.AfterRepairValue},
		{"renovation_costs", r.RenovationCosts},
		{"assignment_fee", r.AssignmentFee},
		{"marketing_costs", r.MarketingCosts},
		{"other_income", r.OtherIncome},
		{"property_taxes", r.PropertyTaxes},
		{"insurance", r.Insurance},
		{"hoa_coa_coop", r.HOA},
		{"utilities", r.Utilities},
		{"balloon_refinance_closing_costs", r.BalloonRefinanceClosingCosts},
		{"option_consideration_fee", r.OptionConsiderationFee},
		{"rent_credit_cap", r.RentCreditCap},
		{"common_area_maintenance", r.CommonAreaMaintenance},
		{"elevator_maintenance", r.ElevatorMaintenance},
		{"staff_payroll", r.StaffPayroll},
		{"trash_removal", r.TrashRemoval},
		{"common_utilities", r.CommonUtilities},
	}
	for _, f := range fields {
		c.NonNegative(f.field, f.value)
	}

	c.NonNegativeNull("purchase_price", r.PurchasePrice)
	c.NonNegativeNull("monthly_rent", r.MonthlyRent)
	c.NonNegativeNull("strike_price", r.StrikePrice)
	c.NonNegativeNull("balloon_refinance_loan_amount", r.BalloonRefinanceLoanAmount)

	if r.Comps != nil {
		c.NonNegative("comps.estimated_value", r.Comps.EstimatedValue)
		c.NonNegative("comps.value_range_low", r.Comps.ValueRangeLow)
		c.NonNegative("comps.value_range_high", r.Comps.ValueRangeHigh)
		c.NonNegative("comps.estimated_rent", r.Comps.EstimatedRent)
	}
}

func validatePercentages(c *validation.Collector, r Record) {
	c.Percentage("management_percentage", r.ManagementPercentage)
	c.Percentage("capex_percentage", r.CapexPercentage)
	c.Percentage("vacancy_percentage", r.VacancyPercentage)
	c.Percentage("repairs_percentage", r.RepairsPercentage)
	c.Percentage("refinance_ltv", r.RefinanceLTV)
	c.Percentage("balloon_refinance_ltv", r.BalloonRefinanceLTV)
	c.Percentage("monthly_rent_credit_percentage", r.MonthlyRentCreditPercentage)
	if r.PadSplitPlatformPercentage != nil {
		c.Percentage("padsplit_platform_percentage", *r.PadSplitPlatformPercentage)
	}
}

type namedLoan struct {
	field string
	terms *LoanTerms
}

func namedLoans(r Record) []namedLoan {
	var out []namedLoan
	for _, l := range []namedLoan{
		{"loan1", r.Loan1},
		{"loan2", r.Loan2},
		{"loan3", r.Loan3},
		{"initial_loan", r.InitialLoan},
		{"refinance_loan", r.RefinanceLoan},
	} {
		if l.terms != nil {
			out = append(out, l)
		}
	}
	return out
}

func validateLoan(c *validation.Collector, field string, l *LoanTerms) {
	c.NonNegative(field+".loan_amount", l.LoanAmount)
	c.NonNegativeRate(field+".interest_rate", l.InterestRate)
	c.Check(l.LoanTerm >= 0, field+".loan_term", "must be greater than or equal to 0, got %d", l.LoanTerm)
	c.NonNegative(field+".down_payment", l.DownPayment)
	c.NonNegative(field+".closing_costs", l.ClosingCosts)
	c.Percentage(field+".ltv", l.LTV)
}

func validateRent(c *validation.Collector, r Record) {
	if c.RequiredMoney("monthly_rent", r.MonthlyRent) {
		c.Positive("monthly_rent", r.MonthlyRent.Decimal)
	}
}

func validatePadSplit(c *validation.Collector, r Record, required bool) {
	fields := []struct {
		field string
		value decimal.NullDecimal
	}{
		{"padsplit_utilities", r.PadSplitUtilities},
		{"padsplit_internet", r.PadSplitInternet},
		{"padsplit_cleaning", r.PadSplitCleaning},
		{"padsplit_pest_control", r.PadSplitPestControl},
		{"padsplit_landscaping", r.PadSplitLandscaping},
	}
	for _, f := range fields {
		if required {
			c.RequiredMoney(f.field, f.value)
		}
		c.NonNegativeNull(f.field, f.value)
	}
	if required {
		c.Check(r.PadSplitPlatformPercentage != nil, "padsplit_platform_percentage", "is required")
	}
}

func validateBRRRR(c *validation.Collector, r Record) {
	if r.PurchasePrice.Valid {
		c.Check(r.AfterRepairValue.GreaterThan(r.PurchasePrice.Decimal), "after_repair_value",
			"must exceed purchase_price (%s), got %s", r.PurchasePrice.Decimal, r.AfterRepairValue)
	}
	c.NonNegative("renovation_costs", r.RenovationCosts)
}

func validateLeaseOption(c *validation.Collector, r Record) {
	if c.RequiredMoney("strike_price", r.StrikePrice) && r.PurchasePrice.Valid {
		c.Check(r.StrikePrice.Decimal.GreaterThan(r.PurchasePrice.Decimal), "strike_price",
			"must exceed purchase_price (%s), got %s", money.Currency(r.PurchasePrice.Decimal), money.Currency(r.StrikePrice.Decimal))
	}
	c.Check(r.OptionTermMonths >= 0, "option_term_months", "must be greater than or equal to 0, got %d", r.OptionTermMonths)
}

func validateMultiFamily(c *validation.Collector, r Record) {
	c.Check(len(r.UnitTypes) > 0, "unit_types", "at least one unit type is required")

	sum := 0
	for i, u := range r.UnitTypes {
		field := fmt.Sprintf("unit_types[%d]", i)
		c.Check(u.UnitCount >= 0, field+".unit_count", "must be greater than or equal to 0, got %d", u.UnitCount)
		c.Check(u.OccupiedCount >= 0, field+".occupied_count", "must be greater than or equal to 0, got %d", u.OccupiedCount)
		c.Check(u.OccupiedCount <= u.UnitCount, field+".occupied_count",
			"occupied count (%d) exceeds unit count (%d)", u.OccupiedCount, u.UnitCount)
		c.Check(u.SquareFootage >= 0, field+".square_footage", "must be greater than or equal to 0, got %d", u.SquareFootage)
		c.NonNegative(field+".rent_per_unit", u.RentPerUnit)
		sum += u.UnitCount
	}

	c.Check(r.TotalUnits == sum, "total_units",
		"total_units (%d) does not match the sum of unit_types counts (%d)", r.TotalUnits, sum)
	c.Check(r.OccupiedUnits >= 0, "occupied_units", "must be greater than or equal to 0, got %d", r.OccupiedUnits)
	c.Check(r.OccupiedUnits <= r.TotalUnits, "occupied_units",
		"occupied_units (%d) exceeds total_units (%d)", r.OccupiedUnits, r.TotalUnits)
}

func validateBalloon(c *validation.Collector, r Record) {
	if c.Required("balloon_due_date", r.BalloonDueDate) && c.Date("balloon_due_date", r.BalloonDueDate) &&
		datetime.IsValidDate(r.PurchaseDate) {
		before, err := datetime.DateBeforeDate(r.PurchaseDate, r.BalloonDueDate)
		c.Check(err == nil && before, "balloon_due_date", "must be after purchase_date (%s), got %s", r.PurchaseDate, r.BalloonDueDate)
	}
	c.RequiredMoney("balloon_refinance_loan_amount", r.BalloonRefinanceLoanAmount)
	if c.Check(r.BalloonRefinanceInterestRate != nil, "balloon_refinance_interest_rate", "is required") {
		c.NonNegativeRate("balloon_refinance_interest_rate", *r.BalloonRefinanceInterestRate)
	}
	if c.Check(r.BalloonRefinanceLoanTerm != nil, "balloon_refinance_loan_term", "is required") {
		c.Check(*r.BalloonRefinanceLoanTerm > 0, "balloon_refinance_loan_term",
			"must be greater than 0, got %d", *r.BalloonRefinanceLoanTerm)
	}
}

// ValidatePartners checks a property's partner list: names present and
// unique regardless of case, shares within [0, 100] summing to 100 within
// 0.01, and exactly one property manager.
func ValidatePartners(partners []Partner) error {
	var c validation.Collector
	collectPartnerErrors(&c, partners)
	return c.Err()
}

func collectPartnerErrors(c *validation.Collector, partners []Partner) {
	if !c.Check(len(partners) > 0, "partners", "at least one partner is required") {
		return
	}

	seen := make(map[string]bool, len(partners))
	total := 0.0
	managers := 0
	for i, p := range partners {
		field := fmt.Sprintf("partners[%d]", i)
		name := strings.TrimSpace(p.Name)
		if c.Required(field+".name", name) {
			key := strings.ToLower(name)
			c.Check(!seen[key], field+".name", "duplicate partner name %q", name)
			seen[key] = true
		}
		c.Percentage(field+".equity_share", p.EquityShare)
		total += p.EquityShare
		if p.IsPropertyManager {
			managers++
		}
	}

	// A hair of slack absorbs float error on shares like 33.33/33.33/33.34.
	c.Check(mathutil.WithinTolerance(total, constants.TotalEquityPercentage, constants.EquityShareTolerance+1e-9),
		"partners", "equity shares must sum to 100, got %.2f", total)
	c.Check(managers == 1, "partners", "exactly one partner must be the property manager, got %d", managers)
}
