package analysis

import (
	"strings"

	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/shopspring/decimal"
)

// Normalize returns a copy of r with names trimmed, the type tag in
// canonical form and derived amounts filled in:
//   - balloon fields are cleared when has_balloon_payment is false
//   - a BRRRR refinance loan without an amount is sized at ARV x refinance_ltv
//   - a balloon refinance amount is sized at ARV x balloon_refinance_ltv
//   - total_units defaults to the sum of unit type counts
//
// Normalize never fails; an unrecognized type is left as given for
// validation to report.
func Normalize(r Record) Record {
	out := r
	out.ID = strings.TrimSpace(r.ID)
	out.Owner = strings.TrimSpace(r.Owner)
	out.Name = strings.TrimSpace(r.Name)
	out.Address = strings.TrimSpace(r.Address)
	out.PurchaseDate = strings.TrimSpace(r.PurchaseDate)
	out.BalloonDueDate = strings.TrimSpace(r.BalloonDueDate)

	rawType := strings.TrimSpace(string(r.Type))
	if t, err := ParseType(rawType); err == nil {
		out.Type = t
	} else {
		out.Type = Type(rawType)
	}

	out.Loan1 = copyLoan(r.Loan1)
	out.Loan2 = copyLoan(r.Loan2)
	out.Loan3 = copyLoan(r.Loan3)
	out.InitialLoan = copyLoan(r.InitialLoan)
	out.RefinanceLoan = copyLoan(r.RefinanceLoan)

	if out.Type.IsBRRRR() && out.RefinanceLTV > 0 && out.AfterRepairValue.IsPositive() {
		if out.RefinanceLoan == nil {
			out.RefinanceLoan = &LoanTerms{}
		}
		if out.RefinanceLoan.LoanAmount.IsZero() {
			out.RefinanceLoan.LoanAmount = percentOf(out.AfterRepairValue, out.RefinanceLTV)
		}
	}

	if !out.HasBalloonPayment {
		out.BalloonDueDate = ""
		out.BalloonRefinanceLTV = 0
		out.BalloonRefinanceLoanAmount = decimal.NullDecimal{}
		out.BalloonRefinanceInterestRate = nil
		out.BalloonRefinanceLoanTerm = nil
		out.BalloonRefinanceClosingCosts = decimal.Zero
	} else if !out.BalloonRefinanceLoanAmount.Valid && out.BalloonRefinanceLTV > 0 && out.AfterRepairValue.IsPositive() {
		out.BalloonRefinanceLoanAmount = decimal.NewNullDecimal(percentOf(out.AfterRepairValue, out.BalloonRefinanceLTV))
	}

	if len(r.UnitTypes) > 0 {
		out.UnitTypes = make([]UnitType, len(r.UnitTypes))
		copy(out.UnitTypes, r.UnitTypes)
		for i := range out.UnitTypes {
			out.UnitTypes[i].Label = strings.TrimSpace(out.UnitTypes[i].Label)
		}
		if out.TotalUnits == 0 {
			for _, u := range out.UnitTypes {
				out.TotalUnits += u.UnitCount
			}
		}
	}

	if len(r.Partners) > 0 {
		out.Partners = make([]Partner, len(r.Partners))
		for i, p := range r.Partners {
			p.Name = strings.TrimSpace(p.Name)
			out.Partners[i] = p
		}
	}

	if r.Comps != nil {
		c := *r.Comps
		out.Comps = &c
	}

	return out
}

func copyLoan(l *LoanTerms) *LoanTerms {
	if l == nil {
		return nil
	}
	c := *l
	c.Name = strings.TrimSpace(c.Name)
	return &c
}

// percentOf returns pct percent of value, rounded to the cent.
func percentOf(value decimal.Decimal, pct float64) decimal.Decimal {
	return value.Mul(decimal.NewFromFloat(pct)).
		Div(decimal.NewFromFloat(constants.PercentageMultiplier)).
		Round(constants.DecimalPlaces)
}
