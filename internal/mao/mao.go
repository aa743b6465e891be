// Package mao computes the maximum allowable offer for a property: the most
// an investor can pay and still pull their money back out at refinance,
// leaving no more than a configured amount of cash in the deal.
package mao

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/property-analyzer/internal/analysis"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/loans"
	"github.com/iwvelando/property-analyzer/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// ErrMissingARV is reported when neither the record nor its comps carry an
// after-repair value.
var ErrMissingARV = errors.New("after repair value is required")

// Config carries the caller-side assumptions for the calculation.
type Config struct {
	MaxCashLeft float64 `mapstructure:"maxCashLeft" yaml:"maxCashLeft" json:"max_cash_left"`
	DefaultLTV  float64 `mapstructure:"defaultLtv" yaml:"defaultLtv" json:"default_ltv"`
}

// DefaultConfig returns the stock assumptions.
func DefaultConfig() Config {
	return Config{
		MaxCashLeft: constants.DefaultMaxCashLeft,
		DefaultLTV:  constants.DefaultLTVPercentage,
	}
}

// LTVSource names where the loan-to-value percentage came from.
type LTVSource string

// LTV sources in priority order.
const (
	LTVRefinance        LTVSource = "refinance"
	LTVBalloonRefinance LTVSource = "balloon_refinance"
	LTVPrimaryLoan      LTVSource = "primary_loan"
	LTVDefault          LTVSource = "default"
)

// Inputs are the plain values the MAO formula runs on. Rates are
// percentages; MonthlyHoldingCost already includes any loan interest.
type Inputs struct {
	ARV                decimal.Decimal
	LTV                float64
	LTVSource          LTVSource
	RenovationCosts    decimal.Decimal
	RenovationDuration int
	ClosingCosts       decimal.Decimal
	MonthlyHoldingCost decimal.Decimal
	MaxCashLeft        decimal.Decimal
}

// Result is the outcome of an MAO calculation. When the calculation fails
// Error is set and the money fields are zero, but ARV and Comps are still
// filled in when known.
type Result struct {
	MAO                decimal.Decimal `json:"mao"`
	ARV                decimal.Decimal `json:"arv"`
	LTV                float64         `json:"ltv"`
	LTVSource          LTVSource       `json:"ltv_source,omitempty"`
	LoanAmount         decimal.Decimal `json:"loan_amount"`
	RenovationCosts    decimal.Decimal `json:"renovation_costs"`
	ClosingCosts       decimal.Decimal `json:"closing_costs"`
	MonthlyHoldingCost decimal.Decimal `json:"monthly_holding_cost"`
	TotalHoldingCosts  decimal.Decimal `json:"total_holding_costs"`
	MaxCashLeft        decimal.Decimal `json:"max_cash_left"`
	Comps              *analysis.Comps `json:"comps,omitempty"`
	Error              string          `json:"error,omitempty"`
}

// OK reports whether the MAO was computed.
func (r Result) OK() bool {
	return r.Error == ""
}

// Calculate applies
//
//	MAO = ARV x LTV - renovation - closing - monthly holding x duration + max cash left
//
// It never returns an error; a failed calculation yields a zero Result with
// Error set and the ARV preserved.
func Calculate(in Inputs) Result {
	res := Result{ARV: in.ARV.Round(constants.DecimalPlaces)}

	switch {
	case !in.ARV.IsPositive():
		return failed(res, ErrMissingARV)
	case math.IsNaN(in.LTV) || math.IsInf(in.LTV, 0) || !mathutil.InPercentRange(in.LTV):
		return failed(res, fmt.Errorf("loan to value must be between 0 and 100, got %v", in.LTV))
	case in.RenovationDuration < 0:
		return failed(res, fmt.Errorf("renovation duration must not be negative, got %d", in.RenovationDuration))
	}

	arv := mathutil.Float(in.ARV)
	loanAmount := mathutil.ApplyPercentage(arv, in.LTV)
	monthlyHolding := mathutil.Float(in.MonthlyHoldingCost)
	totalHolding := monthlyHolding * float64(in.RenovationDuration)
	value := loanAmount -
		mathutil.Float(in.RenovationCosts) -
		mathutil.Float(in.ClosingCosts) -
		totalHolding +
		mathutil.Float(in.MaxCashLeft)

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return failed(res, fmt.Errorf("maximum allowable offer is not a finite number"))
	}

	res.MAO = mathutil.Cents(value)
	res.LTV = in.LTV
	res.LTVSource = in.LTVSource
	res.LoanAmount = mathutil.Cents(loanAmount)
	res.RenovationCosts = in.RenovationCosts.Round(constants.DecimalPlaces)
	res.ClosingCosts = in.ClosingCosts.Round(constants.DecimalPlaces)
	res.MonthlyHoldingCost = mathutil.Cents(monthlyHolding)
	res.TotalHoldingCosts = mathutil.Cents(totalHolding)
	res.MaxCashLeft = in.MaxCashLeft.Round(constants.DecimalPlaces)
	return res
}

func failed(res Result, err error) Result {
	res.Error = err.Error()
	return res
}

// FromAnalysis gathers the MAO inputs from an analysis:
//   - ARV is the after-repair value, falling back to the comps estimate
//   - LTV follows the BRRRR refinance LTV, then the balloon refinance LTV,
//     then the primary loan, then cfg.DefaultLTV
//   - holding cost sums taxes, insurance, utilities, HOA and the monthly
//     interest of the BRRRR initial loan or else the primary loan
//   - closing costs come from that same loan
func FromAnalysis(a analysis.Analysis, cfg Config) Inputs {
	b := a.Base

	in := Inputs{
		ARV:                b.AfterRepairValue,
		RenovationCosts:    b.RenovationCosts,
		RenovationDuration: b.RenovationDuration,
		MaxCashLeft:        decimal.NewFromFloat(cfg.MaxCashLeft),
	}
	if !in.ARV.IsPositive() && b.Comps != nil {
		in.ARV = b.Comps.EstimatedValue
	}

	var brrrr *analysis.BRRRR
	switch v := a.Variant.(type) {
	case analysis.BRRRR:
		brrrr = &v
	case analysis.PadSplit:
		if inner, ok := v.Strategy.(analysis.BRRRR); ok {
			brrrr = &inner
		}
	}

	switch {
	case brrrr != nil && brrrr.RefinanceLTV > 0:
		in.LTV, in.LTVSource = brrrr.RefinanceLTV, LTVRefinance
	case a.Balloon != nil && a.Balloon.RefinanceLTV > 0:
		in.LTV, in.LTVSource = a.Balloon.RefinanceLTV, LTVBalloonRefinance
	case b.PrimaryLTV > 0:
		in.LTV, in.LTVSource = b.PrimaryLTV, LTVPrimaryLoan
	default:
		in.LTV, in.LTVSource = cfg.DefaultLTV, LTVDefault
	}

	var holdingLoan *loans.Terms
	switch {
	case brrrr != nil:
		holdingLoan = &brrrr.InitialLoan
	case len(b.Loans) > 0:
		holdingLoan = &b.Loans[0]
	}

	holding := b.Expenses.PropertyTaxes.
		Add(b.Expenses.Insurance).
		Add(b.Expenses.Utilities).
		Add(b.Expenses.HOA)
	if holdingLoan != nil {
		holding = holding.Add(holdingLoan.MonthlyInterest())
		in.ClosingCosts = holdingLoan.ClosingCosts
	}
	in.MonthlyHoldingCost = holding

	return in
}

// ForAnalysis runs FromAnalysis and Calculate, attaching any comps data to
// the result.
func ForAnalysis(a analysis.Analysis, cfg Config) Result {
	res := Calculate(FromAnalysis(a, cfg))
	res.Comps = a.Base.Comps
	return res
}
