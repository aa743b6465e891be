// Package equity scales calculated metrics by a partner's ownership share and
// rolls scaled metrics up into portfolio totals.
package equity

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/property-analyzer/internal/analysis"
	"github.com/iwvelando/property-analyzer/internal/strategy"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/loans"
	"github.com/shopspring/decimal"
)

// ErrInvalidShare is returned for an equity share outside [0, 1].
var ErrInvalidShare = errors.New("equity share must be between 0 and 1")

// Allocation is one partner's slice of a property's metrics.
type Allocation struct {
	Partner     string            `json:"partner"`
	EquityShare float64           `json:"equity_share"`
	Metrics     *strategy.Metrics `json:"metrics"`
}

// Allocate returns a copy of m with every money field multiplied by share and
// rounded to the cent. Percentages, counts and descriptive fields are copied
// unchanged, and m itself is never modified.
func Allocate(m *strategy.Metrics, share float64) (*strategy.Metrics, error) {
	if m == nil {
		return nil, errors.New("no metrics to allocate")
	}
	if math.IsNaN(share) || share < 0 || share > 1 {
		return nil, fmt.Errorf("%w, got %v", ErrInvalidShare, share)
	}

	s := scaler{factor: decimal.NewFromFloat(share)}
	out := *m

	out.MonthlyIncome = s.money(m.MonthlyIncome)
	out.TotalOperatingExpenses = s.money(m.TotalOperatingExpenses)
	out.MonthlyDebtService = s.money(m.MonthlyDebtService)
	out.TotalMonthlyExpenses = s.money(m.TotalMonthlyExpenses)
	out.MonthlyCashFlow = s.money(m.MonthlyCashFlow)
	out.AnnualCashFlow = s.money(m.AnnualCashFlow)
	out.TotalCashInvested = s.money(m.TotalCashInvested)
	out.PropertyValue = s.money(m.PropertyValue)
	out.Equity = s.money(m.Equity)

	if m.Expenses != nil {
		out.Expenses = make([]strategy.LineItem, len(m.Expenses))
		for i, e := range m.Expenses {
			out.Expenses[i] = strategy.LineItem{Name: e.Name, Amount: s.money(e.Amount)}
		}
	}
	if m.Loans != nil {
		out.Loans = make([]loans.Detail, len(m.Loans))
		for i, l := range m.Loans {
			l.Principal = s.money(l.Principal)
			l.Payment = s.money(l.Payment)
			out.Loans[i] = l
		}
	}

	if b := m.BRRRR; b != nil {
		out.BRRRR = &strategy.BRRRRMetrics{
			InitialLoanAmount:    s.money(b.InitialLoanAmount),
			InitialLoanPayment:   s.money(b.InitialLoanPayment),
			RefinanceLoanAmount:  s.money(b.RefinanceLoanAmount),
			RefinanceLoanPayment: s.money(b.RefinanceLoanPayment),
			AllInCost:            s.money(b.AllInCost),
			EquityCaptured:       s.money(b.EquityCaptured),
			CashRecouped:         s.money(b.CashRecouped),
			CashLeftInDeal:       s.money(b.CashLeftInDeal),
			ROI:                  b.ROI,
		}
	}
	if p := m.PadSplit; p != nil {
		out.PadSplit = &strategy.PadSplitMetrics{
			PlatformFee:           s.money(p.PlatformFee),
			TotalPadSplitExpenses: s.money(p.TotalPadSplitExpenses),
		}
	}
	if l := m.LeaseOption; l != nil {
		lo := *l
		lo.OptionFee = s.money(l.OptionFee)
		lo.StrikePrice = s.money(l.StrikePrice)
		lo.MonthlyRentCredit = s.money(l.MonthlyRentCredit)
		lo.RentCreditAccrued = s.money(l.RentCreditAccrued)
		lo.EffectivePurchasePrice = s.money(l.EffectivePurchasePrice)
		lo.ProjectedSaleProfit = s.money(l.ProjectedSaleProfit)
		out.LeaseOption = &lo
	}
	if mf := m.MultiFamily; mf != nil {
		scaled := *mf
		scaled.GrossPotentialRent = s.money(mf.GrossPotentialRent)
		scaled.UnitIncome = s.money(mf.UnitIncome)
		scaled.PricePerUnit = s.money(mf.PricePerUnit)
		scaled.CommonAreaExpenses = s.money(mf.CommonAreaExpenses)
		if mf.UnitTypes != nil {
			scaled.UnitTypes = make([]strategy.UnitTypeIncome, len(mf.UnitTypes))
			for i, u := range mf.UnitTypes {
				u.RentPerUnit = s.money(u.RentPerUnit)
				u.MonthlyIncome = s.money(u.MonthlyIncome)
				u.PotentialIncome = s.money(u.PotentialIncome)
				u.RentPerSquareFoot = s.money(u.RentPerSquareFoot)
				scaled.UnitTypes[i] = u
			}
		}
		out.MultiFamily = &scaled
	}
	if b := m.Balloon; b != nil {
		bm := *b
		bm.BalanceAtDue = s.money(b.BalanceAtDue)
		bm.RefinanceLoanAmount = s.money(b.RefinanceLoanAmount)
		bm.RefinancePayment = s.money(b.RefinancePayment)
		bm.RefinanceClosingCosts = s.money(b.RefinanceClosingCosts)
		bm.CashNeeded = s.money(b.CashNeeded)
		bm.PostRefinanceCashFlow = s.money(b.PostRefinanceCashFlow)
		out.Balloon = &bm
	}
	if r := m.MAO; r != nil {
		res := *r
		res.MAO = s.money(r.MAO)
		res.ARV = s.money(r.ARV)
		res.LoanAmount = s.money(r.LoanAmount)
		res.RenovationCosts = s.money(r.RenovationCosts)
		res.ClosingCosts = s.money(r.ClosingCosts)
		res.MonthlyHoldingCost = s.money(r.MonthlyHoldingCost)
		res.TotalHoldingCosts = s.money(r.TotalHoldingCosts)
		res.MaxCashLeft = s.money(r.MaxCashLeft)
		res.Comps = s.comps(r.Comps)
		out.MAO = &res
	}

	return &out, nil
}

// AllocatePartners splits m across a property's partners. The partner list
// must pass analysis.ValidatePartners.
func AllocatePartners(m *strategy.Metrics, partners []analysis.Partner) ([]Allocation, error) {
	if err := analysis.ValidatePartners(partners); err != nil {
		return nil, err
	}
	out := make([]Allocation, 0, len(partners))
	for _, p := range partners {
		scaled, err := Allocate(m, p.EquityShare/constants.PercentageMultiplier)
		if err != nil {
			return nil, fmt.Errorf("allocating to %s: %w", p.Name, err)
		}
		out = append(out, Allocation{Partner: p.Name, EquityShare: p.EquityShare, Metrics: scaled})
	}
	return out, nil
}

type scaler struct {
	factor decimal.Decimal
}

func (s scaler) money(v decimal.Decimal) decimal.Decimal {
	return v.Mul(s.factor).Round(constants.DecimalPlaces)
}

func (s scaler) comps(c *analysis.Comps) *analysis.Comps {
	if c == nil {
		return nil
	}
	return &analysis.Comps{
		EstimatedValue: s.money(c.EstimatedValue),
		ValueRangeLow:  s.money(c.ValueRangeLow),
		ValueRangeHigh: s.money(c.ValueRangeHigh),
		EstimatedRent:  s.money(c.EstimatedRent),
	}
}
