package equity

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/iwvelando/property-analyzer/internal/analysis"
	"github.com/iwvelando/property-analyzer/internal/strategy"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ExpenseDebtService is the breakdown category for loan payments.
const ExpenseDebtService = "Debt Service"

// Holding is one property's contribution to an owner's portfolio. Metrics
// are already scaled by Share; a nil Metrics or a zero Share excludes the
// property from the totals.
type Holding struct {
	AnalysisID string
	Name       string
	Address    string
	Share      float64
	Metrics    *strategy.Metrics
	Err        error
}

// PropertyBreakdown is one row of the by-property view.
type PropertyBreakdown struct {
	AnalysisID      string          `json:"analysis_id,omitempty" yaml:"analysis_id,omitempty"`
	Name            string          `json:"name" yaml:"name"`
	Address         string          `json:"address" yaml:"address"`
	EquityShare     float64         `json:"equity_share" yaml:"equity_share"`
	Equity          decimal.Decimal `json:"equity" yaml:"equity"`
	MonthlyIncome   decimal.Decimal `json:"monthly_income" yaml:"monthly_income"`
	MonthlyExpenses decimal.Decimal `json:"monthly_expenses" yaml:"monthly_expenses"`
	MonthlyCashFlow decimal.Decimal `json:"monthly_cash_flow" yaml:"monthly_cash_flow"`
}

// ExpenseBreakdown is one row of the by-category view.
type ExpenseBreakdown struct {
	Category   string          `json:"category" yaml:"category"`
	Amount     decimal.Decimal `json:"amount" yaml:"amount"`
	Percentage float64         `json:"percentage" yaml:"percentage"`
}

// SkippedProperty names a property left out of the totals.
type SkippedProperty struct {
	AnalysisID string `json:"analysis_id,omitempty" yaml:"analysis_id,omitempty"`
	Name       string `json:"name" yaml:"name"`
	Reason     string `json:"reason" yaml:"reason"`
}

// PortfolioSummary totals an owner's share across properties. ByProperty is
// sorted by monthly cash flow, highest first; ByExpenseCategory by amount,
// highest first.
type PortfolioSummary struct {
	Owner                string              `json:"owner,omitempty" yaml:"owner,omitempty"`
	PropertyCount        int                 `json:"property_count" yaml:"property_count"`
	TotalEquity          decimal.Decimal     `json:"total_equity" yaml:"total_equity"`
	TotalMonthlyIncome   decimal.Decimal     `json:"total_monthly_income" yaml:"total_monthly_income"`
	TotalMonthlyExpenses decimal.Decimal     `json:"total_monthly_expenses" yaml:"total_monthly_expenses"`
	TotalMonthlyCashFlow decimal.Decimal     `json:"total_monthly_cash_flow" yaml:"total_monthly_cash_flow"`
	TotalAnnualCashFlow  decimal.Decimal     `json:"total_annual_cash_flow" yaml:"total_annual_cash_flow"`
	TotalCashInvested    decimal.Decimal     `json:"total_cash_invested" yaml:"total_cash_invested"`
	CashOnCashReturn     float64             `json:"cash_on_cash_return" yaml:"cash_on_cash_return"`
	ByProperty           []PropertyBreakdown `json:"by_property" yaml:"by_property"`
	ByExpenseCategory    []ExpenseBreakdown  `json:"by_expense_category" yaml:"by_expense_category"`
	Skipped              []SkippedProperty   `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Aggregate totals scaled holdings. Holdings without metrics, with an error
// or with a zero share are listed under Skipped and do not affect the
// totals.
func Aggregate(holdings []Holding) PortfolioSummary {
	summary := PortfolioSummary{
		TotalEquity:          decimal.Zero,
		TotalMonthlyIncome:   decimal.Zero,
		TotalMonthlyExpenses: decimal.Zero,
		TotalMonthlyCashFlow: decimal.Zero,
		TotalAnnualCashFlow:  decimal.Zero,
		TotalCashInvested:    decimal.Zero,
		ByProperty:           []PropertyBreakdown{},
		ByExpenseCategory:    []ExpenseBreakdown{},
	}
	categories := map[string]decimal.Decimal{}

	for _, h := range holdings {
		if reason := skipReason(h); reason != "" {
			summary.Skipped = append(summary.Skipped, SkippedProperty{AnalysisID: h.AnalysisID, Name: h.Name, Reason: reason})
			continue
		}
		m := h.Metrics

		summary.PropertyCount++
		summary.TotalEquity = summary.TotalEquity.Add(m.Equity)
		summary.TotalMonthlyIncome = summary.TotalMonthlyIncome.Add(m.MonthlyIncome)
		summary.TotalMonthlyExpenses = summary.TotalMonthlyExpenses.Add(m.TotalMonthlyExpenses)
		summary.TotalMonthlyCashFlow = summary.TotalMonthlyCashFlow.Add(m.MonthlyCashFlow)
		summary.TotalAnnualCashFlow = summary.TotalAnnualCashFlow.Add(m.AnnualCashFlow)
		summary.TotalCashInvested = summary.TotalCashInvested.Add(m.TotalCashInvested)

		name := h.Name
		if name == "" {
			name = m.Name
		}
		address := h.Address
		if address == "" {
			address = m.Address
		}
		summary.ByProperty = append(summary.ByProperty, PropertyBreakdown{
			AnalysisID:      h.AnalysisID,
			Name:            name,
			Address:         address,
			EquityShare:     mathutil.Round(h.Share * constants.PercentageMultiplier),
			Equity:          m.Equity,
			MonthlyIncome:   m.MonthlyIncome,
			MonthlyExpenses: m.TotalMonthlyExpenses,
			MonthlyCashFlow: m.MonthlyCashFlow,
		})

		for _, e := range m.Expenses {
			categories[e.Name] = addOrSet(categories, e.Name, e.Amount)
		}
		if m.MonthlyDebtService.IsPositive() {
			categories[ExpenseDebtService] = addOrSet(categories, ExpenseDebtService, m.MonthlyDebtService)
		}
	}

	summary.CashOnCashReturn = mathutil.Round(mathutil.CalculatePercentage(
		mathutil.Float(summary.TotalAnnualCashFlow), mathutil.Float(summary.TotalCashInvested)))

	sort.SliceStable(summary.ByProperty, func(i, j int) bool {
		a, b := summary.ByProperty[i], summary.ByProperty[j]
		if !a.MonthlyCashFlow.Equal(b.MonthlyCashFlow) {
			return a.MonthlyCashFlow.GreaterThan(b.MonthlyCashFlow)
		}
		return a.Name < b.Name
	})

	total := mathutil.Float(summary.TotalMonthlyExpenses)
	for category, amount := range categories {
		summary.ByExpenseCategory = append(summary.ByExpenseCategory, ExpenseBreakdown{
			Category:   category,
			Amount:     amount,
			Percentage: mathutil.Round(mathutil.CalculatePercentage(mathutil.Float(amount), total)),
		})
	}
	sort.Slice(summary.ByExpenseCategory, func(i, j int) bool {
		a, b := summary.ByExpenseCategory[i], summary.ByExpenseCategory[j]
		if !a.Amount.Equal(b.Amount) {
			return a.Amount.GreaterThan(b.Amount)
		}
		return a.Category < b.Category
	})

	return summary
}

func addOrSet(m map[string]decimal.Decimal, key string, v decimal.Decimal) decimal.Decimal {
	if cur, ok := m[key]; ok {
		return cur.Add(v)
	}
	return v
}

func skipReason(h Holding) string {
	switch {
	case h.Err != nil:
		return h.Err.Error()
	case h.Metrics == nil:
		return "no metrics"
	case h.Share <= 0:
		return "no equity share"
	}
	return ""
}

// Evaluator produces metrics for a record; *strategy.Calculator satisfies it.
type Evaluator interface {
	Evaluate(t analysis.Type, r analysis.Record) (*strategy.Metrics, error)
}

// ErrNoShare marks a property in which the owner holds no equity.
var ErrNoShare = errors.New("owner holds no equity share")

// OwnerShare returns the fraction of a property the owner holds: their
// partner share when the property has partners, otherwise the whole property.
// Partner names match case-insensitively.
func OwnerShare(r analysis.Record, owner string) (float64, error) {
	if len(r.Partners) == 0 {
		return 1, nil
	}
	for _, p := range r.Partners {
		if strings.EqualFold(strings.TrimSpace(p.Name), strings.TrimSpace(owner)) {
			if p.EquityShare <= 0 {
				return 0, fmt.Errorf("%w in %s", ErrNoShare, r.Name)
			}
			return p.EquityShare / constants.PercentageMultiplier, nil
		}
	}
	return 0, fmt.Errorf("%w in %s", ErrNoShare, r.Name)
}

// ForOwner evaluates every record, scales it by the owner's share and
// aggregates the result. A property that fails is skipped rather than
// failing the portfolio; the returned error combines every such failure and
// the summary is valid either way.
func ForOwner(logger *zap.Logger, eval Evaluator, owner string, records []analysis.Record) (PortfolioSummary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var errs error
	holdings := make([]Holding, 0, len(records))
	for _, r := range records {
		h := holding(eval, owner, r)
		if h.Err != nil {
			logger.Warn(fmt.Sprintf("excluding %s from the portfolio of %s", r.Name, owner),
				zap.String("op", "equity.ForOwner"),
				zap.Error(h.Err),
			)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", r.Name, h.Err))
		}
		holdings = append(holdings, h)
	}

	summary := Aggregate(holdings)
	summary.Owner = owner
	return summary, errs
}

func holding(eval Evaluator, owner string, r analysis.Record) Holding {
	h := Holding{AnalysisID: r.ID, Name: r.Name, Address: r.Address}

	share, err := OwnerShare(r, owner)
	if err != nil {
		h.Err = err
		return h
	}
	h.Share = share

	m, err := eval.Evaluate(r.Type, r)
	if err != nil {
		h.Err = err
		return h
	}
	h.Metrics, h.Err = Allocate(m, share)
	return h
}
