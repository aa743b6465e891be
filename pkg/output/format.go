// Package output provides utilities for formatting and displaying analysis
// results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/property-analyzer/internal/equity"
	"github.com/iwvelando/property-analyzer/internal/strategy"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/loans"
	"github.com/iwvelando/property-analyzer/pkg/mathutil"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Schedule is the amortization schedule of one loan on one property.
type Schedule struct {
	Property string        `json:"property"`
	Loan     string        `json:"loan"`
	Entries  []loans.Entry `json:"entries"`
}

// Report is everything one CLI run prints.
type Report struct {
	Properties []*strategy.Metrics      `json:"properties"`
	Schedules  []Schedule               `json:"schedules,omitempty"`
	Portfolio  *equity.PortfolioSummary `json:"portfolio,omitempty"`
}

// Write renders the report in the given format.
func Write(w io.Writer, format string, r Report) error {
	switch format {
	case constants.OutputFormatPretty:
		PrettyFormat(w, r.Properties)
		for _, s := range r.Schedules {
			PrettySchedule(w, s)
		}
		if r.Portfolio != nil {
			PrettyPortfolio(w, *r.Portfolio)
		}
		return nil
	case constants.OutputFormatCSV:
		if err := CsvFormat(w, r.Properties); err != nil {
			return err
		}
		for _, s := range r.Schedules {
			fmt.Fprintln(w)
			if err := CsvSchedule(w, s); err != nil {
				return err
			}
		}
		if r.Portfolio != nil {
			fmt.Fprintln(w)
			return CsvPortfolio(w, *r.Portfolio)
		}
		return nil
	case constants.OutputFormatJSON:
		return JSONFormat(w, r)
	}
	return fmt.Errorf("unsupported output format %q", format)
}

func dollars(p *message.Printer, d decimal.Decimal) string {
	f := mathutil.Float(d)
	if f < 0 {
		return p.Sprintf("-$%.2f", -f)
	}
	return p.Sprintf("$%.2f", f)
}

func row(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%-30s | %s\n", label, value)
}

// PrettyFormat outputs a human-readable rather than machine-readable table
// for each analysis.
func PrettyFormat(w io.Writer, results []*strategy.Metrics) {
	p := message.NewPrinter(language.English)
	for i, m := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "--- Analysis for %s (%s) ---\n", m.Name, m.Type)
		if m.Address != "" {
			fmt.Fprintf(w, "Address: %s\n", m.Address)
		}
		row(w, "Item", "Monthly")
		row(w, "____", "_______")
		row(w, "Income", dollars(p, m.MonthlyIncome))
		for _, e := range m.Expenses {
			row(w, e.Name, dollars(p, e.Amount))
		}
		row(w, "Operating Expenses", dollars(p, m.TotalOperatingExpenses))
		for _, l := range m.Loans {
			label := fmt.Sprintf("%s (%g%%, %d mo)", l.Name, l.InterestRate, l.TermMonths)
			if l.InterestOnly {
				label = fmt.Sprintf("%s (%g%% interest only)", l.Name, l.InterestRate)
			}
			row(w, label, dollars(p, l.Payment))
		}
		row(w, "Debt Service", dollars(p, m.MonthlyDebtService))
		row(w, "Total Expenses", dollars(p, m.TotalMonthlyExpenses))
		row(w, "Cash Flow", dollars(p, m.MonthlyCashFlow))

		fmt.Fprintf(w, "Annual Cash Flow: %s\n", dollars(p, m.AnnualCashFlow))
		fmt.Fprintf(w, "Total Cash Invested: %s\n", dollars(p, m.TotalCashInvested))
		fmt.Fprintf(w, "Cash on Cash Return: %.2f%%\n", m.CashOnCashReturn)
		fmt.Fprintf(w, "Property Value: %s | Equity: %s\n", dollars(p, m.PropertyValue), dollars(p, m.Equity))

		if b := m.BRRRR; b != nil {
			fmt.Fprintf(w, "BRRRR: all-in %s, equity captured %s, cash recouped %s, cash left in deal %s, ROI %.2f%%\n",
				dollars(p, b.AllInCost), dollars(p, b.EquityCaptured), dollars(p, b.CashRecouped), dollars(p, b.CashLeftInDeal), b.ROI)
		}
		if ps := m.PadSplit; ps != nil {
			fmt.Fprintf(w, "PadSplit: platform fee %s, room expenses %s\n",
				dollars(p, ps.PlatformFee), dollars(p, ps.TotalPadSplitExpenses))
		}
		if lo := m.LeaseOption; lo != nil {
			fmt.Fprintf(w, "Lease Option: strike %s, rent credit %s/mo (%s over %d months), effective price %s, projected profit %s\n",
				dollars(p, lo.StrikePrice), dollars(p, lo.MonthlyRentCredit), dollars(p, lo.RentCreditAccrued),
				lo.TermMonths, dollars(p, lo.EffectivePurchasePrice), dollars(p, lo.ProjectedSaleProfit))
		}
		if mf := m.MultiFamily; mf != nil {
			fmt.Fprintf(w, "Units: %d of %d occupied (%.2f%%), gross potential rent %s, price per unit %s\n",
				mf.OccupiedUnits, mf.TotalUnits, mf.OccupancyRate, dollars(p, mf.GrossPotentialRent), dollars(p, mf.PricePerUnit))
			for _, u := range mf.UnitTypes {
				fmt.Fprintf(w, "  %s: %d/%d occupied at %s = %s\n",
					u.Label, u.OccupiedCount, u.UnitCount, dollars(p, u.RentPerUnit), dollars(p, u.MonthlyIncome))
			}
		}
		if b := m.Balloon; b != nil {
			fmt.Fprintf(w, "Balloon due %s (%d months): balance %s, refinance %s at %s/mo, cash needed %s, cash flow after %s\n",
				b.DueDate, b.MonthsUntilDue, dollars(p, b.BalanceAtDue), dollars(p, b.RefinanceLoanAmount),
				dollars(p, b.RefinancePayment), dollars(p, b.CashNeeded), dollars(p, b.PostRefinanceCashFlow))
		}
		if r := m.MAO; r != nil {
			if r.OK() {
				fmt.Fprintf(w, "Maximum Allowable Offer: %s (ARV %s at %.2f%% LTV from %s)\n",
					dollars(p, r.MAO), dollars(p, r.ARV), r.LTV, r.LTVSource)
			} else {
				fmt.Fprintf(w, "Maximum Allowable Offer: unavailable (%s)\n", r.Error)
			}
		}
	}
}

func fixed(d decimal.Decimal) string {
	return d.StringFixed(constants.DecimalPlaces)
}

func percent(f float64) string {
	return strconv.FormatFloat(f, 'f', constants.DecimalPlaces, 64)
}

// CsvFormat outputs one comma-separated row per analysis.
func CsvFormat(w io.Writer, results []*strategy.Metrics) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{
		"analysis_name", "analysis_type", "address", "monthly_income", "total_operating_expenses",
		"monthly_debt_service", "total_monthly_expenses", "monthly_cash_flow", "annual_cash_flow",
		"total_cash_invested", "cash_on_cash_return", "property_value", "equity", "mao",
	})
	for _, m := range results {
		maoValue := ""
		if m.MAO != nil && m.MAO.OK() {
			maoValue = fixed(m.MAO.MAO)
		}
		_ = cw.Write([]string{
			m.Name, m.Type.String(), m.Address,
			fixed(m.MonthlyIncome), fixed(m.TotalOperatingExpenses), fixed(m.MonthlyDebtService),
			fixed(m.TotalMonthlyExpenses), fixed(m.MonthlyCashFlow), fixed(m.AnnualCashFlow),
			fixed(m.TotalCashInvested), percent(m.CashOnCashReturn), fixed(m.PropertyValue), fixed(m.Equity),
			maoValue,
		})
	}
	cw.Flush()
	return cw.Error()
}

// PrettySchedule prints an amortization table.
func PrettySchedule(w io.Writer, s Schedule) {
	p := message.NewPrinter(language.English)
	fmt.Fprintf(w, "\n--- Amortization for %s: %s ---\n", s.Property, s.Loan)
	fmt.Fprintf(w, "%-5s | %-12s | %-12s | %-12s | %s\n", "Month", "Payment", "Principal", "Interest", "Balance")
	fmt.Fprintf(w, "%-5s | %-12s | %-12s | %-12s | %s\n", "_____", "_______", "_________", "________", "_______")
	for _, e := range s.Entries {
		fmt.Fprintf(w, "%-5d | %-12s | %-12s | %-12s | %s\n", e.Month,
			dollars(p, e.Payment), dollars(p, e.Principal), dollars(p, e.Interest), dollars(p, e.Balance))
	}
}

// CsvSchedule outputs an amortization schedule as comma-separated values.
func CsvSchedule(w io.Writer, s Schedule) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"property", "loan", "month", "payment", "principal", "interest", "balance",
		"cumulative_principal", "cumulative_interest"})
	for _, e := range s.Entries {
		_ = cw.Write([]string{s.Property, s.Loan, strconv.Itoa(e.Month), fixed(e.Payment), fixed(e.Principal),
			fixed(e.Interest), fixed(e.Balance), fixed(e.CumulativePrincipal), fixed(e.CumulativeInterest)})
	}
	cw.Flush()
	return cw.Error()
}

// PrettyPortfolio prints an owner's portfolio summary.
func PrettyPortfolio(w io.Writer, s equity.PortfolioSummary) {
	p := message.NewPrinter(language.English)
	fmt.Fprintf(w, "\n--- Portfolio for %s (%d properties) ---\n", s.Owner, s.PropertyCount)
	row(w, "Monthly Income", dollars(p, s.TotalMonthlyIncome))
	row(w, "Monthly Expenses", dollars(p, s.TotalMonthlyExpenses))
	row(w, "Monthly Cash Flow", dollars(p, s.TotalMonthlyCashFlow))
	row(w, "Annual Cash Flow", dollars(p, s.TotalAnnualCashFlow))
	row(w, "Cash Invested", dollars(p, s.TotalCashInvested))
	row(w, "Equity", dollars(p, s.TotalEquity))
	row(w, "Cash on Cash Return", fmt.Sprintf("%.2f%%", s.CashOnCashReturn))

	if len(s.ByProperty) > 0 {
		fmt.Fprintln(w, "By property:")
		for _, b := range s.ByProperty {
			fmt.Fprintf(w, "  %s (%.2f%%): cash flow %s, equity %s\n",
				b.Name, b.EquityShare, dollars(p, b.MonthlyCashFlow), dollars(p, b.Equity))
		}
	}
	if len(s.ByExpenseCategory) > 0 {
		fmt.Fprintln(w, "By expense:")
		for _, e := range s.ByExpenseCategory {
			fmt.Fprintf(w, "  %s: %s (%.2f%%)\n", e.Category, dollars(p, e.Amount), e.Percentage)
		}
	}
	for _, sk := range s.Skipped {
		fmt.Fprintf(w, "Skipped %s: %s\n", sk.Name, sk.Reason)
	}
}

// CsvPortfolio outputs the by-property breakdown followed by a total row.
func CsvPortfolio(w io.Writer, s equity.PortfolioSummary) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"owner", "property", "equity_share", "monthly_income", "monthly_expenses",
		"monthly_cash_flow", "equity"})
	for _, b := range s.ByProperty {
		_ = cw.Write([]string{s.Owner, b.Name, percent(b.EquityShare), fixed(b.MonthlyIncome),
			fixed(b.MonthlyExpenses), fixed(b.MonthlyCashFlow), fixed(b.Equity)})
	}
	_ = cw.Write([]string{s.Owner, "total", "", fixed(s.TotalMonthlyIncome), fixed(s.TotalMonthlyExpenses),
		fixed(s.TotalMonthlyCashFlow), fixed(s.TotalEquity)})
	cw.Flush()
	return cw.Error()
}

// JSONFormat writes v as indented JSON.
func JSONFormat(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
