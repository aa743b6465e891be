package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iwvelando/property-analyzer/internal/analysis"
	"github.com/iwvelando/property-analyzer/internal/equity"
	"github.com/iwvelando/property-analyzer/internal/mao"
	"github.com/iwvelando/property-analyzer/internal/strategy"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/loans"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleMetrics() *strategy.Metrics {
	return &strategy.Metrics{
		Name:                   "Maple St",
		Type:                   analysis.TypeLTR,
		Address:                "12 Maple St, Springfield",
		MonthlyIncome:          dec("2000"),
		Expenses:               []strategy.LineItem{{Name: strategy.ExpensePropertyTaxes, Amount: dec("200")}},
		TotalOperatingExpenses: dec("200"),
		Loans:                  []loans.Detail{{Name: "Loan 1", Principal: dec("150000"), InterestRate: 6, TermMonths: 360, Payment: dec("899.33")}},
		MonthlyDebtService:     dec("899.33"),
		TotalMonthlyExpenses:   dec("1099.33"),
		MonthlyCashFlow:        dec("-1234.5"),
		AnnualCashFlow:         dec("-14814"),
		TotalCashInvested:      dec("35000"),
		CashOnCashReturn:       -42.33,
		PropertyValue:          dec("180000"),
		Equity:                 dec("30000"),
		MAO:                    &mao.Result{Error: mao.ErrMissingARV.Error()},
	}
}

func TestPrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	PrettyFormat(&buf, []*strategy.Metrics{sampleMetrics()})
	output := buf.String()

	for _, want := range []string{
		"--- Analysis for Maple St (LTR) ---",
		"Address: 12 Maple St, Springfield",
		"$2,000.00",
		"Loan 1 (6%, 360 mo)",
		"-$1,234.50",
		"Total Cash Invested: $35,000.00",
		"Cash on Cash Return: -42.33%",
		"Maximum Allowable Offer: unavailable (after repair value is required)",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("PrettyFormat missing %q in:\n%s", want, output)
		}
	}
}

func TestPrettyFormatExtensions(t *testing.T) {
	m := sampleMetrics()
	m.BRRRR = &strategy.BRRRRMetrics{AllInCost: dec("187000"), EquityCaptured: dec("55000"), ROI: 83.03}
	m.Balloon = &strategy.BalloonMetrics{DueDate: "2026-03-01", MonthsUntilDue: 12, BalanceAtDue: dec("148157.98")}
	m.MAO = &mao.Result{MAO: dec("153250"), ARV: dec("235000"), LTV: 75, LTVSource: mao.LTVSource("refinance")}

	var buf bytes.Buffer
	PrettyFormat(&buf, []*strategy.Metrics{m})
	output := buf.String()
	for _, want := range []string{"all-in $187,000.00", "ROI 83.03%", "Balloon due 2026-03-01 (12 months): balance $148,157.98", "Maximum Allowable Offer: $153,250.00"} {
		if !strings.Contains(output, want) {
			t.Errorf("missing %q in:\n%s", want, output)
		}
	}
}

func TestCsvFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, []*strategy.Metrics{sampleMetrics()}); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus one row, got %d rows", len(records))
	}
	row := records[1]
	if row[0] != "Maple St" || row[2] != "12 Maple St, Springfield" {
		t.Errorf("identity columns = %v", row[:3])
	}
	if row[7] != "-1234.50" || row[10] != "-42.33" || row[13] != "" {
		t.Errorf("cash flow %q, cash on cash %q, mao %q", row[7], row[10], row[13])
	}
}

func TestSchedules(t *testing.T) {
	sched, err := loans.NewSchedule(loans.Terms{Principal: dec("1200"), InterestRate: 0, TermMonths: 12})
	if err != nil {
		t.Fatal(err)
	}
	s := Schedule{Property: "Maple St", Loan: "Loan 1", Entries: sched.Entries()}

	var pretty bytes.Buffer
	PrettySchedule(&pretty, s)
	if !strings.Contains(pretty.String(), "--- Amortization for Maple St: Loan 1 ---") ||
		!strings.Contains(pretty.String(), "$100.00") {
		t.Errorf("PrettySchedule output:\n%s", pretty.String())
	}

	var buf bytes.Buffer
	if err := CsvSchedule(&buf, s); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 13 {
		t.Fatalf("expected 13 rows, got %d", len(records))
	}
	if last := records[12]; last[2] != "12" || last[6] != "0.00" || last[7] != "1200.00" {
		t.Errorf("last row = %v", last)
	}
}

func samplePortfolio() equity.PortfolioSummary {
	return equity.PortfolioSummary{
		Owner:                "Dana",
		PropertyCount:        1,
		TotalMonthlyIncome:   dec("1200"),
		TotalMonthlyExpenses: dec("900"),
		TotalMonthlyCashFlow: dec("300"),
		TotalEquity:          dec("35250"),
		ByProperty: []equity.PropertyBreakdown{
			{Name: "Oak Ct", EquityShare: 60, MonthlyIncome: dec("1200"), MonthlyExpenses: dec("900"), MonthlyCashFlow: dec("300"), Equity: dec("35250")},
		},
		ByExpenseCategory: []equity.ExpenseBreakdown{{Category: equity.ExpenseDebtService, Amount: dec("712.46"), Percentage: 79.16}},
		Skipped:           []equity.SkippedProperty{{Name: "Elm Rd", Reason: "no equity share"}},
	}
}

func TestPortfolio(t *testing.T) {
	var pretty bytes.Buffer
	PrettyPortfolio(&pretty, samplePortfolio())
	for _, want := range []string{"--- Portfolio for Dana (1 properties) ---", "Oak Ct (60.00%): cash flow $300.00", "Debt Service: $712.46 (79.16%)", "Skipped Elm Rd"} {
		if !strings.Contains(pretty.String(), want) {
			t.Errorf("missing %q in:\n%s", want, pretty.String())
		}
	}

	var buf bytes.Buffer
	if err := CsvPortfolio(&buf, samplePortfolio()); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 || records[2][1] != "total" || records[2][5] != "300.00" {
		t.Errorf("portfolio csv = %v", records)
	}
}

func TestWrite(t *testing.T) {
	portfolio := samplePortfolio()
	report := Report{Properties: []*strategy.Metrics{sampleMetrics()}, Portfolio: &portfolio}

	for _, format := range []string{constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON} {
		var buf bytes.Buffer
		if err := Write(&buf, format, report); err != nil {
			t.Errorf("Write(%s) error = %v", format, err)
		}
		if buf.Len() == 0 {
			t.Errorf("Write(%s) produced no output", format)
		}
	}

	var buf bytes.Buffer
	if err := Write(&buf, constants.OutputFormatJSON, report); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := decoded["portfolio"]; !ok {
		t.Error("JSON output should include the portfolio")
	}

	if err := Write(&buf, "xml", report); err == nil {
		t.Error("expected an error for an unknown format")
	}
}
