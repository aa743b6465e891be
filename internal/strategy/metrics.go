package strategy

import (
	"github.com/iwvelando/property-analyzer/internal/analysis"
	"github.com/iwvelando/property-analyzer/internal/mao"
	"github.com/iwvelando/property-analyzer/pkg/loans"
	"github.com/shopspring/decimal"
)

// Expense line item names.
const (
	ExpensePropertyTaxes     = "Property Taxes"
	ExpenseInsurance         = "Insurance"
	ExpenseHOA               = "HOA/COA/Co-op"
	ExpenseManagement        = "Management"
	ExpenseCapEx             = "CapEx"
	ExpenseVacancy           = "Vacancy"
	ExpenseRepairs           = "Repairs"
	ExpensePlatformFee       = "PadSplit Platform Fee"
	ExpensePadSplitUtilities = "Utilities"
	ExpenseInternet          = "Internet"
	ExpenseCleaning          = "Cleaning"
	ExpensePestControl       = "Pest Control"
	ExpenseLandscaping       = "Landscaping"
	ExpenseCommonArea        = "Common Area Maintenance"
	ExpenseElevator          = "Elevator Maintenance"
	ExpenseStaffPayroll      = "Staff Payroll"
	ExpenseTrashRemoval      = "Trash Removal"
	ExpenseCommonUtilities   = "Common Utilities"
)

// LineItem is one named monthly expense.
type LineItem struct {
	Name   string          `json:"name" yaml:"name"`
	Amount decimal.Decimal `json:"amount" yaml:"amount"`
}

// Metrics is the result of analysing one property under one strategy. Money
// fields are rounded to the cent and percentages to two decimals. Strategy
// specific sections are nil when they do not apply.
type Metrics struct {
	AnalysisID string        `json:"analysis_id,omitempty" yaml:"analysis_id,omitempty"`
	Name       string        `json:"analysis_name" yaml:"analysis_name"`
	Type       analysis.Type `json:"analysis_type" yaml:"analysis_type"`
	Address    string        `json:"address" yaml:"address"`

	MonthlyIncome          decimal.Decimal `json:"monthly_income" yaml:"monthly_income"`
	Expenses               []LineItem      `json:"expenses" yaml:"expenses"`
	TotalOperatingExpenses decimal.Decimal `json:"total_operating_expenses" yaml:"total_operating_expenses"`
	Loans                  []loans.Detail  `json:"loans,omitempty" yaml:"loans,omitempty"`
	MonthlyDebtService     decimal.Decimal `json:"monthly_debt_service" yaml:"monthly_debt_service"`
	TotalMonthlyExpenses   decimal.Decimal `json:"total_monthly_expenses" yaml:"total_monthly_expenses"`
	MonthlyCashFlow        decimal.Decimal `json:"monthly_cash_flow" yaml:"monthly_cash_flow"`
	AnnualCashFlow         decimal.Decimal `json:"annual_cash_flow" yaml:"annual_cash_flow"`
	TotalCashInvested      decimal.Decimal `json:"total_cash_invested" yaml:"total_cash_invested"`
	CashOnCashReturn       float64         `json:"cash_on_cash_return" yaml:"cash_on_cash_return"`
	PropertyValue          decimal.Decimal `json:"property_value" yaml:"property_value"`
	Equity                 decimal.Decimal `json:"equity" yaml:"equity"`

	BRRRR       *BRRRRMetrics       `json:"brrrr,omitempty" yaml:"brrrr,omitempty"`
	PadSplit    *PadSplitMetrics    `json:"padsplit,omitempty" yaml:"padsplit,omitempty"`
	LeaseOption *LeaseOptionMetrics `json:"lease_option,omitempty" yaml:"lease_option,omitempty"`
	MultiFamily *MultiFamilyMetrics `json:"multi_family,omitempty" yaml:"multi_family,omitempty"`
	Balloon     *BalloonMetrics     `json:"balloon,omitempty" yaml:"balloon,omitempty"`
	MAO         *mao.Result         `json:"mao,omitempty" yaml:"mao,omitempty"`
}

// BRRRRMetrics covers the two financing phases of a BRRRR deal.
type BRRRRMetrics struct {
	InitialLoanAmount    decimal.Decimal `json:"initial_loan_amount" yaml:"initial_loan_amount"`
	InitialLoanPayment   decimal.Decimal `json:"initial_loan_payment" yaml:"initial_loan_payment"`
	RefinanceLoanAmount  decimal.Decimal `json:"refinance_loan_amount" yaml:"refinance_loan_amount"`
	RefinanceLoanPayment decimal.Decimal `json:"refinance_loan_payment" yaml:"refinance_loan_payment"`
	AllInCost            decimal.Decimal `json:"all_in_cost" yaml:"all_in_cost"`
	EquityCaptured       decimal.Decimal `json:"equity_captured" yaml:"equity_captured"`
	CashRecouped         decimal.Decimal `json:"cash_recouped" yaml:"cash_recouped"`
	CashLeftInDeal       decimal.Decimal `json:"cash_left_in_deal" yaml:"cash_left_in_deal"`
	ROI                  float64         `json:"roi" yaml:"roi"`
}

// PadSplitMetrics summarizes the by-the-room expenses.
type PadSplitMetrics struct {
	PlatformFee           decimal.Decimal `json:"platform_fee" yaml:"platform_fee"`
	TotalPadSplitExpenses decimal.Decimal `json:"total_padsplit_expenses" yaml:"total_padsplit_expenses"`
}

// LeaseOptionMetrics tracks the tenant-buyer's rent credit toward the
// strike price. ProjectedSaleProfit assumes the option is exercised at the
// end of the term.
type LeaseOptionMetrics struct {
	OptionFee              decimal.Decimal `json:"option_fee" yaml:"option_fee"`
	StrikePrice            decimal.Decimal `json:"strike_price" yaml:"strike_price"`
	TermMonths             int             `json:"term_months" yaml:"term_months"`
	MonthlyRentCredit      decimal.Decimal `json:"monthly_rent_credit" yaml:"monthly_rent_credit"`
	RentCreditAccrued      decimal.Decimal `json:"rent_credit_accrued" yaml:"rent_credit_accrued"`
	EffectivePurchasePrice decimal.Decimal `json:"effective_purchase_price" yaml:"effective_purchase_price"`
	ProjectedSaleProfit    decimal.Decimal `json:"projected_sale_profit" yaml:"projected_sale_profit"`
}

// UnitTypeIncome is the occupancy-weighted income of one unit type.
type UnitTypeIncome struct {
	Label             string          `json:"label" yaml:"label"`
	UnitCount         int             `json:"unit_count" yaml:"unit_count"`
	OccupiedCount     int             `json:"occupied_count" yaml:"occupied_count"`
	SquareFootage     int             `json:"square_footage" yaml:"square_footage"`
	RentPerUnit       decimal.Decimal `json:"rent_per_unit" yaml:"rent_per_unit"`
	MonthlyIncome     decimal.Decimal `json:"monthly_income" yaml:"monthly_income"`
	PotentialIncome   decimal.Decimal `json:"potential_income" yaml:"potential_income"`
	RentPerSquareFoot decimal.Decimal `json:"rent_per_square_foot" yaml:"rent_per_square_foot"`
}

// MultiFamilyMetrics breaks income down by unit type.
type MultiFamilyMetrics struct {
	UnitTypes          []UnitTypeIncome `json:"unit_types" yaml:"unit_types"`
	TotalUnits         int              `json:"total_units" yaml:"total_units"`
	OccupiedUnits      int              `json:"occupied_units" yaml:"occupied_units"`
	OccupancyRate      float64          `json:"occupancy_rate" yaml:"occupancy_rate"`
	GrossPotentialRent decimal.Decimal  `json:"gross_potential_rent" yaml:"gross_potential_rent"`
	UnitIncome         decimal.Decimal  `json:"unit_income" yaml:"unit_income"`
	PricePerUnit       decimal.Decimal  `json:"price_per_unit" yaml:"price_per_unit"`
	CommonAreaExpenses decimal.Decimal  `json:"common_area_expenses" yaml:"common_area_expenses"`
}

// BalloonMetrics projects the balloon payment and the refinance replacing it.
// CashNeeded is negative when the refinance pays out more than the balance.
type BalloonMetrics struct {
	DueDate               string          `json:"due_date" yaml:"due_date"`
	MonthsUntilDue        int             `json:"months_until_due" yaml:"months_until_due"`
	BalanceAtDue          decimal.Decimal `json:"balance_at_due" yaml:"balance_at_due"`
	RefinanceLoanAmount   decimal.Decimal `json:"refinance_loan_amount" yaml:"refinance_loan_amount"`
	RefinancePayment      decimal.Decimal `json:"refinance_payment" yaml:"refinance_payment"`
	RefinanceClosingCosts decimal.Decimal `json:"refinance_closing_costs" yaml:"refinance_closing_costs"`
	CashNeeded            decimal.Decimal `json:"cash_needed" yaml:"cash_needed"`
	PostRefinanceCashFlow decimal.Decimal `json:"post_refinance_cash_flow" yaml:"post_refinance_cash_flow"`
}
