// Package strategy computes income, expenses, debt service, cash flow and
// returns for an analysis under its investment strategy.
package strategy

import (
	"fmt"
	"time"

	"github.com/iwvelando/property-analyzer/internal/analysis"
	"github.com/iwvelando/property-analyzer/internal/mao"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/datetime"
	"github.com/iwvelando/property-analyzer/pkg/loans"
	"github.com/iwvelando/property-analyzer/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Calculator evaluates analyses. It holds configuration only; every call
// works on its own input and may run concurrently with any other.
type Calculator struct {
	logger *zap.Logger
	mao    mao.Config
	now    func() time.Time
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithMAOConfig sets the assumptions used for the maximum allowable offer.
func WithMAOConfig(cfg mao.Config) Option {
	return func(c *Calculator) {
		c.mao = cfg
	}
}

// WithClock sets the clock balloon projections count from when an analysis
// has no purchase date. Fix it to make such projections reproducible.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		c.now = now
	}
}

// NewCalculator returns a Calculator using the default MAO assumptions and
// the wall clock. Balloon metrics of an analysis without a purchase date are
// counted from that clock, so they change as time passes unless WithClock is
// given.
func NewCalculator(logger *zap.Logger, opts ...Option) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Calculator{
		logger: logger,
		mao:    mao.DefaultConfig(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MAOConfig returns the assumptions used for the maximum allowable offer.
func (c *Calculator) MAOConfig() mao.Config {
	return c.mao
}

// Evaluate normalizes and validates r, then calculates it. Validation
// failures are returned as a validation.Errors list.
func (c *Calculator) Evaluate(t analysis.Type, r analysis.Record) (*Metrics, error) {
	n := analysis.Normalize(r)
	if err := analysis.Validate(t, n); err != nil {
		return nil, err
	}
	return c.Calculate(t, n)
}

// Calculate computes the metrics of r under analysis type t. The record is
// expected to have passed Validate; an unknown type is rejected before any
// calculation runs.
func (c *Calculator) Calculate(t analysis.Type, r analysis.Record) (*Metrics, error) {
	typ, err := analysis.ParseType(string(t))
	if err != nil {
		return nil, err
	}
	n := analysis.Normalize(r)
	n.Type = typ
	a, err := analysis.Build(n)
	if err != nil {
		return nil, err
	}
	return c.CalculateAnalysis(a)
}

// CalculateAnalysis computes the metrics of an already built analysis.
func (c *Calculator) CalculateAnalysis(a analysis.Analysis) (*Metrics, error) {
	ws, err := newWorksheet(a.Base, a.Variant)
	if err != nil {
		return nil, err
	}

	m := ws.finish(a.Base)

	if a.Balloon != nil {
		m.Balloon = c.balloon(a, ws)
	}

	res := mao.ForAnalysis(a, c.mao)
	if !res.OK() {
		c.logger.Debug(fmt.Sprintf("maximum allowable offer unavailable for %s", a.Base.Name),
			zap.String("op", "strategy.CalculateAnalysis"),
			zap.String("reason", res.Error),
		)
	}
	m.MAO = &res

	c.logger.Debug(fmt.Sprintf("calculated %s analysis %s", a.Base.Type, a.Base.Name),
		zap.String("op", "strategy.CalculateAnalysis"),
		zap.String("monthly_cash_flow", m.MonthlyCashFlow.StringFixed(constants.DecimalPlaces)),
	)

	return m, nil
}

type lineItem struct {
	name   string
	amount float64
}

// worksheet accumulates unrounded figures while a strategy is evaluated.
type worksheet struct {
	income      float64
	expenses    []lineItem
	debt        loans.Combined
	invested    float64
	outstanding float64

	cashFlow float64
	annual   float64

	brrrr       *brrrrState
	padSplit    *PadSplitMetrics
	leaseOption *LeaseOptionMetrics
	multiFamily *MultiFamilyMetrics
}

type brrrrState struct {
	initial        loans.Terms
	refinance      loans.Terms
	equityCaptured float64
	allInCost      float64
}

func newWorksheet(b analysis.Base, v analysis.Variant) (*worksheet, error) {
	switch v := v.(type) {
	case analysis.LongTermRental:
		return rental(b), nil
	case analysis.BRRRR:
		return brrrr(b, v), nil
	case analysis.PadSplit:
		if _, ok := v.Strategy.(analysis.PadSplit); ok {
			return nil, fmt.Errorf("%w: PadSplit cannot wrap PadSplit", analysis.ErrUnknownType)
		}
		ws, err := newWorksheet(b, v.Strategy)
		if err != nil {
			return nil, err
		}
		padSplit(ws, b, v.Expenses)
		return ws, nil
	case analysis.LeaseOption:
		return leaseOption(b, v), nil
	case analysis.MultiFamily:
		return multiFamily(b, v), nil
	default:
		return nil, fmt.Errorf("%w: %T", analysis.ErrUnknownType, v)
	}
}

func operatingExpenses(e analysis.OperatingExpenses, percentBase float64) []lineItem {
	return []lineItem{
		{ExpensePropertyTaxes, mathutil.Float(e.PropertyTaxes)},
		{ExpenseInsurance, mathutil.Float(e.Insurance)},
		{ExpenseHOA, mathutil.Float(e.HOA)},
		{ExpenseManagement, mathutil.ApplyPercentage(percentBase, e.ManagementPercentage)},
		{ExpenseCapEx, mathutil.ApplyPercentage(percentBase, e.CapexPercentage)},
		{ExpenseVacancy, mathutil.ApplyPercentage(percentBase, e.VacancyPercentage)},
		{ExpenseRepairs, mathutil.ApplyPercentage(percentBase, e.RepairsPercentage)},
	}
}

// upfrontCosts are the cash costs outside of financing.
func upfrontCosts(b analysis.Base) float64 {
	return mathutil.Float(b.RenovationCosts.Add(b.AssignmentFee).Add(b.MarketingCosts))
}

func rental(b analysis.Base) *worksheet {
	rent := mathutil.Float(b.MonthlyRent)
	debt := loans.Combine(b.Loans...)
	return &worksheet{
		income:      rent + mathutil.Float(b.OtherIncome),
		expenses:    operatingExpenses(b.Expenses, rent),
		debt:        debt,
		invested:    mathutil.Float(debt.TotalDownPayment.Add(debt.TotalClosingCosts)) + upfrontCosts(b),
		outstanding: mathutil.Float(debt.TotalPrincipal),
	}
}

func brrrr(b analysis.Base, v analysis.BRRRR) *worksheet {
	ws := rental(b)

	// Cash flow carries the refinance payment; both phases count toward the
	// cash brought to closing.
	ws.debt = loans.Combine(v.RefinanceLoan)
	phases := loans.Combine(v.InitialLoan, v.RefinanceLoan)
	ws.invested = mathutil.Float(phases.TotalDownPayment.Add(phases.TotalClosingCosts)) + upfrontCosts(b)
	ws.outstanding = mathutil.Float(v.RefinanceLoan.Principal)

	ws.brrrr = &brrrrState{
		initial:        v.InitialLoan,
		refinance:      v.RefinanceLoan,
		equityCaptured: mathutil.Float(b.AfterRepairValue.Sub(b.PurchasePrice).Sub(b.RenovationCosts)),
		allInCost: mathutil.Float(b.PurchasePrice.Add(b.RenovationCosts).
			Add(v.InitialLoan.ClosingCosts).Add(v.RefinanceLoan.ClosingCosts)),
	}
	return ws
}

func padSplit(ws *worksheet, b analysis.Base, e analysis.PadSplitExpenses) {
	platformFee := mathutil.ApplyPercentage(mathutil.Float(b.MonthlyRent), e.PlatformPercentage)
	items := []lineItem{
		{ExpensePlatformFee, platformFee},
		{ExpensePadSplitUtilities, mathutil.Float(e.Utilities)},
		{ExpenseInternet, mathutil.Float(e.Internet)},
		{ExpenseCleaning, mathutil.Float(e.Cleaning)},
		{ExpensePestControl, mathutil.Float(e.PestControl)},
		{ExpenseLandscaping, mathutil.Float(e.Landscaping)},
	}
	total := 0.0
	for _, item := range items {
		total += item.amount
	}
	ws.expenses = append(ws.expenses, items...)
	ws.padSplit = &PadSplitMetrics{
		PlatformFee:           mathutil.Cents(platformFee),
		TotalPadSplitExpenses: mathutil.Cents(total),
	}
}

func leaseOption(b analysis.Base, v analysis.LeaseOption) *worksheet {
	ws := rental(b)

	monthlyCredit := mathutil.ApplyPercentage(mathutil.Float(b.MonthlyRent), v.RentCreditPercentage)
	accrued := monthlyCredit * float64(max(v.TermMonths, 0))
	if v.RentCreditCap.IsPositive() {
		accrued = min(accrued, mathutil.Float(v.RentCreditCap))
	}
	effectivePrice := mathutil.Float(v.StrikePrice) - accrued
	optionFee := mathutil.Float(v.OptionFee)

	// The option fee is collected up front and offsets the cash in the deal.
	ws.invested = max(ws.invested-optionFee, 0)
	ws.leaseOption = &LeaseOptionMetrics{
		OptionFee:              mathutil.Cents(optionFee),
		StrikePrice:            v.StrikePrice.Round(constants.DecimalPlaces),
		TermMonths:             v.TermMonths,
		MonthlyRentCredit:      mathutil.Cents(monthlyCredit),
		RentCreditAccrued:      mathutil.Cents(accrued),
		EffectivePurchasePrice: mathutil.Cents(effectivePrice),
		ProjectedSaleProfit: mathutil.Cents(effectivePrice + optionFee -
			mathutil.Float(b.PurchasePrice) - mathutil.Float(b.RenovationCosts)),
	}
	return ws
}

func multiFamily(b analysis.Base, v analysis.MultiFamily) *worksheet {
	mf := &MultiFamilyMetrics{
		TotalUnits:         v.TotalUnits,
		OccupiedUnits:      v.OccupiedUnits,
		OccupancyRate:      mathutil.Round(mathutil.CalculatePercentage(float64(v.OccupiedUnits), float64(v.TotalUnits))),
		PricePerUnit:       mathutil.Cents(mathutil.SafeDivide(mathutil.Float(b.PurchasePrice), float64(v.TotalUnits))),
		CommonAreaExpenses: v.Common.Total().Round(constants.DecimalPlaces),
	}

	unitIncome, potential := 0.0, 0.0
	for _, u := range v.UnitTypes {
		rent := mathutil.Float(u.RentPerUnit)
		income := float64(u.OccupiedCount) * rent
		full := float64(u.UnitCount) * rent
		unitIncome += income
		potential += full
		mf.UnitTypes = append(mf.UnitTypes, UnitTypeIncome{
			Label:             u.Label,
			UnitCount:         u.UnitCount,
			OccupiedCount:     u.OccupiedCount,
			SquareFootage:     u.SquareFootage,
			RentPerUnit:       u.RentPerUnit.Round(constants.DecimalPlaces),
			MonthlyIncome:     mathutil.Cents(income),
			PotentialIncome:   mathutil.Cents(full),
			RentPerSquareFoot: mathutil.Cents(mathutil.SafeDivide(rent, float64(u.SquareFootage))),
		})
	}
	mf.UnitIncome = mathutil.Cents(unitIncome)
	mf.GrossPotentialRent = mathutil.Cents(potential)

	debt := loans.Combine(b.Loans...)
	expenses := operatingExpenses(b.Expenses, unitIncome)
	expenses = append(expenses,
		lineItem{ExpenseCommonArea, mathutil.Float(v.Common.Maintenance)},
		lineItem{ExpenseElevator, mathutil.Float(v.Common.ElevatorMaintenance)},
		lineItem{ExpenseStaffPayroll, mathutil.Float(v.Common.StaffPayroll)},
		lineItem{ExpenseTrashRemoval, mathutil.Float(v.Common.TrashRemoval)},
		lineItem{ExpenseCommonUtilities, mathutil.Float(v.Common.Utilities)},
	)

	return &worksheet{
		income:      unitIncome + mathutil.Float(b.OtherIncome),
		expenses:    expenses,
		debt:        debt,
		invested:    mathutil.Float(debt.TotalDownPayment.Add(debt.TotalClosingCosts)) + upfrontCosts(b),
		outstanding: mathutil.Float(debt.TotalPrincipal),
		multiFamily: mf,
	}
}

// finish derives cash flow and returns from the worksheet and rounds every
// figure for output.
func (ws *worksheet) finish(b analysis.Base) *Metrics {
	operating := 0.0
	items := make([]LineItem, 0, len(ws.expenses))
	for _, e := range ws.expenses {
		operating += e.amount
		items = append(items, LineItem{Name: e.name, Amount: mathutil.Cents(e.amount)})
	}
	debtService := mathutil.Float(ws.debt.TotalPayment)
	total := operating + debtService
	ws.cashFlow = ws.income - total
	ws.annual = ws.cashFlow * constants.MonthsPerYear

	value := b.AfterRepairValue
	if !value.IsPositive() {
		value = b.PurchasePrice
	}

	m := &Metrics{
		AnalysisID:             b.ID,
		Name:                   b.Name,
		Type:                   b.Type,
		Address:                b.Address,
		MonthlyIncome:          mathutil.Cents(ws.income),
		Expenses:               items,
		TotalOperatingExpenses: mathutil.Cents(operating),
		Loans:                  ws.debt.Loans,
		MonthlyDebtService:     ws.debt.TotalPayment,
		TotalMonthlyExpenses:   mathutil.Cents(total),
		MonthlyCashFlow:        mathutil.Cents(ws.cashFlow),
		AnnualCashFlow:         mathutil.Cents(ws.annual),
		TotalCashInvested:      mathutil.Cents(ws.invested),
		CashOnCashReturn:       mathutil.Round(mathutil.CalculatePercentage(ws.annual, ws.invested)),
		PropertyValue:          value.Round(constants.DecimalPlaces),
		Equity:                 mathutil.Cents(mathutil.Float(value) - ws.outstanding),
		PadSplit:               ws.padSplit,
		LeaseOption:            ws.leaseOption,
		MultiFamily:            ws.multiFamily,
	}

	if s := ws.brrrr; s != nil {
		recouped := mathutil.Float(s.refinance.Principal.Sub(s.initial.Principal))
		m.BRRRR = &BRRRRMetrics{
			InitialLoanAmount:    s.initial.Principal.Round(constants.DecimalPlaces),
			InitialLoanPayment:   s.initial.MonthlyPayment(),
			RefinanceLoanAmount:  s.refinance.Principal.Round(constants.DecimalPlaces),
			RefinanceLoanPayment: s.refinance.MonthlyPayment(),
			AllInCost:            mathutil.Cents(s.allInCost),
			EquityCaptured:       mathutil.Cents(s.equityCaptured),
			CashRecouped:         mathutil.Cents(recouped),
			CashLeftInDeal:       mathutil.Cents(ws.invested - recouped),
			ROI:                  mathutil.Round(mathutil.CalculatePercentage(s.equityCaptured+ws.annual, ws.invested)),
		}
	}

	return m
}

// balloon projects the balance of the generic loans (or, for BRRRR deals
// without them, the refinance loan) at the due date and the refinance that
// retires it.
func (c *Calculator) balloon(a analysis.Analysis, ws *worksheet) *BalloonMetrics {
	b := a.Balloon
	start, err := datetime.ParseDate(a.Base.PurchaseDate)
	if err != nil {
		start = c.now()
		c.logger.Debug(fmt.Sprintf("counting balloon of %s from %s", a.Base.Name, start.Format(datetime.DateLayout)),
			zap.String("op", "strategy.balloon"),
		)
	}
	months := 0
	if due, err := datetime.ParseDate(b.DueDate); err == nil {
		months = datetime.MonthsBetween(start, due)
	} else {
		c.logger.Warn(fmt.Sprintf("balloon due date %q of %s is not a valid date", b.DueDate, a.Base.Name),
			zap.String("op", "strategy.balloon"),
			zap.Error(err),
		)
	}

	affected := a.Base.Loans
	if len(affected) == 0 && ws.brrrr != nil {
		affected = []loans.Terms{ws.brrrr.refinance}
	}

	balance := decimal.Zero
	replacedPayment := decimal.Zero
	for _, l := range affected {
		schedule, err := loans.NewSchedule(l)
		if err != nil {
			continue
		}
		balance = balance.Add(schedule.BalanceAfter(months))
		replacedPayment = replacedPayment.Add(l.MonthlyPayment())
	}

	refinance := b.RefinanceLoan
	refinancePayment := refinance.MonthlyPayment()
	postCashFlow := ws.cashFlow + mathutil.Float(replacedPayment) - mathutil.Float(refinancePayment)

	return &BalloonMetrics{
		DueDate:               b.DueDate,
		MonthsUntilDue:        months,
		BalanceAtDue:          balance,
		RefinanceLoanAmount:   refinance.Principal.Round(constants.DecimalPlaces),
		RefinancePayment:      refinancePayment,
		RefinanceClosingCosts: refinance.ClosingCosts.Round(constants.DecimalPlaces),
		CashNeeded:            balance.Sub(refinance.Principal).Add(refinance.ClosingCosts).Round(constants.DecimalPlaces),
		PostRefinanceCashFlow: mathutil.Cents(postCashFlow),
	}
}
