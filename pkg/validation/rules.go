package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/property-analyzer/pkg/datetime"
	"github.com/iwvelando/property-analyzer/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// FieldError is a single violated rule.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Errors lists every rule a record violated.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return fmt.Sprintf("validation failed with %d error(s): %s", len(e), strings.Join(msgs, "; "))
}

// Has reports whether any error names the given field.
func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Collector accumulates rule violations so that a record is checked in full
// before anything is reported.
type Collector struct {
	errs Errors
}

// Addf records a violation against a field.
func (c *Collector) Addf(field, format string, args ...interface{}) {
	c.errs = append(c.errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Check records a violation when ok is false and returns ok.
func (c *Collector) Check(ok bool, field, format string, args ...interface{}) bool {
	if !ok {
		c.Addf(field, format, args...)
	}
	return ok
}

// Required checks that a string field is present and not blank.
func (c *Collector) Required(field, value string) bool {
	return c.Check(strings.TrimSpace(value) != "", field, "is required")
}

// RequiredMoney checks that an optional money field was supplied.
func (c *Collector) RequiredMoney(field string, value decimal.NullDecimal) bool {
	return c.Check(value.Valid, field, "is required")
}

// NonNegative checks that a money field is zero or more.
func (c *Collector) NonNegative(field string, value decimal.Decimal) bool {
	return c.Check(!value.IsNegative(), field, "must be greater than or equal to 0, got %s", value)
}

// NonNegativeNull checks an optional money field only when it is present.
func (c *Collector) NonNegativeNull(field string, value decimal.NullDecimal) bool {
	if !value.Valid {
		return true
	}
	return c.NonNegative(field, value.Decimal)
}

// Positive checks that a money field is strictly greater than zero.
func (c *Collector) Positive(field string, value decimal.Decimal) bool {
	return c.Check(value.IsPositive(), field, "must be greater than 0, got %s", value)
}

// Percentage checks that a percentage lies within [0, 100].
func (c *Collector) Percentage(field string, value float64) bool {
	return c.Check(mathutil.InPercentRange(value), field, "must be between 0 and 100, got %v", value)
}

// NonNegativeRate checks that a rate is a finite number of zero or more.
func (c *Collector) NonNegativeRate(field string, value float64) bool {
	ok := value >= 0 && !math.IsNaN(value) && !math.IsInf(value, 0)
	return c.Check(ok, field, "must be greater than or equal to 0, got %v", value)
}

// Date checks that an optional date field, when set, uses YYYY-MM-DD.
func (c *Collector) Date(field, value string) bool {
	if value == "" {
		return true
	}
	return c.Check(datetime.IsValidDate(value), field, "must be a date in YYYY-MM-DD format, got %q", value)
}

// Errors returns the violations collected so far.
func (c *Collector) Errors() Errors {
	return c.errs
}

// Err returns nil when no rule was violated, otherwise the full Errors list.
func (c *Collector) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}
