package form

import (
	"fmt"

	"github.com/hipotecaperu/mortgage-sim/internal/catalog"
	"github.com/hipotecaperu/mortgage-sim/pkg/constants"
)

// ValidationError flags a primary field outside its declared range. It blocks
// submission only; dependent-field recomputation proceeds regardless.
type ValidationError struct {
	Field Field
	Value float64
	Min   float64
	Max   float64
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("field %s value %g outside range [%g, %g]", e.Field, e.Value, e.Min, e.Max)
}

// fieldRange is a declared [min, max] for a primary field.
type fieldRange struct {
	field Field
	min   float64
	max   float64
	value func(State) float64
}

// Ranges independent of the selected bank.
var baseRanges = []fieldRange{
	{FieldPropertyPrice, 1, 10_000_000, func(s State) float64 { return s.PropertyPrice }},
	{FieldDownPaymentPercent, 0, 100, func(s State) float64 { return s.DownPaymentPercent }},
	{FieldBonus, 0, 10_000_000, func(s State) float64 { return s.Bonus }},
	{FieldAnnualRate, 0, 100, func(s State) float64 { return s.AnnualRate }},
	{FieldGracePeriodMonths, 0, 60, func(s State) float64 { return float64(s.GracePeriodMonths) }},
	{FieldNPVDiscountRate, 0, 100, func(s State) float64 { return s.NPVDiscountRate }},
}

// Validate collects every out-of-range field. With a bank selected, the
// bank's loan-amount, term, and minimum-down-payment limits apply on top of
// the base ranges. An empty result means the form may be submitted.
func Validate(s State, bank *catalog.BankStaticConfig) []ValidationError {
	var errs []ValidationError

	check := func(r fieldRange) {
		v := r.value(s)
		if v < r.min || v > r.max {
			errs = append(errs, ValidationError{Field: r.field, Value: v, Min: r.min, Max: r.max})
		}
	}

	for _, r := range baseRanges {
		check(r)
	}

	termYears := fieldRange{FieldTermYears, 1, 40, func(s State) float64 { return float64(s.TermYears) }}
	if bank != nil {
		termYears.min = float64(bank.MinTermYears)
		termYears.max = float64(bank.MaxTermYears)
	}
	check(termYears)

	if bank != nil {
		check(fieldRange{FieldLoanAmount, bank.MinLoanAmount, bank.MaxLoanAmount,
			func(s State) float64 { return s.LoanAmount }})
		check(fieldRange{FieldDownPaymentPercent,
			bank.MinDownPaymentRatio * constants.PercentageMultiplier, 100,
			func(s State) float64 { return s.DownPaymentPercent }})
	}

	return errs
}
