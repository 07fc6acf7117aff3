package form

import (
	"go.uber.org/zap"

	"github.com/hipotecaperu/mortgage-sim/internal/rates"
	"github.com/hipotecaperu/mortgage-sim/pkg/constants"
	"github.com/hipotecaperu/mortgage-sim/pkg/units"
)

// Engine recomputes dependent form fields when their sources change. It is a
// pure state-transition function over State: same inputs, same outputs, no
// UI coupling. Each rule is idempotent, so replaying an edit with unchanged
// inputs never drifts the form.
type Engine struct {
	resolver *rates.Resolver
	logger   *zap.Logger
}

// NewEngine constructs a derived-field engine over the given resolver.
func NewEngine(resolver *rates.Resolver, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{resolver: resolver, logger: logger}
}

// ApplyEdit recomputes dependents of the changed field and returns the
// updated state. Rules run in fixed order:
//
//  1. propertyPrice / downPaymentPercent / bonus  → loanAmount (clamped to 0,
//     overwriting any manual entry; the field is read-only while a
//     percent-based down payment is in use)
//  2. termYears → termMonths (one-directional: editing termMonths directly
//     never changes termYears)
//  3. bank selection → rate, rate type, insurance, fees, day count, and
//     frequency from the resolved effective configuration, rates converted
//     to display percents
//  4. insurance-plan toggle → displayed desgravamen rate re-derived from the
//     selected bank's individual or joint rate
//
// Resolution failures leave the state unchanged and surface the error; the
// form itself never crashes on a bad bank id.
func (e *Engine) ApplyEdit(s State, changed Field, snap *rates.Snapshot) (State, error) {
	switch changed {
	case FieldPropertyPrice, FieldDownPaymentPercent, FieldBonus:
		s.LoanAmount = loanAmountFrom(s)

	case FieldTermYears:
		s.TermMonths = s.TermYears * constants.MonthsPerYear

	case FieldTermMonths:
		// Accepted as-is; the years field is not back-derived.

	case FieldLoanAmount:
		// Read-only while a percent-based down payment drives the
		// derivation; the manual value is overwritten immediately.
		if s.DownPaymentPercent > 0 {
			s.LoanAmount = loanAmountFrom(s)
		}

	case FieldBank:
		return e.applyBank(s, snap)

	case FieldInsurancePlan:
		if s.BankID != "" {
			return e.applyBank(s, snap)
		}
	}

	return s, nil
}

// applyBank overwrites the bank-derived fields from the resolved effective
// configuration. The displayed desgravamen rate is always re-derived from the
// bank's own individual or joint rate, never accumulated over a previous
// bank's value.
func (e *Engine) applyBank(s State, snap *rates.Snapshot) (State, error) {
	effective, err := e.resolver.Resolve(s.BankID, snap)
	if err != nil {
		return s, err
	}

	s.AnnualRate = units.ToDisplayPercent(effective.AnnualRate)
	s.RateType = effective.RateType

	life := effective.LifeInsuranceMonthly
	if s.InsurancePlan == InsuranceJoint {
		life = effective.JointLifeInsuranceMonthly
	}
	s.LifeInsuranceMonthly = units.ToDisplayPercent(life)
	s.PropertyInsuranceAnnual = units.ToDisplayPercent(effective.PropertyInsuranceAnnual)

	s.DisbursementFee = effective.DisbursementFee
	s.AppraisalFee = effective.AppraisalFee
	s.AdminFeeMonthly = effective.AdminFeeMonthly
	s.PostageMonthly = effective.PostageMonthly
	s.DaysPerYear = effective.DaysPerYear
	s.PaymentFrequencyDays = effective.PaymentFrequencyDays

	e.logger.Debug("applied bank configuration to form",
		zap.String("op", "form.ApplyEdit"),
		zap.String("bank", s.BankID),
		zap.String("rateSource", string(effective.RateSource)),
		zap.Float64("annualRatePercent", s.AnnualRate),
	)
	return s, nil
}
