// Package form models the loan-simulation form: its mutable state, the
// derived-field recomputation rules, per-field validation, and the session
// state machine coordinating live-rate hydration and submission.
package form

import (
	"github.com/hipotecaperu/mortgage-sim/internal/catalog"
	"github.com/hipotecaperu/mortgage-sim/pkg/constants"
	"github.com/hipotecaperu/mortgage-sim/pkg/units"
)

// Field identifies a form field for edit routing and validation reporting.
type Field string

const (
	FieldPropertyPrice      Field = "propertyPrice"
	FieldDownPaymentPercent Field = "downPaymentPercent"
	FieldBonus              Field = "bonus"
	FieldTermYears          Field = "termYears"
	FieldTermMonths         Field = "termMonths"
	FieldBank               Field = "bank"
	FieldInsurancePlan      Field = "insurancePlan"
	FieldAnnualRate         Field = "annualRate"
	FieldGracePeriodMonths  Field = "gracePeriodMonths"
	FieldNPVDiscountRate    Field = "npvDiscountRate"
	FieldLoanAmount         Field = "loanAmount"
)

// GracePeriodType describes the initial reduced-payment phase of the loan.
type GracePeriodType string

const (
	GraceNone    GracePeriodType = "NONE"
	GraceTotal   GracePeriodType = "TOTAL"
	GracePartial GracePeriodType = "PARTIAL"
)

// InsurancePlan selects the desgravamen insurance coverage.
type InsurancePlan string

const (
	// InsuranceIndividual covers the borrower only
	InsuranceIndividual InsurancePlan = "individual"

	// InsuranceJoint covers both spouses
	InsuranceJoint InsurancePlan = "joint"
)

// State is the full set of user-entered and derived loan parameters. Rate
// fields hold display percents (7.53 means 7.53%); conversion to decimals
// happens only when building the calculation payload. State is owned by one
// form session and discarded on navigation away.
type State struct {
	// Primary user-entered fields.
	PropertyPrice      float64
	DownPaymentPercent float64
	Bonus              float64
	TermYears          int
	GracePeriodMonths  int
	GracePeriodType    GracePeriodType
	Currency           string
	NPVDiscountRate    float64

	// Bank-derived fields, overwritten on bank selection.
	BankID                  string
	AnnualRate              float64
	RateType                catalog.RateType
	LifeInsuranceMonthly    float64
	PropertyInsuranceAnnual float64
	DisbursementFee         float64
	AppraisalFee            float64
	AdminFeeMonthly         float64
	PostageMonthly          float64
	DaysPerYear             int
	PaymentFrequencyDays    int
	InsurancePlan           InsurancePlan

	// Derived fields, never edited directly once their sources are in use.
	LoanAmount float64
	TermMonths int
}

// NewState returns the defaults for a freshly mounted form.
func NewState() State {
	return State{
		GracePeriodType: GraceNone,
		Currency:        constants.CurrencyPEN,
		RateType:        catalog.RateTypeNominal,
		InsurancePlan:   InsuranceIndividual,
	}
}

// DownPayment returns the absolute down-payment amount derived from the
// percent field.
func (s State) DownPayment() float64 {
	return s.PropertyPrice * s.DownPaymentPercent / constants.PercentageMultiplier
}

// PersistedRecord is a previously saved simulation loaded back into a form.
// Its rate fields come from storage that predates unit tagging, so their
// representation (percent vs. decimal) is unknown.
type PersistedRecord struct {
	PropertyPrice      float64
	DownPaymentPercent float64
	Bonus              float64
	InterestRate       float64
	RateType           string
	TermMonths         int
	GracePeriodMonths  int
	GracePeriodType    string
	Currency           string
	NPVDiscountRate    float64
}

// FromPersisted hydrates a form from a stored record, applying the
// unknown-unit heuristic to its rate fields. This is the only place the
// heuristic is allowed; submission paths always know their units.
func FromPersisted(rec PersistedRecord) State {
	s := NewState()
	s.PropertyPrice = rec.PropertyPrice
	s.DownPaymentPercent = rec.DownPaymentPercent
	s.Bonus = rec.Bonus
	s.AnnualRate = units.ToDisplayPercent(units.FromUnknown(rec.InterestRate))
	if rec.RateType != "" {
		s.RateType = catalog.RateType(rec.RateType)
	}
	s.TermMonths = rec.TermMonths
	s.TermYears = rec.TermMonths / constants.MonthsPerYear
	s.GracePeriodMonths = rec.GracePeriodMonths
	if rec.GracePeriodType != "" {
		s.GracePeriodType = GracePeriodType(rec.GracePeriodType)
	}
	if rec.Currency != "" {
		s.Currency = rec.Currency
	}
	s.NPVDiscountRate = units.ToDisplayPercent(units.FromUnknown(rec.NPVDiscountRate))
	s.LoanAmount = loanAmountFrom(s)
	return s
}

// loanAmountFrom computes the loan-amount invariant:
// max(0, price - price*downPct/100 - bonus).
func loanAmountFrom(s State) float64 {
	amount := s.PropertyPrice - s.DownPayment() - s.Bonus
	if amount < 0 {
		return 0
	}
	return amount
}
