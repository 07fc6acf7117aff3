package form

import (
	"math"
	"testing"

	"cloud.google.com/go/civil"

	"github.com/hipotecaperu/mortgage-sim/internal/catalog"
	"github.com/hipotecaperu/mortgage-sim/internal/rates"
)

func newTestEngine() *Engine {
	return NewEngine(rates.NewResolver(catalog.Default(), nil, nil), nil)
}

func TestLoanAmountInvariant(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name     string
		price    float64
		downPct  float64
		bonus    float64
		expected float64
	}{
		{"Reference scenario", 180000, 20, 15000, 129000},
		{"No bonus", 200000, 10, 0, 180000},
		{"Zero down payment", 100000, 0, 5000, 95000},
		{"Clamped to zero", 50000, 90, 20000, 0},
		{"Full down payment", 100000, 100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState()
			s.PropertyPrice = tt.price
			s.DownPaymentPercent = tt.downPct
			s.Bonus = tt.bonus

			updated, err := engine.ApplyEdit(s, FieldPropertyPrice, nil)
			if err != nil {
				t.Fatalf("ApplyEdit() unexpected error: %v", err)
			}
			if math.Abs(updated.LoanAmount-tt.expected) > 0.01 {
				t.Errorf("LoanAmount = %v, expected %v", updated.LoanAmount, tt.expected)
			}
		})
	}
}

// A direct loan-amount edit is overwritten on the spot while the percent
// down payment drives the derivation; the field only accepts a manual value
// when no percent is in use.
func TestDirectLoanAmountEditIsRederived(t *testing.T) {
	engine := newTestEngine()

	s := NewState()
	s.PropertyPrice = 180000
	s.DownPaymentPercent = 20
	s.Bonus = 15000
	s.LoanAmount = 999999

	updated, err := engine.ApplyEdit(s, FieldLoanAmount, nil)
	if err != nil {
		t.Fatalf("ApplyEdit() unexpected error: %v", err)
	}
	if math.Abs(updated.LoanAmount-129000) > 0.01 {
		t.Errorf("LoanAmount = %v, expected rederived 129000", updated.LoanAmount)
	}

	s = NewState()
	s.PropertyPrice = 180000
	s.DownPaymentPercent = 0
	s.LoanAmount = 150000

	updated, err = engine.ApplyEdit(s, FieldLoanAmount, nil)
	if err != nil {
		t.Fatalf("ApplyEdit() unexpected error: %v", err)
	}
	if updated.LoanAmount != 150000 {
		t.Errorf("LoanAmount = %v, expected manual 150000 without percent down payment", updated.LoanAmount)
	}
}

// The loan-amount invariant must hold regardless of which input was edited
// last, so every permutation of edit order converges to the same value.
func TestLoanAmountEditOrderIndependence(t *testing.T) {
	engine := newTestEngine()

	edits := []struct {
		field Field
		apply func(*State)
	}{
		{FieldPropertyPrice, func(s *State) { s.PropertyPrice = 180000 }},
		{FieldDownPaymentPercent, func(s *State) { s.DownPaymentPercent = 20 }},
		{FieldBonus, func(s *State) { s.Bonus = 15000 }},
	}

	orders := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}

	for _, order := range orders {
		s := NewState()
		s.LoanAmount = 999999 // manual entry, must be overwritten
		for _, i := range order {
			edits[i].apply(&s)
			var err error
			s, err = engine.ApplyEdit(s, edits[i].field, nil)
			if err != nil {
				t.Fatalf("ApplyEdit() unexpected error: %v", err)
			}
		}
		if math.Abs(s.LoanAmount-129000) > 0.01 {
			t.Errorf("edit order %v: LoanAmount = %v, expected 129000", order, s.LoanAmount)
		}
	}
}

func TestTermDerivation(t *testing.T) {
	engine := newTestEngine()

	s := NewState()
	s.TermYears = 20
	s, err := engine.ApplyEdit(s, FieldTermYears, nil)
	if err != nil {
		t.Fatalf("ApplyEdit() unexpected error: %v", err)
	}
	if s.TermMonths != 240 {
		t.Errorf("TermMonths = %d, expected 240", s.TermMonths)
	}

	// Editing termMonths directly never back-derives termYears.
	s.TermMonths = 250
	s, err = engine.ApplyEdit(s, FieldTermMonths, nil)
	if err != nil {
		t.Fatalf("ApplyEdit() unexpected error: %v", err)
	}
	if s.TermYears != 20 {
		t.Errorf("TermYears = %d, expected 20 (derivation is one-directional)", s.TermYears)
	}
	if s.TermMonths != 250 {
		t.Errorf("TermMonths = %d, expected the directly entered 250", s.TermMonths)
	}
}

func TestBankSelectionOverwritesRateFields(t *testing.T) {
	engine := newTestEngine()

	s := NewState()
	s.BankID = "bbva"
	s, err := engine.ApplyEdit(s, FieldBank, nil)
	if err != nil {
		t.Fatalf("ApplyEdit() unexpected error: %v", err)
	}

	if math.Abs(s.AnnualRate-7.53) > 1e-9 {
		t.Errorf("AnnualRate = %v%%, expected 7.53", s.AnnualRate)
	}
	if s.RateType != catalog.RateTypeEffective {
		t.Errorf("RateType = %q, expected EFFECTIVE", s.RateType)
	}
	if math.Abs(s.LifeInsuranceMonthly-0.028) > 1e-9 {
		t.Errorf("LifeInsuranceMonthly = %v%%, expected 0.028", s.LifeInsuranceMonthly)
	}
	if math.Abs(s.PropertyInsuranceAnnual-0.15) > 1e-9 {
		t.Errorf("PropertyInsuranceAnnual = %v%%, expected 0.15", s.PropertyInsuranceAnnual)
	}
	if s.DisbursementFee != 500 || s.AppraisalFee != 265 {
		t.Errorf("fees = (%v, %v), expected (500, 265)", s.DisbursementFee, s.AppraisalFee)
	}
	if s.DaysPerYear != 360 || s.PaymentFrequencyDays != 30 {
		t.Errorf("day count = (%d, %d), expected (360, 30)", s.DaysPerYear, s.PaymentFrequencyDays)
	}
}

func TestBankSelectionUsesLiveRate(t *testing.T) {
	engine := newTestEngine()

	snap := &rates.Snapshot{
		Date:     civil.Date{Year: 2025, Month: 3, Day: 10},
		Currency: "MN",
		Rates:    map[string]float64{"BBVA": 7.2},
	}

	s := NewState()
	s.BankID = "bbva"
	s, err := engine.ApplyEdit(s, FieldBank, snap)
	if err != nil {
		t.Fatalf("ApplyEdit() unexpected error: %v", err)
	}
	if math.Abs(s.AnnualRate-7.2) > 1e-9 {
		t.Errorf("AnnualRate = %v%%, expected the live 7.2", s.AnnualRate)
	}
}

// Switching from bank A (individual insurance 0.00028) to bank B (0.00030)
// must land on exactly 0.030%, not accumulate over A's displayed value.
func TestBankSwitchDoesNotStackInsurance(t *testing.T) {
	engine := newTestEngine()

	s := NewState()
	s.BankID = "bbva"
	s, err := engine.ApplyEdit(s, FieldBank, nil)
	if err != nil {
		t.Fatalf("ApplyEdit() unexpected error: %v", err)
	}
	if math.Abs(s.LifeInsuranceMonthly-0.028) > 1e-9 {
		t.Fatalf("after bank A: LifeInsuranceMonthly = %v%%, expected 0.028", s.LifeInsuranceMonthly)
	}

	s.BankID = "bcp"
	s, err = engine.ApplyEdit(s, FieldBank, nil)
	if err != nil {
		t.Fatalf("ApplyEdit() unexpected error: %v", err)
	}
	if math.Abs(s.LifeInsuranceMonthly-0.030) > 1e-9 {
		t.Errorf("after bank B: LifeInsuranceMonthly = %v%%, expected 0.030", s.LifeInsuranceMonthly)
	}
}

func TestInsurancePlanToggle(t *testing.T) {
	engine := newTestEngine()

	s := NewState()
	s.BankID = "bbva"
	s, err := engine.ApplyEdit(s, FieldBank, nil)
	if err != nil {
		t.Fatalf("ApplyEdit() unexpected error: %v", err)
	}

	s.InsurancePlan = InsuranceJoint
	s, err = engine.ApplyEdit(s, FieldInsurancePlan, nil)
	if err != nil {
		t.Fatalf("ApplyEdit() unexpected error: %v", err)
	}
	if math.Abs(s.LifeInsuranceMonthly-0.052) > 1e-9 {
		t.Errorf("joint plan: LifeInsuranceMonthly = %v%%, expected 0.052", s.LifeInsuranceMonthly)
	}

	s.InsurancePlan = InsuranceIndividual
	s, err = engine.ApplyEdit(s, FieldInsurancePlan, nil)
	if err != nil {
		t.Fatalf("ApplyEdit() unexpected error: %v", err)
	}
	if math.Abs(s.LifeInsuranceMonthly-0.028) > 1e-9 {
		t.Errorf("individual plan: LifeInsuranceMonthly = %v%%, expected 0.028", s.LifeInsuranceMonthly)
	}
}

func TestInsuranceToggleWithoutBankIsNoOp(t *testing.T) {
	engine := newTestEngine()

	s := NewState()
	s.InsurancePlan = InsuranceJoint
	updated, err := engine.ApplyEdit(s, FieldInsurancePlan, nil)
	if err != nil {
		t.Fatalf("ApplyEdit() unexpected error: %v", err)
	}
	if updated != s {
		t.Error("insurance toggle without a selected bank must not change state")
	}
}

func TestApplyEditIdempotent(t *testing.T) {
	engine := newTestEngine()

	s := NewState()
	s.PropertyPrice = 180000
	s.DownPaymentPercent = 20
	s.Bonus = 15000
	s.TermYears = 20
	s.BankID = "interbank"

	fields := []Field{FieldPropertyPrice, FieldTermYears, FieldBank, FieldInsurancePlan}
	for _, f := range fields {
		once, err := engine.ApplyEdit(s, f, nil)
		if err != nil {
			t.Fatalf("ApplyEdit(%s) unexpected error: %v", f, err)
		}
		twice, err := engine.ApplyEdit(once, f, nil)
		if err != nil {
			t.Fatalf("ApplyEdit(%s) second application unexpected error: %v", f, err)
		}
		if once != twice {
			t.Errorf("ApplyEdit(%s) is not idempotent: %+v != %+v", f, once, twice)
		}
		s = once
	}
}

func TestUnknownBankLeavesStateIntact(t *testing.T) {
	engine := newTestEngine()

	s := NewState()
	s.PropertyPrice = 180000
	s.BankID = "norbank"

	updated, err := engine.ApplyEdit(s, FieldBank, nil)
	if err == nil {
		t.Fatal("ApplyEdit() expected an error for an unknown bank")
	}
	if updated != s {
		t.Error("a failed resolution must leave the form state unchanged")
	}
}
