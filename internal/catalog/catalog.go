// Package catalog holds the static per-bank mortgage configuration table:
// fallback annual rates, insurance rates, fees, and loan limits for the banks
// participating in the MiVivienda program, plus a fully editable "custom"
// entry. The table is reference data sourced from Fondo MiVivienda and SBS
// publications; it is loaded once and never mutated at runtime.
package catalog

import (
	"fmt"
)

// RateType distinguishes how a bank quotes its annual rate.
type RateType string

const (
	// RateTypeNominal is a nominal annual rate
	RateTypeNominal RateType = "NOMINAL"

	// RateTypeEffective is an effective annual rate
	RateTypeEffective RateType = "EFFECTIVE"
)

// CustomBankID identifies the user-editable entry, which never participates
// in best-rate comparisons.
const CustomBankID = "custom"

// BankStaticConfig is the immutable fallback configuration for one bank.
// All rate fields are decimal fractions, never percents.
type BankStaticConfig struct {
	ID       string
	Name     string
	FullName string

	AnnualRate float64
	RateType   RateType

	// Monthly desgravamen (declining-balance life) insurance rates.
	LifeInsuranceMonthly      float64
	JointLifeInsuranceMonthly float64

	// Annual property insurance rate.
	PropertyInsuranceAnnual float64

	// Fixed fees.
	DisbursementFee float64
	AppraisalFee    float64

	// Recurring monthly charges.
	AdminFeeMonthly float64
	PostageMonthly  float64

	// Loan mechanics.
	DaysPerYear          int
	PaymentFrequencyDays int

	// Limits.
	MinDownPaymentRatio float64
	MinTermYears        int
	MaxTermYears        int
	MinLoanAmount       float64
	MaxLoanAmount       float64

	// BonusEligible marks banks participating in the government
	// housing-bonus (MiVivienda / Techo Propio) program.
	BonusEligible bool
}

// UnknownBankError reports a lookup for a bank id absent from the catalog.
// This is a programming or data error, not a user condition.
type UnknownBankError struct {
	ID string
}

func (e *UnknownBankError) Error() string {
	return fmt.Sprintf("unknown bank id %q", e.ID)
}

// Catalog is an insertion-ordered, read-only bank table.
type Catalog struct {
	banks []BankStaticConfig
	byID  map[string]int
}

// New builds a catalog from the given entries, preserving order.
func New(banks []BankStaticConfig) *Catalog {
	c := &Catalog{
		banks: banks,
		byID:  make(map[string]int, len(banks)),
	}
	for i, b := range banks {
		c.byID[b.ID] = i
	}
	return c
}

// Default returns the built-in Peruvian bank catalog.
func Default() *Catalog {
	return New(defaultBanks)
}

// GetByID returns the configuration for the given bank id.
func (c *Catalog) GetByID(id string) (BankStaticConfig, error) {
	i, ok := c.byID[id]
	if !ok {
		return BankStaticConfig{}, &UnknownBankError{ID: id}
	}
	return c.banks[i], nil
}

// All returns every bank in catalog order.
func (c *Catalog) All() []BankStaticConfig {
	out := make([]BankStaticConfig, len(c.banks))
	copy(out, c.banks)
	return out
}

// BonusEligible returns the banks participating in the housing-bonus program,
// in catalog order.
func (c *Catalog) BonusEligible() []BankStaticConfig {
	var out []BankStaticConfig
	for _, b := range c.banks {
		if b.BonusEligible {
			out = append(out, b)
		}
	}
	return out
}

// BestRate returns the bank with the lowest static annual rate, excluding the
// custom entry. Ties resolve to the earlier catalog entry.
func (c *Catalog) BestRate() (BankStaticConfig, error) {
	var best *BankStaticConfig
	for i := range c.banks {
		b := &c.banks[i]
		if b.ID == CustomBankID {
			continue
		}
		if best == nil || b.AnnualRate < best.AnnualRate {
			best = b
		}
	}
	if best == nil {
		return BankStaticConfig{}, fmt.Errorf("catalog has no comparable banks")
	}
	return *best, nil
}

// FeedBankID maps a bank display name as reported by the regulator rate feed
// to its catalog id. Unmapped names return ok == false and are simply ignored
// by callers; the feed covers more institutions than the catalog carries.
func (c *Catalog) FeedBankID(feedName string) (string, bool) {
	id, ok := feedNameToID[feedName]
	return id, ok
}

// feedNameToID is the single owned mapping between feed display names and
// catalog ids. Names mapping to ids outside the catalog are harmless; they
// can never override a catalog entry.
var feedNameToID = map[string]string{
	"BBVA":       "bbva",
	"Crédito":    "bcp",
	"Interbank":  "interbank",
	"Scotiabank": "scotiabank",
	"GNB":        "gnb",
	"Pichincha":  "pichincha",
	"Bancom":     "bancom",
	"BIF":        "bif",
	"Citibank":   "citibank",
	"Mibanco":    "mibanco",
}
