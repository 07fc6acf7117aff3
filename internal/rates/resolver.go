package rates

import (
	"fmt"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/hipotecaperu/mortgage-sim/internal/catalog"
	"github.com/hipotecaperu/mortgage-sim/internal/metrics"
	"github.com/hipotecaperu/mortgage-sim/pkg/units"
)

// RateSource tags where an effective annual rate came from.
type RateSource string

const (
	// RateSourceLive means the rate was observed in the feed snapshot
	RateSourceLive RateSource = "LIVE"

	// RateSourceStatic means the catalog fallback rate was used
	RateSourceStatic RateSource = "STATIC"
)

// EffectiveBankConfig is a bank's static configuration with the annual rate
// possibly overridden by a live snapshot. Derived on every resolution call,
// never persisted.
type EffectiveBankConfig struct {
	catalog.BankStaticConfig

	RateSource RateSource

	// RateDate is the snapshot's effective date when RateSource is LIVE.
	RateDate *civil.Date
}

// Resolver merges live snapshots into the static catalog.
type Resolver struct {
	catalog   *catalog.Catalog
	collector metrics.Collector
	logger    *zap.Logger
}

// NewResolver constructs a resolver over the given catalog.
func NewResolver(cat *catalog.Catalog, collector metrics.Collector, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}
	return &Resolver{catalog: cat, collector: collector, logger: logger}
}

// Resolve returns the effective configuration for a bank. When the snapshot
// carries a rate for a feed name mapping to bankID, that rate wins and is
// normalized from the feed's percent form to a decimal; otherwise the static
// catalog rate applies. A nil snapshot always resolves to static. Feed names
// with no catalog mapping are ignored.
func (r *Resolver) Resolve(bankID string, snap *Snapshot) (EffectiveBankConfig, error) {
	static, err := r.catalog.GetByID(bankID)
	if err != nil {
		return EffectiveBankConfig{}, err
	}

	effective := EffectiveBankConfig{
		BankStaticConfig: static,
		RateSource:       RateSourceStatic,
	}

	if snap != nil {
		for feedName, percent := range snap.Rates {
			id, ok := r.catalog.FeedBankID(feedName)
			if !ok || id != bankID {
				continue
			}
			effective.AnnualRate = units.ToStorageDecimal(percent, true)
			effective.RateSource = RateSourceLive
			date := snap.Date
			effective.RateDate = &date
			break
		}
	}

	r.collector.RecordResolution(string(effective.RateSource))
	r.logger.Debug("resolved bank configuration",
		zap.String("op", "rates.Resolve"),
		zap.String("bank", bankID),
		zap.String("source", string(effective.RateSource)),
		zap.Float64("annualRate", effective.AnnualRate),
	)
	return effective, nil
}

// BestRate returns the bank with the lowest resolved annual rate, preferring
// live rates when the snapshot covers a bank. The custom entry is excluded
// and ties resolve to the earlier catalog entry.
func (r *Resolver) BestRate(snap *Snapshot) (EffectiveBankConfig, error) {
	var best *EffectiveBankConfig
	for _, b := range r.catalog.All() {
		if b.ID == catalog.CustomBankID {
			continue
		}
		resolved, err := r.Resolve(b.ID, snap)
		if err != nil {
			return EffectiveBankConfig{}, fmt.Errorf("resolving %s: %w", b.ID, err)
		}
		if best == nil || resolved.AnnualRate < best.AnnualRate {
			candidate := resolved
			best = &candidate
		}
	}
	if best == nil {
		return EffectiveBankConfig{}, fmt.Errorf("catalog has no comparable banks")
	}
	return *best, nil
}
