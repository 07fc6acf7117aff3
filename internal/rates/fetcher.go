package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/hipotecaperu/mortgage-sim/internal/metrics"
	"github.com/hipotecaperu/mortgage-sim/pkg/constants"
)

// FetchError reports a failed live-rate fetch: transport failure, a
// malformed response, a missing currency section, or a missing mortgage row.
// It is recoverable; callers fall back to static rates.
type FetchError struct {
	Currency string
	Date     civil.Date
	Reason   string
	Err      error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("rate fetch for %s/%s failed: %s", e.Currency, e.Date, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ReasonUnsupportedCurrency marks a fetch rejected before any network call
// because the currency code is not one the feed publishes.
const ReasonUnsupportedCurrency = "unsupported currency"

// Fetcher retrieves a rate snapshot for a currency and date.
type Fetcher interface {
	Fetch(ctx context.Context, currency string, date *civil.Date) (*Snapshot, error)
}

// ClientConfig holds construction parameters for the feed client.
type ClientConfig struct {
	// BaseURL of the regulator feed, without trailing slash.
	BaseURL string

	// HTTPClient to use; defaults to one with a 10s timeout.
	HTTPClient *http.Client

	// Now supplies the current time, injectable for tests. The feed is
	// never available for the current day, so an omitted date resolves to
	// yesterday relative to Now.
	Now func() time.Time
}

// Client fetches mortgage-rate snapshots from the SBS feed over HTTP. Repeated
// failures trip a circuit breaker so a dead feed degrades to static rates
// immediately instead of stalling every form hydration.
type Client struct {
	baseURL   string
	http      *http.Client
	now       func() time.Time
	breaker   *gobreaker.CircuitBreaker
	collector metrics.Collector
	logger    *zap.Logger
}

var _ Fetcher = &Client{}

// NewClient constructs a feed client.
func NewClient(cfg ClientConfig, collector metrics.Collector, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.DefaultRateFeedURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	c := &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		http:      cfg.HTTPClient,
		now:       cfg.Now,
		collector: collector,
		logger:    logger,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "rate-feed",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("rate feed circuit breaker state changed",
				zap.String("op", "rates.Fetch"),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return c
}

// Fetch retrieves the snapshot for the given currency ("mn" or "usd") and
// date. A nil date defaults to yesterday. The call has no side effects beyond
// the network request; the caller owns caching.
func (c *Client) Fetch(ctx context.Context, currency string, date *civil.Date) (*Snapshot, error) {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency != constants.FeedCurrencyMN && currency != constants.FeedCurrencyUSD {
		return nil, &FetchError{Currency: currency, Reason: ReasonUnsupportedCurrency}
	}

	var day civil.Date
	if date != nil {
		day = *date
	} else {
		day = civil.DateOf(c.now().AddDate(0, 0, -1))
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doFetch(ctx, currency, day)
	})
	c.collector.RecordFeedFetch(currency, err)
	if err != nil {
		var fetchErr *FetchError
		if fe, ok := err.(*FetchError); ok {
			fetchErr = fe
		} else {
			// Breaker-originated errors (open circuit, too many requests).
			fetchErr = &FetchError{Currency: currency, Date: day, Reason: "feed unavailable", Err: err}
		}
		c.logger.Warn("live rate fetch failed",
			zap.String("op", "rates.Fetch"),
			zap.String("currency", currency),
			zap.String("date", day.String()),
			zap.Error(fetchErr),
		)
		return nil, fetchErr
	}

	snap := result.(*Snapshot)
	c.logger.Debug("fetched live rate snapshot",
		zap.String("op", "rates.Fetch"),
		zap.String("currency", snap.Currency),
		zap.String("date", snap.Date.String()),
		zap.Int("banks", len(snap.Rates)),
	)
	return snap, nil
}

// Feed wire format: {date, currencies: [{code, rows: [{credit_type, rates}]}], note}.
type feedResponse struct {
	Date       string         `json:"date"`
	Currencies []feedCurrency `json:"currencies"`
	Note       string         `json:"note"`
}

type feedCurrency struct {
	Code string    `json:"code"`
	Rows []feedRow `json:"rows"`
}

type feedRow struct {
	CreditType string              `json:"credit_type"`
	Rates      map[string]*float64 `json:"rates"`
}

func (c *Client) doFetch(ctx context.Context, currency string, day civil.Date) (*Snapshot, error) {
	endpoint := fmt.Sprintf("%s/rates?%s", c.baseURL, url.Values{
		"date":     {day.String()},
		"currency": {currency},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Currency: currency, Date: day, Reason: "building request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Currency: currency, Date: day, Reason: "requesting feed", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Currency: currency, Date: day,
			Reason: fmt.Sprintf("feed responded %d", resp.StatusCode)}
	}

	var body feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &FetchError{Currency: currency, Date: day, Reason: "decoding response", Err: err}
	}

	code := strings.ToUpper(currency)
	var section *feedCurrency
	for i := range body.Currencies {
		if body.Currencies[i].Code == code {
			section = &body.Currencies[i]
			break
		}
	}
	if section == nil {
		return nil, &FetchError{Currency: currency, Date: day,
			Reason: fmt.Sprintf("no section for currency %s", code)}
	}

	var row *feedRow
	for i := range section.Rows {
		if section.Rows[i].CreditType == constants.FeedMortgageCreditType {
			row = &section.Rows[i]
			break
		}
	}
	if row == nil {
		return nil, &FetchError{Currency: currency, Date: day, Reason: "no mortgage credit-type row"}
	}

	// Banks reporting a null rate have no live rate today and are omitted.
	observed := make(map[string]float64, len(row.Rates))
	for name, rate := range row.Rates {
		if rate != nil {
			observed[name] = *rate
		}
	}

	snapDate := day
	if parsed, err := civil.ParseDate(body.Date); err == nil {
		snapDate = parsed
	}

	return &Snapshot{
		Date:     snapDate,
		Currency: code,
		Rates:    observed,
		Note:     body.Note,
	}, nil
}
