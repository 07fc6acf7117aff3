// Package calculator is the client for the external mortgage calculation
// service. The service owns the French-amortization math; its summary and
// schedule are authoritative and never recomputed here. This client only
// shapes requests (decimal rates, term in months) and surfaces responses.
package calculator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hipotecaperu/mortgage-sim/internal/form"
	"github.com/hipotecaperu/mortgage-sim/internal/metrics"
	"github.com/hipotecaperu/mortgage-sim/internal/session"
	"github.com/hipotecaperu/mortgage-sim/pkg/constants"
	"github.com/hipotecaperu/mortgage-sim/pkg/units"
)

// SubmissionError carries the calculation service's rejection verbatim for
// display; the form stays editable.
type SubmissionError struct {
	Status  int
	Message string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("calculation service rejected the request (%d): %s", e.Status, e.Message)
}

// Request is the normalized calculation payload: every rate a decimal
// fraction, the term in months, the currency an ISO-like code.
type Request struct {
	PropertyPrice     float64 `json:"property_price"`
	DownPayment       float64 `json:"down_payment"`
	LoanAmount        float64 `json:"loan_amount"`
	BonoTechoPropio   float64 `json:"bono_techo_propio"`
	InterestRate      float64 `json:"interest_rate"`
	RateType          string  `json:"rate_type"`
	TermMonths        int     `json:"term_months"`
	GracePeriodMonths int     `json:"grace_period_months"`
	GracePeriodType   string  `json:"grace_period_type"`
	Currency          string  `json:"currency"`
	NPVDiscountRate   float64 `json:"npv_discount_rate"`
}

// RequestFromForm converts a form's display values into the normalized
// payload. Display percents are divided by 100 exactly once, here; the
// unknown-unit heuristic is never involved at submission time.
func RequestFromForm(s form.State) Request {
	return Request{
		PropertyPrice:     s.PropertyPrice,
		DownPayment:       s.DownPayment(),
		LoanAmount:        s.LoanAmount,
		BonoTechoPropio:   s.Bonus,
		InterestRate:      units.ToStorageDecimal(s.AnnualRate, true),
		RateType:          string(s.RateType),
		TermMonths:        s.TermMonths,
		GracePeriodMonths: s.GracePeriodMonths,
		GracePeriodType:   string(s.GracePeriodType),
		Currency:          s.Currency,
		NPVDiscountRate:   units.ToStorageDecimal(s.NPVDiscountRate, true),
	}
}

// SchedulePayment is one row of the amortization schedule.
type SchedulePayment struct {
	Period           int     `json:"period"`
	Installment      float64 `json:"installment"`
	Interest         float64 `json:"interest"`
	Amortization     float64 `json:"amortization"`
	RemainingBalance float64 `json:"remaining_balance"`
	IsGracePeriod    bool    `json:"is_grace_period"`
}

// Result is the service's summary plus the payment schedule. Rates come back
// as decimals.
type Result struct {
	ID                string            `json:"id,omitempty"`
	FixedInstallment  float64           `json:"fixed_installment"`
	PrincipalFinanced float64           `json:"principal_financed"`
	TotalInterestPaid float64           `json:"total_interest_paid"`
	TotalPaid         float64           `json:"total_paid"`
	TCEA              float64           `json:"tcea"`
	PeriodicRate      float64           `json:"periodic_rate"`
	IRR               float64           `json:"irr"`
	NPV               float64           `json:"npv"`
	TermMonths        int               `json:"term_months"`
	Currency          string            `json:"currency"`
	PaymentSchedule   []SchedulePayment `json:"payment_schedule"`
}

// ClientConfig holds construction parameters for the calculation client.
type ClientConfig struct {
	// BaseURL of the calculation service, without trailing slash.
	BaseURL string

	// HTTPClient to use; defaults to one with a 30s timeout.
	HTTPClient *http.Client
}

// Client talks to the calculation service with the injected session's
// credentials.
type Client struct {
	baseURL   string
	http      *http.Client
	collector metrics.Collector
	logger    *zap.Logger
}

// NewClient constructs a calculation-service client.
func NewClient(cfg ClientConfig, collector metrics.Collector, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.DefaultCalculatorURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		http:      cfg.HTTPClient,
		collector: collector,
		logger:    logger,
	}
}

// Calculate submits a normalized payload and returns the authoritative result.
func (c *Client) Calculate(ctx context.Context, sess *session.Session, req Request) (*Result, error) {
	var result Result
	err := c.do(ctx, sess, http.MethodPost, "/calculate", req, &result)
	c.collector.RecordCalculation(err)
	if err != nil {
		return nil, err
	}
	c.logger.Info("calculation completed",
		zap.String("op", "calculator.Calculate"),
		zap.String("currency", result.Currency),
		zap.Int("termMonths", result.TermMonths),
		zap.Float64("fixedInstallment", result.FixedInstallment),
	)
	return &result, nil
}

// History lists the user's stored simulations, newest first.
func (c *Client) History(ctx context.Context, sess *session.Session, limit, offset int) ([]Result, error) {
	query := url.Values{
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}
	var results []Result
	if err := c.do(ctx, sess, http.MethodGet, "/history?"+query.Encode(), nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// Get retrieves one stored simulation by id.
func (c *Client) Get(ctx context.Context, sess *session.Session, id string) (*Result, error) {
	var result Result
	if err := c.do(ctx, sess, http.MethodGet, "/"+url.PathEscape(id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Update replaces a stored simulation's inputs and returns the recalculated
// result.
func (c *Client) Update(ctx context.Context, sess *session.Session, id string, req Request) (*Result, error) {
	var result Result
	if err := c.do(ctx, sess, http.MethodPut, "/"+url.PathEscape(id), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Delete removes a stored simulation.
func (c *Client) Delete(ctx context.Context, sess *session.Session, id string) error {
	return c.do(ctx, sess, http.MethodDelete, "/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, sess *session.Session, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess.Authenticated() {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("requesting calculation service: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &SubmissionError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// readErrorMessage extracts the service's message field, falling back to the
// raw body so rejections always surface verbatim.
func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return "no error detail"
	}
	var payload struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		for _, msg := range []string{payload.Message, payload.Detail, payload.Error} {
			if msg != "" {
				return msg
			}
		}
	}
	return strings.TrimSpace(string(raw))
}
