package calculator

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/hipotecaperu/mortgage-sim/internal/form"
	"github.com/hipotecaperu/mortgage-sim/internal/session"
	"github.com/hipotecaperu/mortgage-sim/pkg/constants"
)

func testSession() *session.Session {
	return &session.Session{
		ID:    uuid.NewString(),
		Token: "test-token",
		User:  session.User{Email: "ana@example.com"},
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < constants.RateTolerance
}

func TestRequestFromFormNormalizesUnits(t *testing.T) {
	state := form.NewState()
	state.PropertyPrice = 180000
	state.DownPaymentPercent = 20
	state.Bonus = 15000
	state.LoanAmount = 129000
	state.AnnualRate = 7.53
	state.TermYears = 20
	state.TermMonths = 240
	state.NPVDiscountRate = 4.5
	state.GracePeriodMonths = 6
	state.GracePeriodType = form.GracePartial

	req := RequestFromForm(state)

	if !approxEqual(req.InterestRate, 0.0753) {
		t.Errorf("InterestRate = %v, want 0.0753", req.InterestRate)
	}
	if !approxEqual(req.NPVDiscountRate, 0.045) {
		t.Errorf("NPVDiscountRate = %v, want 0.045", req.NPVDiscountRate)
	}
	if !approxEqual(req.DownPayment, 36000) {
		t.Errorf("DownPayment = %v, want 36000", req.DownPayment)
	}
	if req.TermMonths != 240 {
		t.Errorf("TermMonths = %d, want 240", req.TermMonths)
	}
	if req.GracePeriodType != "PARTIAL" {
		t.Errorf("GracePeriodType = %q, want PARTIAL", req.GracePeriodType)
	}
	if req.Currency != constants.CurrencyPEN {
		t.Errorf("Currency = %q, want %q", req.Currency, constants.CurrencyPEN)
	}
}

func TestCalculateSendsNormalizedPayloadWithAuth(t *testing.T) {
	var captured Request
	var authHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/calculate" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		authHeader = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(Result{
			FixedInstallment:  1039.45,
			PrincipalFinanced: 129000,
			TermMonths:        240,
			Currency:          constants.CurrencyPEN,
			PaymentSchedule: []SchedulePayment{
				{Period: 1, Installment: 1039.45, Interest: 784.09, Amortization: 255.36, RemainingBalance: 128744.64},
			},
		})
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, HTTPClient: server.Client()}, nil, nil)

	state := form.NewState()
	state.PropertyPrice = 180000
	state.DownPaymentPercent = 20
	state.Bonus = 15000
	state.LoanAmount = 129000
	state.AnnualRate = 7.53
	state.TermMonths = 240

	result, err := client.Calculate(context.Background(), testSession(), RequestFromForm(state))
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}

	if authHeader != "Bearer test-token" {
		t.Errorf("Authorization = %q, want Bearer test-token", authHeader)
	}
	if !approxEqual(captured.InterestRate, 0.0753) {
		t.Errorf("sent InterestRate = %v, want 0.0753", captured.InterestRate)
	}
	if result.FixedInstallment != 1039.45 {
		t.Errorf("FixedInstallment = %v, want 1039.45", result.FixedInstallment)
	}
	if len(result.PaymentSchedule) != 1 || result.PaymentSchedule[0].Period != 1 {
		t.Errorf("unexpected schedule %+v", result.PaymentSchedule)
	}
}

func TestCalculateUnauthenticatedOmitsAuthHeader(t *testing.T) {
	var sawAuth bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization") != ""
		_ = json.NewEncoder(w).Encode(Result{})
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, HTTPClient: server.Client()}, nil, nil)
	if _, err := client.Calculate(context.Background(), nil, Request{}); err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	if sawAuth {
		t.Error("Authorization header sent for nil session")
	}
}

func TestCalculateSurfacesBackendRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"loan amount below bank minimum"}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, HTTPClient: server.Client()}, nil, nil)
	_, err := client.Calculate(context.Background(), testSession(), Request{})
	if err == nil {
		t.Fatal("Calculate() expected error for 422 response")
	}

	subErr, ok := err.(*SubmissionError)
	if !ok {
		t.Fatalf("error type = %T, want *SubmissionError", err)
	}
	if subErr.Status != http.StatusUnprocessableEntity {
		t.Errorf("Status = %d, want 422", subErr.Status)
	}
	if subErr.Message != "loan amount below bank minimum" {
		t.Errorf("Message = %q, want backend message verbatim", subErr.Message)
	}
}

func TestCalculateRejectionWithPlainBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, HTTPClient: server.Client()}, nil, nil)
	_, err := client.Calculate(context.Background(), testSession(), Request{})
	subErr, ok := err.(*SubmissionError)
	if !ok {
		t.Fatalf("error type = %T, want *SubmissionError", err)
	}
	if subErr.Message != "upstream unavailable" {
		t.Errorf("Message = %q, want raw body", subErr.Message)
	}
}

func TestHistoryPagination(t *testing.T) {
	var gotLimit, gotOffset string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/history" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotLimit = r.URL.Query().Get("limit")
		gotOffset = r.URL.Query().Get("offset")
		_ = json.NewEncoder(w).Encode([]Result{
			{ID: "sim-2", TermMonths: 240},
			{ID: "sim-1", TermMonths: 180},
		})
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, HTTPClient: server.Client()}, nil, nil)
	results, err := client.History(context.Background(), testSession(), 10, 20)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if gotLimit != "10" || gotOffset != "20" {
		t.Errorf("pagination limit=%s offset=%s, want 10/20", gotLimit, gotOffset)
	}
	if len(results) != 2 || results[0].ID != "sim-2" {
		t.Errorf("unexpected results %+v", results)
	}
}

func TestGetUpdateDelete(t *testing.T) {
	var methods []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sim-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		methods = append(methods, r.Method)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_ = json.NewEncoder(w).Encode(Result{ID: "sim-1"})
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, HTTPClient: server.Client()}, nil, nil)
	sess := testSession()
	ctx := context.Background()

	if _, err := client.Get(ctx, sess, "sim-1"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if _, err := client.Update(ctx, sess, "sim-1", Request{TermMonths: 240}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := client.Delete(ctx, sess, "sim-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	want := []string{http.MethodGet, http.MethodPut, http.MethodDelete}
	if len(methods) != len(want) {
		t.Fatalf("methods = %v, want %v", methods, want)
	}
	for i := range want {
		if methods[i] != want[i] {
			t.Errorf("methods[%d] = %s, want %s", i, methods[i], want[i])
		}
	}
}
