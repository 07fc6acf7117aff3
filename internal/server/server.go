// Package server exposes the bank catalog, the live rate feed, the resolved
// effective configurations, and the calculation/history flows over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hipotecaperu/mortgage-sim/internal/calculator"
	"github.com/hipotecaperu/mortgage-sim/internal/catalog"
	"github.com/hipotecaperu/mortgage-sim/internal/form"
	"github.com/hipotecaperu/mortgage-sim/internal/rates"
	"github.com/hipotecaperu/mortgage-sim/internal/session"
	"github.com/hipotecaperu/mortgage-sim/pkg/constants"
)

// Server routes catalog, rate, and calculation requests to the underlying
// components.
type Server struct {
	catalog  *catalog.Catalog
	fetcher  rates.Fetcher
	resolver *rates.Resolver
	engine   *form.Engine
	calc     *calculator.Client
	sessions *session.Manager
	metrics  http.Handler
	logger   *zap.Logger
	router   *mux.Router
	http     *http.Server
}

// Config holds the HTTP listener parameters.
type Config struct {
	Address string
}

// Deps are the components a server serves. Calculator, Sessions, and Metrics
// are optional; their routes are not registered when nil.
type Deps struct {
	Catalog    *catalog.Catalog
	Fetcher    rates.Fetcher
	Resolver   *rates.Resolver
	Engine     *form.Engine
	Calculator *calculator.Client
	Sessions   *session.Manager
	Metrics    http.Handler
}

// New constructs a server over the given dependencies.
func New(cfg Config, deps Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Address == "" {
		cfg.Address = constants.DefaultServerAddress
	}

	s := &Server{
		catalog:  deps.Catalog,
		fetcher:  deps.Fetcher,
		resolver: deps.Resolver,
		engine:   deps.Engine,
		calc:     deps.Calculator,
		sessions: deps.Sessions,
		metrics:  deps.Metrics,
		logger:   logger,
	}
	s.router = s.routes()
	s.http = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Handler returns the router for serving or testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks serving HTTP until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server listening",
		zap.String("op", "server.ListenAndServe"),
		zap.String("address", s.http.Addr),
	)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/banks", s.handleBanks).Methods(http.MethodGet)
	api.HandleFunc("/banks/best", s.handleBestBank).Methods(http.MethodGet)
	api.HandleFunc("/banks/{id}", s.handleBank).Methods(http.MethodGet)
	api.HandleFunc("/banks/{id}/effective", s.handleEffectiveBank).Methods(http.MethodGet)
	api.HandleFunc("/rates", s.handleRates).Methods(http.MethodGet)

	if s.calc != nil {
		api.HandleFunc("/calculate", s.handleCalculate).Methods(http.MethodPost)
		api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
		api.HandleFunc("/history/{id}", s.handleHistoryGet).Methods(http.MethodGet)
		api.HandleFunc("/history/{id}", s.handleHistoryUpdate).Methods(http.MethodPut)
		api.HandleFunc("/history/{id}", s.handleHistoryDelete).Methods(http.MethodDelete)
	}
	if s.sessions != nil {
		api.HandleFunc("/session", s.handleLogin).Methods(http.MethodPost)
		api.HandleFunc("/session", s.handleCurrentSession).Methods(http.MethodGet)
		api.HandleFunc("/session", s.handleLogout).Methods(http.MethodDelete)
	}
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBanks(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.catalog.All())
}

func (s *Server) handleBank(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	bank, err := s.catalog.GetByID(id)
	if err != nil {
		s.respondError(w, r, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, bank)
}

// handleBestBank resolves the lowest effective rate, preferring live values
// when a snapshot can be fetched; otherwise the comparison runs on static
// reference rates.
func (s *Server) handleBestBank(w http.ResponseWriter, r *http.Request) {
	snap := s.fetchSnapshot(r)
	best, err := s.resolver.BestRate(snap)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, best)
}

func (s *Server) handleEffectiveBank(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	snap := s.fetchSnapshot(r)
	effective, err := s.resolver.Resolve(id, snap)
	if err != nil {
		var unknown *catalog.UnknownBankError
		if errors.As(err, &unknown) {
			s.respondError(w, r, http.StatusNotFound, err)
			return
		}
		s.respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, effective)
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	currency := feedCurrency(r.URL.Query().Get("currency"))

	var date *civil.Date
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := civil.ParseDate(raw)
		if err != nil {
			s.respondError(w, r, http.StatusBadRequest, err)
			return
		}
		date = &parsed
	}

	snap, err := s.fetcher.Fetch(r.Context(), currency, date)
	if err != nil {
		var fetchErr *rates.FetchError
		if errors.As(err, &fetchErr) && fetchErr.Reason == rates.ReasonUnsupportedCurrency {
			s.respondError(w, r, http.StatusBadRequest, err)
			return
		}
		s.respondError(w, r, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// calculateRequest carries the form inputs of one simulation. Rate fields are
// display percents, exactly as a user types them; normalization to decimals
// happens once, when the calculation payload is built.
type calculateRequest struct {
	PropertyPrice      float64 `json:"property_price"`
	DownPaymentPercent float64 `json:"down_payment_percent"`
	BonoTechoPropio    float64 `json:"bono_techo_propio"`
	TermYears          int     `json:"term_years"`
	BankID             string  `json:"bank_id"`
	InsurancePlan      string  `json:"insurance_plan"`
	AnnualRate         float64 `json:"annual_rate"`
	RateType           string  `json:"rate_type"`
	GracePeriodMonths  int     `json:"grace_period_months"`
	GracePeriodType    string  `json:"grace_period_type"`
	Currency           string  `json:"currency"`
	NPVDiscountRate    float64 `json:"npv_discount_rate"`
}

type calculateResponse struct {
	*calculator.Result
	Warning string `json:"warning,omitempty"`
}

type validationFailureResponse struct {
	Error      string                 `json:"error"`
	Validation []form.ValidationError `json:"validation"`
}

// handleCalculate runs the submitted inputs through a form session (hydrating
// live rates, recomputing derived fields, validating against the selected
// bank's limits) and forwards the normalized payload to the calculation
// service under the active login.
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var in calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.respondError(w, r, http.StatusBadRequest, err)
		return
	}
	currency := in.Currency
	if currency == "" {
		currency = constants.CurrencyPEN
	}

	fsess := form.NewSession(s.engine, s.fetcher, s.logger)
	defer fsess.Close()
	fsess.HydrateNow(r.Context(), currency)

	if err := s.applyInputs(fsess, in); err != nil {
		var unknown *catalog.UnknownBankError
		if errors.As(err, &unknown) {
			s.respondError(w, r, http.StatusNotFound, err)
			return
		}
		s.respondError(w, r, http.StatusBadRequest, err)
		return
	}

	var result *calculator.Result
	err := fsess.Submit(r.Context(), func(ctx context.Context, st form.State) error {
		res, calcErr := s.calc.Calculate(ctx, s.currentSession(), calculator.RequestFromForm(st))
		if calcErr != nil {
			return calcErr
		}
		result = res
		return nil
	})
	if err != nil {
		var blocked form.SubmissionBlockedError
		if errors.As(err, &blocked) {
			s.logger.Warn("submission blocked by validation",
				zap.String("op", "server.handleCalculate"),
				zap.Int("errors", len(blocked.Errors)),
			)
			s.writeJSON(w, http.StatusUnprocessableEntity, validationFailureResponse{
				Error:      blocked.Error(),
				Validation: blocked.Errors,
			})
			return
		}
		s.respondCalculatorError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, calculateResponse{Result: result, Warning: fsess.Warning()})
}

// applyInputs replays the request's fields through the derived-field engine
// in the same order an interactive form applies them.
func (s *Server) applyInputs(fsess *form.Session, in calculateRequest) error {
	err := fsess.Edit(form.FieldPropertyPrice, func(st *form.State) {
		st.PropertyPrice = in.PropertyPrice
		st.DownPaymentPercent = in.DownPaymentPercent
		st.Bonus = in.BonoTechoPropio
	})
	if err != nil {
		return err
	}
	if err := fsess.Edit(form.FieldTermYears, func(st *form.State) {
		st.TermYears = in.TermYears
	}); err != nil {
		return err
	}
	if in.BankID != "" {
		if err := fsess.Edit(form.FieldBank, func(st *form.State) {
			st.BankID = in.BankID
		}); err != nil {
			return err
		}
	}
	if in.InsurancePlan == string(form.InsuranceJoint) {
		if err := fsess.Edit(form.FieldInsurancePlan, func(st *form.State) {
			st.InsurancePlan = form.InsuranceJoint
		}); err != nil {
			return err
		}
	}
	// Manual rate entry only applies without a catalog bank or for the
	// custom entry; bank selection is authoritative otherwise.
	if in.AnnualRate > 0 && (in.BankID == "" || in.BankID == catalog.CustomBankID) {
		if err := fsess.Edit(form.FieldAnnualRate, func(st *form.State) {
			st.AnnualRate = in.AnnualRate
			if in.RateType != "" {
				st.RateType = catalog.RateType(in.RateType)
			}
		}); err != nil {
			return err
		}
	}
	return fsess.Edit(form.FieldGracePeriodMonths, func(st *form.State) {
		st.GracePeriodMonths = in.GracePeriodMonths
		if in.GracePeriodType != "" {
			st.GracePeriodType = form.GracePeriodType(in.GracePeriodType)
		}
		st.NPVDiscountRate = in.NPVDiscountRate
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	results, err := s.calc.History(r.Context(), s.currentSession(), limit, offset)
	if err != nil {
		s.respondCalculatorError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleHistoryGet(w http.ResponseWriter, r *http.Request) {
	result, err := s.calc.Get(r.Context(), s.currentSession(), mux.Vars(r)["id"])
	if err != nil {
		s.respondCalculatorError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHistoryUpdate(w http.ResponseWriter, r *http.Request) {
	var req calculator.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, err)
		return
	}
	result, err := s.calc.Update(r.Context(), s.currentSession(), mux.Vars(r)["id"], req)
	if err != nil {
		s.respondCalculatorError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.calc.Delete(r.Context(), s.currentSession(), mux.Vars(r)["id"]); err != nil {
		s.respondCalculatorError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type loginRequest struct {
	Token string `json:"token"`
	User  struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		FullName string `json:"full_name"`
	} `json:"user"`
}

// sessionResponse echoes the session identity without its bearer token.
type sessionResponse struct {
	ID   string `json:"id"`
	User struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		FullName string `json:"full_name"`
	} `json:"user"`
}

func sessionResponseFrom(sess *session.Session) sessionResponse {
	var resp sessionResponse
	resp.ID = sess.ID
	resp.User.ID = sess.User.ID
	resp.User.Email = sess.User.Email
	resp.User.FullName = sess.User.FullName
	return resp
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.respondError(w, r, http.StatusBadRequest, err)
		return
	}
	if in.Token == "" {
		s.respondError(w, r, http.StatusBadRequest, errors.New("token must not be empty"))
		return
	}

	sess, err := s.sessions.Login(in.Token, session.User{
		ID:       in.User.ID,
		Email:    in.User.Email,
		FullName: in.User.FullName,
	})
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sessionResponseFrom(sess))
}

func (s *Server) handleCurrentSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Current()
	if !sess.Authenticated() {
		s.respondError(w, r, http.StatusUnauthorized, errors.New("not logged in"))
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponseFrom(sess))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(); err != nil {
		s.respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fetchSnapshot attempts a live fetch for resolution endpoints. Failures are
// logged and swallowed; resolution degrades to static rates on a nil
// snapshot.
func (s *Server) fetchSnapshot(r *http.Request) *rates.Snapshot {
	currency := feedCurrency(r.URL.Query().Get("currency"))
	snap, err := s.fetcher.Fetch(r.Context(), currency, nil)
	if err != nil {
		s.logger.Warn("live rates unavailable, using reference rates",
			zap.String("op", "server.fetchSnapshot"),
			zap.String("currency", currency),
			zap.Error(err),
		)
		return nil
	}
	return snap
}

func (s *Server) currentSession() *session.Session {
	if s.sessions == nil {
		return nil
	}
	return s.sessions.Current()
}

func feedCurrency(query string) string {
	switch query {
	case constants.CurrencyUSD, constants.FeedCurrencyUSD:
		return constants.FeedCurrencyUSD
	default:
		return constants.FeedCurrencyMN
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

// respondCalculatorError maps calculation-service failures: backend
// rejections pass through with their status and message, everything else is
// a bad gateway.
func (s *Server) respondCalculatorError(w http.ResponseWriter, r *http.Request, err error) {
	var rejected *calculator.SubmissionError
	if errors.As(err, &rejected) {
		s.respondError(w, r, rejected.Status, errors.New(rejected.Message))
		return
	}
	s.respondError(w, r, http.StatusBadGateway, err)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.logger.Warn("request failed",
		zap.String("op", "server.respondError"),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	)
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
