package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"billing-service/internal/application"
	"billing-service/internal/domain"
	"billing-service/internal/infrastructure/logx"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"
)

// CompanyHeader carries the company a request acts for.
const CompanyHeader = "company"

// RateService is the exchange rate surface the API needs.
type RateService interface {
	Currency(ctx context.Context, id int64) (domain.Currency, error)
	Resolve(ctx context.Context, companyID int64, currency domain.Currency) (domain.RateResult, error)
	ActiveProvider(ctx context.Context, companyID int64, code string) domain.RateResult
	SupportedCurrencies(ctx context.Context, driver, key string, cfg map[string]string) domain.RateResult
}

type Server struct {
	rates    RateService
	updates  application.UpdateSteps
	validate *validator.Validate
	ping     func(ctx context.Context) error
	observe  func(step domain.UpdateStep, ok bool)
}

func NewServer(rates RateService, updates application.UpdateSteps) *Server {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Server{
		rates:    rates,
		updates:  updates,
		validate: v,
		observe:  func(domain.UpdateStep, bool) {},
	}
}

func (s *Server) SetReadyCheck(fn func(ctx context.Context) error) { s.ping = fn }

// SetStepObserver is told about every update step run through the API.
func (s *Server) SetStepObserver(fn func(step domain.UpdateStep, ok bool)) { s.observe = fn }

func (s *Server) GetExchangeRate(w http.ResponseWriter, r *http.Request) {
	companyID, currency, ok := s.currencyRequest(w, r)
	if !ok {
		return
	}
	res, err := s.rates.Resolve(r.Context(), companyID, currency)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) || errors.Is(err, application.ErrBaseCurrencyNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		logx.L().Error("http.resolve_failed", zap.Error(err))
		internalError(w)
		return
	}
	writeJSON(w, res.Status, res.Body)
}

func (s *Server) GetActiveProvider(w http.ResponseWriter, r *http.Request) {
	companyID, currency, ok := s.currencyRequest(w, r)
	if !ok {
		return
	}
	res := s.rates.ActiveProvider(r.Context(), companyID, currency.Code)
	writeJSON(w, res.Status, res.Body)
}

type supportedCurrenciesQuery struct {
	Driver string `json:"driver" validate:"required"`
	Key    string `json:"key" validate:"required"`
	Type   string `json:"type" validate:"omitempty,oneof=PREMIUM PREPAID FREE DEDICATED"`
	URL    string `json:"url" validate:"omitempty,url"`
}

// GetSupportedCurrencies checks a provider key and lists the currencies it
// can quote. Provider failures come back as 400 payloads.
func (s *Server) GetSupportedCurrencies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := supportedCurrenciesQuery{
		Driver: q.Get("driver"),
		Key:    q.Get("key"),
		Type:   q.Get("type"),
		URL:    q.Get("url"),
	}
	if err := s.validateStruct(&params); err != nil {
		badRequest(w, err.Error())
		return
	}
	var cfg map[string]string
	if params.Type != "" {
		cfg = map[string]string{"type": params.Type}
		if params.URL != "" {
			cfg["url"] = params.URL
		}
	}
	res := s.rates.SupportedCurrencies(r.Context(), params.Driver, params.Key, cfg)
	writeJSON(w, res.Status, res.Body)
}

// currencyRequest binds the company header and the {currency} path id and
// loads the currency. It writes the error response itself.
func (s *Server) currencyRequest(w http.ResponseWriter, r *http.Request) (int64, domain.Currency, bool) {
	var companyID int64
	err := runtime.BindStyledParameterWithOptions("simple", CompanyHeader, r.Header.Get(CompanyHeader), &companyID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationHeader, Required: true})
	if err != nil || companyID <= 0 {
		badRequest(w, "invalid company header")
		return 0, domain.Currency{}, false
	}
	var currencyID int64
	err = runtime.BindStyledParameterWithOptions("simple", "currency", chi.URLParam(r, "currency"), &currencyID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		badRequest(w, "invalid currency id")
		return 0, domain.Currency{}, false
	}
	currency, err := s.rates.Currency(r.Context(), currencyID)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			notFound(w)
			return 0, domain.Currency{}, false
		}
		internalError(w)
		return 0, domain.Currency{}, false
	}
	return companyID, currency, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Code: status, Message: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, msg)
}

func notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
}

func internalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

// decodeBody decodes JSON into dst and validates it. An empty body is
// treated as an empty object.
func (s *Server) decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return errors.New("invalid JSON body")
	}
	return s.validateStruct(dst)
}

// validateStruct reports failed rules as "field is tag" pairs.
func (s *Server) validateStruct(dst any) error {
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+" is "+fe.Tag())
			}
			return errors.New(strings.Join(fields, ", "))
		}
		return err
	}
	return nil
}
