package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"billing-service/internal/domain"

	"go.uber.org/zap"
)

const settingCurrency = "currency"

// Resolver outcomes reported to the observer.
const (
	OutcomeProvider    = "provider"
	OutcomeLog         = "log"
	OutcomeUnavailable = "unavailable"
)

type ExchangeRateService struct {
	settings   SettingsRepo
	currencies CurrencyRepo
	providers  ProviderRepo
	logs       RateLogRepo
	driver     RateDriver
	log        *zap.Logger
	observe    func(outcome string)
}

type ExchangeRateOption func(*ExchangeRateService)

func WithResolverLogger(l *zap.Logger) ExchangeRateOption {
	return func(s *ExchangeRateService) { s.log = l }
}

// WithOutcomeObserver registers a callback invoked once per Resolve with the
// source the answer came from.
func WithOutcomeObserver(fn func(outcome string)) ExchangeRateOption {
	return func(s *ExchangeRateService) { s.observe = fn }
}

func NewExchangeRateService(settings SettingsRepo, currencies CurrencyRepo, providers ProviderRepo, logs RateLogRepo, driver RateDriver, opts ...ExchangeRateOption) *ExchangeRateService {
	s := &ExchangeRateService{
		settings:   settings,
		currencies: currencies,
		providers:  providers,
		logs:       logs,
		driver:     driver,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.observe == nil {
		s.observe = func(string) {}
	}
	return s
}

// Currency loads the currency a request refers to.
func (s *ExchangeRateService) Currency(ctx context.Context, id int64) (domain.Currency, error) {
	return s.currencies.GetByID(ctx, id)
}

// BaseCurrency returns the company's configured base currency.
func (s *ExchangeRateService) BaseCurrency(ctx context.Context, companyID int64) (domain.Currency, error) {
	raw, err := s.settings.GetCompanySetting(ctx, companyID, settingCurrency)
	if err != nil {
		return domain.Currency{}, fmt.Errorf("%w: company %d: %w", ErrBaseCurrencyNotFound, companyID, err)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return domain.Currency{}, fmt.Errorf("%w: company %d: invalid currency id %q", ErrBaseCurrencyNotFound, companyID, raw)
	}
	base, err := s.currencies.GetByID(ctx, id)
	if err != nil {
		return domain.Currency{}, fmt.Errorf("%w: currency %d: %w", ErrBaseCurrencyNotFound, id, err)
	}
	return base, nil
}

// Resolve returns the rate converting currency into the company's base
// currency. A successful provider answer is returned untouched; otherwise the
// newest logged rate for the exact pair is used. Only a missing base currency
// is reported as an error, every other shortfall becomes a payload.
func (s *ExchangeRateService) Resolve(ctx context.Context, companyID int64, currency domain.Currency) (domain.RateResult, error) {
	base, err := s.BaseCurrency(ctx, companyID)
	if err != nil {
		return domain.RateResult{}, err
	}
	log := s.log.With(
		zap.Int64("company_id", companyID),
		zap.String("currency", currency.Code),
		zap.String("base_currency", base.Code),
	)

	if p, ok := s.firstActiveProvider(ctx, log, companyID, currency.Code); ok {
		res, err := s.driver.ExchangeRate(ctx, p, currency.Code, base.Code)
		switch {
		case err != nil:
			log.Warn("resolver.provider_failed", zap.String("driver", p.Driver), zap.Error(err))
		case res.OK():
			log.Info("resolver.provider_rate", zap.String("driver", p.Driver))
			s.observe(OutcomeProvider)
			return res, nil
		default:
			log.Warn("resolver.provider_rejected", zap.String("driver", p.Driver), zap.Int("status", res.Status))
		}
	}

	rate, err := s.logs.LatestRate(ctx, base.ID, currency.ID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warn("resolver.log_lookup_failed", zap.Error(err))
		}
		s.observe(OutcomeUnavailable)
		return domain.RateUnavailable(), nil
	}
	s.observe(OutcomeLog)
	return domain.RateFound(rate), nil
}

// ActiveProvider reports whether any active provider supports code.
func (s *ExchangeRateService) ActiveProvider(ctx context.Context, companyID int64, code string) domain.RateResult {
	if _, ok := s.firstActiveProvider(ctx, s.log, companyID, code); ok {
		return domain.RateResult{Status: http.StatusOK, Body: domain.RateResponse{Success: true, Message: "provider_active"}}
	}
	return domain.RateResult{Status: http.StatusOK, Body: domain.RateResponse{Error: domain.ErrKeyNoActiveProvider}}
}

// SupportedCurrencies checks a provider key before it is saved and returns
// the currency codes the account can quote.
func (s *ExchangeRateService) SupportedCurrencies(ctx context.Context, driver, key string, cfg map[string]string) domain.RateResult {
	res := s.driver.SupportedCurrencies(ctx, domain.ExchangeRateProvider{Driver: driver, Key: key, DriverConfig: cfg})
	if !res.OK() {
		s.log.Info("resolver.provider_key_rejected", zap.String("driver", driver), zap.String("error", res.Body.Error))
	}
	return res
}

func (s *ExchangeRateService) firstActiveProvider(ctx context.Context, log *zap.Logger, companyID int64, code string) (domain.ExchangeRateProvider, bool) {
	if code == "" {
		return domain.ExchangeRateProvider{}, false
	}
	ps, err := s.providers.ListActiveSupporting(ctx, companyID, code)
	if err != nil {
		log.Warn("resolver.provider_query_failed", zap.Error(err))
		return domain.ExchangeRateProvider{}, false
	}
	if len(ps) == 0 {
		return domain.ExchangeRateProvider{}, false
	}
	return ps[0], true
}
