package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"billing-service/internal/application"
	"billing-service/internal/domain"
	"billing-service/internal/infrastructure/logx"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Driver fetches one rate from a provider's API.
type Driver interface {
	ExchangeRate(ctx context.Context, p domain.ExchangeRateProvider, from, to string) (domain.RateResult, error)
}

type DriverFunc func(ctx context.Context, p domain.ExchangeRateProvider, from, to string) (domain.RateResult, error)

func (f DriverFunc) ExchangeRate(ctx context.Context, p domain.ExchangeRateProvider, from, to string) (domain.RateResult, error) {
	return f(ctx, p, from, to)
}

// Endpoints are the provider API roots; tests point them at fakes.
type Endpoints struct {
	CurrencyFreak     string
	CurrencyLayer     string
	OpenExchangeRates string
	ConverterPremium  string
	ConverterPrepaid  string
	ConverterFree     string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		CurrencyFreak:     "https://api.currencyfreaks.com",
		CurrencyLayer:     "http://api.currencylayer.com",
		OpenExchangeRates: "https://openexchangerates.org",
		ConverterPremium:  "https://api.currconv.com",
		ConverterPrepaid:  "https://prepaid.currconv.com",
		ConverterFree:     "https://free.currconv.com",
	}
}

// CurrencyLister reports which currencies a provider account can quote.
// Failures are expressed as payloads, never as errors.
type CurrencyLister interface {
	SupportedCurrencies(ctx context.Context, p domain.ExchangeRateProvider) domain.RateResult
}

type ListerFunc func(ctx context.Context, p domain.ExchangeRateProvider) domain.RateResult

func (f ListerFunc) SupportedCurrencies(ctx context.Context, p domain.ExchangeRateProvider) domain.RateResult {
	return f(ctx, p)
}

// Registry dispatches to a driver by the provider's driver name.
type Registry struct {
	client    *http.Client
	endpoints Endpoints
	drivers   map[string]Driver
	listers   map[string]CurrencyLister
}

var _ application.RateDriver = (*Registry)(nil)

type Option func(*Registry)

func WithEndpoints(e Endpoints) Option {
	return func(r *Registry) { r.endpoints = e }
}

// WithDriver registers or replaces the driver for name. A driver that is
// also a CurrencyLister answers supported-currency lookups too.
func WithDriver(name string, d Driver) Option {
	return func(r *Registry) {
		r.drivers[name] = d
		if l, ok := d.(CurrencyLister); ok {
			r.listers[name] = l
		} else {
			delete(r.listers, name)
		}
	}
}

func NewRegistry(client *http.Client, opts ...Option) *Registry {
	if client == nil {
		client = http.DefaultClient
	}
	r := &Registry{client: client, endpoints: DefaultEndpoints(), drivers: map[string]Driver{}, listers: map[string]CurrencyLister{}}
	r.drivers[domain.DriverCurrencyFreak] = DriverFunc(r.currencyFreak)
	r.drivers[domain.DriverCurrencyLayer] = DriverFunc(r.currencyLayer)
	r.drivers[domain.DriverOpenExchangeRate] = DriverFunc(r.openExchangeRate)
	r.drivers[domain.DriverCurrencyConverter] = DriverFunc(r.currencyConverter)
	r.listers[domain.DriverCurrencyFreak] = ListerFunc(r.currencyFreakCurrencies)
	r.listers[domain.DriverCurrencyLayer] = ListerFunc(r.currencyLayerCurrencies)
	r.listers[domain.DriverOpenExchangeRate] = ListerFunc(r.openExchangeRateCurrencies)
	r.listers[domain.DriverCurrencyConverter] = ListerFunc(r.currencyConverterCurrencies)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) ExchangeRate(ctx context.Context, p domain.ExchangeRateProvider, from, to string) (domain.RateResult, error) {
	d, ok := r.drivers[p.Driver]
	if !ok {
		logx.L().Warn("provider.invalid_driver", zap.Int64("provider_id", p.ID), zap.String("driver", p.Driver))
		return domain.InvalidDriver(), nil
	}
	return d.ExchangeRate(ctx, p, from, to)
}

// SupportedCurrencies asks the provider which currency codes the key can
// use. An unknown driver is a 400 invalid_driver payload.
func (r *Registry) SupportedCurrencies(ctx context.Context, p domain.ExchangeRateProvider) domain.RateResult {
	l, ok := r.listers[p.Driver]
	if !ok {
		logx.L().Warn("provider.invalid_driver", zap.String("driver", p.Driver))
		return domain.InvalidDriver()
	}
	return l.SupportedCurrencies(ctx, p)
}

// getJSON issues a GET and returns the parsed body whatever the status, since
// providers report their errors in the payload.
func (r *Registry) getJSON(ctx context.Context, url string) (gjson.Result, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return gjson.Result{}, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return gjson.Result{}, 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return gjson.Result{}, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	if !gjson.ValidBytes(b) {
		return gjson.Result{}, resp.StatusCode, fmt.Errorf("invalid json body (status %d)", resp.StatusCode)
	}
	return gjson.ParseBytes(b), resp.StatusCode, nil
}

// keys lists an object's keys in document order.
func keys(obj gjson.Result) []string {
	out := []string{}
	obj.ForEach(func(k, _ gjson.Result) bool {
		out = append(out, k.String())
		return true
	})
	return out
}

// values lists an object's values in document order.
func values(obj gjson.Result) []any {
	var out []any
	obj.ForEach(func(_, v gjson.Result) bool {
		out = append(out, v.Value())
		return true
	})
	return out
}
