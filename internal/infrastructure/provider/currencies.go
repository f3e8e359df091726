package provider

import (
	"context"
	"fmt"
	"net/url"

	"billing-service/internal/domain"
	"billing-service/internal/infrastructure/logx"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Key checks use a fixed pair; only whether the provider accepts the key
// matters.

func (r *Registry) currencyFreakCurrencies(ctx context.Context, p domain.ExchangeRateProvider) domain.RateResult {
	symbols, ok := r.fetch(ctx, domain.DriverCurrencyFreak, r.endpoints.CurrencyFreak+"/currency-symbols")
	if !ok {
		return domain.ProviderUnreachable()
	}
	if nested := symbols.Get("currencySymbols"); nested.Exists() {
		symbols = nested
	}
	check, ok := r.fetch(ctx, domain.DriverCurrencyFreak,
		fmt.Sprintf("%s/latest?apikey=%s&symbols=INR&base=USD", r.endpoints.CurrencyFreak, url.QueryEscape(p.Key)))
	if !ok {
		return domain.ProviderUnreachable()
	}
	if check.Get("error").Exists() {
		return domain.ProviderKeyInvalid()
	}
	return domain.CurrenciesFound(keys(symbols))
}

func (r *Registry) currencyLayerCurrencies(ctx context.Context, p domain.ExchangeRateProvider) domain.RateResult {
	body, ok := r.fetch(ctx, domain.DriverCurrencyLayer,
		fmt.Sprintf("%s/list?access_key=%s", r.endpoints.CurrencyLayer, url.QueryEscape(p.Key)))
	if !ok {
		return domain.ProviderUnreachable()
	}
	currencies := body.Get("currencies")
	if !currencies.Exists() {
		return domain.ProviderKeyInvalid()
	}
	return domain.CurrenciesFound(keys(currencies))
}

func (r *Registry) openExchangeRateCurrencies(ctx context.Context, p domain.ExchangeRateProvider) domain.RateResult {
	currencies, ok := r.fetch(ctx, domain.DriverOpenExchangeRate, r.endpoints.OpenExchangeRates+"/api/currencies.json")
	if !ok {
		return domain.ProviderUnreachable()
	}
	check, ok := r.fetch(ctx, domain.DriverOpenExchangeRate,
		fmt.Sprintf("%s/api/latest.json?app_id=%s&base=INR&symbols=USD", r.endpoints.OpenExchangeRates, url.QueryEscape(p.Key)))
	if !ok {
		return domain.ProviderUnreachable()
	}
	if check.Get("error").Bool() {
		return domain.ProviderKeyInvalid()
	}
	return domain.CurrenciesFound(keys(currencies))
}

func (r *Registry) currencyConverterCurrencies(ctx context.Context, p domain.ExchangeRateProvider) domain.RateResult {
	base, ok := r.converterURL(p.DriverConfig)
	if !ok {
		return domain.ProviderUnreachable()
	}
	body, ok := r.fetch(ctx, domain.DriverCurrencyConverter,
		fmt.Sprintf("%s/api/v7/currencies?apiKey=%s", base, url.QueryEscape(p.Key)))
	if !ok {
		return domain.ProviderUnreachable()
	}
	results := body.Get("results")
	if !results.Exists() {
		return domain.ProviderKeyInvalid()
	}
	return domain.CurrenciesFound(keys(results))
}

// fetch is getJSON for lookups where any transport failure or a body that
// is not a JSON document means the provider did not answer.
func (r *Registry) fetch(ctx context.Context, driver, u string) (gjson.Result, bool) {
	body, _, err := r.getJSON(ctx, u)
	if err != nil {
		logx.L().Warn("provider.lookup_failed", zap.String("driver", driver), zap.Error(err))
		return gjson.Result{}, false
	}
	if body.Type == gjson.Null {
		return gjson.Result{}, false
	}
	return body, true
}
