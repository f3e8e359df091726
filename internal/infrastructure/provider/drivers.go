package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"billing-service/internal/domain"

	"github.com/tidwall/gjson"
)

func (r *Registry) currencyFreak(ctx context.Context, p domain.ExchangeRateProvider, from, to string) (domain.RateResult, error) {
	u := fmt.Sprintf("%s/latest?apikey=%s&symbols=%s&base=%s", r.endpoints.CurrencyFreak, url.QueryEscape(p.Key), to, from)
	body, status, err := r.getJSON(ctx, u)
	if err != nil {
		return domain.RateResult{}, fmt.Errorf("currency_freak: %w", err)
	}
	if msg := body.Get("error.message"); msg.Exists() {
		return domain.ProviderError(msg.String(), msg.String()), nil
	}
	return rates(domain.DriverCurrencyFreak, status, body.Get("rates"))
}

func (r *Registry) currencyLayer(ctx context.Context, p domain.ExchangeRateProvider, from, to string) (domain.RateResult, error) {
	u := fmt.Sprintf("%s/live?access_key=%s&source=%s&currencies=%s", r.endpoints.CurrencyLayer, url.QueryEscape(p.Key), from, to)
	body, status, err := r.getJSON(ctx, u)
	if err != nil {
		return domain.RateResult{}, fmt.Errorf("currency_layer: %w", err)
	}
	if ok := body.Get("success"); ok.Exists() && !ok.Bool() {
		info := body.Get("error.info").String()
		return domain.ProviderError(info, info), nil
	}
	return rates(domain.DriverCurrencyLayer, status, body.Get("quotes"))
}

func (r *Registry) openExchangeRate(ctx context.Context, p domain.ExchangeRateProvider, from, to string) (domain.RateResult, error) {
	u := fmt.Sprintf("%s/api/latest.json?app_id=%s&base=%s&symbols=%s", r.endpoints.OpenExchangeRates, url.QueryEscape(p.Key), from, to)
	body, status, err := r.getJSON(ctx, u)
	if err != nil {
		return domain.RateResult{}, fmt.Errorf("open_exchange_rate: %w", err)
	}
	if body.Get("error").Bool() {
		return domain.ProviderError(body.Get("message").String(), body.Get("description").String()), nil
	}
	return rates(domain.DriverOpenExchangeRate, status, body.Get("rates"))
}

func (r *Registry) currencyConverter(ctx context.Context, p domain.ExchangeRateProvider, from, to string) (domain.RateResult, error) {
	base, ok := r.converterURL(p.DriverConfig)
	if !ok {
		msg := "invalid currency converter type"
		return domain.ProviderError(msg, msg), nil
	}
	u := fmt.Sprintf("%s/api/v7/convert?apiKey=%s&q=%s_%s&compact=y", base, url.QueryEscape(p.Key), from, to)
	body, status, err := r.getJSON(ctx, u)
	if err != nil {
		return domain.RateResult{}, fmt.Errorf("currency_converter: %w", err)
	}
	if msg := body.Get("error"); msg.Exists() {
		return domain.ProviderError(msg.String(), msg.String()), nil
	}
	return rates(domain.DriverCurrencyConverter, status, body)
}

// converterURL picks the API host for a currency converter plan.
func (r *Registry) converterURL(cfg map[string]string) (string, bool) {
	switch cfg["type"] {
	case "PREMIUM":
		return r.endpoints.ConverterPremium, true
	case "PREPAID":
		return r.endpoints.ConverterPrepaid, true
	case "FREE":
		return r.endpoints.ConverterFree, true
	case "DEDICATED":
		u := cfg["url"]
		return u, u != ""
	}
	return "", false
}

func rates(driver string, status int, obj gjson.Result) (domain.RateResult, error) {
	if status != http.StatusOK {
		return domain.RateResult{}, fmt.Errorf("%s: status %d", driver, status)
	}
	vals := values(obj)
	if len(vals) == 0 {
		return domain.RateResult{}, fmt.Errorf("%s: no rates in response", driver)
	}
	return domain.RateFound(vals...), nil
}
