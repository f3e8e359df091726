package domain

import "slices"

// Driver names understood by the provider registry.
const (
	DriverCurrencyFreak     = "currency_freak"
	DriverCurrencyLayer     = "currency_layer"
	DriverOpenExchangeRate  = "open_exchange_rate"
	DriverCurrencyConverter = "currency_converter"
)

type ExchangeRateProvider struct {
	ID           int64
	CompanyID    int64
	Key          string
	Driver       string
	Currencies   []string
	DriverConfig map[string]string
	Active       bool
}

func (p ExchangeRateProvider) Supports(code string) bool {
	return slices.Contains(p.Currencies, code)
}
