package domain

import (
	"net/http"

	"github.com/shopspring/decimal"
)

// Rates read from the log are decimals; they go out as JSON numbers like
// provider rates do.
func init() { decimal.MarshalJSONWithoutQuotes = true }

// Payload error keys returned with a 200 status.
const (
	ErrKeyNoExchangeRate   = "no_exchange_rate_available"
	ErrKeyNoActiveProvider = "no_active_provider"
	ErrKeyInvalidDriver    = "invalid_driver"
	ErrKeyInvalidKey       = "invalid_key"
	ErrKeyServerError      = "server_error"
)

// RateResponse is the JSON body handed back to API callers. ExchangeRate
// holds one element per requested symbol; an element is a number, or an
// object for drivers that return one (currency_converter).
type RateResponse struct {
	ExchangeRate        []any    `json:"exchangeRate,omitempty"`
	SupportedCurrencies []string `json:"supportedCurrencies,omitempty"`
	Success             bool     `json:"success,omitempty"`
	Message             string   `json:"message,omitempty"`
	Error               string   `json:"error,omitempty"`
}

// RateResult pairs a response body with the transport status it should be
// written with.
type RateResult struct {
	Status int
	Body   RateResponse
}

func (r RateResult) OK() bool { return r.Status == http.StatusOK }

// RateFound wraps the rate values in the order the source listed them.
func RateFound(rates ...any) RateResult {
	return RateResult{Status: http.StatusOK, Body: RateResponse{ExchangeRate: rates}}
}

func RateUnavailable() RateResult {
	return RateResult{Status: http.StatusOK, Body: RateResponse{Error: ErrKeyNoExchangeRate}}
}

// ProviderError mirrors the provider's own complaint as a 400 body.
func ProviderError(message, detail string) RateResult {
	return RateResult{Status: http.StatusBadRequest, Body: RateResponse{Message: message, Error: detail}}
}

// CurrenciesFound lists the codes a provider account can quote, in the
// order the provider returned them.
func CurrenciesFound(codes []string) RateResult {
	return RateResult{Status: http.StatusOK, Body: RateResponse{SupportedCurrencies: codes}}
}

func ProviderKeyInvalid() RateResult {
	return ProviderError("Please Enter Valid Provider Key.", ErrKeyInvalidKey)
}

func ProviderUnreachable() RateResult {
	return ProviderError("Server not responding", ErrKeyServerError)
}

func InvalidDriver() RateResult {
	return RateResult{Status: http.StatusBadRequest, Body: RateResponse{Error: ErrKeyInvalidDriver}}
}
