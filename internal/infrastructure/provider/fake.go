package provider

import (
	"context"

	"billing-service/internal/domain"
)

var _ Driver = (*Fake)(nil)

// Fake answers every request with the same rate. Register it with WithDriver
// for local setups without provider credentials.
type Fake struct {
	rate float64
}

func NewFake(rate float64) *Fake { return &Fake{rate: rate} }

func (f *Fake) ExchangeRate(context.Context, domain.ExchangeRateProvider, string, string) (domain.RateResult, error) {
	return domain.RateFound(f.rate), nil
}
