package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRateLog is an append-only record of a rate observed between two
// currencies. Lookups always use the exact (BaseCurrencyID, CurrencyID) order.
type ExchangeRateLog struct {
	ID             int64
	CompanyID      int64
	BaseCurrencyID int64
	CurrencyID     int64
	ExchangeRate   decimal.Decimal
	CreatedAt      time.Time
}
