package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade statuses. A trade only ever moves forward: open -> partial ->
// fulfilled, or open/partial -> cancelled.
const (
	TradeStatusOpen      = "open"
	TradeStatusPartial   = "partial"
	TradeStatusFulfilled = "fulfilled"
	TradeStatusCancelled = "cancelled"
)

// TradeOpenStatuses are the statuses in which a trade can still take offers.
var TradeOpenStatuses = []string{TradeStatusOpen, TradeStatusPartial}

// Trade is a standing offer to exchange a fixed amount of one currency
// for another at a fixed rate. Amount is stored in minor units of
// FromCurrency.
type Trade struct {
	Id           string          `db:"id"`
	UserId       string          `db:"user_id"`
	Amount       int64           `db:"amount"`
	FromCurrency string          `db:"from_currency"`
	ToCurrency   string          `db:"to_currency"`
	Rate         decimal.Decimal `db:"rate"`
	Status       string          `db:"status"`
	Version      int64           `db:"version"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
	DeletedAt    *time.Time      `db:"deleted_at"`

	// AvailableAmount is the portion of Amount not yet covered by
	// accepted-or-paid buy offers. Populated by the store on load.
	AvailableAmount int64 `db:"-"`
}

// IsAcceptable reports whether the trade is open for offers.
func (t *Trade) IsAcceptable() bool {
	for _, status := range TradeOpenStatuses {
		if t.Status == status {
			return true
		}
	}
	return false
}

func (t *Trade) IsFulfilled() bool {
	return t.Status == TradeStatusFulfilled
}

// ExchangeAmount is the total the owner receives in ToCurrency minor
// units when the trade fully fills.
func (t *Trade) ExchangeAmount() int64 {
	return t.Rate.Mul(decimal.NewFromInt(t.Amount)).IntPart()
}
