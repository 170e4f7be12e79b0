package models

import (
	"time"

	"plex-exchange-go/internal/money"
)

const (
	TransactionTypeBuy  = "buy"
	TransactionTypeSell = "sell"
)

// Transaction statuses. An open transaction moves to accepted or
// rejected only, never back. Paid and cancelled are reached downstream
// of acceptance (settlement / review), never from open directly.
const (
	TransactionStatusOpen      = "open"
	TransactionStatusAccepted  = "accepted"
	TransactionStatusPaid      = "paid"
	TransactionStatusRejected  = "rejected"
	TransactionStatusCancelled = "cancelled"
)

var TransactionAllStatuses = []string{
	TransactionStatusOpen,
	TransactionStatusAccepted,
	TransactionStatusPaid,
	TransactionStatusRejected,
	TransactionStatusCancelled,
}

// TransactionClosedStatuses count against a trade's available amount.
var TransactionClosedStatuses = []string{TransactionStatusAccepted, TransactionStatusPaid}

// Transaction is one leg of a trade fill. A buy transaction is a
// buyer's offer against a trade; its accepted mirror is the sell leg.
// Amount and Fee are minor units of Currency.
type Transaction struct {
	Id                     string     `db:"id"`
	TradeId                string     `db:"trade_id"`
	SellerId               string     `db:"seller_id"`
	BuyerId                string     `db:"buyer_id"`
	Amount                 int64      `db:"amount"`
	Currency               string     `db:"currency"`
	Type                   string     `db:"type"`
	Status                 string     `db:"status"`
	Fee                    int64      `db:"fee"`
	ReferenceTransactionId string     `db:"reference_transaction_id"`
	CreatedAt              time.Time  `db:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at"`
	DeletedAt              *time.Time `db:"deleted_at"`
}

func (t *Transaction) IsBuy() bool {
	return t.Type == TransactionTypeBuy
}

func (t *Transaction) IsSell() bool {
	return t.Type == TransactionTypeSell
}

func (t *Transaction) IsOpen() bool {
	return t.Status == TransactionStatusOpen
}

// PayerId is the user who owes this leg: the buyer on a buy, the seller
// on a sell.
func (t *Transaction) PayerId() string {
	if t.IsBuy() {
		return t.BuyerId
	}
	return t.SellerId
}

// InvoiceCurrency is the currency this leg's payer settles in. The buy
// leg is owed in the trade's destination currency; the sell leg in the
// transaction's own currency.
func (t *Transaction) InvoiceCurrency(trade *Trade) string {
	if t.IsBuy() {
		return trade.ToCurrency
	}
	return t.Currency
}

// TransactionAmount is the amount to be exchanged for this leg, in its
// invoice currency: converted at the trade rate for the buy leg, as-is
// for the sell leg.
func (t *Transaction) TransactionAmount(trade *Trade, registry *money.Registry) (int64, error) {
	if !t.IsBuy() {
		return t.Amount, nil
	}
	return registry.ConvertMinor(t.Amount, trade.FromCurrency, trade.ToCurrency, trade.Rate)
}

// TransactionFee is the fee owed for this leg, in its invoice currency.
func (t *Transaction) TransactionFee(trade *Trade, registry *money.Registry) (int64, error) {
	if !t.IsBuy() {
		return t.Fee, nil
	}
	return registry.ConvertMinor(t.Fee, trade.FromCurrency, trade.ToCurrency, trade.Rate)
}

// InvoiceAmount is the total the payer owes: transaction amount plus fee.
func (t *Transaction) InvoiceAmount(trade *Trade, registry *money.Registry) (int64, error) {
	amount, err := t.TransactionAmount(trade, registry)
	if err != nil {
		return 0, err
	}
	fee, err := t.TransactionFee(trade, registry)
	if err != nil {
		return 0, err
	}
	return amount + fee, nil
}
