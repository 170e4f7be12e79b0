package api

import (
	"time"

	"plex-exchange-go/internal/models"
	"plex-exchange-go/internal/money"

	"go.uber.org/zap"
)

// tradeResource is the API shape of a trade: stored minor-unit values
// plus the rendered formats clients display.
type tradeResource struct {
	Id              string        `json:"id"`
	UserId          string        `json:"user_id"`
	Amount          money.Formats `json:"amount"`
	AvailableAmount money.Formats `json:"available_amount"`
	ExchangeAmount  money.Formats `json:"exchange_amount"`
	FromCurrency    string        `json:"from_currency"`
	ToCurrency      string        `json:"to_currency"`
	Rate            string        `json:"rate"`
	Status          string        `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
}

func newTradeResource(trade *models.Trade, registry *money.Registry) tradeResource {
	formats := func(amount int64, currency string) money.Formats {
		f, err := registry.AllFormats(amount, currency)
		if err != nil {
			zap.L().Warn("Failed to format amount",
				zap.Int64("amount", amount),
				zap.String("currency", currency),
				zap.Error(err))
			return money.Formats{MinorAmount: amount, Currency: currency}
		}
		return f
	}

	return tradeResource{
		Id:              trade.Id,
		UserId:          trade.UserId,
		Amount:          formats(trade.Amount, trade.FromCurrency),
		AvailableAmount: formats(trade.AvailableAmount, trade.FromCurrency),
		ExchangeAmount:  formats(trade.ExchangeAmount(), trade.ToCurrency),
		FromCurrency:    trade.FromCurrency,
		ToCurrency:      trade.ToCurrency,
		Rate:            trade.Rate.String(),
		Status:          trade.Status,
		CreatedAt:       trade.CreatedAt,
	}
}

type transactionResource struct {
	Id                     string    `json:"id"`
	TradeId                string    `json:"trade_id"`
	SellerId               string    `json:"seller_id"`
	BuyerId                string    `json:"buyer_id"`
	Amount                 int64     `json:"amount"`
	Currency               string    `json:"currency"`
	Type                   string    `json:"type"`
	Status                 string    `json:"status"`
	Fee                    int64     `json:"fee"`
	ReferenceTransactionId string    `json:"reference_transaction_id,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
}

func newTransactionResource(transaction *models.Transaction) transactionResource {
	return transactionResource{
		Id:                     transaction.Id,
		TradeId:                transaction.TradeId,
		SellerId:               transaction.SellerId,
		BuyerId:                transaction.BuyerId,
		Amount:                 transaction.Amount,
		Currency:               transaction.Currency,
		Type:                   transaction.Type,
		Status:                 transaction.Status,
		Fee:                    transaction.Fee,
		ReferenceTransactionId: transaction.ReferenceTransactionId,
		CreatedAt:              transaction.CreatedAt,
	}
}

type userResource struct {
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResource(user *models.User) userResource {
	return userResource{
		Id:        user.Id,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

// pageMeta echoes pagination state back to the client.
type pageMeta struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}
