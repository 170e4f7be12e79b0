package store

import (
	"context"
	"errors"
	"time"

	"plex-exchange-go/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrTradeNotFound       = errors.New("trade not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvoiceNotFound     = errors.New("invoice not found")

	// ErrTradeNotAcceptable: the trade is not open or partially filled.
	ErrTradeNotAcceptable = errors.New("trade not acceptable")
	// ErrInsufficientAmount: the offer exceeds the trade's available amount.
	ErrInsufficientAmount = errors.New("offer amount greater than available trade amount")
	// ErrOpenOfferExists: the buyer already has an open offer on the trade.
	ErrOpenOfferExists = errors.New("buyer already has an open offer")
	// ErrTransactionNotOpen: the transaction already left the open state.
	ErrTransactionNotOpen = errors.New("transaction not open")

	ErrDuplicateEmail         = errors.New("email already registered")
	ErrDuplicateReference     = errors.New("duplicate reference number")
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// TradeFilter narrows a trade listing. Empty slices mean no filter.
type TradeFilter struct {
	Statuses       []string
	FromCurrencies []string
	ToCurrencies   []string
}

// TransactionFilter narrows a transaction listing.
type TransactionFilter struct {
	Statuses   []string
	Currencies []string
	Types      []string
}

// Page bounds a listing. Implementations cap Limit at MaxPageLimit.
type Page struct {
	Limit  int
	Offset int
}

const MaxPageLimit = 100

// MarketStore defines the persistence contract that every backend must
// satisfy: atomic multi-row writes, unique-constraint enforcement, and
// the per-trade exclusivity the lifecycle engine depends on.
type MarketStore interface {
	// --- Users ---
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)

	// --- Trades ---
	CreateTrade(ctx context.Context, trade *models.Trade) (*models.Trade, error)
	GetTradeById(ctx context.Context, tradeId string) (*models.Trade, error)
	ListTrades(ctx context.Context, filter TradeFilter, page Page) ([]models.Trade, int64, error)
	// UpdateTradeStatus applies an optimistic, version-guarded status
	// change; ErrConcurrentModification when the version moved.
	UpdateTradeStatus(ctx context.Context, tradeId, status string, version int64) error

	// --- Transactions ---
	// CreateBuyOffer validates trade state, available amount and the
	// one-open-offer-per-buyer rule and inserts the offer, all inside a
	// single database transaction.
	CreateBuyOffer(ctx context.Context, transaction *models.Transaction) (*models.Transaction, error)
	GetTransactionById(ctx context.Context, transactionId string) (*models.Transaction, error)
	// AcceptTransactionPair marks the transaction accepted, creates its
	// mirror with reciprocal references, and commits both atomically.
	// Returns (original, mirror).
	AcceptTransactionPair(ctx context.Context, transactionId, mirrorId string) (*models.Transaction, *models.Transaction, error)
	RejectTransaction(ctx context.Context, transactionId string) error
	ListOpenBuyOffers(ctx context.Context, tradeId string) ([]models.Transaction, error)
	ListTradeTransactions(ctx context.Context, tradeId, userId string, filter TransactionFilter, page Page) ([]models.Transaction, int64, error)
	// ListClosedTransactionsWithoutInvoice returns the trade's
	// accepted-or-paid transactions that have no invoice yet.
	ListClosedTransactionsWithoutInvoice(ctx context.Context, tradeId string) ([]models.Transaction, error)

	// --- Invoices ---
	// CreateInvoice inserts the invoice; ErrDuplicateReference when the
	// reference number already exists.
	CreateInvoice(ctx context.Context, invoice *models.Invoice) (*models.Invoice, error)
	GetInvoiceById(ctx context.Context, invoiceId string) (*models.Invoice, error)
	GetLatestInvoiceForTransaction(ctx context.Context, transactionId string) (*models.Invoice, error)
	ListDraftInvoicesPastDue(ctx context.Context, now time.Time) ([]models.Invoice, error)
	// UpdateInvoiceStatus changes status (and paid_at when paying).
	// Reference numbers are immutable; no update path exists for them.
	UpdateInvoiceStatus(ctx context.Context, invoiceId, status string, paidAt *time.Time) error

	// --- Lifecycle ---
	Close()
}
