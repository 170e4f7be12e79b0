package invoices

import (
	"context"

	"plex-exchange-go/internal/models"
)

// PaymentGateway handles paying and refunding invoices for different
// providers (Stripe, Braintree, Paypal, ...). Implementations live
// outside this module; the lifecycle engine only needs the seam.
type PaymentGateway interface {
	// Authorize creates a payment method for the user from a checkout
	// token.
	Authorize(ctx context.Context, user *models.User, checkoutToken string) error
	// Pay attempts to settle the invoice.
	Pay(ctx context.Context, invoice *models.Invoice) error
	// Refund attempts to return funds collected for the invoice.
	Refund(ctx context.Context, invoice *models.Invoice, amount int64) error
}

// PaymentGatewaySelector determines which gateway processes an invoice.
type PaymentGatewaySelector interface {
	DeterminePaymentGateway(ctx context.Context, invoice *models.Invoice) (PaymentGateway, error)
}
