package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Entity id prefixes, so an id names its kind at a glance.
const (
	TradeIdPrefix       = "trd"
	TransactionIdPrefix = "txn"
	InvoiceIdPrefix     = "inv"
)

// NewId returns a prefixed UUID, e.g. "txn_6f1c...".
func NewId(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, uuid.New().String())
}
