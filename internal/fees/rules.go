package fees

import (
	"github.com/shopspring/decimal"

	"plex-exchange-go/internal/models"
	"plex-exchange-go/internal/money"
)

const (
	// PercentageFeeRate is the fee charged on every transaction: 1.5%.
	PercentageFeeRate = "0.015"
	// MaximumFeeMinor caps the fee at 1000 minor units.
	MaximumFeeMinor int64 = 1000
)

// PercentageOfValueFeeRule charges 1.5% of the transaction amount,
// rounded up to the transaction currency's minor unit.
func PercentageOfValueFeeRule(registry *money.Registry) Rule {
	rate := decimal.RequireFromString(PercentageFeeRate)
	return Rule{
		Name: "1.5% Fee",
		Condition: func(t *models.Transaction) bool {
			return t.Amount > 0
		},
		Action: func(t *models.Transaction) error {
			major, err := registry.OfMinor(t.Amount, t.Currency)
			if err != nil {
				return err
			}
			fee, err := registry.ToMinor(major.Mul(rate), t.Currency)
			if err != nil {
				return err
			}
			t.Fee = fee
			return nil
		},
	}
}

// MaximumFeeRule caps whatever fee earlier rules computed. It must run
// after PercentageOfValueFeeRule.
func MaximumFeeRule() Rule {
	return Rule{
		Name: "Maximum Fee Amount",
		Condition: func(t *models.Transaction) bool {
			return t.Fee > MaximumFeeMinor
		},
		Action: func(t *models.Transaction) error {
			t.Fee = MaximumFeeMinor
			return nil
		},
	}
}

// NewDefaultEngine returns the production fee pipeline: percentage of
// value, then the maximum cap.
func NewDefaultEngine(registry *money.Registry) *Engine {
	return NewEngine([]Rule{
		PercentageOfValueFeeRule(registry),
		MaximumFeeRule(),
	})
}
