/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ToMinor transforms an amount to the currency's lowest unit.
// E.g. USD 10.56 = 1056, JPY 1056 = 1056. Fractions below the minor
// unit round up so the marketplace never under-collects.
func (r *Registry) ToMinor(amount decimal.Decimal, currency string) (int64, error) {
	c, ok := r.Get(currency)
	if !ok {
		return 0, fmt.Errorf("unsupported currency: %s", currency)
	}
	return amount.Shift(c.Decimals).Ceil().IntPart(), nil
}

// OfMinor transforms an amount in the currency's lowest unit back to the
// currency's default scale.
// E.g. 1056 = USD 10.56, 1056 = JPY 1056.
func (r *Registry) OfMinor(amount int64, currency string) (decimal.Decimal, error) {
	c, ok := r.Get(currency)
	if !ok {
		return decimal.Zero, fmt.Errorf("unsupported currency: %s", currency)
	}
	return decimal.NewFromInt(amount).Shift(-c.Decimals), nil
}

// ConvertMinor converts a minor-unit amount from one currency to another
// at the given rate (to-currency per unit of from-currency), rounding up
// to the destination minor unit so the receiving side never
// under-collects. Same-currency conversions return the amount unchanged.
func (r *Registry) ConvertMinor(amount int64, from, to string, rate decimal.Decimal) (int64, error) {
	from = strings.ToLower(from)
	to = strings.ToLower(to)

	if from == to {
		return amount, nil
	}

	fromCurrency, ok := r.Get(from)
	if !ok {
		return 0, fmt.Errorf("unsupported currency: %s", from)
	}
	toCurrency, ok := r.Get(to)
	if !ok {
		return 0, fmt.Errorf("unsupported currency: %s", to)
	}

	major := decimal.NewFromInt(amount).Shift(-fromCurrency.Decimals)
	converted := major.Mul(rate)
	return converted.Shift(toCurrency.Decimals).Ceil().IntPart(), nil
}

// Formats renders a minor-unit amount in the shapes API consumers need.
type Formats struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Display     string `json:"display"`
	MinorAmount int64  `json:"minor_amount"`
}

func (r *Registry) AllFormats(amount int64, currency string) (Formats, error) {
	major, err := r.OfMinor(amount, currency)
	if err != nil {
		return Formats{}, err
	}
	c, _ := r.Get(currency)
	return Formats{
		Amount:      major.StringFixed(c.Decimals),
		Currency:    strings.ToUpper(c.Code),
		Display:     fmt.Sprintf("%s %s", strings.ToUpper(c.Code), major.StringFixed(c.Decimals)),
		MinorAmount: amount,
	}, nil
}
