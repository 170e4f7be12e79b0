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
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// Currency describes a supported currency and the number of decimal
// places of its minor unit (2 for cents-based currencies, 0 for
// zero-decimal currencies).
type Currency struct {
	Code     string `yaml:"code"`
	Decimals int32  `yaml:"decimals"`
}

type CurrenciesConfig struct {
	Currencies []Currency `yaml:"currencies"`
}

// Registry is the fixed set of currencies the marketplace supports.
type Registry struct {
	currencies map[string]Currency
	ordered    []Currency
}

func NewRegistry(currencies []Currency) *Registry {
	r := &Registry{currencies: make(map[string]Currency, len(currencies))}
	for _, c := range currencies {
		c.Code = strings.ToLower(c.Code)
		r.currencies[c.Code] = c
		r.ordered = append(r.ordered, c)
	}
	return r
}

// DefaultRegistry returns the registry used when no currencies file is
// configured: cad, ngn and usd, all with 2-decimal minor units.
func DefaultRegistry() *Registry {
	return NewRegistry([]Currency{
		{Code: "cad", Decimals: 2},
		{Code: "ngn", Decimals: 2},
		{Code: "usd", Decimals: 2},
	})
}

func LoadRegistry(currenciesFile string) (*Registry, error) {
	var path string
	if filepath.IsAbs(currenciesFile) {
		path = currenciesFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, currenciesFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", currenciesFile, err)
	}

	var config CurrenciesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", currenciesFile, err)
	}

	for i, currency := range config.Currencies {
		if currency.Code == "" {
			return nil, fmt.Errorf("currency at index %d missing code", i)
		}
		if currency.Decimals < 0 {
			return nil, fmt.Errorf("currency %s has negative decimals", currency.Code)
		}
	}

	return NewRegistry(config.Currencies), nil
}

// IsSupported reports whether the currency code is in the registry.
func (r *Registry) IsSupported(code string) bool {
	_, ok := r.currencies[strings.ToLower(code)]
	return ok
}

func (r *Registry) Get(code string) (Currency, bool) {
	c, ok := r.currencies[strings.ToLower(code)]
	return c, ok
}

// Codes returns the supported currency codes in registry order.
func (r *Registry) Codes() []string {
	codes := make([]string, len(r.ordered))
	for i, c := range r.ordered {
		codes[i] = c.Code
	}
	return codes
}
