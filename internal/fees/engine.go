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

package fees

import (
	"fmt"

	"plex-exchange-go/internal/models"
)

// Rule is one step of the fee pipeline: when Condition holds for the
// transaction's current field values, Action mutates it in place.
// Later rules observe the output of earlier ones, so ordering is part
// of the rule set's meaning.
type Rule struct {
	Name      string
	Condition func(*models.Transaction) bool
	Action    func(*models.Transaction) error
}

// Engine applies an ordered list of rules to a transaction undergoing
// creation. It holds no shared state; construct one per wiring.
type Engine struct {
	rules []Rule
}

func NewEngine(rules []Rule) *Engine {
	return &Engine{rules: rules}
}

// Execute runs every rule in order against the transaction. The fee
// must be assigned exactly once per transaction, before it is first
// persisted; callers never re-run the engine on a stored transaction.
func (e *Engine) Execute(transaction *models.Transaction) error {
	for _, rule := range e.rules {
		if !rule.Condition(transaction) {
			continue
		}
		if err := rule.Action(transaction); err != nil {
			return fmt.Errorf("fee rule %q: %w", rule.Name, err)
		}
	}
	return nil
}
