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

package exchange

import (
	"plex-exchange-go/internal/fees"
	"plex-exchange-go/internal/money"
	"plex-exchange-go/internal/store"
)

// statusUpdateRetries bounds the optimistic-concurrency retry loop on
// trade status writes.
const statusUpdateRetries = 3

// Service is the trade orchestrator: the trade and transaction state
// machines, amount normalization into minor units, fee assignment and
// event dispatch, on top of a MarketStore.
type Service struct {
	store      store.MarketStore
	registry   *money.Registry
	fees       *fees.Engine
	dispatcher *Dispatcher
}

func NewService(marketStore store.MarketStore, registry *money.Registry, feeEngine *fees.Engine, dispatcher *Dispatcher) *Service {
	s := &Service{
		store:      marketStore,
		registry:   registry,
		fees:       feeEngine,
		dispatcher: dispatcher,
	}
	// Trade status recompute reacts first to every pair acceptance, so
	// later handlers observe the updated trade.
	dispatcher.OnTransactionsAccepted(s.updateAcceptedTradeTransactions)
	return s
}

func (s *Service) Registry() *money.Registry {
	return s.registry
}

func (s *Service) Store() store.MarketStore {
	return s.store
}

func (s *Service) Dispatcher() *Dispatcher {
	return s.dispatcher
}
