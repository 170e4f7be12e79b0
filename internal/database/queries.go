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

package database

const (
	// User queries
	queryGetActiveUsers = `
		SELECT id, name, email, password_hash, active, created_at, updated_at
		FROM users
		WHERE active = 1 AND deleted_at IS NULL
		ORDER BY created_at`

	queryInsertUser = `
		INSERT INTO users (id, name, email, password_hash) VALUES (?, ?, ?, ?)`

	queryGetUserById = `
		SELECT id, name, email, password_hash, active, created_at, updated_at
		FROM users
		WHERE id = ? AND active = 1 AND deleted_at IS NULL`

	queryGetUserByEmail = `
		SELECT id, name, email, password_hash, active, created_at, updated_at
		FROM users
		WHERE email = ? AND active = 1 AND deleted_at IS NULL`

	// Trade queries

	// available_amount is derived: the trade amount minus every
	// accepted-or-paid buy offer against it.
	tradeColumns = `
		t.id, t.user_id, t.amount, t.from_currency, t.to_currency, t.rate,
		t.status, t.version, t.created_at, t.updated_at,
		t.amount - COALESCE((
			SELECT SUM(x.amount) FROM transactions x
			WHERE x.trade_id = t.id AND x.type = 'buy'
			  AND x.status IN ('accepted', 'paid') AND x.deleted_at IS NULL
		), 0) AS available_amount`

	queryInsertTrade = `
		INSERT INTO trades (id, user_id, amount, from_currency, to_currency, rate, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetTradeById = `
		SELECT ` + tradeColumns + `
		FROM trades t
		WHERE t.id = ? AND t.deleted_at IS NULL`

	queryUpdateTradeStatus = `
		UPDATE trades
		SET status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ? AND deleted_at IS NULL`

	// Transaction queries
	transactionColumns = `
		id, trade_id, seller_id, buyer_id, amount, currency, type, status, fee,
		reference_transaction_id, created_at, updated_at`

	queryInsertTransaction = `
		INSERT INTO transactions (id, trade_id, seller_id, buyer_id, amount, currency, type, status, fee, reference_transaction_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetTransactionById = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = ? AND deleted_at IS NULL`

	queryCountOpenBuyerOffers = `
		SELECT COUNT(*) FROM transactions
		WHERE trade_id = ? AND buyer_id = ? AND status = 'open' AND deleted_at IS NULL`

	querySumClosedBuyOffers = `
		SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE trade_id = ? AND type = 'buy'
		  AND status IN ('accepted', 'paid') AND deleted_at IS NULL`

	queryUpdateTransactionStatus = `
		UPDATE transactions
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'open' AND deleted_at IS NULL`

	querySetReferenceTransaction = `
		UPDATE transactions
		SET reference_transaction_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted_at IS NULL`

	queryListOpenBuyOffers = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE trade_id = ? AND type = 'buy' AND status = 'open' AND deleted_at IS NULL
		ORDER BY created_at, id`

	queryListClosedTransactionsWithoutInvoice = `
		SELECT ` + transactionColumns + `
		FROM transactions tx
		WHERE tx.trade_id = ? AND tx.status IN ('accepted', 'paid') AND tx.deleted_at IS NULL
		  AND NOT EXISTS (
			SELECT 1 FROM invoices i
			WHERE i.transaction_id = tx.id AND i.deleted_at IS NULL
		  )
		ORDER BY tx.created_at, tx.id`

	// Invoice queries
	invoiceColumns = `
		id, transaction_id, user_id, amount, currency, status, reference_no,
		due_date, paid_at, created_at, updated_at`

	queryInsertInvoice = `
		INSERT INTO invoices (id, transaction_id, user_id, amount, currency, status, reference_no, due_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetInvoiceById = `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE id = ? AND deleted_at IS NULL`

	queryGetLatestInvoiceForTransaction = `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE transaction_id = ? AND deleted_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	queryListDraftInvoicesPastDue = `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE status = 'draft' AND due_date IS NOT NULL AND due_date < ? AND deleted_at IS NULL
		ORDER BY due_date`

	// Status is the only mutable invoice column; reference_no stays as
	// written at insert time.
	queryUpdateInvoiceStatus = `
		UPDATE invoices
		SET status = ?, paid_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted_at IS NULL`
)
