package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aikirias/FinTrack/internal/core"
)

const transactionColumns = `id, user_id, account_id, category_id, subcategory_id,
	exchange_rate_id, transaction_date, currency_code, rate_type,
	amount_original, amount_ars, amount_usd, amount_btc, notes,
	created_at, updated_at`

func (q *Queries) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO transactions (
			user_id, account_id, category_id, subcategory_id, exchange_rate_id,
			transaction_date, currency_code, rate_type,
			amount_original, amount_ars, amount_usd, amount_btc,
			notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.AccountID, nullableID(t.CategoryID), nullableID(t.SubcategoryID),
		nullableID(t.ExchangeRateID),
		fmtTime(t.Date), string(t.Currency), string(t.RateType),
		t.AmountOriginal.String(), t.AmountARS.String(), t.AmountUSD.String(), t.AmountBTC.String(),
		t.Notes, fmtTime(now), fmtTime(now))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}
	return q.GetTransaction(ctx, t.UserID, id)
}

func (q *Queries) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	return scanTransaction(row)
}

// UpdateTransaction rewrites every mutable column of the row. Derived
// amounts are only ever written together with the inputs that produced them.
func (q *Queries) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE transactions SET
			account_id = ?, category_id = ?, subcategory_id = ?, exchange_rate_id = ?,
			transaction_date = ?, currency_code = ?, rate_type = ?,
			amount_original = ?, amount_ars = ?, amount_usd = ?, amount_btc = ?,
			notes = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		t.AccountID, nullableID(t.CategoryID), nullableID(t.SubcategoryID),
		nullableID(t.ExchangeRateID),
		fmtTime(t.Date), string(t.Currency), string(t.RateType),
		t.AmountOriginal.String(), t.AmountARS.String(), t.AmountUSD.String(), t.AmountBTC.String(),
		t.Notes, fmtTime(time.Now().UTC()),
		t.ID, t.UserID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Transaction{}, core.ErrNotFound
	}
	return q.GetTransaction(ctx, t.UserID, t.ID)
}

// UpdateTransactionAmounts rewrites only the derived amounts and the quote
// reference. Used by reprocessing, which never touches the original amount.
func (q *Queries) UpdateTransactionAmounts(ctx context.Context, id int64, amounts core.Amounts, exchangeRateID *int64) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE transactions SET
			amount_ars = ?, amount_usd = ?, amount_btc = ?,
			exchange_rate_id = ?, updated_at = ?
		WHERE id = ?`,
		amounts.ARS.String(), amounts.USD.String(), amounts.BTC.String(),
		nullableID(exchangeRateID), fmtTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("update transaction amounts: %w", err)
	}
	return nil
}

func (q *Queries) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

type ListTransactionsParams struct {
	UserID      int64
	Start       *time.Time
	End         *time.Time
	CategoryIDs []int64
	AccountIDs  []int64
	Currency    core.Currency
	Search      string
	Limit       int
	Offset      int
}

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]core.Transaction, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{arg.UserID}
	)
	if arg.Start != nil {
		where = append(where, "transaction_date >= ?")
		args = append(args, fmtTime(*arg.Start))
	}
	if arg.End != nil {
		where = append(where, "transaction_date <= ?")
		args = append(args, fmtTime(*arg.End))
	}
	if len(arg.CategoryIDs) > 0 {
		where = append(where, "category_id IN ("+placeholders(len(arg.CategoryIDs))+")")
		for _, id := range arg.CategoryIDs {
			args = append(args, id)
		}
	}
	if len(arg.AccountIDs) > 0 {
		where = append(where, "account_id IN ("+placeholders(len(arg.AccountIDs))+")")
		for _, id := range arg.AccountIDs {
			args = append(args, id)
		}
	}
	if arg.Currency != "" {
		where = append(where, "currency_code = ?")
		args = append(args, string(arg.Currency))
	}
	if arg.Search != "" {
		where = append(where, "notes LIKE ?")
		args = append(args, "%"+arg.Search+"%")
	}

	limit := arg.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, arg.Offset)

	rows, err := q.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY transaction_date DESC, id DESC
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListTransactionsInRange returns every transaction of the user whose date
// falls inside the (optionally half-open) range, oldest first. This is the
// reprocessing candidate set.
func (q *Queries) ListTransactionsInRange(ctx context.Context, userID int64, start, end *time.Time) ([]core.Transaction, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{userID}
	)
	if start != nil {
		where = append(where, "transaction_date >= ?")
		args = append(args, fmtTime(*start))
	}
	if end != nil {
		where = append(where, "transaction_date <= ?")
		args = append(args, fmtTime(*end))
	}

	rows, err := q.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY transaction_date ASC, id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions in range: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                    core.Transaction
		categoryID, subID    sql.NullInt64
		rateID               sql.NullInt64
		date, currency, rt   string
		orig, ars, usd, btc  string
		createdAt, updatedAt string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &categoryID, &subID, &rateID,
		&date, &currency, &rt, &orig, &ars, &usd, &btc, &t.Notes,
		&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	if categoryID.Valid {
		t.CategoryID = &categoryID.Int64
	}
	if subID.Valid {
		t.SubcategoryID = &subID.Int64
	}
	if rateID.Valid {
		t.ExchangeRateID = &rateID.Int64
	}
	if t.Date, err = parseTime(date); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date: %w", err)
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Transaction{}, fmt.Errorf("parse created at: %w", err)
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.Transaction{}, fmt.Errorf("parse updated at: %w", err)
	}
	t.Currency = core.Currency(currency)
	t.RateType = core.RateType(rt)
	if t.AmountOriginal, err = parseDecimal(orig); err != nil {
		return core.Transaction{}, fmt.Errorf("parse original amount: %w", err)
	}
	if t.AmountARS, err = parseDecimal(ars); err != nil {
		return core.Transaction{}, fmt.Errorf("parse ARS amount: %w", err)
	}
	if t.AmountUSD, err = parseDecimal(usd); err != nil {
		return core.Transaction{}, fmt.Errorf("parse USD amount: %w", err)
	}
	if t.AmountBTC, err = parseDecimal(btc); err != nil {
		return core.Transaction{}, fmt.Errorf("parse BTC amount: %w", err)
	}
	return t, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
