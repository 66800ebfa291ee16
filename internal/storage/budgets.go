package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aikirias/FinTrack/internal/core"
)

// CreateBudget inserts a budget with its items. Callers that need the whole
// insert to be atomic run it through WithTx. A second budget for the same
// (user, month, currency) fails with core.ErrDuplicateBudget.
func (q *Queries) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO budgets (user_id, month, currency_code, name, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		b.UserID, fmtDate(b.Month), string(b.Currency), b.Name, fmtTime(time.Now().UTC()))
	if err != nil {
		if isUniqueViolation(err) {
			return core.Budget{}, core.ErrDuplicateBudget
		}
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return core.Budget{}, fmt.Errorf("budget id: %w", err)
	}

	for i := range b.Items {
		item := &b.Items[i]
		item.BudgetID = b.ID
		res, err := q.db.ExecContext(ctx, `
			INSERT INTO budget_items (budget_id, category_id, amount)
			VALUES (?, ?, ?)`,
			item.BudgetID, item.CategoryID, item.Amount.String())
		if err != nil {
			return core.Budget{}, fmt.Errorf("insert budget item: %w", err)
		}
		if item.ID, err = res.LastInsertId(); err != nil {
			return core.Budget{}, fmt.Errorf("budget item id: %w", err)
		}
	}
	return b, nil
}

func (q *Queries) GetBudget(ctx context.Context, userID, id int64) (core.Budget, error) {
	var (
		b        core.Budget
		month    string
		currency string
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT id, user_id, month, currency_code, name
		FROM budgets WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&b.ID, &b.UserID, &month, &currency, &b.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("scan budget: %w", err)
	}
	if b.Month, err = parseDate(month); err != nil {
		return core.Budget{}, fmt.Errorf("parse budget month: %w", err)
	}
	b.Currency = core.Currency(currency)

	rows, err := q.db.QueryContext(ctx, `
		SELECT id, budget_id, category_id, amount
		FROM budget_items WHERE budget_id = ? ORDER BY id`, b.ID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("list budget items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item   core.BudgetItem
			amount string
		)
		if err := rows.Scan(&item.ID, &item.BudgetID, &item.CategoryID, &amount); err != nil {
			return core.Budget{}, fmt.Errorf("scan budget item: %w", err)
		}
		if item.Amount, err = parseDecimal(amount); err != nil {
			return core.Budget{}, fmt.Errorf("parse budget amount: %w", err)
		}
		b.Items = append(b.Items, item)
	}
	return b, rows.Err()
}
