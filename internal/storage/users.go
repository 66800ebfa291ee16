package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aikirias/FinTrack/internal/core"
)

// User and account rows exist to anchor foreign keys; their management UI
// lives outside this service.

func (q *Queries) CreateUser(ctx context.Context, email string) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO users (email, created_at) VALUES (?, ?)`,
		email, fmtTime(time.Now().UTC()))
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user id: %w", err)
	}
	return id, nil
}

func (q *Queries) CreateAccount(ctx context.Context, userID int64, name string, currency core.Currency) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO accounts (user_id, name, currency_code, created_at) VALUES (?, ?, ?, ?)`,
		userID, name, string(currency), fmtTime(time.Now().UTC()))
	if err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("account id: %w", err)
	}
	return id, nil
}

func (q *Queries) AccountExists(ctx context.Context, userID, accountID int64) (bool, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM accounts WHERE id = ? AND user_id = ?`,
		accountID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check account: %w", err)
	}
	return n > 0, nil
}
