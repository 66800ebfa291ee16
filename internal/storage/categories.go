package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aikirias/FinTrack/internal/core"
)

func (q *Queries) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	var parent any
	if c.ParentID != nil {
		parent = *c.ParentID
	}
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO categories (user_id, name, type, parent_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.UserID, c.Name, string(c.Type), parent, fmtTime(time.Now().UTC()))
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	return c, nil
}

func (q *Queries) GetCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	var (
		c      core.Category
		parent sql.NullInt64
		typ    string
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, type, parent_id
		FROM categories WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&c.ID, &c.UserID, &c.Name, &typ, &parent)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("scan category: %w", err)
	}
	if c.Type, err = core.ParseCategoryType(typ); err != nil {
		return core.Category{}, err
	}
	if parent.Valid {
		c.ParentID = &parent.Int64
	}
	return c, nil
}

func (q *Queries) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, user_id, name, type, parent_id
		FROM categories WHERE user_id = ?
		ORDER BY parent_id IS NOT NULL, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c      core.Category
			parent sql.NullInt64
			typ    string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &typ, &parent); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if c.Type, err = core.ParseCategoryType(typ); err != nil {
			return nil, err
		}
		if parent.Valid {
			c.ParentID = &parent.Int64
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
