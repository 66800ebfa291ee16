package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aikirias/FinTrack/internal/core"
)

// effectiveTypeExpr is the reporting type of a transaction: the
// subcategory's type when one is set, else the category's type, else the
// documented "expense" default for uncategorized rows.
const effectiveTypeExpr = `COALESCE(CASE WHEN sub.id IS NOT NULL THEN sub.type ELSE cat.type END, 'expense')`

const reportJoins = `
	FROM transactions t
	LEFT JOIN categories cat ON t.category_id = cat.id
	LEFT JOIN categories sub ON t.subcategory_id = sub.id`

func amountColumn(currency core.Currency) (string, error) {
	switch currency {
	case core.ARS:
		return "t.amount_ars", nil
	case core.USD:
		return "t.amount_usd", nil
	case core.BTC:
		return "t.amount_btc", nil
	}
	return "", core.ErrUnsupportedCurrency
}

// sumTotal converts an aggregate back to decimal. SQLite evaluates SUM over
// the TEXT amount columns in REAL arithmetic, so totals arrive as float64 no
// matter how the column is scanned; Round(8) restores the stored scale.
func sumTotal(total float64) decimal.Decimal {
	return decimal.NewFromFloat(total).Round(8)
}

func reportWhere(f core.ReportFilter) (string, []any) {
	where := []string{"t.user_id = ?"}
	args := []any{f.UserID}
	if f.Start != nil {
		where = append(where, "t.transaction_date >= ?")
		args = append(args, fmtTime(*f.Start))
	}
	if f.End != nil {
		where = append(where, "t.transaction_date <= ?")
		args = append(args, fmtTime(*f.End))
	}
	if len(f.AccountIDs) > 0 {
		where = append(where, "t.account_id IN ("+placeholders(len(f.AccountIDs))+")")
		for _, id := range f.AccountIDs {
			args = append(args, id)
		}
	}
	if len(f.CategoryIDs) > 0 {
		where = append(where, "t.category_id IN ("+placeholders(len(f.CategoryIDs))+")")
		for _, id := range f.CategoryIDs {
			args = append(args, id)
		}
	}
	return strings.Join(where, " AND "), args
}

// SumByEffectiveType returns the per-type totals of the selected amount
// column. Types without matching transactions are absent from the map.
func (q *Queries) SumByEffectiveType(ctx context.Context, f core.ReportFilter, currency core.Currency) (map[core.CategoryType]decimal.Decimal, error) {
	column, err := amountColumn(currency)
	if err != nil {
		return nil, err
	}
	where, args := reportWhere(f)

	rows, err := q.db.QueryContext(ctx, `
		SELECT `+effectiveTypeExpr+` AS category_type,
		       COALESCE(SUM(`+column+`), 0) AS total`+
		reportJoins+`
		WHERE `+where+`
		GROUP BY category_type`, args...)
	if err != nil {
		return nil, fmt.Errorf("sum by type: %w", err)
	}
	defer rows.Close()

	totals := make(map[core.CategoryType]decimal.Decimal)
	for rows.Next() {
		var (
			typ   string
			total float64
		)
		if err := rows.Scan(&typ, &total); err != nil {
			return nil, fmt.Errorf("scan type total: %w", err)
		}
		totals[core.CategoryType(typ)] = sumTotal(total)
	}
	return totals, rows.Err()
}

type TimeseriesRow struct {
	Bucket string // YYYY-MM-DD, first of month for monthly buckets
	Type   core.CategoryType
	Total  decimal.Decimal
}

// SumByBucket groups the selected amount column by calendar day or month.
// Timestamps are fixed-width UTC text, so the bucket key is a plain prefix.
func (q *Queries) SumByBucket(ctx context.Context, f core.ReportFilter, currency core.Currency, interval string) ([]TimeseriesRow, error) {
	column, err := amountColumn(currency)
	if err != nil {
		return nil, err
	}

	var bucket string
	switch interval {
	case "day":
		bucket = "substr(t.transaction_date, 1, 10)"
	case "month":
		bucket = "substr(t.transaction_date, 1, 7) || '-01'"
	default:
		return nil, core.ErrUnsupportedInterval
	}

	where, args := reportWhere(f)
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+bucket+` AS bucket,
		       `+effectiveTypeExpr+` AS category_type,
		       COALESCE(SUM(`+column+`), 0) AS total`+
		reportJoins+`
		WHERE `+where+`
		GROUP BY bucket, category_type
		ORDER BY bucket ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("sum by bucket: %w", err)
	}
	defer rows.Close()

	var out []TimeseriesRow
	for rows.Next() {
		var (
			r     TimeseriesRow
			typ   string
			total float64
		)
		if err := rows.Scan(&r.Bucket, &typ, &total); err != nil {
			return nil, fmt.Errorf("scan bucket row: %w", err)
		}
		r.Type = core.CategoryType(typ)
		r.Total = sumTotal(total)
		out = append(out, r)
	}
	return out, rows.Err()
}

type CategoryTotalRow struct {
	CategoryID *int64 // nil for the uncategorized bucket
	Name       string
	Type       core.CategoryType
	Total      decimal.Decimal
}

// SumByRootCategory attributes each transaction to its effective root
// category: the subcategory's parent when a subcategory is set, else the
// category itself, else the uncategorized bucket. Sorted by total descending.
func (q *Queries) SumByRootCategory(ctx context.Context, f core.ReportFilter, currency core.Currency, typeFilter *core.CategoryType) ([]CategoryTotalRow, error) {
	column, err := amountColumn(currency)
	if err != nil {
		return nil, err
	}

	where, args := reportWhere(f)
	if typeFilter != nil {
		where += " AND " + effectiveTypeExpr + " = ?"
		args = append(args, string(*typeFilter))
	}

	rows, err := q.db.QueryContext(ctx, `
		SELECT CASE WHEN sub.parent_id IS NOT NULL THEN sub.parent_id ELSE cat.id END AS category_id,
		       COALESCE(CASE WHEN sub.parent_id IS NOT NULL THEN parent.name ELSE cat.name END, 'Uncategorized') AS name,
		       `+effectiveTypeExpr+` AS category_type,
		       COALESCE(SUM(`+column+`), 0) AS total`+
		reportJoins+`
		LEFT JOIN categories parent ON sub.parent_id = parent.id
		WHERE `+where+`
		GROUP BY category_id, 2, category_type
		ORDER BY SUM(`+column+`) DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("sum by root category: %w", err)
	}
	defer rows.Close()

	var out []CategoryTotalRow
	for rows.Next() {
		var (
			r     CategoryTotalRow
			id    sql.NullInt64
			typ   string
			total float64
		)
		if err := rows.Scan(&id, &r.Name, &typ, &total); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		if id.Valid {
			r.CategoryID = &id.Int64
		}
		r.Type = core.CategoryType(typ)
		r.Total = sumTotal(total)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SumBudgetByType totals budget items per category type for the user's
// budgets matching the currency and month range (both ends inclusive,
// month precision). found is false when no budget rows matched at all.
func (q *Queries) SumBudgetByType(ctx context.Context, userID int64, currency core.Currency, startMonth, endMonth time.Time) (map[core.CategoryType]decimal.Decimal, bool, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT c.type, COALESCE(SUM(bi.amount), 0) AS total
		FROM budget_items bi
		JOIN budgets b ON bi.budget_id = b.id
		JOIN categories c ON bi.category_id = c.id
		WHERE b.user_id = ? AND b.currency_code = ? AND b.month >= ? AND b.month <= ?
		GROUP BY c.type`,
		userID, string(currency), fmtDate(startMonth), fmtDate(endMonth))
	if err != nil {
		return nil, false, fmt.Errorf("sum budget by type: %w", err)
	}
	defer rows.Close()

	totals := make(map[core.CategoryType]decimal.Decimal)
	found := false
	for rows.Next() {
		var (
			typ   string
			total float64
		)
		if err := rows.Scan(&typ, &total); err != nil {
			return nil, false, fmt.Errorf("scan budget total: %w", err)
		}
		totals[core.CategoryType(typ)] = sumTotal(total)
		found = true
	}
	return totals, found, rows.Err()
}
