package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aikirias/FinTrack/internal/core"
	"github.com/aikirias/FinTrack/internal/storage"
)

// ReportService reads persisted amounts; it never re-runs conversion. The
// stored derived amounts are authoritative.
type ReportService struct {
	store *storage.SQLiteRepository
}

func NewReportService(store *storage.SQLiteRepository) *ReportService {
	return &ReportService{store: store}
}

type ReportRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

type ReportTotals struct {
	Income    decimal.Decimal `json:"income"`
	Expense   decimal.Decimal `json:"expense"`
	Transfers decimal.Decimal `json:"transfers"`
	Balance   decimal.Decimal `json:"balance"`
}

type BudgetTotals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

type SummaryReport struct {
	Currency       core.Currency `json:"currency"`
	Range          ReportRange   `json:"range"`
	Totals         ReportTotals  `json:"totals"`
	PreviousTotals *ReportTotals `json:"previous_totals,omitempty"`
	BudgetTotals   *BudgetTotals `json:"budget_totals,omitempty"`
}

type TimeseriesPoint struct {
	Period  string          `json:"period"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

type TimeseriesReport struct {
	Currency core.Currency     `json:"currency"`
	Interval string            `json:"interval"`
	Points   []TimeseriesPoint `json:"points"`
}

type CategoryEntry struct {
	CategoryID *int64            `json:"category_id"`
	Name       string            `json:"name"`
	Type       core.CategoryType `json:"type"`
	Total      decimal.Decimal   `json:"total"`
}

type CategoryReport struct {
	Currency core.Currency   `json:"currency"`
	Entries  []CategoryEntry `json:"entries"`
}

// BuildSummary totals the filtered transactions per effective category
// type. previous, when non-nil, produces comparison totals for a second
// filter (typically the preceding period of equal length). Budget totals
// cover the user's currency-matching budgets within the month-normalized
// range and are omitted entirely when no budget rows match.
func (s *ReportService) BuildSummary(ctx context.Context, currency core.Currency, filter core.ReportFilter, previous *core.ReportFilter) (SummaryReport, error) {
	totals, err := s.totalsFor(ctx, currency, filter)
	if err != nil {
		return SummaryReport{}, err
	}

	report := SummaryReport{
		Currency: currency,
		Range:    ReportRange{Start: filter.Start, End: filter.End},
		Totals:   totals,
	}

	if previous != nil {
		prev, err := s.totalsFor(ctx, currency, *previous)
		if err != nil {
			return SummaryReport{}, err
		}
		report.PreviousTotals = &prev
	}

	if filter.Start != nil && filter.End != nil {
		budget, found, err := s.store.SumBudgetByType(ctx, filter.UserID, currency,
			core.MonthStart(*filter.Start), core.MonthStart(*filter.End))
		if err != nil {
			return SummaryReport{}, err
		}
		if found {
			report.BudgetTotals = &BudgetTotals{
				Income:  budget[core.Income],
				Expense: budget[core.Expense],
			}
		}
	}

	return report, nil
}

func (s *ReportService) totalsFor(ctx context.Context, currency core.Currency, filter core.ReportFilter) (ReportTotals, error) {
	sums, err := s.store.SumByEffectiveType(ctx, filter, currency)
	if err != nil {
		return ReportTotals{}, err
	}
	totals := ReportTotals{
		Income:    sums[core.Income],
		Expense:   sums[core.Expense],
		Transfers: sums[core.Transfer],
	}
	totals.Balance = totals.Income.Sub(totals.Expense)
	return totals, nil
}

// BuildTimeseries buckets income and expense by calendar day or month.
// Buckets are sparse: only periods with at least one matching transaction
// appear, in ascending order. Transfers do not contribute points.
func (s *ReportService) BuildTimeseries(ctx context.Context, currency core.Currency, filter core.ReportFilter, interval string) (TimeseriesReport, error) {
	rows, err := s.store.SumByBucket(ctx, filter, currency, interval)
	if err != nil {
		return TimeseriesReport{}, err
	}

	report := TimeseriesReport{Currency: currency, Interval: interval}
	index := make(map[string]int)
	for _, row := range rows {
		if row.Type != core.Income && row.Type != core.Expense {
			continue
		}
		i, ok := index[row.Bucket]
		if !ok {
			i = len(report.Points)
			index[row.Bucket] = i
			report.Points = append(report.Points, TimeseriesPoint{Period: row.Bucket})
		}
		if row.Type == core.Income {
			report.Points[i].Income = row.Total
		} else {
			report.Points[i].Expense = row.Total
		}
	}
	return report, nil
}

// BuildCategoryReport groups totals by effective root category: amounts of
// subcategorized transactions roll up to the subcategory's parent.
func (s *ReportService) BuildCategoryReport(ctx context.Context, currency core.Currency, filter core.ReportFilter, typeFilter *core.CategoryType) (CategoryReport, error) {
	rows, err := s.store.SumByRootCategory(ctx, filter, currency, typeFilter)
	if err != nil {
		return CategoryReport{}, err
	}

	report := CategoryReport{Currency: currency, Entries: make([]CategoryEntry, 0, len(rows))}
	for _, row := range rows {
		report.Entries = append(report.Entries, CategoryEntry{
			CategoryID: row.CategoryID,
			Name:       row.Name,
			Type:       row.Type,
			Total:      row.Total,
		})
	}
	return report, nil
}
