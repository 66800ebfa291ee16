package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aikirias/FinTrack/internal/core"
	"github.com/aikirias/FinTrack/internal/storage"
)

type reportFixture struct {
	store     *storage.SQLiteRepository
	reports   *ReportService
	userID    int64
	accountID int64
	salario   core.Category
	comida    core.Category
	superm    core.Category
	transf    core.Category
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	store := newTestStore(t)
	userID, accountID := seedUserAccount(t, store)
	ctx := context.Background()

	mkCat := func(name string, typ core.CategoryType, parent *int64) core.Category {
		c, err := store.CreateCategory(ctx, core.Category{
			UserID: userID, Name: name, Type: typ, ParentID: parent,
		})
		if err != nil {
			t.Fatalf("CreateCategory(%s) error = %v", name, err)
		}
		return c
	}

	f := &reportFixture{
		store:     store,
		reports:   NewReportService(store),
		userID:    userID,
		accountID: accountID,
	}
	f.salario = mkCat("Salario", core.Income, nil)
	f.comida = mkCat("Comida", core.Expense, nil)
	f.superm = mkCat("Supermercado", core.Expense, &f.comida.ID)
	f.transf = mkCat("Transferencias", core.Transfer, nil)
	return f
}

func (f *reportFixture) addTxn(t *testing.T, date time.Time, ars string, catID, subID *int64) {
	t.Helper()
	amount, err := decimal.NewFromString(ars)
	if err != nil {
		t.Fatalf("bad amount %q: %v", ars, err)
	}
	if _, err := f.store.CreateTransaction(context.Background(), core.Transaction{
		UserID:         f.userID,
		AccountID:      f.accountID,
		CategoryID:     catID,
		SubcategoryID:  subID,
		Date:           date,
		Currency:       core.ARS,
		RateType:       core.RateOfficial,
		AmountOriginal: amount,
		AmountARS:      amount,
		AmountUSD:      amount.Div(decimal.NewFromInt(1000)).Round(8),
		AmountBTC:      amount.Div(decimal.NewFromInt(65000000)).Round(8),
	}); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
}

func TestBuildSummary(t *testing.T) {
	f := newReportFixture(t)
	march := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	f.addTxn(t, march.AddDate(0, 0, 4), "500000", &f.salario.ID, nil)
	f.addTxn(t, march.AddDate(0, 0, 5), "120000", &f.comida.ID, nil)
	f.addTxn(t, march.AddDate(0, 0, 6), "30000", &f.comida.ID, &f.superm.ID)
	f.addTxn(t, march.AddDate(0, 0, 7), "50000", &f.transf.ID, nil)

	end := march.AddDate(0, 1, 0).Add(-time.Second)
	report, err := f.reports.BuildSummary(context.Background(), core.ARS,
		core.ReportFilter{UserID: f.userID, Start: &march, End: &end}, nil)
	if err != nil {
		t.Fatalf("BuildSummary() error = %v", err)
	}

	if !report.Totals.Income.Equal(decimal.NewFromInt(500000)) {
		t.Errorf("income = %s, want 500000", report.Totals.Income)
	}
	if !report.Totals.Expense.Equal(decimal.NewFromInt(150000)) {
		t.Errorf("expense = %s, want 150000", report.Totals.Expense)
	}
	if !report.Totals.Transfers.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("transfers = %s, want 50000", report.Totals.Transfers)
	}
	if !report.Totals.Balance.Equal(decimal.NewFromInt(350000)) {
		t.Errorf("balance = %s, want 350000", report.Totals.Balance)
	}
	if report.PreviousTotals != nil {
		t.Error("previous totals present without a previous filter")
	}
	if report.BudgetTotals != nil {
		t.Error("budget totals present without budgets")
	}
}

func TestBuildSummaryUncategorizedDefaultsToExpense(t *testing.T) {
	f := newReportFixture(t)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	f.addTxn(t, day, "7000", nil, nil)

	report, err := f.reports.BuildSummary(context.Background(), core.ARS,
		core.ReportFilter{UserID: f.userID}, nil)
	if err != nil {
		t.Fatalf("BuildSummary() error = %v", err)
	}
	if !report.Totals.Expense.Equal(decimal.NewFromInt(7000)) {
		t.Errorf("expense = %s, want 7000 (uncategorized counts as expense)", report.Totals.Expense)
	}
}

func TestBuildSummaryPreviousPeriod(t *testing.T) {
	f := newReportFixture(t)
	march := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	f.addTxn(t, march.AddDate(0, 0, 3), "100000", &f.salario.ID, nil)
	f.addTxn(t, feb.AddDate(0, 0, 3), "80000", &f.salario.ID, nil)

	marchEnd := march.AddDate(0, 1, 0).Add(-time.Second)
	febEnd := feb.AddDate(0, 1, 0).Add(-time.Second)
	report, err := f.reports.BuildSummary(context.Background(), core.ARS,
		core.ReportFilter{UserID: f.userID, Start: &march, End: &marchEnd},
		&core.ReportFilter{UserID: f.userID, Start: &feb, End: &febEnd})
	if err != nil {
		t.Fatalf("BuildSummary() error = %v", err)
	}
	if report.PreviousTotals == nil {
		t.Fatal("previous totals missing")
	}
	if !report.PreviousTotals.Income.Equal(decimal.NewFromInt(80000)) {
		t.Errorf("previous income = %s, want 80000", report.PreviousTotals.Income)
	}
}

func TestBuildSummaryBudgetTotals(t *testing.T) {
	f := newReportFixture(t)
	march := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	if _, err := f.store.CreateBudget(ctx, core.Budget{
		UserID:   f.userID,
		Month:    march,
		Currency: core.ARS,
		Name:     "Marzo",
		Items: []core.BudgetItem{
			{CategoryID: f.comida.ID, Amount: decimal.NewFromInt(200000)},
			{CategoryID: f.salario.ID, Amount: decimal.NewFromInt(600000)},
		},
	}); err != nil {
		t.Fatalf("CreateBudget() error = %v", err)
	}

	end := march.AddDate(0, 1, 0).Add(-time.Second)
	report, err := f.reports.BuildSummary(ctx, core.ARS,
		core.ReportFilter{UserID: f.userID, Start: &march, End: &end}, nil)
	if err != nil {
		t.Fatalf("BuildSummary() error = %v", err)
	}
	if report.BudgetTotals == nil {
		t.Fatal("budget totals missing")
	}
	if !report.BudgetTotals.Expense.Equal(decimal.NewFromInt(200000)) {
		t.Errorf("budget expense = %s, want 200000", report.BudgetTotals.Expense)
	}
	if !report.BudgetTotals.Income.Equal(decimal.NewFromInt(600000)) {
		t.Errorf("budget income = %s, want 600000", report.BudgetTotals.Income)
	}

	// A different currency has no budgets; the block must disappear.
	usdReport, err := f.reports.BuildSummary(ctx, core.USD,
		core.ReportFilter{UserID: f.userID, Start: &march, End: &end}, nil)
	if err != nil {
		t.Fatalf("BuildSummary(USD) error = %v", err)
	}
	if usdReport.BudgetTotals != nil {
		t.Error("USD budget totals present without USD budgets")
	}
}

func TestBuildTimeseriesDaily(t *testing.T) {
	f := newReportFixture(t)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	f.addTxn(t, day, "1000", &f.comida.ID, nil)
	f.addTxn(t, day.Add(4*time.Hour), "2000", &f.comida.ID, nil)
	f.addTxn(t, day.AddDate(0, 0, 2), "500", &f.salario.ID, nil)
	// Transfers never produce points.
	f.addTxn(t, day.AddDate(0, 0, 5), "9999", &f.transf.ID, nil)

	report, err := f.reports.BuildTimeseries(context.Background(), core.ARS,
		core.ReportFilter{UserID: f.userID}, "day")
	if err != nil {
		t.Fatalf("BuildTimeseries() error = %v", err)
	}
	if len(report.Points) != 2 {
		t.Fatalf("points = %d, want 2 (sparse, transfer day absent)", len(report.Points))
	}
	if report.Points[0].Period != "2025-03-10" || report.Points[1].Period != "2025-03-12" {
		t.Errorf("periods = %s, %s, want 2025-03-10, 2025-03-12",
			report.Points[0].Period, report.Points[1].Period)
	}
	if !report.Points[0].Expense.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("day 10 expense = %s, want 3000", report.Points[0].Expense)
	}
	if !report.Points[1].Income.Equal(decimal.NewFromInt(500)) {
		t.Errorf("day 12 income = %s, want 500", report.Points[1].Income)
	}
}

func TestBuildTimeseriesMonthly(t *testing.T) {
	f := newReportFixture(t)

	f.addTxn(t, time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC), "100", &f.comida.ID, nil)
	f.addTxn(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), "200", &f.comida.ID, nil)
	f.addTxn(t, time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC), "300", &f.comida.ID, nil)

	report, err := f.reports.BuildTimeseries(context.Background(), core.ARS,
		core.ReportFilter{UserID: f.userID}, "month")
	if err != nil {
		t.Fatalf("BuildTimeseries() error = %v", err)
	}
	if len(report.Points) != 2 {
		t.Fatalf("points = %d, want 2", len(report.Points))
	}
	if report.Points[1].Period != "2025-03-01" {
		t.Errorf("second period = %s, want 2025-03-01", report.Points[1].Period)
	}
	if !report.Points[1].Expense.Equal(decimal.NewFromInt(500)) {
		t.Errorf("march expense = %s, want 500", report.Points[1].Expense)
	}
}

func TestBuildTimeseriesUnsupportedInterval(t *testing.T) {
	f := newReportFixture(t)
	_, err := f.reports.BuildTimeseries(context.Background(), core.ARS,
		core.ReportFilter{UserID: f.userID}, "week")
	if !errors.Is(err, core.ErrUnsupportedInterval) {
		t.Fatalf("error = %v, want ErrUnsupportedInterval", err)
	}
}

func TestBuildCategoryReportRollsUpToParent(t *testing.T) {
	f := newReportFixture(t)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	f.addTxn(t, day, "1000", &f.comida.ID, nil)
	f.addTxn(t, day, "4000", &f.comida.ID, &f.superm.ID)
	f.addTxn(t, day, "300", nil, nil)

	expense := core.Expense
	report, err := f.reports.BuildCategoryReport(context.Background(), core.ARS,
		core.ReportFilter{UserID: f.userID}, &expense)
	if err != nil {
		t.Fatalf("BuildCategoryReport() error = %v", err)
	}
	if len(report.Entries) != 2 {
		t.Fatalf("entries = %d, want 2 (Comida and Uncategorized)", len(report.Entries))
	}

	// Sorted by total descending: Comida (5000) first.
	first := report.Entries[0]
	if first.CategoryID == nil || *first.CategoryID != f.comida.ID {
		t.Errorf("first entry = %+v, want Comida %d", first, f.comida.ID)
	}
	if !first.Total.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("Comida total = %s, want 5000 (subcategory rolled up)", first.Total)
	}

	second := report.Entries[1]
	if second.CategoryID != nil || second.Name != "Uncategorized" {
		t.Errorf("second entry = %+v, want the Uncategorized bucket", second)
	}
	if !second.Total.Equal(decimal.NewFromInt(300)) {
		t.Errorf("Uncategorized total = %s, want 300", second.Total)
	}
}

func TestBuildSummaryUnsupportedCurrency(t *testing.T) {
	f := newReportFixture(t)
	_, err := f.reports.BuildSummary(context.Background(), core.Currency("EUR"),
		core.ReportFilter{UserID: f.userID}, nil)
	if !errors.Is(err, core.ErrUnsupportedCurrency) {
		t.Fatalf("error = %v, want ErrUnsupportedCurrency", err)
	}
}
