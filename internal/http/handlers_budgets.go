package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aikirias/FinTrack/internal/core"
	"github.com/aikirias/FinTrack/internal/storage"
)

type budgetRequest struct {
	Month    string              `json:"month"`
	Currency string              `json:"currency"`
	Name     string              `json:"name"`
	Items    []budgetItemRequest `json:"items"`
}

type budgetItemRequest struct {
	CategoryID int64           `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
}

type budgetResponse struct {
	ID       int64                `json:"id"`
	Month    string               `json:"month"`
	Currency core.Currency        `json:"currency"`
	Name     string               `json:"name,omitempty"`
	Items    []budgetItemResponse `json:"items"`
}

type budgetItemResponse struct {
	ID         int64           `json:"id"`
	CategoryID int64           `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
}

func toBudgetResponse(b core.Budget) budgetResponse {
	out := budgetResponse{
		ID:       b.ID,
		Month:    b.Month.Format("2006-01"),
		Currency: b.Currency,
		Name:     b.Name,
		Items:    make([]budgetItemResponse, 0, len(b.Items)),
	}
	for _, item := range b.Items {
		out.Items = append(out.Items, budgetItemResponse{
			ID:         item.ID,
			CategoryID: item.CategoryID,
			Amount:     item.Amount,
		})
	}
	return out
}

// handleCreateBudget stores a monthly budget with its per-category items in
// one transaction.
func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}

	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	month, err := parseMonth(req.Month)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	currency, err := core.ParseCurrency(req.Currency)
	if err != nil {
		writeError(w, r, err)
		return
	}

	budget := core.Budget{
		UserID:   uid,
		Month:    month,
		Currency: currency,
		Name:     req.Name,
		Items:    make([]core.BudgetItem, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		budget.Items = append(budget.Items, core.BudgetItem{
			CategoryID: item.CategoryID,
			Amount:     item.Amount,
		})
	}
	if err := budget.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	var created core.Budget
	err = s.store.WithTx(r.Context(), func(q *storage.Queries) error {
		var txErr error
		created, txErr = q.CreateBudget(r.Context(), budget)
		return txErr
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetResponse(created))
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	budget, err := s.store.GetBudget(r.Context(), uid, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(budget))
}

// parseMonth accepts YYYY-MM or YYYY-MM-DD and pins the result to the first
// day of the month.
func parseMonth(raw string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01", raw, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return time.Time{}, errors.New("invalid month: expected YYYY-MM")
	}
	return core.MonthStart(t), nil
}
