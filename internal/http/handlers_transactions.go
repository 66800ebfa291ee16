package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aikirias/FinTrack/internal/core"
	"github.com/aikirias/FinTrack/internal/services"
	"github.com/aikirias/FinTrack/internal/storage"
)

type transactionRequest struct {
	AccountID      int64              `json:"account_id"`
	CategoryID     *int64             `json:"category_id"`
	SubcategoryID  *int64             `json:"subcategory_id"`
	Date           string             `json:"date"`
	Currency       string             `json:"currency"`
	RateType       string             `json:"rate_type"`
	Amount         decimal.Decimal    `json:"amount"`
	Notes          string             `json:"notes"`
	ExchangeRateID *int64             `json:"exchange_rate_id"`
	Rates          *rateValuesRequest `json:"rates"`
}

type rateValuesRequest struct {
	USDARSOfficial decimal.Decimal     `json:"usd_ars_official"`
	USDARSBlue     decimal.NullDecimal `json:"usd_ars_blue"`
	BTCUSD         decimal.Decimal     `json:"btc_usd"`
	BTCARS         decimal.Decimal     `json:"btc_ars"`
}

func (req transactionRequest) toInput() (services.TransactionInput, error) {
	date, err := parseFlexibleTime(req.Date)
	if err != nil {
		return services.TransactionInput{}, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}
	currency, err := core.ParseCurrency(req.Currency)
	if err != nil {
		return services.TransactionInput{}, err
	}
	rateType, err := core.ParseRateType(req.RateType)
	if err != nil {
		return services.TransactionInput{}, err
	}

	in := services.TransactionInput{
		AccountID:      req.AccountID,
		CategoryID:     req.CategoryID,
		SubcategoryID:  req.SubcategoryID,
		Date:           date,
		Currency:       currency,
		RateType:       rateType,
		Amount:         req.Amount,
		Notes:          req.Notes,
		ExchangeRateID: req.ExchangeRateID,
	}
	if req.Rates != nil {
		in.Override = &core.RateValues{
			USDARSOfficial: req.Rates.USDARSOfficial,
			USDARSBlue:     req.Rates.USDARSBlue,
			BTCUSD:         req.Rates.BTCUSD,
			BTCARS:         req.Rates.BTCARS,
		}
	}
	return in, nil
}

type transactionResponse struct {
	ID             int64           `json:"id"`
	AccountID      int64           `json:"account_id"`
	CategoryID     *int64          `json:"category_id"`
	SubcategoryID  *int64          `json:"subcategory_id"`
	ExchangeRateID *int64          `json:"exchange_rate_id"`
	Date           time.Time       `json:"date"`
	Currency       core.Currency   `json:"currency"`
	RateType       core.RateType   `json:"rate_type"`
	AmountOriginal decimal.Decimal `json:"amount_original"`
	AmountARS      decimal.Decimal `json:"amount_ars"`
	AmountUSD      decimal.Decimal `json:"amount_usd"`
	AmountBTC      decimal.Decimal `json:"amount_btc"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:             t.ID,
		AccountID:      t.AccountID,
		CategoryID:     t.CategoryID,
		SubcategoryID:  t.SubcategoryID,
		ExchangeRateID: t.ExchangeRateID,
		Date:           t.Date,
		Currency:       t.Currency,
		RateType:       t.RateType,
		AmountOriginal: t.AmountOriginal,
		AmountARS:      t.AmountARS,
		AmountUSD:      t.AmountUSD,
		AmountBTC:      t.AmountBTC,
		Notes:          t.Notes,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}

	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.txns.Create(r.Context(), uid, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
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

	t, err := s.txns.Get(r.Context(), uid, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
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

	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.txns.Update(r.Context(), uid, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
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

	if err := s.txns.Delete(r.Context(), uid, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}

	params := storage.ListTransactionsParams{
		UserID: uid,
		Search: r.URL.Query().Get("search"),
	}
	if params.Start, err = parseDateParam(r, "start"); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if params.End, err = parseDateParam(r, "end"); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if params.CategoryIDs, err = parseIDList(r, "category_ids"); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if params.AccountIDs, err = parseIDList(r, "account_ids"); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if raw := r.URL.Query().Get("currency"); raw != "" {
		if params.Currency, err = core.ParseCurrency(raw); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if params.Limit, err = parseIntParam(r, "limit", 0); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if params.Offset, err = parseIntParam(r, "offset", 0); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	items, err := s.txns.List(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]transactionResponse, 0, len(items))
	for _, t := range items {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}
