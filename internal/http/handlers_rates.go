package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aikirias/FinTrack/internal/core"
)

type rateResponse struct {
	ID             int64               `json:"id"`
	EffectiveDate  string              `json:"effective_date"`
	Source         string              `json:"source,omitempty"`
	USDARSOfficial decimal.Decimal     `json:"usd_ars_official"`
	USDARSBlue     decimal.NullDecimal `json:"usd_ars_blue"`
	BTCUSD         decimal.Decimal     `json:"btc_usd"`
	BTCARS         decimal.Decimal     `json:"btc_ars"`
	IsManual       bool                `json:"is_manual"`
	CreatedAt      time.Time           `json:"created_at"`
}

func toRateResponse(rate core.ExchangeRate) rateResponse {
	return rateResponse{
		ID:             rate.ID,
		EffectiveDate:  rate.EffectiveDate.Format("2006-01-02"),
		Source:         rate.Source,
		USDARSOfficial: rate.Rates.USDARSOfficial,
		USDARSBlue:     rate.Rates.USDARSBlue,
		BTCUSD:         rate.Rates.BTCUSD,
		BTCARS:         rate.Rates.BTCARS,
		IsManual:       rate.IsManual,
		CreatedAt:      rate.CreatedAt,
	}
}

// handleLatestRate returns today's quote, fetching and storing it first if
// the day has none yet.
func (s *Server) handleLatestRate(w http.ResponseWriter, r *http.Request) {
	if _, err := userID(r); err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}

	rate, err := s.rates.EnsureDaily(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRateResponse(rate))
}

type overrideRequest struct {
	Date           string              `json:"date"`
	Source         string              `json:"source"`
	USDARSOfficial decimal.Decimal     `json:"usd_ars_official"`
	USDARSBlue     decimal.NullDecimal `json:"usd_ars_blue"`
	BTCUSD         decimal.Decimal     `json:"btc_usd"`
	BTCARS         decimal.Decimal     `json:"btc_ars"`
}

// handleCreateOverride stores a manual quote and notifies the reprocess
// worker. The event is best effort; a publish failure does not undo the
// stored quote.
func (s *Server) handleCreateOverride(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}

	var req overrideRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	date, err := parseFlexibleTime(req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	values := core.RateValues{
		USDARSOfficial: req.USDARSOfficial,
		USDARSBlue:     req.USDARSBlue,
		BTCUSD:         req.BTCUSD,
		BTCARS:         req.BTCARS,
	}
	rate, err := s.rates.CreateOverride(r.Context(), date, values, req.Source)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if s.events != nil {
		if err := s.events.PublishRateUpdated(r.Context(), uid, rate.ID); err != nil {
			slog.ErrorContext(r.Context(), "Failed publishing rate updated event",
				"error", err, "exchange_rate_id", rate.ID)
		}
	}

	writeJSON(w, http.StatusCreated, toRateResponse(rate))
}

// handleDeleteRate removes a manually entered quote. Automatic quotes stay;
// the daily refresh would only recreate them.
func (s *Server) handleDeleteRate(w http.ResponseWriter, r *http.Request) {
	if _, err := userID(r); err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	rate, err := s.store.GetExchangeRate(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !rate.IsManual {
		writeJSON(w, http.StatusConflict,
			errorResponse{Error: "only manual quotes can be deleted"})
		return
	}
	if err := s.store.DeleteExchangeRate(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
