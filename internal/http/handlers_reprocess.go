package http

import (
	"net/http"
	"time"

	"github.com/aikirias/FinTrack/internal/services"
)

type reprocessRequest struct {
	ExchangeRateID *int64 `json:"exchange_rate_id"`
	Start          string `json:"start"`
	End            string `json:"end"`
}

// handleReprocess runs a synchronous bulk recompute for the caller. Rate
// overrides additionally trigger the same work asynchronously through the
// queue; this endpoint exists for targeted, on-demand runs.
func (s *Server) handleReprocess(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}

	var req reprocessRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	filter := services.ReprocessFilter{ExchangeRateID: req.ExchangeRateID}
	if req.Start != "" {
		start, err := parseFlexibleTime(req.Start)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		filter.Start = &start
	}
	if req.End != "" {
		end, err := parseFlexibleTime(req.End)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		// A bare end date means the whole of that day.
		if end.Equal(time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)) {
			end = end.Add(24*time.Hour - time.Nanosecond)
		}
		filter.End = &end
	}

	result, err := s.reprocessor.Reprocess(r.Context(), uid, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
