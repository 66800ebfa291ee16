package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aikirias/FinTrack/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed encoding response", "error", err)
	}
}

// writeError maps domain errors onto HTTP statuses. Unknown errors become an
// opaque 500; their detail goes to the log, not the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"error", err, "method", r.Method, "url", r.URL.Path)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateQuote),
		errors.Is(err, core.ErrDuplicateBudget):
		return http.StatusConflict
	case errors.Is(err, core.ErrRateFetchFailed):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrNoRateAvailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrUnsupportedCurrency),
		errors.Is(err, core.ErrUnsupportedRateType),
		errors.Is(err, core.ErrUnsupportedInterval),
		errors.Is(err, core.ErrUnsupportedType),
		errors.Is(err, core.ErrEmptyFilter),
		errors.Is(err, core.ErrInvalidRange),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// userID reads the caller identity the upstream gateway injects. The API
// performs no authentication of its own.
func userID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if raw == "" {
		return 0, errors.New("missing X-User-ID header")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid X-User-ID header")
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id in path")
	}
	return id, nil
}

// parseDateParam reads an optional YYYY-MM-DD query parameter as a UTC
// midnight timestamp.
func parseDateParam(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return nil, errors.New("invalid " + name + ": expected YYYY-MM-DD")
	}
	return &t, nil
}

// parseFlexibleTime accepts either a bare date or a full RFC 3339 timestamp.
func parseFlexibleTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.ParseInLocation("2006-01-02", raw, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New("invalid date: expected YYYY-MM-DD or RFC 3339")
	}
	return t.UTC(), nil
}

// parseIDList reads a comma-separated list of positive ids.
func parseIDList(r *http.Request, name string) ([]int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil || id <= 0 {
			return nil, errors.New("invalid " + name + ": expected comma-separated ids")
		}
		out = append(out, id)
	}
	return out, nil
}

func parseIntParam(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + name)
	}
	return n, nil
}

// reportFilter assembles the shared reporting scope from query parameters.
func reportFilter(r *http.Request, uid int64) (core.ReportFilter, error) {
	filter := core.ReportFilter{UserID: uid}

	var err error
	if filter.Start, err = parseDateParam(r, "start"); err != nil {
		return core.ReportFilter{}, err
	}
	if filter.End, err = parseDateParam(r, "end"); err != nil {
		return core.ReportFilter{}, err
	}
	if filter.Start != nil && filter.End != nil && filter.End.Before(*filter.Start) {
		return core.ReportFilter{}, core.ErrInvalidRange
	}
	if filter.AccountIDs, err = parseIDList(r, "account_ids"); err != nil {
		return core.ReportFilter{}, err
	}
	if filter.CategoryIDs, err = parseIDList(r, "category_ids"); err != nil {
		return core.ReportFilter{}, err
	}
	return filter, nil
}

func reportCurrency(r *http.Request) (core.Currency, error) {
	raw := r.URL.Query().Get("currency")
	if strings.TrimSpace(raw) == "" {
		return core.ARS, nil
	}
	return core.ParseCurrency(raw)
}
