package http

import (
	"net/http"
	"strings"

	"github.com/aikirias/FinTrack/internal/core"
)

// handleSummaryReport totals the filtered window. With compare_previous=true
// and a closed range, it also totals the immediately preceding window of
// equal length in days.
func (s *Server) handleSummaryReport(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	filter, err := reportFilter(r, uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	currency, err := reportCurrency(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var previous *core.ReportFilter
	if parseBoolParam(r, "compare_previous") {
		if filter.Start == nil || filter.End == nil {
			writeJSON(w, http.StatusBadRequest,
				errorResponse{Error: "compare_previous requires both start and end"})
			return
		}
		days := int(filter.End.Sub(*filter.Start).Hours()/24) + 1
		prevStart := filter.Start.AddDate(0, 0, -days)
		prevEnd := filter.Start.AddDate(0, 0, -1)
		previous = &core.ReportFilter{
			UserID:      uid,
			Start:       &prevStart,
			End:         &prevEnd,
			AccountIDs:  filter.AccountIDs,
			CategoryIDs: filter.CategoryIDs,
		}
	}

	report, err := s.reports.BuildSummary(r.Context(), currency, filter, previous)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleTimeseriesReport(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	filter, err := reportFilter(r, uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	currency, err := reportCurrency(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	interval := strings.TrimSpace(r.URL.Query().Get("interval"))
	if interval == "" {
		interval = "month"
	}

	report, err := s.reports.BuildTimeseries(r.Context(), currency, filter, interval)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	filter, err := reportFilter(r, uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	currency, err := reportCurrency(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var typeFilter *core.CategoryType
	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		parsed, err := core.ParseCategoryType(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		typeFilter = &parsed
	}

	report, err := s.reports.BuildCategoryReport(r.Context(), currency, filter, typeFilter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func parseBoolParam(r *http.Request, name string) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get(name))) {
	case "1", "true", "yes":
		return true
	}
	return false
}
