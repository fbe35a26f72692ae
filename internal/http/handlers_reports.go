package http

import (
	"net/http"

	"cashbook/internal/core"
)

func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r.URL.Query().Get("date"), "date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if date.IsZero() {
		date = core.Today()
	}

	report, err := s.reports.Daily(r.Context(), date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRangeReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, err := dateParam(q.Get("start_date"), "start_date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := dateParam(q.Get("end_date"), "end_date")
	if err != nil {
		writeError(w, r, err)
		return
	}

	report, err := s.reports.Range(r.Context(), start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := s.reports.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboard)
}
