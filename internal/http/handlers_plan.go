package http

import "net/http"

// handlePlan returns the allocation plan from ?date= (default today).
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	date, ok := queryDate(w, r, "date")
	if !ok {
		return
	}
	view, err := s.svc.Plans.Plan(r.Context(), date)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleWeekSummary(w http.ResponseWriter, r *http.Request) {
	start, ok := queryDate(w, r, "start")
	if !ok {
		return
	}
	summary, err := s.svc.Plans.WeekSummary(r.Context(), start)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
