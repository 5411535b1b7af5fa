package http

import (
	"net/http"
	"strings"

	"pobrify/internal/core"
	"pobrify/internal/plan"
)

type goalResponse struct {
	Goal     core.GoalState `json:"goal"`
	Progress plan.Progress  `json:"progress"`
}

func (s *Server) goalResponse(r *http.Request, g core.GoalState) (goalResponse, error) {
	additional, err := s.svc.Settings.AdditionalSavings(r.Context())
	if err != nil {
		return goalResponse{}, err
	}
	return goalResponse{Goal: g, Progress: plan.ComputeProgress(g, additional)}, nil
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.Settings.Goal(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	resp, err := s.goalResponse(r, g)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePutGoal updates name, target and deadline. currentAmount in the
// body is ignored; use contributions to move it.
func (s *Server) handlePutGoal(w http.ResponseWriter, r *http.Request) {
	var g core.GoalState
	if !decodeJSON(w, r, &g, false) {
		return
	}
	saved, err := s.svc.Goals.UpdateGoal(r.Context(), g)
	if err != nil {
		fail(w, r, err)
		return
	}
	resp, err := s.goalResponse(r, saved)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type contributionRequest struct {
	Amount core.Money `json:"amount"`
	Source string     `json:"source"`
}

// handleContribution credits a manual amount. Negative amounts correct
// earlier contributions.
func (s *Server) handleContribution(w http.ResponseWriter, r *http.Request) {
	var req contributionRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if req.Amount == 0 {
		writeError(w, r, http.StatusBadRequest, "invalid_input", "amount must not be zero")
		return
	}
	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = "manual"
	}
	g, err := s.svc.Goals.Credit(r.Context(), req.Amount, source)
	if err != nil {
		fail(w, r, err)
		return
	}
	resp, err := s.goalResponse(r, g)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type statusRequest struct {
	Status core.BookingStatus `json:"status"`
}

func (s *Server) handleBookingStatus(w http.ResponseWriter, r *http.Request) {
	date, ok := pathDate(w, r, "date")
	if !ok {
		return
	}
	var req statusRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	rec, err := s.svc.Goals.UpdateBookingStatus(r.Context(), date, r.PathValue("id"), req.Status)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetWeek(w http.ResponseWriter, r *http.Request) {
	weekKey, ok := pathDate(w, r, "weekKey")
	if !ok {
		return
	}
	week, err := s.svc.Goals.GetWeek(r.Context(), weekKey)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, week)
}

func (s *Server) handlePutWeek(w http.ResponseWriter, r *http.Request) {
	weekKey, ok := pathDate(w, r, "weekKey")
	if !ok {
		return
	}
	var week core.WeeklyBilling
	if !decodeJSON(w, r, &week, false) {
		return
	}
	week.WeekKey = weekKey
	saved, err := s.svc.Goals.SaveWeek(r.Context(), week)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

type registerRequest struct {
	PersonATotal *core.Money `json:"personATotal"`
	PersonBTotal *core.Money `json:"personBTotal"`
}

type registerResponse struct {
	Registered bool               `json:"registered"`
	Week       core.WeeklyBilling `json:"week"`
}

// handleRegisterWeek credits the week to the goal. A week registered
// before answers 200 with registered=false and the stored entry.
func (s *Server) handleRegisterWeek(w http.ResponseWriter, r *http.Request) {
	weekKey, ok := pathDate(w, r, "weekKey")
	if !ok {
		return
	}
	var req registerRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	week, registered, err := s.svc.Goals.RegisterWeek(r.Context(), weekKey, req.PersonATotal, req.PersonBTotal)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, registerResponse{Registered: registered, Week: week})
}
