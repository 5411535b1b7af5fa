package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"pobrify/internal/core"
	"pobrify/internal/services"
)

func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	raw, err := s.svc.Settings.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, raw)
}

// handlePutSetting stores a raw setting. The goal key is handed to the
// goal service so its current amount stays under its control.
func (s *Server) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSpace(r.PathValue("key")) == services.KeyGoal {
		var g core.GoalState
		if !decodeJSON(w, r, &g, false) {
			return
		}
		saved, err := s.svc.Goals.UpdateGoal(r.Context(), g)
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
		return
	}
	var raw json.RawMessage
	if !decodeJSON(w, r, &raw, false) {
		return
	}
	if err := s.svc.Settings.Put(r.Context(), r.PathValue("key"), raw); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, raw)
}

func (s *Server) handleListDays(w http.ResponseWriter, r *http.Request) {
	start, ok := queryDate(w, r, "start")
	if !ok {
		return
	}
	end, ok := queryDate(w, r, "end")
	if !ok {
		return
	}
	days, err := s.svc.Records.ListDays(r.Context(), start, end)
	if err != nil {
		fail(w, r, err)
		return
	}
	if days == nil {
		days = []core.DayRecord{}
	}
	writeJSON(w, http.StatusOK, days)
}

// handlePutDay replaces the record for {date}. The path date wins over
// any date in the body.
func (s *Server) handlePutDay(w http.ResponseWriter, r *http.Request) {
	date, ok := pathDate(w, r, "date")
	if !ok {
		return
	}
	var rec core.DayRecord
	if !decodeJSON(w, r, &rec, false) {
		return
	}
	rec.Date = date
	saved, err := s.svc.Records.SaveDay(r.Context(), rec)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteDay(w http.ResponseWriter, r *http.Request) {
	date, ok := pathDate(w, r, "date")
	if !ok {
		return
	}
	if err := s.svc.Records.DeleteDay(r.Context(), date); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Records.ListExpenses(r.Context(), core.ExpenseKind(r.PathValue("kind")))
	if err != nil {
		fail(w, r, err)
		return
	}
	if items == nil {
		items = []core.Expense{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var e core.Expense
	if !decodeJSON(w, r, &e, false) {
		return
	}
	e.Kind = core.ExpenseKind(r.PathValue("kind"))
	created, err := s.svc.Records.CreateExpense(r.Context(), e)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var e core.Expense
	if !decodeJSON(w, r, &e, false) {
		return
	}
	e.Kind = core.ExpenseKind(r.PathValue("kind"))
	e.ID = r.PathValue("id")
	updated, err := s.svc.Records.UpdateExpense(r.Context(), e)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	kind := core.ExpenseKind(r.PathValue("kind"))
	if err := s.svc.Records.DeleteExpense(r.Context(), kind, r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
