package http

import (
	"net/http"

	"pobrify/internal/core"
	"pobrify/internal/log"
)

func (s *Server) handleListAccessories(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Catalog.ListAccessories(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	if items == nil {
		items = []core.Accessory{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateAccessory(w http.ResponseWriter, r *http.Request) {
	var a core.Accessory
	if !decodeJSON(w, r, &a, false) {
		return
	}
	created, err := s.svc.Catalog.CreateAccessory(r.Context(), a)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateAccessory(w http.ResponseWriter, r *http.Request) {
	var a core.Accessory
	if !decodeJSON(w, r, &a, false) {
		return
	}
	a.ID = r.PathValue("id")
	updated, err := s.svc.Catalog.UpdateAccessory(r.Context(), a)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteAccessory(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Catalog.DeleteAccessory(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Catalog.Preview(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		failUpstream(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleItem passes the marketplace answer through: its status code, and
// its body as JSON when it parses, as plain text otherwise.
func (s *Server) handleItem(w http.ResponseWriter, r *http.Request) {
	resp, err := s.svc.Catalog.Item(r.Context(), r.PathValue("id"))
	if err != nil {
		failUpstream(w, r, err)
		return
	}
	if resp.JSON {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

// failUpstream reports lookup failures that are not the caller's fault
// as 502.
func failUpstream(w http.ResponseWriter, r *http.Request, err error) {
	if status, _ := classify(err); status != http.StatusInternalServerError {
		fail(w, r, err)
		return
	}
	log.FromContext(r.Context()).WarnContext(r.Context(), "Item lookup failed", log.FieldError, err)
	writeError(w, r, http.StatusBadGateway, "upstream_error", "item lookup failed")
}

func (s *Server) handleListKnownLocals(w http.ResponseWriter, r *http.Request) {
	locals, err := s.svc.Catalog.ListKnownLocals(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	if locals == nil {
		locals = []core.KnownLocal{}
	}
	writeJSON(w, http.StatusOK, locals)
}

// handlePutKnownLocal upserts the local named in the path.
func (s *Server) handlePutKnownLocal(w http.ResponseWriter, r *http.Request) {
	var k core.KnownLocal
	if !decodeJSON(w, r, &k, true) {
		return
	}
	k.Name = r.PathValue("name")
	saved, err := s.svc.Catalog.PutKnownLocal(r.Context(), k)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteKnownLocal(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Catalog.DeleteKnownLocal(r.Context(), r.PathValue("name")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
