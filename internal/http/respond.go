package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"pobrify/internal/core"
	"pobrify/internal/log"
	"pobrify/internal/ports"
	"pobrify/internal/services"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

// domainErrors are caller mistakes reported as 400.
var domainErrors = []error{
	services.ErrInvalidInput,
	core.ErrInvalidAmount,
	core.ErrInvalidDate,
	core.ErrInvalidShift,
	core.ErrInvalidPerson,
	core.ErrInvalidStatus,
	core.ErrInvalidKind,
	core.ErrInvalidPackages,
	core.ErrEmptyLocal,
	core.ErrEmptyName,
	core.ErrEmptyDescription,
}

// classify maps a service error onto a status and an error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ports.ErrNotFound), errors.Is(err, services.ErrBookingNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, services.ErrNothingToRegister):
		return http.StatusUnprocessableEntity, "nothing_to_register"
	case errors.Is(err, services.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	}
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, "invalid_input"
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// fail writes err as a JSON error. Server-side failures are logged and
// their details withheld from the client.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", log.FieldError, err)
		writeError(w, r, status, code, "internal server error")
		return
	}
	writeError(w, r, status, code, err.Error())
}

// decodeJSON reads a JSON body into v. An empty body is accepted when
// optional is true and leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}

	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		writeError(w, r, http.StatusRequestEntityTooLarge, "body_too_large", fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
	case errors.Is(err, io.EOF):
		writeError(w, r, http.StatusBadRequest, "invalid_json", "request body is empty")
	default:
		writeError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
	}
	return false
}

// pathDate parses the {name} path value as a calendar date.
func pathDate(w http.ResponseWriter, r *http.Request, name string) (core.Date, bool) {
	d, err := core.ParseDate(r.PathValue(name))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", fmt.Sprintf("%s must be YYYY-MM-DD", name))
		return core.Date{}, false
	}
	return d, true
}

// queryDate parses an optional date query parameter; absent yields the
// zero date.
func queryDate(w http.ResponseWriter, r *http.Request, name string) (core.Date, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return core.Date{}, true
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", fmt.Sprintf("%s must be YYYY-MM-DD", name))
		return core.Date{}, false
	}
	return d, true
}
