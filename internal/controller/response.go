package controller

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	appErrors "github.com/unclebandit/creatorhub-backend/internal/errors"
)

// WriteJSON encodes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// WriteError maps the error taxonomy to a status code and a generic message.
// Details stay in the log.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, msg := errorStatus(err)
	logger = orDiscard(logger)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	WriteJSON(w, status, map[string]string{"error": msg})
}

func errorStatus(err error) (int, string) {
	var nf *appErrors.NotFoundError
	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound, capitalize(nf.Entity) + " not found"
	case errors.Is(err, appErrors.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, appErrors.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, appErrors.ErrValidation):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, appErrors.ErrConflict):
		return http.StatusConflict, "Already exists"
	case errors.Is(err, appErrors.ErrCheckInProgress):
		return http.StatusConflict, "AI check already in progress"
	case errors.Is(err, appErrors.ErrInvalidTransition):
		return http.StatusConflict, "Proposal cannot move to that status"
	case errors.Is(err, appErrors.ErrAICheckFailed):
		return http.StatusInternalServerError, "AI check failed"
	}
	return http.StatusInternalServerError, "Internal server error"
}

func capitalize(s string) string {
	if s == "" {
		return "Resource"
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}

// decodeBody writes a 400 and returns false when the body is not valid JSON for v.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return false
	}
	return true
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l
}
