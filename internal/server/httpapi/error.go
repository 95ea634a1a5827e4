package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/contactbook/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *HTTPServer) writeJSON(ctx context.Context, w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error(ctx, "failed to write response", "error", err)
	}
}

// writeError maps sentinel errors to HTTP status codes. Unrecognized errors
// become a generic 500 so internals never leak into responses.
func (s *HTTPServer) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var code int
	switch {
	case errors.Is(err, common.ErrorNotFound):
		code = http.StatusNotFound
	case errors.Is(err, common.ErrorInvalidArgument):
		code = http.StatusBadRequest
	case errors.Is(err, common.ErrorConflict):
		code = http.StatusConflict
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrorEmailNotConfirmed),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrRefreshTokenExpired):
		code = http.StatusUnauthorized
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		s.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	s.writeJSON(ctx, w, code, errorResponse{Error: err.Error()})
}
