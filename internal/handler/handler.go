package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"shopfront/internal/model"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps request bodies read by JSON handlers.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError translates err into a status code and a model.ErrorResponse.
// Domain errors keep their code and message; anything else is reported as
// an internal error without details.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	status, resp := errorResponse(err)
	resp.RequestID = chimiddleware.GetReqID(r.Context())

	event := logger.Debug()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).
		Int("status", status).
		Str("code", resp.Error).
		Str("request_id", resp.RequestID).
		Msg("handler error")

	writeJSON(w, status, resp)
}

// writeBadRequest reports a malformed request that never reached a service.
func writeBadRequest(w http.ResponseWriter, r *http.Request, code, message string, logger zerolog.Logger) {
	writeError(w, r, model.NewDomainError(code, message), logger)
}

func errorResponse(err error) (int, model.ErrorResponse) {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Message: "An unexpected error occurred",
		}
	}

	return statusForCode(domainErr.Code), model.ErrorResponse{
		Error:     domainErr.Code,
		Message:   domainErr.Message,
		ProductID: domainErr.ProductID,
	}
}

func statusForCode(code string) int {
	switch code {
	case model.ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeNotFound, model.ErrCodeCartItemNotFound, model.ErrCodeWishlistItemNotFound:
		return http.StatusNotFound
	case model.ErrCodeInsufficientStock, model.ErrCodeInvalidTransition, model.ErrCodeAlreadyReviewed:
		return http.StatusConflict
	case model.ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case model.ErrCodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// pagination parses the limit and offset query parameters. Missing values
// are left at zero for the service to default.
func pagination(r *http.Request) (limit, offset int, err error) {
	if s := r.URL.Query().Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil {
			return 0, 0, err
		}
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if offset, err = strconv.Atoi(s); err != nil {
			return 0, 0, err
		}
	}
	return limit, offset, nil
}
