package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"wheres-my-food/pkg/models"
)

const (
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidRequest     = "invalid_request"
	codeInvalidStatus      = "invalid_status"
	codeItemUnavailable    = "item_unavailable"
	codeUnauthenticated    = "unauthenticated"
	codeForbidden          = "forbidden"
	codeOrderNotFound      = "order_not_found"
	codeNotFound           = "not_found"
	codeInsufficientStock  = "insufficient_stock"
	codeInvalidTransition  = "invalid_transition"
	codeDuplicateRequest   = "duplicate_request"
	codeConflict           = "conflict"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// errorStatus maps a service error onto its HTTP status and response code.
// Specific sentinels are checked before falling back to the error kind.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrInvalidStatus):
		return http.StatusBadRequest, codeInvalidStatus
	case errors.Is(err, models.ErrItemUnavailable):
		return http.StatusBadRequest, codeItemUnavailable
	case errors.Is(err, models.ErrOrderNotFound):
		return http.StatusNotFound, codeOrderNotFound
	case errors.Is(err, models.ErrInsufficientStock):
		return http.StatusConflict, codeInsufficientStock
	case errors.Is(err, models.ErrInvalidTransition):
		return http.StatusConflict, codeInvalidTransition
	case errors.Is(err, models.ErrDuplicateRequest):
		return http.StatusConflict, codeDuplicateRequest
	}

	switch models.KindOf(err) {
	case models.KindInvalidRequest:
		return http.StatusBadRequest, codeInvalidRequest
	case models.KindUnauthenticated:
		return http.StatusUnauthorized, codeUnauthenticated
	case models.KindForbidden:
		return http.StatusForbidden, codeForbidden
	case models.KindNotFound:
		return http.StatusNotFound, codeNotFound
	case models.KindConflict:
		return http.StatusConflict, codeConflict
	default:
		return http.StatusInternalServerError, codeInternalError
	}
}

func (h *OrderHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	mylog := h.log(r)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		mylog.Error("Request failed", err, "code", code)
		msg = "internal error"
	} else {
		mylog.Warn("Request rejected", "code", code, "reason", err.Error())
	}
	writeError(w, status, code, msg)
}
