package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nhalm/canonlog"
)

func renderJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func renderError(w http.ResponseWriter, r *http.Request, statusCode int, err error, message, param string) {
	canonlog.AddRequestError(r.Context(), err)
	sanitizedMessage := sanitizeErrorMessage(message, statusCode)
	renderJSON(w, statusCode, NewErrorResponse(statusCode, err, sanitizedMessage, param))
}

// sanitizeErrorMessage keeps upstream details out of client-facing messages.
func sanitizeErrorMessage(message string, statusCode int) string {
	lowerMsg := strings.ToLower(message)

	if strings.Contains(lowerMsg, "dial tcp") ||
		strings.Contains(lowerMsg, "dummyjson") ||
		strings.Contains(lowerMsg, "http://") ||
		strings.Contains(lowerMsg, "https://") {
		if statusCode >= 500 {
			return "An internal error occurred"
		}
		return "Invalid request"
	}

	if statusCode >= 500 && statusCode != http.StatusBadGateway && statusCode != http.StatusGatewayTimeout {
		return "An internal error occurred"
	}

	return message
}

func Success(w http.ResponseWriter, data any) {
	renderJSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data any) {
	renderJSON(w, http.StatusCreated, data)
}

func List(w http.ResponseWriter, data any, page, limit, total, totalPages int) {
	renderJSON(w, http.StatusOK, NewListResponse(data, page, limit, total, totalPages))
}

func BadRequest(w http.ResponseWriter, r *http.Request, err error, message, param string) {
	renderError(w, r, http.StatusBadRequest, err, message, param)
}

// InvalidFields reports every failed form field at once.
func InvalidFields(w http.ResponseWriter, r *http.Request, err error, fields map[string]string) {
	canonlog.AddRequestError(r.Context(), err)
	resp := NewErrorResponse(http.StatusBadRequest, err, "validation failed", "")
	resp.Error.Fields = fields
	renderJSON(w, http.StatusBadRequest, resp)
}

func NotFound(w http.ResponseWriter, r *http.Request, err error, message string) {
	renderError(w, r, http.StatusNotFound, err, message, "")
}

func InternalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	renderError(w, r, http.StatusInternalServerError, err, message, "")
}

func ConflictError(w http.ResponseWriter, r *http.Request, err error, message string) {
	renderError(w, r, http.StatusConflict, err, message, "")
}

func BadGateway(w http.ResponseWriter, r *http.Request, err error, message string) {
	renderError(w, r, http.StatusBadGateway, err, message, "")
}

func GatewayTimeout(w http.ResponseWriter, r *http.Request, err error, message string) {
	renderError(w, r, http.StatusGatewayTimeout, err, message, "")
}

func ServiceUnavailable(w http.ResponseWriter, r *http.Request, err error, message string) {
	renderError(w, r, http.StatusServiceUnavailable, err, message, "")
}

func Gone(w http.ResponseWriter, r *http.Request, err error, message string) {
	renderError(w, r, http.StatusGone, err, message, "")
}
