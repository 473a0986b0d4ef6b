package response

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// NoContent sends an empty response with the given status
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func errorType(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusTooManyRequests:
		return "too_many_requests"
	case http.StatusInternalServerError:
		return "internal_server_error"
	default:
		return "error"
	}
}

// Error sends an error response
func Error(w http.ResponseWriter, status int, err error) {
	JSON(w, status, ErrorResponse{
		Error:   errorType(status),
		Message: err.Error(),
	})
}

// ValidationError sends a 400 response listing the failing fields
func ValidationError(w http.ResponseWriter, err error, fields map[string]string) {
	JSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   errorType(http.StatusBadRequest),
		Message: err.Error(),
		Fields:  fields,
	})
}
