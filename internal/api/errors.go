package api

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/portfolio-advisor/internal/errors"
	"github.com/portfolio-advisor/internal/logging"
	"github.com/portfolio-advisor/internal/types"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error types.ServiceError `json:"error"`
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	respondJSON(w, statusCode, ErrorResponse{
		Error: types.ServiceError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// respondServiceError translates a propagated failure into its status and body.
// Causes of system errors are logged, never returned.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	catErr := apperrors.Categorize(err)

	logger := logging.FromContext(r.Context()).WithError(err).WithField("code", catErr.Code)
	switch {
	case apperrors.IsSystemError(err):
		logger.Error("request failed")
	case apperrors.IsUserError(err):
		logger.Debug("request rejected")
	}

	respondJSON(w, apperrors.GetHTTPStatusCode(err), ErrorResponse{Error: *catErr.ToServiceError()})
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data) // nolint:errcheck // client went away
	}
}

// parseJSONBody parses JSON request body.
func parseJSONBody(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
