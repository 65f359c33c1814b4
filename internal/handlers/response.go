package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-lifecycle/internal/apperr"
)

// statusClientClosedRequest answers requests whose caller went away.
const statusClientClosedRequest = 499

// errorResponse is the body of every non-2xx answer.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

// writeError maps err onto a status code. Server-side failures are logged
// and their details withheld from the caller.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		log.WithFields(log.Fields{"method": r.Method, "path": r.URL.Path}).Debug("Client closed request")
		writeJSON(w, statusClientClosedRequest, errorResponse{Error: "client closed request"})
		return
	}
	status := apperr.HTTPStatus(err)
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}

	body := errorResponse{Error: err.Error()}
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
	}

	if status >= http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": status,
		}).WithError(err).Error("Request failed")
		body.Error = http.StatusText(status)
	}
	writeJSON(w, status, body)
}
