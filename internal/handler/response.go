package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(log logrus.FieldLogger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.WithError(err).Warn("encode response failed")
	}
}

func writeError(log logrus.FieldLogger, w http.ResponseWriter, status int, msg string) {
	entry := log.WithField("status", status)
	if status >= http.StatusInternalServerError {
		entry.Error(msg)
	} else {
		entry.Debug(msg)
	}
	writeJSON(log, w, status, errorResponse{Error: msg})
}

// allowGet 只允许GET（和HEAD），否则返回405
func allowGet(log logrus.FieldLogger, w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	writeError(log, w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}
