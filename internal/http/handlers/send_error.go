package handlers

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    int    `json:"code"`
}

func sendError(w http.ResponseWriter, message string, err error, code int) {
	response := ErrorResponse{
		Message: message,
		Code:    code,
	}
	if err != nil {
		response.Error = err.Error()
	}

	log.WithFields(log.Fields{
		"error": response.Error,
		"code":  code,
	}).Error(message)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(response)
}
