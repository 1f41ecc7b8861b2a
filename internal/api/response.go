package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/relaylogic/relaysim/internal/simerr"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error *errorBody  `json:"error,omitempty"`
}

func writeJSON(logger *zap.Logger, w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{OK: true, Data: data}); err != nil {
		logger.Warn("encode response failed", zap.Error(err))
	}
}

func writeError(logger *zap.Logger, w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case simerr.Is(err, simerr.Structural):
		status, code = http.StatusBadRequest, "structural"
	case simerr.Is(err, simerr.VersionIncompatible):
		status, code = http.StatusBadRequest, "version_incompatible"
	case simerr.Is(err, simerr.InvalidState):
		status, code = http.StatusConflict, "invalid_state"
	case simerr.Is(err, simerr.Oscillation):
		status, code = http.StatusUnprocessableEntity, "oscillation"
	case simerr.Is(err, simerr.Timeout):
		status, code = http.StatusGatewayTimeout, "timeout"
	case simerr.Is(err, simerr.IO):
		status, code = http.StatusBadRequest, "io"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(envelope{OK: false, Error: &errorBody{Code: code, Message: err.Error()}}); encErr != nil {
		logger.Warn("encode error response failed", zap.Error(encErr))
	}
}
