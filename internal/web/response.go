package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/easelhq/easel/internal/log"
)

// envelope is the JSON shell every non-streaming endpoint answers
// with. Exactly one of Data or Error is set.
type envelope struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

// errorBody carries a stable machine-readable code and a human
// message. Codes are API surface; messages may change freely.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes {"data": v} with the given status code.
// Uses buffer-first strategy to ensure headers are only sent after
// successful encoding, so an encoding failure can still become a
// proper 500 instead of a torn response.
func writeJSON(w http.ResponseWriter, status int, v any, logger log.Logger) {
	writeEnvelope(w, status, envelope{Data: v}, logger)
}

// writeError writes {"error": {code, message}} with the given status.
func writeError(w http.ResponseWriter, status int, code, message string, logger log.Logger) {
	writeEnvelope(w, status, envelope{Error: &errorBody{Code: code, Message: message}}, logger)
}

func writeEnvelope(w http.ResponseWriter, status int, env envelope, logger log.Logger) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(env); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Content-Type-Options", "nosniff") // Prevent MIME type sniffing attacks
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		// Client disconnects are common and expected
		logger.Debug("failed to write response body", "error", err)
	}
}
