package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kimberlykao/gifforge/internal/converter"
	"github.com/kimberlykao/gifforge/internal/logging"
)

// Wire error codes. Handlers map converter failures onto these so clients
// can tell a missing tool apart from input the tool rejected.
const (
	codeInvalidInput     = "invalid_input"
	codeToolUnavailable  = "tool_unavailable"
	codeConversionFailed = "conversion_failed"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": message})
}

// writeJSONCode writes an error response carrying a taxonomy code.
func writeJSONCode(w http.ResponseWriter, code, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"code": code, "error": message})
}

// writeInvalidInput rejects a request the server could not act on:
// malformed bodies, unknown settings values, unknown file ids.
func writeInvalidInput(w http.ResponseWriter, message string) {
	writeJSONCode(w, codeInvalidInput, message, http.StatusBadRequest)
}

// writeJSONStatus writes a simple status response as JSON.
func writeJSONStatus(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": status})
}

// writeConversionError maps a converter failure onto the wire taxonomy.
// The error text carries the tool's stderr unmodified, so a client sees
// the same diagnostics the tool printed.
func writeConversionError(w http.ResponseWriter, err error) {
	code, status := classifyConversionError(err)
	writeJSONCode(w, code, err.Error(), status)
}

// classifyConversionError returns the taxonomy code and HTTP status for a
// converter error. A missing tool is 503; everything else from the tool
// chain, timeouts included, is a 422 conversion failure.
func classifyConversionError(err error) (code string, status int) {
	var missing *converter.ToolMissingError
	if errors.As(err, &missing) {
		return codeToolUnavailable, http.StatusServiceUnavailable
	}
	return codeConversionFailed, http.StatusUnprocessableEntity
}
