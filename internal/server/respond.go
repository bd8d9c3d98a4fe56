package server

import (
	"crypto/rand"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/Wahyuw1j4/ziyad-book/internal/domain"
)

// successEnvelope is the success payload shape of every endpoint.
type successEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// errorEnvelope is the failure payload shape. TraceID is a per-response
// correlation identifier; it is not derived from the error.
type errorEnvelope struct {
	Message   string `json:"message"`
	ErrorCode string `json:"ziyad_error_code"`
	TraceID   string `json:"trace_id"`
}

// traceIDCharset is the fixed alphabet trace identifiers are drawn from.
const traceIDCharset = "0123456789ABCDEFabcdef"

const traceIDLength = 32

// traceID generates a random 32-character correlation identifier.
func traceID() string {
	bytes := make([]byte, traceIDLength)
	rand.Read(bytes)
	id := make([]byte, traceIDLength)
	for i, b := range bytes {
		id[i] = traceIDCharset[int(b)%len(traceIDCharset)]
	}
	return string(id)
}

// writeSuccess renders the success envelope.
func (s *Server) writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(successEnvelope{
		Status:  "success",
		Message: message,
		Data:    data,
	}); err != nil {
		s.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

// writeError is the single boundary handler: every failure from any
// operation ends here. Errors that escaped classification are rendered as
// UNKNOWN_ERROR; full detail is logged only outside production.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := domain.AsAppError(err)
	if !ok {
		appErr = domain.Internal(domain.CodeUnknown, "Internal Server Error")
	}

	trace := traceID()
	fields := []zap.Field{
		zap.Int("status", appErr.Status),
		zap.String("code", appErr.Code),
		zap.String("path", r.URL.Path),
		zap.String("trace_id", trace),
	}
	if s.config.Production() {
		s.logger.Warn("Request failed", fields...)
	} else {
		s.logger.Error("Request failed", append(fields, zap.Error(err), zap.Any("meta", appErr.Meta))...)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	if encErr := json.NewEncoder(w).Encode(errorEnvelope{
		Message:   appErr.Message,
		ErrorCode: appErr.Code,
		TraceID:   trace,
	}); encErr != nil {
		s.logger.Error("Failed to write error response", zap.Error(encErr))
	}
}

// decodeJSON parses the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Validation("invalid JSON body")
	}
	return nil
}
