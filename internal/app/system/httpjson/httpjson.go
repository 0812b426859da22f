// Package httpjson standardises how handlers send JSON responses and
// errors. Every error response has the same shape:
//
//	{"error": {"code": "not_found", "message": "topic abc123 not found"}}
//
// so clients always know what fields to expect regardless of status.
package httpjson

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/linlinlin97264/topic-manage/internal/app/system/apperror"
	"github.com/linlinlin97264/topic-manage/internal/app/system/limits"
)

// ErrorBody is the standard error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable code and human-readable
// message. Field is set for invalid_argument errors.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Write sends a JSON response with the given status code. Headers and
// status must go out before the body, so the order here is fixed.
func Write(w http.ResponseWriter, logger *zap.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; all we can do is log.
		logger.Error("encode JSON response", zap.Error(err))
	}
}

// WriteError maps a domain error onto HTTP and sends the envelope.
// Handlers stay free of status-code knowledge; the repositories return
// typed errors and this is the single place they become wire responses.
func WriteError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	detail := ErrorDetail{Code: "internal", Message: "an internal error occurred"}

	var ae *apperror.Error
	if errors.As(err, &ae) {
		detail.Code = apperror.Code(err)
		detail.Message = ae.Message
		detail.Field = ae.Field
		switch {
		case errors.Is(err, apperror.ErrUnauthenticated):
			status = http.StatusUnauthorized
		case errors.Is(err, apperror.ErrPermissionDenied):
			status = http.StatusForbidden
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, apperror.ErrInvalidArgument):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrVersionConflict), errors.Is(err, apperror.ErrAlreadyInRole):
			status = http.StatusConflict
		default:
			// Transport and anything unclassified: log the cause, hide
			// the detail from the client.
			logger.Error("request failed", zap.Error(err))
			detail.Message = "an internal error occurred"
		}
	} else {
		logger.Error("request failed", zap.Error(err))
	}

	Write(w, logger, status, ErrorBody{Error: detail})
}

// Decode reads a JSON request body into dst, rejecting oversized and
// malformed payloads with invalid_argument.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.InvalidArgument("body", "invalid JSON: "+err.Error())
	}
	return nil
}
