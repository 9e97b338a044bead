// Package web holds the HTTP plumbing shared by module handlers: the chi
// router, middleware and JSON helpers.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fd1az/allocation-ledger/internal/apperror"
	"github.com/fd1az/allocation-ledger/internal/logger"
)

const maxBodyBytes = 1 << 20

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err onto its uniform response body. Errors that are not
// AppErrors are reported as internal failures. Internal failures are logged
// with their cause; the caller only ever sees the generic message.
func WriteError(ctx context.Context, w http.ResponseWriter, log logger.LoggerInterface, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.Internal(apperror.CodeInternalError, "unhandled error", err)
	}

	if apperror.IsInternal(appErr) {
		log.Errorc(ctx, 1, "request failed", "error", appErr)
	} else {
		log.Debugc(ctx, 1, "request rejected", "code", appErr.Code, "message", appErr.Message)
	}

	WriteJSON(w, appErr.StatusCode, appErr.ToResponse())
}

// DecodeJSON decodes a JSON object body into v. Malformed bodies are
// validation failures.
func DecodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperror.Validation(apperror.CodeInvalidFormat, "Request body could not be read")
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return apperror.Validation(apperror.CodeInvalidFormat, "Request body must be a JSON object")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return apperror.Validation(apperror.CodeInvalidInput,
				fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type.Kind()))
		}
		return apperror.Validation(apperror.CodeInvalidFormat, "Request body must be a JSON object")
	}
	return nil
}
