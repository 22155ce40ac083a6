package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/freytube/freytube/internal/app/middleware"
	"github.com/freytube/freytube/internal/core/constants"
	"github.com/freytube/freytube/internal/core/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxRequestBodyBytes = 1 << 20

// ErrorResponse is the body of every failed request. Retryable tells the
// client whether offering a retry makes sense.
type ErrorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// statusFor maps an error onto the HTTP status and retry hint shown to the client
func statusFor(err error) (int, bool) {
	var badReq *badRequestError
	switch {
	case errors.As(err, &badReq),
		errors.Is(err, domain.ErrInvalidDownload):
		return http.StatusBadRequest, false
	case domain.IsNotFound(err),
		errors.Is(err, domain.ErrNoDownloadableStream):
		return http.StatusNotFound, false
	case errors.Is(err, domain.ErrDownloadInProgress):
		return http.StatusConflict, false
	case domain.IsExhausted(err),
		errors.Is(err, domain.ErrAllInstancesExhausted):
		return http.StatusBadGateway, true
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, true
	default:
		return http.StatusInternalServerError, false
	}
}

func (a *Application) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, retryable := statusFor(err)
	if status >= http.StatusInternalServerError {
		middleware.GetLogger(r.Context()).Warn("Request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Retryable: retryable})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeBody(r *http.Request, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		return badRequest("read body: %v", err)
	}
	if len(body) == 0 {
		return badRequest("request body is empty")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}
