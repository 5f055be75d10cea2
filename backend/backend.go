// Package backend implements [ragchat.Client] for the retrieval chat HTTP
// API. Each turn is a POST whose response body is a NUL-delimited JSON
// event stream decoded by package wire.
package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fwojciec/ragchat"
)

const (
	chatPath   = "/chat"
	maxErrBody = 64 * 1024
)

// apiRequest is the wire form of [ragchat.ChatRequest].
type apiRequest struct {
	Message     string `json:"message"`
	ThreadID    string `json:"thread_id"`
	DocumentIDs []int  `json:"document_ids"`
}

// apiError is the error body returned by the backend for rejected requests.
type apiError struct {
	StatusCode    int    `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	Message       string `json:"message"`
}

// StatusError is returned by Chat when the backend rejects a request with
// a non-2xx status. It unwraps to the matching transport sentinel in
// package ragchat, so callers can use errors.Is(err, ragchat.ErrUnauthorized).
type StatusError struct {
	StatusCode int
	Message    string
	kind       error
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: HTTP %d: %v", e.StatusCode, e.kind)
	}
	return fmt.Sprintf("backend: HTTP %d: %v: %s", e.StatusCode, e.kind, e.Message)
}

func (e *StatusError) Unwrap() error { return e.kind }

// classify maps an HTTP status to a transport sentinel.
func classify(status int) error {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return ragchat.ErrBadRequest
	case status == http.StatusUnauthorized:
		return ragchat.ErrUnauthorized
	case status == http.StatusForbidden:
		return ragchat.ErrForbidden
	case status == http.StatusNotFound:
		return ragchat.ErrNotFound
	case status == http.StatusConflict:
		return ragchat.ErrConflict
	case status == http.StatusTooManyRequests:
		return ragchat.ErrRateLimited
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return ragchat.ErrTimeout
	case status >= 500:
		return ragchat.ErrUnavailable
	default:
		return ragchat.ErrBadRequest
	}
}

func parseHTTPError(resp *http.Response) error {
	serr := &StatusError{StatusCode: resp.StatusCode, kind: classify(resp.StatusCode)}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
	if err != nil {
		serr.Message = fmt.Sprintf("failed to read body: %v", err)
		return serr
	}
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		serr.Message = strings.TrimSpace(string(body))
		return serr
	}
	switch {
	case apiErr.Message != "":
		serr.Message = apiErr.Message
	case apiErr.StatusMessage != "":
		serr.Message = apiErr.StatusMessage
	}
	return serr
}

// IsStatus reports whether err is a [StatusError] with the given status.
func IsStatus(err error, status int) bool {
	var serr *StatusError
	return errors.As(err, &serr) && serr.StatusCode == status
}
