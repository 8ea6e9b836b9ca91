package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

type RequestErrorKind string

const (
	RequestNetwork    RequestErrorKind = "network"
	RequestHTTPStatus RequestErrorKind = "http_status"
	RequestAborted    RequestErrorKind = "aborted"
)

// RequestError is what a completion call fails with. Aborted errors come
// from preemption and are never shown to the user.
type RequestError struct {
	Kind       RequestErrorKind
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	switch e.Kind {
	case RequestHTTPStatus:
		return fmt.Sprintf("API error: %d %s", e.StatusCode, cause(e.Err))
	case RequestAborted:
		return "request aborted"
	default:
		return fmt.Sprintf("network error: %s", cause(e.Err))
	}
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func cause(err error) string {
	if err == nil {
		return "unknown"
	}
	return err.Error()
}

// ClassifyError maps a client error onto the RequestError taxonomy. ctx is
// the request context; a cancelled context wins over whatever the transport
// reported.
func ClassifyError(ctx context.Context, err error) *RequestError {
	if err == nil {
		return nil
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr
	}
	if errors.Is(err, context.Canceled) || (ctx != nil && errors.Is(ctx.Err(), context.Canceled)) {
		return &RequestError{Kind: RequestAborted, Err: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &RequestError{Kind: RequestHTTPStatus, StatusCode: apiErr.HTTPStatusCode, Err: errors.New(apiErr.Message)}
	}
	var httpErr *openai.RequestError
	if errors.As(err, &httpErr) && httpErr.HTTPStatusCode > 0 {
		return &RequestError{Kind: RequestHTTPStatus, StatusCode: httpErr.HTTPStatusCode, Err: errors.New(http.StatusText(httpErr.HTTPStatusCode))}
	}

	return &RequestError{Kind: RequestNetwork, Err: err}
}
