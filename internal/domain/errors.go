package domain

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies why a generation request failed.
type ErrorKind string

const (
	KindMissingInput       ErrorKind = "MISSING_INPUT"
	KindInvalidTemplate    ErrorKind = "INVALID_TEMPLATE"
	KindTemplateNotFound   ErrorKind = "TEMPLATE_NOT_FOUND"
	KindBrowserUnavailable ErrorKind = "BROWSER_UNAVAILABLE"
	KindRenderTimeout      ErrorKind = "RENDER_TIMEOUT"
	KindRenderFailed       ErrorKind = "RENDER_FAILED"
	KindInternal           ErrorKind = "INTERNAL_ERROR"
)

// Sentinels for errors.Is comparisons; they match any GenerationError of the
// same kind.
var (
	ErrMissingInput       = &GenerationError{Kind: KindMissingInput}
	ErrInvalidTemplate    = &GenerationError{Kind: KindInvalidTemplate}
	ErrTemplateNotFound   = &GenerationError{Kind: KindTemplateNotFound}
	ErrBrowserUnavailable = &GenerationError{Kind: KindBrowserUnavailable}
	ErrRenderTimeout      = &GenerationError{Kind: KindRenderTimeout}
	ErrRenderFailed       = &GenerationError{Kind: KindRenderFailed}
)

// GenerationError is the single error type surfaced by the pipeline.
type GenerationError struct {
	Stage Stage
	Kind  ErrorKind
	// Message is safe to show to callers.
	Message string
	Err     error
}

// NewError builds a GenerationError for the given stage.
func NewError(stage Stage, kind ErrorKind, msg string, err error) *GenerationError {
	return &GenerationError{Stage: stage, Kind: kind, Message: msg, Err: err}
}

func (e *GenerationError) Error() string {
	s := string(e.Kind)
	if e.Stage != "" {
		s = string(e.Stage) + ": " + s
	}
	if e.Message != "" {
		s += " " + e.Message
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Is matches on Kind so callers can compare against the sentinels.
func (e *GenerationError) Is(target error) bool {
	t, ok := target.(*GenerationError)
	return ok && t.Kind == e.Kind
}

// HTTPStatus maps the kind onto a response status. Input problems are 4xx,
// environment problems 5xx, and a render timeout is kept distinct (504) so
// operators can tell a slow document from a misconfigured host.
func (e *GenerationError) HTTPStatus() int {
	switch e.Kind {
	case KindMissingInput, KindInvalidTemplate:
		return http.StatusBadRequest
	case KindBrowserUnavailable:
		return http.StatusServiceUnavailable
	case KindRenderTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the sanitized text returned to callers.
func (e *GenerationError) PublicMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("resume generation failed (%s)", e.Kind)
}
