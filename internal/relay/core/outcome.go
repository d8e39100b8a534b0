package core

import (
	"errors"
	"net/http"
)

// OutcomeKind classifies how a relay request ended. It is also the label
// value used by the metrics collectors.
type OutcomeKind string

const (
	OutcomeDelivered        OutcomeKind = "delivered"
	OutcomeMethodNotAllowed OutcomeKind = "method_not_allowed"
	OutcomeForbidden        OutcomeKind = "forbidden"
	OutcomeBadRequest       OutcomeKind = "bad_request"
	OutcomeUpstreamFailure  OutcomeKind = "upstream_failure"
	OutcomeInternalFailure  OutcomeKind = "internal_failure"
)

// Response bodies returned to relay callers
const (
	BodyDelivered           = "Message sent successfully"
	BodyMethodNotAllowed    = "Method Not Allowed"
	BodyForbidden           = "Forbidden: Invalid token"
	BodyBadRequest          = "Bad Request: Missing parameters"
	UpstreamErrorBodyPrefix = "Telegram API Error: "
	ServerErrorBodyPrefix   = "Server Error: "
)

// Outcome is the result of one relay request: what happened and
// the plain-text HTTP response that reports it.
type Outcome struct {
	Kind   OutcomeKind
	Status int
	Body   string

	// UpstreamStatus is the provider status code, zero when no call completed
	UpstreamStatus int
}

// IsSuccess reports whether the message was accepted by the provider.
func (o Outcome) IsSuccess() bool {
	return o.Kind == OutcomeDelivered
}

// OutcomeFromError maps the error produced by a relay step to its response.
// A nil error means the provider accepted the message.
func OutcomeFromError(err error) Outcome {
	if err == nil {
		return Outcome{Kind: OutcomeDelivered, Status: http.StatusOK, Body: BodyDelivered}
	}

	var upstreamErr *UpstreamError
	switch {
	case errors.Is(err, ErrMethodNotAllowed):
		return Outcome{Kind: OutcomeMethodNotAllowed, Status: http.StatusMethodNotAllowed, Body: BodyMethodNotAllowed}
	case errors.Is(err, ErrInvalidSecret):
		return Outcome{Kind: OutcomeForbidden, Status: http.StatusForbidden, Body: BodyForbidden}
	case errors.Is(err, ErrMissingParameters):
		return Outcome{Kind: OutcomeBadRequest, Status: http.StatusBadRequest, Body: BodyBadRequest}
	case errors.As(err, &upstreamErr):
		return Outcome{
			Kind:           OutcomeUpstreamFailure,
			Status:         http.StatusInternalServerError,
			Body:           UpstreamErrorBodyPrefix + upstreamErr.Body,
			UpstreamStatus: upstreamErr.StatusCode,
		}
	default:
		return InternalFailure(err.Error())
	}
}

// InternalFailure builds the catch-all response for an unexpected failure
func InternalFailure(message string) Outcome {
	return Outcome{
		Kind:   OutcomeInternalFailure,
		Status: http.StatusInternalServerError,
		Body:   ServerErrorBodyPrefix + message,
	}
}
