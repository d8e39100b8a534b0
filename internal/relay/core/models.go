package core

import (
	"encoding/json"
	"io"
	"time"
)

// RelayRequest is the transport-neutral view of an inbound HTTP request
type RelayRequest struct {
	RequestID string
	Method    string
	Body      io.Reader
}

// OutboundNotification is the body sent to the provider's sendMessage endpoint.
// Both values are forwarded exactly as they were received.
type OutboundNotification struct {
	ChatID json.RawMessage `json:"chat_id"`
	Text   json.RawMessage `json:"text"`
}

// DeliveryReceipt describes a successful provider call
type DeliveryReceipt struct {
	StatusCode int
}

// RelayMetrics represents metrics for a single relay request.
// It never carries tokens or message content.
type RelayMetrics struct {
	RequestID      string        `json:"request_id"`
	Outcome        OutcomeKind   `json:"outcome"`
	StatusCode     int           `json:"status_code"`
	UpstreamStatus int           `json:"upstream_status,omitempty"`
	Duration       time.Duration `json:"duration"`
	Timestamp      time.Time     `json:"timestamp"`
}

// OutcomeStats summarizes relay requests recorded since a point in time
type OutcomeStats struct {
	Since         time.Time             `json:"since"`
	Total         int64                 `json:"total"`
	ByOutcome     map[OutcomeKind]int64 `json:"by_outcome"`
	AvgDurationMs float64               `json:"avg_duration_ms"`
}
