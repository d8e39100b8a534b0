package core

import (
	"context"
	"time"
)

// Primary Ports (APIs that drive our application)

// RelayService defines the main business logic interface
type RelayService interface {
	// Relay validates an inbound request, forwards it to the provider
	// and returns the outcome to report to the caller
	Relay(ctx context.Context, req RelayRequest) Outcome
}

// Secondary Ports (SPIs that are driven by our application)

// MessageSender delivers a notification to the messaging provider
type MessageSender interface {
	// SendMessage performs exactly one provider call. A non-success provider
	// status is reported as *UpstreamError.
	SendMessage(ctx context.Context, botToken string, msg OutboundNotification) (*DeliveryReceipt, error)
}

// StatsReader reads aggregated relay metrics back
type StatsReader interface {
	GetOutcomeStats(ctx context.Context, since time.Time) (*OutcomeStats, error)
}

// MetricsCollector defines interface for collecting relay metrics
type MetricsCollector interface {
	// RecordRelay records the outcome of one relay request
	RecordRelay(ctx context.Context, metrics RelayMetrics) error
}
