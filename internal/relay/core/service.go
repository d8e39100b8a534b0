package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"gopkg.in/validator.v2"
)

// ServiceConfig holds the dependencies of the relay service
type ServiceConfig struct {
	Sender  MessageSender `validate:"nonnil"`
	Logger  *slog.Logger  `validate:"nonnil"`
	Metrics MetricsCollector

	// SecretToken is fixed at startup. Empty disables the secret check.
	SecretToken string
}

// Service implements the RelayService interface
type Service struct {
	sender      MessageSender
	metrics     MetricsCollector
	logger      *slog.Logger
	secretToken string
}

// NewService creates a new relay service with all dependencies
func NewService(config ServiceConfig) (*Service, error) {
	if err := validator.Validate(config); err != nil {
		return nil, fmt.Errorf("invalid service configuration: %w", err)
	}

	return &Service{
		sender:      config.Sender,
		metrics:     config.Metrics,
		logger:      config.Logger,
		secretToken: config.SecretToken,
	}, nil
}

// Relay processes one inbound request and returns the outcome to report
func (s *Service) Relay(ctx context.Context, req RelayRequest) Outcome {
	startTime := time.Now()

	receipt, err := s.relay(ctx, req)
	outcome := OutcomeFromError(err)
	if receipt != nil {
		outcome.UpstreamStatus = receipt.StatusCode
	}

	if outcome.Kind == OutcomeInternalFailure || outcome.Kind == OutcomeUpstreamFailure {
		s.logger.ErrorContext(ctx, "Relay request failed",
			"request_id", req.RequestID,
			"outcome", outcome.Kind,
			"upstream_status", outcome.UpstreamStatus,
			"error", err.Error(),
		)
	} else {
		s.logger.DebugContext(ctx, "Relay request completed",
			"request_id", req.RequestID,
			"outcome", outcome.Kind,
		)
	}

	s.recordMetrics(ctx, req, outcome, startTime)

	return outcome
}

// relay runs the validation steps in order and stops at the first failure
func (s *Service) relay(ctx context.Context, req RelayRequest) (*DeliveryReceipt, error) {
	if req.Method != http.MethodPost {
		return nil, ErrMethodNotAllowed
	}

	if req.Body == nil {
		return nil, fmt.Errorf("failed to parse request body: %w", io.ErrUnexpectedEOF)
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	payload, err := ParseInboundPayload(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse request body: %w", err)
	}

	if s.secretToken != "" && !payload.SecretMatches(s.secretToken) {
		return nil, ErrInvalidSecret
	}

	if !payload.HasRequiredFields() {
		return nil, ErrMissingParameters
	}

	s.logger.DebugContext(ctx, "Forwarding message to provider",
		"request_id", req.RequestID,
		"chat_id", string(payload.ChatID),
		"message_length", payload.MessageLength(),
	)

	receipt, err := s.sender.SendMessage(ctx, payload.BotTokenValue(), payload.Notification())
	if err != nil {
		var upstreamErr *UpstreamError
		if errors.As(err, &upstreamErr) {
			return &DeliveryReceipt{StatusCode: upstreamErr.StatusCode}, err
		}
		return nil, err
	}

	return receipt, nil
}

func (s *Service) recordMetrics(ctx context.Context, req RelayRequest, outcome Outcome, startTime time.Time) {
	if s.metrics == nil {
		return
	}

	metrics := RelayMetrics{
		RequestID:      req.RequestID,
		Outcome:        outcome.Kind,
		StatusCode:     outcome.Status,
		UpstreamStatus: outcome.UpstreamStatus,
		Duration:       time.Since(startTime),
		Timestamp:      startTime,
	}

	if err := s.metrics.RecordRelay(ctx, metrics); err != nil {
		s.logger.WarnContext(ctx, "Failed to record relay metrics",
			"request_id", req.RequestID,
			"error", err.Error(),
		)
	}
}
