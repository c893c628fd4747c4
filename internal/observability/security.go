package observability

import (
	"context"
	"log/slog"

	"storefront-gateway/internal/core/domain"
)

// SecurityLogSink records security events to the structured log. It is the
// sink of last resort when no audit store is configured.
type SecurityLogSink struct {
	logger *slog.Logger
}

func NewSecurityLogSink(logger *slog.Logger) *SecurityLogSink {
	return &SecurityLogSink{logger: logger}
}

func (s *SecurityLogSink) Record(ctx context.Context, event domain.SecurityEvent) error {
	s.logger.Warn("security event",
		"type", string(event.Type),
		"severity", string(event.Severity),
		"ip", event.IP,
		"subject", event.Subject,
		"detail", event.Detail,
	)
	return nil
}
