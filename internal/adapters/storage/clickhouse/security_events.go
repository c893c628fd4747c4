package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"storefront-gateway/internal/core/domain"
)

// SecurityEventSink writes security events to ClickHouse for the audit trail.
// Events are append-only; the table is queried by the audit tooling, not by
// the gateway itself.
type SecurityEventSink struct {
	conn driver.Conn
}

func NewSecurityEventSink(ctx context.Context, addr string) (*SecurityEventSink, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{Addr: []string{addr}})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}
	return &SecurityEventSink{conn: conn}, nil
}

func (s *SecurityEventSink) Record(ctx context.Context, event domain.SecurityEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	const sql = `
		INSERT INTO security_events (event_type, severity, ip, subject, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	err := s.conn.Exec(ctx, sql,
		string(event.Type),
		string(event.Severity),
		event.IP,
		event.Subject,
		event.Detail,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert security event: %w", err)
	}
	return nil
}

func (s *SecurityEventSink) Close() error {
	return s.conn.Close()
}
