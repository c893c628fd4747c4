package domain

import "time"

// SecurityEventType labels the classes of security-relevant rejections we audit.
type SecurityEventType string

const (
	EventInvalidWebhookSignature SecurityEventType = "INVALID_WEBHOOK_SIGNATURE"
	EventRateLimitExceeded       SecurityEventType = "RATE_LIMIT_EXCEEDED"
	EventUnauthorizedAccess      SecurityEventType = "UNAUTHORIZED_ACCESS"
)

type SecuritySeverity string

const (
	SeverityLow      SecuritySeverity = "LOW"
	SeverityMedium   SecuritySeverity = "MEDIUM"
	SeverityHigh     SecuritySeverity = "HIGH"
	SeverityCritical SecuritySeverity = "CRITICAL"
)

// SecurityEvent records one rejection for the audit trail. It never carries
// secrets or full signatures, only enough to investigate the source.
type SecurityEvent struct {
	Type      SecurityEventType
	Severity  SecuritySeverity
	IP        string
	Subject   string
	Detail    string
	CreatedAt time.Time
}
