package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	defaultMaxAge = 15 * time.Minute
	// maxClockSkew tolerates provider clocks running slightly ahead of ours.
	maxClockSkew = time.Minute
)

// Verifier authenticates webhook deliveries against the shared signing
// secret. The signed manifest is the provider-defined canonical string
//
//	id:{resourceId};request-id:{requestId};ts:{timestamp};
//
// hashed with HMAC-SHA256 and transmitted as lowercase hex in the v1
// component of the x-signature header.
type Verifier struct {
	secret []byte
	maxAge time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewVerifier builds a verifier. An empty secret is allowed at construction
// so startup does not depend on provider credentials, but every verification
// then fails closed. maxAge <= 0 selects the 15-minute default.
func NewVerifier(secret string, maxAge time.Duration, logger *slog.Logger) *Verifier {
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}
	return &Verifier{
		secret: []byte(secret),
		maxAge: maxAge,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock replaces the time source, for tests.
func (v *Verifier) SetClock(now func() time.Time) {
	v.now = now
}

// Verify reports whether the delivery identified by (requestID, resourceID)
// carries a valid, fresh signature. It never panics on malformed input and
// logs every rejection without leaking the secret or the full signature.
func (v *Verifier) Verify(signatureHeader, requestID, resourceID string) bool {
	if signatureHeader == "" || requestID == "" || resourceID == "" {
		v.logger.Warn("webhook rejected: missing signature inputs", "request_id", requestID)
		return false
	}
	if len(v.secret) == 0 {
		v.logger.Error("webhook rejected: signing secret is not configured")
		return false
	}

	sig, err := ParseSignatureHeader(signatureHeader)
	if err != nil {
		v.logger.Warn("webhook rejected: unparseable signature header",
			"request_id", requestID, "error", err)
		return false
	}

	age := v.now().Sub(time.Unix(sig.Timestamp, 0))
	if age > v.maxAge {
		v.logger.Warn("webhook rejected: signature timestamp too old",
			"request_id", requestID, "age", age.String())
		return false
	}
	if age < -maxClockSkew {
		v.logger.Warn("webhook rejected: signature timestamp in the future",
			"request_id", requestID)
		return false
	}

	expected := v.ComputeSignature(resourceID, requestID, sig.Timestamp)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(sig.Hash))) {
		v.logger.Warn("webhook rejected: signature mismatch", "request_id", requestID)
		return false
	}
	return true
}

// ComputeSignature returns the lowercase hex HMAC-SHA256 of the canonical
// manifest. Field order and separators are part of the provider contract;
// the string must match bit-exactly.
func (v *Verifier) ComputeSignature(resourceID, requestID string, timestamp int64) string {
	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "id:%s;request-id:%s;ts:%d;", resourceID, requestID, timestamp)
	return hex.EncodeToString(mac.Sum(nil))
}
