package webhook

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVerifier(t *testing.T, secret string) *Verifier {
	t.Helper()
	v := NewVerifier(secret, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	v.SetClock(func() time.Time { return time.Unix(1717243200, 0) })
	return v
}

func TestVerifier_RoundTrip(t *testing.T) {
	v := newTestVerifier(t, "test-secret")

	ts := int64(1717243200 - 60) // signed a minute ago
	header := fmt.Sprintf("ts=%d,v1=%s", ts, v.ComputeSignature("12345", "req-1", ts))

	assert.True(t, v.Verify(header, "req-1", "12345"))
}

func TestVerifier_RejectsTamperedSignature(t *testing.T) {
	v := newTestVerifier(t, "test-secret")

	ts := int64(1717243200 - 60)
	sig := v.ComputeSignature("12345", "req-1", ts)

	// Flipping any single character must cause rejection.
	for i := 0; i < len(sig); i += 7 {
		tampered := []byte(sig)
		if tampered[i] == 'a' {
			tampered[i] = 'b'
		} else {
			tampered[i] = 'a'
		}
		header := fmt.Sprintf("ts=%d,v1=%s", ts, string(tampered))
		assert.False(t, v.Verify(header, "req-1", "12345"), "flipped char at %d", i)
	}
}

func TestVerifier_RejectsReplay(t *testing.T) {
	v := newTestVerifier(t, "test-secret")

	// Correctly signed, but older than the 15-minute replay window.
	ts := int64(1717243200 - 16*60)
	header := fmt.Sprintf("ts=%d,v1=%s", ts, v.ComputeSignature("12345", "req-1", ts))

	assert.False(t, v.Verify(header, "req-1", "12345"))
}

func TestVerifier_RejectsFutureTimestamp(t *testing.T) {
	v := newTestVerifier(t, "test-secret")

	ts := int64(1717243200 + 5*60)
	header := fmt.Sprintf("ts=%d,v1=%s", ts, v.ComputeSignature("12345", "req-1", ts))

	assert.False(t, v.Verify(header, "req-1", "12345"))
}

func TestVerifier_FailsClosedWithoutSecret(t *testing.T) {
	signer := newTestVerifier(t, "test-secret")
	unconfigured := newTestVerifier(t, "")

	ts := int64(1717243200 - 60)
	header := fmt.Sprintf("ts=%d,v1=%s", ts, signer.ComputeSignature("12345", "req-1", ts))

	assert.False(t, unconfigured.Verify(header, "req-1", "12345"))
}

func TestVerifier_RejectsEmptyInputs(t *testing.T) {
	v := newTestVerifier(t, "test-secret")

	ts := int64(1717243200 - 60)
	header := fmt.Sprintf("ts=%d,v1=%s", ts, v.ComputeSignature("12345", "req-1", ts))

	assert.False(t, v.Verify("", "req-1", "12345"))
	assert.False(t, v.Verify(header, "", "12345"))
	assert.False(t, v.Verify(header, "req-1", ""))
}

func TestVerifier_AcceptsUppercaseHexFromProvider(t *testing.T) {
	v := newTestVerifier(t, "test-secret")

	ts := int64(1717243200 - 60)
	sig := strings.ToUpper(v.ComputeSignature("12345", "req-1", ts))

	header := fmt.Sprintf("ts=%d,v1=%s", ts, sig)
	require.True(t, v.Verify(header, "req-1", "12345"))
}
