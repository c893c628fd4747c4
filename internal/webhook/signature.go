// Package webhook authenticates inbound payment-provider deliveries.
package webhook

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrEmptyHeader     = errors.New("signature header is empty")
	ErrMalformedHeader = errors.New("signature header is malformed")
	ErrBadTimestamp    = errors.New("signature timestamp is not an integer")
)

// Signature is the parsed form of the provider's x-signature header.
type Signature struct {
	Timestamp int64 // seconds since epoch, per the provider contract
	Hash      string
}

// ParseSignatureHeader parses the "ts=<epoch>,v1=<hex>" header format into a
// typed value. Unknown components are ignored; both ts and v1 are required.
func ParseSignatureHeader(header string) (Signature, error) {
	if strings.TrimSpace(header) == "" {
		return Signature{}, ErrEmptyHeader
	}

	var sig Signature
	var haveTS, haveHash bool

	for _, part := range strings.Split(header, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(name) {
		case "ts":
			ts, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
			if err != nil {
				return Signature{}, ErrBadTimestamp
			}
			sig.Timestamp = ts
			haveTS = true
		case "v1":
			sig.Hash = strings.TrimSpace(value)
			haveHash = true
		}
	}

	if !haveTS || !haveHash || sig.Hash == "" {
		return Signature{}, ErrMalformedHeader
	}
	return sig, nil
}
