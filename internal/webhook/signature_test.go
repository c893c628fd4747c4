package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignatureHeader(t *testing.T) {
	sig, err := ParseSignatureHeader("ts=1717243200,v1=abc123def")
	require.NoError(t, err)
	assert.Equal(t, int64(1717243200), sig.Timestamp)
	assert.Equal(t, "abc123def", sig.Hash)
}

func TestParseSignatureHeader_ToleratesSpacingAndExtras(t *testing.T) {
	sig, err := ParseSignatureHeader(" ts=1717243200 , v1=abc , v2=ignored ")
	require.NoError(t, err)
	assert.Equal(t, int64(1717243200), sig.Timestamp)
	assert.Equal(t, "abc", sig.Hash)
}

func TestParseSignatureHeader_Errors(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   error
	}{
		{"empty", "", ErrEmptyHeader},
		{"blank", "   ", ErrEmptyHeader},
		{"missing v1", "ts=1717243200", ErrMalformedHeader},
		{"missing ts", "v1=abc123", ErrMalformedHeader},
		{"empty v1", "ts=1717243200,v1=", ErrMalformedHeader},
		{"non-integer ts", "ts=yesterday,v1=abc123", ErrBadTimestamp},
		{"garbage", "not-a-signature", ErrMalformedHeader},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSignatureHeader(tc.header)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
