package domain

import "errors"

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrPaymentNotFound     = errors.New("payment not found at provider")
	ErrProviderUnavailable = errors.New("payment provider is unavailable")
)
