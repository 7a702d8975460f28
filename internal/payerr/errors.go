// Package payerr defines the error taxonomy for payment processing.
// Which class an error falls into decides who sees it and whether a
// reconciliation retry is scheduled.
package payerr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation: bad caller input on checkout creation. Surfaced
	// synchronously, never retried.
	ErrValidation = errors.New("validation error")
	// ErrAuth: signature missing or mismatched. Callback rejected with no
	// record mutation and no retry.
	ErrAuth = errors.New("authentication error")
	// ErrNotFound: no payment request matched the callback. Retried, since
	// the record may not be committed yet.
	ErrNotFound = errors.New("payment request not found")
	// ErrGateway: remote checkout-creation call failed or returned a
	// malformed body. Surfaced to the checkout caller, not retried.
	ErrGateway = errors.New("gateway error")
	// ErrReconciliation: storage failure or unexpected error while applying
	// a callback. Retried up to the retry limit.
	ErrReconciliation = errors.New("reconciliation error")
	// ErrRateLimited: rejected at the boundary before any processing.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrBusy: another handler holds the order lock. The in-flight handler
	// owns completion; the caller must not retry.
	ErrBusy = errors.New("payment is already being processed")
)

func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func Auth(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrAuth, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func Gateway(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrGateway, fmt.Sprintf(format, args...))
}

func Reconciliation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrReconciliation, fmt.Sprintf(format, args...))
}
