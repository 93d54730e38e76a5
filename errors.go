package bitcoinlab

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies why a query against an external service failed, so that
// callers can branch on the cause instead of matching message strings.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindTimeout
	KindInvalidAddress
	KindParse
	KindInsufficientFunds
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindInvalidAddress:
		return "invalid address"
	case KindParse:
		return "parse"
	case KindInsufficientFunds:
		return "insufficient funds"
	default:
		return "unknown"
	}
}

// Error is the failure value returned by the explorer, price and builder
// operations. Op is the human-readable action ("getting balance"), Err the
// underlying cause.
//
// Note: KindNetwork and KindTimeout are retryable in principle while the
// other kinds are permanent, but no retry policy acts on the distinction.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("Error %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// NetworkError wraps a transport failure, sniffing timeouts so they surface
// with their own kind.
func NetworkError(op string, err error) *Error {
	kind := KindNetwork
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		kind = KindTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind recorded on err, or 0 if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
