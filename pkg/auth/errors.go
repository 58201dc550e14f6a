package auth

import "errors"

var (
	// ErrConfiguration is returned for invalid or missing configuration. It is never retried.
	ErrConfiguration = errors.New("radius configuration error")
	// ErrEncoding is returned for input that cannot be represented on the wire,
	// and for received datagrams that cannot be parsed.
	ErrEncoding = errors.New("radius encoding error")
	// ErrIntegrity is returned when a response fails authenticator verification.
	ErrIntegrity = errors.New("radius integrity error")
	// ErrTimeout is returned when a server never answered within the retry budget.
	ErrTimeout = errors.New("radius timeout")
	// ErrTransport is returned for socket level failures.
	ErrTransport = errors.New("radius transport error")
)
