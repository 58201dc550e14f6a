// Package handler adapts the failover authenticator to a username/token
// contract for multifactor login flows.
package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vitalvas/radauth/pkg/auth"
	"github.com/vitalvas/radauth/pkg/log"
	"github.com/vitalvas/radauth/pkg/packet"
)

var (
	ErrInvalidCredentials   = errors.New("username and token are required")
	ErrRejected             = errors.New("token rejected")
	ErrChallengeUnsupported = errors.New("RADIUS challenge is not supported")
	ErrUnavailable          = errors.New("RADIUS authentication unavailable")
)

// Authenticator is the part of auth.Authenticator the handler depends on
type Authenticator interface {
	Authenticate(ctx context.Context, creds auth.Credentials) (*auth.Outcome, error)
}

// Principal is the authenticated identity
type Principal struct {
	ID         string
	Attributes map[string][]string
}

// PrincipalFactory builds a principal from an accepted outcome
type PrincipalFactory func(username string, outcome *auth.Outcome) (*Principal, error)

// Result of a successful token authentication
type Result struct {
	Handler   string
	Principal *Principal
	Outcome   *auth.Outcome
}

type Option func(*TokenHandler)

// WithPrincipalFactory replaces DefaultPrincipalFactory
func WithPrincipalFactory(factory PrincipalFactory) Option {
	return func(h *TokenHandler) {
		if factory != nil {
			h.principals = factory
		}
	}
}

// WithLogger sets the logger for authentication attempts
func WithLogger(logger log.Logger) Option {
	return func(h *TokenHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// TokenHandler validates one-time tokens through RADIUS
type TokenHandler struct {
	name          string
	authenticator Authenticator
	principals    PrincipalFactory
	logger        log.Logger
}

// New returns a handler named name that delegates to authenticator
func New(name string, authenticator Authenticator, opts ...Option) (*TokenHandler, error) {
	if authenticator == nil {
		return nil, fmt.Errorf("%w: authenticator is required", auth.ErrConfiguration)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: handler name is required", auth.ErrConfiguration)
	}

	h := &TokenHandler{
		name:          name,
		authenticator: authenticator,
		principals:    DefaultPrincipalFactory,
		logger:        log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

func (h *TokenHandler) Name() string {
	return h.name
}

// Authenticate checks token for username. A nil error means the servers
// accepted the token; every other result maps to one of the package errors.
func (h *TokenHandler) Authenticate(ctx context.Context, username, token string) (*Result, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(token) == "" {
		return nil, ErrInvalidCredentials
	}

	logger := h.logger.WithFields(map[string]interface{}{
		"handler":  h.name,
		"username": username,
	})

	outcome, err := h.authenticator.Authenticate(ctx, auth.NewCredentials(username, token))
	if outcome == nil {
		if err == nil {
			err = auth.ErrTransport
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err != nil && !outcome.IsAccepted() {
		logger.Warnf("authentication interrupted: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	switch outcome.Status {
	case auth.StatusAccepted:
		principal, err := h.principals(username, outcome)
		if err != nil {
			return nil, fmt.Errorf("failed to build principal: %w", err)
		}
		logger.Infof("token accepted by %s", outcome.Server)
		return &Result{Handler: h.name, Principal: principal, Outcome: outcome}, nil

	case auth.StatusRejected:
		logger.Infof("token rejected by %s: %s", outcome.Server, outcome.Reason)
		return nil, fmt.Errorf("%w: %s", ErrRejected, outcome.Reason)

	case auth.StatusChallengeRequested:
		logger.Warnf("%s requested a challenge, which cannot be answered", outcome.Server)
		return nil, ErrChallengeUnsupported

	default:
		cause := outcome.Err
		if cause == nil {
			cause = auth.ErrTransport
		}
		logger.Errorf("no RADIUS server available: %v", cause)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, cause)
	}
}

// DefaultPrincipalFactory uses the username as the principal id and exposes
// reply attributes by their RFC names.
func DefaultPrincipalFactory(username string, outcome *auth.Outcome) (*Principal, error) {
	principal := &Principal{
		ID:         username,
		Attributes: make(map[string][]string),
	}

	for _, attr := range outcome.Attributes {
		if attr.Type == packet.AttrMessageAuthenticator {
			continue
		}
		name := packet.AttributeName(attr.Type)
		principal.Attributes[name] = append(principal.Attributes[name], attr.GetString())
	}
	return principal, nil
}
