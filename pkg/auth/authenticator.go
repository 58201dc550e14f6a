package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vitalvas/radauth/pkg/log"
)

// Server authenticates credentials against one RADIUS server.
// Implementations report every failure through the returned Outcome.
type Server interface {
	Name() string
	Authenticate(ctx context.Context, creds Credentials) *Outcome
}

// Authenticator tries servers in priority order under a FailoverPolicy.
// It holds no mutable state and is safe for concurrent use.
type Authenticator struct {
	servers []Server
	policy  FailoverPolicy
	logger  log.Logger
}

// NewAuthenticator returns an authenticator that tries servers in order under policy
func NewAuthenticator(servers []Server, policy FailoverPolicy, logger log.Logger) (*Authenticator, error) {
	if len(servers) == 0 {
		return nil, fmt.Errorf("%w: no RADIUS servers configured", ErrConfiguration)
	}
	for i, s := range servers {
		if s == nil {
			return nil, fmt.Errorf("%w: server %d is nil", ErrConfiguration, i)
		}
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	return &Authenticator{
		servers: append([]Server(nil), servers...),
		policy:  policy,
		logger:  logger,
	}, nil
}

// Policy returns the failover policy in effect
func (a *Authenticator) Policy() FailoverPolicy {
	return a.policy
}

// Servers returns the server names in priority order
func (a *Authenticator) Servers() []string {
	names := make([]string, 0, len(a.servers))
	for _, s := range a.servers {
		names = append(names, s.Name())
	}
	return names
}

// Authenticate walks the server list until one accepts or the policy stops the walk.
// When no server accepts, the last outcome is returned. The error is non-nil only for
// configuration errors and when ctx ends before the walk completes; in the latter case
// the last outcome seen, if any, is returned with it.
func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials) (*Outcome, error) {
	if a == nil || len(a.servers) == 0 {
		return nil, fmt.Errorf("%w: no RADIUS servers configured", ErrConfiguration)
	}

	logger := a.logger.WithFields(map[string]interface{}{
		"request_id": uuid.NewString(),
		"username":   creds.Username,
	})

	var last *Outcome
	for i, server := range a.servers {
		if err := ctx.Err(); err != nil {
			logger.Warnf("authentication abandoned before server %d: %v", i, err)
			return last, err
		}

		serverLog := logger.WithField("server", server.Name())
		serverLog.Debugf("trying server %d of %d", i+1, len(a.servers))

		outcome := server.Authenticate(ctx, creds)
		if outcome == nil {
			outcome = TransportFailed(fmt.Errorf("%w: server returned no outcome", ErrTransport))
		}
		if outcome.Server == "" {
			outcome = outcome.WithServer(server.Name())
		}
		last = outcome

		if outcome.IsAccepted() {
			serverLog.Info("authentication accepted")
			return outcome, nil
		}

		if !a.policy.Continue(outcome) {
			serverLog.Infof("authentication failed without failover: %s", outcome.Status)
			return outcome, nil
		}

		if outcome.IsException() {
			serverLog.Warnf("server failed, trying next: %v", outcome.Err)
		} else {
			serverLog.Infof("authentication %s, trying next server", outcome.Status)
		}
	}

	logger.Infof("all %d servers tried, returning last outcome: %s", len(a.servers), last.Status)
	return last, nil
}
