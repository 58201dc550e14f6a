package client

import (
	"context"

	"github.com/vitalvas/radauth/pkg/auth"
	"github.com/vitalvas/radauth/pkg/codec"
	"github.com/vitalvas/radauth/pkg/log"
)

// Endpoint pairs a Client with the server configuration whose NAS attributes
// go into every request. It implements auth.Server.
type Endpoint struct {
	cfg    *auth.ServerConfig
	client *Client
	logger log.Logger
}

func NewEndpoint(cfg auth.ServerConfig, logger log.Logger) (*Endpoint, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	// keep a private copy so the endpoint never observes later edits by the caller
	owned := cfg
	owned.Secret = append([]byte(nil), cfg.Secret...)

	client, err := New(&owned, logger)
	if err != nil {
		return nil, err
	}

	return &Endpoint{
		cfg:    &owned,
		client: client,
		logger: logger.WithField("server", owned.Name()),
	}, nil
}

// NewEndpoints builds one endpoint per configured server, keeping their order
func NewEndpoints(settings auth.FailoverSettings, logger log.Logger) ([]auth.Server, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	servers := make([]auth.Server, 0, len(settings.Servers))
	for _, cfg := range settings.Servers {
		endpoint, err := NewEndpoint(cfg, logger)
		if err != nil {
			return nil, err
		}
		servers = append(servers, endpoint)
	}
	return servers, nil
}

func (e *Endpoint) Name() string {
	return e.cfg.Name()
}

// Config returns the server configuration. It must not be modified.
func (e *Endpoint) Config() *auth.ServerConfig {
	return e.cfg
}

// Authenticate runs one Access-Request exchange. Every encoding, transport
// and integrity failure is reported as a TransportFailed outcome.
func (e *Endpoint) Authenticate(ctx context.Context, creds auth.Credentials) *auth.Outcome {
	resp, err := e.client.Exchange(ctx, func(identifier uint8) (*codec.Request, error) {
		return codec.EncodeAccessRequestWithID(creds, e.cfg, identifier)
	})
	if err != nil {
		e.logger.Warnf("exchange failed: %v", err)
		return auth.TransportFailed(err).WithServer(e.Name())
	}

	outcome, err := codec.DecodeResponseWithOptions(resp.Data, resp.Request.Authenticator, e.cfg.Secret, codec.DecodeOptions{
		RequireMessageAuthenticator: e.cfg.RequireMessageAuthenticator,
	})
	if err != nil {
		e.logger.Warnf("discarding response %d: %v", resp.Request.Identifier, err)
		return auth.TransportFailed(err).WithServer(e.Name())
	}

	e.logger.Debugf("response %d after %d attempts: %s", resp.Request.Identifier, resp.Attempts, outcome.Status)
	return outcome.WithServer(e.Name())
}
