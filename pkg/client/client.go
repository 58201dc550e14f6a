package client

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/vitalvas/radauth/pkg/auth"
	"github.com/vitalvas/radauth/pkg/codec"
	"github.com/vitalvas/radauth/pkg/crypto"
	"github.com/vitalvas/radauth/pkg/log"
	"github.com/vitalvas/radauth/pkg/packet"
)

// RequestBuilder encodes a request under the given identifier. It is called once
// per attempt so every resend carries a fresh Request Authenticator.
type RequestBuilder func(identifier uint8) (*codec.Request, error)

// Response is the datagram that answered Request
type Response struct {
	Request  *codec.Request
	Data     []byte
	Attempts int
}

// Client is the UDP transport to one RADIUS server. It keeps no per-exchange
// state, so concurrent Exchange calls are independent.
type Client struct {
	cfg    *auth.ServerConfig
	addr   string
	logger log.Logger
}

func New(cfg *auth.ServerConfig, logger log.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: server config is nil", auth.ErrConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	return &Client{
		cfg:    cfg,
		addr:   cfg.AuthAddr(),
		logger: logger.WithField("server", cfg.AuthAddr()),
	}, nil
}

// Addr returns the authentication address requests are sent to
func (c *Client) Addr() string {
	return c.addr
}

// Exchange sends the request built by build and waits for the datagram carrying the
// same identifier. Each of the Retries+1 attempts uses a new identifier and a new
// request; datagrams for earlier attempts are ignored.
func (c *Client) Exchange(ctx context.Context, build RequestBuilder) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", auth.ErrTransport, err)
	}

	// Create a new connection for each exchange to ensure concurrency safety
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "udp", c.addr)
	if err != nil {
		return nil, c.transportError(ctx, fmt.Errorf("failed to dial %s: %w", c.addr, err))
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	defer stop()

	identifier, err := randomIdentifier()
	if err != nil {
		return nil, err
	}

	attempts := c.cfg.Retries + 1
	buffer := make([]byte, packet.MaxPacketLength)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, c.transportError(ctx, err)
		}

		req, err := build(identifier)
		if err != nil {
			return nil, err
		}

		c.logger.Debugf("sending request %d, attempt %d of %d", req.Identifier, attempt, attempts)

		if _, err := conn.Write(req.Data); err != nil {
			if ctx.Err() != nil {
				return nil, c.transportError(ctx, err)
			}
			lastErr = fmt.Errorf("failed to write packet: %w", err)
			c.logger.Debugf("attempt %d: %v", attempt, lastErr)
			identifier++
			continue
		}

		deadline := time.Now().Add(c.cfg.Timeout)
		if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
			deadline = ctxDeadline
		}
		if err := conn.SetReadDeadline(deadline); err != nil {
			return nil, c.transportError(ctx, fmt.Errorf("failed to set deadline: %w", err))
		}

		data, forged, err := c.readResponse(conn, buffer, req)
		if err == nil {
			return &Response{
				Request:  req,
				Data:     data,
				Attempts: attempt,
			}, nil
		}

		if ctx.Err() != nil {
			return nil, c.transportError(ctx, err)
		}
		switch {
		case errors.Is(err, os.ErrDeadlineExceeded) && forged > 0:
			lastErr = fmt.Errorf("%w: discarded %d responses with a bad authenticator", auth.ErrIntegrity, forged)
			c.logger.Debugf("attempt %d: %v", attempt, lastErr)
		case errors.Is(err, os.ErrDeadlineExceeded):
			c.logger.Debugf("attempt %d: no response within %s", attempt, c.cfg.Timeout)
		default:
			lastErr = err
			c.logger.Debugf("attempt %d: %v", attempt, err)
		}
		identifier++
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %s after %d attempts: %w", auth.ErrTransport, c.addr, attempts, lastErr)
	}
	return nil, fmt.Errorf("%w: no response from %s after %d attempts", auth.ErrTimeout, c.addr, attempts)
}

// readResponse reads until an authentic answer to req arrives or the read deadline
// passes. Datagrams failing Response Authenticator verification are discarded and
// counted.
func (c *Client) readResponse(conn net.Conn, buffer []byte, req *codec.Request) ([]byte, int, error) {
	var forged int
	for {
		n, err := conn.Read(buffer)
		if err != nil {
			return nil, forged, err
		}

		id, ok := codec.Identifier(buffer[:n])
		if !ok {
			c.logger.Debugf("ignoring %d byte datagram", n)
			continue
		}
		if id != req.Identifier {
			c.logger.Debugf("ignoring stale response %d, waiting for %d", id, req.Identifier)
			continue
		}
		if err := crypto.VerifyResponse(buffer[:n], req.Authenticator, c.cfg.Secret); err != nil {
			forged++
			c.logger.Debugf("ignoring response %d: %v", id, err)
			continue
		}

		return append([]byte(nil), buffer[:n]...), forged, nil
	}
}

func (c *Client) transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", auth.ErrTransport, ctxErr)
	}
	return fmt.Errorf("%w: %w", auth.ErrTransport, err)
}

func randomIdentifier() (uint8, error) {
	var id [1]byte
	if _, err := rand.Read(id[:]); err != nil {
		return 0, fmt.Errorf("failed to generate identifier: %w", err)
	}
	return id[0], nil
}
