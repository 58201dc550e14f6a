// Package radtest runs an in-process RADIUS authentication server for tests.
package radtest

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/vitalvas/radauth/pkg/log"
	"github.com/vitalvas/radauth/pkg/packet"
)

var errMissingPassword = errors.New("request carries no User-Password")

type Config struct {
	// Addr defaults to 127.0.0.1:0
	Addr    string
	Secret  []byte
	Handler Handler
	// MessageAuthenticator adds a signed Message-Authenticator to every reply
	MessageAuthenticator bool
	Logger               log.Logger
}

// Server is a UDP RADIUS server answering Access-Requests through a Handler
type Server struct {
	addr        string
	secret      []byte
	handler     Handler
	msgAuth     bool
	logger      log.Logger
	conn        net.PacketConn
	middlewares []Middleware
	requests    atomic.Int64
	mu          sync.RWMutex
	ready       chan struct{}
	done        chan struct{}
}

// New returns a server for cfg without binding a socket
func New(cfg Config) *Server {
	addr := cfg.Addr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	return &Server{
		addr:    addr,
		secret:  cfg.Secret,
		handler: cfg.Handler,
		msgAuth: cfg.MessageAuthenticator,
		logger:  logger,
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start listens and serves in the background. Close stops it.
func Start(cfg Config) (*Server, error) {
	s := New(cfg)
	conn, err := net.ListenPacket("udp", s.addr)
	if err != nil {
		return nil, err
	}
	go s.Serve(conn)
	<-s.ready
	return s, nil
}

// ListenAndServe blocks serving requests until Close
func (s *Server) ListenAndServe() error {
	conn, err := net.ListenPacket("udp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(conn)
}

// Serve answers requests read from conn until it is closed
func (s *Server) Serve(conn net.PacketConn) error {
	s.mu.Lock()
	s.conn = conn
	close(s.ready)
	s.mu.Unlock()

	defer close(s.done)

	s.logger.Debugf("test RADIUS server listening on %s", conn.LocalAddr())

	buffer := make([]byte, packet.MaxPacketLength)
	for {
		n, clientAddr, err := conn.ReadFrom(buffer)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			continue
		}

		data := append([]byte(nil), buffer[:n]...)
		s.handlePacket(conn, data, clientAddr)
	}
}

func (s *Server) Addr() net.Addr {
	<-s.ready
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Port returns the UDP port the server listens on
func (s *Server) Port() int {
	if addr, ok := s.Addr().(*net.UDPAddr); ok {
		return addr.Port
	}
	return 0
}

// Requests returns how many Access-Requests reached the handler
func (s *Server) Requests() int {
	return int(s.requests.Load())
}

// Close stops the server and waits for the serve loop to exit
func (s *Server) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return nil
	}
	err := conn.Close()
	<-s.done
	return err
}

// Use adds middleware to the server.
// Middlewares are applied in the order they are added.
func (s *Server) Use(middleware Middleware) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.middlewares = append(s.middlewares, middleware)
}

func (s *Server) buildHandler() Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()

	handler := s.handler
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		handler = s.middlewares[i](handler)
	}
	return handler
}

func (s *Server) handlePacket(conn net.PacketConn, data []byte, clientAddr net.Addr) {
	pkt, err := packet.Decode(data)
	if err != nil {
		s.logger.Debugf("dropping malformed datagram from %s: %v", clientAddr, err)
		return
	}
	if pkt.Code != packet.CodeAccessRequest {
		s.logger.Debugf("dropping %s from %s", pkt.Code, clientAddr)
		return
	}

	s.requests.Add(1)

	handler := s.buildHandler()
	if handler == nil {
		return
	}

	resp := handler.ServeRADIUS(&Request{
		RemoteAddr: clientAddr,
		Packet:     pkt,
		secret:     s.secret,
	})
	if resp == nil {
		s.logger.Debugf("dropping request %d from %s", pkt.Identifier, clientAddr)
		return
	}

	if resp.Stale {
		stale := *pkt
		stale.Identifier = pkt.Identifier + 1
		if out, err := BuildResponse(&stale, resp, s.secret, s.msgAuth); err == nil {
			conn.WriteTo(out, clientAddr)
		}
	}

	if resp.Forged {
		forged := *resp
		forged.Tamper = true
		if out, err := BuildResponse(pkt, &forged, s.secret, s.msgAuth); err == nil {
			conn.WriteTo(out, clientAddr)
		}
	}

	out, err := BuildResponse(pkt, resp, s.secret, s.msgAuth)
	if err != nil {
		s.logger.Errorf("failed to build response: %v", err)
		return
	}
	conn.WriteTo(out, clientAddr)
}
