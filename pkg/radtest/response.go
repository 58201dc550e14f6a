package radtest

import (
	"fmt"

	"github.com/vitalvas/radauth/pkg/crypto"
	"github.com/vitalvas/radauth/pkg/log"
	"github.com/vitalvas/radauth/pkg/packet"
)

// BuildResponse encodes and signs resp as the answer to req
func BuildResponse(req *packet.Packet, resp *Response, secret []byte, messageAuthenticator bool) ([]byte, error) {
	out := packet.New(resp.Code, req.Identifier)
	for _, attr := range resp.Attributes {
		out.AddAttribute(attr)
	}
	if messageAuthenticator {
		out.AddAttribute(&packet.Attribute{
			Type:  packet.AttrMessageAuthenticator,
			Value: make([]byte, crypto.MessageAuthenticatorLength),
		})
	}

	data, err := out.Encode()
	if err != nil {
		return nil, err
	}

	requestAuth := crypto.Authenticator(req.Authenticator)
	if messageAuthenticator {
		if err := crypto.SignResponseMessageAuthenticator(data, requestAuth, secret); err != nil {
			return nil, fmt.Errorf("failed to sign Message-Authenticator: %w", err)
		}
	}
	if err := crypto.SignResponse(data, requestAuth, secret); err != nil {
		return nil, err
	}

	if resp.Tamper {
		data[4] ^= 0x01
	}
	return data, nil
}

// Accept answers every request with Access-Accept carrying attrs
func Accept(attrs ...*packet.Attribute) Handler {
	return HandlerFunc(func(*Request) *Response {
		return &Response{Code: packet.CodeAccessAccept, Attributes: attrs}
	})
}

// Reject answers every request with Access-Reject; an empty message sends no Reply-Message
func Reject(message string) Handler {
	return HandlerFunc(func(*Request) *Response {
		return &Response{Code: packet.CodeAccessReject, Attributes: replyMessage(message)}
	})
}

// Challenge answers every request with Access-Challenge
func Challenge(state []byte, message string) Handler {
	return HandlerFunc(func(*Request) *Response {
		attrs := replyMessage(message)
		if state != nil {
			attrs = append(attrs, &packet.Attribute{Type: packet.AttrState, Value: state})
		}
		return &Response{Code: packet.CodeAccessChallenge, Attributes: attrs}
	})
}

// Drop never answers
func Drop() Handler {
	return HandlerFunc(func(*Request) *Response {
		return nil
	})
}

// Users accepts requests whose password matches users[username] and rejects the rest
func Users(users map[string]string, attrs ...*packet.Attribute) Handler {
	return HandlerFunc(func(req *Request) *Response {
		password, ok := users[req.Username()]
		if !ok || !req.CheckPassword([]byte(password)) {
			return &Response{Code: packet.CodeAccessReject, Attributes: replyMessage("Invalid credentials")}
		}
		return &Response{Code: packet.CodeAccessAccept, Attributes: attrs}
	})
}

// Tampered wraps next and corrupts the authenticator of every reply
func Tampered() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(req *Request) *Response {
			resp := next.ServeRADIUS(req)
			if resp != nil {
				resp.Tamper = true
			}
			return resp
		})
	}
}

// StaleFirst wraps next and precedes every reply with one under a wrong identifier
func StaleFirst() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(req *Request) *Response {
			resp := next.ServeRADIUS(req)
			if resp != nil {
				resp.Stale = true
			}
			return resp
		})
	}
}

// ForgedFirst wraps next and precedes every reply with a copy whose authenticator is corrupt
func ForgedFirst() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(req *Request) *Response {
			resp := next.ServeRADIUS(req)
			if resp != nil {
				resp.Forged = true
			}
			return resp
		})
	}
}

// DropFirst wraps next and ignores the first n requests
func DropFirst(n int) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(req *Request) *Response {
			if n > 0 {
				n--
				return nil
			}
			return next.ServeRADIUS(req)
		})
	}
}

// Logging logs every request and reply code
func Logging(logger log.Logger) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(req *Request) *Response {
			resp := next.ServeRADIUS(req)
			if resp == nil {
				logger.Debugf("request %d for %q from %s: no response", req.Packet.Identifier, req.Username(), req.RemoteAddr)
			} else {
				logger.Debugf("request %d for %q from %s: %s", req.Packet.Identifier, req.Username(), req.RemoteAddr, resp.Code)
			}
			return resp
		})
	}
}

func replyMessage(message string) []*packet.Attribute {
	if message == "" {
		return nil
	}
	return []*packet.Attribute{{Type: packet.AttrReplyMessage, Value: []byte(message)}}
}
