package radtest

import (
	"net"

	"github.com/vitalvas/radauth/pkg/crypto"
	"github.com/vitalvas/radauth/pkg/packet"
)

// Request is a decoded Access-Request seen by a Handler
type Request struct {
	RemoteAddr net.Addr
	Packet     *packet.Packet
	secret     []byte
}

// Username returns the User-Name attribute
func (r *Request) Username() string {
	attr, ok := r.Packet.GetAttribute(packet.AttrUserName)
	if !ok {
		return ""
	}
	return attr.GetString()
}

// Password reveals a PAP User-Password
func (r *Request) Password() ([]byte, error) {
	attr, ok := r.Packet.GetAttribute(packet.AttrUserPassword)
	if !ok {
		return nil, errMissingPassword
	}
	return crypto.DecryptUserPassword(attr.Value, r.secret, r.Packet.Authenticator)
}

// CheckPassword verifies password against either a PAP or a CHAP request
func (r *Request) CheckPassword(password []byte) bool {
	if chap, ok := r.Packet.GetAttribute(packet.AttrCHAPPassword); ok {
		challenge := r.Packet.Authenticator[:]
		if attr, ok := r.Packet.GetAttribute(packet.AttrCHAPChallenge); ok {
			challenge = attr.Value
		}
		return crypto.CheckCHAPPassword(chap.Value, password, challenge)
	}

	revealed, err := r.Password()
	if err != nil {
		return false
	}
	return string(revealed) == string(password)
}

// Response describes the answer to send. A nil Response sends nothing.
type Response struct {
	Code       packet.Code
	Attributes []*packet.Attribute

	// Tamper flips a bit of the Response Authenticator after signing
	Tamper bool
	// Stale sends a correctly signed reply under a different identifier first
	Stale bool
	// Forged sends a reply with the right identifier and a corrupt authenticator first
	Forged bool
}

type Handler interface {
	ServeRADIUS(req *Request) *Response
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(req *Request) *Response

func (f HandlerFunc) ServeRADIUS(req *Request) *Response {
	return f(req)
}

// Middleware wraps a Handler
type Middleware func(next Handler) Handler
