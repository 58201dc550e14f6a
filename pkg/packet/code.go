package packet

import "fmt"

// Code represents a RADIUS packet code as defined in RFC 2865
type Code uint8

const (
	CodeAccessRequest      Code = 1
	CodeAccessAccept       Code = 2
	CodeAccessReject       Code = 3
	CodeAccountingRequest  Code = 4
	CodeAccountingResponse Code = 5
	CodeAccessChallenge    Code = 11
	CodeStatusServer       Code = 12
	CodeStatusClient       Code = 13
)

// String returns the string representation of the packet code
func (c Code) String() string {
	switch c {
	case CodeAccessRequest:
		return "Access-Request"
	case CodeAccessAccept:
		return "Access-Accept"
	case CodeAccessReject:
		return "Access-Reject"
	case CodeAccountingRequest:
		return "Accounting-Request"
	case CodeAccountingResponse:
		return "Accounting-Response"
	case CodeAccessChallenge:
		return "Access-Challenge"
	case CodeStatusServer:
		return "Status-Server"
	case CodeStatusClient:
		return "Status-Client"
	default:
		return fmt.Sprintf("Unknown(%d)", c)
	}
}

// ExpectedResponseCodes returns the codes a server may answer a request with
func (c Code) ExpectedResponseCodes() []Code {
	switch c {
	case CodeAccessRequest:
		return []Code{CodeAccessAccept, CodeAccessReject, CodeAccessChallenge}
	case CodeAccountingRequest:
		return []Code{CodeAccountingResponse}
	case CodeStatusServer:
		return []Code{CodeAccessAccept, CodeAccountingResponse}
	default:
		return nil
	}
}

// IsResponseTo reports whether c is a valid answer to a request with code req
func (c Code) IsResponseTo(req Code) bool {
	for _, expected := range req.ExpectedResponseCodes() {
		if c == expected {
			return true
		}
	}
	return false
}
