package auth

import (
	"fmt"

	"github.com/vitalvas/radauth/pkg/packet"
)

type Status int

const (
	StatusAccepted Status = iota + 1
	StatusRejected
	StatusChallengeRequested
	StatusTransportFailed
)

func (s Status) String() string {
	switch s {
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	case StatusChallengeRequested:
		return "challenge_requested"
	case StatusTransportFailed:
		return "transport_failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the result of one authentication attempt. Which fields are set
// depends on Status; an Outcome is never modified after construction.
type Outcome struct {
	Status Status

	// Accepted
	Attributes []*packet.Attribute
	// Rejected
	Reason string
	// ChallengeRequested
	State   []byte
	Message string
	// TransportFailed
	Err error

	// Server names the endpoint that produced the outcome
	Server string
}

// Accepted returns an Access-Accept outcome carrying the reply attributes
func Accepted(attributes []*packet.Attribute) *Outcome {
	return &Outcome{Status: StatusAccepted, Attributes: attributes}
}

// Rejected returns an Access-Reject outcome
func Rejected(reason string) *Outcome {
	return &Outcome{Status: StatusRejected, Reason: reason}
}

// ChallengeRequested returns an Access-Challenge outcome
func ChallengeRequested(state []byte, message string) *Outcome {
	return &Outcome{Status: StatusChallengeRequested, State: state, Message: message}
}

// TransportFailed returns an outcome for a request that got no usable answer
func TransportFailed(err error) *Outcome {
	return &Outcome{Status: StatusTransportFailed, Err: err}
}

// WithServer returns a copy of o attributed to server
func (o *Outcome) WithServer(server string) *Outcome {
	c := *o
	c.Server = server
	return &c
}

func (o *Outcome) IsAccepted() bool {
	return o != nil && o.Status == StatusAccepted
}

// IsException reports whether the outcome follows the failover-on-exception branch
func (o *Outcome) IsException() bool {
	return o != nil && o.Status == StatusTransportFailed
}

// IsAuthenticationFailure reports whether the outcome follows the
// failover-on-authentication-failure branch. Challenges count as failures
// because no second round trip is attempted.
func (o *Outcome) IsAuthenticationFailure() bool {
	return o != nil && (o.Status == StatusRejected || o.Status == StatusChallengeRequested)
}

// Attribute returns the first reply attribute of attrType
func (o *Outcome) Attribute(attrType uint8) (*packet.Attribute, bool) {
	for _, attr := range o.Attributes {
		if attr.Type == attrType {
			return attr, true
		}
	}
	return nil, false
}

func (o *Outcome) String() string {
	switch o.Status {
	case StatusAccepted:
		return fmt.Sprintf("accepted by %s (%d attributes)", o.Server, len(o.Attributes))
	case StatusRejected:
		return fmt.Sprintf("rejected by %s: %s", o.Server, o.Reason)
	case StatusChallengeRequested:
		return fmt.Sprintf("challenge from %s: %s", o.Server, o.Message)
	case StatusTransportFailed:
		return fmt.Sprintf("transport failure on %s: %v", o.Server, o.Err)
	default:
		return o.Status.String()
	}
}
