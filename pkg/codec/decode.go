package codec

import (
	"errors"
	"fmt"

	"github.com/vitalvas/radauth/pkg/auth"
	"github.com/vitalvas/radauth/pkg/crypto"
	"github.com/vitalvas/radauth/pkg/packet"
)

const defaultRejectReason = "Access-Reject"

// DecodeOptions tune response verification
type DecodeOptions struct {
	// RequireMessageAuthenticator rejects responses without a Message-Authenticator
	RequireMessageAuthenticator bool
}

// DecodeResponse verifies a response to the request carrying requestAuth and maps it to an Outcome.
// Nothing from the payload is trusted before the Response Authenticator checks out.
func DecodeResponse(data []byte, requestAuth crypto.Authenticator, secret []byte) (*auth.Outcome, error) {
	return DecodeResponseWithOptions(data, requestAuth, secret, DecodeOptions{})
}

func DecodeResponseWithOptions(data []byte, requestAuth crypto.Authenticator, secret []byte, opts DecodeOptions) (*auth.Outcome, error) {
	pkt, err := packet.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", auth.ErrEncoding, err)
	}
	if !pkt.Code.IsResponseTo(packet.CodeAccessRequest) {
		return nil, fmt.Errorf("%w: unexpected response code %s", auth.ErrEncoding, pkt.Code)
	}

	if err := crypto.VerifyResponse(data, requestAuth, secret); err != nil {
		if errors.Is(err, crypto.ErrAuthenticatorMismatch) {
			return nil, fmt.Errorf("%w: response authenticator mismatch", auth.ErrIntegrity)
		}
		return nil, fmt.Errorf("%w: %w", auth.ErrEncoding, err)
	}

	present, err := crypto.VerifyResponseMessageAuthenticator(data, requestAuth, secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", auth.ErrIntegrity, err)
	}
	if !present && opts.RequireMessageAuthenticator {
		return nil, fmt.Errorf("%w: response lacks Message-Authenticator", auth.ErrIntegrity)
	}

	switch pkt.Code {
	case packet.CodeAccessAccept:
		return auth.Accepted(pkt.Attributes), nil

	case packet.CodeAccessReject:
		reason := pkt.ReplyMessage()
		if reason == "" {
			reason = defaultRejectReason
		}
		return auth.Rejected(reason), nil

	default:
		var state []byte
		if attr, ok := pkt.GetAttribute(packet.AttrState); ok {
			state = attr.Value
		}
		return auth.ChallengeRequested(state, pkt.ReplyMessage()), nil
	}
}

// Identifier returns the identifier octet of an encoded packet
func Identifier(data []byte) (uint8, bool) {
	if len(data) < packet.PacketHeaderLength {
		return 0, false
	}
	return data[1], true
}
