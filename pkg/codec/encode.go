package codec

import (
	"crypto/rand"
	"fmt"

	"github.com/vitalvas/radauth/pkg/auth"
	"github.com/vitalvas/radauth/pkg/crypto"
	"github.com/vitalvas/radauth/pkg/packet"
)

// Request is an encoded Access-Request together with what is needed to check its answer
type Request struct {
	Identifier    uint8
	Authenticator crypto.Authenticator
	Data          []byte
}

// EncodeAccessRequest builds an Access-Request for creds with a random identifier
// and a fresh Request Authenticator.
func EncodeAccessRequest(creds auth.Credentials, cfg *auth.ServerConfig) (*Request, error) {
	var id [1]byte
	if _, err := rand.Read(id[:]); err != nil {
		return nil, fmt.Errorf("failed to generate identifier: %w", err)
	}
	return EncodeAccessRequestWithID(creds, cfg, id[0])
}

// EncodeAccessRequestWithID is EncodeAccessRequest with a caller chosen identifier
func EncodeAccessRequestWithID(creds auth.Credentials, cfg *auth.ServerConfig, identifier uint8) (*Request, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: server config is nil", auth.ErrConfiguration)
	}
	if creds.Username == "" {
		return nil, fmt.Errorf("%w: username is empty", auth.ErrEncoding)
	}
	if len(creds.Password) == 0 {
		return nil, fmt.Errorf("%w: password is empty", auth.ErrEncoding)
	}

	requestAuth, err := crypto.GenerateRequestAuthenticator()
	if err != nil {
		return nil, err
	}

	pkt := packet.New(packet.CodeAccessRequest, identifier)
	pkt.Authenticator = requestAuth

	userName, err := packet.NewStringAttribute(packet.AttrUserName, creds.Username)
	if err != nil {
		return nil, fmt.Errorf("%w: User-Name: %w", auth.ErrEncoding, err)
	}
	pkt.AddAttribute(userName)

	if err := addPassword(pkt, creds.Password, cfg); err != nil {
		return nil, err
	}

	if err := addNASAttributes(pkt, cfg); err != nil {
		return nil, err
	}

	data, err := pkt.Encode()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", auth.ErrEncoding, err)
	}

	if cfg.MessageAuthenticator {
		if len(data)+messageAuthenticatorAttrLen > packet.MaxPacketLength {
			return nil, fmt.Errorf("%w: %w: no room for Message-Authenticator", auth.ErrEncoding, packet.ErrPacketTooLong)
		}
		data, err = crypto.AddMessageAuthenticator(data, cfg.Secret)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", auth.ErrEncoding, err)
		}
	}

	return &Request{
		Identifier:    identifier,
		Authenticator: requestAuth,
		Data:          data,
	}, nil
}

const messageAuthenticatorAttrLen = packet.AttributeHeaderLength + crypto.MessageAuthenticatorLength

func addPassword(pkt *packet.Packet, password []byte, cfg *auth.ServerConfig) error {
	switch cfg.Protocol {
	case auth.ProtocolPAP:
		hidden, err := crypto.EncryptUserPassword(password, cfg.Secret, pkt.Authenticator)
		if err != nil {
			return fmt.Errorf("%w: %w", auth.ErrEncoding, err)
		}
		pkt.AddAttribute(&packet.Attribute{Type: packet.AttrUserPassword, Value: hidden})

	case auth.ProtocolCHAP:
		challenge, err := crypto.GenerateCHAPChallenge(crypto.CHAPChallengeLength)
		if err != nil {
			return err
		}
		pkt.AddAttribute(&packet.Attribute{
			Type:  packet.AttrCHAPPassword,
			Value: crypto.GenerateCHAPResponse(pkt.Identifier, password, challenge),
		})
		pkt.AddAttribute(&packet.Attribute{Type: packet.AttrCHAPChallenge, Value: challenge})

	default:
		return fmt.Errorf("%w: unsupported protocol %s", auth.ErrConfiguration, cfg.Protocol)
	}
	return nil
}

func addNASAttributes(pkt *packet.Packet, cfg *auth.ServerConfig) error {
	if cfg.NASIPAddress != nil {
		attr, err := packet.NewIPv4Attribute(packet.AttrNASIPAddress, cfg.NASIPAddress)
		if err != nil {
			return fmt.Errorf("%w: NAS-IP-Address: %w", auth.ErrEncoding, err)
		}
		pkt.AddAttribute(attr)
	}

	if cfg.NASIPv6Address != nil {
		attr, err := packet.NewIPv6Attribute(packet.AttrNASIPv6Address, cfg.NASIPv6Address)
		if err != nil {
			return fmt.Errorf("%w: NAS-IPv6-Address: %w", auth.ErrEncoding, err)
		}
		pkt.AddAttribute(attr)
	}

	if cfg.NASPort != nil {
		pkt.AddAttribute(packet.NewUint32Attribute(packet.AttrNASPort, *cfg.NASPort))
	}

	if cfg.NASPortID != "" {
		attr, err := packet.NewStringAttribute(packet.AttrNASPortID, cfg.NASPortID)
		if err != nil {
			return fmt.Errorf("%w: NAS-Port-Id: %w", auth.ErrEncoding, err)
		}
		pkt.AddAttribute(attr)
	}

	if cfg.NASIdentifier != "" {
		attr, err := packet.NewStringAttribute(packet.AttrNASIdentifier, cfg.NASIdentifier)
		if err != nil {
			return fmt.Errorf("%w: NAS-Identifier: %w", auth.ErrEncoding, err)
		}
		pkt.AddAttribute(attr)
	}

	if cfg.NASRealPort != nil {
		if cfg.NASRealPortVendor.VendorID == 0 {
			return fmt.Errorf("%w: NAS-Real-Port needs a vendor id", auth.ErrConfiguration)
		}
		va := packet.NewVendorAttribute(cfg.NASRealPortVendor.VendorID, cfg.NASRealPortVendor.Type, packet.EncodeUint32(*cfg.NASRealPort))
		if err := pkt.AddVendorAttribute(va); err != nil {
			return fmt.Errorf("%w: NAS-Real-Port: %w", auth.ErrEncoding, err)
		}
	}

	return nil
}
