package auth

import (
	"fmt"
	"strings"
)

// Protocol selects how the password is carried in an Access-Request
type Protocol int

const (
	ProtocolPAP Protocol = iota
	ProtocolCHAP
)

var protocolNames = map[string]Protocol{
	"pap":      ProtocolPAP,
	"chap":     ProtocolCHAP,
	"chap_md5": ProtocolCHAP,
}

// Known RADIUS authentication methods this client does not speak.
var unsupportedProtocols = map[string]struct{}{
	"eap_md5":      {},
	"eap_mschapv2": {},
	"mschapv1":     {},
	"mschapv2":     {},
}

// ParseProtocol converts a configured protocol name. Matching ignores case and
// treats '-' and '_' alike.
func ParseProtocol(name string) (Protocol, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))

	if p, ok := protocolNames[key]; ok {
		return p, nil
	}
	if _, ok := unsupportedProtocols[key]; ok {
		return 0, fmt.Errorf("%w: unsupported protocol %q", ErrConfiguration, name)
	}
	return 0, fmt.Errorf("%w: unknown protocol %q", ErrConfiguration, name)
}

func (p Protocol) String() string {
	switch p {
	case ProtocolPAP:
		return "pap"
	case ProtocolCHAP:
		return "chap"
	default:
		return fmt.Sprintf("protocol(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler
func (p Protocol) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Protocol) UnmarshalText(text []byte) error {
	parsed, err := ParseProtocol(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
