package auth

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	DefaultAuthenticationPort = 1812
	DefaultAccountingPort     = 1813
	DefaultTimeout            = 3 * time.Second
	DefaultRetries            = 3

	// DefaultNASRealPortVendorID is the vendor NAS-Real-Port is sent under when none is configured
	DefaultNASRealPortVendorID uint32 = 11344
	DefaultNASRealPortType     uint8  = 1
)

// VendorAttributeType identifies a Vendor-Specific sub-attribute
type VendorAttributeType struct {
	VendorID uint32
	Type     uint8
}

// ServerConfig describes one RADIUS server. It is built once and shared
// read-only by every authentication attempt against that server.
type ServerConfig struct {
	Protocol           Protocol
	Address            string
	AuthenticationPort int
	AccountingPort     int
	Secret             []byte
	Timeout            time.Duration
	Retries            int

	NASIPAddress   net.IP
	NASIPv6Address net.IP
	// NASPort is omitted from requests when nil
	NASPort       *uint32
	NASPortID     string
	NASIdentifier string
	// NASRealPort is omitted from requests when nil
	NASRealPort       *uint32
	NASRealPortVendor VendorAttributeType

	MessageAuthenticator        bool
	RequireMessageAuthenticator bool
}

// NewServerConfig returns a config for address with defaults applied and NAS fields unset
func NewServerConfig(address string, secret []byte) ServerConfig {
	return ServerConfig{
		Protocol:             ProtocolPAP,
		Address:              address,
		AuthenticationPort:   DefaultAuthenticationPort,
		AccountingPort:       DefaultAccountingPort,
		Secret:               secret,
		Timeout:              DefaultTimeout,
		Retries:              DefaultRetries,
		NASRealPortVendor:    VendorAttributeType{VendorID: DefaultNASRealPortVendorID, Type: DefaultNASRealPortType},
		MessageAuthenticator: true,
	}
}

// AuthAddr returns host:port of the authentication service
func (c *ServerConfig) AuthAddr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.AuthenticationPort))
}

// AccountingAddr returns host:port of the accounting service
func (c *ServerConfig) AccountingAddr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.AccountingPort))
}

// Name identifies the server in logs and outcomes
func (c *ServerConfig) Name() string {
	return fmt.Sprintf("%s/%s", c.Protocol, c.AuthAddr())
}

func (c *ServerConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("%w: server address is required", ErrConfiguration)
	}
	if len(c.Secret) == 0 {
		return fmt.Errorf("%w: shared secret for %s is required", ErrConfiguration, c.Address)
	}
	if c.AuthenticationPort <= 0 || c.AuthenticationPort > 65535 {
		return fmt.Errorf("%w: invalid authentication port %d", ErrConfiguration, c.AuthenticationPort)
	}
	if c.AccountingPort < 0 || c.AccountingPort > 65535 {
		return fmt.Errorf("%w: invalid accounting port %d", ErrConfiguration, c.AccountingPort)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: socket timeout must be positive", ErrConfiguration)
	}
	if c.Retries < 0 {
		return fmt.Errorf("%w: retries must not be negative", ErrConfiguration)
	}
	if c.NASIPAddress != nil && c.NASIPAddress.To4() == nil {
		return fmt.Errorf("%w: NAS-IP-Address %s is not IPv4", ErrConfiguration, c.NASIPAddress)
	}
	if c.NASIPv6Address != nil && (c.NASIPv6Address.To16() == nil || c.NASIPv6Address.To4() != nil) {
		return fmt.Errorf("%w: NAS-IPv6-Address %s is not IPv6", ErrConfiguration, c.NASIPv6Address)
	}
	if c.NASRealPort != nil && c.NASRealPortVendor.VendorID == 0 {
		return fmt.Errorf("%w: NAS-Real-Port needs a vendor id", ErrConfiguration)
	}
	return nil
}

// FailoverSettings is the ordered server list plus the two failover switches.
// Order is priority: the first server is tried first.
type FailoverSettings struct {
	Servers                         []ServerConfig
	FailoverOnException             bool
	FailoverOnAuthenticationFailure bool
}

func (s *FailoverSettings) Validate() error {
	if len(s.Servers) == 0 {
		return fmt.Errorf("%w: no RADIUS servers configured", ErrConfiguration)
	}
	for i := range s.Servers {
		if err := s.Servers[i].Validate(); err != nil {
			return fmt.Errorf("server %d: %w", i, err)
		}
	}
	return nil
}

// Policy returns the failover policy these settings describe
func (s *FailoverSettings) Policy() FailoverPolicy {
	return FailoverPolicy{
		OnException:             s.FailoverOnException,
		OnAuthenticationFailure: s.FailoverOnAuthenticationFailure,
	}
}
