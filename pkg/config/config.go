// Package config loads the RADIUS server list and failover switches from YAML
// and assembles them into an authenticator.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/asaskevich/govalidator"
	"gopkg.in/yaml.v3"

	"github.com/vitalvas/radauth/pkg/auth"
)

const DefaultName = "radius"

// File is the on-disk configuration. Pointer fields distinguish absent keys
// from zero values so defaults can be applied.
type File struct {
	Name                            string   `yaml:"name"`
	FailoverOnException             *bool    `yaml:"failover_on_exception"`
	FailoverOnAuthenticationFailure *bool    `yaml:"failover_on_authentication_failure"`
	SharedSecret                    string   `yaml:"shared_secret,omitempty"`
	Servers                         []Server `yaml:"servers"`
}

// Server is one entry of the servers list
type Server struct {
	Protocol                    string         `yaml:"protocol"`
	Address                     string         `yaml:"address"`
	AuthenticationPort          *int           `yaml:"authentication_port"`
	AccountingPort              *int           `yaml:"accounting_port"`
	SharedSecret                string         `yaml:"shared_secret"`
	SocketTimeout               *time.Duration `yaml:"socket_timeout"`
	Retries                     *int           `yaml:"retries"`
	NASIPAddress                string         `yaml:"nas_ip_address,omitempty"`
	NASIPv6Address              string         `yaml:"nas_ipv6_address,omitempty"`
	NASPort                     *int64         `yaml:"nas_port,omitempty"`
	NASPortID                   string         `yaml:"nas_port_id,omitempty"`
	NASIdentifier               string         `yaml:"nas_identifier,omitempty"`
	NASRealPort                 *int64         `yaml:"nas_real_port,omitempty"`
	NASRealPortVendor           *Vendor        `yaml:"nas_real_port_vendor,omitempty"`
	MessageAuthenticator        *bool          `yaml:"message_authenticator"`
	RequireMessageAuthenticator bool           `yaml:"require_message_authenticator"`
}

type Vendor struct {
	VendorID uint32 `yaml:"vendor_id"`
	Type     uint8  `yaml:"type"`
}

// Load reads and parses the YAML file at path
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: configuration file %s not found", auth.ErrConfiguration, path)
		}
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and validates the result
func Parse(data []byte) (*File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: failed to parse configuration file: %w", auth.ErrConfiguration, err)
	}

	file.applyDefaults()

	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

func (f *File) applyDefaults() {
	if f.Name == "" {
		f.Name = DefaultName
	}
	if f.FailoverOnException == nil {
		f.FailoverOnException = boolPtr(false)
	}
	if f.FailoverOnAuthenticationFailure == nil {
		f.FailoverOnAuthenticationFailure = boolPtr(false)
	}

	for i := range f.Servers {
		server := &f.Servers[i]
		if server.Protocol == "" {
			server.Protocol = auth.ProtocolPAP.String()
		}
		if server.AuthenticationPort == nil {
			server.AuthenticationPort = intPtr(auth.DefaultAuthenticationPort)
		}
		if server.AccountingPort == nil {
			server.AccountingPort = intPtr(auth.DefaultAccountingPort)
		}
		if server.SharedSecret == "" {
			server.SharedSecret = f.SharedSecret
		}
		if server.SocketTimeout == nil {
			timeout := auth.DefaultTimeout
			server.SocketTimeout = &timeout
		}
		if server.Retries == nil {
			server.Retries = intPtr(auth.DefaultRetries)
		}
		if server.NASRealPortVendor == nil {
			server.NASRealPortVendor = &Vendor{
				VendorID: auth.DefaultNASRealPortVendorID,
				Type:     auth.DefaultNASRealPortType,
			}
		}
		if server.MessageAuthenticator == nil {
			server.MessageAuthenticator = boolPtr(true)
		}
	}
}

// Validate checks the file after defaults were applied
func (f *File) Validate() error {
	if len(f.Servers) == 0 {
		return fmt.Errorf("%w: at least one server must be configured", auth.ErrConfiguration)
	}

	for i := range f.Servers {
		if err := f.Servers[i].validate(); err != nil {
			return fmt.Errorf("%w: server %d: %w", auth.ErrConfiguration, i, err)
		}
	}
	return nil
}

func (s *Server) validate() error {
	if _, err := auth.ParseProtocol(s.Protocol); err != nil {
		return err
	}
	if s.Address == "" {
		return errors.New("address is required")
	}
	if !govalidator.IsHost(s.Address) {
		return fmt.Errorf("invalid address %q", s.Address)
	}
	if s.AuthenticationPort == nil || !govalidator.IsPort(strconv.Itoa(*s.AuthenticationPort)) {
		return errors.New("invalid authentication_port")
	}
	if s.AccountingPort != nil && *s.AccountingPort != 0 && !govalidator.IsPort(strconv.Itoa(*s.AccountingPort)) {
		return errors.New("invalid accounting_port")
	}
	if s.SharedSecret == "" {
		return errors.New("shared_secret is required")
	}
	if s.SocketTimeout != nil && *s.SocketTimeout <= 0 {
		return errors.New("socket_timeout must be positive")
	}
	if s.Retries != nil && *s.Retries < 0 {
		return errors.New("retries must not be negative")
	}
	if s.NASIPAddress != "" && !govalidator.IsIPv4(s.NASIPAddress) {
		return fmt.Errorf("nas_ip_address %q is not an IPv4 address", s.NASIPAddress)
	}
	if s.NASIPv6Address != "" && !govalidator.IsIPv6(s.NASIPv6Address) {
		return fmt.Errorf("nas_ipv6_address %q is not an IPv6 address", s.NASIPv6Address)
	}
	if s.NASPort != nil && (*s.NASPort < 0 || *s.NASPort > 0xffffffff) {
		return fmt.Errorf("nas_port %d out of range", *s.NASPort)
	}
	if s.NASRealPort != nil && (*s.NASRealPort < 0 || *s.NASRealPort > 0xffffffff) {
		return fmt.Errorf("nas_real_port %d out of range", *s.NASRealPort)
	}
	if s.NASRealPort != nil && (s.NASRealPortVendor == nil || s.NASRealPortVendor.VendorID == 0) {
		return errors.New("nas_real_port_vendor.vendor_id is required with nas_real_port")
	}
	if len(s.NASPortID) > 253 {
		return errors.New("nas_port_id longer than 253 bytes")
	}
	if len(s.NASIdentifier) > 253 {
		return errors.New("nas_identifier longer than 253 bytes")
	}
	return nil
}

// Settings converts the file into failover settings, keeping server order
func (f *File) Settings() (auth.FailoverSettings, error) {
	settings := auth.FailoverSettings{
		FailoverOnException:             deref(f.FailoverOnException),
		FailoverOnAuthenticationFailure: deref(f.FailoverOnAuthenticationFailure),
		Servers:                         make([]auth.ServerConfig, 0, len(f.Servers)),
	}

	for i := range f.Servers {
		cfg, err := f.Servers[i].serverConfig()
		if err != nil {
			return auth.FailoverSettings{}, fmt.Errorf("server %d: %w", i, err)
		}
		settings.Servers = append(settings.Servers, cfg)
	}

	if err := settings.Validate(); err != nil {
		return auth.FailoverSettings{}, err
	}
	return settings, nil
}

func (s *Server) serverConfig() (auth.ServerConfig, error) {
	protocol, err := auth.ParseProtocol(s.Protocol)
	if err != nil {
		return auth.ServerConfig{}, err
	}

	cfg := auth.NewServerConfig(s.Address, []byte(s.SharedSecret))
	cfg.Protocol = protocol
	if s.AuthenticationPort != nil {
		cfg.AuthenticationPort = *s.AuthenticationPort
	}
	if s.AccountingPort != nil {
		cfg.AccountingPort = *s.AccountingPort
	}
	if s.SocketTimeout != nil {
		cfg.Timeout = *s.SocketTimeout
	}
	if s.Retries != nil {
		cfg.Retries = *s.Retries
	}
	if s.NASIPAddress != "" {
		cfg.NASIPAddress = net.ParseIP(s.NASIPAddress)
	}
	if s.NASIPv6Address != "" {
		cfg.NASIPv6Address = net.ParseIP(s.NASIPv6Address)
	}
	if s.NASPort != nil {
		cfg.NASPort = uint32Ptr(uint32(*s.NASPort))
	}
	cfg.NASPortID = s.NASPortID
	cfg.NASIdentifier = s.NASIdentifier
	if s.NASRealPort != nil {
		cfg.NASRealPort = uint32Ptr(uint32(*s.NASRealPort))
	}
	if s.NASRealPortVendor != nil {
		cfg.NASRealPortVendor = auth.VendorAttributeType{
			VendorID: s.NASRealPortVendor.VendorID,
			Type:     s.NASRealPortVendor.Type,
		}
	}
	if s.MessageAuthenticator != nil {
		cfg.MessageAuthenticator = *s.MessageAuthenticator
	}
	cfg.RequireMessageAuthenticator = s.RequireMessageAuthenticator

	return cfg, nil
}

func boolPtr(v bool) *bool {
	return &v
}

func intPtr(v int) *int {
	return &v
}

func uint32Ptr(v uint32) *uint32 {
	return &v
}

func deref(v *bool) bool {
	return v != nil && *v
}
