package codec

import (
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/radauth/pkg/auth"
	"github.com/vitalvas/radauth/pkg/crypto"
	"github.com/vitalvas/radauth/pkg/packet"
	"github.com/vitalvas/radauth/pkg/radtest"
)

var testSecret = []byte("testing123")

func testConfig() *auth.ServerConfig {
	cfg := auth.NewServerConfig("127.0.0.1", testSecret)
	cfg.MessageAuthenticator = false
	return &cfg
}

func decodeRequest(t *testing.T, req *Request) *packet.Packet {
	t.Helper()
	pkt, err := packet.Decode(req.Data)
	require.NoError(t, err)
	assert.Equal(t, packet.CodeAccessRequest, pkt.Code)
	assert.Equal(t, req.Identifier, pkt.Identifier)
	assert.Equal(t, [16]byte(req.Authenticator), pkt.Authenticator)
	return pkt
}

func attrTypes(pkt *packet.Packet) []uint8 {
	types := make([]uint8, 0, len(pkt.Attributes))
	for _, attr := range pkt.Attributes {
		types = append(types, attr.Type)
	}
	return types
}

func respond(t *testing.T, req *Request, handler radtest.Handler, messageAuthenticator bool) []byte {
	t.Helper()
	pkt := decodeRequest(t, req)
	resp := handler.ServeRADIUS(&radtest.Request{Packet: pkt})
	require.NotNil(t, resp)
	data, err := radtest.BuildResponse(pkt, resp, testSecret, messageAuthenticator)
	require.NoError(t, err)
	return data
}

func TestEncodePAP(t *testing.T) {
	cfg := testConfig()

	req, err := EncodeAccessRequest(auth.NewCredentials("alice", "123456"), cfg)
	require.NoError(t, err)

	pkt := decodeRequest(t, req)
	assert.Equal(t, []uint8{packet.AttrUserName, packet.AttrUserPassword}, attrTypes(pkt))

	userName, _ := pkt.GetAttribute(packet.AttrUserName)
	assert.Equal(t, "alice", userName.GetString())

	hidden, _ := pkt.GetAttribute(packet.AttrUserPassword)
	assert.Len(t, hidden.Value, 16)
	assert.NotContains(t, string(req.Data), "123456")

	password, err := crypto.DecryptUserPassword(hidden.Value, testSecret, req.Authenticator)
	require.NoError(t, err)
	assert.Equal(t, []byte("123456"), password)
}

func TestEncodeCHAP(t *testing.T) {
	cfg := testConfig()
	cfg.Protocol = auth.ProtocolCHAP

	req, err := EncodeAccessRequest(auth.NewCredentials("alice", "123456"), cfg)
	require.NoError(t, err)

	pkt := decodeRequest(t, req)
	assert.Equal(t, []uint8{packet.AttrUserName, packet.AttrCHAPPassword, packet.AttrCHAPChallenge}, attrTypes(pkt))

	chapPassword, _ := pkt.GetAttribute(packet.AttrCHAPPassword)
	challenge, _ := pkt.GetAttribute(packet.AttrCHAPChallenge)
	assert.Len(t, challenge.Value, crypto.CHAPChallengeLength)
	assert.Equal(t, req.Identifier, chapPassword.Value[0])
	assert.True(t, crypto.CheckCHAPPassword(chapPassword.Value, []byte("123456"), challenge.Value))
	assert.False(t, crypto.CheckCHAPPassword(chapPassword.Value, []byte("654321"), challenge.Value))
}

func TestEncodeFreshAuthenticator(t *testing.T) {
	cfg := testConfig()
	creds := auth.NewCredentials("alice", "123456")

	first, err := EncodeAccessRequestWithID(creds, cfg, 1)
	require.NoError(t, err)
	second, err := EncodeAccessRequestWithID(creds, cfg, 1)
	require.NoError(t, err)

	assert.NotEqual(t, first.Authenticator, second.Authenticator)
	assert.NotEqual(t, first.Data, second.Data)
}

func TestEncodeNASAttributes(t *testing.T) {
	t.Run("unset fields are omitted", func(t *testing.T) {
		req, err := EncodeAccessRequest(auth.NewCredentials("u", "p"), testConfig())
		require.NoError(t, err)

		pkt := decodeRequest(t, req)
		for _, attrType := range []uint8{
			packet.AttrNASIPAddress, packet.AttrNASIPv6Address, packet.AttrNASPort,
			packet.AttrNASPortID, packet.AttrNASIdentifier, packet.AttrVendorSpecific,
			packet.AttrMessageAuthenticator,
		} {
			_, ok := pkt.GetAttribute(attrType)
			assert.False(t, ok, packet.AttributeName(attrType))
		}
	})

	t.Run("all fields set", func(t *testing.T) {
		cfg := testConfig()
		cfg.NASIPAddress = net.ParseIP("10.0.0.10")
		cfg.NASIPv6Address = net.ParseIP("2001:db8::10")
		cfg.NASPort = uint32Ptr(0)
		cfg.NASPortID = "port-7"
		cfg.NASIdentifier = "cas"
		cfg.NASRealPort = uint32Ptr(17)
		cfg.MessageAuthenticator = true

		req, err := EncodeAccessRequest(auth.NewCredentials("u", "p"), cfg)
		require.NoError(t, err)

		pkt := decodeRequest(t, req)
		assert.Equal(t, []uint8{
			packet.AttrUserName, packet.AttrUserPassword,
			packet.AttrNASIPAddress, packet.AttrNASIPv6Address, packet.AttrNASPort,
			packet.AttrNASPortID, packet.AttrNASIdentifier, packet.AttrVendorSpecific,
			packet.AttrMessageAuthenticator,
		}, attrTypes(pkt))

		nasIP, _ := pkt.GetAttribute(packet.AttrNASIPAddress)
		assert.Equal(t, []byte{10, 0, 0, 10}, nasIP.Value)

		nasPort, _ := pkt.GetAttribute(packet.AttrNASPort)
		port, err := nasPort.GetUint32()
		require.NoError(t, err)
		assert.Equal(t, uint32(0), port)

		realPort, ok := pkt.GetVendorAttribute(auth.DefaultNASRealPortVendorID, auth.DefaultNASRealPortType)
		require.True(t, ok)
		assert.Equal(t, uint32(17), packet.DecodeUint32(realPort.Value))

		received, err := crypto.ExtractMessageAuthenticator(req.Data)
		require.NoError(t, err)
		valid, err := crypto.ValidateMessageAuthenticator(req.Data, testSecret, received)
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("custom vendor for NAS-Real-Port", func(t *testing.T) {
		cfg := testConfig()
		cfg.NASRealPort = uint32Ptr(99)
		cfg.NASRealPortVendor = auth.VendorAttributeType{VendorID: 9, Type: 42}

		req, err := EncodeAccessRequest(auth.NewCredentials("u", "p"), cfg)
		require.NoError(t, err)

		realPort, ok := decodeRequest(t, req).GetVendorAttribute(9, 42)
		require.True(t, ok)
		assert.Equal(t, uint32(99), packet.DecodeUint32(realPort.Value))
	})
}

func TestEncodeLiteralConfigOmitsNASAttributes(t *testing.T) {
	cfg := &auth.ServerConfig{
		Protocol:           auth.ProtocolPAP,
		Address:            "127.0.0.1",
		AuthenticationPort: 1812,
		Secret:             testSecret,
		Timeout:            1,
	}
	require.NoError(t, cfg.Validate())

	req, err := EncodeAccessRequest(auth.NewCredentials("u", "p"), cfg)
	require.NoError(t, err)

	pkt := decodeRequest(t, req)
	assert.Equal(t, []uint8{packet.AttrUserName, packet.AttrUserPassword}, attrTypes(pkt))

	cfg.NASRealPort = uint32Ptr(5)
	assert.ErrorIs(t, cfg.Validate(), auth.ErrConfiguration)
}

func uint32Ptr(v uint32) *uint32 {
	return &v
}

func TestEncodeErrors(t *testing.T) {
	long := strings.Repeat("x", 254)

	tests := []struct {
		name    string
		creds   auth.Credentials
		modify  func(c *auth.ServerConfig)
		wantErr error
	}{
		{"empty username", auth.NewCredentials("", "p"), nil, auth.ErrEncoding},
		{"empty password", auth.NewCredentials("u", ""), nil, auth.ErrEncoding},
		{"username too long", auth.NewCredentials(long, "p"), nil, auth.ErrEncoding},
		{"PAP password too long", auth.NewCredentials("u", strings.Repeat("p", 129)), nil, auth.ErrEncoding},
		{"NAS-Identifier too long", auth.NewCredentials("u", "p"), func(c *auth.ServerConfig) { c.NASIdentifier = long }, auth.ErrEncoding},
		{"NAS-Port-Id too long", auth.NewCredentials("u", "p"), func(c *auth.ServerConfig) { c.NASPortID = long }, auth.ErrEncoding},
		{"IPv6 as NAS-IP-Address", auth.NewCredentials("u", "p"), func(c *auth.ServerConfig) { c.NASIPAddress = net.ParseIP("::1") }, auth.ErrEncoding},
		{"NAS-Real-Port without vendor", auth.NewCredentials("u", "p"), func(c *auth.ServerConfig) {
			c.NASRealPort = uint32Ptr(1)
			c.NASRealPortVendor = auth.VendorAttributeType{}
		}, auth.ErrConfiguration},
		{"unknown protocol", auth.NewCredentials("u", "p"), func(c *auth.ServerConfig) { c.Protocol = auth.Protocol(7) }, auth.ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.modify != nil {
				tt.modify(cfg)
			}
			req, err := EncodeAccessRequest(tt.creds, cfg)
			assert.Nil(t, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := EncodeAccessRequest(auth.NewCredentials("u", "p"), nil)
	assert.ErrorIs(t, err, auth.ErrConfiguration)
}

func TestEncodeCHAPAllowsLongPassword(t *testing.T) {
	cfg := testConfig()
	cfg.Protocol = auth.ProtocolCHAP

	_, err := EncodeAccessRequest(auth.NewCredentials("u", strings.Repeat("p", 200)), cfg)
	assert.NoError(t, err)
}

func TestDecodeResponse(t *testing.T) {
	creds := auth.NewCredentials("alice", "123456")

	t.Run("accept round trip", func(t *testing.T) {
		req, err := EncodeAccessRequest(creds, testConfig())
		require.NoError(t, err)

		class := &packet.Attribute{Type: packet.AttrClass, Value: []byte("gold")}
		data := respond(t, req, radtest.Accept(class), false)

		outcome, err := DecodeResponse(data, req.Authenticator, testSecret)
		require.NoError(t, err)
		assert.Equal(t, auth.StatusAccepted, outcome.Status)
		got, ok := outcome.Attribute(packet.AttrClass)
		require.True(t, ok)
		assert.Equal(t, "gold", got.GetString())
	})

	t.Run("reject with reply message", func(t *testing.T) {
		req, err := EncodeAccessRequest(creds, testConfig())
		require.NoError(t, err)

		outcome, err := DecodeResponse(respond(t, req, radtest.Reject("Token expired"), false), req.Authenticator, testSecret)
		require.NoError(t, err)
		assert.Equal(t, auth.StatusRejected, outcome.Status)
		assert.Equal(t, "Token expired", outcome.Reason)
	})

	t.Run("reject without reply message", func(t *testing.T) {
		req, err := EncodeAccessRequest(creds, testConfig())
		require.NoError(t, err)

		outcome, err := DecodeResponse(respond(t, req, radtest.Reject(""), false), req.Authenticator, testSecret)
		require.NoError(t, err)
		assert.Equal(t, "Access-Reject", outcome.Reason)
	})

	t.Run("challenge", func(t *testing.T) {
		req, err := EncodeAccessRequest(creds, testConfig())
		require.NoError(t, err)

		outcome, err := DecodeResponse(respond(t, req, radtest.Challenge([]byte{0xde, 0xad}, "Enter code"), false), req.Authenticator, testSecret)
		require.NoError(t, err)
		assert.Equal(t, auth.StatusChallengeRequested, outcome.Status)
		assert.Equal(t, []byte{0xde, 0xad}, outcome.State)
		assert.Equal(t, "Enter code", outcome.Message)
	})

	t.Run("message authenticator verified", func(t *testing.T) {
		req, err := EncodeAccessRequest(creds, testConfig())
		require.NoError(t, err)

		data := respond(t, req, radtest.Accept(), true)
		outcome, err := DecodeResponseWithOptions(data, req.Authenticator, testSecret, DecodeOptions{RequireMessageAuthenticator: true})
		require.NoError(t, err)
		assert.True(t, outcome.IsAccepted())
	})

	t.Run("required message authenticator missing", func(t *testing.T) {
		req, err := EncodeAccessRequest(creds, testConfig())
		require.NoError(t, err)

		data := respond(t, req, radtest.Accept(), false)
		outcome, err := DecodeResponseWithOptions(data, req.Authenticator, testSecret, DecodeOptions{RequireMessageAuthenticator: true})
		assert.Nil(t, outcome)
		assert.ErrorIs(t, err, auth.ErrIntegrity)
	})
}

func TestDecodeResponseTampered(t *testing.T) {
	req, err := EncodeAccessRequest(auth.NewCredentials("alice", "123456"), testConfig())
	require.NoError(t, err)

	data := respond(t, req, radtest.Accept(), true)

	for i := 4; i < 20; i++ {
		tampered := append([]byte(nil), data...)
		tampered[i] ^= 0x80

		outcome, err := DecodeResponse(tampered, req.Authenticator, testSecret)
		assert.Nil(t, outcome, "byte %d", i)
		assert.ErrorIs(t, err, auth.ErrIntegrity, "byte %d", i)
	}

	t.Run("wrong secret", func(t *testing.T) {
		_, err := DecodeResponse(data, req.Authenticator, []byte("other"))
		assert.ErrorIs(t, err, auth.ErrIntegrity)
	})

	t.Run("wrong request authenticator", func(t *testing.T) {
		other := req.Authenticator
		other[0] ^= 0x01
		_, err := DecodeResponse(data, other, testSecret)
		assert.ErrorIs(t, err, auth.ErrIntegrity)
	})

	t.Run("code flipped to accept", func(t *testing.T) {
		rejected := respond(t, req, radtest.Reject(""), false)
		rejected[0] = byte(packet.CodeAccessAccept)
		outcome, err := DecodeResponse(rejected, req.Authenticator, testSecret)
		assert.Nil(t, outcome)
		assert.ErrorIs(t, err, auth.ErrIntegrity)
	})
}

func TestDecodeResponseMalformed(t *testing.T) {
	req, err := EncodeAccessRequest(auth.NewCredentials("alice", "123456"), testConfig())
	require.NoError(t, err)
	data := respond(t, req, radtest.Reject("no"), false)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated header", data[:10]},
		{"truncated body", data[:len(data)-1]},
		{"bad attribute length", func() []byte {
			d := append([]byte(nil), data...)
			d[21] = 1
			return d
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				outcome, err := DecodeResponse(tt.data, req.Authenticator, testSecret)
				assert.Nil(t, outcome)
				assert.ErrorIs(t, err, auth.ErrEncoding)
			})
		})
	}
}

func TestDecodeResponseUnexpectedCode(t *testing.T) {
	req, err := EncodeAccessRequest(auth.NewCredentials("alice", "123456"), testConfig())
	require.NoError(t, err)

	pkt := decodeRequest(t, req)
	for _, code := range []packet.Code{packet.CodeAccountingResponse, packet.CodeAccessRequest} {
		t.Run(code.String(), func(t *testing.T) {
			data, err := radtest.BuildResponse(pkt, &radtest.Response{Code: code}, testSecret, false)
			require.NoError(t, err)

			outcome, err := DecodeResponse(data, req.Authenticator, testSecret)
			assert.Nil(t, outcome)
			assert.ErrorIs(t, err, auth.ErrEncoding)
			assert.Contains(t, err.Error(), "unexpected response code")
		})
	}
}

func TestIdentifier(t *testing.T) {
	req, err := EncodeAccessRequestWithID(auth.NewCredentials("u", "p"), testConfig(), 77)
	require.NoError(t, err)

	id, ok := Identifier(req.Data)
	assert.True(t, ok)
	assert.Equal(t, uint8(77), id)

	_, ok = Identifier([]byte{1, 2})
	assert.False(t, ok)
}
