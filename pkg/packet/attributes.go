package packet

import "fmt"

// Attribute types used by access requests and their replies
const (
	AttrUserName             uint8 = 1  // RFC 2865
	AttrUserPassword         uint8 = 2  // RFC 2865
	AttrCHAPPassword         uint8 = 3  // RFC 2865
	AttrNASIPAddress         uint8 = 4  // RFC 2865
	AttrNASPort              uint8 = 5  // RFC 2865
	AttrServiceType          uint8 = 6  // RFC 2865
	AttrFramedIPAddress      uint8 = 8  // RFC 2865
	AttrFilterID             uint8 = 11 // RFC 2865
	AttrReplyMessage         uint8 = 18 // RFC 2865
	AttrState                uint8 = 24 // RFC 2865
	AttrClass                uint8 = 25 // RFC 2865
	AttrVendorSpecific       uint8 = 26 // RFC 2865
	AttrSessionTimeout       uint8 = 27 // RFC 2865
	AttrIdleTimeout          uint8 = 28 // RFC 2865
	AttrCalledStationID      uint8 = 30 // RFC 2865
	AttrCallingStationID     uint8 = 31 // RFC 2865
	AttrNASIdentifier        uint8 = 32 // RFC 2865
	AttrProxyState           uint8 = 33 // RFC 2865
	AttrCHAPChallenge        uint8 = 60 // RFC 2865
	AttrNASPortType          uint8 = 61 // RFC 2865
	AttrEAPMessage           uint8 = 79 // RFC 2869
	AttrMessageAuthenticator uint8 = 80 // RFC 2869
	AttrNASPortID            uint8 = 87 // RFC 2869
	AttrNASIPv6Address       uint8 = 95 // RFC 3162
)

var attributeNames = map[uint8]string{
	AttrUserName:             "User-Name",
	AttrUserPassword:         "User-Password",
	AttrCHAPPassword:         "CHAP-Password",
	AttrNASIPAddress:         "NAS-IP-Address",
	AttrNASPort:              "NAS-Port",
	AttrServiceType:          "Service-Type",
	AttrFramedIPAddress:      "Framed-IP-Address",
	AttrFilterID:             "Filter-Id",
	AttrReplyMessage:         "Reply-Message",
	AttrState:                "State",
	AttrClass:                "Class",
	AttrVendorSpecific:       "Vendor-Specific",
	AttrSessionTimeout:       "Session-Timeout",
	AttrIdleTimeout:          "Idle-Timeout",
	AttrCalledStationID:      "Called-Station-Id",
	AttrCallingStationID:     "Calling-Station-Id",
	AttrNASIdentifier:        "NAS-Identifier",
	AttrProxyState:           "Proxy-State",
	AttrCHAPChallenge:        "CHAP-Challenge",
	AttrNASPortType:          "NAS-Port-Type",
	AttrEAPMessage:           "EAP-Message",
	AttrMessageAuthenticator: "Message-Authenticator",
	AttrNASPortID:            "NAS-Port-Id",
	AttrNASIPv6Address:       "NAS-IPv6-Address",
}

// AttributeName returns the RFC name for attrType, or "Attr-N" for unknown types
func AttributeName(attrType uint8) string {
	if name, ok := attributeNames[attrType]; ok {
		return name
	}
	return fmt.Sprintf("Attr-%d", attrType)
}
