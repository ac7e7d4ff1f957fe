// Package paramname parses and formats control-system parameter names of the
// form [protocol://[service]/]device/property[#field].
package paramname

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalid reports a string that does not follow the device/property
// notation.
var ErrInvalid = errors.New("paramname: invalid parameter name")

// KnownProtocols lists the protocols the selector offers, in display order.
var KnownProtocols = []string{
	"rda3",
	"rda",
	"tgm",
	"no",
	"rmi",
}

var notation = regexp.MustCompile(`^((?P<protocol>[^:/]+)://(?P<service>[^/]+)?/)?(?P<device>[^/#\n\t]+)/(?P<prop>[^/#\n\t]+)(#(?P<field>[^\n\t]+))?$`)

// Name is a parameter address: a device-property pair, optionally narrowed
// to one field and optionally prefixed with a protocol and service.
type Name struct {
	Device   string
	Property string
	Field    string
	protocol string
	Service  string
}

// New returns a name for device/property with no field or protocol.
func New(device, property string) Name {
	return Name{Device: device, Property: property}
}

// Parse reads a string in the device/property notation.
// The boolean is false when s does not match the notation.
func Parse(s string) (Name, bool) {
	m := notation.FindStringSubmatch(s)
	if m == nil {
		return Name{}, false
	}
	n := Name{}
	for i, group := range notation.SubexpNames() {
		switch group {
		case "protocol":
			n.protocol = m[i]
		case "service":
			n.Service = m[i]
		case "device":
			n.Device = m[i]
		case "prop":
			n.Property = m[i]
		case "field":
			n.Field = m[i]
		}
	}
	return n, true
}

// Protocol returns the protocol, or "" when none is set.
func (n Name) Protocol() string {
	return n.protocol
}

// SetProtocol changes the protocol. Clearing the protocol also clears the
// service, since a service is meaningless without one.
func (n *Name) SetProtocol(p string) {
	if p == "" {
		n.Service = ""
	}
	n.protocol = p
}

// WithProtocol returns a copy of n using protocol p.
func (n Name) WithProtocol(p string) Name {
	n.SetProtocol(p)
	return n
}

// Valid reports whether the name is complete and resolvable.
func (n Name) Valid() bool {
	if n.Device == "" || n.Property == "" {
		return false
	}
	return n.protocol != "" || n.Service == ""
}

// String renders the name, or "" if it is not valid.
func (n Name) String() string {
	if !n.Valid() {
		return ""
	}
	var b strings.Builder
	if n.protocol != "" {
		b.WriteString(n.protocol)
		b.WriteString("://")
		if n.Service != "" && n.Service != n.protocol {
			b.WriteString(n.Service)
		}
		b.WriteString("/")
	}
	b.WriteString(n.Device)
	b.WriteString("/")
	b.WriteString(n.Property)
	if n.Field != "" {
		b.WriteString("#")
		b.WriteString(n.Field)
	}
	return b.String()
}

// IsKnownProtocol reports whether p is one of KnownProtocols
// (case-insensitive).
func IsKnownProtocol(p string) bool {
	for _, known := range KnownProtocols {
		if strings.EqualFold(known, p) {
			return true
		}
	}
	return false
}
