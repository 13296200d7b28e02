// Package addr provides the address type the driver uses to identify and
// dial servers.
package addr

import (
	"net"
	"strings"
)

const defaultPort = "27017"

// Addr is a network address. It can either be an IP address or a DNS name.
type Addr string

// Network is the network protocol for this address. In most cases this will be
// "tcp" or "unix".
func (a Addr) Network() string {
	if strings.HasSuffix(string(a), "sock") {
		return "unix"
	}
	return "tcp"
}

// String is the canonical version of this address, e.g. localhost:27017,
// 1.2.3.4:27017, example.com:27017. Addresses without a port get the
// server's default port.
func (a Addr) String() string {
	s := strings.ToLower(string(a))
	if s == "" || a.Network() == "unix" {
		return s
	}

	if _, _, err := net.SplitHostPort(s); err != nil {
		if ae, ok := err.(*net.AddrError); ok && strings.Contains(ae.Err, "missing port") {
			s = net.JoinHostPort(s, defaultPort)
		}
	}

	return s
}

// Canonicalize creates a canonicalized address.
func (a Addr) Canonicalize() Addr {
	return Addr(a.String())
}
