// Package privacy masks client identifiers before they reach logs.
package privacy

import (
	"net/netip"
)

const (
	ipv4Prefix = 24
	ipv6Prefix = 48
)

// AnonymizeAddr accepts either a bare IP or a host:port pair, as found in
// http.Request.RemoteAddr, and returns the masked network of the IP.
func AnonymizeAddr(addr string) string {
	if ap, err := netip.ParseAddrPort(addr); err == nil {
		return anonymize(ap.Addr())
	}
	return AnonymizeIP(addr)
}

// AnonymizeIP keeps the /24 network of an IPv4 address and the /48 network of
// an IPv6 address. IPv4-mapped IPv6 addresses are treated as IPv4.
// Empty input yields "unknown" and unparseable input yields "invalid".
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	return anonymize(addr)
}

func anonymize(addr netip.Addr) string {
	addr = addr.Unmap().WithZone("")
	bits := ipv6Prefix
	if addr.Is4() {
		bits = ipv4Prefix
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}
