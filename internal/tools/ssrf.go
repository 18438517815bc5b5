package tools

import (
	"net"
	"net/netip"
)

// defaultResolver resolves via the system DNS.
func defaultResolver(host string) []string {
	addrs, err := net.LookupHost(host)
	if err != nil {
		return nil
	}
	return addrs
}

// ssrfRisk reports whether fetching from hostname could reach an
// internal address. Literal localhost names and private, loopback,
// link-local, reserved, multicast, and unspecified IPs are refused;
// non-literal hostnames are resolved first and every resolved address
// must be public. allowLocalhost exempts loopback only.
func (h *Handler) ssrfRisk(hostname string, allowLocalhost bool) bool {
	if hostname == "" {
		return true
	}
	normalized := normalizeHost(hostname)
	if normalized == "localhost" || normalized == "127.0.0.1" || normalized == "::1" {
		return !allowLocalhost
	}

	if ip, err := netip.ParseAddr(normalized); err == nil {
		if allowLocalhost && ip.IsLoopback() {
			return false
		}
		return privateIP(ip)
	}

	resolver := h.Resolver
	if resolver == nil {
		resolver = defaultResolver
	}
	resolved := resolver(normalized)
	if len(resolved) == 0 {
		return true
	}
	for _, addr := range resolved {
		ip, err := netip.ParseAddr(addr)
		if err != nil {
			return true
		}
		if allowLocalhost && ip.IsLoopback() {
			continue
		}
		if privateIP(ip) {
			return true
		}
	}
	return false
}

// reservedV4 is 240.0.0.0/4, the IPv4 reserved block netip has no
// predicate for.
var reservedV4 = netip.MustParsePrefix("240.0.0.0/4")

func privateIP(ip netip.Addr) bool {
	return ip.IsPrivate() ||
		ip.IsLoopback() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsMulticast() ||
		ip.IsUnspecified() ||
		reservedV4.Contains(ip.Unmap())
}
