// Package clientip extracts the caller address for request logs.
package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// RealClientIP returns the client IP from r.RemoteAddr. chi's RealIP
// middleware may already have replaced RemoteAddr with a bare address from
// X-Forwarded-For; both "host:port" and bare forms are accepted. IPv4-mapped
// IPv6 addresses are unmapped. Unparseable values are returned trimmed.
func RealClientIP(r *http.Request) string {
	raw := strings.TrimSpace(r.RemoteAddr)
	host := raw
	if h, _, err := net.SplitHostPort(raw); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if i := strings.IndexByte(host, '%'); i != -1 {
		host = host[:i]
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return host
	}
	return addr.Unmap().String()
}
