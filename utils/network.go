package utils

import (
	"net"
	"net/netip"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Proxy headers in the order ClientIP trusts them.
const (
	headerCFConnectingIP = "CF-Connecting-IP"
	headerForwardedFor   = "X-Forwarded-For"
	headerRealIP         = "X-Real-IP"
)

// ClientIP returns the best-effort client address. Proxy headers are only
// consulted when trustProxy is set, since clients can forge them otherwise.
func ClientIP(c *fiber.Ctx, trustProxy bool) string {
	if !trustProxy {
		return c.IP()
	}
	if addr, ok := parseAddr(c.Get(headerCFConnectingIP)); ok {
		return addr.String()
	}
	if addr, ok := pickForwarded(c.Get(headerForwardedFor)); ok {
		return addr.String()
	}
	if addr, ok := parseAddr(c.Get(headerRealIP)); ok {
		return addr.String()
	}
	return c.IP()
}

// pickForwarded returns the first public hop of an X-Forwarded-For chain,
// or the first parseable one when every hop is private.
func pickForwarded(chain string) (netip.Addr, bool) {
	var fallback netip.Addr
	for _, hop := range strings.Split(chain, ",") {
		addr, ok := parseAddr(hop)
		if !ok {
			continue
		}
		if isPublicAddr(addr) {
			return addr, true
		}
		if !fallback.IsValid() {
			fallback = addr
		}
	}
	return fallback, fallback.IsValid()
}

func parseAddr(raw string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

func isPublicAddr(addr netip.Addr) bool {
	return addr.IsValid() &&
		!addr.IsUnspecified() &&
		!addr.IsLoopback() &&
		!addr.IsPrivate() &&
		!addr.IsLinkLocalUnicast()
}

// IsPublicIP reports whether ip is routable on the public internet.
func IsPublicIP(ip net.IP) bool {
	addr, ok := netip.AddrFromSlice(ip)
	if !ok {
		return false
	}
	return isPublicAddr(addr.Unmap())
}
