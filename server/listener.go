package server

import (
	"context"
	"net"
	"strconv"
	"syscall"

	"github.com/sadeshahansana5-cloud/G-Create-Bot/metrics"
	"github.com/sadeshahansana5-cloud/G-Create-Bot/utils"
)

// Listen opens the TCP listener for the runner. With an empty host it binds
// every interface, preferring an IPv6 dual-stack socket and falling back to
// IPv4 when the IPv6 stack is unavailable. With a host it binds exactly that
// address. Failures are returned as *BindError.
func Listen(ctx context.Context, host string, port int) (net.Listener, error) {
	portStr := strconv.Itoa(port)

	if host != "" {
		addr := net.JoinHostPort(host, portStr)
		utils.LogInfo("[BIND] Attempting to bind HTTP server", "addr", addr)
		var lc net.ListenConfig
		ln, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			return nil, bindFailed(addr, err)
		}
		utils.LogInfo("[BIND] Successfully bound", "addr", ln.Addr().String())
		return ln, nil
	}

	addrIPv6 := net.JoinHostPort("::", portStr)
	utils.LogInfo("[IPv6] Attempting to bind HTTP server", "addr", addrIPv6)

	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			if network != "tcp6" {
				return nil
			}

			var sockErr error
			if controlErr := c.Control(func(fd uintptr) {
				sockErr = syscall.SetsockoptInt(int(fd), syscall.IPPROTO_IPV6, syscall.IPV6_V6ONLY, 0)
			}); controlErr != nil {
				return controlErr
			}
			return sockErr
		},
	}

	ln6, err := lc.Listen(ctx, "tcp6", addrIPv6)
	if err == nil {
		utils.LogInfo("[IPv6] Successfully bound, dual-stack available", "addr", ln6.Addr().String())
		return ln6, nil
	}
	utils.LogInfo("[FALLBACK] IPv6 binding failed, attempting IPv4", "addr", addrIPv6, "error", err)

	addrIPv4 := net.JoinHostPort("0.0.0.0", portStr)
	ln4, err := lc.Listen(ctx, "tcp4", addrIPv4)
	if err != nil {
		return nil, bindFailed(addrIPv4, err)
	}
	utils.LogInfo("[IPv4] Successfully bound, IPv6 not available", "addr", ln4.Addr().String())
	return ln4, nil
}

func bindFailed(addr string, err error) error {
	metrics.IncrementError("bind", "listener")
	return &BindError{Addr: addr, Err: err}
}
