package fetcher

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"net/url"

	"threatfeed/internal/usecase/fetch"
)

// checkFeedURL rejects anything but absolute http(s) URLs with a host.
// With denyInternal set the host is resolved and every address must be public.
func checkFeedURL(ctx context.Context, raw string, denyInternal bool) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", fetch.ErrInvalidURL, err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("%w: unsupported scheme %q", fetch.ErrInvalidURL, u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: missing host", fetch.ErrInvalidURL)
	}
	if !denyInternal {
		return nil
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if isInternal(addr) {
			return fmt.Errorf("%w: %s is not a public address", fetch.ErrInvalidURL, addr)
		}
		return nil
	}

	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return fmt.Errorf("%w: resolve %s: %v", fetch.ErrInvalidURL, host, err)
	}
	for _, addr := range addrs {
		if isInternal(addr) {
			return fmt.Errorf("%w: %s resolves to %s", fetch.ErrInvalidURL, host, addr)
		}
	}
	return nil
}

// isInternal reports loopback, private, link-local and unspecified addresses.
// IPv4-mapped IPv6 addresses are judged by their IPv4 form.
func isInternal(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsUnspecified()
}
