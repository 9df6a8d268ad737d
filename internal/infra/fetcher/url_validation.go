package fetcher

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"net/url"
)

// cgnat is the shared address space (RFC 6598) that IsPrivate does not cover.
var cgnat = netip.MustParsePrefix("100.64.0.0/10")

// validateURL rejects article links that are not http(s) and, when
// denyPrivateIPs is set, hosts resolving to internal addresses. News items
// come from third-party feeds, so their links are untrusted.
func validateURL(ctx context.Context, urlStr string, denyPrivateIPs bool) error {
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("%w: parse error: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme '%s' not allowed (only http/https)", ErrInvalidURL, u.Scheme)
	}
	hostname := u.Hostname()
	if hostname == "" {
		return fmt.Errorf("%w: empty hostname", ErrInvalidURL)
	}
	if !denyPrivateIPs {
		return nil
	}

	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", hostname)
	if err != nil {
		return fmt.Errorf("%w: DNS lookup failed for %s: %v", ErrInvalidURL, hostname, err)
	}
	for _, addr := range addrs {
		if isInternal(addr) {
			return fmt.Errorf("%w: hostname '%s' resolves to %s", ErrPrivateIP, hostname, addr)
		}
	}
	return nil
}

func isInternal(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() ||
		addr.IsUnspecified() || cgnat.Contains(addr)
}
