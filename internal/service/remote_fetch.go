package service

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"syscall"
	"time"

	"resty.dev/v3"
)

const maxRemoteRedirects = 5

var errDisallowedAddress = errors.New("destination address not allowed")

// newRemoteFetchClient returns the client used for image URLs. Every connection, including
// those made while following redirects, is checked against the resolved peer address.
func newRemoteFetchClient() *resty.Client {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   refuseInternalAddress,
	}
	transport := &http.Transport{
		// No proxy: the dial check must see the real destination.
		Proxy:                 nil,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	return resty.New().
		SetTransport(transport).
		SetTimeout(remoteFetchTimeout).
		SetRedirectPolicy(
			resty.FlexibleRedirectPolicy(maxRemoteRedirects),
			resty.RedirectPolicyFunc(func(req *http.Request, _ []*http.Request) error {
				return checkRemoteURL(req.URL)
			}),
		).
		AddResponseMiddleware(fetchMetricMiddleware)
}

// checkRemoteURL refuses redirects to non-http(s) schemes and to literal internal addresses.
func checkRemoteURL(u *url.URL) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", errDisallowedAddress, u.Scheme)
	}
	if addr, err := netip.ParseAddr(u.Hostname()); err == nil && !isPublicAddr(addr) {
		return fmt.Errorf("%w: %s", errDisallowedAddress, addr)
	}
	return nil
}

func refuseInternalAddress(_, address string, _ syscall.RawConn) error {
	addrPort, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", errDisallowedAddress, address)
	}
	if !isPublicAddr(addrPort.Addr()) {
		return fmt.Errorf("%w: %s", errDisallowedAddress, addrPort.Addr())
	}
	return nil
}

func isPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsValid() &&
		!addr.IsLoopback() &&
		!addr.IsPrivate() &&
		!addr.IsLinkLocalUnicast() &&
		!addr.IsLinkLocalMulticast() &&
		!addr.IsInterfaceLocalMulticast() &&
		!addr.IsMulticast() &&
		!addr.IsUnspecified() &&
		!sharedAddressSpace.Contains(addr)
}

// 100.64.0.0/10, carrier-grade NAT.
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")
