// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package origin validates and fetches upstream origin resources.
package origin

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
)

// ErrAddressNotAllowed is returned for origin URLs resolving to
// blocked address space. The message is deliberately generic so that
// the blocked address is never echoed back to the client.
var ErrAddressNotAllowed = errors.New("Origin address is not allowed")

// ValidateOrigin checks that rawURL is an absolute http(s) URL whose
// host, when given as an IP literal, does not point into private,
// loopback, link-local, or otherwise reserved address space.
// Hostnames are accepted as-is since resolution happens later.
func ValidateOrigin(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid origin URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("origin URL scheme %q not allowed", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return errors.New("origin URL has no host")
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		// Not an IP literal. Hostnames pass.
		return nil
	}
	if isBlockedAddr(addr) {
		return ErrAddressNotAllowed
	}
	return nil
}

func isBlockedAddr(addr netip.Addr) bool {
	if addr.Is4() {
		return isBlockedIPv4(addr.As4())
	}
	return isBlockedIPv6(addr)
}

func isBlockedIPv4(b [4]byte) bool {
	switch {
	case b[0] == 0: // 0.0.0.0/8 "this network"
		return true
	case b[0] == 10: // 10.0.0.0/8 private
		return true
	case b[0] == 100 && b[1]&0xc0 == 64: // 100.64.0.0/10 CGNAT
		return true
	case b[0] == 127: // 127.0.0.0/8 loopback
		return true
	case b[0] == 169 && b[1] == 254: // 169.254.0.0/16 link-local
		return true
	case b[0] == 172 && b[1] >= 16 && b[1] <= 31: // 172.16.0.0/12 private
		return true
	case b[0] == 192 && b[1] == 0 && b[2] == 0: // 192.0.0.0/24 IETF protocol
		return true
	case b[0] == 192 && b[1] == 0 && b[2] == 2: // 192.0.2.0/24 TEST-NET-1
		return true
	case b[0] == 192 && b[1] == 168: // 192.168.0.0/16 private
		return true
	case b[0] == 198 && b[1]&0xfe == 18: // 198.18.0.0/15 benchmarking
		return true
	case b[0] == 198 && b[1] == 51 && b[2] == 100: // 198.51.100.0/24 TEST-NET-2
		return true
	case b[0] == 203 && b[1] == 0 && b[2] == 113: // 203.0.113.0/24 TEST-NET-3
		return true
	case b[0] >= 240: // 240.0.0.0/4 reserved + broadcast
		return true
	}
	return false
}

func isBlockedIPv6(addr netip.Addr) bool {
	if addr.IsUnspecified() || addr.IsLoopback() {
		return true
	}
	b := addr.As16()
	segs := [8]uint16{}
	for i := 0; i < 8; i++ {
		segs[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
	}
	switch {
	case segs[0]&0xffc0 == 0xfe80: // fe80::/10 link-local
		return true
	case segs[0]&0xfe00 == 0xfc00: // fc00::/7 unique-local
		return true
	case segs[0] == 0x2001 && segs[1] == 0x0db8: // 2001:db8::/32 documentation
		return true
	case segs[0] == 0x64 && segs[1] == 0xff9b: // 64:ff9b::/96 and 64:ff9b:1::/48 NAT64
		return true
	}
	// IPv4-mapped (::ffff:a.b.c.d) and IPv4-compatible (::a.b.c.d)
	// addresses embed an IPv4 address that must pass the IPv4 checks.
	if segs[0] == 0 && segs[1] == 0 && segs[2] == 0 && segs[3] == 0 && segs[4] == 0 {
		if segs[5] == 0xffff {
			return isBlockedIPv4([4]byte{b[12], b[13], b[14], b[15]})
		}
		if segs[5] == 0 && (segs[6] != 0 || segs[7] > 1) {
			return isBlockedIPv4([4]byte{b[12], b[13], b[14], b[15]})
		}
	}
	return false
}
