// Package address classifies client addresses found in access-log lines
// as local, remote or unknown.
package address

import (
	"net/netip"
	"strings"
)

// Class is the classification of a single client address.
type Class string

// Address classes.
const (
	Local   Class = "local"
	Remote  Class = "remote"
	Unknown Class = "unknown"
)

// String implements fmt.Stringer.
func (c Class) String() string {
	return string(c)
}

// privateNetworks mirrors the IANA special-purpose registries: addresses in
// these ranges are never globally routable.
var privateNetworks = mustPrefixes(
	// IPv4
	"0.0.0.0/8",
	"10.0.0.0/8",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"172.16.0.0/12",
	"192.0.0.0/24",
	"192.0.2.0/24",
	"192.168.0.0/16",
	"198.18.0.0/15",
	"198.51.100.0/24",
	"203.0.113.0/24",
	"240.0.0.0/4",
	"255.255.255.255/32",
	// IPv6
	"::1/128",
	"::/128",
	"64:ff9b:1::/48",
	"100::/64",
	"2001::/23",
	"2001:db8::/32",
	"2001:10::/28",
	"fc00::/7",
	"fe80::/10",
)

// sharedAddressSpace (RFC 6598) is neither private nor global.
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

func mustPrefixes(cidrs ...string) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, c := range cidrs {
		prefixes = append(prefixes, netip.MustParsePrefix(c))
	}
	return prefixes
}

// Classify returns the class of a textual IPv4 or IPv6 address.
// Tokens that do not parse as an address are Unknown.
func Classify(token string) Class {
	addr, err := netip.ParseAddr(strings.TrimSpace(token))
	if err != nil {
		return Unknown
	}
	addr = addr.Unmap().WithZone("")

	private := isPrivate(addr)
	switch {
	case addr.IsMulticast():
		return Unknown
	case !private && !sharedAddressSpace.Contains(addr):
		return Remote
	case private || addr.IsLoopback() || addr.IsLinkLocalUnicast():
		return Local
	}

	return Unknown
}

// ClassifyList classifies every token in order and returns the first class
// that is not Unknown. An empty list, or one where every token is Unknown,
// yields Unknown.
func ClassifyList(tokens []string) Class {
	for _, t := range tokens {
		if c := Classify(t); c != Unknown {
			return c
		}
	}
	return Unknown
}

func isPrivate(addr netip.Addr) bool {
	for _, p := range privateNetworks {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
