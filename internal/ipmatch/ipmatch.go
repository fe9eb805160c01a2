// Package ipmatch decides whether a client address satisfies a staff
// member's allow-list. Entries come in three forms: exact addresses,
// wildcard patterns where each * stands for one dotted octet, and IPv4
// CIDR blocks. Only IPv4 dotted-quad addresses are supported; IPv6 input
// never matches an IPv4 rule.
package ipmatch

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

type Matcher struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) Matcher {
	return Matcher{log: log}
}

// Matches reports whether clientIP satisfies any entry in allowList.
// An empty allow-list means no restriction. A malformed entry is skipped
// as a non-match rather than failing the whole check.
func (m Matcher) Matches(clientIP string, allowList []string) bool {
	if len(allowList) == 0 {
		return true
	}

	for _, entry := range allowList {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		switch {
		case strings.Contains(entry, "/"):
			ok, err := cidrContains(clientIP, entry)
			if err != nil {
				m.log.Debug().Err(err).Str("entry", entry).Str("client_ip", clientIP).Msg("skipping malformed cidr entry")
				continue
			}
			if ok {
				return true
			}
		case strings.Contains(entry, "*"):
			if wildcardMatch(clientIP, entry) {
				return true
			}
		default:
			if clientIP == entry {
				return true
			}
		}
	}

	return false
}

// wildcardMatch treats each * as exactly one run of digits, everything
// else literally, anchored over the full address.
func wildcardMatch(ip, pattern string) bool {
	quoted := regexp.QuoteMeta(pattern)
	expr := "^" + strings.ReplaceAll(quoted, `\*`, `\d+`) + "$"
	re, err := regexp.Compile(expr)
	if err != nil {
		return false
	}
	return re.MatchString(ip)
}

func cidrContains(ip, cidr string) (bool, error) {
	network, prefixStr, found := strings.Cut(cidr, "/")
	if !found {
		return false, fmt.Errorf("missing prefix length in %q", cidr)
	}

	prefix, err := strconv.Atoi(prefixStr)
	if err != nil || prefix < 0 || prefix > 32 {
		return false, fmt.Errorf("invalid prefix length %q", prefixStr)
	}

	ipInt, err := ipv4ToUint32(ip)
	if err != nil {
		return false, nil // non-IPv4 client never matches an IPv4 block
	}
	networkInt, err := ipv4ToUint32(network)
	if err != nil {
		return false, err
	}

	var mask uint32
	if prefix > 0 {
		mask = 0xFFFFFFFF << (32 - prefix)
	}

	return ipInt&mask == networkInt&mask, nil
}

func ipv4ToUint32(s string) (uint32, error) {
	octets := strings.Split(s, ".")
	if len(octets) != 4 {
		return 0, fmt.Errorf("not a dotted quad: %q", s)
	}

	var v uint32
	for _, octet := range octets {
		n, err := strconv.Atoi(octet)
		if err != nil || n < 0 || n > 255 {
			return 0, fmt.Errorf("invalid octet %q in %q", octet, s)
		}
		v = v<<8 | uint32(n)
	}
	return v, nil
}
