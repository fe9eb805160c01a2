package ipmatch

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	m := New(zerolog.Nop())

	tests := []struct {
		name      string
		clientIP  string
		allowList []string
		want      bool
	}{
		{"empty list allows all", "10.1.2.3", nil, true},
		{"exact match", "192.168.1.10", []string{"192.168.1.10"}, true},
		{"exact mismatch", "192.168.1.11", []string{"192.168.1.10"}, false},
		{"any entry suffices", "10.0.0.1", []string{"1.2.3.4", "10.0.0.1"}, true},

		{"cidr inside", "10.0.0.5", []string{"10.0.0.0/24"}, true},
		{"cidr outside", "10.0.1.5", []string{"10.0.0.0/24"}, false},
		{"cidr /32 exact", "10.0.0.5", []string{"10.0.0.5/32"}, true},
		{"cidr /32 off by one", "10.0.0.6", []string{"10.0.0.5/32"}, false},
		{"cidr /0 matches anything", "203.0.113.9", []string{"0.0.0.0/0"}, true},
		{"cidr /16 boundary", "172.16.255.1", []string{"172.16.0.0/16"}, true},
		{"cidr /16 outside boundary", "172.17.0.1", []string{"172.16.0.0/16"}, false},

		{"wildcard last octet", "192.168.1.5", []string{"192.168.1.*"}, true},
		{"wildcard last octet mismatch", "192.168.2.5", []string{"192.168.1.*"}, false},
		{"wildcard middle octet", "10.99.0.1", []string{"10.*.0.1"}, true},
		{"wildcard matches one octet only", "192.168.1.5.5", []string{"192.168.1.*"}, false},
		{"wildcard extends a digit run", "192.168.12.5", []string{"192.168.1*.5"}, true},

		{"malformed cidr skipped", "10.0.0.5", []string{"10.0.0.0/abc"}, false},
		{"malformed cidr prefix range", "10.0.0.5", []string{"10.0.0.0/40"}, false},
		{"malformed network skipped", "10.0.0.5", []string{"10.0.0/8"}, false},
		{"malformed entry then valid one", "10.0.0.5", []string{"bad/cidr", "10.0.0.0/24"}, true},
		{"blank entries ignored", "10.0.0.5", []string{"", "  "}, false},

		{"ipv6 client never matches cidr", "::1", []string{"10.0.0.0/8"}, false},
		{"ipv6 client never matches wildcard", "fe80::1", []string{"fe80::*"}, false},
		{"ipv6 exact string still compares", "::1", []string{"::1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, m.Matches(tt.clientIP, tt.allowList))
		})
	}
}

func TestMatchesReflexive(t *testing.T) {
	m := New(zerolog.Nop())

	for _, ip := range []string{"0.0.0.0", "127.0.0.1", "10.0.0.9", "255.255.255.255"} {
		require.True(t, m.Matches(ip, []string{ip}), "ip %s should match itself", ip)
		require.True(t, m.Matches(ip, nil), "empty list should allow %s", ip)
	}
}
