package useragent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want DeviceInfo
	}{
		{
			name: "chrome on windows desktop",
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			want: DeviceInfo{Browser: "Chrome", OS: "Windows", DeviceType: "desktop"},
		},
		{
			name: "edge is not reported as chrome",
			ua:   "Mozilla/5.0 (Windows NT 10.0) AppleWebKit/537.36 Chrome/120.0 Safari/537.36 Edg/120.0",
			want: DeviceInfo{Browser: "Edge", OS: "Windows", DeviceType: "desktop"},
		},
		{
			name: "safari is not reported when chrome token present",
			ua:   "Mozilla/5.0 (Macintosh; Intel) AppleWebKit/605.1.15 Version/17.0 Safari/605.1.15",
			want: DeviceInfo{Browser: "Safari", OS: "MacOS", DeviceType: "desktop"},
		},
		{
			name: "firefox on linux",
			ua:   "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			want: DeviceInfo{Browser: "Firefox", OS: "Linux", DeviceType: "desktop"},
		},
		{
			name: "android phone reports mobile",
			ua:   "Mozilla/5.0 (Android 14; Mobile; rv:121.0) Gecko/121.0 Firefox/121.0",
			want: DeviceInfo{Browser: "Firefox", OS: "Android", DeviceType: "mobile"},
		},
		{
			name: "tablet token",
			ua:   "Mozilla/5.0 (Android 13; Tablet; rv:121.0) Gecko/121.0 Firefox/121.0",
			want: DeviceInfo{Browser: "Firefox", OS: "Android", DeviceType: "tablet"},
		},
		{
			name: "unknown agent falls back",
			ua:   "curl/8.4.0",
			want: DeviceInfo{Browser: "Other", OS: "Other", DeviceType: "desktop"},
		},
		{
			name: "empty agent stays empty",
			ua:   "",
			want: DeviceInfo{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Detect(tt.ua))
		})
	}
}
