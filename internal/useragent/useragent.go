// Package useragent derives coarse device information from a raw
// User-Agent header by case-insensitive substring checks. It is a
// deliberate approximation for attendance auditing, not a UA parser.
package useragent

import "strings"

type DeviceInfo struct {
	Browser    string `json:"browser"`
	OS         string `json:"os"`
	DeviceType string `json:"deviceType"`
}

// Detect classifies the user agent. Order matters: Chromium-based Edge
// includes the Chrome token, and Chrome includes the Safari token, so the
// exclusions below keep the common browsers from shadowing each other.
func Detect(userAgent string) DeviceInfo {
	if userAgent == "" {
		return DeviceInfo{}
	}

	ua := strings.ToLower(userAgent)
	info := DeviceInfo{}

	switch {
	case strings.Contains(ua, "chrome") && !strings.Contains(ua, "edg"):
		info.Browser = "Chrome"
	case strings.Contains(ua, "firefox"):
		info.Browser = "Firefox"
	case strings.Contains(ua, "safari") && !strings.Contains(ua, "chrome"):
		info.Browser = "Safari"
	case strings.Contains(ua, "edg"):
		info.Browser = "Edge"
	case strings.Contains(ua, "opera"):
		info.Browser = "Opera"
	default:
		info.Browser = "Other"
	}

	switch {
	case strings.Contains(ua, "windows"):
		info.OS = "Windows"
	case strings.Contains(ua, "macintosh") || strings.Contains(ua, "mac os"):
		info.OS = "MacOS"
	case strings.Contains(ua, "linux"):
		info.OS = "Linux"
	case strings.Contains(ua, "android"):
		info.OS = "Android"
	case strings.Contains(ua, "ios") || strings.Contains(ua, "iphone"):
		info.OS = "iOS"
	default:
		info.OS = "Other"
	}

	switch {
	case strings.Contains(ua, "mobile"):
		info.DeviceType = "mobile"
	case strings.Contains(ua, "tablet"):
		info.DeviceType = "tablet"
	default:
		info.DeviceType = "desktop"
	}

	return info
}
