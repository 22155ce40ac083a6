package util

import (
	"net/url"
	"strings"
)

// NormaliseBaseURL trims whitespace and every trailing slash so instance URLs
// compare equal regardless of how they were written in a directory or setting.
func NormaliseBaseURL(baseURL string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/")
}

// HTTPSFromDomain builds an https base URL from a bare host name as published
// by instance directories. Values that already carry a scheme are kept.
func HTTPSFromDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return ""
	}
	if parsed, err := url.Parse(domain); err == nil && parsed.Scheme != "" && parsed.Host != "" {
		return NormaliseBaseURL(domain)
	}
	return NormaliseBaseURL("https://" + domain)
}

// HostOf returns the host portion of rawURL, or rawURL itself when it cannot be parsed
func HostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return parsed.Host
}
