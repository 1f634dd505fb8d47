package shortener

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

const (
	schemeHTTP  = "http://"
	schemeHTTPS = "https://"
)

// Validator checks and normalizes candidate URLs. It has no state and no side effects.
type Validator struct{}

// NewValidator creates a new URL validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate reports whether rawURL can be shortened. The input is trimmed before checking.
// A URL without an http or https scheme is rejected even though Normalize could add one.
func (v *Validator) Validate(rawURL string) error {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return &ValidationError{Reason: "url cannot be empty"}
	}

	if !strings.Contains(s, "://") {
		return &ValidationError{Reason: "url has no scheme, it must start with http:// or https://"}
	}

	u, err := url.Parse(s)
	if err != nil {
		return &ValidationError{Reason: "malformed url"}
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return &ValidationError{Reason: "unsupported scheme " + u.Scheme + ", it must be http or https"}
	}

	host := u.Hostname()
	if host == "" {
		return &ValidationError{Reason: "url must contain a host"}
	}

	if !validHost(host) {
		return &ValidationError{Reason: "invalid host " + host}
	}

	return nil
}

// Normalize trims whitespace and prepends https:// when no http(s) scheme is present.
func (v *Validator) Normalize(rawURL string) string {
	s := strings.TrimSpace(rawURL)

	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, schemeHTTP) && !strings.HasPrefix(lower, schemeHTTPS) {
		s = schemeHTTPS + s
	}

	return s
}

func validHost(host string) bool {
	if net.ParseIP(host) != nil {
		return true
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return false
	}

	labels := strings.Split(ascii, ".")
	if len(labels) < 2 {
		return false
	}

	for _, label := range labels {
		if !validLabel(label) {
			return false
		}
	}

	return validTLD(labels[len(labels)-1])
}

func validLabel(label string) bool {
	if label == "" || len(label) > 63 {
		return false
	}

	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}

	for _, c := range label {
		isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !isAlnum && c != '-' {
			return false
		}
	}

	return true
}

func validTLD(tld string) bool {
	if strings.HasPrefix(strings.ToLower(tld), "xn--") {
		return true
	}

	if len(tld) < 2 {
		return false
	}

	for _, c := range tld {
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}

	return true
}
