package client

import (
	"fmt"
	"strconv"
	"strings"
)

// NormalizeInstance turns a user-supplied host string into a canonical
// instance base URL. Any scheme the user typed is discarded: local and
// private addresses always resolve to http, everything else to https.
// Trailing slashes are stripped. Host case is preserved; use InstanceEqual
// for comparisons. Normalization is idempotent.
func NormalizeInstance(raw string) (string, error) {
	s := strings.TrimSpace(raw)

	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "https://"):
		s = s[len("https://"):]
	case strings.HasPrefix(lower, "http://"):
		s = s[len("http://"):]
	}

	s = strings.TrimRight(s, "/")
	if s == "" {
		return "", fmt.Errorf("instance host must not be empty: %w", ErrInvalidCredentials)
	}

	scheme := "https"
	if isPrivateHost(hostPart(s)) {
		scheme = "http"
	}

	return scheme + "://" + s, nil
}

// InstanceEqual compares two normalized instance URLs case-insensitively.
func InstanceEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}

// hostPart cuts the host out of "host[:port][/path]".
func hostPart(s string) string {
	if i := strings.IndexAny(s, "/:"); i >= 0 {
		return s[:i]
	}

	return s
}

func isPrivateHost(host string) bool {
	h := strings.ToLower(host)

	if h == "localhost" {
		return true
	}

	if strings.HasPrefix(h, "127.") ||
		strings.HasPrefix(h, "10.") ||
		strings.HasPrefix(h, "192.168.") {
		return true
	}

	if rest, ok := strings.CutPrefix(h, "172."); ok {
		octet, _, _ := strings.Cut(rest, ".")
		n, err := strconv.Atoi(octet)
		if err == nil && n >= 16 && n <= 31 {
			return true
		}
	}

	return false
}
