package client

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

const defaultPort = 80

// Target is a URL split into the pieces a [Client] needs.
type Target struct {
	Host string
	Port int
	Path string
}

// ParseTarget splits raw into host, port and path. A missing scheme means
// http, a missing path means "/" and a missing port means 80. https is
// rejected.
func ParseTarget(raw string) (Target, error) {
	rest := strings.TrimSpace(raw)

	if scheme, after, ok := strings.Cut(rest, "://"); ok {
		switch strings.ToLower(scheme) {
		case "http":
		case "https":
			return Target{}, fmt.Errorf("%q: %w", raw, ErrTLSUnsupported)
		default:
			return Target{}, fmt.Errorf("%q: unsupported scheme %q: %w", raw, scheme, ErrInvalidTarget)
		}
		rest = after
	}

	authority, path := rest, "/"
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		authority, path = rest[:i], rest[i:]
	}

	t := Target{Host: authority, Port: defaultPort, Path: path}

	if host, port, err := net.SplitHostPort(authority); err == nil {
		n, err := strconv.Atoi(port)
		if err != nil || n <= 0 || n > 65535 {
			return Target{}, fmt.Errorf("%q: bad port %q: %w", raw, port, ErrInvalidTarget)
		}
		t.Host, t.Port = host, n
	} else if len(authority) > 2 && authority[0] == '[' && authority[len(authority)-1] == ']' {
		t.Host = authority[1 : len(authority)-1]
	}

	if t.Host == "" {
		return Target{}, fmt.Errorf("%q: missing host: %w", raw, ErrInvalidTarget)
	}

	return t, nil
}

// Resolve returns the target a redirect location points at. Absolute
// locations are parsed as-is; host-relative ones ("/x") keep t's host and port.
func (t Target) Resolve(location string) (Target, error) {
	if strings.HasPrefix(location, "/") && !strings.HasPrefix(location, "//") {
		return Target{Host: t.Host, Port: t.Port, Path: location}, nil
	}

	return ParseTarget(location)
}

// String renders t as an http URL.
func (t Target) String() string {
	host := t.Host
	switch {
	case t.Port != defaultPort:
		host = net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
	case strings.Contains(host, ":"):
		host = "[" + host + "]"
	}

	return "http://" + host + t.Path
}
