package transport

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Target is a parsed ftp:// or ftps:// deployment destination.
type Target struct {
	Host string
	User string
	Path string
	Port int
	TLS  bool
}

// String returns a human-readable representation with the password,
// which Target never carries, elided.
func (t Target) String() string {
	scheme := "ftp"
	if t.TLS {
		scheme = "ftps"
	}
	port := t.Port
	if port == 0 {
		port = DefaultPort
	}
	if t.User != "" {
		return fmt.Sprintf("%s://%s@%s:%d%s", scheme, t.User, t.Host, port, t.Path)
	}
	return fmt.Sprintf("%s://%s:%d%s", scheme, t.Host, port, t.Path)
}

// ParseTarget parses a CLI destination argument of the form
// ftp://[user@]host[:port]/path or ftps://... (explicit TLS).
// Returns ok=false for anything else, which callers treat as a plain
// host name.
func ParseTarget(arg string) (Target, bool) {
	if !strings.HasPrefix(arg, "ftp://") && !strings.HasPrefix(arg, "ftps://") {
		return Target{}, false
	}

	u, err := url.Parse(arg)
	if err != nil {
		return Target{}, false
	}

	host := u.Hostname()
	if host == "" {
		return Target{}, false
	}

	port := 0
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return Target{}, false
		}
	}

	var user string
	if u.User != nil {
		user = u.User.Username()
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	return Target{
		Host: host,
		User: user,
		Path: path,
		Port: port,
		TLS:  u.Scheme == "ftps",
	}, true
}
