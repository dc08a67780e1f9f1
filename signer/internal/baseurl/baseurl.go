// Package baseurl maps object names to public URLs under a fixed base and back.
package baseurl

import (
	"fmt"
	"net/url"
	"strings"
)

// Base is a public URL prefix such as https://cdn.example.com/bucket.
type Base struct {
	scheme string
	host   string
	path   string // without trailing slash, "" for the root
}

// Parse validates raw as an absolute http(s) URL.
func Parse(raw string) (Base, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Base{}, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Base{}, fmt.Errorf("parse base url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return Base{}, fmt.Errorf("parse base url: missing host in %q", raw)
	}
	return Base{
		scheme: u.Scheme,
		host:   u.Host,
		path:   strings.TrimRight(u.Path, "/"),
	}, nil
}

// Join returns the URL of objectName under b, escaping each path segment.
func (b Base) Join(objectName string) string {
	return b.scheme + "://" + b.host + b.path + "/" + EscapePath(objectName)
}

// ObjectName reverses Join. It reports false for URLs on another host or
// outside the base path.
func (b Base) ObjectName(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host != b.host {
		return "", false
	}
	prefix := b.path + "/"
	if !strings.HasPrefix(u.Path, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(u.Path, prefix)
	if name == "" {
		return "", false
	}
	return name, true
}

func (b Base) String() string {
	return b.scheme + "://" + b.host + b.path
}

// EscapePath escapes every "/"-separated segment of name on its own.
func EscapePath(name string) string {
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
