// Package urlnorm canonicalizes URLs into the key form shared by the
// store and the query cache. Lookups and writes must agree on identity,
// so every URL passes through Normalize before touching either.
package urlnorm

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalize returns the canonical string form of rawURL:
// lowercased scheme and host, fragment stripped, empty path replaced
// with "/". Query strings are preserved as-is.
func Normalize(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q has no scheme or host", rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Fragment = ""

	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" {
		u.Host = host + ":" + port
	} else {
		u.Host = host
	}

	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}

// Resolvable reports whether href, resolved against base, points at an
// http(s) target worth tracking. Fragment-only links, script and mail
// pseudo-schemes, and malformed hrefs are rejected.
func Resolvable(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	resolved := ref
	if base != nil {
		resolved = base.ResolveReference(ref)
	}

	switch strings.ToLower(resolved.Scheme) {
	case "http", "https":
	default:
		return "", false
	}

	norm, err := Normalize(resolved.String())
	if err != nil {
		return "", false
	}
	return norm, true
}
