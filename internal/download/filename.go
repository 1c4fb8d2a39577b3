package download

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseURL validates a video URL and returns it parsed
func ParseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return u, nil
}

// FileNameFromURL returns the last path segment of the URL, percent-decoded,
// which is used as the local file name. Query and fragment are ignored. The
// segment is taken from the escaped path so an encoded slash cannot shorten it.
func FileNameFromURL(raw string) (string, error) {
	u, err := ParseURL(raw)
	if err != nil {
		return "", err
	}
	escaped := u.EscapedPath()
	if escaped == "" || strings.HasSuffix(escaped, "/") {
		return "", fmt.Errorf("%w: %s", ErrNoFileName, raw)
	}
	segment := escaped[strings.LastIndex(escaped, "/")+1:]
	name, err := url.PathUnescape(segment)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrNoFileName, raw, err)
	}
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %s", ErrNoFileName, raw)
	}
	return name, nil
}
