// Package locator builds origin-specific coordinates (bucket+key, a
// re-encoded absolute URL, or a filesystem path) out of a provider's
// origin URI and a normalized relative path.
package locator

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrBadOrigin is returned when the origin URI is malformed for its
// declared scheme, e.g. an "s3://" URI with no host.
var ErrBadOrigin = errors.New("locator: misconfigured origin URI")

// S3 is the bucket+key locator for the "s3" scheme.
type S3 struct {
	Bucket string
	Key    string
}

// Build dispatches on origin.Scheme and returns one of *S3, a string (for
// http/https, the fully-built request URL) or a string (for file, the
// resolved filesystem path). The concrete type signals the flavor.
func Build(origin *url.URL, relative string) (any, error) {
	switch origin.Scheme {
	case "s3":
		return buildS3(origin, relative)
	case "http", "https":
		return buildHTTP(origin, relative), nil
	case "file":
		return buildFile(origin, relative), nil
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrBadOrigin, origin.Scheme)
	}
}

func buildS3(origin *url.URL, relative string) (*S3, error) {
	if origin.Host == "" {
		return nil, fmt.Errorf("%w: s3 origin has no bucket host", ErrBadOrigin)
	}
	joined := strings.TrimSuffix(origin.Path, "/") + "/" + relative
	key := strings.TrimPrefix(joined, "/")
	return &S3{Bucket: origin.Host, Key: key}, nil
}

// allowed is the character class left un-encoded when re-encoding the
// relative path segment of an HTTP(S) locator: alnum, '.', '/', '-', '_',
// plus '%' (see encodeRelative).
func allowed(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '.', b == '/', b == '-', b == '_', b == '%':
		return true
	}
	return false
}

// encodeRelative percent-encodes everything outside the allowed class.
// '%' is left in the allowed class deliberately so that re-encoding an
// already-encoded string is a no-op: encode(encode(x)) == encode(x).
func encodeRelative(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if allowed(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func buildHTTP(origin *url.URL, relative string) string {
	base := strings.TrimSuffix(origin.String(), "/")
	return base + "/" + encodeRelative(relative)
}

func buildFile(origin *url.URL, relative string) string {
	p := origin.Path
	if strings.HasPrefix(p, "/./") {
		rest := strings.TrimPrefix(p, "/./")
		return strings.TrimSuffix(rest, "/") + "/" + relative
	}
	return strings.TrimSuffix(p, "/") + "/" + relative
}
