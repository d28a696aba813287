package storage

import (
	"fmt"
	"strings"
)

const s3Scheme = "s3://"

// IsObjectURI reports whether path addresses an object store (s3://bucket/key).
func IsObjectURI(path string) bool {
	return strings.HasPrefix(strings.ToLower(path), s3Scheme)
}

// ParseURI splits s3://bucket/key into its bucket and key.
func ParseURI(uri string) (bucket, key string, err error) {
	if !IsObjectURI(uri) {
		return "", "", fmt.Errorf("not an s3 uri: %q", uri)
	}
	rest := uri[len(s3Scheme):]
	idx := strings.Index(rest, "/")
	if idx <= 0 {
		return "", "", fmt.Errorf("s3 uri %q has no bucket or key", uri)
	}
	bucket, key = rest[:idx], strings.TrimLeft(rest[idx+1:], "/")
	if key == "" {
		return "", "", fmt.Errorf("s3 uri %q has no key", uri)
	}
	return bucket, key, nil
}
