// Package urlpath provides the string helpers used to turn route file names and
// declared paths into router patterns.
package urlpath

import (
	"path/filepath"
	"strings"
)

// IndexName is the stripped file name that is never treated as a route file.
const IndexName = "index"

// StripFileExtension returns name without its trailing extension.
func StripFileExtension(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// StripIndex returns names without the entries whose stripped name is exactly
// IndexName. Order is preserved and the input is not modified.
func StripIndex(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if StripFileExtension(name) == IndexName {
			continue
		}
		out = append(out, name)
	}
	return out
}

// JoinURLs joins path fragments with exactly one "/" between them.
// Empty fragments are ignored and no trailing separator is produced. The result
// starts with "/" only when the first non-empty fragment does.
//
//	JoinURLs("users", "/:id")  // "users/:id"
//	JoinURLs("", "health")     // "health"
//	JoinURLs("/api/", "/v1/")  // "/api/v1"
func JoinURLs(parts ...string) string {
	var segments []string
	leading := false

	for _, part := range parts {
		before := len(segments)
		for _, seg := range strings.Split(part, "/") {
			if seg != "" {
				segments = append(segments, seg)
			}
		}
		if before == 0 && len(segments) > 0 && strings.HasPrefix(part, "/") {
			leading = true
		}
	}

	joined := strings.Join(segments, "/")
	if leading {
		return "/" + joined
	}
	return joined
}

// Pattern converts a composed route path into a router pattern.
// The result always starts with "/", has no trailing "/", and ":name" segments
// are rewritten to "{name}".
//
//	Pattern("users/:id")     // "/users/{id}"
//	Pattern("/api/users/")   // "/api/users"
func Pattern(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "/"
	}

	segments := strings.Split(trimmed, "/")
	for i, seg := range segments {
		if len(seg) > 1 && seg[0] == ':' {
			segments[i] = "{" + seg[1:] + "}"
		}
	}
	return "/" + strings.Join(segments, "/")
}
