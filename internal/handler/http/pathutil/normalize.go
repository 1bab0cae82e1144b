// Package pathutil normalizes request paths for metrics labels.
package pathutil

import "strings"

// staticPaths are served as-is; everything else with a single segment is a
// source lookup.
var staticPaths = map[string]bool{
	"/":        true,
	"/healthz": true,
	"/metrics": true,
}

// NormalizePath collapses source paths to a fixed template so that
// arbitrary client-supplied source names (including typos and probes
// against unknown sources) cannot explode Prometheus label cardinality.
//
//	NormalizePath("/twse")            // "/{source}"
//	NormalizePath("/cnyes?hours=24")  // "/{source}"
//	NormalizePath("/healthz")         // "/healthz" (unchanged)
//	NormalizePath("/a/b/c")           // "/a/b/c" (no match, returned as-is)
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	if staticPaths[path] {
		return path
	}
	if strings.HasPrefix(path, "/") && strings.IndexByte(path[1:], '/') == -1 {
		return "/{source}"
	}
	return path
}
