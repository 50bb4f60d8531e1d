package sync

import (
	"path"
	"strings"
)

// ShouldIgnore returns whether the given relative path is excluded by one of
// the patterns.
//
// A pattern ending in `*` matches when the final path component starts with
// the part before the marker (e.g. `.env*` matches `sub/.env.local`). Any
// other pattern matches when it occurs anywhere in the relative path (e.g.
// `.git` matches `.git/config` and `vendor/.git`).
//
// The first matching pattern wins. No patterns means nothing is ignored.
func ShouldIgnore(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.HasSuffix(pattern, "*") {
			prefix := strings.TrimSuffix(pattern, "*")
			if strings.HasPrefix(path.Base(relPath), prefix) {
				return true
			}
		} else if strings.Contains(relPath, pattern) {
			return true
		}
	}
	return false
}
