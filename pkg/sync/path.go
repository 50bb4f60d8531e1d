package sync

import (
	"path"
	"path/filepath"
)

// MapRemotePath converts a path relative to the local root into the
// corresponding path under the remote root.
//
// The remote API exposes a single canonical namespace, so the result always
// uses forward slashes regardless of the host platform. The result never
// contains doubled slashes, and never has a trailing slash unless the remote
// root itself is "/".
func MapRemotePath(remoteRoot, relPath string) string {
	relPath = filepath.ToSlash(relPath)
	if relPath == "" || relPath == "." {
		return remoteRoot
	}
	return path.Join(remoteRoot, relPath)
}
