// Package fswatch notifies when files under the pushed tree change, so that
// watch mode can re-run the push.
package fswatch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/pasync/pasync/pkg/errors"
	"github.com/pasync/pasync/pkg/sync"
)

var fs = afero.NewOsFs()

// Watch watches for changes to files under `root` that aren't excluded by
// `patterns`. It sends an event on the returned channel whenever a watched
// file changes. The returned closer releases the file handles.
func Watch(root string, patterns []string) (chan struct{}, io.Closer, error) {
	pathsToWatch, err := getPathsToWatch(root, patterns)
	if err != nil {
		return nil, nil, errors.WithContext(err, "get paths")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, errors.WithContext(err, "create watcher")
	}

	for _, path := range pathsToWatch {
		if err := watcher.Add(path); err != nil {
			// Close the watcher so that we release the file handles for the
			// previously added paths.
			if err := watcher.Close(); err != nil {
				log.WithError(err).Warn("Failed to close file watcher")
			}

			return nil, nil, errors.WithContext(err, fmt.Sprintf("watch %q", path))
		}
	}
	return combineUpdates(watcher.Events), watcher, nil
}

// combineUpdates coalesces the raw event stream into a 1-buffered channel.
// A burst of changes results in a single pending notification rather than a
// backlog of stale ones.
func combineUpdates(updates <-chan fsnotify.Event) chan struct{} {
	combined := make(chan struct{}, 1)
	go func() {
		for range updates {
			select {
			case combined <- struct{}{}:
			default:
			}
		}
	}()
	return combined
}

// getPathsToWatch lists the root and every non-excluded directory and file
// beneath it. fsnotify doesn't watch directories recursively, so each
// subdirectory has to be added individually.
func getPathsToWatch(root string, patterns []string) (paths []string, err error) {
	fi, err := fs.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound{Path: root}
		}
		return nil, errors.WithContext(err, "stat")
	}
	if !fi.Mode().IsDir() {
		return nil, errors.New("watch root must be a directory")
	}

	err = afero.Walk(fs, root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return errors.WithContext(err, "walk error")
		}

		if path == root {
			paths = append(paths, path)
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return errors.WithContext(err, "normalized path")
		}
		if relPath == ".." || strings.HasPrefix(relPath, "../") {
			// This shouldn't happen because `path` is always a child of `root`.
			return errors.New("path escapes the root")
		}

		if sync.ShouldIgnore(filepath.ToSlash(relPath), patterns) {
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		paths = append(paths, path)
		return nil
	})
	return paths, err
}
