package fswatch

import (
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pasync/pasync/pkg/errors"
)

func TestGetPathsToWatch(t *testing.T) {
	fs = afero.NewMemMapFs()
	for _, path := range []string{
		"/local/a.txt",
		"/local/sub/b.txt",
		"/local/.git/config",
	} {
		require.NoError(t, afero.WriteFile(fs, path, []byte("x"), 0644))
	}

	paths, err := getPathsToWatch("/local", []string{".git"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"/local",
		"/local/a.txt",
		"/local/sub",
		"/local/sub/b.txt",
	}, paths)
}

func TestGetPathsToWatchDotDotPrefixedName(t *testing.T) {
	fs = afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/local/..data", []byte("x"), 0644))

	// A name starting with two dots is still inside the root and gets
	// watched like any other file.
	paths, err := getPathsToWatch("/local", nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/local", "/local/..data"}, paths)
}

func TestGetPathsToWatchMissingRoot(t *testing.T) {
	fs = afero.NewMemMapFs()

	_, err := getPathsToWatch("/missing", nil)
	require.Error(t, err)
	assert.Equal(t, errors.FileNotFound{Path: "/missing"}, errors.RootCause(err))
}

func TestCombineUpdatesCoalesces(t *testing.T) {
	updates := make(chan fsnotify.Event)
	combined := combineUpdates(updates)

	for i := 0; i < 10; i++ {
		updates <- fsnotify.Event{Name: "a.txt", Op: fsnotify.Write}
	}
	close(updates)

	// Give the forwarding goroutine time to drain the burst.
	time.Sleep(50 * time.Millisecond)

	// The burst collapses into a single pending notification.
	select {
	case <-combined:
	case <-time.After(time.Second):
		t.Fatal("expected a combined update")
	}

	select {
	case <-combined:
		t.Fatal("expected at most one pending update")
	default:
	}
}
