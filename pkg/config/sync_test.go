package config

import (
	"testing"

	"github.com/ghodss/yaml"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pasync/pasync/pkg/errors"
)

func mockHomedir(t *testing.T) {
	oldExpand := homedirExpand
	homedirExpand = func(path string) (string, error) {
		if path == SyncConfigPath {
			return "/home/test/.pasync.yaml", nil
		}
		return path, nil
	}
	t.Cleanup(func() { homedirExpand = oldExpand })
}

func TestParseSyncDefaults(t *testing.T) {
	fs = afero.NewMemMapFs()
	mockHomedir(t)

	// With no config file on disk, parsing returns the defaults so that
	// `pasync configure` has something to build on.
	cfg, err := ParseSync()
	require.NoError(t, err)
	assert.Equal(t, Sync{
		Version:       InitialSyncConfigVersion,
		ExcludedPaths: DefaultExcludedPaths,
		AutoReload:    true,
	}, cfg)
}

func TestWriteThenParseSync(t *testing.T) {
	fs = afero.NewMemMapFs()
	mockHomedir(t)

	in := Sync{
		LocalRoot:     "/home/test/project",
		RemoteRoot:    "/home/test/app",
		ExcludedPaths: []string{".git", ".env*"},
		AutoReload:    true,
	}
	require.NoError(t, WriteSync(in))

	out, err := ParseSync()
	require.NoError(t, err)

	in.Version = SupportedSyncConfigVersion
	assert.Equal(t, in, out)
}

func TestParseSyncRelativeLocalRoot(t *testing.T) {
	fs = afero.NewMemMapFs()
	mockHomedir(t)

	require.NoError(t, WriteSync(Sync{
		LocalRoot:  "project",
		RemoteRoot: "/home/test/app",
	}))

	cfg, err := ParseSync()
	require.NoError(t, err)

	// Relative local roots are resolved relative to the config file.
	assert.Equal(t, "/home/test/project", cfg.LocalRoot)
}

func TestParseSyncIncompatibleVersion(t *testing.T) {
	fs = afero.NewMemMapFs()
	mockHomedir(t)

	contents, err := yaml.Marshal(Sync{Version: "v1beta7"})
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, "/home/test/.pasync.yaml", contents, 0644))

	_, err = ParseSync()
	require.Error(t, err)
	_, ok := errors.RootCause(err).(incompatibleVersionError)
	assert.True(t, ok)
}

func TestParseSyncRejectsUnknownFields(t *testing.T) {
	fs = afero.NewMemMapFs()
	mockHomedir(t)

	contents := []byte("version: v1alpha1\nlocalRoot: /p\nbogusField: true\n")
	require.NoError(t, afero.WriteFile(fs, "/home/test/.pasync.yaml", contents, 0644))

	_, err := ParseSync()
	require.Error(t, err)
	assert.Contains(t, errors.GetPrintableMessage(err), "could not be parsed")
}
