package config

import (
	"path/filepath"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/pasync/pasync/pkg/errors"
)

const (
	// SyncConfigPath is the default path to the pasync user config.
	SyncConfigPath = "~/.pasync.yaml"

	// InitialSyncConfigVersion is the first version of the pasync
	// sync config. Config files that do not specify a version
	// will default to this version.
	InitialSyncConfigVersion = "v1alpha1"

	// SupportedSyncConfigVersion is the supported version of the
	// sync config for the current pasync binary.
	SupportedSyncConfigVersion = "v1alpha1"
)

// DefaultExcludedPaths is the exclusion list applied when the user hasn't
// configured one. It covers the artifacts that should essentially never be
// deployed to the remote account.
var DefaultExcludedPaths = []string{".git", "__pycache__", ".pyc", ".env"}

// Sync contains the configuration that specifies what to push, where to push
// it, and what to skip.
type Sync struct {
	Version string `json:"version,omitempty"`

	// LocalRoot is the absolute path of the local tree to push.
	LocalRoot string `json:"localRoot"`

	// RemoteRoot is the path on the remote account that mirrors LocalRoot.
	// It always uses forward slashes.
	RemoteRoot string `json:"remoteRoot"`

	// ExcludedPaths are the exclusion patterns. A pattern ending in `*`
	// matches filenames by prefix, and any other pattern matches as a
	// substring of the relative path.
	ExcludedPaths []string `json:"excludedPaths"`

	// AutoReload controls whether the remote web app is reloaded after a
	// push that uploaded at least one file.
	AutoReload bool `json:"autoReload"`
}

func (c Sync) getVersion() string {
	return c.Version
}

// homedirExpand will be overridden in mock tests.
var homedirExpand = homedir.Expand

// ParseSync attempts to parse the Sync config stored in the default path.
// If the config file doesn't exist yet, it returns the default config so
// that `pasync configure` can build on top of it.
func ParseSync() (Sync, error) {
	path, err := GetSyncConfigPath()
	if err != nil {
		return Sync{}, errors.WithContext(err, "expand config path")
	}

	config := defaultSync()
	if err := parseConfig(path, &config, SupportedSyncConfigVersion); err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			return defaultSync(), nil
		}
		return Sync{}, errors.WithContext(err, "parse")
	}

	config.LocalRoot, err = homedirExpand(config.LocalRoot)
	if err != nil {
		return Sync{}, errors.WithContext(err, "expand local root")
	}

	// Evaluate relative paths relative to the config path.
	if config.LocalRoot != "" && !filepath.IsAbs(config.LocalRoot) {
		config.LocalRoot = filepath.Join(filepath.Dir(path), config.LocalRoot)
	}
	return config, nil
}

// WriteSync writes the given sync config to disk.
func WriteSync(cfg Sync) error {
	cfg.Version = SupportedSyncConfigVersion
	path, err := GetSyncConfigPath()
	if err != nil {
		return errors.WithContext(err, "expand config path")
	}

	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	if err := afero.WriteFile(fs, path, yamlBytes, 0644); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

// GetSyncConfigPath returns the path to the user's pasync configuration.
// This path is expanded, so it can be directly passed to file operations.
func GetSyncConfigPath() (string, error) {
	return homedirExpand(SyncConfigPath)
}

func defaultSync() Sync {
	return Sync{
		Version:       InitialSyncConfigVersion,
		ExcludedPaths: append([]string{}, DefaultExcludedPaths...),
		AutoReload:    true,
	}
}
