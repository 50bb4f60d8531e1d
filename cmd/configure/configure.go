package configure

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pasync/pasync/cmd/util"
	"github.com/pasync/pasync/pkg/config"
	"github.com/pasync/pasync/pkg/errors"
)

// Mocked out for unit testing.
var (
	parseSyncConfig = config.ParseSync
	writeSyncConfig = config.WriteSync
	absPath         = filepath.Abs
)

// New creates a new `configure` command.
func New() *cobra.Command {
	var opts config.Sync
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Set up the pasync configuration",
		Long: "Set up the pasync configuration.\n" +
			"Only the settings passed as flags are changed. The rest keep\n" +
			"their current values.",
		Run: func(cmd *cobra.Command, _ []string) {
			if err := run(cmd, opts); err != nil {
				err = errors.NewFriendlyError("Failed to save configuration:\n%s",
					errors.GetPrintableMessage(err))
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&opts.LocalRoot, "local-dir", "",
		"The local directory to push from.")
	cmd.Flags().StringVar(&opts.RemoteRoot, "remote-dir", "",
		"The remote directory to push to.")
	cmd.Flags().StringSliceVar(&opts.ExcludedPaths, "excluded", nil,
		"Patterns to exclude from pushes. A trailing `*` matches filenames "+
			"by prefix; anything else matches as a substring of the relative path.")
	cmd.Flags().BoolVar(&opts.AutoReload, "auto-reload", false,
		"Reload the web app after pushes that uploaded at least one file.")
	return cmd
}

// run merges the provided flags into the existing config and writes it back.
// Flags that weren't passed leave the existing values untouched.
func run(cmd *cobra.Command, opts config.Sync) error {
	cfg, err := parseSyncConfig()
	if err != nil {
		return errors.WithContext(err, "parse existing config")
	}

	if cmd.Flags().Changed("local-dir") {
		cfg.LocalRoot, err = absPath(opts.LocalRoot)
		if err != nil {
			return errors.WithContext(err, "resolve local dir")
		}
	}
	if cmd.Flags().Changed("remote-dir") {
		cfg.RemoteRoot = opts.RemoteRoot
	}
	if cmd.Flags().Changed("excluded") {
		cfg.ExcludedPaths = opts.ExcludedPaths
	}
	if cmd.Flags().Changed("auto-reload") {
		cfg.AutoReload = opts.AutoReload
	}

	if err := writeSyncConfig(cfg); err != nil {
		return errors.WithContext(err, "write config")
	}

	path, err := config.GetSyncConfigPath()
	if err != nil {
		path = config.SyncConfigPath
	}
	fmt.Printf("Configuration saved to %s\n", path)
	return nil
}
