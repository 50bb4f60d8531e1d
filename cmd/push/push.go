package push

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pasync/pasync/cmd/util"
	"github.com/pasync/pasync/pkg/config"
	"github.com/pasync/pasync/pkg/errors"
	"github.com/pasync/pasync/pkg/fswatch"
	"github.com/pasync/pasync/pkg/storage"
	"github.com/pasync/pasync/pkg/sync"
)

// debounceInterval is how long watch mode waits after the last filesystem
// event before re-running the push. Editors often write several files in
// quick succession, and pushing once per burst is enough.
const debounceInterval = 500 * time.Millisecond

// Mocked out for unit testing.
var (
	parseSyncConfig  = config.ParseSync
	newClient        = storage.NewFromEnv
	watchFiles       = fswatch.Watch
	newSignalContext = signalContext
	clock            = clockwork.NewRealClock()
)

type dirOptions struct {
	localDir     string
	remoteDir    string
	noCreateDirs bool
	workers      int
	watch        bool
}

// NewDir creates a new `push-dir` command.
func NewDir() *cobra.Command {
	var opts dirOptions
	cmd := &cobra.Command{
		Use:   "push-dir",
		Short: "Push a directory and its contents to the remote account",
		Run: func(_ *cobra.Command, _ []string) {
			if err := runDir(opts); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&opts.localDir, "local-dir", "",
		"The local directory to push. Defaults to the configured local root.")
	cmd.Flags().StringVar(&opts.remoteDir, "remote-dir", "",
		"The remote directory to push to. Defaults to the configured remote root.")
	cmd.Flags().BoolVar(&opts.noCreateDirs, "no-create-dirs", false,
		"Don't create directories on the remote account.")
	cmd.Flags().IntVar(&opts.workers, "workers", 1,
		"The number of concurrent uploads. 1 pushes strictly in order.")
	cmd.Flags().BoolVar(&opts.watch, "watch", false,
		"Keep running and re-push whenever local files change.")
	return cmd
}

// NewFile creates a new `push-file` command.
func NewFile() *cobra.Command {
	var remoteFile string
	cmd := &cobra.Command{
		Use:   "push-file LOCAL_FILE",
		Short: "Push a single file to the remote account",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			if err := runFile(args[0], remoteFile); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&remoteFile, "remote-file", "",
		"The remote path to push to. Defaults to the same path relative to "+
			"the configured roots.")
	return cmd
}

func runDir(opts dirOptions) error {
	cfg, err := parseSyncConfig()
	if err != nil {
		return errors.WithContext(err, "parse config")
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := newSignalContext()
	defer cancel()

	if err := pushDir(ctx, cfg, client, opts); err != nil {
		return err
	}
	if !opts.watch {
		return nil
	}

	localDir := opts.localDir
	if localDir == "" {
		localDir = cfg.LocalRoot
	}
	changes, closer, err := watchFiles(localDir, cfg.ExcludedPaths)
	if err != nil {
		return errors.WithContext(err, "watch files")
	}
	defer closer.Close()

	log.WithField("dir", localDir).Info("Watching for changes")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			// Wait for the burst of events to settle before pushing.
			<-clock.After(debounceInterval)
			select {
			case <-changes:
			default:
			}

			if err := pushDir(ctx, cfg, client, opts); err != nil {
				return err
			}
		}
	}
}

func pushDir(ctx context.Context, cfg config.Sync, client storage.Client,
	opts dirOptions) error {

	plan, err := sync.PlanDir(cfg, opts.localDir, opts.remoteDir, !opts.noCreateDirs)
	if err != nil {
		return asConfigHint(err)
	}

	result := sync.Execute(ctx, plan, client, sync.ExecuteOptions{
		AutoReload: cfg.AutoReload,
		MaxWorkers: opts.workers,
	})
	printSummary(result)
	return nil
}

func runFile(localFile, remoteFile string) error {
	cfg, err := parseSyncConfig()
	if err != nil {
		return errors.WithContext(err, "parse config")
	}

	plan, err := sync.PlanFile(cfg, localFile, remoteFile)
	if err != nil {
		return asConfigHint(err)
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := newSignalContext()
	defer cancel()

	result := sync.Execute(ctx, plan, client, sync.ExecuteOptions{
		AutoReload: cfg.AutoReload,
	})
	printSummary(result)
	return nil
}

// asConfigHint converts a missing-root planning error into a message that
// tells the user how to fix it.
func asConfigHint(err error) error {
	if missing, ok := errors.RootCause(err).(errors.MissingFieldError); ok {
		return errors.NewFriendlyError(
			"The %s isn't configured.\n"+
				"Run `pasync configure --local-dir <dir> --remote-dir <dir>` "+
				"first, or pass the directories explicitly.", missing.Field)
	}
	return err
}

func printSummary(result sync.Result) {
	fmt.Printf("%d files uploaded, %d failed. %d directories created, %d failed.\n",
		result.UploadedFiles, result.FailedUploads,
		result.CreatedDirs, result.FailedDirs)
	for _, failure := range result.Failures {
		fmt.Printf("  failed %s %s: %s\n",
			failure.Action.Op, failure.Action.RemotePath, failure.Err)
	}
	if result.Reloaded {
		fmt.Println("Web app reloaded.")
	} else if result.ReloadErr != nil {
		fmt.Printf("Web app reload failed: %s\n", result.ReloadErr)
	}
}

// signalContext returns a context that's cancelled on SIGINT or SIGTERM.
// The push stops issuing new actions, reports what completed, and exits.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer util.HandlePanic()
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
