package sync

import (
	"context"
	"io"
	goSync "sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// StorageClient is the remote collaborator the executor drives. Directory
// creation is treated as idempotent: an "already exists" rejection from the
// remote is as good as success.
type StorageClient interface {
	CreateDirectory(remotePath string) error
	UploadFile(contents io.Reader, remotePath string) error
	Reload() error
}

// ExecuteOptions tune how a plan is executed.
type ExecuteOptions struct {
	// AutoReload triggers a remote service reload after the plan runs, if
	// at least one upload succeeded.
	AutoReload bool

	// MaxWorkers caps the number of concurrent uploads. Values below 2 mean
	// strictly sequential execution in plan order.
	MaxWorkers int
}

// Failure records a single action that didn't complete.
type Failure struct {
	Action Action
	Err    error
}

// Result summarizes the outcome of executing a plan.
type Result struct {
	CreatedDirs   int
	FailedDirs    int
	UploadedFiles int
	FailedUploads int

	// Reloaded is whether the remote service reload was triggered and
	// succeeded. ReloadErr holds the failure if it was triggered and didn't.
	Reloaded  bool
	ReloadErr error

	Failures []Failure
}

// resultRecorder accumulates the Result. Uploads may complete from multiple
// workers, so updates take the lock.
type resultRecorder struct {
	lock   goSync.Mutex
	result Result
}

func (rec *resultRecorder) record(action Action, err error) {
	rec.lock.Lock()
	defer rec.lock.Unlock()

	switch {
	case action.Op == OpCreateDir && err == nil:
		rec.result.CreatedDirs++
	case action.Op == OpCreateDir:
		rec.result.FailedDirs++
	case err == nil:
		rec.result.UploadedFiles++
	default:
		rec.result.FailedUploads++
	}
	if err != nil {
		rec.result.Failures = append(rec.result.Failures, Failure{Action: action, Err: err})
	}
}

// Execute runs the plan against the remote storage.
//
// Failures never abort the run: a directory that can't be created is logged
// and skipped (it usually already exists from a previous push), and a file
// that can't be uploaded doesn't block the files after it. Every failure is
// reflected in the returned Result.
//
// Cancelling the context stops new actions from being issued. Actions that
// never ran are reported as failed with the context's error rather than
// silently dropped.
func Execute(ctx context.Context, plan Plan, client StorageClient, opts ExecuteOptions) Result {
	rec := &resultRecorder{}

	if opts.MaxWorkers > 1 {
		executeConcurrent(ctx, plan, client, opts.MaxWorkers, rec)
	} else {
		executeSequential(ctx, plan, client, rec)
	}

	if opts.AutoReload && rec.result.UploadedFiles > 0 && ctx.Err() == nil {
		if err := client.Reload(); err != nil {
			log.WithError(err).Warn("Failed to reload the remote service")
			rec.result.ReloadErr = err
		} else {
			log.Info("Reloaded the remote service")
			rec.result.Reloaded = true
		}
	}

	return rec.result
}

func executeSequential(ctx context.Context, plan Plan, client StorageClient, rec *resultRecorder) {
	for _, action := range plan {
		if err := ctx.Err(); err != nil {
			rec.record(action, err)
			continue
		}
		rec.record(action, apply(action, client))
	}
}

// executeConcurrent runs the directory creations sequentially in plan order,
// and then fans the uploads out to a bounded worker pool. By the time any
// upload is dispatched, every directory in the plan has already been
// handled, so the ancestor-before-descendant ordering still holds.
func executeConcurrent(ctx context.Context, plan Plan, client StorageClient,
	workers int, rec *resultRecorder) {

	var uploads []Action
	for _, action := range plan {
		if action.Op != OpCreateDir {
			uploads = append(uploads, action)
			continue
		}
		if err := ctx.Err(); err != nil {
			rec.record(action, err)
			continue
		}
		rec.record(action, apply(action, client))
	}

	taskChan := make(chan Action, len(uploads))
	for _, action := range uploads {
		taskChan <- action
	}
	close(taskChan)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for action := range taskChan {
				if err := gctx.Err(); err != nil {
					rec.record(action, err)
					continue
				}
				rec.record(action, apply(action, client))
			}
			return nil
		})
	}

	// The workers never return an error. Failures are recorded per action.
	_ = g.Wait()
}

func apply(action Action, client StorageClient) error {
	switch action.Op {
	case OpCreateDir:
		if err := client.CreateDirectory(action.RemotePath); err != nil {
			log.WithError(err).WithField("path", action.RemotePath).Warn(
				"Failed to create remote directory. It may already exist.")
			return err
		}
		log.WithField("path", action.RemotePath).Debug("Created remote directory")
		return nil

	case OpUploadFile:
		contents, err := fs.Open(action.LocalPath)
		if err != nil {
			log.WithError(err).WithField("path", action.LocalPath).Warn(
				"Failed to read local file. Skipping it.")
			return err
		}
		defer contents.Close()

		if err := client.UploadFile(contents, action.RemotePath); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"local":  action.LocalPath,
				"remote": action.RemotePath,
			}).Warn("Failed to upload file")
			return err
		}
		log.WithFields(log.Fields{
			"local":  action.LocalPath,
			"remote": action.RemotePath,
		}).Info("Uploaded file")
		return nil
	}
	return nil
}
