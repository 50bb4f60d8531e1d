package sync

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/pasync/pasync/pkg/config"
	"github.com/pasync/pasync/pkg/errors"
)

// OpType is the kind of remote operation an Action performs.
type OpType int

const (
	// OpCreateDir creates a directory on the remote account.
	OpCreateDir OpType = iota

	// OpUploadFile uploads a local file to the remote account, overwriting
	// any previous contents.
	OpUploadFile
)

func (op OpType) String() string {
	switch op {
	case OpCreateDir:
		return "create-dir"
	case OpUploadFile:
		return "upload-file"
	default:
		return "unknown"
	}
}

// Action is a single remote operation. LocalPath is only set for
// OpUploadFile.
type Action struct {
	Op         OpType
	LocalPath  string
	RemotePath string
}

// Plan is an ordered sequence of actions. For any action targeting a path,
// the creation of every ancestor directory of that path appears earlier in
// the sequence. Plans are built fresh for every push and never reused.
type Plan []Action

// PlanDir walks the local tree and produces the ordered list of directory
// creations and file uploads needed to mirror it under the remote root.
//
// Explicit localDir/remoteDir arguments override the configured roots. If
// neither is available the plan fails before any remote call is made.
//
// Directories matching an exclusion pattern are pruned whole: nothing
// beneath them is visited or planned. The traversal root itself is never
// filtered and never gets a create action, since the remote root is assumed
// to exist.
func PlanDir(cfg config.Sync, localDir, remoteDir string, createDirs bool) (Plan, error) {
	if localDir == "" {
		localDir = cfg.LocalRoot
	}
	if remoteDir == "" {
		remoteDir = cfg.RemoteRoot
	}
	if localDir == "" {
		return nil, errors.MissingFieldError{Field: "localRoot"}
	}
	if remoteDir == "" {
		return nil, errors.MissingFieldError{Field: "remoteRoot"}
	}

	absLocalDir, err := filepath.Abs(localDir)
	if err == nil {
		localDir = absLocalDir
	}

	var plan Plan
	err = afero.Walk(fs, localDir, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			// A subtree we can't read shouldn't abort the whole push.
			log.WithError(err).WithField("path", walkPath).Warn(
				"Failed to read local path. Skipping it.")
			if fi != nil && fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := relativeTo(localDir, walkPath)
		if err != nil {
			return errors.WithContext(err, "relative path")
		}

		if fi.IsDir() {
			if relPath == "" {
				return nil
			}
			if ShouldIgnore(relPath, cfg.ExcludedPaths) {
				return filepath.SkipDir
			}
			if createDirs {
				plan = append(plan, Action{
					Op:         OpCreateDir,
					RemotePath: MapRemotePath(remoteDir, relPath),
				})
			}
			return nil
		}

		if ShouldIgnore(relPath, cfg.ExcludedPaths) {
			return nil
		}
		plan = append(plan, Action{
			Op:         OpUploadFile,
			LocalPath:  walkPath,
			RemotePath: MapRemotePath(remoteDir, relPath),
		})
		return nil
	})
	if err != nil {
		return nil, errors.WithContext(err, "walk local tree")
	}
	return plan, nil
}

// PlanFile produces the plan for pushing a single file: the creation of its
// remote parent directory, followed by the upload itself. The parent is
// always created so that the destination is guaranteed to exist, even when
// pushing into a tree that was never synced before.
//
// If remoteFile isn't given, the remote path is derived from the configured
// roots by resolving localFile relative to the local root.
func PlanFile(cfg config.Sync, localFile, remoteFile string) (Plan, error) {
	absLocalFile, err := filepath.Abs(localFile)
	if err == nil {
		localFile = absLocalFile
	}

	if _, err := fs.Stat(localFile); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound{Path: localFile}
		}
		return nil, errors.WithContext(err, "stat local file")
	}

	if remoteFile == "" {
		if cfg.LocalRoot == "" {
			return nil, errors.MissingFieldError{Field: "localRoot"}
		}
		if cfg.RemoteRoot == "" {
			return nil, errors.MissingFieldError{Field: "remoteRoot"}
		}

		relPath, err := relativeTo(cfg.LocalRoot, localFile)
		if err != nil {
			return nil, errors.NewFriendlyError(
				"%q isn't inside the configured local root %q.\n"+
					"Either move the file, or pass --remote-file to set the "+
					"destination explicitly.", localFile, cfg.LocalRoot)
		}
		remoteFile = MapRemotePath(cfg.RemoteRoot, relPath)
	}

	var plan Plan
	if parent := path.Dir(remoteFile); parent != "." && parent != "/" {
		plan = append(plan, Action{Op: OpCreateDir, RemotePath: parent})
	}
	plan = append(plan, Action{
		Op:         OpUploadFile,
		LocalPath:  localFile,
		RemotePath: remoteFile,
	})
	return plan, nil
}

// relativeTo returns the forward-slash path of `target` relative to `root`.
// The root itself maps to "". Paths outside the root are an error.
func relativeTo(root, target string) (string, error) {
	relPath, err := filepath.Rel(root, target)
	if err != nil {
		return "", err
	}
	if relPath == "." {
		return "", nil
	}
	// Only reject the ".." components themselves, not names that merely
	// start with two dots (e.g. a file named "..data").
	if relPath == ".." || strings.HasPrefix(relPath, "../") {
		return "", errors.New("path escapes the root")
	}
	return filepath.ToSlash(relPath), nil
}
