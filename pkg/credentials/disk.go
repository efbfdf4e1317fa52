package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	srvErrors "github.com/fitness-proxy/garmin-proxy/pkg/errors"
)

const staleSuffix = ".stale.bak"

// chmodder is implemented by billy filesystems that support permission changes.
type chmodder interface {
	Chmod(name string, mode os.FileMode) error
}

// DiskStore writes credential documents through a billy filesystem.
type DiskStore struct {
	fs billy.Filesystem
}

// NewDiskStore creates a store over fs.
func NewDiskStore(fs billy.Filesystem) *DiskStore {
	return &DiskStore{fs: fs}
}

// Apply performs the side effects of plan and returns the non-fatal notices
// raised while doing so.
func (s *DiskStore) Apply(plan *Plan) ([]error, error) {
	var notices []error

	if plan.RelocateStale {
		to, err := s.relocate(plan.Directory)
		if err != nil {
			return notices, err
		}
		notices = append(notices, srvErrors.NewStaleArtifactRelocated(plan.Directory, to))
	}

	if plan.Directory != "" {
		if err := s.fs.MkdirAll(plan.Directory, dirMode); err != nil {
			return notices, fmt.Errorf("failed to create token directory %s: %w", plan.Directory, err)
		}
	}

	for _, w := range plan.Writes {
		if err := s.Save(w.Path, w.Data); err != nil {
			return notices, err
		}
		if err := s.restrict(w.Path); err != nil {
			notices = append(notices, err)
		}
	}

	return notices, nil
}

// Save writes data to path atomically: a temp file in the same directory is
// renamed over the target, so readers never see a partial document.
func (s *DiskStore) Save(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := s.fs.TempFile(dir, ".tmp-"+filepath.Base(path)+"-")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to close temp file for %s: %w", path, err)
	}

	if err := s.fs.Rename(tmpName, path); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to move credentials into %s: %w", path, err)
	}

	return nil
}

// Load reads a credential document.
func (s *DiskStore) Load(path string) ([]byte, error) {
	return util.ReadFile(s.fs, path)
}

// Exists checks if path holds a regular file.
func (s *DiskStore) Exists(path string) bool {
	info, err := s.fs.Stat(path)
	return err == nil && !info.IsDir()
}

// restrict limits path to owner read/write. Failures are reported as
// PermissionRestrictionWarning and never abort the bootstrap.
func (s *DiskStore) restrict(path string) error {
	ch, ok := s.fs.(chmodder)
	if !ok {
		return srvErrors.NewPermissionRestrictionWarning(path, fileMode, errors.New("filesystem does not support chmod"))
	}
	if err := ch.Chmod(path, fileMode); err != nil {
		return srvErrors.NewPermissionRestrictionWarning(path, fileMode, err)
	}
	return nil
}

// relocate moves the plain file at path to the first free backup name.
func (s *DiskStore) relocate(path string) (string, error) {
	for i := 0; ; i++ {
		candidate := path + staleSuffix
		if i > 0 {
			candidate = fmt.Sprintf("%s.%d", candidate, i)
		}

		if _, err := s.fs.Lstat(candidate); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to stat %s: %w", candidate, err)
		}

		if err := s.fs.Rename(path, candidate); err != nil {
			return "", fmt.Errorf("failed to move stale file %s aside: %w", path, err)
		}
		return candidate, nil
	}
}
