package credentials

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"

	srvErrors "github.com/fitness-proxy/garmin-proxy/pkg/errors"
)

// EntryState describes what occupies a path.
type EntryState int

const (
	EntryAbsent EntryState = iota
	EntryFile
	EntryDir
)

func (s EntryState) String() string {
	switch s {
	case EntryFile:
		return "file"
	case EntryDir:
		return "directory"
	default:
		return "absent"
	}
}

// Snapshot is what the planner needs to know about the filesystem.
type Snapshot struct {
	SingleFile EntryState
	TwoFileDir EntryState
	OAuth1     EntryState
	OAuth2     EntryState
}

// Inspect builds a Snapshot of layout. It never modifies the filesystem.
func Inspect(fs billy.Filesystem, layout Layout) (Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)

	if snap.SingleFile, err = stateOf(fs, layout.SingleFile); err != nil {
		return snap, err
	}
	if snap.TwoFileDir, err = stateOf(fs, layout.TwoFileDir); err != nil {
		return snap, err
	}
	if snap.TwoFileDir != EntryDir {
		return snap, nil
	}
	if snap.OAuth1, err = stateOf(fs, layout.OAuth1Path()); err != nil {
		return snap, err
	}
	if snap.OAuth2, err = stateOf(fs, layout.OAuth2Path()); err != nil {
		return snap, err
	}

	return snap, nil
}

func stateOf(fs billy.Filesystem, path string) (EntryState, error) {
	info, err := fs.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return EntryAbsent, nil
		}
		return EntryAbsent, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return EntryDir, nil
	}
	return EntryFile, nil
}

// FileWrite is a credential document to materialize.
type FileWrite struct {
	Path string
	Data []byte
}

// Plan is the outcome of the decision procedure. Nothing has touched the
// filesystem when a Plan is returned.
type Plan struct {
	Shape    Shape
	Source   Source
	Location string
	// Files are validated after Apply, whatever the source.
	Files  []string
	Writes []FileWrite
	// Directory is created before writing when non-empty.
	Directory string
	// RelocateStale is set when Directory is occupied by a plain file.
	RelocateStale bool
	Notices       []error
}

// Materializes reports whether applying the plan writes anything.
func (p *Plan) Materializes() bool {
	return len(p.Writes) > 0
}

// NewPlan maps an environment and a filesystem snapshot to a plan.
// Priority, first match wins:
//  1. OAUTH1_TOKEN_JSON and OAUTH2_TOKEN_JSON → two-file directory
//  2. GARMINTOKENS_JSON → single file
//  3. GARMINTOKENS_B64 → single file, decoded
//  4. existing single file
//  5. existing two-file directory
func NewPlan(env Environment, layout Layout, snap Snapshot) (*Plan, error) {
	oauth1 := env.Get(EnvOAuth1TokenJSON)
	oauth2 := env.Get(EnvOAuth2TokenJSON)

	var notices []error
	switch {
	case oauth1 != "" && oauth2 == "":
		notices = append(notices, fmt.Errorf("%s is set but %s is empty; two-file environment input ignored", EnvOAuth1TokenJSON, EnvOAuth2TokenJSON))
	case oauth1 == "" && oauth2 != "":
		notices = append(notices, fmt.Errorf("%s is set but %s is empty; two-file environment input ignored", EnvOAuth2TokenJSON, EnvOAuth1TokenJSON))
	}

	plan, err := choose(env, layout, snap, oauth1, oauth2)
	if err != nil {
		return nil, err
	}
	plan.Notices = append(notices, plan.Notices...)
	return plan, nil
}

func choose(env Environment, layout Layout, snap Snapshot, oauth1, oauth2 string) (*Plan, error) {
	if oauth1 != "" && oauth2 != "" {
		return twoFilePlan(layout, SourceEnvRawJSON, snap, []FileWrite{
			{Path: layout.OAuth1Path(), Data: []byte(oauth1)},
			{Path: layout.OAuth2Path(), Data: []byte(oauth2)},
		}), nil
	}

	if raw := env.Get(EnvTokensJSON); raw != "" {
		if snap.SingleFile == EntryDir {
			return nil, fmt.Errorf("cannot write %s: %s is a directory", EnvTokensJSON, layout.SingleFile)
		}
		return singleFilePlan(layout, SourceEnvRawJSON, []byte(raw)), nil
	}

	if encoded := env.Get(EnvTokensB64); encoded != "" {
		if snap.SingleFile == EntryDir {
			return nil, fmt.Errorf("cannot write %s: %s is a directory", EnvTokensB64, layout.SingleFile)
		}
		data, err := decodeBase64(encoded)
		if err != nil {
			return nil, srvErrors.NewInvalidCredentialFormatError(EnvTokensB64, string(ShapeSingleFile), err)
		}
		return singleFilePlan(layout, SourceEnvBase64JSON, data), nil
	}

	if snap.SingleFile == EntryFile {
		return singleFilePlan(layout, SourceExistingOnDisk, nil), nil
	}

	if snap.TwoFileDir == EntryDir && snap.OAuth1 == EntryFile && snap.OAuth2 == EntryFile {
		return twoFilePlan(layout, SourceExistingOnDisk, snap, nil), nil
	}

	return nil, srvErrors.NewMissingCredentialsError(
		[]string{EnvOAuth1TokenJSON, EnvOAuth2TokenJSON, EnvTokensJSON, EnvTokensB64},
		[]string{layout.SingleFile, layout.OAuth1Path(), layout.OAuth2Path()},
	)
}

func singleFilePlan(layout Layout, source Source, data []byte) *Plan {
	p := &Plan{
		Shape:    ShapeSingleFile,
		Source:   source,
		Location: layout.SingleFile,
		Files:    []string{layout.SingleFile},
	}
	if data != nil {
		p.Writes = []FileWrite{{Path: layout.SingleFile, Data: data}}
	}
	return p
}

func twoFilePlan(layout Layout, source Source, snap Snapshot, writes []FileWrite) *Plan {
	p := &Plan{
		Shape:    ShapeTwoFile,
		Source:   source,
		Location: layout.TwoFileDir,
		Files:    []string{layout.OAuth1Path(), layout.OAuth2Path()},
		Writes:   writes,
	}
	if len(writes) > 0 {
		p.Directory = layout.TwoFileDir
		p.RelocateStale = snap.TwoFileDir == EntryFile
	}
	return p
}

// decodeBase64 accepts padded or unpadded standard encoding, with line breaks.
func decodeBase64(s string) ([]byte, error) {
	cleaned := strings.Join(strings.Fields(s), "")
	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err == nil {
		return data, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(cleaned); rawErr == nil {
		return raw, nil
	}
	return nil, fmt.Errorf("not valid base64: %w", err)
}
