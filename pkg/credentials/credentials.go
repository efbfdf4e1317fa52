package credentials

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Shape is the on-disk layout of a credential bundle.
type Shape string

const (
	// ShapeSingleFile is the legacy layout: one JSON document.
	ShapeSingleFile Shape = "single-file"
	// ShapeTwoFile is a directory holding oauth1_token.json and oauth2_token.json.
	ShapeTwoFile Shape = "two-file"
)

// Source tells where the bundle content came from on this run.
type Source string

const (
	SourceEnvRawJSON     Source = "env-raw-json"
	SourceEnvBase64JSON  Source = "env-base64-json"
	SourceExistingOnDisk Source = "existing-on-disk"
)

const (
	EnvOAuth1TokenJSON = "OAUTH1_TOKEN_JSON"
	EnvOAuth2TokenJSON = "OAUTH2_TOKEN_JSON"
	EnvTokensJSON      = "GARMINTOKENS_JSON"
	EnvTokensB64       = "GARMINTOKENS_B64"
	EnvTokensPath      = "GARMINTOKENS_PATH"
	// EnvTokensPathAlias is the deprecated spelling of EnvTokensPath.
	EnvTokensPathAlias = "garmintokens_path"

	OAuth1FileName = "oauth1_token.json"
	OAuth2FileName = "oauth2_token.json"

	DefaultTokensFile = "/data/garmintokens.json"
	DefaultTokensDir  = "/data/garmin_tokens"
)

const (
	fileMode os.FileMode = 0o600
	dirMode  os.FileMode = 0o700
)

// Layout holds the locations of both credential shapes.
type Layout struct {
	SingleFile string
	TwoFileDir string
}

// DefaultLayout returns the layout used when nothing overrides it.
func DefaultLayout() Layout {
	return Layout{
		SingleFile: DefaultTokensFile,
		TwoFileDir: DefaultTokensDir,
	}
}

func (l Layout) OAuth1Path() string {
	return filepath.Join(l.TwoFileDir, OAuth1FileName)
}

func (l Layout) OAuth2Path() string {
	return filepath.Join(l.TwoFileDir, OAuth2FileName)
}

// WithEnvironment applies the single-file path override from env.
// The canonical variable wins over the deprecated alias; using the alias yields a notice.
func (l Layout) WithEnvironment(env Environment) (Layout, []error) {
	var notices []error

	canonical := env.Get(EnvTokensPath)
	alias := env.Get(EnvTokensPathAlias)

	switch {
	case canonical != "":
		l.SingleFile = canonical
		if alias != "" && alias != canonical {
			notices = append(notices, fmt.Errorf("%s is deprecated and ignored because %s is set", EnvTokensPathAlias, EnvTokensPath))
		}
	case alias != "":
		l.SingleFile = alias
		notices = append(notices, fmt.Errorf("%s is deprecated, use %s", EnvTokensPathAlias, EnvTokensPath))
	}

	return l, notices
}

// Abs resolves relative locations against the working directory.
func (l Layout) Abs() (Layout, error) {
	var err error
	if l.SingleFile, err = filepath.Abs(l.SingleFile); err != nil {
		return l, fmt.Errorf("failed to resolve %s: %w", l.SingleFile, err)
	}
	if l.TwoFileDir, err = filepath.Abs(l.TwoFileDir); err != nil {
		return l, fmt.Errorf("failed to resolve %s: %w", l.TwoFileDir, err)
	}
	return l, nil
}

// Environment is a read-once snapshot of the process environment.
type Environment map[string]string

// EnvironmentFromOS takes a snapshot of os.Environ.
func EnvironmentFromOS() Environment {
	env := make(Environment)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[k] = v
	}
	return env
}

// Get returns the value of key, or "" when it is unset or only whitespace.
func (e Environment) Get(key string) string {
	v := e[key]
	if strings.TrimSpace(v) == "" {
		return ""
	}
	return v
}

// ResolvedTarget is the credential location published once at startup.
// It is passed by value to the vendor client and never changes afterwards.
type ResolvedTarget struct {
	Shape    Shape
	Source   Source
	Location string
	// Files lists every document of the bundle, in a stable order.
	Files []string
	// Notices holds the non-fatal conditions met during resolution.
	Notices []error
}

func (t ResolvedTarget) String() string {
	return fmt.Sprintf("%s (%s, from %s)", t.Location, t.Shape, t.Source)
}
