package credentials

import (
	"errors"
	"fmt"

	"github.com/go-git/go-billy/v5"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	srvErrors "github.com/fitness-proxy/garmin-proxy/pkg/errors"
)

// Resolver runs the token bootstrap: inspect, plan, apply, validate.
// It is meant to run once, before the HTTP listener is opened.
type Resolver struct {
	fs     billy.Filesystem
	store  *DiskStore
	layout Layout
	env    Environment
}

// NewResolver creates a resolver. The single-file path override in env is
// applied on top of layout.
func NewResolver(fs billy.Filesystem, layout Layout, env Environment) *Resolver {
	return &Resolver{
		fs:     fs,
		store:  NewDiskStore(fs),
		layout: layout,
		env:    env,
	}
}

// Plan runs the decision procedure without touching the filesystem.
func (r *Resolver) Plan() (*Plan, error) {
	layout, notices := r.layout.WithEnvironment(r.env)
	layout, err := layout.Abs()
	if err != nil {
		return nil, err
	}

	snap, err := Inspect(r.fs, layout)
	if err != nil {
		return nil, err
	}

	plan, err := NewPlan(r.env, layout, snap)
	if err != nil {
		return nil, err
	}
	plan.Notices = append(notices, plan.Notices...)

	return plan, nil
}

// Resolve materializes and validates the credential bundle.
func (r *Resolver) Resolve() (ResolvedTarget, error) {
	log := zap.S().Named("credentials")

	plan, err := r.Plan()
	if err != nil {
		return ResolvedTarget{}, err
	}

	notices, err := r.store.Apply(plan)
	notices = append(plan.Notices, notices...)
	logNotices(notices)
	if err != nil {
		return ResolvedTarget{}, fmt.Errorf("failed to materialize %s credentials from %s: %w", plan.Shape, plan.Source, err)
	}

	if err := r.Validate(plan.Shape, plan.Files); err != nil {
		return ResolvedTarget{}, err
	}

	target := ResolvedTarget{
		Shape:    plan.Shape,
		Source:   plan.Source,
		Location: plan.Location,
		Files:    plan.Files,
		Notices:  notices,
	}

	log.Infow("credentials resolved", "location", target.Location, "shape", target.Shape, "source", target.Source, "written", plan.Materializes())

	return target, nil
}

// Validate checks that every file parses as JSON. A missing file is as fatal
// as a malformed one: a bundle is either complete or unusable.
func (r *Resolver) Validate(shape Shape, files []string) error {
	for _, f := range files {
		data, err := r.store.Load(f)
		if err != nil {
			return srvErrors.NewInvalidCredentialFormatError(f, string(shape), err)
		}
		if err := validJSON(data); err != nil {
			return srvErrors.NewInvalidCredentialFormatError(f, string(shape), err)
		}
	}
	return nil
}

// validJSON follows RFC 8259 strictly.
func validJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.New("not valid JSON")
	}
	return nil
}

func logNotices(notices []error) {
	log := zap.S().Named("credentials")
	for _, n := range notices {
		switch {
		case srvErrors.IsStaleArtifactRelocated(n):
			log.Infow("stale artifact relocated", "notice", n.Error())
		default:
			log.Warnw("credentials bootstrap warning", "notice", n.Error())
		}
	}
}
