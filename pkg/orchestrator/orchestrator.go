package orchestrator

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/psbackup/psbackup/pkg/decision"
	"github.com/psbackup/psbackup/pkg/index"
	"github.com/psbackup/psbackup/pkg/pathresolver"
	"github.com/psbackup/psbackup/pkg/pbfs"
	"github.com/psbackup/psbackup/pkg/snapshotsource"
)

// lockFileName is the well-known advisory lock file written at the root of
// whichever directory a run operates on. Acquiring it is opportunistic: per
// spec.md §5 the core does not guard against concurrent invocations, so a
// failure to lock only produces a warning, never a fatal error.
const lockFileName = ".psbackup-lock"

// Orchestrator ties the collaborators described in spec.md §4 together and
// runs exactly one of the four modes per Run call.
type Orchestrator struct {
	// Resolver shortens paths before they are used for any filesystem
	// operation; ReleaseAll is called once at the end of Run regardless of
	// outcome.
	Resolver pathresolver.Resolver

	// Provider, if non-nil, overrides the per-mode snapshot provider
	// selection. Left nil in normal operation; set by tests that need
	// deterministic fingerprint metadata.
	Provider snapshotsource.Provider

	Logger *zap.SugaredLogger

	// Now is consulted for the current time (the Backup snapshot directory
	// name and the Duration in Summary). Defaults to time.Now; overridden by
	// tests that need to control which dated directory a run lands in.
	Now func() time.Time
}

// New constructs an Orchestrator with the platform-default Path Resolver.
func New(logger *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{
		Resolver: pathresolver.NewPlatform(),
		Logger:   logger,
		Now:      time.Now,
	}
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Run dispatches cfg to the mode-specific driver and returns its Summary.
// Resolver.ReleaseAll and the selected Provider's Release are guaranteed to
// run exactly once each, regardless of how the mode driver returns, per
// spec.md §5's resource-release guarantee.
func (o *Orchestrator) Run(cfg Config) (Summary, error) {
	start := o.now()

	runLogger := o.Logger.With("run_id", uuid.New().String(), "mode", cfg.Kind)
	o = &Orchestrator{Resolver: o.Resolver, Provider: o.Provider, Logger: runLogger, Now: o.Now}

	provider := o.providerFor(cfg)
	defer func() {
		if err := provider.Release(); err != nil {
			o.Logger.Warnw("snapshot provider release failed", "error", err)
		}
	}()
	defer func() {
		if err := o.Resolver.ReleaseAll(); err != nil {
			o.Logger.Warnw("path resolver release failed", "error", err)
		}
	}()

	run := &runContext{
		orchestrator: o,
		provider:     provider,
		index:        index.New(),
	}

	if lockDir := lockDirectoryFor(cfg); lockDir != "" {
		if unlock := o.acquireAdvisoryLock(lockDir); unlock != nil {
			defer unlock()
		}
	}

	var summary Summary
	var err error

	switch cfg.Kind {
	case Backup:
		if cfg.Backup == nil {
			return Summary{}, errors.New("backup mode requires a BackupConfig")
		}
		summary, err = run.runBackup(cfg.Backup)
	case MakeIndex:
		if cfg.MakeIndex == nil {
			return Summary{}, errors.New("make-index mode requires a MakeIndexConfig")
		}
		summary, err = run.runMakeIndex(cfg.MakeIndex)
	case Rehardlink:
		if cfg.Rehardlink == nil {
			return Summary{}, errors.New("rehardlink mode requires a RehardlinkConfig")
		}
		summary, err = run.runRehardlink(cfg.Rehardlink)
	case Verify:
		if cfg.Verify == nil {
			return Summary{}, errors.New("verify mode requires a VerifyConfig")
		}
		summary, err = run.runVerify(cfg.Verify)
	default:
		return Summary{}, errors.Errorf("unknown mode %d", cfg.Kind)
	}

	summary.Duration = o.now().Sub(start)
	return summary, err
}

// providerFor selects the Snapshot Source Provider for cfg: an explicit
// override if set, otherwise Direct when shadowing was disabled and
// Unsupported when it was requested (spec.md §1 declares the actual
// platform snapshot facility out of scope).
func (o *Orchestrator) providerFor(cfg Config) snapshotsource.Provider {
	if o.Provider != nil {
		return o.Provider
	}

	notShadowed := true
	switch cfg.Kind {
	case Backup:
		if cfg.Backup != nil {
			notShadowed = cfg.Backup.NotShadowed
		}
	case MakeIndex:
		if cfg.MakeIndex != nil {
			notShadowed = cfg.MakeIndex.NotShadowed
		}
	}

	if notShadowed {
		return snapshotsource.Direct{}
	}
	return snapshotsource.Unsupported{Reason: "no platform snapshot facility wired in"}
}

// lockDirectoryFor returns the directory whose advisory lock should be held
// for the duration of cfg's run, or "" if the mode doesn't operate against a
// single root (Verify only reads, so it takes no lock).
func lockDirectoryFor(cfg Config) string {
	switch cfg.Kind {
	case Backup:
		if cfg.Backup != nil {
			return cfg.Backup.BackupRoot
		}
	case MakeIndex:
		if cfg.MakeIndex != nil {
			return cfg.MakeIndex.Directory
		}
	case Rehardlink:
		if cfg.Rehardlink != nil {
			return cfg.Rehardlink.Directory
		}
	}
	return ""
}

// acquireAdvisoryLock attempts to lock dir/lockFileName and returns a
// function that releases it, or nil if the attempt failed for any reason
// (directory doesn't exist yet, already held elsewhere, platform lacks
// support). Failure is logged and otherwise ignored.
func (o *Orchestrator) acquireAdvisoryLock(dir string) func() {
	if err := os.MkdirAll(dir, 0755); err != nil {
		o.Logger.Warnw("unable to create repository directory for advisory lock", "directory", dir, "error", err)
		return nil
	}

	locker, err := pbfs.NewLocker(filepath.Join(dir, lockFileName))
	if err != nil {
		o.Logger.Warnw("unable to open advisory lock file", "directory", dir, "error", err)
		return nil
	}

	if err := locker.Lock(false); err != nil {
		o.Logger.Warnw("repository is already locked by another invocation, continuing without the advisory lock", "directory", dir, "error", err)
		locker.Close()
		return nil
	}

	return func() {
		if err := locker.Unlock(); err != nil {
			o.Logger.Warnw("unable to release advisory lock", "directory", dir, "error", err)
		}
		if err := locker.Close(); err != nil {
			o.Logger.Warnw("unable to close advisory lock file", "directory", dir, "error", err)
		}
	}
}

// runContext holds the per-Run mutable state shared by the mode drivers:
// the selected provider, the live Index, and (lazily) the Decision Engine.
type runContext struct {
	orchestrator *Orchestrator
	provider     snapshotsource.Provider
	index        *index.Index
	engine       *decision.Engine
}

func (r *runContext) logger() *zap.SugaredLogger {
	return r.orchestrator.Logger
}

func (r *runContext) decisionEngine() *decision.Engine {
	if r.engine == nil {
		r.engine = decision.New(r.index, r.logger())
	}
	return r.engine
}
