package update

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hearthcore/hearth/internal/errcode"
	"github.com/hearthcore/hearth/internal/manifest"
	"github.com/hearthcore/hearth/internal/migrate"
)

// Downloader fetches and verifies the selected artifact for m, returning the
// local path it was staged to.
type Downloader func(m *manifest.Manifest) (artifactPath string, err error)

// CompatibilityInput describes the currently-installed build, used to
// evaluate a candidate manifest's compatibility gate.
type CompatibilityInput struct {
	IPCBridgeAvailable    bool
	UserDataSchemaVersion int
}

// StateMachine drives the update phase transitions and persists State after
// every change.
type StateMachine struct {
	statePath    string
	provider     manifest.Provider
	discoverOpts manifest.DiscoverOptions
	registry     *migrate.SchemaRegistry
	compat       CompatibilityInput
	download     Downloader
}

// New builds a StateMachine. A nil registry behaves as if no migrations are
// registered, so any schema change other than no-op is treated as
// unavailable.
func New(statePath string, provider manifest.Provider, opts manifest.DiscoverOptions, registry *migrate.SchemaRegistry, compat CompatibilityInput, download Downloader) *StateMachine {
	if registry == nil {
		registry = migrate.NewSchemaRegistry()
	}
	return &StateMachine{
		statePath:    statePath,
		provider:     provider,
		discoverOpts: opts,
		registry:     registry,
		compat:       compat,
		download:     download,
	}
}

// Load returns the current persisted state.
func (sm *StateMachine) Load() (*State, error) {
	return LoadState(sm.statePath)
}

func (sm *StateMachine) save(s *State) error {
	return SaveState(sm.statePath, s)
}

// Check runs a release check. If an apply is already staged, it is a no-op:
// no re-check happens while an apply is pending.
func (sm *StateMachine) Check(ctx context.Context) (*State, error) {
	s, err := sm.Load()
	if err != nil {
		return nil, err
	}
	if s.Phase == PhaseStaged {
		return s, nil
	}

	now := time.Now()
	s.Phase = PhaseChecking
	s.CheckedAt = &now
	if err := sm.save(s); err != nil {
		return nil, err
	}

	best, ok, err := manifest.Discover(ctx, sm.provider, sm.discoverOpts)
	if err != nil {
		s.Phase = PhaseError
		s.LastErrorCode = errcode.CheckFailed
		s.LastError = err.Error()
		if saveErr := sm.save(s); saveErr != nil {
			return nil, saveErr
		}
		return s, nil
	}
	if !ok {
		s.Phase = PhaseUpToDate
		s.Available = nil
		s.LastError = ""
		s.LastErrorCode = ""
		if err := sm.save(s); err != nil {
			return nil, err
		}
		return s, nil
	}

	if code := sm.compatibilityGate(best); code != "" {
		s.Phase = PhaseError
		s.LastErrorCode = code
		s.LastError = fmt.Sprintf("manifest %s failed compatibility gate", best.Version)
		s.Available = nil
		if err := sm.save(s); err != nil {
			return nil, err
		}
		return s, nil
	}

	s.Phase = PhaseAvailable
	s.Available = best
	s.LastError = ""
	s.LastErrorCode = ""
	if err := sm.save(s); err != nil {
		return nil, err
	}
	return s, nil
}

// compatibilityGate implements the available -> staged compatibility checks.
// Downgrade protection lives in SchemaRegistry.Covers: same-version
// transitions are always covered, strictly-lower targets never are.
func (sm *StateMachine) compatibilityGate(m *manifest.Manifest) errcode.Code {
	if !m.Compatibility.IPCContractCompatible && !sm.compat.IPCBridgeAvailable {
		return errcode.IPCIncompatible
	}
	if !m.Compatibility.UserDataSchemaCompatible {
		if !sm.registry.Covers(sm.compat.UserDataSchemaVersion, m.Components.UserDataSchemaVersion) {
			return errcode.SchemaMigrationUnavailable
		}
	}
	return ""
}

// Download stages the artifact for the currently-available manifest. It
// requires Check to have already produced PhaseAvailable.
func (sm *StateMachine) Download() (*State, error) {
	s, err := sm.Load()
	if err != nil {
		return nil, err
	}
	if s.Phase != PhaseAvailable || s.Available == nil {
		return nil, fmt.Errorf("download requested while in phase %q, want %q", s.Phase, PhaseAvailable)
	}
	if sm.download == nil {
		return nil, fmt.Errorf("update: no downloader configured")
	}

	path, err := sm.download(s.Available)
	if err != nil {
		code := errcode.DownloadFailed
		if errors.Is(err, ErrChecksumMismatch) {
			code = errcode.ChecksumMismatch
		}
		s.Phase = PhaseError
		s.LastErrorCode = code
		s.LastError = err.Error()
		if saveErr := sm.save(s); saveErr != nil {
			return nil, saveErr
		}
		return s, nil
	}

	s.Phase = PhaseStaged
	s.StagedVersion = s.Available.Version
	s.StagedArtifactPath = path
	s.LastError = ""
	s.LastErrorCode = ""
	if err := sm.save(s); err != nil {
		return nil, err
	}
	return s, nil
}

// ApplyFailed records that the Applier could not complete the staged apply,
// moving the machine from staged to error.
func (sm *StateMachine) ApplyFailed(code errcode.Code, detail string) (*State, error) {
	s, err := sm.Load()
	if err != nil {
		return nil, err
	}
	if s.Phase != PhaseStaged {
		return nil, fmt.Errorf("apply failure reported while in phase %q, want %q", s.Phase, PhaseStaged)
	}
	s.Phase = PhaseError
	s.LastErrorCode = code
	s.LastError = detail
	if err := sm.save(s); err != nil {
		return nil, err
	}
	return s, nil
}
