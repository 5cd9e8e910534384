// Package update implements the UpdateStateMachine: phase transitions,
// compatibility gating, and atomic state persistence for the update
// pipeline.
package update

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hearthcore/hearth/internal/errcode"
	"github.com/hearthcore/hearth/internal/manifest"
	"github.com/hearthcore/hearth/internal/secureio"
)

// Phase is one state of the update state machine.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseChecking    Phase = "checking"
	PhaseAvailable   Phase = "available"
	PhaseDownloading Phase = "downloading"
	PhaseStaged      Phase = "staged"
	PhaseUpToDate    Phase = "up-to-date"
	PhaseError       Phase = "error"
)

// Policy is the caller-editable update policy.
type Policy struct {
	Channel   string    `json:"channel"`
	AutoCheck bool      `json:"autoCheck"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// State is the update state machine's persisted state document.
type State struct {
	Phase               Phase             `json:"phase"`
	Provider            string            `json:"provider"`
	CheckedAt           *time.Time        `json:"checkedAt,omitempty"`
	Available           *manifest.Manifest `json:"available,omitempty"`
	StagedVersion       string            `json:"stagedVersion,omitempty"`
	StagedArtifactPath  string            `json:"stagedArtifactPath,omitempty"`
	LastError           string            `json:"lastError,omitempty"`
	LastErrorCode       errcode.Code      `json:"lastErrorCode,omitempty"`
}

// LoadState reads the state document from path, returning an idle state
// (not an error) if the file does not yet exist.
func LoadState(path string) (*State, error) {
	data, err := secureio.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{Phase: PhaseIdle}, nil
		}
		return nil, fmt.Errorf("read update state: %w", err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse update state: %w", err)
	}
	return &s, nil
}

// SaveState persists the state document atomically. Persistence happens
// before a transition is observable to callers: every transition method in
// this package calls SaveState before returning.
func SaveState(path string, s *State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal update state: %w", err)
	}
	return secureio.WriteAtomic(path, data, 0o600)
}
