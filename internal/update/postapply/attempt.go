// Package postapply implements the PostApplyCoordinator: recording an apply
// attempt before relaunch, validating the running version on the next
// startup, and triggering the automatic .deb rollback path on boot failure.
package postapply

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hearthcore/hearth/internal/secureio"
)

// Mode names which applier produced an attempt.
type Mode string

const (
	ModeAppImage Mode = "appimage"
	ModeDeb      Mode = "deb"
	ModeRelaunch Mode = "relaunch"
)

// Attempt records one apply launch, persisted before the process relaunches
// so the next startup can validate it landed correctly.
type Attempt struct {
	PreviousVersion string    `json:"previousVersion"`
	TargetVersion   string    `json:"targetVersion"`
	Mode            Mode      `json:"mode"`
	RollbackDebPath string    `json:"rollbackDebPath,omitempty"`
	StartedAt       time.Time `json:"startedAt"`
}

// LoadAttempt reads the persisted attempt, returning (nil, nil) if none is
// pending.
func LoadAttempt(path string) (*Attempt, error) {
	data, err := secureio.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read apply attempt: %w", err)
	}
	var a Attempt
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse apply attempt: %w", err)
	}
	return &a, nil
}

// SaveAttempt persists a before a relaunch.
func SaveAttempt(path string, a *Attempt) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal apply attempt: %w", err)
	}
	return secureio.WriteAtomic(path, data, 0o600)
}

// ClearAttempt removes the persisted attempt. Absence is not an error.
func ClearAttempt(path string) error {
	if err := secureio.ValidateFilePath(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear apply attempt: %w", err)
	}
	return nil
}
