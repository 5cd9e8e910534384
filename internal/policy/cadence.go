// Package policy also tracks update-check cadence: whether a channel is due
// for another manifest check under a daily, weekly, or monthly cadence,
// independent of the allow/ask/deny scope table above.
// UpdateStateMachine.Check does not consult this state itself.
package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hearthcore/hearth/internal/secureio"
)

// CadenceState tracks when each channel was last checked for updates.
type CadenceState struct {
	LastChecked map[string]time.Time `json:"last_checked"` // channel -> timestamp
}

// ShouldCheckForUpdates reports whether channel is due for another check
// under cadence ("", "daily", "weekly", "monthly"). An empty cadence or a
// channel never checked before always returns true.
func (cs *CadenceState) ShouldCheckForUpdates(channel, cadence string, now time.Time) bool {
	if cadence == "" {
		return true
	}

	lastCheck, exists := cs.LastChecked[channel]
	if !exists {
		return true
	}

	switch cadence {
	case "daily":
		return now.Sub(lastCheck) >= 24*time.Hour
	case "weekly":
		return now.Sub(lastCheck) >= 7*24*time.Hour
	case "monthly":
		return now.Sub(lastCheck) >= 30*24*time.Hour
	default:
		return true
	}
}

// MarkChecked records that channel was checked at now.
func (cs *CadenceState) MarkChecked(channel string, now time.Time) {
	if cs.LastChecked == nil {
		cs.LastChecked = make(map[string]time.Time)
	}
	cs.LastChecked[channel] = now
}

// LoadCadenceState loads cadence state from stateFile, returning an empty
// state (not an error) if the file does not yet exist.
func LoadCadenceState(stateFile string) (*CadenceState, error) {
	data, err := secureio.ReadFile(stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			return &CadenceState{LastChecked: make(map[string]time.Time)}, nil
		}
		return nil, fmt.Errorf("read cadence state: %w", err)
	}

	var state CadenceState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse cadence state: %w", err)
	}
	if state.LastChecked == nil {
		state.LastChecked = make(map[string]time.Time)
	}

	return &state, nil
}

// SaveCadenceState writes state to stateFile atomically.
func SaveCadenceState(stateFile string, state *CadenceState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cadence state: %w", err)
	}
	return secureio.WriteAtomic(stateFile, data, 0o600)
}

// GetDefaultStateFile returns the default location for the cadence state
// file under the user's config directory.
func GetDefaultStateFile() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".hearth.cadence.json"
	}
	return filepath.Join(homeDir, ".config", "hearth", "update-cadence.json")
}
