package postapply

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hearthcore/hearth/internal/audit"
	"github.com/hearthcore/hearth/internal/procexec"
)

type instantScheduler struct{}

func (instantScheduler) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

type blockingScheduler struct{}

func (blockingScheduler) After(d time.Duration) <-chan time.Time {
	return make(chan time.Time)
}

func newTestLog(t *testing.T) *audit.Log {
	t.Helper()
	log, err := audit.New(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return log
}

type countingProcess struct{}

func (countingProcess) StdoutPipe() (io.ReadCloser, error) { return io.NopCloser(nil), nil }
func (countingProcess) StderrPipe() (io.ReadCloser, error) { return io.NopCloser(nil), nil }
func (countingProcess) Start() error                       { return nil }
func (countingProcess) Wait() error                         { return nil }
func (countingProcess) Terminate() error                    { return nil }
func (countingProcess) Kill() error                          { return nil }

func countingSpawn(count *int, mu *sync.Mutex) procexec.Spawn {
	return func(ctx context.Context, name string, args []string, env []string) (procexec.Process, error) {
		mu.Lock()
		*count++
		mu.Unlock()
		return countingProcess{}, nil
	}
}

func TestStartValidation_NoAttempt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attempt.json")
	c := New(path, nil, instantScheduler{}, nil, Config{})
	status, err := c.StartValidation("1.0.0")
	if err != nil {
		t.Fatalf("StartValidation() error = %v", err)
	}
	if status != StatusValidated {
		t.Errorf("status = %v, want %v", status, StatusValidated)
	}
}

func TestStartValidation_TargetMatchNoHandshake(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attempt.json")
	c := New(path, nil, instantScheduler{}, nil, Config{BootHealthyHandshakeRequired: false})
	if err := c.RecordAttempt(Attempt{PreviousVersion: "1.0.0", TargetVersion: "2.0.0", Mode: ModeRelaunch}); err != nil {
		t.Fatal(err)
	}

	status, err := c.StartValidation("2.0.0")
	if err != nil {
		t.Fatalf("StartValidation() error = %v", err)
	}
	if status != StatusValidated {
		t.Errorf("status = %v, want %v", status, StatusValidated)
	}
	if a, _ := LoadAttempt(path); a != nil {
		t.Error("attempt should be cleared")
	}
}

func TestStartValidation_PreviousVersionLogsNotApplied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attempt.json")
	log := newTestLog(t)
	c := New(path, log, instantScheduler{}, nil, Config{})
	if err := c.RecordAttempt(Attempt{PreviousVersion: "1.0.0", TargetVersion: "2.0.0", Mode: ModeRelaunch}); err != nil {
		t.Fatal(err)
	}

	status, err := c.StartValidation("1.0.0")
	if err != nil {
		t.Fatalf("StartValidation() error = %v", err)
	}
	if status != StatusNotApplied {
		t.Errorf("status = %v, want %v", status, StatusNotApplied)
	}
}

func TestStartValidation_UnexpectedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attempt.json")
	log := newTestLog(t)
	c := New(path, log, instantScheduler{}, nil, Config{})
	if err := c.RecordAttempt(Attempt{PreviousVersion: "1.0.0", TargetVersion: "2.0.0", Mode: ModeRelaunch}); err != nil {
		t.Fatal(err)
	}

	status, err := c.StartValidation("9.9.9")
	if err != nil {
		t.Fatalf("StartValidation() error = %v", err)
	}
	if status != StatusUnexpectedVersion {
		t.Errorf("status = %v, want %v", status, StatusUnexpectedVersion)
	}
}

func TestMarkBootHealthy_ClearsAttempt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attempt.json")
	c := New(path, nil, blockingScheduler{}, nil, Config{BootHealthyHandshakeRequired: true})
	if err := c.RecordAttempt(Attempt{PreviousVersion: "1.0.0", TargetVersion: "2.0.0", Mode: ModeRelaunch}); err != nil {
		t.Fatal(err)
	}

	status, err := c.StartValidation("2.0.0")
	if err != nil {
		t.Fatalf("StartValidation() error = %v", err)
	}
	if status != StatusAwaitingHandshake {
		t.Fatalf("status = %v, want %v", status, StatusAwaitingHandshake)
	}

	c.MarkBootHealthy("ui")
	waitForAttemptCleared(t, path)
}

func TestGraceTimerExpiry_LogsBootFailed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attempt.json")
	log := newTestLog(t)
	c := New(path, log, instantScheduler{}, nil, Config{BootHealthyHandshakeRequired: true, BootHealthyGraceMs: 1000})
	if err := c.RecordAttempt(Attempt{PreviousVersion: "1.0.0", TargetVersion: "2.0.0", Mode: ModeRelaunch}); err != nil {
		t.Fatal(err)
	}

	status, err := c.StartValidation("2.0.0")
	if err != nil {
		t.Fatalf("StartValidation() error = %v", err)
	}
	if status != StatusAwaitingHandshake {
		t.Fatalf("status = %v, want %v", status, StatusAwaitingHandshake)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		events, err := log.Query(audit.Filter{})
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range events {
			if e.Code == "validation_boot_failed" {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("validation_boot_failed was never logged")
}

func TestReportBootFailure_TriggersAutoDebRollback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attempt.json")
	downloadsDir := filepath.Join(t.TempDir(), "downloads")
	rollbackPath := filepath.Join(downloadsDir, "hearth-1.0.0.deb")

	log := newTestLog(t)
	var count int
	var mu sync.Mutex
	cfg := Config{
		BootHealthyHandshakeRequired: true,
		AutoDebRollbackOnBootFailure: true,
		UpdatesDownloadsDir:          downloadsDir,
	}
	c := New(path, log, blockingScheduler{}, countingSpawn(&count, &mu), cfg)
	if err := c.RecordAttempt(Attempt{
		PreviousVersion: "1.0.0",
		TargetVersion:   "2.0.0",
		Mode:            ModeDeb,
		RollbackDebPath: rollbackPath,
	}); err != nil {
		t.Fatal(err)
	}

	status, err := c.StartValidation("2.0.0")
	if err != nil {
		t.Fatalf("StartValidation() error = %v", err)
	}
	if status != StatusAwaitingHandshake {
		t.Fatalf("status = %v, want %v", status, StatusAwaitingHandshake)
	}

	c.ReportBootFailure("2.0.0", "crash detected")
	waitForAttemptCleared(t, path)

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("rollback spawn count = %d, want 1", count)
	}
}

func TestReportBootFailure_NoRollbackWhenNotOptedIn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attempt.json")
	log := newTestLog(t)
	var count int
	var mu sync.Mutex
	c := New(path, log, blockingScheduler{}, countingSpawn(&count, &mu), Config{BootHealthyHandshakeRequired: true})
	if err := c.RecordAttempt(Attempt{
		PreviousVersion: "1.0.0",
		TargetVersion:   "2.0.0",
		Mode:            ModeDeb,
		RollbackDebPath: "/tmp/downloads/hearth-1.0.0.deb",
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := c.StartValidation("2.0.0"); err != nil {
		t.Fatalf("StartValidation() error = %v", err)
	}
	c.ReportBootFailure("2.0.0", "crash detected")

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Errorf("rollback spawn count = %d, want 0 (auto-rollback not enabled)", count)
	}
}

func waitForAttemptCleared(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		a, err := LoadAttempt(path)
		if err != nil {
			t.Fatal(err)
		}
		if a == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("attempt was never cleared")
}
