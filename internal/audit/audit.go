// Package audit is the append-only structured event store every privileged
// action and update-pipeline transition writes to. Segments are
// newline-delimited JSON files under a logs directory, rotated by size.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hearthcore/hearth/internal/clock"
)

// Level is the severity of an audit event.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Family groups an event by the subsystem that produced it.
type Family string

const (
	FamilyCheck    Family = "check"
	FamilyDownload Family = "download"
	FamilyApply    Family = "apply"
	FamilyMigration Family = "migration"
	FamilyRollback Family = "rollback"
	FamilyOther    Family = "other"
)

// Event is a single audit record.
type Event struct {
	Ts    time.Time              `json:"ts"`
	Level Level                  `json:"level"`
	Code  string                 `json:"code"`
	Family Family                `json:"family"`
	Scope string                 `json:"scope,omitempty"`
	Meta  map[string]interface{} `json:"meta,omitempty"`
}

const maxSegmentBytes int64 = 4 * 1024 * 1024 // ~4 MiB soft cap per segment

// Log is an append-only audit event store rooted at a logs directory.
type Log struct {
	dir   string
	clock clock.Clock
}

// New constructs a Log writing segments under dir (created if absent). A nil
// clock falls back to clock.Real{}.
func New(dir string, c clock.Clock) (*Log, error) {
	if c == nil {
		c = clock.Real{}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create audit log directory: %w", err)
	}
	return &Log{dir: dir, clock: c}, nil
}

// Append writes event as one JSON line to the current segment, rotating to
// a new segment if the current one has grown past maxSegmentBytes. The
// write is followed by an explicit flush+sync before returning, so a crash
// immediately after Append cannot lose the record.
func (l *Log) Append(event Event) error {
	if event.Ts.IsZero() {
		event.Ts = l.clock.Now()
	}

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	line = append(line, '\n')

	segment, err := l.currentSegment(int64(len(line)))
	if err != nil {
		return fmt.Errorf("select audit segment: %w", err)
	}

	f, err := os.OpenFile(segment, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open audit segment: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync audit event: %w", err)
	}

	return nil
}

// currentSegment returns the path of the segment to append incoming bytes
// to, creating a new segment file name if the latest one would exceed the
// soft cap.
func (l *Log) currentSegment(incoming int64) (string, error) {
	segments, err := l.segmentPaths()
	if err != nil {
		return "", err
	}

	if len(segments) > 0 {
		latest := segments[len(segments)-1]
		if info, err := os.Stat(latest); err == nil {
			if info.Size()+incoming <= maxSegmentBytes {
				return latest, nil
			}
		}
	}

	return filepath.Join(l.dir, fmt.Sprintf("app-%s.ndjson", l.clock.Now().UTC().Format("20060102T150405.000000000"))), nil
}

func (l *Log) segmentPaths() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), "app-") && strings.HasSuffix(e.Name(), ".ndjson") {
			paths = append(paths, filepath.Join(l.dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Filter selects events to return from Query and Count.
type Filter struct {
	DateFrom *time.Time
	DateTo   *time.Time
	Family   Family
	Severity Level
	CodeOnly string
}

// Query returns all events across all segments matching filter, in
// append order. Date bounds are half-open [from, to); a nil bound is
// unconstrained on that side.
func (l *Log) Query(filter Filter) ([]Event, error) {
	segments, err := l.segmentPaths()
	if err != nil {
		return nil, err
	}

	var events []Event
	for _, seg := range segments {
		segEvents, err := readSegment(seg)
		if err != nil {
			return nil, err
		}
		for _, e := range segEvents {
			if matches(e, filter) {
				events = append(events, e)
			}
		}
	}

	return events, nil
}

// Count is {count, estimatedBytesJson, estimatedBytesCsv} for the events
// matching filter, letting the UI preview export size before committing.
type Count struct {
	Count               int `json:"count"`
	EstimatedBytesJSON int `json:"estimatedBytesJson"`
	EstimatedBytesCsv  int `json:"estimatedBytesCsv"`
}

// Count computes the matching event count and a byte-size estimate for each
// export format, without materializing the full export.
func (l *Log) Count(filter Filter) (Count, error) {
	events, err := l.Query(filter)
	if err != nil {
		return Count{}, err
	}

	jsonBytes, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return Count{}, fmt.Errorf("estimate json size: %w", err)
	}

	csvBytes := estimateCSVSize(events)

	return Count{
		Count:              len(events),
		EstimatedBytesJSON: len(jsonBytes),
		EstimatedBytesCsv:  csvBytes,
	}, nil
}

func estimateCSVSize(events []Event) int {
	size := len("ts,level,code,family,scope,meta\n")
	for _, e := range events {
		metaJSON, _ := json.Marshal(e.Meta)
		size += len(e.Ts.Format(time.RFC3339)) + len(e.Level) + len(e.Code) + len(e.Family) + len(e.Scope) + len(metaJSON) + 6
	}
	return size
}

func matches(e Event, f Filter) bool {
	if f.DateFrom != nil && e.Ts.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && !e.Ts.Before(*f.DateTo) {
		return false
	}
	if f.Family != "" && e.Family != f.Family {
		return false
	}
	if f.Severity != "" && e.Level != f.Severity {
		return false
	}
	if f.CodeOnly != "" && e.Code != f.CodeOnly {
		return false
	}
	return true
}

func readSegment(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open segment: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(line, &e); err != nil {
			continue // a corrupt line is skipped, not fatal to the whole read
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan segment: %w", err)
	}

	return events, nil
}

// ParseLenientBound parses an ISO-8601 timestamp, returning nil (not an
// error) for an empty or unparseable string, matching the "invalid bounds
// are dropped, not error" rule for audit queries and export windows.
func ParseLenientBound(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
