package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hearthcore/hearth/internal/audit"
)

// updateFamilies are the audit families that make up the update pipeline's
// audit trail, as distinct from general application logs.
var updateFamilies = map[audit.Family]bool{
	audit.FamilyCheck:     true,
	audit.FamilyDownload:  true,
	audit.FamilyApply:     true,
	audit.FamilyMigration: true,
	audit.FamilyRollback:  true,
}

// ExportAuditEvents queries log for events in window matching kind (logs:
// every family; update-audit-trail: only the update-pipeline families),
// optionally narrowed further by severity, and renders the result as format.
func ExportAuditEvents(log *audit.Log, kind Kind, format Format, window Window, severity audit.Level, now time.Time) (Result, error) {
	events, err := log.Query(audit.Filter{DateFrom: window.From, DateTo: window.To, Severity: severity})
	if err != nil {
		return Result{}, fmt.Errorf("query audit events: %w", err)
	}

	var filtered []audit.Event
	for _, e := range events {
		if kind == KindUpdateAuditTrail && !updateFamilies[e.Family] {
			continue
		}
		filtered = append(filtered, e)
	}

	var content []byte
	switch format {
	case FormatCSV:
		content, err = eventsToCSV(filtered)
	default:
		content, err = json.MarshalIndent(filtered, "", "  ")
	}
	if err != nil {
		return Result{}, fmt.Errorf("render export: %w", err)
	}

	return newResult(kind, format, now, content), nil
}

func eventsToCSV(events []audit.Event) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"ts", "level", "code", "family", "scope", "meta"}); err != nil {
		return nil, err
	}
	for _, e := range events {
		metaJSON, err := json.Marshal(e.Meta)
		if err != nil {
			return nil, err
		}
		row := []string{
			e.Ts.UTC().Format(time.RFC3339Nano),
			string(e.Level),
			e.Code,
			string(e.Family),
			e.Scope,
			string(metaJSON),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
