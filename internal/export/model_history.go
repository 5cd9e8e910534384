package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"
)

// ModelHistoryRecord is one entry in the local model-usage history: a pull,
// a load, a removal, or an inference session boundary.
type ModelHistoryRecord struct {
	Ts       time.Time `json:"ts"`
	Model    string    `json:"model"`
	Action   string    `json:"action"`
	Endpoint string    `json:"endpoint,omitempty"`
}

// ExportModelHistory renders records within window as format. Filtering by
// window happens here rather than at the caller, keeping the window
// semantics identical across every export kind.
func ExportModelHistory(records []ModelHistoryRecord, format Format, window Window, now time.Time) (Result, error) {
	var filtered []ModelHistoryRecord
	for _, r := range records {
		if window.From != nil && r.Ts.Before(*window.From) {
			continue
		}
		if window.To != nil && !r.Ts.Before(*window.To) {
			continue
		}
		filtered = append(filtered, r)
	}

	var content []byte
	var err error
	switch format {
	case FormatCSV:
		content, err = modelHistoryToCSV(filtered)
	default:
		content, err = json.MarshalIndent(filtered, "", "  ")
	}
	if err != nil {
		return Result{}, fmt.Errorf("render export: %w", err)
	}

	return newResult(KindModelHistory, format, now, content), nil
}

func modelHistoryToCSV(records []ModelHistoryRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"ts", "model", "action", "endpoint"}); err != nil {
		return nil, err
	}
	for _, r := range records {
		row := []string{r.Ts.UTC().Format(time.RFC3339Nano), r.Model, r.Action, r.Endpoint}
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
