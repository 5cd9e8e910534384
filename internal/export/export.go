// Package export implements the ExportAggregator: date-range and
// family/severity filtered exports of audit events and model usage history,
// rendered as pretty JSON or RFC-4180 CSV with a content hash for
// integrity checking on the receiving end.
package export

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Format is an export's serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Kind names what an export contains.
type Kind string

const (
	KindModelHistory     Kind = "model-history"
	KindLogs             Kind = "logs"
	KindUpdateAuditTrail Kind = "update-audit-trail"
)

const (
	mimeTypeJSON = "application/json"
	mimeTypeCSV  = "text/csv"
)

func mimeTypeFor(f Format) string {
	if f == FormatCSV {
		return mimeTypeCSV
	}
	return mimeTypeJSON
}

// Result is one completed export, ready to be written to disk or returned to
// a caller over IPC.
type Result struct {
	FileName     string `json:"fileName"`
	MimeType     string `json:"mimeType"`
	Content      []byte `json:"content"`
	ContentBytes int    `json:"contentBytes"`
	Sha256       string `json:"sha256"`
}

func newResult(kind Kind, format Format, now time.Time, content []byte) Result {
	sum := sha256.Sum256(content)
	ext := "json"
	if format == FormatCSV {
		ext = "csv"
	}
	return Result{
		FileName:     fmt.Sprintf("%s-%s.%s", kind, now.UTC().Format("20060102T150405Z"), ext),
		MimeType:     mimeTypeFor(format),
		Content:      content,
		ContentBytes: len(content),
		Sha256:       hex.EncodeToString(sum[:]),
	}
}
