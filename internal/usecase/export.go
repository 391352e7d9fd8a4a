package usecase

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/dto"
)

// ExportFormat is the serialization of an export document.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportCSV  ExportFormat = "csv"
)

// ExportCompression is the optional compression of an export download.
type ExportCompression string

const (
	CompressNone ExportCompression = ""
	CompressGzip ExportCompression = "gzip"
	CompressZstd ExportCompression = "zstd"
)

// ParseExportFormat defaults to JSON.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", ExportJSON:
		return ExportJSON, nil
	case ExportCSV:
		return ExportCSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

func ParseExportCompression(s string) (ExportCompression, error) {
	switch c := ExportCompression(strings.ToLower(strings.TrimSpace(s))); c {
	case CompressNone, CompressGzip, CompressZstd:
		return c, nil
	}
	return "", fmt.Errorf("%w: compression %q", ErrUnsupportedFormat, s)
}

// ContentType of the uncompressed payload.
func (f ExportFormat) ContentType() string {
	if f == ExportCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json"
}

// ExportFileName builds the attachment name, e.g. system-logs-1700000000000.csv.gz.
func ExportFileName(at time.Time, f ExportFormat, c ExportCompression) string {
	name := fmt.Sprintf("system-logs-%d.%s", at.UnixMilli(), f)
	switch c {
	case CompressGzip:
		name += ".gz"
	case CompressZstd:
		name += ".zst"
	}
	return name
}

// WriteExport serializes doc to w in the given format and compression.
func WriteExport(w io.Writer, doc *dto.ExportDocument, f ExportFormat, c ExportCompression) error {
	var (
		out    io.Writer = w
		closer io.Closer
	)
	switch c {
	case CompressGzip:
		gz := gzip.NewWriter(w)
		out, closer = gz, gz
	case CompressZstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("zstd writer: %w", err)
		}
		out, closer = enc, enc
	}

	var err error
	switch f {
	case ExportCSV:
		err = writeExportCSV(out, doc)
	default:
		err = writeExportJSON(out, doc)
	}
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return err
	}
	if closer != nil {
		return closer.Close()
	}
	return nil
}

type exportInfo struct {
	ExportID    string      `json:"exportId"`
	GeneratedAt time.Time   `json:"generatedAt"`
	ExportedBy  string      `json:"exportedBy"`
	TotalLogs   int         `json:"totalLogs"`
	Truncated   bool        `json:"truncated"`
	Filters     interface{} `json:"filters"`
}

func writeExportJSON(w io.Writer, doc *dto.ExportDocument) error {
	payload := struct {
		ExportInfo exportInfo  `json:"exportInfo"`
		Logs       interface{} `json:"logs"`
	}{
		ExportInfo: exportInfo{
			ExportID:    doc.ExportID,
			GeneratedAt: doc.GeneratedAt,
			ExportedBy:  doc.ExportedBy,
			TotalLogs:   doc.TotalLogs,
			Truncated:   doc.Truncated,
			Filters:     doc.Filters,
		},
		Logs: doc.Logs,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

var csvHeader = []string{
	"id", "createdAt", "level", "source", "category", "message", "environment",
	"resolved", "resolvedBy", "resolvedAt", "userId", "ip", "requestId", "tags", "details",
}

func writeExportCSV(w io.Writer, doc *dto.ExportDocument) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range doc.Logs {
		details, err := json.Marshal(r.Details)
		if err != nil {
			return fmt.Errorf("marshal details of %s: %w", r.ID, err)
		}
		resolvedAt := ""
		if r.ResolvedAt != nil {
			resolvedAt = r.ResolvedAt.UTC().Format(time.RFC3339)
		}
		row := []string{
			r.ID,
			r.CreatedAt.UTC().Format(time.RFC3339),
			string(r.Level),
			r.Source,
			r.Category,
			r.Message,
			string(r.Environment),
			strconv.FormatBool(r.Resolved),
			r.ResolvedBy,
			resolvedAt,
			r.UserID,
			r.IP,
			r.RequestID,
			strings.Join(r.Tags, ";"),
			string(details),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
