// Package classification reads the report produced by the external
// labeling pipeline. The report is treated as read-only input; rows the
// pipeline failed on are carried with an explicit error status instead of
// a guessed label.
package classification

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// Status records how a classification row was obtained.
type Status string

const (
	// StatusSuccess marks rows with a usable emotion/usability pair.
	StatusSuccess Status = "success"
	// StatusError marks rows the pipeline failed on; they carry no usable
	// label and must cause no dataset action.
	StatusError Status = "error"
	// StatusSkipped marks samples the report does not cover at all.
	StatusSkipped Status = "skipped"
)

// errorSentinel is what the producing pipeline writes into the emotion
// column when a sample could not be processed.
const errorSentinel = "error"

// Record is one classification result keyed by sample ID.
type Record struct {
	ID      string
	Speaker string
	Text    string
	Emotion string
	Usable  bool
	Reason  string
	Status  Status
}

// Report maps sample IDs to their classification records.
type Report struct {
	records map[string]Record
	order   []string
}

// Get returns the record for id. Missing IDs yield a StatusSkipped record.
func (r *Report) Get(id string) Record {
	if r != nil {
		if rec, ok := r.records[id]; ok {
			return rec
		}
	}
	return Record{ID: id, Status: StatusSkipped}
}

// Has reports whether the report contains a row for id.
func (r *Report) Has(id string) bool {
	if r == nil {
		return false
	}
	_, ok := r.records[id]
	return ok
}

// IDs returns the covered sample IDs in first-appearance order.
func (r *Report) IDs() []string {
	if r == nil {
		return nil
	}
	return r.order
}

// Len returns the number of distinct records.
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.records)
}

// Parse reads a classification report. Expected columns: Filename,
// Speaker, Text, Emotion, Is_Usable, Reason. Header names are trimmed and
// matched case-insensitively; a UTF-8 BOM on the first header is ignored.
// Duplicate filenames keep the last row, matching the append-on-resume
// behavior of the producing pipeline.
func Parse(r io.Reader) (*Report, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("classification report is empty")
		}
		return nil, fmt.Errorf("read report header: %w", err)
	}

	columns := map[string]int{}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		columns[name] = i
	}
	fileCol, ok := columns["filename"]
	if !ok {
		return nil, fmt.Errorf("classification report missing Filename column")
	}

	report := &Report{records: make(map[string]Record)}
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read report row %d: %w", line, err)
		}
		if len(row) <= fileCol {
			continue
		}
		id := path.Base(strings.TrimSpace(strings.ReplaceAll(row[fileCol], "\\", "/")))
		if id == "" || id == "." {
			continue
		}

		rec := Record{
			ID:      id,
			Speaker: field(row, columns, "speaker"),
			Text:    field(row, columns, "text"),
			Emotion: field(row, columns, "emotion"),
			Reason:  field(row, columns, "reason"),
			Status:  StatusSuccess,
		}
		rec.Usable = strings.EqualFold(field(row, columns, "is_usable"), "true")
		if strings.EqualFold(rec.Emotion, errorSentinel) {
			rec.Status = StatusError
			rec.Emotion = ""
			rec.Usable = false
		}

		if _, seen := report.records[id]; !seen {
			report.order = append(report.order, id)
		}
		report.records[id] = rec
	}

	return report, nil
}

func field(row []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Load parses the report at the given path.
func Load(reportPath string) (*Report, error) {
	file, err := os.Open(reportPath)
	if err != nil {
		return nil, fmt.Errorf("open classification report: %w", err)
	}
	defer file.Close()
	return Parse(file)
}
