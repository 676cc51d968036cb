// Package runlog keeps a CSV audit trail of sync and verify runs.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Entry is one audited run.
type Entry struct {
	Timestamp time.Time
	RunID     string
	Action    string
	Details   string
	Parsed    int
	Written   int
	Valid     bool
}

// Header is the CSV header of the run log.
const Header = "timestamp,run_id,action,details,parsed,written,valid"

// FileName is the run log file inside its directory.
const FileName = "runs.csv"

const (
	numFields    = 7
	colTimestamp = 0
	colRunID     = 1
	colAction    = 2
	colDetails   = 3
	colParsed    = 4
	colWritten   = 5
	colValid     = 6
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colRunID] = e.RunID
	row[colAction] = e.Action
	row[colDetails] = e.Details
	row[colParsed] = strconv.Itoa(e.Parsed)
	row[colWritten] = strconv.Itoa(e.Written)
	row[colValid] = strconv.FormatBool(e.Valid)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	parsed, err := strconv.Atoi(record[colParsed])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing parsed count %q: %w", record[colParsed], err)
	}
	written, err := strconv.Atoi(record[colWritten])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing written count %q: %w", record[colWritten], err)
	}
	valid, err := strconv.ParseBool(record[colValid])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing valid flag %q: %w", record[colValid], err)
	}
	return Entry{
		Timestamp: ts,
		RunID:     record[colRunID],
		Action:    record[colAction],
		Details:   record[colDetails],
		Parsed:    parsed,
		Written:   written,
		Valid:     valid,
	}, nil
}

// Log appends entries to <dir>/runs.csv. An empty dir disables logging.
type Log struct {
	dir string
}

// New returns a Log writing under dir.
func New(dir string) *Log {
	return &Log{dir: dir}
}

// Append writes entries, creating the file and header if needed.
func (l *Log) Append(entries ...Entry) error {
	if l == nil || l.dir == "" {
		return nil
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("creating run log dir: %w", err)
	}

	path := filepath.Join(l.dir, FileName)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	return cw.Error()
}

// Read returns all entries, or nil if the log does not exist.
func (l *Log) Read() ([]Entry, error) {
	if l == nil || l.dir == "" {
		return nil, nil
	}
	f, err := os.Open(filepath.Join(l.dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()
	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
