// Package auditlog keeps a local CSV record of security-relevant client
// events. Rows never carry passwords, tokens or form values.
package auditlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Event names.
const (
	EventLogin           = "login_attempt"
	EventRegister        = "register"
	EventLogout          = "logout"
	EventReceiptCreate   = "receipt_create"
	EventReceiptUpdate   = "receipt_update"
	EventReceiptDelete   = "receipt_delete"
	EventEInvoiceConnect = "einvoice_connect"
)

// Outcome values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// FileName is the audit log's name inside the config directory.
const FileName = "audit-log.csv"

// Header is the CSV header for the audit log.
const Header = "timestamp,event,email,status,details"

const (
	numFields    = 5
	colTimestamp = 0
	colEvent     = 1
	colEmail     = 2
	colStatus    = 3
	colDetails   = 4
)

// Entry is one row in the audit log.
type Entry struct {
	Timestamp time.Time
	Event     string
	Email     string
	Status    string
	Details   string
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colEvent] = e.Event
	row[colEmail] = e.Email
	row[colStatus] = e.Status
	row[colDetails] = e.Details
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

	return Entry{
		Timestamp: ts,
		Event:     record[colEvent],
		Email:     record[colEmail],
		Status:    record[colStatus],
		Details:   record[colDetails],
	}, nil
}

// Append writes entries to the CSV file at path, creating the file, its
// directory and the header if needed.
func Append(path string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating audit log dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)

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

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from the CSV file at path.
// Returns an empty slice if the file does not exist.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
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

// Recorder accepts audit events.
type Recorder interface {
	Record(event, email string, err error, details string)
}

// Discard drops every event.
var Discard Recorder = discard{}

type discard struct{}

func (discard) Record(string, string, error, string) {}

// Log appends events to a file. Write failures are reported through OnError
// and never interrupt the caller.
type Log struct {
	Path    string
	Now     func() time.Time
	OnError func(error)
}

// Record appends one event. A nil err records success.
func (l *Log) Record(event, email string, err error, details string) {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	entry := Entry{
		Timestamp: now().UTC(),
		Event:     event,
		Email:     email,
		Status:    status,
		Details:   details,
	}
	if werr := Append(l.Path, []Entry{entry}); werr != nil && l.OnError != nil {
		l.OnError(werr)
	}
}
