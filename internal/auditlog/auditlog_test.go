package auditlog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp: testTime,
		Event:     EventLogin,
		Email:     "user@example.com",
		Status:    StatusSuccess,
		Details:   "",
	}
}

func TestAppend_NewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	require.NoError(t, Append(path, []Entry{testEntry()}))

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, EventLogin, entries[0].Event)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestAppend_ExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Append(path, []Entry{testEntry()}))

	e2 := testEntry()
	e2.Event = EventReceiptDelete
	e2.Details = "id=r1"
	require.NoError(t, Append(path, []Entry{e2}))

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, EventLogin, entries[0].Event)
	assert.Equal(t, EventReceiptDelete, entries[1].Event)
	assert.Equal(t, "id=r1", entries[1].Details)
}

func TestRead_NotFound(t *testing.T) {
	entries, err := Read(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(Header+"\n"), 0o600))

	entries, err := Read(path)
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_BadTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	data := Header + "\nyesterday,login_attempt,a@b.co,success,\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	_, err := Read(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestMarshalUnmarshal(t *testing.T) {
	e := testEntry()
	e.Details = `title with "quotes", commas`
	row := MarshalEntry(e)
	assert.Len(t, row, 5)

	got, err := UnmarshalEntry(row)
	require.NoError(t, err)
	assert.True(t, e.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, e.Event, got.Event)
	assert.Equal(t, e.Email, got.Email)
	assert.Equal(t, e.Status, got.Status)
	assert.Equal(t, e.Details, got.Details)
}

func TestUnmarshalEntry_BadFieldCount(t *testing.T) {
	_, err := UnmarshalEntry([]string{"one", "two"})
	assert.Error(t, err)
}

func TestLogRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	log := &Log{Path: path, Now: func() time.Time { return testTime }}

	log.Record(EventLogin, "user@example.com", nil, "")
	log.Record(EventLogin, "user@example.com", errors.New("Invalid email or password"), "")

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, StatusSuccess, entries[0].Status)
	assert.Equal(t, StatusFailure, entries[1].Status)
	assert.True(t, testTime.Equal(entries[1].Timestamp))
}

func TestLogRecordReportsWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	var got error
	log := &Log{Path: filepath.Join(blocker, FileName), OnError: func(err error) { got = err }}
	log.Record(EventLogout, "", nil, "")
	assert.Error(t, got)
}
