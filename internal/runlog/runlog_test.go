package runlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2026, 2, 25, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp: testTime,
		RunID:     "run-1",
		Action:    "sync",
		Details:   "files=2 full=false",
		Parsed:    12,
		Written:   5,
		Valid:     true,
	}
}

func TestAppend_NewFile(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "logs"))
	require.NoError(t, l.Append(testEntry()))

	entries, err := l.Read()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testEntry(), entries[0])
}

func TestAppend_ExistingFileKeepsOneHeader(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)
	require.NoError(t, l.Append(testEntry()))

	e2 := testEntry()
	e2.Action = "verify"
	e2.Valid = false
	require.NoError(t, l.Append(e2))

	entries, err := l.Read()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "verify", entries[1].Action)
	assert.False(t, entries[1].Valid)

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), Header))
}

func TestDisabled(t *testing.T) {
	l := New("")
	require.NoError(t, l.Append(testEntry()))
	entries, err := l.Read()
	require.NoError(t, err)
	assert.Nil(t, entries)

	var nilLog *Log
	assert.NoError(t, nilLog.Append(testEntry()))
}

func TestRead_Missing(t *testing.T) {
	entries, err := New(t.TempDir()).Read()
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	_, err := UnmarshalEntry([]string{"a"})
	assert.Error(t, err)

	row := MarshalEntry(testEntry())
	row[colParsed] = "many"
	_, err = UnmarshalEntry(row)
	assert.Error(t, err)

	row = MarshalEntry(testEntry())
	row[colTimestamp] = "yesterday"
	_, err = UnmarshalEntry(row)
	assert.Error(t, err)
}
