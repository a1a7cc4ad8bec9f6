package sweeplog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	e := Entry{
		Timestamp: time.Date(2023, 3, 10, 2, 30, 0, 0, time.UTC),
		Owner:     "3f2504e0-4f89-41d3-9a0c-0305e82c3301",
		Action:    "sweep",
		Details:   "savings in balance at 500.00",
		Err:       "",
	}

	got, err := UnmarshalEntry(MarshalEntry(e))
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestUnmarshalEntry_FieldCount(t *testing.T) {
	_, err := UnmarshalEntry([]string{"2023-03-10T02:30:00Z", "owner", "sweep"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 5 fields")
}

func TestUnmarshalEntry_BadTimestamp(t *testing.T) {
	_, err := UnmarshalEntry([]string{"yesterday", "owner", "sweep", "", ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing timestamp")
}

func TestAppendCreatesFileWithHeader(t *testing.T) {
	dir := t.TempDir()

	err := Append(dir, []Entry{{
		Timestamp: time.Date(2023, 3, 10, 2, 30, 0, 0, time.UTC),
		Owner:     "owner-a",
		Action:    "sweep",
		Details:   "ok",
	}})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "logs", "sweep-log.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, Header, lines[0])
	assert.Contains(t, lines[1], "owner-a")
}

func TestAppendTwiceWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	e := Entry{Timestamp: time.Now().UTC().Truncate(time.Second), Owner: "owner-a", Action: "sweep"}

	require.NoError(t, Append(dir, []Entry{e}))
	require.NoError(t, Append(dir, []Entry{e, e}))

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestReadMissingFileReturnsEmpty(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAppendReadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	want := []Entry{
		{
			Timestamp: time.Date(2023, 3, 10, 2, 30, 0, 0, time.UTC),
			Owner:     "owner-a",
			Action:    "sweep",
			Details:   "savings in balance at 500.00",
		},
		{
			Timestamp: time.Date(2023, 3, 10, 2, 30, 1, 0, time.UTC),
			Owner:     "owner-b",
			Action:    "sweep",
			Err:       "reconciling: no savings pot linked",
		},
	}

	require.NoError(t, Append(dir, want))

	got, err := Read(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
