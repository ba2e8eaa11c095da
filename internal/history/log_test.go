package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PocketCalc/internal/calculator"
	"PocketCalc/internal/model"
)

func TestLog_KeepsInsertionOrder(t *testing.T) {
	l := NewLog()
	s := calculator.NewSession()
	for _, expr := range []string{"2+2", "3*3"} {
		var entries []model.HistoryEntry
		var err error
		s, entries, err = s.PressAll(append(calculator.SymbolsOf(expr), calculator.SymEquals)...)
		require.NoError(t, err)
		for _, e := range entries {
			l.Append(e)
		}
	}
	assert.Equal(t, []string{"2+2 = 4", "3*3 = 9"}, l.Lines())
}

func TestLog_EvictsOldestBeyondCap(t *testing.T) {
	l := NewLog()
	for i := 0; i < MaxEntries+1; i++ {
		l.Append(model.HistoryEntry{Equation: fmt.Sprintf("%d+0", i), Result: fmt.Sprint(i)})
	}
	require.Equal(t, MaxEntries, l.Len())
	lines := l.Lines()
	assert.Equal(t, "1+0 = 1", lines[0])
	assert.Equal(t, "100+0 = 100", lines[len(lines)-1])
}

func TestLog_EntriesIsACopy(t *testing.T) {
	l := NewLog()
	l.Append(model.HistoryEntry{Equation: "1+1", Result: "2"})
	got := l.Entries()
	got[0].Result = "3"
	assert.Equal(t, "2", l.Entries()[0].Result)
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.NoError(t, err)
	assert.Equal(t, 0, l.Len())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "history.txt")
	l := NewLog()
	l.Append(model.HistoryEntry{Equation: "2+2", Result: "4"})
	l.Append(model.HistoryEntry{Equation: "10/4", Result: "2.5"})
	require.NoError(t, l.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2+2 = 4\n10/4 = 2.5\n", string(data))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, l.Entries(), loaded.Entries())
}

func TestLoad_KeepsMostRecentLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.txt")
	var b strings.Builder
	for i := 0; i < 150; i++ {
		fmt.Fprintf(&b, "%d*1 = %d\n", i, i)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))

	l, err := Load(path)
	require.NoError(t, err)
	lines := l.Lines()
	require.Len(t, lines, MaxEntries)
	assert.Equal(t, "50*1 = 50", lines[0])
	assert.Equal(t, "149*1 = 149", lines[MaxEntries-1])
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.txt")
	l := NewLog()
	l.Append(model.HistoryEntry{Equation: "1+1", Result: "2"})
	l.Clear()
	require.NoError(t, l.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestLoad_OversizedLineKeepsOtherEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.txt")
	long := strings.Repeat("1+", 35000) + "1 = 35001"
	content := "2+2 = 4\n" + long + "\n3*3 = 9\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	l, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, l.Len())
	lines := l.Lines()
	assert.Equal(t, "2+2 = 4", lines[0])
	assert.Equal(t, long, lines[1])
	assert.Equal(t, "3*3 = 9", lines[2])
}

func TestLoad_NoTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.txt")
	require.NoError(t, os.WriteFile(path, []byte("2+2 = 4\r\n3*3 = 9"), 0644))

	l, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"2+2 = 4", "3*3 = 9"}, l.Lines())
}
