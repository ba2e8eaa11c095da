package history

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"PocketCalc/internal/model"
)

// MaxEntries is the number of calculations kept in memory and on disk.
const MaxEntries = 100

// Log is an insertion-ordered, bounded list of completed calculations.
type Log struct {
	mu      sync.Mutex
	entries []model.HistoryEntry
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append adds an entry, evicting the oldest ones beyond MaxEntries.
func (l *Log) Append(e model.HistoryEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, e)
	if len(l.entries) > MaxEntries {
		l.entries = append([]model.HistoryEntry(nil), l.entries[len(l.entries)-MaxEntries:]...)
	}
}

// Entries returns a copy, oldest first.
func (l *Log) Entries() []model.HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.HistoryEntry(nil), l.entries...)
}

// Lines returns the rendered entries, oldest first.
func (l *Log) Lines() []string {
	entries := l.Entries()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.String()
	}
	return lines
}

// Len returns the number of stored entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear drops every entry.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// Load reads a history file, one entry per line, keeping the most recent
// MaxEntries. A missing file yields an empty log.
func Load(path string) (*Log, error) {
	l := NewLog()
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return l, nil
		}
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	// no line length limit: one oversized line must not drop the others
	br := bufio.NewReader(f)
	for {
		line, err := br.ReadString('\n')
		if line = strings.TrimRight(line, "\r\n"); line != "" {
			l.Append(model.ParseHistoryEntry(line))
		}
		if errors.Is(err, io.EOF) {
			return l, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read history: %w", err)
		}
	}
}

// Save overwrites path with the current entries.
func (l *Log) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
	}
	var b strings.Builder
	for _, line := range l.Lines() {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}
