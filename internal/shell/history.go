package shell

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// maxHistoryEntries bounds the persisted history file.
const maxHistoryEntries = 1000

// History is the shell's persisted command history. A History with an
// empty path works purely in memory.
type History struct {
	mu      sync.Mutex
	path    string
	entries []string
}

// LoadHistory reads history from the given JSON file. A missing or
// unreadable file yields an empty history; history is a convenience, not
// a requirement.
func LoadHistory(path string) *History {
	h := &History{path: path}
	if path == "" {
		return h
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return h
	}
	for _, entry := range gjson.GetBytes(data, "history").Array() {
		h.entries = append(h.entries, entry.String())
	}
	return h
}

// Append records one accepted line. Blank lines and immediate duplicates
// are skipped.
func (h *History) Append(line string) {
	if line == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if n := len(h.entries); n > 0 && h.entries[n-1] == line {
		return
	}
	h.entries = append(h.entries, line)
	if len(h.entries) > maxHistoryEntries {
		h.entries = h.entries[len(h.entries)-maxHistoryEntries:]
	}
}

// Entries returns a copy of the recorded lines, oldest first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Save writes the history file. No-op for an in-memory history.
func (h *History) Save() error {
	h.mu.Lock()
	entries := make([]string, len(h.entries))
	copy(entries, h.entries)
	path := h.path
	h.mu.Unlock()

	if path == "" {
		return nil
	}

	doc, err := sjson.Set("{}", "history", entries)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(doc), 0o644)
}
