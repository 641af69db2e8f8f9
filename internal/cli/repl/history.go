package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

// DefaultHistorySize is the number of entries kept on disk.
const DefaultHistorySize = 100

// secretMarkers make a line unfit for history.
var secretMarkers = []string{" seed=", " key=", " rekey=", " export_key="}

// History is the interactive history. It satisfies the golang.org/x/term
// History interface and persists to a file shared by concurrent sessions
// under a file lock.
type History struct {
	mu      sync.Mutex
	entries []string
	maxSize int
	file    string
}

// NewHistory creates a history stored in file. A maxSize below 1 means
// DefaultHistorySize.
func NewHistory(file string, maxSize int) *History {
	if maxSize < 1 {
		maxSize = DefaultHistorySize
	}
	return &History{maxSize: maxSize, file: file}
}

// Recordable reports whether line may be stored in history.
func Recordable(line string) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}
	for _, m := range secretMarkers {
		if strings.Contains(line, m) {
			return false
		}
	}
	return true
}

// Add appends an entry. Lines carrying secrets and repeats of the last
// entry are dropped.
func (h *History) Add(entry string) {
	if !Recordable(entry) {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if n := len(h.entries); n > 0 && h.entries[n-1] == entry {
		return
	}
	h.entries = append(h.entries, entry)
	if len(h.entries) > h.maxSize {
		h.entries = h.entries[len(h.entries)-h.maxSize:]
	}
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// At returns the entry at index, where 0 is the most recent.
func (h *History) At(index int) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if index < 0 || index >= len(h.entries) {
		return ""
	}
	return h.entries[len(h.entries)-1-index]
}

func (h *History) lock() *flock.Flock {
	return flock.New(h.file + ".lock")
}

// Load reads the history file. A missing file is not an error.
func (h *History) Load() error {
	if _, err := os.Stat(h.file); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	fl := h.lock()
	if err := fl.RLock(); err != nil {
		return fmt.Errorf("lock history: %w", err)
	}
	defer fl.Unlock()

	f, err := os.Open(h.file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		h.Add(scanner.Text())
	}
	return scanner.Err()
}

// Save writes the entries to the history file.
func (h *History) Save() error {
	if err := os.MkdirAll(filepath.Dir(h.file), 0o700); err != nil {
		return err
	}

	fl := h.lock()
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("lock history: %w", err)
	}
	defer fl.Unlock()

	h.mu.Lock()
	data := strings.Join(h.entries, "\n")
	h.mu.Unlock()
	if data != "" {
		data += "\n"
	}
	return os.WriteFile(h.file, []byte(data), 0o600)
}
