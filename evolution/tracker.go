package evolution

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seacor-ai/seacor/core"
	"github.com/seacor-ai/seacor/logging"
)

// Entry is one line of the evolution history.
type Entry struct {
	ID           string              `json:"id"`
	Prompt       string              `json:"prompt"`
	Plan         *core.ExecutionPlan `json:"plan"`
	Results      []string            `json:"results"`
	Evaluation   string              `json:"evaluation"`
	Improvements string              `json:"improvements"`
	Timestamp    string              `json:"timestamp"`
}

// Tracker appends run records to a JSONL history file. Writes are serialized
// by an in-process mutex and the file is opened in append mode, so
// concurrent trackers on the same file interleave whole lines.
type Tracker struct {
	mu     sync.Mutex
	path   string
	logger logging.Logger
}

// NewTracker constructs a Tracker writing to path. The parent directory is
// created on first Record.
func NewTracker(path string, logger logging.Logger) *Tracker {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Tracker{path: path, logger: logger}
}

// Record appends one entry. A missing ID is filled with a fresh UUID and the
// timestamp is always set to the current UTC time in ISO-8601 form.
func (t *Tracker) Record(entry Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.Timestamp = time.Now().UTC().Format(time.RFC3339)

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	if dir := filepath.Dir(t.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
	}

	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append history entry: %w", err)
	}

	t.logger.Debug("history entry recorded", "id", entry.ID, "path", t.path)
	return nil
}

// History reads back all entries in file order. Malformed lines are skipped
// with a warning rather than failing the whole read.
func (t *Tracker) History() ([]Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.logger.Warn("skipping malformed history line", "error", err)
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}
	return entries, nil
}
