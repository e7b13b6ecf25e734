package evolution

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/seacor-ai/seacor/core"
	"github.com/seacor-ai/seacor/logging"
)

func TestTracker_RecordAndHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "evolution_log.jsonl")
	tr := NewTracker(path, logging.NoOpLogger{})

	err := tr.Record(Entry{
		Prompt:       "最初のクエリ",
		Plan:         core.SingleTaskPlan("最初のクエリ", nil),
		Results:      []string{"結果A"},
		Evaluation:   "おおむね良好",
		Improvements: "特になし",
	})
	assert.NoError(t, err)
	assert.NoError(t, tr.Record(Entry{Prompt: "二番目のクエリ"}))

	entries, err := tr.History()
	assert.NoError(t, err)
	assert.Len(t, entries, 2)

	first := entries[0]
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "最初のクエリ", first.Prompt)
	assert.Equal(t, []string{"結果A"}, first.Results)
	assert.Equal(t, "おおむね良好", first.Evaluation)

	// Timestamps are ISO-8601 UTC.
	ts, err := time.Parse(time.RFC3339, first.Timestamp)
	assert.NoError(t, err)
	assert.Equal(t, time.UTC, ts.Location())
}

func TestTracker_HistorySkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	tr := NewTracker(path, logging.NoOpLogger{})

	assert.NoError(t, tr.Record(Entry{Prompt: "valid"}))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	assert.NoError(t, err)
	_, err = f.WriteString("not json at all\n")
	assert.NoError(t, err)
	assert.NoError(t, f.Close())

	assert.NoError(t, tr.Record(Entry{Prompt: "also valid"}))

	entries, err := tr.History()
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "valid", entries[0].Prompt)
	assert.Equal(t, "also valid", entries[1].Prompt)
}

func TestTracker_HistoryWithoutFile(t *testing.T) {
	tr := NewTracker(filepath.Join(t.TempDir(), "missing.jsonl"), logging.NoOpLogger{})
	entries, err := tr.History()
	assert.NoError(t, err)
	assert.Empty(t, entries)
}
