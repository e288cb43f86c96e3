/*
Package storage provides tests for the storage layer.
*/
package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/khanglvm/prompt-dispatch/internal/logging"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	storage := NewStorage(filepath.Join(t.TempDir(), "test.db"), logging.Discard())
	if err := storage.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

// TestNewStorage verifies storage initialization.
func TestNewStorage(t *testing.T) {
	storage := NewStorage("", nil)
	if storage == nil {
		t.Fatal("NewStorage returned nil")
	}

	if storage.enabled {
		t.Error("empty path should disable storage")
	}
}

// TestInit verifies database initialization and schema creation.
func TestInit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")
	storage := NewStorage(dbPath, logging.Discard())

	if err := storage.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer storage.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file not created")
	}

	if !storage.Enabled() {
		t.Error("storage should be enabled after Init")
	}
}

// TestMigrationsIdempotent verifies reopening an existing database.
func TestMigrationsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	first := NewStorage(dbPath, logging.Discard())
	if err := first.Init(); err != nil {
		t.Fatalf("first Init failed: %v", err)
	}
	first.SaveEmbedding("open_chrome", []float32{1, 2}, "v1")
	first.Close()

	second := NewStorage(dbPath, logging.Discard())
	if err := second.Init(); err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
	defer second.Close()

	vector, version, err := second.GetEmbedding("open_chrome")
	if err != nil {
		t.Fatalf("GetEmbedding failed: %v", err)
	}
	if len(vector) != 2 || version != "v1" {
		t.Errorf("embedding not persisted across reopen: %v %s", vector, version)
	}
}

func TestEmbeddings(t *testing.T) {
	storage := newTestStorage(t)

	storage.SaveEmbedding("open_chrome", []float32{0.1, 0.2, 0.3}, "hash-1")
	storage.SaveEmbedding("list_files", []float32{0.4, 0.5, 0.6}, "hash-1")
	// Overwrite keeps one row per function.
	storage.SaveEmbedding("open_chrome", []float32{0.7, 0.8, 0.9}, "hash-2")

	vector, version, err := storage.GetEmbedding("open_chrome")
	if err != nil {
		t.Fatalf("GetEmbedding failed: %v", err)
	}
	if version != "hash-2" || vector[0] != 0.7 {
		t.Errorf("expected overwritten embedding, got %v %s", vector, version)
	}

	missing, _, err := storage.GetEmbedding("open_notepad")
	if err != nil || missing != nil {
		t.Errorf("expected nil vector for missing embedding, got %v, %v", missing, err)
	}

	all, err := storage.ListEmbeddings()
	if err != nil {
		t.Fatalf("ListEmbeddings failed: %v", err)
	}
	if len(all) != 2 || all[0].Name != "list_files" || all[1].Name != "open_chrome" {
		t.Errorf("unexpected embeddings listing: %+v", all)
	}
}

func TestDeleteEmbeddingsExcept(t *testing.T) {
	storage := newTestStorage(t)

	for _, name := range []string{"a", "b", "c"} {
		storage.SaveEmbedding(name, []float32{1}, "v")
	}

	deleted, err := storage.DeleteEmbeddingsExcept([]string{"a", "c"})
	if err != nil {
		t.Fatalf("DeleteEmbeddingsExcept failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}

	all, _ := storage.ListEmbeddings()
	if len(all) != 2 {
		t.Errorf("expected 2 remaining, got %d", len(all))
	}

	deleted, err = storage.DeleteEmbeddingsExcept(nil)
	if err != nil {
		t.Fatalf("DeleteEmbeddingsExcept(nil) failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}
}

func TestSessionPrompts(t *testing.T) {
	storage := newTestStorage(t)

	for _, p := range []string{"Open Chrome", "List files", "Open Chrome"} {
		if err := storage.AppendPrompt("test1", p); err != nil {
			t.Fatalf("AppendPrompt failed: %v", err)
		}
	}
	if err := storage.AppendPrompt("test2", "Get CPU usage"); err != nil {
		t.Fatalf("AppendPrompt failed: %v", err)
	}

	prompts, err := storage.SessionPrompts("test1")
	if err != nil {
		t.Fatalf("SessionPrompts failed: %v", err)
	}
	want := []string{"Open Chrome", "List files", "Open Chrome"}
	if len(prompts) != len(want) {
		t.Fatalf("expected %d prompts, got %d", len(want), len(prompts))
	}
	for i := range want {
		if prompts[i] != want[i] {
			t.Errorf("prompt %d: expected %q, got %q", i, want[i], prompts[i])
		}
	}

	other, _ := storage.SessionPrompts("test2")
	if len(other) != 1 {
		t.Errorf("sessions should be independent, got %v", other)
	}

	none, _ := storage.SessionPrompts("unknown")
	if len(none) != 0 {
		t.Errorf("expected empty history, got %v", none)
	}
}

// TestRecordDispatch verifies recording dispatch events.
func TestRecordDispatch(t *testing.T) {
	storage := newTestStorage(t)

	record := DispatchRecord{
		RequestID:   "req-1",
		Function:    "open_chrome",
		SessionHash: HashQuery("test1"),
		PromptHash:  HashQuery("Open Chrome"),
		Score:       0.82,
		Matched:     true,
		Timestamp:   time.Now(),
	}

	if err := storage.RecordDispatch(record); err != nil {
		t.Fatalf("RecordDispatch failed: %v", err)
	}

	history, err := storage.GetDispatchHistory("open_chrome", time.Now().Add(-1*time.Hour))
	if err != nil {
		t.Fatalf("GetDispatchHistory failed: %v", err)
	}

	if len(history) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(history))
	}

	if history[0].RequestID != "req-1" || !history[0].Matched || history[0].Failed {
		t.Errorf("unexpected record: %+v", history[0])
	}
	if history[0].Score != 0.82 {
		t.Errorf("expected score 0.82, got %v", history[0].Score)
	}
}

func TestCleanup(t *testing.T) {
	storage := newTestStorage(t)

	storage.RecordDispatch(DispatchRecord{RequestID: "old", Function: "list_files", Timestamp: time.Now().Add(-48 * time.Hour)})
	storage.RecordDispatch(DispatchRecord{RequestID: "new", Function: "list_files", Timestamp: time.Now()})

	if err := storage.Cleanup(24 * time.Hour); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}

	history, _ := storage.GetDispatchHistory("list_files", time.Now().Add(-72*time.Hour))
	if len(history) != 1 || history[0].RequestID != "new" {
		t.Errorf("expected only the recent record, got %+v", history)
	}
}

// TestHashQuery verifies query hashing consistency.
func TestHashQuery(t *testing.T) {
	query := "test query for hashing"

	hash1 := HashQuery(query)
	hash2 := HashQuery(query)

	if hash1 != hash2 {
		t.Error("HashQuery produced inconsistent results")
	}

	if len(hash1) != 64 { // SHA256 hex = 64 chars
		t.Errorf("Expected hash length 64, got %d", len(hash1))
	}
}

// TestGracefulDegradation verifies behavior when DB is unavailable.
func TestGracefulDegradation(t *testing.T) {
	// A regular file where a directory is expected makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	storage := NewStorage(filepath.Join(blocker, "sub", "test.db"), logging.Discard())

	if err := storage.Init(); err == nil {
		t.Error("expected Init to report the failure")
	}

	if storage.Enabled() {
		t.Error("storage should be disabled after failed Init")
	}

	if err := storage.RecordDispatch(DispatchRecord{RequestID: "x", Function: "test", Timestamp: time.Now()}); err != nil {
		t.Errorf("RecordDispatch should return nil on disabled storage, got: %v", err)
	}

	history, err := storage.GetDispatchHistory("test", time.Now())
	if err != nil {
		t.Errorf("GetDispatchHistory should not error on disabled storage, got: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("Expected empty history on disabled storage, got %d records", len(history))
	}

	if err := storage.AppendPrompt("s", "p"); err != nil {
		t.Errorf("AppendPrompt should be a no-op on disabled storage, got: %v", err)
	}

	vector, _, err := storage.GetEmbedding("x")
	if err != nil || vector != nil {
		t.Errorf("GetEmbedding should be a no-op on disabled storage, got %v, %v", vector, err)
	}
}
