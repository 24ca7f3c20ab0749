package logging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestJSONLStore_AppendQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cycles.jsonl")
	store, err := NewJSONLStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	base := time.Unix(1000, 0)
	for i := 0; i < 3; i++ {
		rec := NewRecord(sampleAssignment(base.Add(time.Duration(i) * time.Minute)))
		if err := store.Append(context.Background(), rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, _ = f.WriteString("not json\n")
	_ = f.Close()

	out, err := store.Query(context.Background(), LogQuery{Start: base.Add(30 * time.Second)})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
}
