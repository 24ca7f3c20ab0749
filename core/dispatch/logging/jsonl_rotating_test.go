package logging

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/log.jsonl"
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	rec := NewRecord(sampleAssignment(time.Now()))
	rec.CycleID = strings.Repeat("x", 64*1024)
	for i := 0; i < 20; i++ {
		if err := store.Append(context.Background(), rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	files, _ := filepath.Glob(dir + "/log-*.jsonl")
	if len(files) == 0 {
		t.Fatalf("expected rotated files")
	}
}

func TestRotatingJSONLStore_Query(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/log.jsonl"
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	_ = store.Append(context.Background(), NewRecord(sampleAssignment(time.Now())))
	out, err := store.Query(context.Background(), LogQuery{RequestID: 10})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
}
