package tle

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCacheWriteAndLoadLatest(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, 5)

	older := time.Date(2024, 12, 23, 10, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 12, 23, 16, 0, 0, 0, time.UTC)

	if err := c.Write([]byte(`[{"NORAD_CAT_ID": 1}]`), older); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := c.Write([]byte(`[{"NORAD_CAT_ID": 2}]`), newer); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, ts, err := c.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if !ts.Equal(newer) {
		t.Errorf("timestamp = %v, want %v", ts, newer)
	}
	if string(data) != `[{"NORAD_CAT_ID": 2}]` {
		t.Errorf("data = %q, want newest payload", data)
	}
}

func TestCachePrune(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, 2)

	base := time.Date(2024, 12, 23, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		if err := c.Write([]byte("x"), base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d cache files after prune, want 2", len(entries))
	}

	// The survivors must be the two newest.
	_, ts, err := c.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if !ts.Equal(base.Add(3 * time.Hour)) {
		t.Errorf("latest timestamp = %v, want %v", ts, base.Add(3*time.Hour))
	}
}

func TestCacheLoadLatestEmpty(t *testing.T) {
	c := NewCache(t.TempDir(), 5)
	if _, _, err := c.LoadLatest(); err == nil {
		t.Fatal("expected error for empty cache dir")
	}
}

func TestCacheIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "catalog_bogus.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewCache(dir, 5)
	ts := time.Date(2024, 12, 23, 12, 0, 0, 0, time.UTC)
	if err := c.Write([]byte("real"), ts); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, got, err := c.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if !got.Equal(ts) || string(data) != "real" {
		t.Errorf("LoadLatest = (%q, %v), want (\"real\", %v)", data, got, ts)
	}
}
