package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEmbeddingKey(t *testing.T) {
	a := EmbeddingKey("all-minilm", "knee arthroscopy")
	b := EmbeddingKey("all-minilm", "knee arthroscopy")
	c := EmbeddingKey("text-embedding-3-small", "knee arthroscopy")

	if a != b {
		t.Error("expected stable keys")
	}
	if a == c {
		t.Error("expected different keys per model")
	}
}

func TestMemoryCache_CopiesValues(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	v := []float32{1, 2, 3}

	_ = c.Set("k", v, 0)
	v[0] = 99

	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit")
	}
	if got[0] != 1 {
		t.Errorf("cached vector was mutated through caller slice: %v", got)
	}
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	if err := c.Set("k", []float32{0.5, -0.25}, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok := c.Get("k")
	if !ok || len(got) != 2 || got[1] != -0.25 {
		t.Errorf("unexpected entry %v, %v", got, ok)
	}

	if err := c.Set("expired", []float32{1}, -time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok := c.Get("expired"); ok {
		t.Error("expected expired entry to miss")
	}

	if err := c.Delete("missing"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}

	entries, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(entries) != 0 {
		t.Errorf("leftover temp files: %v", entries)
	}
}

func TestLayeredCache_PromotesFromDisk(t *testing.T) {
	dir := t.TempDir()
	disk := NewDiskCache(dir, time.Hour)
	_ = disk.Set("k", []float32{7}, 0)

	c := NewLayeredCache(time.Minute, dir, time.Hour)
	got, ok := c.Get("k")
	if !ok || got[0] != 7 {
		t.Fatalf("expected disk hit, got %v, %v", got, ok)
	}

	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("k"); !ok {
		t.Error("expected promoted entry in memory")
	}
}

func TestLayeredCache_MemoryOnly(t *testing.T) {
	c := NewLayeredCache(time.Minute, "", 0)
	if err := c.Set("k", []float32{1}, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok := c.Get("k"); !ok {
		t.Error("expected memory hit")
	}
	if err := c.Clear(); err != nil {
		t.Errorf("clear: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after clear")
	}
}
