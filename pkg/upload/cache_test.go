package upload

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testCache(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, ErrNotCached) {
		t.Fatalf("Get(missing) = %v, want ErrNotCached", err)
	}

	rec := Record{FileID: "file-1", Filename: "a.pdf", Purpose: "assistants", Size: 3, UploadedAt: time.Unix(1700000000, 0).UTC()}
	if err := c.Put(ctx, "d1", rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := c.Get(ctx, "d1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FileID != rec.FileID || got.Filename != rec.Filename || got.Size != rec.Size || !got.UploadedAt.Equal(rec.UploadedAt) {
		t.Errorf("Get = %+v, want %+v", got, rec)
	}

	if err := c.Delete(ctx, "d1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "d1"); !errors.Is(err, ErrNotCached) {
		t.Errorf("Get after delete = %v", err)
	}
	if err := c.Delete(ctx, "never"); err != nil {
		t.Errorf("Delete(never) = %v", err)
	}
}

func TestMemoryCache(t *testing.T) {
	testCache(t, NewMemoryCache())
}

func TestBadgerCacheInMemory(t *testing.T) {
	c, err := OpenBadgerCache(BadgerCacheOptions{InMemory: true})
	if err != nil {
		t.Fatalf("OpenBadgerCache: %v", err)
	}
	defer c.Close()
	testCache(t, c)
}

func TestBadgerCachePersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	c, err := OpenBadgerCache(BadgerCacheOptions{Dir: dir})
	if err != nil {
		t.Fatalf("OpenBadgerCache: %v", err)
	}
	if err := c.Put(ctx, "d", Record{FileID: "file-9"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	c, err = OpenBadgerCache(BadgerCacheOptions{Dir: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c.Close()
	got, err := c.Get(ctx, "d")
	if err != nil || got.FileID != "file-9" {
		t.Errorf("Get = %+v, %v", got, err)
	}
}

func TestOpenBadgerCacheRequiresDir(t *testing.T) {
	if _, err := OpenBadgerCache(BadgerCacheOptions{}); err == nil {
		t.Fatal("expected error")
	}
}
