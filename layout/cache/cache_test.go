//go:build cgo

package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bbiangul/goreason-layout/layout"
	"github.com/bbiangul/goreason-layout/layout/elements"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "profiles.db"))
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func sampleStats() *layout.FontStatistics {
	fs := layout.NewFontStatistics()
	fs.Record(elements.Font{Family: "Body", Name: "Body-Regular", Size: 11})
	fs.Record(elements.Font{Family: "Body", Name: "Body-Regular", Size: 11})
	fs.Record(elements.Font{Family: "Body", Name: "Body-Bold", Size: 16})
	return fs
}

func TestPutAndGetExactHash(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	stats := sampleStats()

	if err := c.Put(ctx, "hash-1", "/docs/a.pdf", 11, stats, map[string]int64{"ingest": 100}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	size, ok, err := c.GetDefaultFontSize(ctx, "hash-1")
	if err != nil {
		t.Fatalf("GetDefaultFontSize: %v", err)
	}
	if !ok {
		t.Fatal("expected cached entry")
	}
	if size != 11 {
		t.Fatalf("expected default font size 11, got %v", size)
	}

	if _, ok, err := c.GetDefaultFontSize(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected miss for unknown hash, got ok=%v err=%v", ok, err)
	}
}

func TestNearestFindsClosestProfile(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := c.Put(ctx, "same-template", "/docs/a.pdf", 11, sampleStats(), nil); err != nil {
		t.Fatalf("Put a: %v", err)
	}

	other := layout.NewFontStatistics()
	other.Record(elements.Font{Family: "Serif", Name: "Serif-Regular", Size: 9})
	other.Record(elements.Font{Family: "Serif", Name: "Serif-Bold", Size: 24})
	if err := c.Put(ctx, "different-template", "/docs/b.pdf", 9, other, nil); err != nil {
		t.Fatalf("Put b: %v", err)
	}

	matches, err := c.Nearest(ctx, sampleStats(), 1)
	if err != nil {
		t.Fatalf("Nearest: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].ContentHash != "same-template" {
		t.Fatalf("expected nearest match to be the identical histogram, got %s", matches[0].ContentHash)
	}
}

func TestEmbedHistogramEmptyIsZeroVector(t *testing.T) {
	vec := embedHistogram(layout.NewFontStatistics())
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("expected zero vector for empty statistics, bucket %d = %v", i, v)
		}
	}
}
