package layout

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/bbiangul/goreason-layout/layout/geom"
)

func TestSliceSizeFormula(t *testing.T) {
	cases := []struct {
		pages int
		want  int
	}{
		{pages: 1, want: 5},
		{pages: 60, want: 5},
		{pages: 72, want: 6},
		{pages: 120, want: 10},
	}
	for _, c := range cases {
		if got := SliceSize(c.pages); got != c.want {
			t.Fatalf("SliceSize(%d) = %d, want %d", c.pages, got, c.want)
		}
	}
}

// recordingProcessor records, under a mutex, the page slice it was given
// on each Process call so a test can inspect how the driver dispatched it.
type recordingProcessor struct {
	name        string
	threadable  bool
	expensive   bool
	requires    []StateKey
	produces    []StateKey

	mu    sync.Mutex
	calls [][]int
}

func (p *recordingProcessor) Name() string { return p.name }
func (p *recordingProcessor) Requires() (required, optional []StateKey) {
	return p.requires, nil
}
func (p *recordingProcessor) Produces() []StateKey { return p.produces }
func (p *recordingProcessor) Threadable() bool     { return p.threadable }
func (p *recordingProcessor) Expensive() bool      { return p.expensive }

func (p *recordingProcessor) Process(ctx context.Context, bag *StateBag) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, append([]int(nil), bag.Slice...))
	return nil
}

func pageRange(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// TestDriverRunsNonThreadableProcessorOnce asserts that a processor
// declaring Threadable()==false (the shape of the ML table processor)
// is never sharded: the driver calls Process exactly once against the whole page
// set, regardless of how many shards that page count would otherwise
// produce.
func TestDriverRunsNonThreadableProcessorOnce(t *testing.T) {
	pages := pageRange(30) // would split into multiple shards if threadable
	proc := &recordingProcessor{name: "table-ml", threadable: false, expensive: true}
	d := NewDriver(Config{}, proc)
	bag := NewStateBag()
	for _, p := range pages {
		bag.PageBounds[p] = geom.New(0, 0, 600, 800, 600, 800)
	}

	if err := d.Run(context.Background(), bag, pages); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	proc.mu.Lock()
	defer proc.mu.Unlock()
	if len(proc.calls) != 1 {
		t.Fatalf("expected exactly one Process call for a non-threadable processor, got %d", len(proc.calls))
	}
	got := append([]int(nil), proc.calls[0]...)
	sort.Ints(got)
	if len(got) != len(pages) {
		t.Fatalf("expected the single call to see all %d pages, got %d", len(pages), len(got))
	}
	for i, p := range got {
		if p != pages[i] {
			t.Fatalf("expected page %d at index %d, got %d", pages[i], i, p)
		}
	}
}

// TestDriverShardsThreadableProcessor asserts the complementary case: a
// threadable processor is dispatched once per shard, each call seeing
// only its own slice of pages, matching Shards' partitioning.
func TestDriverShardsThreadableProcessor(t *testing.T) {
	pages := pageRange(30)
	wantShards := Shards(pages)
	proc := &recordingProcessor{name: "heading", threadable: true, expensive: false}
	d := NewDriver(Config{}, proc)
	bag := NewStateBag()
	for _, p := range pages {
		bag.PageBounds[p] = geom.New(0, 0, 600, 800, 600, 800)
	}

	if err := d.Run(context.Background(), bag, pages); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	proc.mu.Lock()
	defer proc.mu.Unlock()
	if len(proc.calls) != len(wantShards) {
		t.Fatalf("expected %d shard calls, got %d", len(wantShards), len(proc.calls))
	}
	seen := map[int]bool{}
	for _, call := range proc.calls {
		for _, p := range call {
			seen[p] = true
		}
	}
	if len(seen) != len(pages) {
		t.Fatalf("expected the union of shard calls to cover all %d pages, got %d", len(pages), len(seen))
	}
}

var _ Processor = (*recordingProcessor)(nil)
