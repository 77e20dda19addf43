package layout

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.uber.org/multierr"
)

// Driver is the sole sequencing authority for the pipeline: it runs
// processors in declared order, sharding threadable ones across page
// slices.
//
// The source system shards across OS processes to isolate heavy model
// state and sidestep interpreter-level lock contention. Go's goroutines
// already avoid that contention, so shards here run as goroutines over a
// bounded worker pool rather than as subprocesses — the page-ordered,
// deterministic-merge contract is unchanged, only the isolation mechanism
// is lighter-weight.
type Driver struct {
	Processors []Processor
	Config     Config
}

// NewDriver builds a Driver over the given processors, run strictly in
// the order given.
func NewDriver(cfg Config, processors ...Processor) *Driver {
	return &Driver{Processors: processors, Config: cfg.applyDefaults()}
}

// SliceSize computes the driver's shard size for n pages: max(5, n/12).
func SliceSize(n int) int {
	if s := n / 12; s > 5 {
		return s
	}
	return 5
}

// Shards partitions pages (assumed sorted ascending) into contiguous
// slices of SliceSize(len(pages)) pages each.
func Shards(pages []int) [][]int {
	if len(pages) == 0 {
		return nil
	}
	size := SliceSize(len(pages))
	var out [][]int
	for i := 0; i < len(pages); i += size {
		end := i + size
		if end > len(pages) {
			end = len(pages)
		}
		out = append(out, pages[i:end])
	}
	return out
}

// Run executes every processor in order against bag, restricted to the
// given pages. Threadable processors are sharded per SliceSize; all
// others run once against the whole bag.
func (d *Driver) Run(ctx context.Context, bag *StateBag, pages []int) error {
	sorted := append([]int(nil), pages...)
	sort.Ints(sorted)
	bag.Slice = sorted

	for _, p := range d.Processors {
		start := time.Now()
		var err error
		if p.Threadable() && !d.Config.ForceSingleThreaded {
			err = d.runSharded(ctx, p, bag, sorted)
		} else {
			err = p.Process(ctx, bag)
		}
		bag.Performance[p.Name()] = time.Since(start).Nanoseconds()
		if err != nil {
			return fmt.Errorf("%w: stage %s: %v", ErrShardFailure, p.Name(), err)
		}
	}
	return nil
}

// runSharded dispatches one threadable processor across page shards using
// a bounded goroutine pool, merging results back deterministically by
// page number.
func (d *Driver) runSharded(ctx context.Context, p Processor, bag *StateBag, pages []int) error {
	shards := Shards(pages)
	required, optional := p.Requires()
	keys := append(append([]StateKey(nil), required...), optional...)
	keys = append(keys, KeyMetadata, KeySlice)
	produced := p.Produces()

	workers := d.Config.WorkerPoolSize
	if workers <= 0 {
		workers = len(shards)
	}
	sem := make(chan struct{}, max1(workers))

	results := make([]*StateBag, len(shards))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var combined error

	for i, shardPages := range shards {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, shardPages []int) {
			defer wg.Done()
			defer func() { <-sem }()
			sub := bag.Slicer(shardPages, keys)
			if err := p.Process(ctx, sub); err != nil {
				mu.Lock()
				combined = multierr.Append(combined, fmt.Errorf("shard %v: %w", shardPages, err))
				mu.Unlock()
				slog.Error("layout: shard failed", "processor", p.Name(), "pages", shardPages, "err", err)
				return
			}
			results[i] = sub
		}(i, shardPages)
	}
	wg.Wait()

	if combined != nil {
		return combined
	}
	for _, sub := range results {
		if sub != nil {
			bag.MergeFrom(sub, produced)
		}
	}
	return nil
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
