package layout

import "context"

// Processor is one stage of the layout-analysis pipeline. Each
// processor declares which StateBag keys it needs, which it merely reads
// if present, and which it writes.
type Processor interface {
	// Name identifies the processor for logging and performance tracking.
	Name() string

	// Requires returns the state keys this processor must have present
	// (required) and may use if present (optional).
	Requires() (required, optional []StateKey)

	// Produces returns the state keys this processor writes.
	Produces() []StateKey

	// Threadable reports whether the driver may shard pages across
	// worker goroutines for this processor.
	Threadable() bool

	// Expensive reports whether the processor is costly to initialise.
	// The driver never constructs processors: it runs the instances it
	// was given, so each is built once by the caller and reused.
	Expensive() bool

	// Process runs the stage against bag, which is either the master
	// bag (non-threadable processors) or a per-shard sub-bag.
	Process(ctx context.Context, bag *StateBag) error
}
