package layout

import "errors"

// Error kinds used by the layout core.
var (
	// ErrInputNotFound is returned when the input file is missing. The
	// driver surfaces it immediately; nothing is processed.
	ErrInputNotFound = errors.New("layout: input file not found")

	// ErrMalformedPrimitive is returned when a single image decode,
	// font-entry parse, or span-to-font conversion fails. Callers
	// recover locally: skip the offending primitive, log a warning, and
	// continue.
	ErrMalformedPrimitive = errors.New("layout: malformed primitive")

	// ErrModelUnavailable is returned when the ML table processor
	// cannot load weights or run inference. The processor is omitted
	// from the pipeline at construction time; the rules-based table
	// processor still runs.
	ErrModelUnavailable = errors.New("layout: table detection model unavailable")

	// ErrShardFailure is returned when a worker shard fails. It is
	// fatal for the run; partial results are not reported.
	ErrShardFailure = errors.New("layout: shard failed")
)
