package layout

// Config holds the pipeline tunables; zero-value fields mean "use the
// matching DefaultConfig value".
type Config struct {
	// ForceSingleThreaded disables shard dispatch entirely; every
	// processor (threadable or not) runs once against the whole bag.
	ForceSingleThreaded bool `json:"force_single_threaded" yaml:"force_single_threaded"`

	// WorkerPoolSize caps concurrent shard goroutines. Zero means one
	// goroutine per shard.
	WorkerPoolSize int `json:"worker_pool_size" yaml:"worker_pool_size"`

	// SkipMLTables disables the optional table-ML processor even when a
	// model backend is available.
	SkipMLTables bool `json:"skip_ml_tables" yaml:"skip_ml_tables"`

	// ExtractImages controls whether image blob bytes are retained in
	// the output document (inflates output size).
	ExtractImages bool `json:"extract_images" yaml:"extract_images"`

	// Detailed includes bboxes and font statistics in JSON output.
	Detailed bool `json:"detailed" yaml:"detailed"`

	// Thresholds are the pipeline's geometric cutoffs, broken out so
	// callers can tune without forking the processors.
	Thresholds Thresholds `json:"thresholds" yaml:"thresholds"`
}

// Thresholds collects the pipeline's magic numbers so they have a
// single, documented home instead of being scattered as literals.
type Thresholds struct {
	// MarginHeaderTopFrac and MarginFooterBottomFrac are the normalised
	// page-edge bands the margin processor classifies within.
	MarginHeaderTopFrac    float64 `json:"margin_header_top_frac" yaml:"margin_header_top_frac"`
	MarginFooterBottomFrac float64 `json:"margin_footer_bottom_frac" yaml:"margin_footer_bottom_frac"`

	// SectionFullWidthFrac is the width/page_width ratio above which a
	// divider counts as a section break.
	SectionFullWidthFrac float64 `json:"section_full_width_frac" yaml:"section_full_width_frac"`

	// BlockLineGapInitial seeds a new block's vertical-gap threshold
	// until its first two lines adapt it.
	BlockLineGapInitial float64 `json:"block_line_gap_initial" yaml:"block_line_gap_initial"`

	// TableDetectionThreshold and TableStructureThreshold gate the ML
	// table detector's two passes.
	TableDetectionThreshold float64 `json:"table_detection_threshold" yaml:"table_detection_threshold"`
	TableStructureThreshold float64 `json:"table_structure_threshold" yaml:"table_structure_threshold"`
}

// DefaultConfig returns a Config with every threshold filled in.
func DefaultConfig() Config {
	return Config{
		WorkerPoolSize: 0,
		Thresholds: Thresholds{
			MarginHeaderTopFrac:     0.05,
			MarginFooterBottomFrac:  0.9,
			SectionFullWidthFrac:    0.75,
			BlockLineGapInitial:     8,
			TableDetectionThreshold: 0.9,
			TableStructureThreshold: 0.75,
		},
	}
}

// applyDefaults fills zero-value fields with DefaultConfig's values.
func (c Config) applyDefaults() Config {
	d := DefaultConfig()
	if c.Thresholds.MarginHeaderTopFrac == 0 {
		c.Thresholds.MarginHeaderTopFrac = d.Thresholds.MarginHeaderTopFrac
	}
	if c.Thresholds.MarginFooterBottomFrac == 0 {
		c.Thresholds.MarginFooterBottomFrac = d.Thresholds.MarginFooterBottomFrac
	}
	if c.Thresholds.SectionFullWidthFrac == 0 {
		c.Thresholds.SectionFullWidthFrac = d.Thresholds.SectionFullWidthFrac
	}
	if c.Thresholds.BlockLineGapInitial == 0 {
		c.Thresholds.BlockLineGapInitial = d.Thresholds.BlockLineGapInitial
	}
	if c.Thresholds.TableDetectionThreshold == 0 {
		c.Thresholds.TableDetectionThreshold = d.Thresholds.TableDetectionThreshold
	}
	if c.Thresholds.TableStructureThreshold == 0 {
		c.Thresholds.TableStructureThreshold = d.Thresholds.TableStructureThreshold
	}
	return c
}
