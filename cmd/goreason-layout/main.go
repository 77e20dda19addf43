// Command goreason-layout is the thin CLI surface over the layout
// pipeline: one input path, an optional output path, an optional page
// subset, and a
// handful of flags controlling ML tables, image extraction, threading
// and output verbosity. It owns JSON serialisation of the final element
// tree and process-level concurrency/cancellation, both explicitly
// out of scope for the core pipeline.
//
// The pipeline itself lives in
// github.com/bbiangul/goreason-layout/layout and its subpackages.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/bbiangul/goreason-layout/layout"
	"github.com/bbiangul/goreason-layout/layout/cache"
	"github.com/bbiangul/goreason-layout/layout/elements"
	"github.com/bbiangul/goreason-layout/layout/heading"
	"github.com/bbiangul/goreason-layout/layout/hierarchy"
	"github.com/bbiangul/goreason-layout/layout/ingest"
	"github.com/bbiangul/goreason-layout/layout/list"
	"github.com/bbiangul/goreason-layout/layout/margin"
	"github.com/bbiangul/goreason-layout/layout/pdfreader"
	"github.com/bbiangul/goreason-layout/layout/reading"
	"github.com/bbiangul/goreason-layout/layout/section"
	"github.com/bbiangul/goreason-layout/layout/table"
	"github.com/bbiangul/goreason-layout/layout/tablemodel"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:            "goreason-layout",
		Usage:           "extract reading-order-correct semantic structure from a PDF",
		ArgsUsage:       "INPUT",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write JSON to `FILE` instead of stdout"},
			&cli.StringFlag{Name: "pages", Usage: "page subset, e.g. \"1,3,5-7\" (default: all pages)"},
			&cli.BoolFlag{Name: "skip-ml-tables", Usage: "disable the ML table-detection processor even if a model is configured"},
			&cli.StringFlag{Name: "detect-model", Usage: "path to the table-detection ONNX model"},
			&cli.StringFlag{Name: "structure-model", Usage: "path to the table-structure ONNX model"},
			&cli.StringFlag{Name: "onnx-lib", Usage: "path to the onnxruntime shared library (optional)"},
			&cli.BoolFlag{Name: "extract-images", Usage: "embed page image blobs (base64) in the output; inflates output size"},
			&cli.BoolFlag{Name: "single-threaded", Usage: "force single-threaded execution, disabling page sharding"},
			&cli.BoolFlag{Name: "detailed", Usage: "include bboxes and font statistics in the output"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug-level logging"},
			&cli.IntFlag{Name: "workers", Usage: "cap concurrent shard goroutines (0 = one per shard)"},
			&cli.StringFlag{Name: "cache", Usage: "path to a SQLite font-profile cache database (optional)"},
		},
		Action: run,
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "goreason-layout: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("debug") {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	input := cmd.Args().First()
	if input == "" {
		return fmt.Errorf("%w: no input file given", layout.ErrInputNotFound)
	}
	if _, err := os.Stat(input); err != nil {
		return fmt.Errorf("%w: %s", layout.ErrInputNotFound, input)
	}

	reader, err := pdfreader.Open(input)
	if err != nil {
		return fmt.Errorf("opening %s: %w", input, err)
	}
	defer reader.Close()

	pages, err := resolvePages(cmd.String("pages"), reader.PageCount())
	if err != nil {
		return fmt.Errorf("parsing --pages: %w", err)
	}

	cfg := layout.DefaultConfig()
	cfg.ForceSingleThreaded = cmd.Bool("single-threaded")
	cfg.SkipMLTables = cmd.Bool("skip-ml-tables")
	cfg.ExtractImages = cmd.Bool("extract-images")
	cfg.Detailed = cmd.Bool("detailed")
	cfg.WorkerPoolSize = int(cmd.Int("workers"))

	marginProc := margin.New()
	marginProc.HeaderTopFrac = cfg.Thresholds.MarginHeaderTopFrac
	marginProc.FooterBottomFrac = cfg.Thresholds.MarginFooterBottomFrac
	processors := []layout.Processor{ingest.New(reader), marginProc}

	detector := buildDetector(cmd, cfg)
	if av, ok := detector.(tablemodel.Available); ok && av.Available() {
		ml := table.NewML(detector)
		ml.DetectThreshold = cfg.Thresholds.TableDetectionThreshold
		ml.StructureThreshold = cfg.Thresholds.TableStructureThreshold
		processors = append(processors, ml)
		defer detector.Close()
	}

	sectionProc := section.New()
	sectionProc.FullWidthFrac = cfg.Thresholds.SectionFullWidthFrac
	sectionProc.BlockGapInitial = cfg.Thresholds.BlockLineGapInitial
	processors = append(processors,
		sectionProc,
		table.NewRules(),
		reading.New(),
		heading.New(),
		list.New(),
		hierarchy.New(),
	)

	bag := layout.NewStateBag()
	driver := layout.NewDriver(cfg, processors...)
	if err := driver.Run(ctx, bag, pages); err != nil {
		return fmt.Errorf("running stage %s: %w", failingStage(err), err)
	}

	if path := cmd.String("cache"); path != "" {
		recordCacheProfile(ctx, path, input, bag)
	}

	doc := buildDocument(bag, pages, cfg)
	return writeOutput(cmd.String("output"), doc)
}

// buildDetector wires the optional ML table backend. A load failure
// degrades to NoopDetector (the processor list above then omits the ML
// stage entirely) rather than failing the run.
func buildDetector(cmd *cli.Command, cfg layout.Config) tablemodel.Detector {
	if cfg.SkipMLTables {
		return tablemodel.NoopDetector{}
	}
	detectPath := cmd.String("detect-model")
	structurePath := cmd.String("structure-model")
	if detectPath == "" || structurePath == "" {
		return tablemodel.NoopDetector{}
	}
	d, err := tablemodel.NewONNXDetector(cmd.String("onnx-lib"), detectPath, structurePath)
	if err != nil {
		slog.Warn("goreason-layout: table model unavailable, falling back to rules-only tables", "err", fmt.Errorf("%w: %v", layout.ErrModelUnavailable, err))
		return tablemodel.NoopDetector{}
	}
	return d
}

func failingStage(err error) string {
	// Driver wraps stage failures as "<ErrShardFailure>: stage <name>: ...".
	msg := err.Error()
	if i := strings.Index(msg, "stage "); i >= 0 {
		rest := msg[i+len("stage "):]
		if j := strings.Index(rest, ":"); j >= 0 {
			return rest[:j]
		}
	}
	return "unknown"
}

// resolvePages parses the comma/dash page-range syntax ("1,3,5-7").
// An empty spec means every page, 1-based.
func resolvePages(spec string, pageCount int) ([]int, error) {
	if strings.TrimSpace(spec) == "" {
		pages := make([]int, pageCount)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages, nil
	}

	seen := map[int]bool{}
	var pages []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if dash := strings.IndexByte(part, '-'); dash > 0 {
			lo, err := strconv.Atoi(strings.TrimSpace(part[:dash]))
			if err != nil {
				return nil, fmt.Errorf("invalid range %q: %w", part, err)
			}
			hi, err := strconv.Atoi(strings.TrimSpace(part[dash+1:]))
			if err != nil {
				return nil, fmt.Errorf("invalid range %q: %w", part, err)
			}
			for p := lo; p <= hi; p++ {
				if !seen[p] {
					seen[p] = true
					pages = append(pages, p)
				}
			}
			continue
		}
		p, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid page %q: %w", part, err)
		}
		if !seen[p] {
			seen[p] = true
			pages = append(pages, p)
		}
	}
	sort.Ints(pages)
	return pages, nil
}

// buildDocument serialises the final state bag into the output
// document. Serialisation is the CLI's job; the pipeline itself never
// touches JSON.
func buildDocument(bag *layout.StateBag, pages []int, cfg layout.Config) map[string]any {
	doc := map[string]any{
		"title":    bag.Metadata.Title,
		"metadata": bag.Metadata.PDFMetadata,
	}
	if cfg.Detailed {
		doc["font_statistics"] = fontStatisticsJSON(bag.Metadata.FontStatistics)
	}
	if len(bag.Metadata.TOC) > 0 {
		toc := make([]map[string]any, len(bag.Metadata.TOC))
		for i, t := range bag.Metadata.TOC {
			toc[i] = map[string]any{"title": t.Title, "level": t.Level, "page": t.Page}
		}
		doc["toc"] = toc
	}

	pagesOut := make([]map[string]any, 0, len(pages))
	for _, p := range pages {
		page := map[string]any{"page": p}

		els := bag.Elements[p]
		items := make([]map[string]any, len(els))
		for i, e := range els {
			items[i] = elements.ToJSON(e, cfg.Detailed)
		}
		page["elements"] = items

		if n, ok := bag.ExtractedPageNumber[p]; ok {
			page["extracted_page_number"] = n
		}

		if entries := bag.PageHierarchy[p]; len(entries) > 0 {
			hier := make([]map[string]any, len(entries))
			for i, h := range entries {
				hier[i] = map[string]any{
					"page": h.Page, "element_index": h.ElementIndex,
					"text": h.Text, "size": h.Size, "level": h.Level,
				}
			}
			page["hierarchy"] = hier
		}

		if cfg.ExtractImages {
			blobs := bag.Images[p]
			encoded := make([]string, len(blobs))
			for i, b := range blobs {
				encoded[i] = base64.StdEncoding.EncodeToString(b)
			}
			page["images"] = encoded
		}

		pagesOut = append(pagesOut, page)
	}
	doc["pages"] = pagesOut
	return doc
}

func fontStatisticsJSON(fs *layout.FontStatistics) map[string]any {
	out := map[string]any{}
	if fs == nil {
		return out
	}
	for family, stats := range fs.Families {
		sizes := map[string]int{}
		for tenths, count := range stats.Sizes {
			sizes[strconv.FormatFloat(float64(tenths)/10, 'f', 1, 64)] = count
		}
		out[family] = map[string]any{"sizes": sizes}
	}
	return out
}

func writeOutput(path string, doc map[string]any) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output file %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// recordCacheProfile is a best-effort convenience: failures to open or
// write the cache are logged, never fatal to the run.
func recordCacheProfile(ctx context.Context, path, input string, bag *layout.StateBag) {
	c, err := cache.Open(path)
	if err != nil {
		slog.Warn("goreason-layout: cache unavailable", "err", err)
		return
	}
	defer c.Close()

	hash, err := contentHash(input)
	if err != nil {
		slog.Warn("goreason-layout: hashing input for cache", "err", err)
		return
	}

	defaultSize := heading.FitBodyFontPrior(bag.Metadata.FontStatistics)
	if err := c.Put(ctx, hash, input, defaultSize, bag.Metadata.FontStatistics, bag.Performance); err != nil {
		slog.Warn("goreason-layout: writing cache profile", "err", err)
	}
}

func contentHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
