package layout

import (
	"sort"

	"github.com/bbiangul/goreason-layout/layout/elements"
	"github.com/bbiangul/goreason-layout/layout/geom"
)

// StateKey names one of the typed slots in a StateBag that a Processor can
// require, optionally consume, or produce.
type StateKey string

const (
	KeyMetadata            StateKey = "metadata"
	KeyPerformance         StateKey = "performance"
	KeySlice               StateKey = "slice"
	KeyPageBounds          StateKey = "page_bounds"
	KeyTextElements        StateKey = "text_elements"
	KeyImageElements       StateKey = "image_elements"
	KeyDrawingElements     StateKey = "drawing_elements"
	KeyPageImages          StateKey = "page_images"
	KeyImages              StateKey = "images"
	KeyElements            StateKey = "elements"
	KeyTables              StateKey = "tables"
	KeyHeaders             StateKey = "headers"
	KeyFooters             StateKey = "footers"
	KeyLeftSidebar         StateKey = "left_sidebar"
	KeyRightSidebar        StateKey = "right_sidebar"
	KeyExtractedPageNumber StateKey = "extracted_page_number"
	KeyContent             StateKey = "content"
	KeyPageHierarchy       StateKey = "page_hierarchy"
)

// TOCEntry is one entry of the PDF's table of contents.
type TOCEntry struct {
	Title string
	Level int
	Page  int
}

// SizeHist maps integer-tenths font sizes to occurrence counts.
type SizeHist map[int]int

// FamilyStats accumulates the size histogram and per-font-name counts for
// one font family.
type FamilyStats struct {
	Sizes      SizeHist
	ByFontName map[string]SizeHist
}

// FontStatistics is the document-wide, per-family font size histogram
// that the heading stage fits its body-font prior against. The
// primitive-ingest stage is its sole writer; shards merge it additively.
type FontStatistics struct {
	Families map[string]*FamilyStats
}

// NewFontStatistics returns an empty FontStatistics.
func NewFontStatistics() *FontStatistics {
	return &FontStatistics{Families: map[string]*FamilyStats{}}
}

// Record accumulates one observed span into the histogram.
func (fs *FontStatistics) Record(font elements.Font) {
	fam, ok := fs.Families[font.Family]
	if !ok {
		fam = &FamilyStats{Sizes: SizeHist{}, ByFontName: map[string]SizeHist{}}
		fs.Families[font.Family] = fam
	}
	tenths := int(font.Size*10 + 0.5)
	fam.Sizes[tenths]++
	byName, ok := fam.ByFontName[font.Name]
	if !ok {
		byName = SizeHist{}
		fam.ByFontName[font.Name] = byName
	}
	byName[tenths]++
}

// Clone returns a deep copy. The driver hands each shard its own copy so
// concurrent shards never write into the master histogram.
func (fs *FontStatistics) Clone() *FontStatistics {
	out := NewFontStatistics()
	out.MergeAdditive(fs)
	return out
}

// MergeAdditive folds other's counts into fs, used when merging shard
// results back into the master bag.
func (fs *FontStatistics) MergeAdditive(other *FontStatistics) {
	if other == nil {
		return
	}
	for family, fam := range other.Families {
		dst, ok := fs.Families[family]
		if !ok {
			dst = &FamilyStats{Sizes: SizeHist{}, ByFontName: map[string]SizeHist{}}
			fs.Families[family] = dst
		}
		for size, count := range fam.Sizes {
			dst.Sizes[size] += count
		}
		for name, hist := range fam.ByFontName {
			dstHist, ok := dst.ByFontName[name]
			if !ok {
				dstHist = SizeHist{}
				dst.ByFontName[name] = dstHist
			}
			for size, count := range hist {
				dstHist[size] += count
			}
		}
	}
}

// Metadata is the run-wide `metadata` state bag entry.
type Metadata struct {
	Title          string
	PDFMetadata    map[string]string
	TOC            []TOCEntry
	FontStatistics *FontStatistics
}

// HierarchyEntry is one flattened heading entry emitted by the hierarchy
// stage.
type HierarchyEntry struct {
	Page         int
	ElementIndex int
	Text         string
	Size         float64
	Level        string
}

// StateBag is the per-run, per-page-keyed state shared across all
// processors. Every per-page field is keyed by page
// number (1-based, matching the PDF reader collaborator).
type StateBag struct {
	Metadata    Metadata
	Performance map[string]int64 // stage name -> elapsed nanoseconds
	Slice       []int            // page numbers in the current shard

	PageBounds          map[int]geom.Bbox
	TextElements        map[int][]*elements.Line
	ImageElements       map[int]map[elements.ImageType][]*elements.Image
	DrawingElements     map[int]map[elements.DrawingType][]*elements.Drawing
	PageImages          map[int][]byte // page bitmap raster, raw RGBA bytes
	Images              map[int][][]byte // per-page blob store, indexed by store_index
	Elements            map[int][]elements.Element
	Tables              map[int][]*elements.Table
	Headers             map[int][]*elements.Line
	Footers             map[int][]*elements.Line
	LeftSidebar         map[int][]*elements.Line
	RightSidebar        map[int][]*elements.Line
	ExtractedPageNumber map[int]int
	Content             map[int]map[string]any
	PageHierarchy       map[int][]HierarchyEntry
}

// NewStateBag returns a StateBag with every per-page map initialised
// empty, ready for processors to populate.
func NewStateBag() *StateBag {
	return &StateBag{
		Metadata:            Metadata{PDFMetadata: map[string]string{}, FontStatistics: NewFontStatistics()},
		Performance:         map[string]int64{},
		PageBounds:          map[int]geom.Bbox{},
		TextElements:        map[int][]*elements.Line{},
		ImageElements:       map[int]map[elements.ImageType][]*elements.Image{},
		DrawingElements:     map[int]map[elements.DrawingType][]*elements.Drawing{},
		PageImages:          map[int][]byte{},
		Images:              map[int][][]byte{},
		Elements:            map[int][]elements.Element{},
		Tables:              map[int][]*elements.Table{},
		Headers:             map[int][]*elements.Line{},
		Footers:             map[int][]*elements.Line{},
		LeftSidebar:         map[int][]*elements.Line{},
		RightSidebar:        map[int][]*elements.Line{},
		ExtractedPageNumber: map[int]int{},
		Content:             map[int]map[string]any{},
		PageHierarchy:       map[int][]HierarchyEntry{},
	}
}

// SortedPages returns the state bag's slice of page numbers (or, if
// empty, every page key found in PageBounds) in ascending order.
func (b *StateBag) SortedPages() []int {
	var pages []int
	if len(b.Slice) > 0 {
		pages = append(pages, b.Slice...)
	} else {
		for p := range b.PageBounds {
			pages = append(pages, p)
		}
	}
	sort.Ints(pages)
	return pages
}

// Slicer restricts a StateBag to a subset of pages and the given set of
// keys, used by the driver to build the per-shard sub-bag.
func (b *StateBag) Slicer(pages []int, keys []StateKey) *StateBag {
	sub := NewStateBag()
	sub.Slice = append([]int(nil), pages...)
	// Each shard gets its own metadata copy: the TOC slice is read-only
	// and safe to share, but the dict and histogram are written by the
	// ingest shards and must not alias the master's.
	sub.Metadata = Metadata{
		Title:          b.Metadata.Title,
		PDFMetadata:    map[string]string{},
		TOC:            b.Metadata.TOC,
		FontStatistics: b.Metadata.FontStatistics.Clone(),
	}
	for k, v := range b.Metadata.PDFMetadata {
		sub.Metadata.PDFMetadata[k] = v
	}
	pageSet := map[int]bool{}
	for _, p := range pages {
		pageSet[p] = true
	}
	for _, k := range keys {
		switch k {
		case KeyPageBounds:
			for p, v := range b.PageBounds {
				if pageSet[p] {
					sub.PageBounds[p] = v
				}
			}
		case KeyTextElements:
			for p, v := range b.TextElements {
				if pageSet[p] {
					sub.TextElements[p] = v
				}
			}
		case KeyImageElements:
			for p, v := range b.ImageElements {
				if pageSet[p] {
					sub.ImageElements[p] = v
				}
			}
		case KeyDrawingElements:
			for p, v := range b.DrawingElements {
				if pageSet[p] {
					sub.DrawingElements[p] = v
				}
			}
		case KeyPageImages:
			for p, v := range b.PageImages {
				if pageSet[p] {
					sub.PageImages[p] = v
				}
			}
		case KeyImages:
			for p, v := range b.Images {
				if pageSet[p] {
					sub.Images[p] = v
				}
			}
		case KeyElements:
			for p, v := range b.Elements {
				if pageSet[p] {
					sub.Elements[p] = v
				}
			}
		case KeyTables:
			for p, v := range b.Tables {
				if pageSet[p] {
					sub.Tables[p] = v
				}
			}
		case KeyHeaders:
			for p, v := range b.Headers {
				if pageSet[p] {
					sub.Headers[p] = v
				}
			}
		case KeyFooters:
			for p, v := range b.Footers {
				if pageSet[p] {
					sub.Footers[p] = v
				}
			}
		case KeyLeftSidebar:
			for p, v := range b.LeftSidebar {
				if pageSet[p] {
					sub.LeftSidebar[p] = v
				}
			}
		case KeyRightSidebar:
			for p, v := range b.RightSidebar {
				if pageSet[p] {
					sub.RightSidebar[p] = v
				}
			}
		case KeyExtractedPageNumber:
			for p, v := range b.ExtractedPageNumber {
				if pageSet[p] {
					sub.ExtractedPageNumber[p] = v
				}
			}
		case KeyContent:
			for p, v := range b.Content {
				if pageSet[p] {
					sub.Content[p] = v
				}
			}
		case KeyPageHierarchy:
			for p, v := range b.PageHierarchy {
				if pageSet[p] {
					sub.PageHierarchy[p] = v
				}
			}
		}
	}
	return sub
}

// MergeFrom merges a shard's produced keys back into b by union over page
// numbers; metadata.font_statistics merges additively, all other metadata
// fields are first-slice-wins.
func (b *StateBag) MergeFrom(shard *StateBag, produced []StateKey) {
	for _, k := range produced {
		switch k {
		case KeyPageBounds:
			mergeMap(b.PageBounds, shard.PageBounds)
		case KeyTextElements:
			mergeMap(b.TextElements, shard.TextElements)
		case KeyImageElements:
			mergeMap(b.ImageElements, shard.ImageElements)
		case KeyDrawingElements:
			mergeMap(b.DrawingElements, shard.DrawingElements)
		case KeyPageImages:
			mergeMap(b.PageImages, shard.PageImages)
		case KeyImages:
			mergeMap(b.Images, shard.Images)
		case KeyElements:
			mergeMap(b.Elements, shard.Elements)
		case KeyTables:
			mergeMap(b.Tables, shard.Tables)
		case KeyHeaders:
			mergeMap(b.Headers, shard.Headers)
		case KeyFooters:
			mergeMap(b.Footers, shard.Footers)
		case KeyLeftSidebar:
			mergeMap(b.LeftSidebar, shard.LeftSidebar)
		case KeyRightSidebar:
			mergeMap(b.RightSidebar, shard.RightSidebar)
		case KeyExtractedPageNumber:
			mergeMap(b.ExtractedPageNumber, shard.ExtractedPageNumber)
		case KeyContent:
			mergeMap(b.Content, shard.Content)
		case KeyPageHierarchy:
			mergeMap(b.PageHierarchy, shard.PageHierarchy)
		case KeyMetadata:
			if shard.Metadata.Title != "" && b.Metadata.Title == "" {
				b.Metadata.Title = shard.Metadata.Title
			}
			for k, v := range shard.Metadata.PDFMetadata {
				if _, exists := b.Metadata.PDFMetadata[k]; !exists {
					b.Metadata.PDFMetadata[k] = v
				}
			}
			if len(b.Metadata.TOC) == 0 {
				b.Metadata.TOC = shard.Metadata.TOC
			}
			// Additive merge assumes the producing stage found the master
			// histogram empty when its shards were sliced off; ingest, the
			// sole producer of this key, runs first and satisfies that.
			b.Metadata.FontStatistics.MergeAdditive(shard.Metadata.FontStatistics)
		}
	}
}

func mergeMap[K comparable, V any](dst, src map[K]V) {
	for k, v := range src {
		dst[k] = v
	}
}
