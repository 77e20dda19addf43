// Package ingest implements the primitive-ingest stage: the
// sole producer of page bounds, raw text/image/drawing elements, the
// per-page image blob store and document-wide font statistics. It is the
// only stage that touches the PDF reader collaborator.
package ingest

import (
	"context"

	"github.com/bbiangul/goreason-layout/layout"
	"github.com/bbiangul/goreason-layout/layout/elements"
	"github.com/bbiangul/goreason-layout/layout/pdfreader"
)

// Processor adapts a pdfreader.Reader into the layout.Processor contract.
type Processor struct {
	Reader pdfreader.Reader
}

// New builds the primitive-ingest processor over reader.
func New(reader pdfreader.Reader) *Processor {
	return &Processor{Reader: reader}
}

func (p *Processor) Name() string { return "ingest" }

func (p *Processor) Requires() (required, optional []layout.StateKey) {
	return nil, nil
}

func (p *Processor) Produces() []layout.StateKey {
	return []layout.StateKey{
		layout.KeyPageBounds, layout.KeyTextElements, layout.KeyImageElements,
		layout.KeyDrawingElements, layout.KeyPageImages, layout.KeyImages,
		layout.KeyMetadata,
	}
}

// Threadable is true: image decode and text extraction are the
// pipeline's I/O-bound stage, safe to shard across page slices.
func (p *Processor) Threadable() bool { return true }

func (p *Processor) Expensive() bool { return false }

func (p *Processor) Process(ctx context.Context, bag *layout.StateBag) error {
	if md, err := p.Reader.Metadata(ctx); err == nil {
		bag.Metadata.Title = md.Title
		for k, v := range md.Info {
			bag.Metadata.PDFMetadata[k] = v
		}
		for _, t := range md.TOC {
			bag.Metadata.TOC = append(bag.Metadata.TOC, layout.TOCEntry{Title: t.Title, Level: t.Level, Page: t.Page})
		}
	}

	for _, page := range bag.SortedPages() {
		bound, err := p.Reader.PageBound(ctx, page)
		if err != nil {
			continue
		}
		bag.PageBounds[page] = bound

		bitmap, w, h, _ := p.Reader.PageBitmap(ctx, page)
		bag.PageImages[page] = bitmap
		bg := pageBackgroundColour(bitmap, w, h)

		store := newImageStore()
		imgs, err := p.extractPageImages(ctx, page, bound, bg, store)
		if err != nil {
			imgs = map[elements.ImageType][]*elements.Image{}
		}
		bag.ImageElements[page] = imgs
		bag.Images[page] = store.blobs

		drawings, err := p.extractPageDrawings(ctx, page, bound, bg)
		if err != nil {
			drawings = map[elements.DrawingType][]*elements.Drawing{}
		}

		lines, err := p.extractPageText(ctx, page, bag.Metadata.FontStatistics)
		if err != nil {
			lines = nil
		}

		drawings[elements.DrawingBullet] = mergeBulletDrawings(lines, drawings[elements.DrawingBullet])
		bag.DrawingElements[page] = drawings
		bag.TextElements[page] = lines
	}
	return nil
}

var _ layout.Processor = (*Processor)(nil)
