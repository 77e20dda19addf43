package elements

import (
	"github.com/google/uuid"

	"github.com/bbiangul/goreason-layout/layout/geom"
)

// ImageType classifies an extracted image by its layout role.
type ImageType int

const (
	ImageInvisible ImageType = iota
	ImageBackground
	ImageSection
	ImageInline
	ImageDecorative
	ImagePrimary
	ImageGradient
	ImageLine
	ImageUnknown
)

func (t ImageType) String() string {
	switch t {
	case ImageInvisible:
		return "invisible"
	case ImageBackground:
		return "background"
	case ImageSection:
		return "section"
	case ImageInline:
		return "inline"
	case ImageDecorative:
		return "decorative"
	case ImagePrimary:
		return "primary"
	case ImageGradient:
		return "gradient"
	case ImageLine:
		return "line"
	default:
		return "unknown"
	}
}

// Image is a raster element placed on the page, with its properties and a
// reference into the per-page image blob store.
type Image struct {
	BBox         geom.Bbox
	OriginalBBox geom.Bbox
	StoreIndex   int
	Type         ImageType
	Properties   map[string]any
	id           uuid.UUID
}

// NewImage builds an Image with a freshly minted id.
func NewImage(bbox, original geom.Bbox, storeIndex int, typ ImageType) *Image {
	return &Image{
		BBox:         bbox,
		OriginalBBox: original,
		StoreIndex:   storeIndex,
		Type:         typ,
		Properties:   map[string]any{},
		id:           NewID(),
	}
}

func (i *Image) Kind() Kind     { return KindImage }
func (i *Image) ID() uuid.UUID  { return i.id }
func (i *Image) Box() geom.Bbox { return i.BBox }
