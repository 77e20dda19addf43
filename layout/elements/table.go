package elements

import (
	"github.com/google/uuid"

	"github.com/bbiangul/goreason-layout/layout/geom"
)

// TablePart tags a row/column box by its structural role within a table.
type TablePart int

const (
	PartTable TablePart = iota
	PartColumn
	PartRow
	PartColumnHeader
	PartRowHeader
	PartSpanningCell
)

func (p TablePart) String() string {
	switch p {
	case PartTable:
		return "table"
	case PartColumn:
		return "column"
	case PartRow:
		return "row"
	case PartColumnHeader:
		return "columnheader"
	case PartRowHeader:
		return "rowheader"
	case PartSpanningCell:
		return "spanningcell"
	default:
		return "unknown"
	}
}

// PartBox pairs a structural tag with the region it covers.
type PartBox struct {
	Part TablePart
	BBox geom.Bbox
}

// Merge records a spanning-cell merge across the row/column grid: the
// cell at (Row,Col) spans RowSpan rows and ColSpan columns.
type Merge struct {
	Row, Col         int
	RowSpan, ColSpan int
}

// Table is a detected grid of cells, each holding its bound child
// elements in reading order after binding.
type Table struct {
	BBox     geom.Bbox
	RowBoxes []PartBox
	ColBoxes []PartBox
	Merges   []Merge
	Cells    [][][]Element // [row][col] -> ordered children
	id       uuid.UUID
}

// NewTable builds a Table sized to the given row/column counts with empty
// cells.
func NewTable(bbox geom.Bbox, rowBoxes, colBoxes []PartBox) *Table {
	cells := make([][][]Element, len(rowBoxes))
	for r := range cells {
		cells[r] = make([][]Element, len(colBoxes))
	}
	return &Table{BBox: bbox, RowBoxes: rowBoxes, ColBoxes: colBoxes, Cells: cells, id: NewID()}
}

func (t *Table) Kind() Kind     { return KindTable }
func (t *Table) ID() uuid.UUID  { return t.id }
func (t *Table) Box() geom.Bbox { return t.BBox }

// NumRows and NumCols report the grid dimensions.
func (t *Table) NumRows() int { return len(t.RowBoxes) }
func (t *Table) NumCols() int { return len(t.ColBoxes) }

// RowHeaderIndex returns the index of the first row-header row, or -1.
func (t *Table) RowHeaderIndex() int {
	for i, rb := range t.RowBoxes {
		if rb.Part == PartRowHeader {
			return i
		}
	}
	return -1
}

// ColHeaderIndex returns the index of the first column-header column, or -1.
func (t *Table) ColHeaderIndex() int {
	for i, cb := range t.ColBoxes {
		if cb.Part == PartColumnHeader {
			return i
		}
	}
	return -1
}
