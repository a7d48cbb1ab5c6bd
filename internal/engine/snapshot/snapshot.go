// Package snapshot produces the cell-grid view of a viewport region: the
// plain grid (document cells only) and the composed grid with decorations
// interleaved as virtual cells and synthetic above-line rows (spec.md §4.6).
//
// Grounded on the teacher's internal/renderer/layout/line.go (CellsForRow)
// and internal/renderer/linecache's viewport-assembly style, generalized to
// emit host-routable cell sources (Document vs Virtual vs fold placeholder)
// instead of painting to a terminal screen.
package snapshot

import (
	"github.com/mattn/go-runewidth"

	"github.com/windoze/editor-core-go/internal/engine/decoration"
	"github.com/windoze/editor-core-go/internal/engine/fold"
	"github.com/windoze/editor-core-go/internal/engine/interval"
	"github.com/windoze/editor-core-go/internal/engine/layout"
	"github.com/windoze/editor-core-go/internal/engine/lineindex"
	"github.com/windoze/editor-core-go/internal/engine/piece"
)

// FoldPlaceholderRune is the glyph appended after a collapsed region's
// start line.
const FoldPlaceholderRune = '…'

// SourceKind tags what a cell represents, so hosts can route clicks.
type SourceKind uint8

const (
	// SourceDocument cells carry a real document character.
	SourceDocument SourceKind = iota
	// SourceVirtual cells carry decoration text anchored at Offset.
	SourceVirtual
	// SourceFoldPlaceholder is the marker cell appended to a collapsed
	// region's start line.
	SourceFoldPlaceholder
)

// CellSource records where a cell's content came from.
type CellSource struct {
	Kind   SourceKind
	Offset piece.Offset // char offset (Document) or anchor offset (Virtual)
}

// Cell is one column unit of the visual grid. Wide glyphs carry Width 2;
// tabs carry their full expansion width in a single cell.
type Cell struct {
	Ch     rune
	Width  int
	Styles []interval.StyleID
	Source CellSource
}

// Line is one visual row of the grid.
type Line struct {
	Cells                   []Cell
	LogicalLine             int
	VisualInLogical         int
	CharStart               piece.Offset
	CharEnd                 piece.Offset
	SegmentXStartCells      int
	FoldPlaceholderAppended bool
	VirtualAboveLine        bool
}

// Grid is the viewport product: a run of visual rows starting at StartRow.
type Grid struct {
	StartRow int
	Lines    []Line
}

// Generator assembles grids from the document's storage, layout, interval
// layers, folds, and decorations. All fields except Table and Index may be
// nil, in which case the corresponding layer contributes nothing.
type Generator struct {
	Table       *piece.Table
	Index       *lineindex.Index
	Layout      layout.Config
	Intervals   *interval.LayerSet
	Folds       *fold.Manager
	Decorations *decoration.Store
}

// Viewport returns the plain grid for visual rows [startRow, startRow+count).
func (g *Generator) Viewport(startRow, count int) *Grid {
	return g.slice(g.buildLines(false), startRow, count)
}

// ComposedViewport returns the composed grid, with decorations interleaved.
func (g *Generator) ComposedViewport(startRow, count int) *Grid {
	return g.slice(g.buildLines(true), startRow, count)
}

func (g *Generator) slice(lines []Line, startRow, count int) *Grid {
	if startRow < 0 {
		startRow = 0
	}
	if startRow > len(lines) {
		startRow = len(lines)
	}
	end := startRow + count
	if count < 0 || end > len(lines) {
		end = len(lines)
	}
	return &Grid{StartRow: startRow, Lines: lines[startRow:end]}
}

func (g *Generator) buildLines(composed bool) []Line {
	lineCount := g.Index.LineCount()

	visible := make([]bool, lineCount)
	placeholder := make([]bool, lineCount)
	for i := range visible {
		visible[i] = true
	}
	if g.Folds != nil {
		visible, placeholder = g.Folds.VisibleLines(g.Index, lineCount)
	}

	var out []Line
	for line := 0; line < lineCount; line++ {
		if !visible[line] {
			continue
		}
		out = append(out, g.buildLogicalLine(line, placeholder[line], composed)...)
	}
	return out
}

// buildLogicalLine renders one logical line into its visual rows, including
// any synthetic above-line decoration rows when composed.
func (g *Generator) buildLogicalLine(line int, foldPlaceholder, composed bool) []Line {
	meta := g.Index.Line(line)
	text := g.Index.GetLineText(line, g.Table)
	segs := layout.Layout(text, meta.StartChar, g.Layout)
	widths := cellWidths(text, g.Layout.TabWidth)
	runes := []rune(text)
	lineEnd := meta.StartChar + meta.CharLen

	var decs []decoration.Decoration
	if composed && g.Decorations != nil {
		decs = g.Decorations.DecorationsInRange(meta.StartChar, lineEnd+1)
	}

	var out []Line
	for _, d := range decs {
		if d.Placement != decoration.PlacementAboveLine {
			continue
		}
		out = append(out, Line{
			Cells:            virtualCells(d),
			LogicalLine:      line,
			CharStart:        meta.StartChar,
			CharEnd:          meta.StartChar,
			VirtualAboveLine: true,
		})
	}

	stylesAt := g.styleLookup(meta.StartChar, lineEnd)

	for si, seg := range segs {
		row := Line{
			LogicalLine:        line,
			VisualInLogical:    si,
			CharStart:          seg.StartChar,
			CharEnd:            seg.EndChar,
			SegmentXStartCells: seg.WrapIndent,
		}
		segStart := int(seg.StartChar - meta.StartChar)
		segEnd := int(seg.EndChar - meta.StartChar)
		last := si == len(segs)-1

		for col := segStart; col <= segEnd; col++ {
			off := meta.StartChar + piece.Offset(col)
			// Inline virtual cells attach at the boundary before the doc
			// cell: After-placed decorations ending here first, then
			// Before-placed decorations anchored here.
			if col > segStart || si == 0 {
				for _, d := range decs {
					if d.Placement == decoration.PlacementAfter && decEnd(d) == off {
						row.Cells = append(row.Cells, virtualCells(d)...)
					}
				}
				for _, d := range decs {
					if d.Placement == decoration.PlacementBefore && d.Anchor == off {
						row.Cells = append(row.Cells, virtualCells(d)...)
					}
				}
			}
			if col == segEnd {
				break
			}
			row.Cells = append(row.Cells, Cell{
				Ch:     runes[col],
				Width:  widths[col],
				Styles: stylesAt(off),
				Source: CellSource{Kind: SourceDocument, Offset: off},
			})
		}

		if last && foldPlaceholder {
			row.Cells = append(row.Cells, Cell{
				Ch:     FoldPlaceholderRune,
				Width:  1,
				Source: CellSource{Kind: SourceFoldPlaceholder, Offset: lineEnd},
			})
			row.FoldPlaceholderAppended = true
		}
		out = append(out, row)
	}
	return out
}

// styleLookup queries every layer once for the line's range and returns a
// per-offset lookup, layers in ascending id (precedence) order.
func (g *Generator) styleLookup(start, end piece.Offset) func(piece.Offset) []interval.StyleID {
	if g.Intervals == nil {
		return func(piece.Offset) []interval.StyleID { return nil }
	}
	layered := g.Intervals.QueryRange(start, end+1)
	return func(off piece.Offset) []interval.StyleID {
		var styles []interval.StyleID
		for _, li := range layered {
			for _, iv := range li.Intervals {
				if off >= iv.Start && off < iv.End {
					styles = append(styles, iv.Style)
				}
			}
		}
		return styles
	}
}

func decEnd(d decoration.Decoration) piece.Offset {
	if d.AnchorEnd > d.Anchor {
		return d.AnchorEnd
	}
	return d.Anchor
}

func virtualCells(d decoration.Decoration) []Cell {
	styles := make([]interval.StyleID, len(d.StyleIDs))
	for i, s := range d.StyleIDs {
		styles[i] = interval.StyleID(s)
	}
	var cells []Cell
	for _, r := range d.Text {
		w := runewidth.RuneWidth(r)
		if w < 0 {
			w = 0
		}
		cells = append(cells, Cell{
			Ch:     r,
			Width:  w,
			Styles: styles,
			Source: CellSource{Kind: SourceVirtual, Offset: d.Anchor},
		})
	}
	return cells
}

// cellWidths computes each rune's visual width along a logical line, with
// tabs expanded to the next tab stop relative to the running x. This must
// agree with layout's own width accounting or segments and cells drift.
func cellWidths(line string, tabWidth int) []int {
	if tabWidth < 1 {
		tabWidth = 1
	}
	runes := []rune(line)
	widths := make([]int, len(runes))
	x := 0
	for i, r := range runes {
		var w int
		if r == '\t' {
			w = tabWidth - (x % tabWidth)
		} else {
			w = runewidth.RuneWidth(r)
			if w < 0 {
				w = 0
			}
		}
		widths[i] = w
		x += w
	}
	return widths
}
