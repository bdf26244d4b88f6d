package docx

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// tcPrSequence is the CT_TcPr child order required by the schema.
var tcPrSequence = sequenceOf(
	"cnfStyle", "tcW", "gridSpan", "hMerge", "vMerge", "tcBorders", "shd",
	"noWrap", "tcMar", "textDirection", "tcFitText", "vAlign", "hideMark",
	"headers", "cellIns", "cellDel", "cellMerge", "tcPrChange",
)

// VerticalAlign is a ST_VerticalJc value.
type VerticalAlign string

const (
	AlignTop    VerticalAlign = "top"
	AlignCenter VerticalAlign = "center"
	AlignBottom VerticalAlign = "bottom"
)

// Table is a w:tbl element.
type Table struct {
	el *etree.Element
}

// Rows returns the table's w:tr children.
func (t *Table) Rows() []*Row {
	els := childrenOf(t.el, "tr")
	rows := make([]*Row, 0, len(els))
	for _, el := range els {
		rows = append(rows, &Row{el: el})
	}
	return rows
}

// RemoveRow detaches row from the table. It reports false when the row does
// not belong to this table.
func (t *Table) RemoveRow(row *Row) bool {
	if row == nil || row.el.Parent() != t.el {
		return false
	}
	t.el.RemoveChild(row.el)
	return true
}

// Row is a w:tr element.
type Row struct {
	el *etree.Element
}

// Cells returns the row's w:tc children, one per element regardless of span.
func (r *Row) Cells() []*Cell {
	els := childrenOf(r.el, "tc")
	cells := make([]*Cell, 0, len(els))
	for _, el := range els {
		cells = append(cells, &Cell{el: el})
	}
	return cells
}

// GridCells returns the row's cells indexed by grid column. A cell spanning n
// columns (w:gridSpan) appears n times, and a w:vMerge continuation resolves to
// the cell it continues in the row above.
func (r *Row) GridCells() []*Cell {
	tbl := r.el.Parent()
	if tbl == nil {
		return gridRow(r.el, nil)
	}
	var above []*Cell
	for _, tr := range childrenOf(tbl, "tr") {
		cells := gridRow(tr, above)
		if tr == r.el {
			return cells
		}
		above = cells
	}
	return gridRow(r.el, nil)
}

func gridRow(tr *etree.Element, above []*Cell) []*Cell {
	var cells []*Cell
	for _, el := range childrenOf(tr, "tc") {
		own := &Cell{el: el}
		cell := own
		if col := len(cells); own.continuesMerge() && col < len(above) {
			cell = above[col]
		}
		for i := 0; i < own.GridSpan(); i++ {
			cells = append(cells, cell)
		}
	}
	return cells
}

// Cell is a w:tc element.
type Cell struct {
	el *etree.Element
}

// Paragraphs returns the cell's own paragraphs, not those of nested tables.
func (c *Cell) Paragraphs() []*Paragraph {
	return paragraphsOf(c.el)
}

// Tables returns tables nested directly inside the cell.
func (c *Cell) Tables() []*Table {
	return tablesOf(c.el)
}

// Text joins the cell's paragraph texts with newlines.
func (c *Cell) Text() string {
	paras := c.Paragraphs()
	texts := make([]string, 0, len(paras))
	for _, p := range paras {
		texts = append(texts, p.Text())
	}
	return strings.Join(texts, "\n")
}

// VerticalAlign returns the cell's w:vAlign value, or "" when unset.
func (c *Cell) VerticalAlign() VerticalAlign {
	vAlign := c.tcProp("vAlign")
	if vAlign == nil {
		return ""
	}
	val, _ := wAttr(vAlign, "val")
	return VerticalAlign(val)
}

// GridSpan returns the number of grid columns the cell covers, at least 1.
func (c *Cell) GridSpan() int {
	gridSpan := c.tcProp("gridSpan")
	if gridSpan == nil {
		return 1
	}
	val, _ := wAttr(gridSpan, "val")
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// continuesMerge reports whether the cell is a vertical merge continuation:
// w:vMerge present with no value or "continue".
func (c *Cell) continuesMerge() bool {
	vMerge := c.tcProp("vMerge")
	if vMerge == nil {
		return false
	}
	val, _ := wAttr(vMerge, "val")
	return val != "restart"
}

func (c *Cell) tcProp(local string) *etree.Element {
	tcPr := firstChild(c.el, "tcPr")
	if tcPr == nil {
		return nil
	}
	return firstChild(tcPr, local)
}

func (c *Cell) SetVerticalAlign(align VerticalAlign) {
	vAlign := orderedChild(properties(c.el, "tcPr"), "vAlign", tcPrSequence)
	vAlign.CreateAttr("w:val", string(align))
}

func paragraphsOf(el *etree.Element) []*Paragraph {
	els := childrenOf(el, "p")
	paras := make([]*Paragraph, 0, len(els))
	for _, p := range els {
		paras = append(paras, &Paragraph{el: p})
	}
	return paras
}

func tablesOf(el *etree.Element) []*Table {
	els := childrenOf(el, "tbl")
	tables := make([]*Table, 0, len(els))
	for _, t := range els {
		tables = append(tables, &Table{el: t})
	}
	return tables
}
