package compose

import "proposalkit/internal/docx"

// Report summarizes one composition pass.
type Report struct {
	Rewritten   int `json:"rewritten"`
	RemovedRows int `json:"removed_rows"`
}

// ReplaceAndFormat substitutes placeholders in every top-level paragraph and
// in every table cell, descending one level into tables nested in a cell.
// Every outer cell ends up vertically centered whether or not it changed.
//
// doc is mutated in place and returned for chaining; callers own it
// exclusively for the duration of the pass.
func ReplaceAndFormat(doc *docx.Document, placeholders Placeholders) *docx.Document {
	replaceAll(doc, NewReplacer(placeholders))
	return doc
}

// Compose runs ReplaceAndFormat and then prunes every top-level table with
// policy.
func Compose(doc *docx.Document, placeholders Placeholders, policy RowPolicy) Report {
	var rep Report
	rep.Rewritten = replaceAll(doc, NewReplacer(placeholders))
	for _, table := range doc.Tables() {
		rep.RemovedRows += RemoveEmptyRows(table, policy)
	}
	return rep
}

func replaceAll(doc *docx.Document, r *Replacer) int {
	n := replaceParagraphs(doc.Paragraphs(), r)
	for _, table := range doc.Tables() {
		for _, row := range table.Rows() {
			for _, cell := range row.Cells() {
				if nested := cell.Tables(); len(nested) > 0 {
					for _, inner := range nested {
						n += replaceTable(inner, r)
					}
				} else {
					n += replaceParagraphs(cell.Paragraphs(), r)
				}
				cell.SetVerticalAlign(docx.AlignCenter)
			}
		}
	}
	return n
}

// replaceTable handles a nested table. Tables nested deeper are not visited.
func replaceTable(table *docx.Table, r *Replacer) int {
	n := 0
	for _, row := range table.Rows() {
		for _, cell := range row.Cells() {
			n += replaceParagraphs(cell.Paragraphs(), r)
		}
	}
	return n
}

func replaceParagraphs(paras []*docx.Paragraph, r *Replacer) int {
	n := 0
	for _, p := range paras {
		if ReplaceInParagraph(p, r) {
			n++
		}
	}
	return n
}
