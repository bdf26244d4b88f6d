package docx

// Paragraphs returns the body's top-level paragraphs in document order.
func (d *Document) Paragraphs() []*Paragraph {
	return paragraphsOf(d.body)
}

// Tables returns the body's top-level tables in document order.
func (d *Document) Tables() []*Table {
	return tablesOf(d.body)
}
