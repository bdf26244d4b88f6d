package docx

import (
	"strings"

	"github.com/beevik/etree"
)

// Paragraph is a w:p element.
type Paragraph struct {
	el *etree.Element
}

// Runs returns the paragraph's runs in document order, including those inside
// hyperlinks, tracked insertions and smart tags. Deleted runs are skipped.
func (p *Paragraph) Runs() []*Run {
	var runs []*Run
	collectRuns(p.el, &runs)
	return runs
}

func collectRuns(el *etree.Element, runs *[]*Run) {
	for _, child := range el.ChildElements() {
		switch {
		case isW(child, "r"):
			*runs = append(*runs, &Run{el: child})
		case isW(child, "hyperlink"), isW(child, "ins"), isW(child, "smartTag"):
			collectRuns(child, runs)
		}
	}
}

// Text is the concatenation of the paragraph's run texts.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, run := range p.Runs() {
		b.WriteString(run.Text())
	}
	return b.String()
}

// Clear removes all paragraph content while keeping paragraph properties.
func (p *Paragraph) Clear() {
	for _, child := range p.el.ChildElements() {
		if isW(child, "pPr") {
			continue
		}
		p.el.RemoveChild(child)
	}
}

// AddRun appends a new unformatted run holding text.
func (p *Paragraph) AddRun(text string) *Run {
	el := p.el.CreateElement("w:r")
	appendText(el, text)
	return &Run{el: el}
}
