package compose

import "proposalkit/internal/docx"

// ReplaceInParagraph substitutes placeholders in p. When the text changes the
// paragraph collapses to one run formatted like the first original run that
// had text; otherwise p is left exactly as it was. It reports whether p was
// rewritten.
func ReplaceInParagraph(p *docx.Paragraph, r *Replacer) bool {
	original := p.Text()
	text := r.Replace(original)
	if text == original {
		return false
	}

	var donor *docx.Run
	for _, run := range p.Runs() {
		if run.Text() != "" {
			donor = run
			break
		}
	}

	p.Clear()
	ApplyFormatting(p.AddRun(text), donor)
	return true
}
