package compose

import "proposalkit/internal/docx"

// ApplyFormatting copies the source typeface (into the east-Asian slot too),
// size, color, bold and italic onto target. Attributes the source does not set
// are left alone on target.
func ApplyFormatting(target, source *docx.Run) {
	if target == nil || source == nil {
		return
	}
	f := source.Font()
	if f.Name != "" {
		target.SetFontName(f.Name)
		target.SetEastAsiaFont(f.Name)
	}
	if f.HalfPoints > 0 {
		target.SetSize(f.HalfPoints)
	}
	if f.Color != "" {
		target.SetColor(f.Color)
	}
	if f.Bold != nil {
		target.SetBold(*f.Bold)
	}
	if f.Italic != nil {
		target.SetItalic(*f.Italic)
	}
}
