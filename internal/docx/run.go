package docx

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// rPrSequence is the CT_RPr child order required by the schema.
var rPrSequence = sequenceOf(
	"rStyle", "rFonts", "b", "bCs", "i", "iCs", "caps", "smallCaps", "strike",
	"dstrike", "outline", "shadow", "emboss", "imprint", "noProof", "snapToGrid",
	"vanish", "webHidden", "color", "spacing", "w", "kern", "position", "sz",
	"szCs", "highlight", "u", "effect", "bdr", "shd", "fitText", "vertAlign",
	"rtl", "cs", "em", "lang", "eastAsianLayout", "specVanish", "oMath",
)

// Font is the subset of run properties that survives a paragraph rewrite.
// Zero values mean "not set on the run".
type Font struct {
	Name       string
	EastAsia   string
	HalfPoints int
	Color      string
	Bold       *bool
	Italic     *bool
}

// Run is a w:r element.
type Run struct {
	el *etree.Element
}

// Text concatenates the run's text, rendering tabs as "\t" and breaks as "\n".
func (r *Run) Text() string {
	var b strings.Builder
	for _, child := range r.el.ChildElements() {
		switch {
		case isW(child, "t"):
			b.WriteString(child.Text())
		case isW(child, "tab"):
			b.WriteByte('\t')
		case isW(child, "br"), isW(child, "cr"):
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Font reads the run's direct formatting.
func (r *Run) Font() Font {
	var f Font
	rPr := firstChild(r.el, "rPr")
	if rPr == nil {
		return f
	}
	if fonts := firstChild(rPr, "rFonts"); fonts != nil {
		f.Name, _ = wAttr(fonts, "ascii")
		f.EastAsia, _ = wAttr(fonts, "eastAsia")
	}
	if sz := firstChild(rPr, "sz"); sz != nil {
		if val, ok := wAttr(sz, "val"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil && n > 0 {
				f.HalfPoints = n
			}
		}
	}
	if color := firstChild(rPr, "color"); color != nil {
		if val, ok := wAttr(color, "val"); ok && isHexColor(val) {
			f.Color = strings.ToUpper(val)
		}
	}
	if b := firstChild(rPr, "b"); b != nil {
		on := onOff(b)
		f.Bold = &on
	}
	if i := firstChild(rPr, "i"); i != nil {
		on := onOff(i)
		f.Italic = &on
	}
	return f
}

// SetFontName sets the ASCII and high-ANSI typeface slots.
func (r *Run) SetFontName(name string) {
	fonts := r.prop("rFonts")
	fonts.CreateAttr("w:ascii", name)
	fonts.CreateAttr("w:hAnsi", name)
}

// SetEastAsiaFont sets the east-Asian typeface slot.
func (r *Run) SetEastAsiaFont(name string) {
	r.prop("rFonts").CreateAttr("w:eastAsia", name)
}

// SetSize sets the font size in half-points.
func (r *Run) SetSize(halfPoints int) {
	r.prop("sz").CreateAttr("w:val", strconv.Itoa(halfPoints))
}

// SetColor sets an RRGGBB text color.
func (r *Run) SetColor(hex string) {
	r.prop("color").CreateAttr("w:val", strings.ToUpper(hex))
}

func (r *Run) SetBold(on bool) {
	setOnOff(r.prop("b"), on)
}

func (r *Run) SetItalic(on bool) {
	setOnOff(r.prop("i"), on)
}

func (r *Run) prop(local string) *etree.Element {
	return orderedChild(properties(r.el, "rPr"), local, rPrSequence)
}

func isHexColor(val string) bool {
	if len(val) != 6 {
		return false
	}
	_, err := strconv.ParseUint(val, 16, 32)
	return err == nil
}

// appendText fills an empty w:r with text, splitting tabs and line breaks into
// their own elements.
func appendText(run *etree.Element, text string) {
	var segment strings.Builder
	flush := func() {
		if segment.Len() == 0 {
			return
		}
		s := segment.String()
		t := run.CreateElement("w:t")
		if strings.TrimSpace(s) != s {
			t.CreateAttr("xml:space", "preserve")
		}
		t.SetText(s)
		segment.Reset()
	}
	for _, ch := range text {
		switch ch {
		case '\t':
			flush()
			run.CreateElement("w:tab")
		case '\n':
			flush()
			run.CreateElement("w:br")
		case '\r':
		default:
			segment.WriteRune(ch)
		}
	}
	flush()
}
