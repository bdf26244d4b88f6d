package docx

import (
	"strings"

	"github.com/beevik/etree"
)

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// isW reports whether el is the WordprocessingML element with the given local
// name. Detached elements lose namespace resolution, so the conventional "w"
// prefix is checked first.
func isW(el *etree.Element, local string) bool {
	if el == nil || el.Tag != local {
		return false
	}
	if el.Space == "w" {
		return true
	}
	return el.NamespaceURI() == wordNS
}

func firstChild(el *etree.Element, local string) *etree.Element {
	for _, child := range el.ChildElements() {
		if isW(child, local) {
			return child
		}
	}
	return nil
}

func childrenOf(el *etree.Element, local string) []*etree.Element {
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		if isW(child, local) {
			out = append(out, child)
		}
	}
	return out
}

// wAttr reads w:<name>, tolerating documents that spell the prefix differently.
func wAttr(el *etree.Element, name string) (string, bool) {
	for _, a := range el.Attr {
		if a.Key != name {
			continue
		}
		if a.Space == "w" || a.NamespaceURI() == wordNS {
			return a.Value, true
		}
	}
	return "", false
}

// properties returns the leading *Pr child of el (w:rPr, w:tcPr, ...),
// creating it as the first child when absent.
func properties(el *etree.Element, local string) *etree.Element {
	if pr := firstChild(el, local); pr != nil {
		return pr
	}
	pr := etree.NewElement("w:" + local)
	el.InsertChildAt(0, pr)
	return pr
}

// orderedChild returns the named child of a property element, inserting it at
// the position the schema sequence requires when it does not exist yet.
func orderedChild(props *etree.Element, local string, sequence map[string]int) *etree.Element {
	if existing := firstChild(props, local); existing != nil {
		return existing
	}
	rank, known := sequence[local]
	if !known {
		rank = len(sequence)
	}
	created := etree.NewElement("w:" + local)
	for i, tok := range props.Child {
		sibling, ok := tok.(*etree.Element)
		if !ok {
			continue
		}
		siblingRank, known := sequence[sibling.Tag]
		if !known {
			siblingRank = len(sequence)
		}
		if siblingRank > rank {
			props.InsertChildAt(i, created)
			return created
		}
	}
	props.AddChild(created)
	return created
}

// onOff decodes an ST_OnOff toggle element. A missing w:val means "on".
func onOff(el *etree.Element) bool {
	val, ok := wAttr(el, "val")
	if !ok {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "0", "false", "off", "none":
		return false
	default:
		return true
	}
}

func setOnOff(el *etree.Element, on bool) {
	if on {
		el.RemoveAttr("w:val")
		return
	}
	el.CreateAttr("w:val", "0")
}

func sequenceOf(names ...string) map[string]int {
	out := make(map[string]int, len(names))
	for i, name := range names {
		out[name] = i
	}
	return out
}
