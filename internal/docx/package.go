// Package docx edits the main document part of WordprocessingML (.docx)
// packages in place.
//
// A Document is a single-owner mutable value: it is loaded once per request,
// edited through the Paragraph/Run/Table handles it hands out, serialized, and
// then dropped. Handles share the underlying tree, so nothing here is safe for
// concurrent use.
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/beevik/etree"
)

// MimeType is the content type of a serialized word-processing document.
const MimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const mainPartName = "word/document.xml"

var (
	// ErrMainPartMissing indicates the archive has no word/document.xml part.
	ErrMainPartMissing = errors.New("docx: main document part missing")
	// ErrNotWordprocessing indicates the main part is not a w:document with a w:body.
	ErrNotWordprocessing = errors.New("docx: main part is not a wordprocessing document")
)

type part struct {
	name     string
	method   uint16
	modified time.Time
	data     []byte
}

// Document is a parsed .docx package. Every part other than the main document
// is carried through untouched.
type Document struct {
	parts []part
	main  int
	tree  *etree.Document
	body  *etree.Element
}

// Open reads and parses the package at path. A missing file surfaces an error
// satisfying errors.Is(err, fs.ErrNotExist).
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Read(data)
}

// Read parses a .docx package from memory.
func Read(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("docx: open archive: %w", err)
	}

	doc := &Document{main: -1}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("docx: open part %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("docx: read part %s: %w", f.Name, err)
		}
		doc.parts = append(doc.parts, part{
			name:     f.Name,
			method:   f.Method,
			modified: f.Modified,
			data:     content,
		})
		if f.Name == mainPartName {
			doc.main = len(doc.parts) - 1
		}
	}
	if doc.main < 0 {
		return nil, ErrMainPartMissing
	}
	if err := doc.parseMain(doc.parts[doc.main].data); err != nil {
		return nil, err
	}
	return doc, nil
}

// Parse builds a Document from a bare word/document.xml payload. Writing such a
// document produces a minimal package around it.
func Parse(documentXML []byte) (*Document, error) {
	doc := &Document{main: -1}
	if err := doc.parseMain(documentXML); err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *Document) parseMain(data []byte) error {
	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(data); err != nil {
		return fmt.Errorf("docx: parse %s: %w", mainPartName, err)
	}
	root := tree.Root()
	if root == nil || !isW(root, "document") {
		return ErrNotWordprocessing
	}
	body := firstChild(root, "body")
	if body == nil {
		return ErrNotWordprocessing
	}
	d.tree = tree
	d.body = body
	return nil
}

// XML returns the current main document part.
func (d *Document) XML() (string, error) {
	return d.tree.WriteToString()
}

// Write serializes the package, replacing the main part with the edited tree.
func (d *Document) Write(w io.Writer) error {
	mainXML, err := d.tree.WriteToBytes()
	if err != nil {
		return fmt.Errorf("docx: serialize %s: %w", mainPartName, err)
	}

	parts := d.parts
	mainIdx := d.main
	if mainIdx < 0 {
		parts, mainIdx = skeletonParts()
	}

	zw := zip.NewWriter(w)
	for i, p := range parts {
		data := p.data
		if i == mainIdx {
			data = mainXML
		}
		method := p.method
		if method != zip.Store {
			method = zip.Deflate
		}
		header := &zip.FileHeader{Name: p.name, Method: method, Modified: p.modified}
		fw, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("docx: write part %s: %w", p.name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("docx: write part %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("docx: close archive: %w", err)
	}
	return nil
}

// Bytes serializes the package into memory.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the package to path.
func (d *Document) Save(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

func skeletonParts() ([]part, int) {
	now := time.Now()
	return []part{
		{name: "[Content_Types].xml", method: zip.Deflate, modified: now, data: []byte(contentTypesXML)},
		{name: "_rels/.rels", method: zip.Deflate, modified: now, data: []byte(packageRelsXML)},
		{name: mainPartName, method: zip.Deflate, modified: now},
	}, 2
}
