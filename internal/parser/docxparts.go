package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// The parts of a .docx that go-docx does not surface: the style sheet, the
// core properties, paragraph-level outline levels and repeating header rows.

type stylesXML struct {
	Styles []styleDefXML `xml:"style"`
}

type styleDefXML struct {
	Type    string `xml:"type,attr"`
	StyleID string `xml:"styleId,attr"`
	Name    valXML `xml:"name"`
	BasedOn valXML `xml:"basedOn"`
	PPr     pPrXML `xml:"pPr"`
}

type pPrXML struct {
	OutlineLvl *valXML `xml:"outlineLvl"`
}

type valXML struct {
	Val string `xml:"val,attr"`
}

type corePropertiesXML struct {
	Title    string `xml:"title"`
	Created  string `xml:"created"`
	Modified string `xml:"modified"`
}

var builtinHeadingRe = regexp.MustCompile(`(?i)^(?:heading\s*|标题\s*)([1-9])$`)

// docxParts is what docxparts reads straight from the archive.
type docxParts struct {
	styles doctree.Styles
	core   corePropertiesXML
	// outline holds pPr/outlineLvl for each body-level paragraph in order.
	outline []*int
	// repeatHeader is true for each table, in pre-order, whose first row is
	// marked as a repeating header.
	repeatHeader []bool
}

func readDocxParts(data []byte) (*docxParts, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx archive: %w", err)
	}
	parts := &docxParts{styles: doctree.Styles{}}

	if raw, err := zipFile(zr, "word/styles.xml"); err == nil {
		parts.styles = parseStyles(raw)
	}
	if raw, err := zipFile(zr, "docProps/core.xml"); err == nil {
		// Core properties are informational; a malformed part is ignored.
		_ = xml.Unmarshal(raw, &parts.core)
	}
	raw, err := zipFile(zr, "word/document.xml")
	if err != nil {
		return nil, err
	}
	if err := scanBody(raw, parts); err != nil {
		return nil, fmt.Errorf("scan document.xml: %w", err)
	}
	return parts, nil
}

func zipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("file not found: %s", name)
}

// parseStyles indexes paragraph styles. Built-in heading names without an
// explicit outline level get one from the name.
func parseStyles(raw []byte) doctree.Styles {
	var sx stylesXML
	if err := xml.Unmarshal(raw, &sx); err != nil {
		return doctree.Styles{}
	}
	out := make(doctree.Styles, len(sx.Styles))
	for _, s := range sx.Styles {
		if s.StyleID == "" || (s.Type != "" && s.Type != "paragraph") {
			continue
		}
		st := doctree.Style{ID: s.StyleID, Name: s.Name.Val, BasedOn: s.BasedOn.Val}
		if s.PPr.OutlineLvl != nil {
			if n, err := strconv.Atoi(s.PPr.OutlineLvl.Val); err == nil {
				st.OutlineLevel = &n
			}
		}
		if st.OutlineLevel == nil {
			name := st.Name
			if name == "" {
				name = st.ID
			}
			if m := builtinHeadingRe.FindStringSubmatch(strings.TrimSpace(name)); m != nil {
				n := int(m[1][0]-'0') - 1
				st.OutlineLevel = &n
			}
		}
		out[st.ID] = st
	}
	return out
}

// scanBody walks document.xml once, recording outline levels of body-level
// paragraphs and the repeating-header flag of every table.
func scanBody(raw []byte, parts *docxParts) error {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	var path []string
	type openTable struct {
		idx  int
		rows int
	}
	var tables []openTable

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			name := el.Name.Local
			parent := ""
			if len(path) > 0 {
				parent = path[len(path)-1]
			}
			switch {
			case name == "p" && parent == "body":
				parts.outline = append(parts.outline, nil)
			case name == "outlineLvl" && parent == "pPr" && len(path) >= 3 &&
				path[len(path)-2] == "p" && path[len(path)-3] == "body":
				if n, err := strconv.Atoi(attr(el, "val")); err == nil {
					parts.outline[len(parts.outline)-1] = &n
				}
			case name == "tbl":
				// go-docx only surfaces tables in the body or in cells.
				t := openTable{idx: -1}
				if parent == "body" || parent == "tc" {
					t.idx = len(parts.repeatHeader)
					parts.repeatHeader = append(parts.repeatHeader, false)
				}
				tables = append(tables, t)
			case name == "tr" && parent == "tbl" && len(tables) > 0:
				tables[len(tables)-1].rows++
			case name == "tblHeader" && parent == "trPr" && len(tables) > 0:
				top := tables[len(tables)-1]
				if top.idx >= 0 && top.rows == 1 && onOff(attr(el, "val")) {
					parts.repeatHeader[top.idx] = true
				}
			}
			path = append(path, name)
		case xml.EndElement:
			if el.Name.Local == "tbl" && len(tables) > 0 {
				tables = tables[:len(tables)-1]
			}
			if len(path) > 0 {
				path = path[:len(path)-1]
			}
		}
	}
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// onOff reads a WordprocessingML boolean; an absent value means true.
func onOff(v string) bool {
	switch strings.ToLower(v) {
	case "0", "false", "off":
		return false
	}
	return true
}
