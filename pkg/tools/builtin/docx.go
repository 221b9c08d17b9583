package builtin

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// docxContent is the text structure of a Word document body.
type docxContent struct {
	Paragraphs []string
	Tables     [][][]string
	Sections   int
}

// Text renders the body paragraphs, then each table row with its cells
// joined by " | ".
func (d *docxContent) Text() string {
	var sb strings.Builder
	sb.WriteString(strings.Join(d.Paragraphs, "\n"))
	for _, table := range d.Tables {
		for _, row := range table {
			sb.WriteString("\n")
			sb.WriteString(strings.Join(row, " | "))
		}
	}
	return sb.String()
}

func readDocx(path string) (*docxContent, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return parseDocxXML(rc)
	}
	return nil, errors.New("word/document.xml not found")
}

// parseDocxXML walks WordprocessingML. Only local element names are
// matched; the w: namespace is implied.
func parseDocxXML(r io.Reader) (*docxContent, error) {
	dec := xml.NewDecoder(r)
	out := &docxContent{}

	var (
		tableDepth int
		table      [][]string
		row        []string
		cell       []string
		para       strings.Builder
		inPara     bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "tbl":
				tableDepth++
				if tableDepth == 1 {
					table = nil
				}
			case "tr":
				if tableDepth == 1 {
					row = nil
				}
			case "tc":
				if tableDepth == 1 {
					cell = nil
				}
			case "p":
				para.Reset()
				inPara = true
			case "t":
				var s string
				if err := dec.DecodeElement(&s, &el); err != nil {
					return nil, fmt.Errorf("parse text run: %w", err)
				}
				if inPara {
					para.WriteString(s)
				}
			case "tab":
				para.WriteString("\t")
			case "br", "cr":
				para.WriteString("\n")
			case "sectPr":
				out.Sections++
			}

		case xml.EndElement:
			switch el.Name.Local {
			case "p":
				inPara = false
				if tableDepth == 0 {
					out.Paragraphs = append(out.Paragraphs, para.String())
				} else {
					cell = append(cell, para.String())
				}
			case "tc":
				if tableDepth == 1 {
					row = append(row, strings.Join(cell, "\n"))
				}
			case "tr":
				if tableDepth == 1 {
					table = append(table, row)
				}
			case "tbl":
				if tableDepth == 1 {
					out.Tables = append(out.Tables, table)
				}
				tableDepth--
			}
		}
	}
	return out, nil
}
