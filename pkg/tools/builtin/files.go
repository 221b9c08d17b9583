package builtin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"mercator-hq/toolproxy/pkg/tools"
)

var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".markdown": true, ".py": true, ".js": true,
	".html": true, ".css": true, ".json": true, ".xml": true, ".yaml": true,
	".yml": true, ".ini": true, ".cfg": true, ".conf": true, ".log": true,
	".csv": true, ".rtf": true, ".tex": true, ".sh": true, ".bat": true,
	".ps1": true, ".r": true, ".sql": true, ".go": true, ".toml": true,
}

// fileReader reads local documents as text.
type fileReader struct {
	maxBytes int64
}

// document is a file read into text form.
type document struct {
	ext      string
	encoding string
	text     string
	raw      []byte
	info     fs.FileInfo
	docx     *docxContent
}

func (f *fileReader) handleRead(_ context.Context, p tools.Params) (any, error) {
	path, err := p.RequiredString("file_path")
	if err != nil {
		return nil, err
	}
	doc, err := f.read(path)
	if err != nil {
		return nil, err
	}
	return doc.text, nil
}

func (f *fileReader) read(path string) (*document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file %s does not exist", path)
		}
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > f.maxBytes {
		return nil, fmt.Errorf("file %s is %d bytes, limit is %d", path, info.Size(), f.maxBytes)
	}

	ext := strings.ToLower(filepath.Ext(path))
	doc := &document{ext: ext, info: info}

	switch {
	case ext == ".docx":
		content, err := readDocx(path)
		if err != nil {
			return nil, fmt.Errorf("error reading docx: %w", err)
		}
		doc.docx = content
		doc.text = content.Text()
		doc.encoding = encUTF8
		return doc, nil

	case ext == ".pdf":
		text, err := readPDF(path)
		if err != nil {
			return nil, err
		}
		doc.text = text
		doc.encoding = "binary"
		return doc, nil

	case textExtensions[ext] || isTextMIME(ext):
	default:
		return nil, fmt.Errorf("unsupported file type %s", displayExt(ext))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	decoded, enc, err := decodeText(raw)
	if err != nil {
		return nil, err
	}
	doc.raw = raw
	doc.encoding = enc

	switch ext {
	case ".rtf":
		doc.text = rtfToText(decoded)
	case ".md", ".markdown":
		var html bytes.Buffer
		if err := goldmark.Convert([]byte(decoded), &html); err != nil {
			return nil, fmt.Errorf("render markdown: %w", err)
		}
		doc.text = html.String()
	default:
		doc.text = decoded
	}
	return doc, nil
}

func isTextMIME(ext string) bool {
	if ext == "" {
		return false
	}
	return strings.HasPrefix(mime.TypeByExtension(ext), "text/")
}

func displayExt(ext string) string {
	if ext == "" {
		return "(no extension)"
	}
	return ext
}

// FileAnalysis is the analyze_file result.
type FileAnalysis struct {
	FileType        string         `json:"file_type"`
	MimeType        string         `json:"mime_type"`
	Size            int64          `json:"size"`
	Encoding        string         `json:"encoding"`
	Content         string         `json:"content"`
	LastModified    time.Time      `json:"last_modified"`
	Summary         map[string]int `json:"summary"`
	FormattedOutput string         `json:"formatted_output"`
}

func (f *fileReader) handleAnalyze(_ context.Context, p tools.Params) (any, error) {
	path, err := p.RequiredString("file_path")
	if err != nil {
		return nil, err
	}
	doc, err := f.read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze file: %w", err)
	}

	a := &FileAnalysis{
		FileType:     doc.ext,
		MimeType:     mimeType(doc.ext),
		Size:         doc.info.Size(),
		Encoding:     doc.encoding,
		Content:      doc.text,
		LastModified: doc.info.ModTime().UTC(),
		Summary:      summarize(doc),
	}
	a.FormattedOutput = formatAnalysis(a)
	return a, nil
}

func mimeType(ext string) string {
	if ext == ".md" || ext == ".markdown" {
		return "text/markdown"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

func summarize(doc *document) map[string]int {
	s := map[string]int{
		"line_count": lineCount(doc.text),
		"char_count": utf8.RuneCountInString(doc.text),
	}

	switch doc.ext {
	case ".docx":
		s["paragraphs"] = len(doc.docx.Paragraphs)
		s["tables"] = len(doc.docx.Tables)
		s["sections"] = doc.docx.Sections
	case ".md", ".markdown":
		headers, links, blocks := markdownStats(doc.raw)
		s["headers"] = headers
		s["links"] = links
		s["code_blocks"] = blocks
	default:
		s["word_count"] = len(strings.Fields(doc.text))
	}
	return s
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

// markdownStats counts headings, links and code blocks in markdown source.
func markdownStats(src []byte) (headers, links, blocks int) {
	root := goldmark.DefaultParser().Parse(text.NewReader(src))
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindHeading:
			headers++
		case ast.KindLink, ast.KindAutoLink:
			links++
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			blocks++
		}
		return ast.WalkContinue, nil
	})
	return headers, links, blocks
}

func formatAnalysis(a *FileAnalysis) string {
	rule := strings.Repeat("-", 30)
	lines := []string{
		"File Analysis Report",
		rule,
		"Basic Information:",
		"  Type: " + displayExt(a.FileType),
		"  MIME: " + a.MimeType,
		"  Size: " + humanSize(a.Size),
		"  Last Modified: " + a.LastModified.Format("2006-01-02 15:04:05"),
		"  Encoding: " + a.Encoding,
		"",
		"Content Summary:",
	}

	var keys []string
	switch a.FileType {
	case ".docx":
		keys = []string{"paragraphs", "tables", "sections", "line_count", "char_count"}
	case ".md", ".markdown":
		keys = []string{"headers", "links", "code_blocks", "line_count", "char_count"}
	default:
		keys = []string{"line_count", "word_count", "char_count"}
	}
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("  %s: %d", summaryLabel(k), a.Summary[k]))
	}

	if a.Content != "" {
		lines = append(lines, "", "Content Preview:", rule, preview(a.Content, 200))
	}
	return strings.Join(lines, "\n")
}

func summaryLabel(key string) string {
	switch key {
	case "line_count":
		return "Lines"
	case "word_count":
		return "Words"
	case "char_count":
		return "Characters"
	case "code_blocks":
		return "Code Blocks"
	}
	return strings.ToUpper(key[:1]) + key[1:]
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}

func humanSize(n int64) string {
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024 {
			return fmt.Sprintf("%.2f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.2f TB", size)
}
