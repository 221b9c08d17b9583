package builtin

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/toolproxy/pkg/config"
	"mercator-hq/toolproxy/pkg/tools"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func writeDocx(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	xml := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `<w:sectPr/></w:body></w:document>`
	if _, err := w.Write([]byte(xml)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func defaultHandlers() map[string]tools.Handler {
	return Handlers(Options{})
}

func TestReadFile(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
		want string
	}{
		{name: "plain text", file: "hello.txt", data: []byte("hi"), want: "hi"},
		{name: "utf-8 bom", file: "bom.txt", data: append([]byte{0xEF, 0xBB, 0xBF}, "hi"...), want: "hi"},
		{name: "utf-16le", file: "wide.txt", data: []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, want: "hi"},
		{name: "windows-1252", file: "legacy.txt", data: []byte{'c', 'a', 'f', 0xE9}, want: "café"},
		{name: "source code", file: "main.go", data: []byte("package main"), want: "package main"},
		{name: "markdown", file: "notes.md", data: []byte("# Title\n\nhello\n"), want: "<h1>Title</h1>\n<p>hello</p>\n"},
		{name: "rtf", file: "memo.rtf", data: []byte(`{\rtf1\ansi{\fonttbl\f0 Arial;}\f0 Hello\par World}`), want: "Hello\nWorld"},
	}

	read := defaultHandlers()[ReadFile]
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.data)
			got, err := read(context.Background(), tools.Params{"file_path": path})
			if err != nil {
				t.Fatalf("read_file: %v", err)
			}
			if got != tt.want {
				t.Errorf("read_file = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadFileErrors(t *testing.T) {
	read := defaultHandlers()[ReadFile]
	dir := t.TempDir()

	tests := []struct {
		name    string
		params  tools.Params
		wantErr string
	}{
		{name: "missing param", params: tools.Params{}, wantErr: `missing required parameter "file_path"`},
		{name: "missing file", params: tools.Params{"file_path": filepath.Join(dir, "nope.txt")}, wantErr: "does not exist"},
		{name: "unsupported", params: tools.Params{"file_path": writeFile(t, "blob.bin7", []byte{1, 2})}, wantErr: "unsupported file type .bin7"},
		{name: "directory", params: tools.Params{"file_path": dir}, wantErr: "is a directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := read(context.Background(), tt.params)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestReadFileSizeLimit(t *testing.T) {
	path := writeFile(t, "big.txt", []byte(strings.Repeat("x", 64)))
	h := Handlers(Options{Files: config.FilesToolConfig{MaxFileBytes: 16}})[ReadFile]

	_, err := h(context.Background(), tools.Params{"file_path": path})
	if err == nil || !strings.Contains(err.Error(), "limit is 16") {
		t.Fatalf("err = %v, want size limit error", err)
	}
}

func TestReadDocx(t *testing.T) {
	path := writeDocx(t,
		`<w:p><w:r><w:t>First</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t xml:space="preserve">Second </w:t></w:r><w:r><w:t>line</w:t></w:r></w:p>`+
			`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>a</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>b</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`)

	got, err := defaultHandlers()[ReadFile](context.Background(), tools.Params{"file_path": path})
	if err != nil {
		t.Fatalf("read_file: %v", err)
	}
	if want := "First\nSecond line\na | b"; got != want {
		t.Errorf("read_file = %q, want %q", got, want)
	}
}

func TestAnalyzeFile(t *testing.T) {
	analyze := defaultHandlers()[AnalyzeFile]

	t.Run("text", func(t *testing.T) {
		path := writeFile(t, "a.txt", []byte("hello world\nsecond line"))
		got, err := analyze(context.Background(), tools.Params{"file_path": path})
		if err != nil {
			t.Fatalf("analyze_file: %v", err)
		}
		a := got.(*FileAnalysis)
		if a.FileType != ".txt" || a.Encoding != encASCII || a.Size != 23 {
			t.Errorf("analysis = %+v", a)
		}
		want := map[string]int{"line_count": 2, "word_count": 4, "char_count": 23}
		for k, v := range want {
			if a.Summary[k] != v {
				t.Errorf("summary[%s] = %d, want %d", k, a.Summary[k], v)
			}
		}
		if !strings.HasPrefix(a.FormattedOutput, "File Analysis Report") ||
			!strings.Contains(a.FormattedOutput, "Words: 4") {
			t.Errorf("formatted output:\n%s", a.FormattedOutput)
		}
	})

	t.Run("markdown", func(t *testing.T) {
		src := "# A\n\n## B\n\nsee [x](http://a.example)\n\n```\ncode\n```\n"
		path := writeFile(t, "r.md", []byte(src))
		got, err := analyze(context.Background(), tools.Params{"file_path": path})
		if err != nil {
			t.Fatalf("analyze_file: %v", err)
		}
		a := got.(*FileAnalysis)
		if a.MimeType != "text/markdown" {
			t.Errorf("mime = %q", a.MimeType)
		}
		if a.Summary["headers"] != 2 || a.Summary["links"] != 1 || a.Summary["code_blocks"] != 1 {
			t.Errorf("summary = %v", a.Summary)
		}
	})

	t.Run("docx", func(t *testing.T) {
		path := writeDocx(t, `<w:p><w:r><w:t>only</w:t></w:r></w:p>`)
		got, err := analyze(context.Background(), tools.Params{"file_path": path})
		if err != nil {
			t.Fatalf("analyze_file: %v", err)
		}
		a := got.(*FileAnalysis)
		if a.Summary["paragraphs"] != 1 || a.Summary["tables"] != 0 || a.Summary["sections"] != 1 {
			t.Errorf("summary = %v", a.Summary)
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, err := analyze(context.Background(), tools.Params{"file_path": filepath.Join(t.TempDir(), "x.txt")})
		if err == nil || !strings.HasPrefix(err.Error(), "failed to analyze file") {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestRTFToText(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"hex escape", `{\rtf1 caf\'e9}`, "café"},
		{"unicode escape", `{\rtf1 \u8212?x}`, "\u2014x"},
		{"escaped braces", `{\rtf1 a\{b\}}`, "a{b}"},
		{"ignorable destination", `{\rtf1 {\*\generator Foo;}text}`, "text"},
		{"tab", `{\rtf1 a\tab b}`, "a\tb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rtfToText(tt.in); got != tt.want {
				t.Errorf("rtfToText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDetectEncoding(t *testing.T) {
	tests := []struct {
		in   []byte
		want string
	}{
		{[]byte("plain"), encASCII},
		{[]byte("h\xc3\xa9"), encUTF8},
		{[]byte{0xEF, 0xBB, 0xBF, 'a'}, encUTF8BOM},
		{[]byte{0xFE, 0xFF, 0, 'a'}, encUTF16BE},
		{[]byte{0x93, 'q', 0x94}, encCP1252},
	}
	for _, tt := range tests {
		if got := detectEncoding(tt.in); got != tt.want {
			t.Errorf("detectEncoding(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestReadPDFMissing(t *testing.T) {
	_, err := defaultHandlers()[ReadPDF](context.Background(), tools.Params{"pdf_path": filepath.Join(t.TempDir(), "a.pdf")})
	if err == nil || !strings.Contains(err.Error(), "error reading PDF") {
		t.Fatalf("err = %v", err)
	}
}

func TestReadPDFMalformed(t *testing.T) {
	path := writeFile(t, "broken.pdf", []byte("not a pdf at all"))
	_, err := defaultHandlers()[ReadPDF](context.Background(), tools.Params{"pdf_path": path})
	if err == nil {
		t.Fatal("expected error for malformed PDF")
	}
}

func TestHumanSize(t *testing.T) {
	tests := map[int64]string{
		0:       "0.00 B",
		1023:    "1023.00 B",
		1536:    "1.50 KB",
		1 << 20: "1.00 MB",
	}
	for in, want := range tests {
		if got := humanSize(in); got != want {
			t.Errorf("humanSize(%d) = %q, want %q", in, got, want)
		}
	}
}
