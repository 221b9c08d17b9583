package builtin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"mercator-hq/toolproxy/pkg/config"
	"mercator-hq/toolproxy/pkg/tools"
)

const testPage = `<html><head><title>Test Page</title><style>.x{color:red}</style></head>
<body>
  <h1>Hello</h1>
  <script>var leaked = 1;</script>
  <p class="lead">Para one</p>
  <p>Para two</p>
  <a href="/a">First</a>
  <a href="https://other.example/b"> Second </a>
  <a>no href</a>
</body></html>`

func newPageServer(t *testing.T) (*httptest.Server, *atomic.Value) {
	t.Helper()
	var ua atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua.Store(r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		default:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(testPage))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &ua
}

func webHandlers(srv *httptest.Server, web config.WebToolConfig) map[string]tools.Handler {
	return Handlers(Options{Web: web, HTTPClient: srv.Client()})
}

func TestScrapeWebpage(t *testing.T) {
	srv, ua := newPageServer(t)
	scrape := webHandlers(srv, config.WebToolConfig{})[ScrapeWebpage]

	got, err := scrape(context.Background(), tools.Params{"url": srv.URL + "/page"})
	if err != nil {
		t.Fatalf("scrape_webpage: %v", err)
	}
	res := got.(*ScrapeResult)

	if res.Status != "success" || res.Title != "Test Page" || res.URL != srv.URL+"/page" {
		t.Errorf("result = %+v", res)
	}
	if !strings.Contains(res.Text, "Hello\n") || !strings.Contains(res.Text, "Para two") {
		t.Errorf("text = %q", res.Text)
	}
	if strings.Contains(res.Text, "leaked") || strings.Contains(res.Text, "color:red") {
		t.Errorf("script or style leaked into text: %q", res.Text)
	}
	wantLinks := []Link{{Text: "First", Href: "/a"}, {Text: "Second", Href: "https://other.example/b"}}
	if len(res.Links) != len(wantLinks) {
		t.Fatalf("links = %v, want %v", res.Links, wantLinks)
	}
	for i := range wantLinks {
		if res.Links[i] != wantLinks[i] {
			t.Errorf("links[%d] = %v, want %v", i, res.Links[i], wantLinks[i])
		}
	}
	if res.Timestamp <= 0 {
		t.Error("timestamp not set")
	}
	if got := ua.Load(); got != config.DefaultWebUserAgent {
		t.Errorf("User-Agent = %v", got)
	}
}

func TestScrapeWebpageSelector(t *testing.T) {
	srv, _ := newPageServer(t)
	scrape := webHandlers(srv, config.WebToolConfig{})[ScrapeWebpage]

	got, err := scrape(context.Background(), tools.Params{"url": srv.URL, "selector": "p"})
	if err != nil {
		t.Fatalf("scrape_webpage: %v", err)
	}
	if text := got.(*ScrapeResult).Text; text != "Para one\nPara two" {
		t.Errorf("text = %q", text)
	}
}

func TestScrapeWebpageLinkLimit(t *testing.T) {
	srv, _ := newPageServer(t)
	scrape := webHandlers(srv, config.WebToolConfig{MaxLinks: 1})[ScrapeWebpage]

	got, err := scrape(context.Background(), tools.Params{"url": srv.URL})
	if err != nil {
		t.Fatalf("scrape_webpage: %v", err)
	}
	if links := got.(*ScrapeResult).Links; len(links) != 1 {
		t.Errorf("links = %v, want 1", links)
	}
}

func TestScrapeWebpageErrors(t *testing.T) {
	srv, _ := newPageServer(t)
	scrape := webHandlers(srv, config.WebToolConfig{})[ScrapeWebpage]

	tests := []struct {
		name    string
		url     string
		wantErr string
	}{
		{name: "no scheme", url: "not-a-url", wantErr: "Invalid URL format"},
		{name: "no host", url: "http://", wantErr: "Invalid URL format"},
		{name: "not found", url: srv.URL + "/missing", wantErr: "404"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scrape(context.Background(), tools.Params{"url": tt.url})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}

	_, err := scrape(context.Background(), tools.Params{"url": "ftp-only"})
	if !errors.Is(err, ErrInvalidURL) {
		t.Errorf("err = %v, want ErrInvalidURL", err)
	}
}

func TestExtractText(t *testing.T) {
	srv, _ := newPageServer(t)
	extract := webHandlers(srv, config.WebToolConfig{})[ExtractText]

	got, err := extract(context.Background(), tools.Params{"url": srv.URL})
	if err != nil {
		t.Fatalf("extract_text: %v", err)
	}
	res := got.(*TextResult)
	if res.Status != "success" || res.Title != "Test Page" || !strings.Contains(res.Text, "Para one") {
		t.Errorf("result = %+v", res)
	}
}
