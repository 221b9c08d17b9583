package builtin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"mercator-hq/toolproxy/pkg/config"
	"mercator-hq/toolproxy/pkg/tools"
)

// ErrInvalidURL is returned for URLs without a scheme or host.
var ErrInvalidURL = errors.New("Invalid URL format")

// Link is an anchor found on a scraped page.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// ScrapeResult is the scrape_webpage result.
type ScrapeResult struct {
	Title     string  `json:"title"`
	Text      string  `json:"text"`
	Links     []Link  `json:"links"`
	Status    string  `json:"status"`
	URL       string  `json:"url"`
	Timestamp float64 `json:"timestamp"`
}

// TextResult is the extract_text result.
type TextResult struct {
	Status string `json:"status"`
	Text   string `json:"text"`
	Title  string `json:"title"`
}

type webScraper struct {
	client *http.Client
	opts   config.WebToolConfig
	now    func() time.Time
}

func (w *webScraper) handleScrape(ctx context.Context, p tools.Params) (any, error) {
	target, err := p.RequiredString("url")
	if err != nil {
		return nil, err
	}
	selector, err := p.OptionalString("selector", "")
	if err != nil {
		return nil, err
	}
	return w.scrape(ctx, target, selector)
}

func (w *webScraper) handleExtract(ctx context.Context, p tools.Params) (any, error) {
	target, err := p.RequiredString("url")
	if err != nil {
		return nil, err
	}
	res, err := w.scrape(ctx, target, "")
	if err != nil {
		return nil, err
	}
	return &TextResult{Status: res.Status, Text: res.Text, Title: res.Title}, nil
}

func (w *webScraper) scrape(ctx context.Context, target, selector string) (*ScrapeResult, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, ErrInvalidURL
	}

	doc, err := w.fetch(ctx, u.String())
	if err != nil {
		return nil, err
	}
	doc.Find("script, style").Remove()

	var text string
	if selector != "" {
		var parts []string
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			parts = append(parts, strings.TrimSpace(s.Text()))
		})
		text = strings.Join(parts, "\n")
	} else {
		text = strings.Join(textNodes(doc.Selection), "\n")
	}

	links := make([]Link, 0)
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(links) >= w.opts.MaxLinks {
			return false
		}
		href, _ := s.Attr("href")
		links = append(links, Link{Text: strings.TrimSpace(s.Text()), Href: href})
		return true
	})

	return &ScrapeResult{
		Title:     strings.TrimSpace(doc.Find("title").First().Text()),
		Text:      text,
		Links:     links,
		Status:    "success",
		URL:       target,
		Timestamp: float64(w.clock().UnixNano()) / 1e9,
	}, nil
}

func (w *webScraper) fetch(ctx context.Context, target string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	req.Header.Set("User-Agent", w.opts.UserAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("request failed: %s returned %s", target, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, w.opts.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("scraping failed: %w", err)
	}
	return doc, nil
}

func (w *webScraper) clock() time.Time {
	if w.now != nil {
		return w.now()
	}
	return time.Now()
}

// textNodes returns every non-blank text node under sel in document order,
// trimmed.
func textNodes(sel *goquery.Selection) []string {
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				out = append(out, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return out
}
