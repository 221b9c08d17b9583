// Package builtin implements the tools shipped with toolproxy and binds
// them to the entries of a tool schema document.
package builtin

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"mercator-hq/toolproxy/pkg/config"
	"mercator-hq/toolproxy/pkg/tools"
)

// Tool names.
const (
	ReadFile      = "read_file"
	AnalyzeFile   = "analyze_file"
	ReadPDF       = "read_pdf"
	AnalyzeRepo   = "analyze_repo"
	ScrapeWebpage = "scrape_webpage"
	ExtractText   = "extract_text"
)

// Options configures the builtin handlers.
type Options struct {
	Files config.FilesToolConfig
	Web   config.WebToolConfig
	Repo  config.RepoToolConfig

	// HTTPClient is used by the web tools. Defaults to a client with
	// Web.Timeout.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// OptionsFromConfig maps tool configuration onto Options.
func OptionsFromConfig(cfg config.ToolsConfig, logger *slog.Logger) Options {
	return Options{
		Files:  cfg.Files,
		Web:    cfg.Web,
		Repo:   cfg.Repo,
		Logger: logger,
	}
}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Files.MaxFileBytes <= 0 {
		o.Files.MaxFileBytes = config.DefaultFilesMaxFileBytes
	}
	if o.Web.Timeout <= 0 {
		o.Web.Timeout = config.DefaultWebTimeout
	}
	if o.Web.UserAgent == "" {
		o.Web.UserAgent = config.DefaultWebUserAgent
	}
	if o.Web.MaxLinks <= 0 {
		o.Web.MaxLinks = config.DefaultWebMaxLinks
	}
	if o.Web.MaxBodyBytes <= 0 {
		o.Web.MaxBodyBytes = config.DefaultWebMaxBodyBytes
	}
	if o.Repo.MaxCommits <= 0 {
		o.Repo.MaxCommits = config.DefaultRepoMaxCommits
	}
	if o.Repo.MaxFiles <= 0 {
		o.Repo.MaxFiles = config.DefaultRepoMaxFiles
	}
	if o.Repo.MaxFileBytes <= 0 {
		o.Repo.MaxFileBytes = config.DefaultRepoMaxFileBytes
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Web.Timeout}
	}
}

// Handlers returns every builtin handler keyed by tool name.
func Handlers(opts Options) map[string]tools.Handler {
	opts.setDefaults()

	files := &fileReader{maxBytes: opts.Files.MaxFileBytes}
	repos := &repoAnalyzer{files: &fileReader{maxBytes: opts.Repo.MaxFileBytes}, opts: opts.Repo}
	web := &webScraper{client: opts.HTTPClient, opts: opts.Web}

	return map[string]tools.Handler{
		ReadFile:      files.handleRead,
		AnalyzeFile:   files.handleAnalyze,
		ReadPDF:       handleReadPDF,
		AnalyzeRepo:   repos.handle,
		ScrapeWebpage: web.handleScrape,
		ExtractText:   web.handleExtract,
	}
}

// NewRegistry registers a builtin handler for every tool in doc. A
// document entry without a builtin implementation is an error; builtins
// the document does not mention are left out and logged.
func NewRegistry(doc *tools.Document, opts Options) (*tools.Registry, error) {
	opts.setDefaults()
	handlers := Handlers(opts)

	b := tools.NewBuilder()
	declared := make(map[string]bool, len(doc.Tools))
	for _, schema := range doc.Tools {
		h, ok := handlers[schema.Name]
		if !ok {
			return nil, fmt.Errorf("tool %q has no builtin implementation", schema.Name)
		}
		b.Register(schema.Name, h, schema)
		declared[schema.Name] = true
	}

	var skipped []string
	for name := range handlers {
		if !declared[name] {
			skipped = append(skipped, name)
		}
	}
	if len(skipped) > 0 {
		sort.Strings(skipped)
		opts.Logger.Warn("builtin tools not declared in schema document", "tools", skipped)
	}

	return b.Build()
}
