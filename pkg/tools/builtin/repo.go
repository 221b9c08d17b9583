package builtin

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"mercator-hq/toolproxy/pkg/config"
	"mercator-hq/toolproxy/pkg/tools"
)

// RepoFile is a working tree file reported by analyze_repo.
type RepoFile struct {
	Path    string `json:"path"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RepoCommit is a commit reported by analyze_repo.
type RepoCommit struct {
	Hash    string    `json:"hash"`
	Author  string    `json:"author"`
	Message string    `json:"message"`
	Date    time.Time `json:"date"`
}

// RepoAnalysis is the analyze_repo result.
type RepoAnalysis struct {
	Files        []RepoFile   `json:"files"`
	Truncated    bool         `json:"truncated,omitempty"`
	Commits      []RepoCommit `json:"commits"`
	Branches     []string     `json:"branches"`
	Contributors []string     `json:"contributors"`
}

type repoAnalyzer struct {
	files *fileReader
	opts  config.RepoToolConfig
}

func (a *repoAnalyzer) handle(ctx context.Context, p tools.Params) (any, error) {
	path, err := p.RequiredString("repo_path")
	if err != nil {
		return nil, err
	}
	result, err := a.analyze(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze repo: %w", err)
	}
	return result, nil
}

func (a *repoAnalyzer) analyze(ctx context.Context, path string) (*RepoAnalysis, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return nil, err
	}

	out := &RepoAnalysis{
		Files:        []RepoFile{},
		Commits:      []RepoCommit{},
		Branches:     []string{},
		Contributors: []string{},
	}

	if err := a.collectFiles(ctx, path, out); err != nil {
		return nil, err
	}

	head, err := repo.Head()
	switch {
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		// Freshly initialized repository without commits.
	case err != nil:
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	default:
		if err := a.collectHistory(ctx, repo, head.Hash(), out); err != nil {
			return nil, err
		}
	}

	branches, err := repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	err = branches.ForEach(func(ref *plumbing.Reference) error {
		out.Branches = append(out.Branches, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	sort.Strings(out.Branches)

	return out, nil
}

// collectFiles walks the working tree, skipping dotfiles and dot
// directories such as .git.
func (a *repoAnalyzer) collectFiles(ctx context.Context, root string, out *RepoAnalysis) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if len(out.Files) >= a.opts.MaxFiles {
			out.Truncated = true
			return filepath.SkipAll
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		f := RepoFile{Path: filepath.ToSlash(rel)}
		if doc, err := a.files.read(path); err != nil {
			f.Error = err.Error()
		} else {
			f.Content = doc.text
		}
		out.Files = append(out.Files, f)
		return nil
	})
}

// collectHistory records the most recent commits and every distinct author
// reachable from head.
func (a *repoAnalyzer) collectHistory(ctx context.Context, repo *gogit.Repository, head plumbing.Hash, out *RepoAnalysis) error {
	iter, err := repo.Log(&gogit.LogOptions{From: head})
	if err != nil {
		return fmt.Errorf("read commit log: %w", err)
	}
	defer iter.Close()

	seen := make(map[string]bool)
	err = iter.ForEach(func(c *object.Commit) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if len(out.Commits) < a.opts.MaxCommits {
			out.Commits = append(out.Commits, RepoCommit{
				Hash:    c.Hash.String(),
				Author:  c.Author.Name,
				Message: strings.TrimSpace(c.Message),
				Date:    c.Committer.When,
			})
		}
		if !seen[c.Author.Name] {
			seen[c.Author.Name] = true
			out.Contributors = append(out.Contributors, c.Author.Name)
		}
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return fmt.Errorf("read commit log: %w", err)
	}
	sort.Strings(out.Contributors)
	return nil
}
