// Package publish writes the chart page (index.html plus one PNG per
// category) into a directory and optionally commits and pushes it with git.
package publish

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"go.uber.org/zap"

	"babymeasure/internal/app"
	"babymeasure/internal/domain"
)

// GitConfig enables committing the published directory, which must be a git
// checkout. An empty Remote commits without pushing.
type GitConfig struct {
	Remote      string
	Branch      string
	Token       string
	AuthorName  string
	AuthorEmail string
}

// Config configures a Publisher.
type Config struct {
	Dir     string
	PageURL string
	Git     *GitConfig
}

// Publisher implements domain.Publisher.
type Publisher struct {
	cfg    Config
	charts domain.ChartRenderer
	logger *zap.Logger
	now    func() time.Time
}

var _ domain.Publisher = (*Publisher)(nil)

// New creates a Publisher rendering through charts.
func New(cfg Config, charts domain.ChartRenderer, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if g := cfg.Git; g != nil {
		if g.Branch == "" {
			g.Branch = "gh-pages"
		}
		if g.AuthorName == "" {
			g.AuthorName = "babymeasure"
		}
		if g.AuthorEmail == "" {
			g.AuthorEmail = "babymeasure@localhost"
		}
	}
	return &Publisher{cfg: cfg, charts: charts, logger: logger, now: time.Now}
}

var page = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Baby measures</title>
</head>
<body>
<h1>Baby measures</h1>
<p>Updated {{.Updated}}</p>
{{range .Charts}}<h2>{{.Title}}</h2>
<img src="{{.File}}" alt="{{.Title}}">
{{else}}<p>No entries yet.</p>
{{end}}</body>
</html>
`))

type pageChart struct {
	Title string
	File  string
}

// Publish renders every category and rewrites the page.
func (p *Publisher) Publish(ctx context.Context) error {
	if err := os.MkdirAll(p.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("create publish dir: %w", err)
	}

	var charts []pageChart
	for _, c := range domain.Categories {
		if err := ctx.Err(); err != nil {
			return err
		}
		file := c.Table() + ".png"
		png, err := p.charts.RenderChart(ctx, c, nil)
		if errors.Is(err, app.ErrNoData) {
			_ = os.Remove(filepath.Join(p.cfg.Dir, file))
			continue
		}
		if err != nil {
			return fmt.Errorf("render %s: %w", c, err)
		}
		if err := os.WriteFile(filepath.Join(p.cfg.Dir, file), png, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", file, err)
		}
		charts = append(charts, pageChart{Title: c.Title(), File: file})
	}

	f, err := os.Create(filepath.Join(p.cfg.Dir, "index.html"))
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	data := struct {
		Updated string
		Charts  []pageChart
	}{p.now().Format("Mon 2 Jan 2006 15:04"), charts}
	if err := page.Execute(f, data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write index: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	if p.cfg.Git != nil {
		if err := p.commit(ctx); err != nil {
			return err
		}
	}
	p.logger.Debug("chart page written", zap.String("dir", p.cfg.Dir), zap.String("url", p.cfg.PageURL), zap.Int("charts", len(charts)))
	return nil
}

func (p *Publisher) commit(ctx context.Context) error {
	g := p.cfg.Git
	repo, err := git.PlainOpen(p.cfg.Dir)
	if err != nil {
		return fmt.Errorf("open git checkout %s: %w", p.cfg.Dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("git add: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return fmt.Errorf("git status: %w", err)
	}
	if status.IsClean() {
		return nil
	}

	_, err = wt.Commit("Update charts", &git.CommitOptions{
		Author: &object.Signature{Name: g.AuthorName, Email: g.AuthorEmail, When: p.now()},
	})
	if err != nil {
		return fmt.Errorf("git commit: %w", err)
	}
	if g.Remote == "" {
		return nil
	}

	ref := gitconfig.RefSpec("HEAD:refs/heads/" + g.Branch)
	opts := &git.PushOptions{RemoteName: g.Remote, RefSpecs: []gitconfig.RefSpec{ref}}
	if g.Token != "" {
		opts.Auth = &githttp.BasicAuth{Username: "x-access-token", Password: g.Token}
	}
	if err := repo.PushContext(ctx, opts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("git push: %w", err)
	}
	return nil
}
