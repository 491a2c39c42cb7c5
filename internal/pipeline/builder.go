package pipeline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/doctree"
	"github.com/dgallion1/docnav/internal/parser"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrPageNotFound is returned when a configured page has no source file.
var ErrPageNotFound = errors.New("page not found")

// Builder turns a site config and its docs tree into sidebars.
type Builder struct {
	docs    fs.FS
	site    *config.Site
	workers int
	log     *slog.Logger
}

func NewBuilder(docs fs.FS, site *config.Site, workers int, log *slog.Logger) *Builder {
	if workers <= 0 {
		workers = 1
	}
	return &Builder{docs: docs, site: site, workers: workers, log: log}
}

// pageRef locates one configured page inside the output.
type pageRef struct {
	locale string
	group  int
	slot   int
	page   string
}

// Build reads and parses every configured page. Any missing or unreadable
// page fails the whole build.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()

	var refs []pageRef
	items := make(map[string][][]*doctree.Node)
	for _, name := range b.site.LocaleNames() {
		groups := b.site.Locales[name].Sidebar
		items[name] = make([][]*doctree.Node, len(groups))
		for gi, group := range groups {
			items[name][gi] = make([]*doctree.Node, len(group.Pages))
			for pi, page := range group.Pages {
				refs = append(refs, pageRef{locale: name, group: gi, slot: pi, page: page})
			}
		}
	}

	sources := make([][]byte, len(refs))
	var warnMu sync.Mutex
	warnings := make(map[int]string)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, ref := range refs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, node, err := b.buildPage(ref.page)
			if err != nil {
				return err
			}
			sources[i] = src
			if node == nil {
				warnMu.Lock()
				warnings[i] = fmt.Sprintf("%s: no headings, page left out of %q sidebar", ref.page, ref.locale)
				warnMu.Unlock()
				return nil
			}
			items[ref.locale][ref.group][ref.slot] = node
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{
		ID:          uuid.NewString(),
		ContentHash: b.contentHash(refs, sources),
		CreatedAt:   time.Now(),
		Pages:       len(refs),
		Sidebars:    make(map[string]doctree.Sidebar, len(items)),
		Warnings:    []string{},
	}
	for i := range refs {
		if w, ok := warnings[i]; ok {
			res.Warnings = append(res.Warnings, w)
		}
	}

	for _, name := range b.site.LocaleNames() {
		sb := doctree.Sidebar{Locale: name, Groups: []doctree.Group{}}
		for gi, group := range b.site.Locales[name].Sidebar {
			grp := doctree.Group{Text: group.Text, Collapsed: group.Collapsed, Items: []*doctree.Node{}}
			for _, node := range items[name][gi] {
				if node != nil {
					grp.Items = append(grp.Items, node)
				}
			}
			sb.Groups = append(sb.Groups, grp)
		}
		res.Sidebars[name] = sb
	}
	res.Duration = time.Since(start)

	b.log.Info("site built",
		"build_id", res.ID,
		"pages", res.Pages,
		"warnings", len(res.Warnings),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// buildPage reads one page and parses its heading tree. The document id is
// the page path with a leading slash.
func (b *Builder) buildPage(page string) ([]byte, *doctree.Node, error) {
	name := page + b.site.SourceExt
	p, err := parser.ForFile(name)
	if err != nil {
		return nil, nil, fmt.Errorf("page %s: %w", page, err)
	}

	src, err := fs.ReadFile(b.docs, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %s (looked for %s)", ErrPageNotFound, page, name)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read page %s: %w", page, err)
	}

	node, err := p.Parse(bytes.NewReader(src), "/"+page)
	if err != nil {
		return nil, nil, fmt.Errorf("parse page %s: %w", page, err)
	}
	if node != nil {
		b.log.Debug("page built", "page", page, "nodes", node.Count())
	}
	return src, node, nil
}

// contentHash covers the sidebar layout and every page source, so equal
// hashes mean equal output.
func (b *Builder) contentHash(refs []pageRef, sources [][]byte) string {
	h := sha256.New()
	for _, name := range b.site.LocaleNames() {
		fmt.Fprintf(h, "locale\x00%s\x00", name)
		for _, group := range b.site.Locales[name].Sidebar {
			collapsed := group.Collapsed != nil && *group.Collapsed
			fmt.Fprintf(h, "group\x00%s\x00%t\x00", group.Text, collapsed)
		}
	}
	for i, ref := range refs {
		fmt.Fprintf(h, "page\x00%s\x00%d\x00%s\x00%d\x00", ref.locale, ref.group, ref.page, len(sources[i]))
		h.Write(sources[i])
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
