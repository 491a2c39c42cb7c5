package pipeline

import (
	"context"
	"log/slog"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docnav/internal/config"
)

var testLog = slog.New(slog.DiscardHandler)

const testSite = `
title: Becsy
locales:
  root:
    label: English
    sidebar:
      - text: Introduction
        pages: [guide/introduction, guide/getting-started, guide/empty]
      - text: Architecture
        collapsed: true
        pages: [guide/architecture/world]
  ru:
    label: Русский
    sidebar:
      - text: Вступление
        pages: [ru/guide/introduction]
`

func testDocs() fstest.MapFS {
	return fstest.MapFS{
		"guide/introduction.md":       {Data: []byte("# Introduction\n## Why Becsy? {#why}\n## Features\n")},
		"guide/getting-started.md":    {Data: []byte("# Getting Started\n## Install\n### npm\n")},
		"guide/empty.md":              {Data: []byte("No headings at all.\n")},
		"guide/architecture/world.md": {Data: []byte("# World\n")},
		"ru/guide/introduction.md":    {Data: []byte("# Введение {#intro}\n")},
	}
}

func mustSite(t *testing.T, yaml string) *config.Site {
	t.Helper()
	site, err := config.ParseSite([]byte(yaml))
	require.NoError(t, err)
	return site
}

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder(testDocs(), mustSite(t, testSite), 2, testLog)

	res, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Len(t, res.ContentHash, 64)
	assert.Equal(t, 5, res.Pages)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "guide/empty")

	root, ok := res.Sidebar("root")
	require.True(t, ok)
	require.Len(t, root.Groups, 2)

	intro := root.Groups[0]
	assert.Equal(t, "Introduction", intro.Text)
	require.Len(t, intro.Items, 2, "page without headings is left out")
	assert.Equal(t, "/guide/introduction#introduction", intro.Items[0].Link)
	require.Len(t, intro.Items[0].Children, 2)
	assert.Equal(t, "/guide/introduction#why", intro.Items[0].Children[0].Link)
	assert.Equal(t, "Getting Started", intro.Items[1].Text)
	assert.Equal(t, "/guide/getting-started#npm", intro.Items[1].Children[0].Children[0].Link)

	arch := root.Groups[1]
	require.NotNil(t, arch.Collapsed)
	assert.True(t, *arch.Collapsed)
	require.Len(t, arch.Items, 1)
	assert.True(t, arch.Items[0].IsLeaf())

	ru, ok := res.Sidebar("ru")
	require.True(t, ok)
	assert.Equal(t, "/ru/guide/introduction#intro", ru.Groups[0].Items[0].Link)
}

func TestBuilder_PreservesConfiguredOrder(t *testing.T) {
	docs := fstest.MapFS{}
	site := "locales:\n  root:\n    sidebar:\n      - text: All\n        pages: [p0, p1, p2, p3, p4, p5, p6, p7]\n"
	for _, name := range []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7"} {
		docs[name+".md"] = &fstest.MapFile{Data: []byte("# " + name + "\n")}
	}

	res, err := NewBuilder(docs, mustSite(t, site), 8, testLog).Build(context.Background())
	require.NoError(t, err)

	var got []string
	for _, item := range res.Sidebars["root"].Groups[0].Items {
		got = append(got, item.Text)
	}
	assert.Equal(t, []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7"}, got)
}

func TestBuilder_MissingPage(t *testing.T) {
	docs := testDocs()
	delete(docs, "guide/architecture/world.md")

	_, err := NewBuilder(docs, mustSite(t, testSite), 4, testLog).Build(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPageNotFound)
	assert.Contains(t, err.Error(), "guide/architecture/world")
}

func TestBuilder_HTMLSources(t *testing.T) {
	site := "source_ext: .html\nlocales:\n  root:\n    sidebar:\n      - text: Ref\n        pages: [ref/api]\n"
	docs := fstest.MapFS{
		"ref/api.html": {Data: []byte("<body><h1>API</h1><h2 id=\"world\">World</h2></body>")},
	}

	res, err := NewBuilder(docs, mustSite(t, site), 1, testLog).Build(context.Background())
	require.NoError(t, err)

	item := res.Sidebars["root"].Groups[0].Items[0]
	assert.Equal(t, "/ref/api#api", item.Link)
	assert.Equal(t, "/ref/api#world", item.Children[0].Link)
}

func TestBuilder_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBuilder(testDocs(), mustSite(t, testSite), 1, testLog).Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuilder_ContentHash(t *testing.T) {
	site := mustSite(t, testSite)
	first, err := NewBuilder(testDocs(), site, 2, testLog).Build(context.Background())
	require.NoError(t, err)
	second, err := NewBuilder(testDocs(), site, 3, testLog).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.ContentHash, second.ContentHash)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Sidebars, second.Sidebars)

	docs := testDocs()
	docs["guide/architecture/world.md"] = &fstest.MapFile{Data: []byte("# World\n## Entities\n")}
	third, err := NewBuilder(docs, site, 2, testLog).Build(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.ContentHash, third.ContentHash)
}

func TestResultStore(t *testing.T) {
	store := NewResultStore(50 * time.Millisecond)
	assert.Nil(t, store.Latest())

	old := &Result{ID: "old", CreatedAt: time.Now().Add(-time.Second)}
	store.Put(old)
	fresh := &Result{ID: "new", CreatedAt: time.Now()}
	store.Put(fresh)

	assert.Same(t, fresh, store.Latest())
	assert.Same(t, old, store.Get("old"))

	store.Cleanup()
	assert.Nil(t, store.Get("old"), "expired build is evicted")
	assert.Same(t, fresh, store.Get("new"))
	assert.Equal(t, 1, store.Len())
}

func TestResultStore_LatestNeverExpires(t *testing.T) {
	store := NewResultStore(time.Millisecond)
	only := &Result{ID: "only", CreatedAt: time.Now().Add(-time.Hour)}
	store.Put(only)

	store.Cleanup()
	assert.Same(t, only, store.Get("only"))
}

func TestResult_Summarize(t *testing.T) {
	res := &Result{ID: "b1", Pages: 3, Duration: 1500 * time.Millisecond}
	sum := res.Summarize()

	assert.Equal(t, "b1", sum.ID)
	assert.Equal(t, int64(1500), sum.DurationMS)
	assert.NotNil(t, sum.Warnings)
}

func TestContentHashHex(t *testing.T) {
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	assert.Equal(t, want, ContentHashHex([]byte("hello world")))
}
