// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewdargan/semantic-rst/nodes"
	"github.com/matthewdargan/semantic-rst/parse"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func publisher(t *testing.T, overrides map[string]any) *Publisher {
	t.Helper()
	s, err := DefaultSettings().Merge(map[string]any{"embed_stylesheet": false})
	require.NoError(t, err)
	s, err = s.Merge(overrides)
	require.NoError(t, err)
	return &Publisher{Settings: s, Roles: parse.NewRoles()}
}

const missingLexer = "Intro.\n\n.. code:: nosuchlang\n\n   x\n"

func TestPublish(t *testing.T) {
	res, err := publisher(t, nil).Publish(context.Background(), "doc.rst", strings.NewReader("Hello\n=====\n\nText.\n"))
	require.NoError(t, err)
	assert.Equal(t, "Hello", res.Parts.Title)
	assert.Equal(t, "<p>Text.</p>\n", res.Parts.Body)
	assert.Empty(t, res.Parts.Stylesheet)
	assert.Equal(t, nodes.Document, res.Doc.Kind)
}

func TestPublishEncoding(t *testing.T) {
	// "café" in Latin-1.
	src := []byte("caf\xe9\n")
	res, err := publisher(t, map[string]any{"input_encoding": "latin1"}).
		Publish(context.Background(), "doc.rst", strings.NewReader(string(src)))
	require.NoError(t, err)
	assert.Equal(t, "<p>café</p>\n", res.Parts.Body)
}

func TestPublishExitStatus(t *testing.T) {
	res, err := publisher(t, map[string]any{"exit_status_level": 2}).
		Publish(context.Background(), "doc.rst", strings.NewReader(missingLexer))
	requireCode(t, err, goerrors.CategoryValidation, CodeExitStatus)
	var pe *ProblemsError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, nodes.LevelWarning, pe.Level)
	assert.Equal(t, "doc.rst", pe.Source)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.Problems)
	assert.Empty(t, res.Parts.Body)
}

func TestPublishBelowExitStatus(t *testing.T) {
	res, err := publisher(t, nil).Publish(context.Background(), "doc.rst", strings.NewReader(missingLexer))
	require.NoError(t, err)
	assert.Equal(t, nodes.LevelWarning, nodes.MaxLevel(res.Problems))
	assert.Contains(t, res.Parts.Body, "<p>Intro.</p>")
}

func TestPublishHalt(t *testing.T) {
	_, err := publisher(t, map[string]any{"halt_level": 2}).
		Publish(context.Background(), "doc.rst", strings.NewReader(missingLexer))
	requireCode(t, err, goerrors.CategoryValidation, CodeHalted)
	assert.ErrorIs(t, err, parse.ErrHalt)
}

func TestPublishCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := publisher(t, nil).Publish(ctx, "doc.rst", strings.NewReader("Text.\n"))
	requireCode(t, err, goerrors.CategoryInternal, CodeContextCanceled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublishInvalidSettings(t *testing.T) {
	p := publisher(t, nil)
	p.Settings.InitialHeaderLevel = 9
	_, err := p.Publish(context.Background(), "doc.rst", strings.NewReader("Text.\n"))
	requireCode(t, err, goerrors.CategoryValidation, CodeSettingsInvalid)
}

func TestPublishFileMissing(t *testing.T) {
	_, err := publisher(t, nil).PublishFile(context.Background(), filepath.Join(t.TempDir(), "nope.rst"))
	requireCode(t, err, goerrors.CategoryNotFound, CodeSourceRead)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

const article = `Article
=======

:date: 2024-05-01
:tags: go, rst , docs
:authors: Ann, Bob
:summary: A *short* summary.
:category: notes

Body text.
`

func TestRSTReader(t *testing.T) {
	rd := NewRSTReader(Config{Roles: parse.NewRoles(), DocutilsSettings: map[string]any{"embed_stylesheet": false}}, nil)
	c, err := rd.Read(context.Background(), writeFile(t, "article.rst", article))
	require.NoError(t, err)
	assert.Equal(t, "Article", c.Title)
	assert.Equal(t, "<p>Body text.</p>\n", c.Body)
	assert.Equal(t, "Article", c.Metadata["title"])
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), c.Metadata["date"])
	assert.Equal(t, []string{"go", "rst", "docs"}, c.Metadata["tags"])
	assert.Equal(t, []string{"Ann", "Bob"}, c.Metadata["authors"])
	assert.Equal(t, "<p class=\"first last\">A <em>short</em> summary.</p>\n", c.Metadata["summary"])
	assert.Equal(t, "notes", c.Metadata["category"])
	assert.NotEmpty(t, c.Parts.Docinfo)
}

func TestRSTReaderInvalidDate(t *testing.T) {
	rd := NewRSTReader(Config{Roles: parse.NewRoles()}, nil)
	c, err := rd.Read(context.Background(), writeFile(t, "a.rst", ":date: someday\n\nText.\n"))
	require.NoError(t, err)
	assert.Equal(t, "someday", c.Metadata["date"])
	_, ok := c.Metadata["title"]
	assert.False(t, ok)
}

func TestRSTReaderSettingsLayers(t *testing.T) {
	rd := NewRSTReader(Config{
		Roles:            parse.NewRoles(),
		DocutilsSettings: map[string]any{"table_style": "user"},
	}, map[string]any{"initial_header_level": 2, "table_style": "reader"})
	s, err := rd.Settings()
	require.NoError(t, err)
	assert.Equal(t, 2, s.InitialHeaderLevel)
	assert.Equal(t, "user", s.TableStyle)

	rd.Config.DocutilsSettings = map[string]any{"initial_header_level": 0}
	_, err = rd.Settings()
	requireCode(t, err, goerrors.CategoryValidation, CodeSettingsInvalid)
}

func TestMarkdownReader(t *testing.T) {
	src := `---
Title: Hello
tags: a, b
date: "2024-05-01"
draft: true
---
# Hi

Some ~~old~~ text.
`
	c, err := NewMarkdownReader(Config{}).Read(context.Background(), writeFile(t, "post.md", src))
	require.NoError(t, err)
	assert.Equal(t, "Hello", c.Title)
	assert.Equal(t, []string{"a", "b"}, c.Metadata["tags"])
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), c.Metadata["date"])
	assert.Equal(t, true, c.Metadata["draft"])
	assert.Contains(t, c.Body, `<h1 id="hi">Hi</h1>`)
	assert.Contains(t, c.Body, "<del>old</del>")
	assert.Equal(t, c.Body, c.Parts.Fragment)
}

func TestMarkdownReaderExtensions(t *testing.T) {
	rd := NewMarkdownReader(Config{MarkdownExtensions: []string{"footnote", "unknown"}})
	c, err := rd.Read(context.Background(), writeFile(t, "post.md", "Some ~~old~~ text.\n"))
	require.NoError(t, err)
	assert.NotContains(t, c.Body, "<del>")
}

func TestMarkdownReaderBadDate(t *testing.T) {
	_, err := NewMarkdownReader(Config{}).Read(context.Background(), writeFile(t, "post.md", "---\ndate: \"someday\"\n---\nText.\n"))
	requireCode(t, err, goerrors.CategoryValidation, CodeMetadataDecoding)
}

type staticReader string

func (r staticReader) Read(_ context.Context, path string) (*Content, error) {
	return &Content{Source: path, Body: string(r)}, nil
}

func TestReaders(t *testing.T) {
	signals := &Signals{}
	var seen *Readers
	signals.ReadersInit.Connect(func(r *Readers) {
		seen = r
		r.Register(staticReader("plain"), ".TXT")
	})
	readers := NewReaders(Config{}, signals)
	require.Same(t, readers, seen)
	assert.NotNil(t, readers.Config.Roles)
	assert.Equal(t, []string{"markdown", "md", "mdown", "mkd", "rest", "rst", "txt"}, readers.Extensions())

	rd, ok := readers.Lookup(".RST")
	require.True(t, ok)
	assert.IsType(t, &RSTReader{}, rd)
	rd, ok = readers.Lookup("md")
	require.True(t, ok)
	assert.IsType(t, &MarkdownReader{}, rd)

	c, err := readers.Read(context.Background(), "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "plain", c.Body)

	_, err = readers.Read(context.Background(), "image.png")
	requireCode(t, err, goerrors.CategoryNotFound, CodeReaderUnknown)
}

func TestSignalConnectKey(t *testing.T) {
	var s Signal[*[]string]
	note := func(tag string) func(*[]string) {
		return func(got *[]string) { *got = append(*got, tag) }
	}
	s.Connect(note("a"))
	s.Connect(note("a"))
	s.ConnectKey("k", note("k1"))
	s.ConnectKey("k", note("k2"))
	s.Connect(note("b"))
	assert.Equal(t, 4, s.Len())

	var got []string
	s.Send(&got)
	assert.Equal(t, []string{"a", "a", "k2", "b"}, got)
}

func TestReadersWithoutSignals(t *testing.T) {
	readers := NewReaders(Config{}, nil)
	_, ok := readers.Lookup("txt")
	assert.False(t, ok)
}
