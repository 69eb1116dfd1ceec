// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package semantic

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewdargan/semantic-rst/html"
	"github.com/matthewdargan/semantic-rst/parse"
	"github.com/matthewdargan/semantic-rst/reader"
)

func registered(t *testing.T, cfg reader.Config) *reader.Readers {
	t.Helper()
	cfg.Roles = parse.NewRoles()
	signals := &reader.Signals{}
	Register(cfg.Roles, signals)
	return reader.NewReaders(cfg, signals)
}

func source(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRegister(t *testing.T) {
	readers := registered(t, reader.Config{})
	_, ok := readers.Config.Roles.Lookup("kbd")
	assert.True(t, ok)
	for _, ext := range []string{"rst", "rest"} {
		rd, ok := readers.Lookup(ext)
		require.True(t, ok, ext)
		rst, ok := rd.(*reader.RSTReader)
		require.True(t, ok, ext)
		assert.Equal(t, []html.NodeTranslator{Formatter{}}, rst.Translators)
		assert.Equal(t, 2, rst.Defaults["initial_header_level"])
	}
	rd, ok := readers.Lookup("md")
	require.True(t, ok)
	assert.IsType(t, &reader.MarkdownReader{}, rd)
}

func TestRegisterTwice(t *testing.T) {
	roles := parse.NewRoles()
	signals := &reader.Signals{}
	Register(roles, signals)
	Register(roles, signals)
	assert.Equal(t, 1, signals.ReadersInit.Len())

	readers := reader.NewReaders(reader.Config{Roles: roles}, signals)
	rd, ok := readers.Lookup("rst")
	require.True(t, ok)
	assert.Equal(t, []html.NodeTranslator{Formatter{}}, rd.(*reader.RSTReader).Translators)
}

func TestReaderDefaults(t *testing.T) {
	s, err := NewReader(reader.Config{Roles: parse.NewRoles()}).Settings()
	require.NoError(t, err)
	assert.Equal(t, 2, s.InitialHeaderLevel)
	assert.Equal(t, "short", s.SyntaxHighlight)
	assert.Equal(t, 2, s.ExitStatusLevel)
	assert.False(t, s.EmbedStylesheet)

	s, err = NewReader(reader.Config{
		Roles:            parse.NewRoles(),
		DocutilsSettings: map[string]any{"initial_header_level": 3},
	}).Settings()
	require.NoError(t, err)
	assert.Equal(t, 3, s.InitialHeaderLevel)
}

const post = `Post
====

:tags: go
:summary: Press :kbd:` + "`Ctrl+C`" + `.

Intro with ` + "``code``" + `.

Part
----

Press :kbd:` + "`Esc`" + `.

Sub
~~~

Done.
`

func TestReadSemantic(t *testing.T) {
	readers := registered(t, reader.Config{})
	c, err := readers.Read(context.Background(), source(t, "post.rst", post))
	require.NoError(t, err)
	assert.Equal(t, "Post", c.Title)
	assert.Equal(t, `<p>Intro with <code>code</code>.</p>
<h2 id="part">Part</h2>
<p>Press <kbd>Esc</kbd>.</p>
<h3 id="sub">Sub</h3>
<p>Done.</p>
`, c.Body)
	assert.Equal(t, "<p class=\"first last\">Press <kbd>Ctrl+C</kbd>.</p>\n", c.Metadata["summary"])
	assert.Equal(t, []string{"go"}, c.Metadata["tags"])
	assert.Empty(t, c.Parts.Stylesheet)
}

func TestReadSemanticWarningFails(t *testing.T) {
	readers := registered(t, reader.Config{})
	_, err := readers.Read(context.Background(), source(t, "bad.rst", "Text.\n\n.. code:: nosuchlang\n\n   x\n"))
	require.Error(t, err)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryValidation))

	readers = registered(t, reader.Config{DocutilsSettings: map[string]any{"exit_status_level": 5}})
	c, err := readers.Read(context.Background(), source(t, "bad.rst", "Text.\n\n.. code:: nosuchlang\n\n   x\n"))
	require.NoError(t, err)
	assert.NotEmpty(t, c.Problems)
}

func TestWithoutRegister(t *testing.T) {
	readers := reader.NewReaders(reader.Config{}, &reader.Signals{})
	c, err := readers.Read(context.Background(), source(t, "plain.rst", "Intro.\n\nPart\n----\n\nText.\n"))
	require.NoError(t, err)
	assert.Contains(t, c.Body, `<div class="section" id="part">`)
	assert.Contains(t, c.Body, `<h1>Part</h1>`)
}
