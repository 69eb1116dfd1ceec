// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reader

import (
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewdargan/semantic-rst/internal/highlight"
	"github.com/matthewdargan/semantic-rst/nodes"
)

// requireCode asserts err is a go-errors error of category with text code.
func requireCode(t *testing.T, err error, category goerrors.Category, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, goerrors.IsCategory(err, category), "category of %v", err)
	var e *goerrors.Error
	require.True(t, errors.As(err, &e), "not a go-errors error: %v", err)
	assert.Equal(t, code, e.TextCode)
}

func TestMergePrecedence(t *testing.T) {
	s, err := DefaultSettings().MergeAll(
		map[string]any{"initial_header_level": 2, "table_style": "docutils"},
		nil,
		map[string]any{"Initial-Header-Level": "3", "compact_lists": "false"},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, s.InitialHeaderLevel)
	assert.Equal(t, "docutils", s.TableStyle)
	assert.False(t, s.CompactLists)
	assert.True(t, s.CompactFieldLists)
	assert.Equal(t, int(nodes.LevelSevere)+1, s.ExitStatusLevel)
}

func TestMergeFormattedFields(t *testing.T) {
	defaults := DefaultSettings()
	s, err := defaults.Merge(map[string]any{"formatted_fields": "Summary, abstract"})
	require.NoError(t, err)
	assert.Equal(t, []string{"summary", "abstract"}, s.FormattedFields)
	assert.Equal(t, []string{"summary"}, defaults.FormattedFields)

	s, err = defaults.Merge(map[string]any{"formatted_fields": []string{"note"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"note"}, s.FormattedFields)
}

func TestMergeUnknownKey(t *testing.T) {
	_, err := DefaultSettings().Merge(map[string]any{"no_such_setting": 1})
	requireCode(t, err, goerrors.CategoryValidation, CodeSettingsInvalid)
}

func TestValidate(t *testing.T) {
	require.NoError(t, DefaultSettings().Validate())
	tests := []struct {
		name      string
		overrides map[string]any
	}{
		{"header level too high", map[string]any{"initial_header_level": 7}},
		{"header level zero", map[string]any{"initial_header_level": 0}},
		{"unknown highlight mode", map[string]any{"syntax_highlight": "fancy"}},
		{"unknown encoding", map[string]any{"input_encoding": "klingon-8"}},
		{"negative level", map[string]any{"report_level": -1}},
		{"unknown toc backlinks", map[string]any{"toc_backlinks": "sideways"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := DefaultSettings().Merge(tt.overrides)
			require.NoError(t, err)
			requireCode(t, s.Validate(), goerrors.CategoryValidation, CodeSettingsInvalid)
		})
	}
}

func TestSettingsViews(t *testing.T) {
	s, err := DefaultSettings().Merge(map[string]any{
		"syntax_highlight":     "short",
		"halt_level":           3,
		"initial_header_level": 2,
		"table_style":          "a,b",
		"embed_stylesheet":     false,
	})
	require.NoError(t, err)

	ps := s.ParseSettings()
	assert.Equal(t, highlight.Short, ps.SyntaxHighlight)
	assert.Equal(t, nodes.LevelError, ps.HaltLevel)
	assert.True(t, ps.DoctitleXform)
	assert.Equal(t, "entry", ps.TocBacklinks)

	hs := s.HTMLSettings()
	assert.Equal(t, 2, hs.InitialHeaderLevel)
	assert.Equal(t, "a,b", hs.TableStyle)
	assert.False(t, hs.EmbedStylesheet)
	assert.Equal(t, 14, hs.FieldNameLimit)
}
