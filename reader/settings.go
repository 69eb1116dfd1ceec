// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reader

import (
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/matthewdargan/semantic-rst/html"
	"github.com/matthewdargan/semantic-rst/internal/highlight"
	"github.com/matthewdargan/semantic-rst/nodes"
	"github.com/matthewdargan/semantic-rst/parse"
)

// Settings are the docutils-style options of one publish run. Keys follow
// the docutils setting names.
type Settings struct {
	InitialHeaderLevel int      `mapstructure:"initial_header_level" yaml:"initial_header_level"`
	SyntaxHighlight    string   `mapstructure:"syntax_highlight" yaml:"syntax_highlight"`
	InputEncoding      string   `mapstructure:"input_encoding" yaml:"input_encoding"`
	ExitStatusLevel    int      `mapstructure:"exit_status_level" yaml:"exit_status_level"`
	ReportLevel        int      `mapstructure:"report_level" yaml:"report_level"`
	HaltLevel          int      `mapstructure:"halt_level" yaml:"halt_level"`
	EmbedStylesheet    bool     `mapstructure:"embed_stylesheet" yaml:"embed_stylesheet"`
	StylesheetPath     string   `mapstructure:"stylesheet_path" yaml:"stylesheet_path"`
	HighlightStyle     string   `mapstructure:"highlight_style" yaml:"highlight_style"`
	TableStyle         string   `mapstructure:"table_style" yaml:"table_style"`
	CompactLists       bool     `mapstructure:"compact_lists" yaml:"compact_lists"`
	CompactFieldLists  bool     `mapstructure:"compact_field_lists" yaml:"compact_field_lists"`
	FieldNameLimit     int      `mapstructure:"field_name_limit" yaml:"field_name_limit"`
	DoctitleXform      bool     `mapstructure:"doctitle_xform" yaml:"doctitle_xform"`
	SectsubtitleXform  bool     `mapstructure:"sectsubtitle_xform" yaml:"sectsubtitle_xform"`
	FootnoteBacklinks  bool     `mapstructure:"footnote_backlinks" yaml:"footnote_backlinks"`
	TocBacklinks       string   `mapstructure:"toc_backlinks" yaml:"toc_backlinks"`
	FormattedFields    []string `mapstructure:"formatted_fields" yaml:"formatted_fields"`
}

// DefaultSettings returns the framework defaults.
func DefaultSettings() Settings {
	return Settings{
		InitialHeaderLevel: 1,
		SyntaxHighlight:    string(highlight.Long),
		InputEncoding:      "utf-8",
		ExitStatusLevel:    int(nodes.LevelSevere) + 1,
		ReportLevel:        int(nodes.LevelWarning),
		HaltLevel:          int(nodes.LevelSevere),
		EmbedStylesheet:    true,
		HighlightStyle:     "monokai",
		CompactLists:       true,
		CompactFieldLists:  true,
		FieldNameLimit:     14,
		DoctitleXform:      true,
		FootnoteBacklinks:  true,
		TocBacklinks:       "entry",
		FormattedFields:    []string{"summary"},
	}
}

// Merge returns s with the keys present in overrides replaced. Values are
// converted weakly, so "2" sets an integer option and "a,b" a list.
func (s Settings) Merge(overrides map[string]any) (Settings, error) {
	if len(overrides) == 0 {
		return s, nil
	}
	out := s
	out.FormattedFields = slices.Clone(s.FormattedFields)
	normalized := make(map[string]any, len(overrides))
	for k, v := range overrides {
		normalized[strings.ToLower(strings.ReplaceAll(strings.TrimSpace(k), "-", "_"))] = v
	}
	if _, ok := normalized["formatted_fields"]; ok {
		out.FormattedFields = nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return s, settingsError(err)
	}
	if err := dec.Decode(normalized); err != nil {
		return s, settingsError(err)
	}
	for i, f := range out.FormattedFields {
		out.FormattedFields[i] = strings.ToLower(strings.TrimSpace(f))
	}
	return out, nil
}

// MergeAll applies each layer of overrides in order.
func (s Settings) MergeAll(layers ...map[string]any) (Settings, error) {
	var err error
	for _, layer := range layers {
		if s, err = s.Merge(layer); err != nil {
			return s, err
		}
	}
	return s, nil
}

// Validate reports settings outside their allowed ranges.
func (s Settings) Validate() error {
	levels := []validation.Rule{validation.Min(0), validation.Max(int(nodes.LevelSevere) + 1)}
	err := validation.ValidateStruct(&s,
		validation.Field(&s.InitialHeaderLevel, validation.Required, validation.Min(1), validation.Max(6)),
		validation.Field(&s.SyntaxHighlight, validation.In(string(highlight.Long), string(highlight.Short), string(highlight.None))),
		validation.Field(&s.InputEncoding, validation.Required, validation.By(knownEncoding)),
		validation.Field(&s.ExitStatusLevel, levels...),
		validation.Field(&s.ReportLevel, levels...),
		validation.Field(&s.HaltLevel, levels...),
		validation.Field(&s.FieldNameLimit, validation.Min(0)),
		validation.Field(&s.TocBacklinks, validation.In("entry", "top", "none")),
	)
	if err != nil {
		return settingsError(err)
	}
	return nil
}

func knownEncoding(value any) error {
	name, _ := value.(string)
	if _, err := htmlindex.Get(name); err != nil {
		return validation.NewError("rst.settings.input_encoding", "unknown encoding "+name)
	}
	return nil
}

// ParseSettings returns the parser's view of s.
func (s Settings) ParseSettings() parse.Settings {
	mode, err := highlight.ParseMode(s.SyntaxHighlight)
	if err != nil {
		mode = highlight.Long
	}
	return parse.Settings{
		SyntaxHighlight:   mode,
		HaltLevel:         nodes.Level(s.HaltLevel),
		DoctitleXform:     s.DoctitleXform,
		SectsubtitleXform: s.SectsubtitleXform,
		TocBacklinks:      s.TocBacklinks,
	}
}

// HTMLSettings returns the translator's view of s.
func (s Settings) HTMLSettings() html.Settings {
	return html.Settings{
		InitialHeaderLevel: s.InitialHeaderLevel,
		TableStyle:         s.TableStyle,
		CompactLists:       s.CompactLists,
		CompactFieldLists:  s.CompactFieldLists,
		FieldNameLimit:     s.FieldNameLimit,
		FootnoteBacklinks:  s.FootnoteBacklinks,
		EmbedStylesheet:    s.EmbedStylesheet,
		StylesheetPath:     s.StylesheetPath,
		HighlightStyle:     s.HighlightStyle,
	}
}
