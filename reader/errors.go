// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reader

import (
	"context"
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"

	"github.com/matthewdargan/semantic-rst/nodes"
)

// Text codes carried by the errors this package returns.
const (
	CodeExitStatus       = "RST_EXIT_STATUS"
	CodeHalted           = "RST_PARSE_HALTED"
	CodeSettingsInvalid  = "RST_SETTINGS_INVALID"
	CodeReaderUnknown    = "RST_READER_UNKNOWN"
	CodeSourceRead       = "RST_SOURCE_READ"
	CodeTranslateFailed  = "RST_TRANSLATE_FAILED"
	CodeContextCanceled  = "RST_CONTEXT_CANCELED"
	CodeMarkdownRender   = "RST_MARKDOWN_RENDER"
	CodeMetadataDecoding = "RST_METADATA_DECODE"
)

// ProblemsError reports the problems that failed a publish run.
type ProblemsError struct {
	Source   string
	Level    nodes.Level
	Problems []nodes.Problem
}

func (e *ProblemsError) Error() string {
	return fmt.Sprintf("%s: %d problem(s), worst level %s", e.Source, len(e.Problems), e.Level)
}

func settingsError(err error) error {
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid docutils settings").
		WithTextCode(CodeSettingsInvalid)
}

func exitStatusError(source string, level nodes.Level, problems []nodes.Problem) error {
	err := &ProblemsError{Source: source, Level: level, Problems: problems}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "document problems reached the exit status level").
		WithTextCode(CodeExitStatus)
}

func haltError(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "parsing halted").
		WithTextCode(CodeHalted)
}

func unknownReaderError(path, ext string) error {
	err := fmt.Errorf("%s: no reader for extension %q", path, ext)
	return goerrors.Wrap(err, goerrors.CategoryNotFound, "unknown reader").
		WithTextCode(CodeReaderUnknown)
}

func sourceError(err error) error {
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryNotFound, "cannot read source").
		WithTextCode(CodeSourceRead)
}

func translateError(err error) error {
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, "translation failed").
		WithTextCode(CodeTranslateFailed)
}

func contextError(err error) error {
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, "publish interrupted").
		WithTextCode(CodeContextCanceled)
}

func markdownError(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, "markdown rendering failed").
		WithTextCode(CodeMarkdownRender)
}

func metadataError(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "cannot decode metadata").
		WithTextCode(CodeMetadataDecoding)
}
