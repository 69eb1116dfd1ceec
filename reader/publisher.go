// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reader

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/matthewdargan/semantic-rst/html"
	"github.com/matthewdargan/semantic-rst/internal/logging"
	"github.com/matthewdargan/semantic-rst/nodes"
	"github.com/matthewdargan/semantic-rst/parse"
)

// Publisher runs one document through decoding, parsing and translation.
type Publisher struct {
	Settings    Settings
	Roles       *parse.Roles
	Translators []html.NodeTranslator
	Logger      logging.Logger
}

// Result is a published document.
type Result struct {
	Doc      *nodes.Node
	Parts    html.Parts
	Problems []nodes.Problem
}

// PublishFile publishes the file at path.
func (p *Publisher) PublishFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, sourceError(err)
	}
	defer f.Close()
	return p.Publish(ctx, path, f)
}

// Publish decodes r using the input encoding, parses it and translates the
// tree. Problems at or above the exit status level fail the run; the result
// is still returned so callers can inspect them.
func (p *Publisher) Publish(ctx context.Context, name string, r io.Reader) (*Result, error) {
	logger := p.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	logger = logging.WithSource(logger, name, "")
	start := time.Now()
	logger.Debug("publish.start", "input_encoding", p.Settings.InputEncoding)
	if err := p.Settings.Validate(); err != nil {
		return nil, err
	}
	enc, err := htmlindex.Get(p.Settings.InputEncoding)
	if err != nil {
		return nil, settingsError(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, contextError(err)
	}
	parser := parse.New(p.Roles, p.Settings.ParseSettings())
	doc, problems, err := parser.Parse(ctx, name, enc.NewDecoder().Reader(r))
	res := &Result{Doc: doc, Problems: problems}
	p.report(logger, problems)
	switch {
	case errors.Is(err, parse.ErrHalt):
		return res, haltError(err)
	case err != nil:
		return res, contextError(sourceIfPlain(err))
	}
	if worst := nodes.MaxLevel(problems); worst >= nodes.Level(p.Settings.ExitStatusLevel) {
		return res, exitStatusError(name, worst, problems)
	}
	if err := ctx.Err(); err != nil {
		return res, contextError(err)
	}
	parts, err := html.New(p.Settings.HTMLSettings(), p.Translators...).Translate(doc)
	if err != nil {
		return res, translateError(err)
	}
	res.Parts = parts
	logger.Info("publish.done", "problems", len(problems), "elapsed", time.Since(start).String())
	return res, nil
}

// sourceIfPlain tags read failures with the source error code and leaves
// context errors alone.
func sourceIfPlain(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return sourceError(err)
}

// report logs the problems at or above the report level.
func (p *Publisher) report(logger logging.Logger, problems []nodes.Problem) {
	for _, pr := range problems {
		if pr.Level < nodes.Level(p.Settings.ReportLevel) {
			continue
		}
		args := []any{"line", pr.Line, "level", pr.Level.String()}
		switch {
		case pr.Level >= nodes.LevelError:
			logger.Error(pr.Message, args...)
		case pr.Level == nodes.LevelWarning:
			logger.Warn(pr.Message, args...)
		default:
			logger.Info(pr.Message, args...)
		}
	}
}
