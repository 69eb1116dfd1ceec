// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logging

import (
	"context"
	"maps"
	"strings"
)

const (
	rootModule   = "rst"
	readerModule = "rst.reader"
	parseModule  = "rst.parse"
	cliModule    = "rst.cli"
)

const (
	fieldSourcePath = "source_path"
	fieldReader     = "reader"
)

// ModuleLogger returns a logger for module, falling back to a no-op logger
// when provider is nil. Entries carry the module name as a field.
func ModuleLogger(provider Provider, module string) Logger {
	if module == "" {
		module = rootModule
	}
	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}
	return WithFields(logger, map[string]any{"module": module})
}

// ReaderLogger returns the logger used by document readers.
func ReaderLogger(provider Provider) Logger {
	return ModuleLogger(provider, readerModule)
}

// ParseLogger returns the logger used while parsing documents.
func ParseLogger(provider Provider) Logger {
	return ModuleLogger(provider, parseModule)
}

// CLILogger returns the logger used by command line tools.
func CLILogger(provider Provider) Logger {
	return ModuleLogger(provider, cliModule)
}

// WithSource annotates logger with the source path and reader name. Empty
// values are skipped.
func WithSource(logger Logger, path, reader string) Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fields[fieldSourcePath] = trimmed
	}
	if trimmed := strings.TrimSpace(reader); trimmed != "" {
		fields[fieldReader] = trimmed
	}
	return WithFields(logger, fields)
}

// WithFields attaches fields when logger implements FieldsLogger. The map is
// copied.
func WithFields(logger Logger, fields map[string]any) Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	if fl, ok := logger.(FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		maps.Copy(copied, fields)
		return fl.WithFields(copied)
	}
	return logger
}

// NoOp returns a logger that drops every entry.
func NoOp() Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) Logger { return n }

func (n noopLogger) WithContext(context.Context) Logger { return n }
