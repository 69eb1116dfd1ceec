// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Rsthtml renders reStructuredText and markdown files to HTML.
//
// Usage:
//
//	rsthtml render [--out dir] [--standalone] file...
//	rsthtml meta file...
//	rsthtml dump file
//	rsthtml css [--style name]
//	rsthtml readers
//
// Settings come from the docutils_settings mapping of the YAML file named
// by --config and from repeated --set key=value flags, which win. The
// semantic translator and the :kbd: role are installed unless --plain is
// given.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "rsthtml:", err)
		stop()
		os.Exit(1)
	}
}
