// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nodes

import "fmt"

// Level is the severity of a problem found while reading a document.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelSevere
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelSevere:
		return "SEVERE"
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// Problem is a diagnostic attached to a source line.
type Problem struct {
	Level   Level
	Line    int
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("%d: (%s/%d) %s", p.Line, p.Level, int(p.Level), p.Message)
}

// MaxLevel returns the highest level among problems, or -1 when there are none.
func MaxLevel(problems []Problem) Level {
	worst := Level(-1)
	for _, p := range problems {
		if p.Level > worst {
			worst = p.Level
		}
	}
	return worst
}
