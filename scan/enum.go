// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scan

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// lexEnum scans an enumerator.
func lexEnum(l *Scanner) stateFn {
	marker := l.enumMarker()
	e, _ := ParseEnum(marker, l.lastEnum)
	l.lastEnum = e
	l.pos += len(marker)
	return l.emitMarker(Enum, marker, l.rest())
}

// isEnum reports whether the scanner is on an enumerator.
func (l *Scanner) isEnum(r rune) bool {
	if r != '(' && r != '#' && !unicode.IsDigit(r) && !unicode.IsLetter(r) {
		return false
	}
	_, ok := ParseEnum(l.enumMarker(), l.lastEnum)
	return ok
}

// enumMarker returns the text up to the first space.
func (l *Scanner) enumMarker() string {
	s := l.rest()
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}

// EnumType is the numbering style of an enumerated list.
type EnumType int

const (
	None EnumType = iota
	Arabic
	UpperAlpha
	LowerAlpha
	UpperRoman
	LowerRoman
)

func (t EnumType) String() string {
	switch t {
	case Arabic:
		return "arabic"
	case UpperAlpha:
		return "upperalpha"
	case LowerAlpha:
		return "loweralpha"
	case UpperRoman:
		return "upperroman"
	case LowerRoman:
		return "lowerroman"
	}
	return "none"
}

// Enumerator describes one enumerator such as "3.", "(b)" or "iv)".
type Enumerator struct {
	Type   EnumType
	Value  int
	Auto   bool   // "#" enumerator
	Prefix string // "(" or ""
	Suffix string // "." or ")"
}

const (
	enumSuffixes   = ".)"
	roman          = "Ii"
	ambiguousRoman = "VXLCDMvxlcdm"
)

// ParseEnum interprets an enumerator. The previous enumerator of the same
// list, if any, resolves auto-numbering and roman/alphabetic ambiguity.
func ParseEnum(marker string, prev Enumerator) (Enumerator, bool) {
	var e Enumerator
	if len(marker) < 2 {
		return e, false
	}
	s := marker
	if s[0] == '(' {
		if s[len(s)-1] != ')' {
			return e, false
		}
		e.Prefix, e.Suffix = "(", ")"
		s = s[1 : len(s)-1]
	} else {
		suffix := s[len(s)-1:]
		if !strings.Contains(enumSuffixes, suffix) {
			return e, false
		}
		e.Suffix = suffix
		s = s[:len(s)-1]
	}
	if s == "" {
		return e, false
	}
	ordinal, ok := parseOrdinal(s, prev)
	if !ok {
		return e, false
	}
	ordinal.Prefix, ordinal.Suffix = e.Prefix, e.Suffix
	return ordinal, true
}

// parseOrdinal interprets the enumerator text between prefix and suffix.
func parseOrdinal(s string, prev Enumerator) (Enumerator, bool) {
	var e Enumerator
	r := rune(s[0])
	switch {
	case s == "#":
		e = Enumerator{Type: prev.Type, Value: prev.Value + 1, Auto: true}
		if e.Type == None {
			e.Type = Arabic
		}
	case unicode.IsDigit(r):
		n, err := strconv.Atoi(s)
		if err != nil {
			return e, false
		}
		e = Enumerator{Type: Arabic, Value: n}
	case isRoman(s, prev):
		n, ok := parseRoman(s)
		if !ok {
			return e, false
		}
		e = Enumerator{Type: UpperRoman, Value: n}
		if unicode.IsLower(r) {
			e.Type = LowerRoman
		}
	case len(s) == 1 && r < unicode.MaxASCII && unicode.IsLetter(r):
		e = Enumerator{Type: UpperAlpha, Value: int(unicode.ToUpper(r)-'A') + 1}
		if unicode.IsLower(r) {
			e.Type = LowerAlpha
		}
	default:
		return e, false
	}
	return e, true
}

// isRoman reports whether s is a roman numeral. "I" and "i" are roman unless
// they continue an alphabetic list; other single roman letters are roman only
// when they continue a roman list.
func isRoman(s string, prev Enumerator) bool {
	if len(s) > 1 {
		return strings.IndexFunc(s, func(r rune) bool {
			return !strings.ContainsRune(roman+ambiguousRoman, r)
		}) < 0
	}
	r := rune(s[0])
	switch {
	case strings.ContainsRune(roman, r):
		alpha := prev.Type == UpperAlpha || prev.Type == LowerAlpha
		return !(alpha && prev.Value == 8)
	case strings.ContainsRune(ambiguousRoman, r):
		return prev.Type == UpperRoman || prev.Type == LowerRoman
	}
	return false
}

var (
	nums       = map[rune]int{'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000}
	numPattern = regexp.MustCompile("^M{0,4}(CM|CD|D?C{0,3})(XC|XL|L?X{0,3})(IX|IV|V?I{0,3})$")
)

// parseRoman converts a roman numeral to an integer.
func parseRoman(s string) (int, bool) {
	s = strings.ToUpper(s)
	if s == "" || !numPattern.MatchString(s) {
		return 0, false
	}
	var sum int
	runes := []rune(s)
	for i, r := range runes {
		v := nums[r]
		if i+1 < len(runes) && v < nums[runes[i+1]] {
			sum -= v
			continue
		}
		sum += v
	}
	return sum, true
}
