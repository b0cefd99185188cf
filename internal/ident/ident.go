// Package ident extracts task numbers from asset filenames and answer-key tokens.
//
// Recognized shapes, in priority order:
//
//	Вариант  (13)   variant in parentheses
//	Задание_13      labeled number (any case, "_" or spaces between)
//	13              bare number
//	13_A, 13_1      number with a part suffix
//	13-A, 13-1      number with a part suffix
//
// The order matters for ambiguous names and must not change.
package ident

import (
	"path/filepath"
	"regexp"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// Variant and label words used in canonical filenames.
const (
	VariantWord = "Вариант"
	LabelWord   = "Задание"
)

// ID identifies a task and, for multi-part assets, the part.
type ID struct {
	Number int
	Suffix string // Empty when the token carries no part suffix
}

// HasSuffix reports whether the ID names one part of a multi-part task.
func (id ID) HasSuffix() bool {
	return id.Suffix != ""
}

func (id ID) String() string {
	if id.Suffix == "" {
		return strconv.Itoa(id.Number)
	}
	return strconv.Itoa(id.Number) + "_" + id.Suffix
}

// Rule names reported by Match.
const (
	RuleVariant    = "variant"
	RuleLabel      = "label"
	RuleNumber     = "number"
	RuleUnderscore = "underscore"
	RuleDash       = "dash"
)

type rule struct {
	name string
	re   *regexp.Regexp
}

// rules are evaluated in order; the first match wins.
// Group 1 is always the number, group 2 (when present) the suffix.
var rules = []rule{
	{RuleVariant, regexp.MustCompile(`^Вариант[\s\p{Z}]*\((\d+)\)`)},
	{RuleLabel, regexp.MustCompile(`(?i)^задание[_\s\p{Z}]*(\d+)`)},
	{RuleNumber, regexp.MustCompile(`^(\d+)$`)},
	{RuleUnderscore, regexp.MustCompile(`^(\d+)_([\p{L}\p{N}_]+)$`)},
	{RuleDash, regexp.MustCompile(`^(\d+)-([\p{L}\p{N}_]+)$`)},
}

// Parse extracts a task ID from a filename or token.
// It returns false when the token does not follow any known naming shape.
func Parse(token string) (ID, bool) {
	id, _, ok := Match(token)
	return id, ok
}

// Match is like Parse but also returns the name of the rule that matched.
func Match(token string) (ID, string, bool) {
	base := StripExt(norm.NFC.String(token))

	for _, r := range rules {
		m := r.re.FindStringSubmatch(base)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return ID{}, "", false
		}
		id := ID{Number: n}
		if len(m) > 2 {
			id.Suffix = m[2]
		}
		return id, r.name, true
	}

	return ID{}, "", false
}

// StripExt removes the final extension from name.
// A name that is only an extension, such as ".png", is returned unchanged.
func StripExt(name string) string {
	ext := filepath.Ext(name)
	if ext == "" || ext == name {
		return name
	}
	return name[:len(name)-len(ext)]
}

// ImageBases returns the canonical filename stems checked directly when
// looking up the images of task n.
func ImageBases(n int) []string {
	s := strconv.Itoa(n)
	return []string{
		VariantWord + "  (" + s + ")",
		s,
		LabelWord + "_" + s,
		LabelWord + " " + s,
	}
}

// AttachmentBases returns the canonical filename stems checked directly when
// looking up the attachments of task n.
func AttachmentBases(n int) []string {
	s := strconv.Itoa(n)
	return []string{
		s,
		VariantWord + "  (" + s + ")",
		LabelWord + "_" + s,
	}
}
