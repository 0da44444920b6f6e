package parser

import (
	"strconv"
	"strings"
)

// Kind classifies a single wire line. The tokenizer is the only place
// that inspects raw text; the session consumes Kinds.
type Kind int

const (
	// KindUnknown covers unrecognized commands and malformed lines.
	// Both are skipped without error so preview parsing degrades
	// gracefully on files written by other tools.
	KindUnknown Kind = iota
	KindMotion
	KindToolSelect
	KindAir
	KindPaint
	KindComment
	KindMacro
)

// Line is one tokenized wire line. Only the fields relevant to its
// Kind are populated.
type Line struct {
	Kind Kind

	// Motion (G0/G1). Nil axis fields were not specified on the line.
	Rapid bool
	X     *float64
	Y     *float64
	Z     *float64
	Feed  *float64

	// Tool select (T).
	Tool int

	// Air (M42) and paint servo (M280).
	Pin   int
	Value int

	// Comment text without the leading semicolon, trimmed.
	Comment string

	// Macro invocation (M98).
	MacroName string
}

// Tokenize classifies one raw line. It never fails: anything it cannot
// make sense of comes back as KindUnknown.
func Tokenize(raw string) Line {
	text := strings.TrimSpace(raw)

	var comment string
	if idx := strings.IndexByte(text, ';'); idx >= 0 {
		comment = strings.TrimSpace(text[idx+1:])
		text = strings.TrimSpace(text[:idx])
	}

	if text == "" {
		return Line{Kind: KindComment, Comment: comment}
	}

	fields := strings.Fields(text)
	head := strings.ToUpper(fields[0])

	switch {
	case head == "G0" || head == "G1":
		return tokenizeMotion(head, fields[1:], comment)

	case len(head) >= 2 && head[0] == 'T':
		tool, err := strconv.Atoi(head[1:])
		if err != nil {
			return Line{Kind: KindUnknown}
		}
		return Line{Kind: KindToolSelect, Tool: tool}

	case head == "M42":
		return tokenizePinCommand(KindAir, fields[1:])

	case head == "M280":
		return tokenizePinCommand(KindPaint, fields[1:])

	case head == "M98":
		return tokenizeMacro(fields[1:])

	default:
		return Line{Kind: KindUnknown, Comment: comment}
	}
}

// tokenizeMotion parses G0/G1 axis words. A malformed value on any
// recognized word invalidates the whole line.
func tokenizeMotion(head string, words []string, comment string) Line {
	line := Line{Kind: KindMotion, Rapid: head == "G0", Comment: comment}
	for _, w := range words {
		if len(w) < 2 {
			return Line{Kind: KindUnknown}
		}
		value, err := strconv.ParseFloat(w[1:], 64)
		switch {
		case err != nil:
			return Line{Kind: KindUnknown}
		case w[0] == 'X' || w[0] == 'x':
			line.X = &value
		case w[0] == 'Y' || w[0] == 'y':
			line.Y = &value
		case w[0] == 'Z' || w[0] == 'z':
			line.Z = &value
		case w[0] == 'F' || w[0] == 'f':
			line.Feed = &value
		}
		// Other axis letters are ignored for forward compatibility.
	}
	return line
}

// tokenizePinCommand parses the P and S words of M42/M280.
func tokenizePinCommand(kind Kind, words []string) Line {
	line := Line{Kind: kind, Pin: -1}
	for _, w := range words {
		if len(w) < 2 {
			return Line{Kind: KindUnknown}
		}
		value, err := strconv.Atoi(w[1:])
		switch {
		case err != nil:
			return Line{Kind: KindUnknown}
		case w[0] == 'P' || w[0] == 'p':
			line.Pin = value
		case w[0] == 'S' || w[0] == 's':
			line.Value = value
		}
	}
	if line.Pin < 0 {
		return Line{Kind: KindUnknown}
	}
	return line
}

// tokenizeMacro extracts the macro file name from an M98 P"name" word.
func tokenizeMacro(words []string) Line {
	for _, w := range words {
		if len(w) < 2 || (w[0] != 'P' && w[0] != 'p') {
			continue
		}
		name := strings.Trim(w[1:], `"`)
		if name != "" {
			return Line{Kind: KindMacro, MacroName: name}
		}
	}
	return Line{Kind: KindUnknown}
}
