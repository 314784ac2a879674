// Package slug turns free-form titles into file-name-safe identifiers.
package slug

import (
	"strings"
	"unicode"
)

// MaxLen caps slug length so exported file names stay portable.
const MaxLen = 64

const fallback = "export"

// Make lowercases input, keeps ASCII letters and digits, and collapses every
// other run of characters into a single dash. Accented Latin letters lose
// their marks where a plain equivalent exists.
func Make(input string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(input) {
		r = fold(r)
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
		if b.Len() >= MaxLen {
			break
		}
	}
	s := strings.TrimRight(b.String(), "-")
	if len(s) > MaxLen {
		s = strings.TrimRight(s[:MaxLen], "-")
	}
	if s == "" {
		return fallback
	}
	return s
}

var folds = map[rune]rune{
	'à': 'a', 'á': 'a', 'â': 'a', 'ä': 'a', 'ã': 'a', 'å': 'a',
	'ç': 'c',
	'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e',
	'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i',
	'ñ': 'n',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'ö': 'o', 'õ': 'o', 'ø': 'o',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u',
	'ý': 'y', 'ÿ': 'y',
}

func fold(r rune) rune {
	if f, ok := folds[r]; ok {
		return f
	}
	return r
}
