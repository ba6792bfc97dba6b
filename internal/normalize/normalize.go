// Package normalize canonicalizes book titles and author names so that
// locally tagged metadata can be compared with, and keyed like, records
// scraped from the external source.
//
// Every function here is a pure string transform. Malformed or empty input
// yields an empty (or otherwise deterministic) result rather than an error,
// so one bad record never aborts a batch.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespace = regexp.MustCompile(`\s+`)

	leadingArticle = regexp.MustCompile(`^(?:the|a)\s+`)

	titlePunctuation = strings.NewReplacer(
		":", " ",
		"_", " ",
		"?", " ",
		"!", " ",
		",", " ",
		"-", " ",
		"'", "",
		"’", "",
	)

	trailingJunior = regexp.MustCompile(`(?i)\s*,?\s*jr\.?\s*$`)
	trackPrefix    = regexp.MustCompile(`^\d+\.*\d*\s-`)
	initials       = regexp.MustCompile(`\.\s*`)

	// diacritics is the fixed substitution table applied before the generic fold
	diacritics = strings.NewReplacer(
		"à", "a", "è", "e", "ì", "i", "ò", "o", "ù", "u",
		"À", "A", "È", "E", "Ì", "I", "Ò", "O", "Ù", "U",
		"ä", "a", "ë", "e", "ï", "i", "ö", "o", "ü", "u",
		"Ä", "A", "Ë", "E", "Ï", "I", "Ö", "O", "Ü", "U",
		"â", "a", "ê", "e", "î", "i", "ô", "o", "û", "u",
		"Â", "A", "Ê", "E", "Î", "I", "Ô", "O", "Û", "U",
		"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
		"Á", "A", "É", "E", "Í", "I", "Ó", "O", "Ú", "U",
		"ð", "d", "Ð", "D", "ý", "y", "Ý", "Y",
		"ã", "a", "ñ", "n", "õ", "o", "Ã", "A", "Ñ", "N", "Õ", "O",
		"š", "s", "Š", "S", "ž", "z", "Ž", "Z", "ç", "c", "Ç", "C",
		"å", "a", "Å", "A", "ø", "o", "Ø", "O",
		"`", "'", "\"", "'",
	)

	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// FoldDiacritics replaces common Latin diacritics with their ASCII base
// letter. Characters outside the fixed table are decomposed and stripped of
// combining marks.
func FoldDiacritics(s string) string {
	s = diacritics.Replace(s)
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}
	return folded
}

// Title lowercases a title, turns separating punctuation into spaces, drops
// apostrophes and a single leading article, and collapses whitespace.
// "The Hobbit" and "  the   hobbit " both become "hobbit".
func Title(s string) string {
	s = titlePunctuation.Replace(strings.ToLower(s))
	s = strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
	return leadingArticle.ReplaceAllString(s, "")
}

// Author produces the aggressive, whitespace-free form of a name used only
// for similarity scoring: "E.E. \"Doc\" Smith, Jr." becomes "eedocsmith".
// Diacritics are folded so catalogue spellings compare with tagged ones.
func Author(s string) string {
	s = FoldDiacritics(s)
	s = strings.TrimSpace(trailingJunior.ReplaceAllString(s, ""))
	s = strings.NewReplacer("\"", " ", "'", " ").Replace(s)
	s = whitespace.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, ".", "")
	return strings.TrimSpace(strings.ToLower(s))
}

// KeyName is the display-preserving normalization used for identity keys:
// diacritics folded, lowercased, initials spaced as "j. r. r.", whitespace
// collapsed. Unlike Author it keeps word boundaries.
func KeyName(s string) string {
	s = strings.ToLower(FoldDiacritics(s))
	s = initials.ReplaceAllString(s, ". ")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// CleanTitle strips a leading track-number prefix such as "01 -" or "2.5 -"
// from a tag value.
func CleanTitle(s string) string {
	return strings.TrimSpace(trackPrefix.ReplaceAllString(s, ""))
}

// CollapseSpaces trims s and reduces every whitespace run to one space.
func CollapseSpaces(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
