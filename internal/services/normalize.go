package services

import (
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)

var emailCaser = cases.Lower(language.Und)

// normalizeName applies NFC, trims and collapses inner whitespace.
func normalizeName(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(norm.NFC.String(s)), " ")
}

// normalizeEmail applies NFC, trims and lower-cases so lookups are
// case-insensitive.
func normalizeEmail(s string) string {
	return emailCaser.String(strings.TrimSpace(norm.NFC.String(s)))
}

// normalizeText applies NFC and trims surrounding whitespace, keeping inner
// layout intact.
func normalizeText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// pageOffset clamps page/limit to sane values and returns the row offset.
// An offset that would overflow saturates at math.MaxInt, which selects no
// rows.
func pageOffset(page, limit, defLimit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defLimit
	}
	if page-1 > math.MaxInt/limit {
		return page, limit, math.MaxInt
	}
	return page, limit, (page - 1) * limit
}
