package xmerge

import (
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// InvariantCulture returns a comparator that orders strings by the
// language-neutral root collation. Each call builds its own collator; the
// returned function must not be shared between goroutines.
func InvariantCulture() func(a, b string) int {
	c := collate.New(language.Und)
	return c.CompareString
}

// Ordinal orders strings by their bytes.
func Ordinal(a, b string) int {
	return strings.Compare(a, b)
}
