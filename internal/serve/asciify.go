package serve

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Asciify reduces name to plain ASCII: compatibility-decompose (NFKD), then
// drop every code point outside the ASCII range. It is total over any input
// and the result may be empty. Used for Content-Disposition filenames,
// which must survive header encoding.
func Asciify(name string) string {
	decomposed := norm.NFKD.String(name)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}
	return b.String()
}
