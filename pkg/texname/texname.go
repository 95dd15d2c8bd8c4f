// Package texname maps texture identifiers to filesystem-safe base names.
package texname

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Faultbox/bojexport/pkg/scene"
)

// Clean returns a filesystem-safe base name for id. Accented letters are
// folded to their base letter and every remaining byte outside [A-Za-z0-9]
// becomes '_'. Invalid identifiers clean to the empty string.
func Clean(id scene.TextureID) string {
	if !id.Valid() {
		return ""
	}

	name := fold(id.String())

	out := []byte(name)
	for i, c := range out {
		if !isAlnum(c) {
			out[i] = '_'
		}
	}
	return string(out)
}

// fold strips combining marks after canonical decomposition.
// Returns the input unchanged if the transform fails.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
