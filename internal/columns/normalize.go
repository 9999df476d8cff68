// =============================================================================
// Contas Publicas - Header Normalizer
// =============================================================================
//
// Municipal exports spell the same column in many ways ("Órgão", "ORGAO ",
// "Função - Descrição"). This module reduces every header to a canonical
// key so columns can be located regardless of accents, case, spacing and
// punctuation.
//
// NORMALIZATION STEPS (applied in order):
//   1. Compatibility decomposition (NFKD), dropping combining marks
//   2. Discard every remaining non-ASCII character
//   3. Lowercase and trim surrounding whitespace
//   4. Replace " - ", "-", "/" and "." with a single space
//   5. Collapse whitespace runs into a single space
//
// =============================================================================

package columns

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// punctuation is replaced in order; " - " must come before "-".
var punctuation = strings.NewReplacer(" - ", " ", "-", " ", "/", " ", ".", " ")

// Normalize maps a raw header to its canonical key.
//
// Normalize is total and idempotent: Normalize(Normalize(h)) == Normalize(h).
//
// Examples:
//
//	"Órgão"               -> "orgao"
//	"Função - Descrição"  -> "funcao descricao"
//	"Pago até o Mês"      -> "pago ate o mes"
func Normalize(header string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	decomposed, _, err := transform.String(t, header)
	if err != nil {
		decomposed = header
	}

	ascii := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, decomposed)

	key := strings.TrimSpace(strings.ToLower(ascii))
	key = punctuation.Replace(key)

	return strings.Join(strings.Fields(key), " ")
}
