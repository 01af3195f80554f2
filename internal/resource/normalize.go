package resource

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold normaliza texto para búsqueda: sin acentos y case-folded.
// "Órden de Compra" y "orden de compra" quedan iguales.
func Fold(s string) string {
	// el transformer tiene estado, uno por llamada
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(strings.TrimSpace(out))
}

func matchesAll(haystack []string, needle string) bool {
	if needle == "" {
		return true
	}
	for _, h := range haystack {
		if strings.Contains(Fold(h), needle) {
			return true
		}
	}
	return false
}
