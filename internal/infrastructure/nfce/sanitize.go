package nfce

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// removeDiacriticos decompõe e descarta marcas de acentuação (NFD → sem Mn → NFC).
var removeDiacriticos = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SanitizarTexto prepara texto livre para os campos do XML fiscal: remove
// acentos, colapsa espaços e corta no limite de tamanho do campo. A SEFAZ
// rejeita documento com caractere fora da tabela básica em vários campos.
func SanitizarTexto(s string, max int) string {
	limpo, _, err := transform.String(removeDiacriticos, s)
	if err != nil {
		limpo = s
	}
	limpo = strings.Join(strings.Fields(limpo), " ")
	// Corte por rune: símbolos multi-byte (º, §, etc.) sobrevivem à remoção de
	// acentos e não podem ser partidos no meio.
	if r := []rune(limpo); max > 0 && len(r) > max {
		limpo = string(r[:max])
	}
	return limpo
}
