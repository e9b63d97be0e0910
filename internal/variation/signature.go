package variation

import (
	"sort"
	"strings"

	"github.com/phenrril/catalogsync/internal/domain"
)

var sigEscaper = strings.NewReplacer(`\`, `\\`, `:`, `\:`, `|`, `\|`)

// Signature arma la clave canónica de un conjunto de asignaciones: pares
// "nombre:opción" ordenados y unidos con "|". Es independiente del orden y
// sólo sirve para emparejar filas dentro de una sesión.
func Signature(assignments []domain.AttributeValueAssignment) string {
	pairs := make([]string, len(assignments))
	for i, a := range assignments {
		pairs[i] = sigEscaper.Replace(a.AttributeName) + ":" + sigEscaper.Replace(a.Option)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "|")
}
