package variation

import (
	"github.com/phenrril/catalogsync/internal/domain"
)

// Combinations devuelve el producto cartesiano de los valores elegidos, una
// asignación por eje y respetando el orden de los ejes. Los ejes sin valores
// se omiten del producto; una lista vacía da una sola combinación vacía.
func Combinations(selections []domain.AttributeSelection) [][]domain.AttributeValueAssignment {
	combos := [][]domain.AttributeValueAssignment{{}}
	for _, sel := range selections {
		if len(sel.Values) == 0 {
			continue
		}
		next := make([][]domain.AttributeValueAssignment, 0, len(combos)*len(sel.Values))
		for _, base := range combos {
			for _, v := range sel.Values {
				row := make([]domain.AttributeValueAssignment, len(base), len(base)+1)
				copy(row, base)
				row = append(row, domain.AttributeValueAssignment{
					AttributeID:   sel.AttributeID,
					AttributeName: sel.AttributeName,
					Option:        v,
				})
				next = append(next, row)
			}
		}
		combos = next
	}
	return combos
}

// TotalCombinations es el producto de la cantidad de valores por eje. Da 0 si
// algún eje no tiene valores o si no hay ejes.
func TotalCombinations(selections []domain.AttributeSelection) int {
	if len(selections) == 0 {
		return 0
	}
	total := 1
	for _, sel := range selections {
		if len(sel.Values) == 0 {
			return 0
		}
		total *= len(sel.Values)
	}
	return total
}

// MissingCombinations genera las combinaciones y descarta las que ya tienen
// una fila (generada o persistida) con la misma firma.
func MissingCombinations(selections []domain.AttributeSelection, existing [][]domain.AttributeValueAssignment) [][]domain.AttributeValueAssignment {
	have := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		have[Signature(e)] = struct{}{}
	}
	all := Combinations(selections)
	out := make([][]domain.AttributeValueAssignment, 0, len(all))
	for _, c := range all {
		sig := Signature(c)
		if _, ok := have[sig]; ok {
			continue
		}
		have[sig] = struct{}{}
		out = append(out, c)
	}
	return out
}

// ExistingAssignments junta las asignaciones de borradores y snapshot para
// alimentar MissingCombinations.
func ExistingAssignments(drafts []domain.VariationDraft, snapshot []domain.PersistedVariation) [][]domain.AttributeValueAssignment {
	out := make([][]domain.AttributeValueAssignment, 0, len(drafts)+len(snapshot))
	for _, d := range drafts {
		out = append(out, d.Attributes)
	}
	for _, p := range snapshot {
		out = append(out, p.Attributes)
	}
	return out
}
