package variation

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/catalogsync/internal/domain"
)

type Result struct {
	IsValid bool                     `json:"is_valid"`
	Errors  []domain.ValidationIssue `json:"errors"`
}

// Err devuelve *domain.ValidationError si hubo problemas.
func (r Result) Err() error {
	if r.IsValid {
		return nil
	}
	return &domain.ValidationError{Issues: r.Errors}
}

// Validate revisa cada variación contra los atributos del padre: que estén
// todos los ejes de variación, que no haya ejes ajenos y que cada valor no
// comodín pertenezca a las opciones declaradas. Los errores se acumulan.
func Validate(variations []domain.VariationDraft, parent []domain.Attribute) Result {
	issues := []domain.ValidationIssue{}
	for i, v := range variations {
		issues = append(issues, validateOne(i, v, parent)...)
	}
	for _, is := range issues {
		log.Debug().Int("variation", is.Index).Str("attribute", is.Attribute).Msg(is.Message)
	}
	return Result{IsValid: len(issues) == 0, Errors: issues}
}

func validateOne(idx int, v domain.VariationDraft, parent []domain.Attribute) []domain.ValidationIssue {
	var out []domain.ValidationIssue
	add := func(attr, format string, args ...any) {
		out = append(out, domain.ValidationIssue{Index: idx, Attribute: attr, Message: fmt.Sprintf(format, args...)})
	}

	// completitud
	for _, pa := range parent {
		if !pa.UsedForVariation {
			continue
		}
		n := 0
		for _, as := range v.Attributes {
			if pa.Matches(as) {
				n++
			}
		}
		switch {
		case n == 0:
			add(pa.Name, "falta el atributo %q en la variación %d", pa.Name, idx+1)
		case n > 1:
			add(pa.Name, "el atributo %q está asignado %d veces en la variación %d", pa.Name, n, idx+1)
		}
	}

	// fuga y pertenencia
	for _, as := range v.Attributes {
		pa, ok := findAttribute(parent, as)
		if !ok {
			add(as.AttributeName, "el atributo %q no está declarado en el producto", as.AttributeName)
			continue
		}
		if !pa.UsedForVariation {
			add(pa.Name, "el atributo %q no se usa para variaciones", pa.Name)
			continue
		}
		if as.IsWildcard() {
			continue
		}
		if !pa.HasOption(as.Option) {
			add(pa.Name, "valor inválido para el atributo %q: %q", pa.Name, as.Option)
		}
	}
	return out
}

func findAttribute(parent []domain.Attribute, as domain.AttributeValueAssignment) (domain.Attribute, bool) {
	for _, pa := range parent {
		if pa.Matches(as) {
			return pa, true
		}
	}
	return domain.Attribute{}, false
}
