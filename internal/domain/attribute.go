package domain

import (
	"fmt"
	"strings"
)

// Attribute es un eje declarado en el producto padre. ID <= 0 significa que
// todavía no existe en el servidor y se empareja por nombre.
type Attribute struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	Slug             string   `json:"slug"`
	Options          []string `json:"options"`
	Visible          bool     `json:"visible"`
	UsedForVariation bool     `json:"used_for_variation"`
}

// NewAttribute normaliza nombre y opciones y rechaza formas inválidas.
func NewAttribute(id int64, name string, options []string, visible, usedForVariation bool) (Attribute, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return Attribute{}, fmt.Errorf("%w: atributo sin nombre", ErrInvalidInput)
	}
	opts := make([]string, 0, len(options))
	seen := map[string]struct{}{}
	for _, o := range options {
		o = strings.TrimSpace(o)
		if o == "" {
			return Attribute{}, fmt.Errorf("%w: opción vacía en atributo %q", ErrInvalidInput, n)
		}
		if _, dup := seen[o]; dup {
			continue
		}
		seen[o] = struct{}{}
		opts = append(opts, o)
	}
	return Attribute{
		ID:               id,
		Name:             n,
		Slug:             Slugify(n),
		Options:          opts,
		Visible:          visible,
		UsedForVariation: usedForVariation,
	}, nil
}

// Persisted indica si el servidor ya asignó un id.
func (a Attribute) Persisted() bool { return a.ID > 0 }

// Matches reporta si la asignación refiere a este atributo: por id cuando
// ambos lados están persistidos, si no por nombre sin distinguir mayúsculas.
func (a Attribute) Matches(as AttributeValueAssignment) bool {
	if a.ID > 0 && as.AttributeID > 0 {
		return a.ID == as.AttributeID
	}
	return strings.EqualFold(strings.TrimSpace(a.Name), strings.TrimSpace(as.AttributeName))
}

// HasOption reporta si opt pertenece a las opciones declaradas.
func (a Attribute) HasOption(opt string) bool {
	for _, o := range a.Options {
		if o == opt {
			return true
		}
	}
	return false
}

// CanonicalOption devuelve la opción declarada que coincide con opt sin
// distinguir mayúsculas, o opt tal cual si no hay coincidencia.
func (a Attribute) CanonicalOption(opt string) string {
	for _, o := range a.Options {
		if strings.EqualFold(o, opt) {
			return o
		}
	}
	return opt
}

// AttributeValueAssignment liga un valor de un eje a una variación.
// Option vacío es comodín ("cualquier valor").
type AttributeValueAssignment struct {
	AttributeID   int64  `json:"attribute_id"`
	AttributeName string `json:"attribute_name"`
	Option        string `json:"option"`
}

func (a AttributeValueAssignment) IsWildcard() bool { return a.Option == "" }

// AttributeSelection son los valores elegidos de un eje para generar combinaciones.
type AttributeSelection struct {
	AttributeID   int64    `json:"attribute_id"`
	AttributeName string   `json:"attribute_name" validate:"required"`
	Values        []string `json:"values"`
}

func Slugify(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-"))
}
