package core

import (
	_ "embed"
	"fmt"

	"github.com/valter-silva-au/courrier/pkg/models"
	"gopkg.in/yaml.v3"
)

//go:embed lettertypes.yaml
var letterTypesYAML []byte

// catalog is decoded once at init. The YAML is compiled into the binary, so a
// decode or validation failure is a build defect.
var catalog = mustLoadCatalog(letterTypesYAML)

func mustLoadCatalog(data []byte) []models.LetterTypeDefinition {
	defs, err := parseCatalog(data)
	if err != nil {
		panic(fmt.Sprintf("letter type catalog: %v", err))
	}
	return defs
}

func parseCatalog(data []byte) ([]models.LetterTypeDefinition, error) {
	var defs []models.LetterTypeDefinition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if err := ValidateCatalog(defs); err != nil {
		return nil, err
	}
	return defs, nil
}

// LetterTypeRegistry is a read-only view over the letter type catalog.
type LetterTypeRegistry interface {
	Lookup(t models.LetterType) (models.LetterTypeDefinition, bool)
	All() []models.LetterTypeDefinition
	Types() []models.LetterType
}

type staticRegistry struct {
	defs  []models.LetterTypeDefinition
	index map[models.LetterType]int
}

// NewLetterTypeRegistry returns the registry backed by the compiled-in catalog.
func NewLetterTypeRegistry() LetterTypeRegistry {
	return newRegistry(catalog)
}

func newRegistry(defs []models.LetterTypeDefinition) *staticRegistry {
	r := &staticRegistry{
		defs:  defs,
		index: make(map[models.LetterType]int, len(defs)),
	}
	for i, d := range defs {
		r.index[d.Type] = i
	}
	return r
}

// Lookup returns a copy of the definition for t.
func (r *staticRegistry) Lookup(t models.LetterType) (models.LetterTypeDefinition, bool) {
	i, ok := r.index[t]
	if !ok {
		return models.LetterTypeDefinition{}, false
	}
	return cloneDefinition(r.defs[i]), true
}

// All returns every definition in catalog order.
func (r *staticRegistry) All() []models.LetterTypeDefinition {
	out := make([]models.LetterTypeDefinition, len(r.defs))
	for i, d := range r.defs {
		out[i] = cloneDefinition(d)
	}
	return out
}

func (r *staticRegistry) Types() []models.LetterType {
	out := make([]models.LetterType, len(r.defs))
	for i, d := range r.defs {
		out[i] = d.Type
	}
	return out
}

func cloneDefinition(d models.LetterTypeDefinition) models.LetterTypeDefinition {
	fields := make([]models.FieldDefinition, len(d.Fields))
	for i, f := range d.Fields {
		f.Options = append([]string(nil), f.Options...)
		fields[i] = f
	}
	d.Fields = fields
	return d
}

// ValidateCatalog checks the structural invariants of a catalog: unique type
// identifiers, unique field keys per type, known field kinds, and at least one
// option on every select field.
func ValidateCatalog(defs []models.LetterTypeDefinition) error {
	seenTypes := make(map[models.LetterType]bool, len(defs))
	for _, d := range defs {
		if d.Type == "" {
			return fmt.Errorf("letter type with empty identifier")
		}
		if seenTypes[d.Type] {
			return fmt.Errorf("duplicate letter type %q", d.Type)
		}
		seenTypes[d.Type] = true

		seenKeys := make(map[string]bool, len(d.Fields))
		for _, f := range d.Fields {
			if f.Key == "" {
				return fmt.Errorf("letter type %q: field with empty key", d.Type)
			}
			if seenKeys[f.Key] {
				return fmt.Errorf("letter type %q: duplicate field key %q", d.Type, f.Key)
			}
			seenKeys[f.Key] = true

			switch f.Kind {
			case models.FieldSelect:
				if len(f.Options) == 0 {
					return fmt.Errorf("letter type %q: select field %q has no options", d.Type, f.Key)
				}
			case models.FieldText, models.FieldTextarea, models.FieldDate:
				if len(f.Options) > 0 {
					return fmt.Errorf("letter type %q: field %q of kind %s cannot declare options", d.Type, f.Key, f.Kind)
				}
			default:
				return fmt.Errorf("letter type %q: field %q: %w", d.Type, f.Key, unknownKindError(f.Kind))
			}
		}
	}
	return nil
}
