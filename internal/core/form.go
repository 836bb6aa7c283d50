package core

import (
	"fmt"
	"slices"
	"strings"

	"github.com/valter-silva-au/courrier/pkg/models"
)

// Form binds a letter type definition to the values collected so far.
// Form values are immutable: Set returns a new Form and leaves the receiver
// untouched.
type Form struct {
	def  models.LetterTypeDefinition
	info models.AdditionalInfo
}

// NewForm creates an empty form for def.
func NewForm(def models.LetterTypeDefinition) Form {
	return Form{def: def, info: models.AdditionalInfo{}}
}

// NewFormWithValues creates a form pre-filled with info. Each value goes through
// Set, so unknown keys and invalid select choices are rejected.
func NewFormWithValues(def models.LetterTypeDefinition, info models.AdditionalInfo) (Form, error) {
	f := NewForm(def)
	// Apply in declared order so the first error is deterministic.
	for _, field := range def.Fields {
		v, ok := info[field.Key]
		if !ok {
			continue
		}
		next, err := f.Set(field.Key, v)
		if err != nil {
			return Form{}, err
		}
		f = next
	}
	for key := range info {
		if _, ok := f.Field(key); !ok {
			return Form{}, &ValidationError{Scope: "fields", Reason: fmt.Sprintf("letter type %q has no field %q", def.Type, key)}
		}
	}
	return f, nil
}

// Definition returns the letter type the form renders.
func (f Form) Definition() models.LetterTypeDefinition { return f.def }

// Values returns a copy of the collected values.
func (f Form) Values() models.AdditionalInfo {
	out := make(models.AdditionalInfo, len(f.info))
	for k, v := range f.info {
		out[k] = v
	}
	return out
}

// Value returns the current value of key and whether it has been answered.
func (f Form) Value(key string) (string, bool) {
	v, ok := f.info[key]
	return v, ok
}

// Field returns the definition of key.
func (f Form) Field(key string) (models.FieldDefinition, bool) {
	for _, field := range f.def.Fields {
		if field.Key == key {
			return field, true
		}
	}
	return models.FieldDefinition{}, false
}

// Set records value for key and returns the updated form.
func (f Form) Set(key, value string) (Form, error) {
	field, ok := f.Field(key)
	if !ok {
		return f, &ValidationError{Scope: "fields", Reason: fmt.Sprintf("letter type %q has no field %q", f.def.Type, key)}
	}
	if err := AcceptsValue(field, value); err != nil {
		return f, err
	}
	return Form{def: f.def, info: f.info.With(key, value)}, nil
}

// AcceptsValue reports whether value can be stored in field. Select fields
// only take one of their literal options; the empty string clears any field.
// Date values are display strings and are not parsed.
func AcceptsValue(field models.FieldDefinition, value string) error {
	switch field.Kind {
	case models.FieldText, models.FieldTextarea, models.FieldDate:
		return nil
	case models.FieldSelect:
		if value == "" || slices.Contains(field.Options, value) {
			return nil
		}
		return &ValidationError{
			Scope:  "fields",
			Reason: fmt.Sprintf("%q is not an option of %s (choose one of: %s)", value, field.Key, strings.Join(field.Options, ", ")),
		}
	default:
		return unknownKindError(field.Kind)
	}
}

// FieldSatisfied reports whether field is optional or holds a non-blank value.
func FieldSatisfied(field models.FieldDefinition, info models.AdditionalInfo) bool {
	if !field.Required {
		return true
	}
	return strings.TrimSpace(info[field.Key]) != ""
}

// MissingRequired lists the required keys of def not satisfied by info, in
// declared order.
func MissingRequired(def models.LetterTypeDefinition, info models.AdditionalInfo) []string {
	var missing []string
	for _, field := range def.Fields {
		if !FieldSatisfied(field, info) {
			missing = append(missing, field.Key)
		}
	}
	return missing
}

// Validate returns a *ValidationError when a required field is unsatisfied.
func (f Form) Validate() error {
	if missing := MissingRequired(f.def, f.info); len(missing) > 0 {
		return &ValidationError{Scope: "fields", Missing: missing}
	}
	return nil
}

// ValidateProfile checks the profile fields required before generation.
func ValidateProfile(p *models.UserProfile) error {
	if p == nil {
		return &ValidationError{Scope: "profile", Missing: []string{"firstName", "lastName", "email"}}
	}
	var missing []string
	if strings.TrimSpace(p.FirstName) == "" {
		missing = append(missing, "firstName")
	}
	if strings.TrimSpace(p.LastName) == "" {
		missing = append(missing, "lastName")
	}
	if strings.TrimSpace(p.Email) == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return &ValidationError{Scope: "profile", Missing: missing}
	}
	return nil
}

// ValidateRecipient checks that the postal address of r is filled.
func ValidateRecipient(r models.Recipient) error {
	var missing []string
	if strings.TrimSpace(r.Address) == "" {
		missing = append(missing, "address")
	}
	if strings.TrimSpace(r.PostalCode) == "" {
		missing = append(missing, "postalCode")
	}
	if strings.TrimSpace(r.City) == "" {
		missing = append(missing, "city")
	}
	if len(missing) > 0 {
		return &ValidationError{Scope: "recipient", Missing: missing}
	}
	return nil
}
