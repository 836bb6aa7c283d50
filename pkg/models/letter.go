package models

import "time"

// LetterType identifies one entry of the compiled-in letter catalog.
type LetterType string

const (
	LetterResiliation    LetterType = "resiliation"
	LetterReclamation    LetterType = "reclamation"
	LetterDemande        LetterType = "demande"
	LetterCandidature    LetterType = "candidature"
	LetterRemerciement   LetterType = "remerciement"
	LetterMotivation     LetterType = "motivation"
	LetterExcuse         LetterType = "excuse"
	LetterConge          LetterType = "conge"
	LetterAdministrative LetterType = "administrative"
	LetterCommercial     LetterType = "commercial"
	LetterAutres         LetterType = "autres"
)

// LetterStatus represents the lifecycle state of a stored letter.
type LetterStatus string

const (
	StatusDraft     LetterStatus = "draft"
	StatusCompleted LetterStatus = "completed"
)

// FieldKind is the closed set of input kinds a letter field can have.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldTextarea FieldKind = "textarea"
	FieldSelect   FieldKind = "select"
	FieldDate     FieldKind = "date"
)

// FieldDefinition describes one input collected for a letter type.
type FieldDefinition struct {
	Key         string    `yaml:"key" json:"key"`
	Label       string    `yaml:"label" json:"label"`
	Kind        FieldKind `yaml:"kind" json:"kind"`
	Required    bool      `yaml:"required" json:"required"`
	Options     []string  `yaml:"options,omitempty" json:"options,omitempty"`
	Placeholder string    `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
}

// LetterTypeDefinition is a catalog entry. Fields are kept in display order.
type LetterTypeDefinition struct {
	Type        LetterType        `yaml:"type" json:"type"`
	Title       string            `yaml:"title" json:"title"`
	Description string            `yaml:"description" json:"description"`
	Icon        string            `yaml:"icon" json:"icon"`
	Color       string            `yaml:"color" json:"color"`
	Fields      []FieldDefinition `yaml:"fields" json:"fields"`
}

// UserProfile is the single sender record.
type UserProfile struct {
	FirstName  string `json:"firstName" yaml:"first_name"`
	LastName   string `json:"lastName" yaml:"last_name"`
	Email      string `json:"email" yaml:"email"`
	Phone      string `json:"phone" yaml:"phone"`
	Address    string `json:"address" yaml:"address"`
	PostalCode string `json:"postalCode" yaml:"postal_code"`
	City       string `json:"city" yaml:"city"`
	PhotoURI   string `json:"photoUri,omitempty" yaml:"photo_uri,omitempty"`
}

// Recipient is the addressee of a single letter. Only Address, PostalCode
// and City are mandatory.
type Recipient struct {
	Company    string `json:"company,omitempty"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Service    string `json:"service,omitempty"`
	Email      string `json:"email,omitempty"`
	Address    string `json:"address"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
}

// AdditionalInfo maps a FieldDefinition key to the value entered for it.
// A missing key means the field has not been answered.
type AdditionalInfo map[string]string

// With returns a copy of the map carrying key=value. The receiver is not modified.
func (a AdditionalInfo) With(key, value string) AdditionalInfo {
	next := make(AdditionalInfo, len(a)+1)
	for k, v := range a {
		next[k] = v
	}
	next[key] = value
	return next
}

// Letter is a generated letter as persisted in the letter history.
type Letter struct {
	ID        string       `json:"id"`
	Type      LetterType   `json:"type"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	Recipient Recipient    `json:"recipient"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Status    LetterStatus `json:"status"`
}

// LetterRequest gathers everything needed to generate one letter.
type LetterRequest struct {
	Profile        UserProfile
	Recipient      Recipient
	Type           LetterType
	AdditionalInfo AdditionalInfo
	Draft          bool
}

// DayActivity is the number of letters created on one day.
type DayActivity struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// Statistics is derived on demand from the stored letters.
type Statistics struct {
	TotalLetters   int                `json:"totalLetters"`
	LettersByType  map[LetterType]int `json:"lettersByType"`
	RecentActivity []DayActivity      `json:"recentActivity"`
	MonthlyGrowth  float64            `json:"monthlyGrowth"`
}
