package cli

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/valter-silva-au/courrier/internal/core"
	"github.com/valter-silva-au/courrier/pkg/models"
)

// errFormCancelled is returned when the user leaves the form with esc or ctrl+c.
var errFormCancelled = errors.New("cancelled")

// recipientPrefix namespaces recipient answers inside the combined form.
const recipientPrefix = "recipient."

// recipientFields are asked before the letter type's own fields.
var recipientFields = []models.FieldDefinition{
	{Key: recipientPrefix + "company", Label: "Entreprise / Organisme", Kind: models.FieldText},
	{Key: recipientPrefix + "service", Label: "Service", Kind: models.FieldText},
	{Key: recipientPrefix + "firstName", Label: "Prénom du destinataire", Kind: models.FieldText},
	{Key: recipientPrefix + "lastName", Label: "Nom du destinataire", Kind: models.FieldText},
	{Key: recipientPrefix + "address", Label: "Adresse", Kind: models.FieldText, Required: true},
	{Key: recipientPrefix + "postalCode", Label: "Code postal", Kind: models.FieldText, Required: true},
	{Key: recipientPrefix + "city", Label: "Ville", Kind: models.FieldText, Required: true},
	{Key: recipientPrefix + "email", Label: "Email du destinataire", Kind: models.FieldText},
}

// Style definitions.
var (
	formTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	formLabelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	formActiveStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	formValueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230"))
	formOptionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	formErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	formSectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("141")).MarginTop(1)
)

// combinedDefinition prepends the recipient fields to def.
func combinedDefinition(def models.LetterTypeDefinition) models.LetterTypeDefinition {
	combined := def
	combined.Fields = make([]models.FieldDefinition, 0, len(recipientFields)+len(def.Fields))
	combined.Fields = append(combined.Fields, recipientFields...)
	combined.Fields = append(combined.Fields, def.Fields...)
	return combined
}

// recipientAnswers flattens a recipient into combined-form answers.
func recipientAnswers(r models.Recipient) models.AdditionalInfo {
	info := models.AdditionalInfo{}
	for key, v := range map[string]string{
		"company": r.Company, "service": r.Service, "firstName": r.FirstName, "lastName": r.LastName,
		"address": r.Address, "postalCode": r.PostalCode, "city": r.City, "email": r.Email,
	} {
		if v != "" {
			info[recipientPrefix+key] = v
		}
	}
	return info
}

// splitAnswers separates combined-form answers into the recipient and the
// letter type's additional information.
func splitAnswers(values models.AdditionalInfo) (models.Recipient, models.AdditionalInfo) {
	var r models.Recipient
	info := models.AdditionalInfo{}
	for k, v := range values {
		key, isRecipient := strings.CutPrefix(k, recipientPrefix)
		if !isRecipient {
			if v != "" {
				info[k] = v
			}
			continue
		}
		switch key {
		case "company":
			r.Company = v
		case "service":
			r.Service = v
		case "firstName":
			r.FirstName = v
		case "lastName":
			r.LastName = v
		case "address":
			r.Address = v
		case "postalCode":
			r.PostalCode = v
		case "city":
			r.City = v
		case "email":
			r.Email = v
		}
	}
	return r, info
}

type formModel struct {
	title  string
	form   core.Form
	fields []models.FieldDefinition
	index  int

	// input holds the text being edited for text, textarea and date fields.
	input []rune
	// cursor is the highlighted option for select fields.
	cursor int

	err       string
	done      bool
	cancelled bool
}

func newFormModel(def models.LetterTypeDefinition, initial models.AdditionalInfo) (formModel, error) {
	combined := combinedDefinition(def)
	form, err := core.NewFormWithValues(combined, initial)
	if err != nil {
		return formModel{}, err
	}
	m := formModel{
		title:  def.Title,
		form:   form,
		fields: combined.Fields,
	}
	m.load()
	return m, nil
}

// choices lists the selectable values of a select field. The leading "" is
// the unselected state, so a required select stays missing until the user
// picks an option.
func choices(f models.FieldDefinition) []string {
	return append([]string{""}, f.Options...)
}

func (m *formModel) current() models.FieldDefinition {
	return m.fields[m.index]
}

// load copies the stored value of the focused field into the editor state.
func (m *formModel) load() {
	v, _ := m.form.Value(m.current().Key)
	m.input = []rune(v)
	m.cursor = 0
	if m.current().Kind == models.FieldSelect {
		for i, c := range choices(m.current()) {
			if c == v {
				m.cursor = i
				break
			}
		}
	}
}

// commit stores the editor state into the form.
func (m *formModel) commit() bool {
	f := m.current()
	value := string(m.input)
	if f.Kind == models.FieldSelect {
		opts := choices(f)
		if len(opts) == 1 {
			m.err = fmt.Sprintf("%s has no options", f.Label)
			return false
		}
		value = opts[m.cursor]
	}
	next, err := m.form.Set(f.Key, value)
	if err != nil {
		m.err = err.Error()
		return false
	}
	m.form = next
	m.err = ""
	return true
}

func (m formModel) advance() (tea.Model, tea.Cmd) {
	if !m.commit() {
		return m, nil
	}
	if m.index < len(m.fields)-1 {
		m.index++
		m.load()
		return m, nil
	}

	err := m.form.Validate()
	var ve *core.ValidationError
	if errors.As(err, &ve) && len(ve.Missing) > 0 {
		m.err = err.Error()
		for i, f := range m.fields {
			if f.Key == ve.Missing[0] {
				m.index = i
				break
			}
		}
		m.load()
		return m, nil
	}
	if err != nil {
		m.err = err.Error()
		return m, nil
	}
	m.done = true
	return m, tea.Quit
}

func (m formModel) back() (tea.Model, tea.Cmd) {
	if !m.commit() || m.index == 0 {
		return m, nil
	}
	m.index--
	m.load()
	return m, nil
}

func (m formModel) Init() tea.Cmd {
	return nil
}

func (m formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.cancelled = true
		return m, tea.Quit
	case tea.KeyShiftTab:
		return m.back()
	case tea.KeyTab:
		return m.advance()
	}

	f := m.current()
	switch f.Kind {
	case models.FieldSelect:
		n := len(choices(f))
		switch key.String() {
		case "up", "k":
			if n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
			}
		case "down", "j":
			if n > 0 {
				m.cursor = (m.cursor + 1) % n
			}
		case "enter":
			return m.advance()
		}
		return m, nil

	case models.FieldText, models.FieldDate, models.FieldTextarea:
		switch key.Type {
		case tea.KeyEnter:
			if f.Kind == models.FieldTextarea {
				m.input = append(m.input, '\n')
				return m, nil
			}
			return m.advance()
		case tea.KeyCtrlD:
			return m.advance()
		case tea.KeyBackspace:
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
		case tea.KeySpace:
			m.input = append(m.input, ' ')
		case tea.KeyRunes:
			m.input = append(m.input, key.Runes...)
		}
		return m, nil

	default:
		m.err = core.AcceptsValue(f, "").Error()
		return m, nil
	}
}

func (m formModel) View() string {
	var b strings.Builder
	b.WriteString(formTitleStyle.Render(" " + m.title + " "))
	b.WriteString("\n")

	for i, f := range m.fields {
		if i == 0 {
			b.WriteString(formSectionStyle.Render("Destinataire"))
			b.WriteString("\n")
		} else if i == len(recipientFields) {
			b.WriteString(formSectionStyle.Render("Informations"))
			b.WriteString("\n")
		}

		label := f.Label
		if f.Required {
			label += " *"
		}

		if i != m.index {
			v, _ := m.form.Value(f.Key)
			b.WriteString("  " + formLabelStyle.Render(label) + ": " + formValueStyle.Render(strings.ReplaceAll(v, "\n", " / ")) + "\n")
			continue
		}

		b.WriteString("> " + formActiveStyle.Render(label) + "\n")
		if f.Kind == models.FieldSelect {
			for j, c := range choices(f) {
				if c == "" {
					c = "(vide)"
					if f.Required {
						c = "Sélectionner..."
					}
				}
				if j == m.cursor {
					b.WriteString("    " + formOptionStyle.Render("● "+c) + "\n")
				} else {
					b.WriteString("    ○ " + c + "\n")
				}
			}
			continue
		}
		text := string(m.input)
		if text == "" && f.Placeholder != "" {
			text = formLabelStyle.Render(f.Placeholder)
		}
		for _, line := range strings.Split(text, "\n") {
			b.WriteString("    " + line + "\n")
		}
	}

	if m.err != "" {
		b.WriteString("\n" + formErrorStyle.Render(m.err) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render(m.help()))
	return b.String()
}

func (m formModel) help() string {
	switch m.current().Kind {
	case models.FieldSelect:
		return "up/down: choose | enter/tab: next | shift+tab: back | esc: cancel"
	case models.FieldTextarea:
		return "enter: new line | tab/ctrl+d: next | shift+tab: back | esc: cancel"
	default:
		return "enter/tab: next | shift+tab: back | esc: cancel"
	}
}

// runForm shows the interactive form and returns the recipient and field
// answers once every required field is filled.
func runForm(def models.LetterTypeDefinition, recipient models.Recipient, info models.AdditionalInfo) (models.Recipient, models.AdditionalInfo, error) {
	initial := recipientAnswers(recipient)
	for k, v := range info {
		initial[k] = v
	}
	m, err := newFormModel(def, initial)
	if err != nil {
		return models.Recipient{}, nil, err
	}

	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return models.Recipient{}, nil, fmt.Errorf("running form: %w", err)
	}
	fm := final.(formModel)
	if fm.cancelled || !fm.done {
		return models.Recipient{}, nil, errFormCancelled
	}
	r, answers := splitAnswers(fm.form.Values())
	return r, answers, nil
}
