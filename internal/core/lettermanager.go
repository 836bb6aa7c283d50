package core

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/courrier/pkg/models"
)

// LetterManager runs the letter lifecycle: validation, prompt assembly,
// generation, persistence and history queries.
type LetterManager interface {
	Generate(ctx context.Context, req models.LetterRequest) (*models.Letter, error)
	Preview(req models.LetterRequest) (string, error)
	ListLetters(newestFirst bool) []models.Letter
	GetLetter(id string) (*models.Letter, error)
	DeleteLetter(id string) (bool, error)
	Statistics() models.Statistics
	GetProfile() (*models.UserProfile, bool)
	SaveProfile(profile models.UserProfile) error
	ResetProfile() error
	Registry() LetterTypeRegistry
}

type letterManager struct {
	registry  LetterTypeRegistry
	repo      LetterRepository
	generator BodyGenerator
	events    EventLogger

	now   func() time.Time
	newID func() string

	// mu serialises the read-all/replace-all sequences on the letter list
	// inside this process. Repositories implementing HistoryLocker extend
	// that to other processes.
	mu sync.Mutex
}

// NewLetterManager wires a LetterManager. events may be nil.
func NewLetterManager(registry LetterTypeRegistry, repo LetterRepository, generator BodyGenerator, events EventLogger) LetterManager {
	return &letterManager{
		registry:  registry,
		repo:      repo,
		generator: generator,
		events:    events,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

func (m *letterManager) Registry() LetterTypeRegistry { return m.registry }

// validate checks the request in the order a user fills it in: letter type,
// sender profile, recipient, then the type's fields.
func (m *letterManager) validate(req models.LetterRequest) (models.LetterTypeDefinition, error) {
	if req.Type == "" {
		return models.LetterTypeDefinition{}, &ValidationError{Scope: "type", Reason: "no letter type selected"}
	}
	def, ok := m.registry.Lookup(req.Type)
	if !ok {
		return models.LetterTypeDefinition{}, fmt.Errorf("%w %q", ErrUnknownLetterType, req.Type)
	}
	if err := ValidateProfile(&req.Profile); err != nil {
		return def, err
	}
	if err := ValidateRecipient(req.Recipient); err != nil {
		return def, err
	}
	form, err := NewFormWithValues(def, req.AdditionalInfo)
	if err != nil {
		return def, err
	}
	if err := form.Validate(); err != nil {
		return def, err
	}
	return def, nil
}

// Preview returns the prompt that Generate would send, without any I/O.
func (m *letterManager) Preview(req models.LetterRequest) (string, error) {
	if _, err := m.validate(req); err != nil {
		return "", err
	}
	return BuildPrompt(req.Profile, req.Recipient, req.Type, req.AdditionalInfo), nil
}

// Generate validates req, asks the generator for a body and appends the
// resulting letter to the history. Nothing is stored when generation fails.
func (m *letterManager) Generate(ctx context.Context, req models.LetterRequest) (*models.Letter, error) {
	def, err := m.validate(req)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(req.Profile, req.Recipient, req.Type, req.AdditionalInfo)
	body, err := m.generator.Generate(ctx, prompt)
	if err != nil {
		m.logEvent("letter.generation_failed", map[string]any{
			"type":  string(req.Type),
			"error": err.Error(),
		})
		return nil, fmt.Errorf("generating %s letter: %w", req.Type, err)
	}

	now := m.now()
	status := models.StatusCompleted
	if req.Draft {
		status = models.StatusDraft
	}
	letter := models.Letter{
		ID:        m.newID(),
		Type:      req.Type,
		Title:     LetterTitle(def, req.Recipient),
		Content:   ComposeLetter(req.Profile, req.Recipient, now, body),
		Recipient: req.Recipient,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    status,
	}

	if err := m.appendLetter(letter); err != nil {
		return &letter, err
	}

	m.logEvent("letter.generated", map[string]any{
		"id":     letter.ID,
		"type":   string(letter.Type),
		"status": string(letter.Status),
	})
	return &letter, nil
}

// appendLetter returns the letter-level error; the generated letter is still
// handed back to the caller so it can be shown or exported.
func (m *letterManager) appendLetter(letter models.Letter) error {
	unlock, err := m.lockHistory()
	if err != nil {
		return fmt.Errorf("saving letter %s: %w", letter.ID, err)
	}
	defer unlock()

	letters := m.repo.ListLetters()
	letters = append(letters, letter)
	if err := m.repo.ReplaceLetters(letters); err != nil {
		return fmt.Errorf("saving letter %s: %w", letter.ID, err)
	}
	return nil
}

// lockHistory takes the in-process mutex and, when the repository supports
// it, the cross-process history lock.
func (m *letterManager) lockHistory() (func(), error) {
	m.mu.Lock()
	locker, ok := m.repo.(HistoryLocker)
	if !ok {
		return m.mu.Unlock, nil
	}
	release, err := locker.LockHistory()
	if err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("locking history: %w", err)
	}
	return func() {
		_ = release()
		m.mu.Unlock()
	}, nil
}

// ListLetters returns the history in storage order, or newest first when
// newestFirst is true.
func (m *letterManager) ListLetters(newestFirst bool) []models.Letter {
	letters := m.repo.ListLetters()
	if newestFirst {
		slices.SortStableFunc(letters, func(a, b models.Letter) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
	return letters
}

// GetLetter finds a letter by ID. A unique ID prefix of at least 4 characters
// is also accepted.
func (m *letterManager) GetLetter(id string) (*models.Letter, error) {
	letters := m.repo.ListLetters()
	for i := range letters {
		if letters[i].ID == id {
			return &letters[i], nil
		}
	}
	if len(id) >= 4 {
		var match *models.Letter
		for i := range letters {
			if strings.HasPrefix(letters[i].ID, id) {
				if match != nil {
					return nil, fmt.Errorf("letter id prefix %q is ambiguous", id)
				}
				match = &letters[i]
			}
		}
		if match != nil {
			return match, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrLetterNotFound, id)
}

// DeleteLetter removes the letter with the exact ID. It reports whether a
// record was removed; deleting an unknown ID leaves the store untouched.
func (m *letterManager) DeleteLetter(id string) (bool, error) {
	unlock, err := m.lockHistory()
	if err != nil {
		return false, fmt.Errorf("deleting letter %s: %w", id, err)
	}
	defer unlock()

	letters := m.repo.ListLetters()
	idx := slices.IndexFunc(letters, func(l models.Letter) bool { return l.ID == id })
	if idx < 0 {
		return false, nil
	}
	letters = slices.Delete(letters, idx, idx+1)
	if err := m.repo.ReplaceLetters(letters); err != nil {
		return false, fmt.Errorf("deleting letter %s: %w", id, err)
	}

	m.logEvent("letter.deleted", map[string]any{"id": id})
	return true, nil
}

func (m *letterManager) Statistics() models.Statistics {
	return ComputeStatistics(m.repo.ListLetters(), m.now())
}

// GetProfile returns the stored profile. A missing profile is reported as an
// empty one with ok=false, matching first-launch behaviour.
func (m *letterManager) GetProfile() (*models.UserProfile, bool) {
	p, ok := m.repo.GetProfile()
	if !ok {
		return &models.UserProfile{}, false
	}
	return p, true
}

// SaveProfile replaces the stored profile with the complete record given.
func (m *letterManager) SaveProfile(profile models.UserProfile) error {
	if err := m.repo.SaveProfile(profile); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	m.logEvent("profile.saved", nil)
	return nil
}

func (m *letterManager) ResetProfile() error {
	return m.SaveProfile(models.UserProfile{})
}

func (m *letterManager) logEvent(eventType string, data map[string]any) {
	if m.events == nil {
		return
	}
	// Non-fatal: event logging never blocks a letter operation.
	_ = m.events.LogEvent(eventType, data)
}
