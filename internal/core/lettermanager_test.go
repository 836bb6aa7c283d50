package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/valter-silva-au/courrier/pkg/models"
)

// inMemoryRepo implements LetterRepository for testing.
type inMemoryRepo struct {
	mu       sync.Mutex
	profile  *models.UserProfile
	letters  []models.Letter
	failSave error
	writes   int
}

func (r *inMemoryRepo) GetProfile() (*models.UserProfile, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.profile == nil {
		return nil, false
	}
	p := *r.profile
	return &p, true
}

func (r *inMemoryRepo) SaveProfile(profile models.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave != nil {
		return r.failSave
	}
	r.writes++
	r.profile = &profile
	return nil
}

func (r *inMemoryRepo) ListLetters() []models.Letter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Letter(nil), r.letters...)
}

func (r *inMemoryRepo) ReplaceLetters(letters []models.Letter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave != nil {
		return r.failSave
	}
	r.writes++
	r.letters = append([]models.Letter(nil), letters...)
	return nil
}

// stubGenerator records prompts and returns a fixed body or error.
type stubGenerator struct {
	mu      sync.Mutex
	body    string
	err     error
	prompts []string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.body, nil
}

func (g *stubGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

// recordingEvents implements EventLogger for testing.
type recordingEvents struct {
	mu     sync.Mutex
	events []string
}

func (e *recordingEvents) LogEvent(eventType string, _ map[string]any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, eventType)
	return nil
}

var fixedNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func newTestManager(repo *inMemoryRepo, gen *stubGenerator, events *recordingEvents) *letterManager {
	var logger EventLogger
	if events != nil {
		logger = events
	}
	m := NewLetterManager(NewLetterTypeRegistry(), repo, gen, logger).(*letterManager)
	m.now = func() time.Time { return fixedNow }
	counter := 0
	m.newID = func() string {
		counter++
		return fmt.Sprintf("letter-%04d", counter)
	}
	return m
}

func validRequest() models.LetterRequest {
	return models.LetterRequest{
		Profile:   testProfile(),
		Recipient: testRecipient(),
		Type:      models.LetterResiliation,
		AdditionalInfo: models.AdditionalInfo{
			"contractType":    "Internet",
			"resiliationDate": "01/11/2026",
		},
	}
}

func TestGenerate_Success(t *testing.T) {
	repo := &inMemoryRepo{}
	gen := &stubGenerator{body: "Madame, Monsieur,\n\nJe vous prie de résilier mon contrat."}
	events := &recordingEvents{}
	m := newTestManager(repo, gen, events)

	letter, err := m.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if letter.ID != "letter-0001" {
		t.Errorf("ID = %q", letter.ID)
	}
	if letter.Type != models.LetterResiliation || letter.Status != models.StatusCompleted {
		t.Errorf("unexpected type/status: %s/%s", letter.Type, letter.Status)
	}
	if letter.Title != "Résiliation - Orange" {
		t.Errorf("Title = %q", letter.Title)
	}
	if !letter.CreatedAt.Equal(fixedNow) || !letter.UpdatedAt.Equal(fixedNow) {
		t.Errorf("timestamps = %v/%v, want %v", letter.CreatedAt, letter.UpdatedAt, fixedNow)
	}
	wantContent := FormatHeader(testProfile(), testRecipient(), fixedNow) + gen.body
	if letter.Content != wantContent {
		t.Errorf("Content mismatch\n got: %q\nwant: %q", letter.Content, wantContent)
	}

	if len(repo.letters) != 1 || repo.letters[0].ID != letter.ID {
		t.Fatalf("expected the letter to be stored, got %+v", repo.letters)
	}
	if len(gen.prompts) != 1 || !strings.HasPrefix(gen.prompts[0], "Profil utilisateur : Jean Dupont") {
		t.Errorf("unexpected prompts: %q", gen.prompts)
	}
	if len(events.events) != 1 || events.events[0] != "letter.generated" {
		t.Errorf("events = %v", events.events)
	}
}

func TestGenerate_Draft(t *testing.T) {
	repo := &inMemoryRepo{}
	m := newTestManager(repo, &stubGenerator{body: "corps"}, nil)

	req := validRequest()
	req.Draft = true
	letter, err := m.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if letter.Status != models.StatusDraft {
		t.Errorf("Status = %s, want draft", letter.Status)
	}
}

func TestGenerate_ValidationHappensBeforeIO(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.LetterRequest)
		check  func(error) bool
	}{
		{"no type", func(r *models.LetterRequest) { r.Type = "" }, IsValidationError},
		{"unknown type", func(r *models.LetterRequest) { r.Type = "poeme" }, func(err error) bool { return errors.Is(err, ErrUnknownLetterType) }},
		{"missing email", func(r *models.LetterRequest) { r.Profile.Email = "" }, IsValidationError},
		{"missing recipient city", func(r *models.LetterRequest) { r.Recipient.City = "" }, IsValidationError},
		{"missing required field", func(r *models.LetterRequest) {
			r.AdditionalInfo = models.AdditionalInfo{"contractType": "Internet"}
		}, IsValidationError},
		{"select out of options", func(r *models.LetterRequest) {
			r.AdditionalInfo = r.AdditionalInfo.With("contractType", "Gaz")
		}, IsValidationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &inMemoryRepo{}
			gen := &stubGenerator{body: "x"}
			m := newTestManager(repo, gen, nil)

			req := validRequest()
			tt.mutate(&req)
			letter, err := m.Generate(context.Background(), req)
			if err == nil || !tt.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
			if letter != nil {
				t.Errorf("expected no letter, got %+v", letter)
			}
			if gen.calls() != 0 {
				t.Error("generator must not be called when validation fails")
			}
			if repo.writes != 0 {
				t.Error("store must not be written when validation fails")
			}
		})
	}
}

func TestGenerate_FailureStoresNothing(t *testing.T) {
	repo := &inMemoryRepo{letters: []models.Letter{{ID: "existing", Type: models.LetterAutres}}}
	genErr := errors.New("quota exceeded")
	events := &recordingEvents{}
	m := newTestManager(repo, &stubGenerator{err: genErr}, events)

	letter, err := m.Generate(context.Background(), validRequest())
	if !errors.Is(err, genErr) {
		t.Fatalf("expected wrapped generator error, got %v", err)
	}
	if letter != nil {
		t.Errorf("expected nil letter, got %+v", letter)
	}
	if repo.writes != 0 || len(repo.letters) != 1 {
		t.Errorf("history changed after a failed generation: %+v", repo.letters)
	}
	if len(events.events) != 1 || events.events[0] != "letter.generation_failed" {
		t.Errorf("events = %v", events.events)
	}
}

func TestGenerate_SaveFailureReturnsLetter(t *testing.T) {
	saveErr := errors.New("disk full")
	repo := &inMemoryRepo{failSave: saveErr}
	m := newTestManager(repo, &stubGenerator{body: "corps"}, nil)

	letter, err := m.Generate(context.Background(), validRequest())
	if !errors.Is(err, saveErr) {
		t.Fatalf("expected save error, got %v", err)
	}
	if letter == nil || letter.Content == "" {
		t.Error("the generated letter should still be returned")
	}
}

func TestPreview_NoIO(t *testing.T) {
	repo := &inMemoryRepo{}
	gen := &stubGenerator{body: "x"}
	m := newTestManager(repo, gen, nil)

	req := validRequest()
	prompt, err := m.Preview(req)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if prompt != BuildPrompt(req.Profile, req.Recipient, req.Type, req.AdditionalInfo) {
		t.Errorf("unexpected prompt %q", prompt)
	}
	if gen.calls() != 0 || repo.writes != 0 {
		t.Error("Preview must not generate or store")
	}
}

func TestDeleteLetter(t *testing.T) {
	repo := &inMemoryRepo{letters: []models.Letter{{ID: "1"}, {ID: "2"}, {ID: "3"}}}
	events := &recordingEvents{}
	m := newTestManager(repo, &stubGenerator{}, events)

	removed, err := m.DeleteLetter("2")
	if err != nil || !removed {
		t.Fatalf("DeleteLetter(2) = %v, %v", removed, err)
	}
	got := m.ListLetters(false)
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Errorf("remaining letters = %+v, want [1 3] in order", got)
	}

	writes := repo.writes
	removed, err = m.DeleteLetter("2")
	if err != nil || removed {
		t.Errorf("second delete = %v, %v; want false, nil", removed, err)
	}
	if repo.writes != writes {
		t.Error("deleting an unknown id must not write")
	}
	if len(events.events) != 1 || events.events[0] != "letter.deleted" {
		t.Errorf("events = %v", events.events)
	}
}

func TestListLetters_NewestFirst(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC) }
	repo := &inMemoryRepo{letters: []models.Letter{
		{ID: "a", CreatedAt: day(1)},
		{ID: "b", CreatedAt: day(3)},
		{ID: "c", CreatedAt: day(2)},
	}}
	m := newTestManager(repo, &stubGenerator{}, nil)

	stored := m.ListLetters(false)
	if stored[0].ID != "a" || stored[1].ID != "b" || stored[2].ID != "c" {
		t.Errorf("storage order not kept: %+v", stored)
	}
	sorted := m.ListLetters(true)
	if sorted[0].ID != "b" || sorted[1].ID != "c" || sorted[2].ID != "a" {
		t.Errorf("expected newest first, got %+v", sorted)
	}
	if repo.letters[0].ID != "a" {
		t.Error("sorting must not reorder the stored history")
	}
}

func TestGetLetter(t *testing.T) {
	repo := &inMemoryRepo{letters: []models.Letter{
		{ID: "abcd-1111"},
		{ID: "abcd-2222"},
		{ID: "ef01-3333"},
	}}
	m := newTestManager(repo, &stubGenerator{}, nil)

	if l, err := m.GetLetter("abcd-2222"); err != nil || l.ID != "abcd-2222" {
		t.Errorf("exact lookup = %v, %v", l, err)
	}
	if l, err := m.GetLetter("ef01"); err != nil || l.ID != "ef01-3333" {
		t.Errorf("prefix lookup = %v, %v", l, err)
	}
	if _, err := m.GetLetter("abcd"); err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("expected ambiguous prefix error, got %v", err)
	}
	if _, err := m.GetLetter("ef"); !errors.Is(err, ErrLetterNotFound) {
		t.Errorf("short prefixes must not match, got %v", err)
	}
	if _, err := m.GetLetter("zzzz"); !errors.Is(err, ErrLetterNotFound) {
		t.Errorf("expected ErrLetterNotFound, got %v", err)
	}
}

func TestProfileLifecycle(t *testing.T) {
	repo := &inMemoryRepo{}
	events := &recordingEvents{}
	m := newTestManager(repo, &stubGenerator{}, events)

	p, ok := m.GetProfile()
	if ok || p == nil || *p != (models.UserProfile{}) {
		t.Errorf("first launch: got %+v, %v; want empty, false", p, ok)
	}

	if err := m.SaveProfile(testProfile()); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	p, ok = m.GetProfile()
	if !ok || *p != testProfile() {
		t.Errorf("GetProfile = %+v, %v", p, ok)
	}

	if err := m.ResetProfile(); err != nil {
		t.Fatalf("ResetProfile: %v", err)
	}
	p, _ = m.GetProfile()
	if *p != (models.UserProfile{}) {
		t.Errorf("profile after reset = %+v", p)
	}
	if len(events.events) != 2 {
		t.Errorf("expected 2 profile.saved events, got %v", events.events)
	}
}

func TestStatistics_FromHistory(t *testing.T) {
	repo := &inMemoryRepo{letters: []models.Letter{
		{ID: "1", Type: models.LetterResiliation, CreatedAt: fixedNow},
		{ID: "2", Type: models.LetterResiliation, CreatedAt: fixedNow},
		{ID: "3", Type: models.LetterDemande, CreatedAt: fixedNow},
	}}
	m := newTestManager(repo, &stubGenerator{}, nil)

	stats := m.Statistics()
	if stats.TotalLetters != 3 || stats.LettersByType[models.LetterResiliation] != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.RecentActivity[len(stats.RecentActivity)-1].Count != 3 {
		t.Errorf("today's bucket = %+v", stats.RecentActivity)
	}
}

func TestGenerate_ConcurrentAppendsKeepAllLetters(t *testing.T) {
	repo := &inMemoryRepo{}
	m := NewLetterManager(NewLetterTypeRegistry(), repo, &stubGenerator{body: "corps"}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Generate(context.Background(), validRequest()); err != nil {
				t.Errorf("Generate: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := len(m.ListLetters(false)); got != 20 {
		t.Errorf("expected 20 letters, got %d", got)
	}
}

// lockingRepo adds a HistoryLocker to inMemoryRepo.
type lockingRepo struct {
	*inMemoryRepo
	lockErr  error
	held     bool
	locks    int
	unlocks  int
	overlaps int
}

func (r *lockingRepo) LockHistory() (func() error, error) {
	if r.lockErr != nil {
		return nil, r.lockErr
	}
	if r.held {
		r.overlaps++
	}
	r.held = true
	r.locks++
	return func() error {
		r.held = false
		r.unlocks++
		return nil
	}, nil
}

func TestHistoryLock_HeldAroundWrites(t *testing.T) {
	repo := &lockingRepo{inMemoryRepo: &inMemoryRepo{}}
	m := NewLetterManager(NewLetterTypeRegistry(), repo, &stubGenerator{body: "x"}, nil)

	letter, err := m.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if _, err := m.DeleteLetter(letter.ID); err != nil {
		t.Fatalf("DeleteLetter() error: %v", err)
	}
	if _, err := m.DeleteLetter(letter.ID); err != nil {
		t.Fatalf("second DeleteLetter() error: %v", err)
	}

	if repo.locks != 3 || repo.unlocks != 3 || repo.overlaps != 0 {
		t.Errorf("locks=%d unlocks=%d overlaps=%d, want 3/3/0", repo.locks, repo.unlocks, repo.overlaps)
	}
}

func TestHistoryLock_FailureStoresNothing(t *testing.T) {
	repo := &lockingRepo{inMemoryRepo: &inMemoryRepo{}, lockErr: errors.New("lock busy")}
	m := NewLetterManager(NewLetterTypeRegistry(), repo, &stubGenerator{body: "x"}, nil)

	letter, err := m.Generate(context.Background(), validRequest())
	if err == nil || !strings.Contains(err.Error(), "lock busy") {
		t.Fatalf("expected lock error, got %v", err)
	}
	if letter == nil {
		t.Error("generated letter should still be returned")
	}
	if len(repo.letters) != 0 {
		t.Errorf("nothing should be stored, got %d letters", len(repo.letters))
	}
}
