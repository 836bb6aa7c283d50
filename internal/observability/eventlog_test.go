package observability

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestLog(t *testing.T) EventLog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logs", "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func TestEventLog_WriteAndRead(t *testing.T) {
	log := newTestLog(t)

	now := time.Now().UTC().Truncate(time.Millisecond)
	events := []Event{
		{Time: now, Level: "INFO", Type: EventLetterGenerated, Message: "letter generated", Data: map[string]any{"id": "a1"}},
		{Time: now.Add(time.Second), Level: "ERROR", Type: EventGenerationFailed, Message: "generation failed"},
	}
	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 events, got %d", len(result))
	}
	if result[0].Type != EventLetterGenerated {
		t.Errorf("expected type %s, got %s", EventLetterGenerated, result[0].Type)
	}
	if result[0].Data["id"] != "a1" {
		t.Errorf("expected data id a1, got %v", result[0].Data["id"])
	}
	if result[1].Level != "ERROR" {
		t.Errorf("expected level ERROR, got %s", result[1].Level)
	}
}

func TestEventLog_LogEventLevels(t *testing.T) {
	log := newTestLog(t)

	for _, typ := range []string{EventLetterGenerated, EventGenerationFailed, EventStoreDegraded} {
		if err := log.LogEvent(typ, map[string]any{"k": "v"}); err != nil {
			t.Fatalf("LogEvent(%s): %v", typ, err)
		}
	}

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	want := []string{"INFO", "ERROR", "WARN"}
	if len(result) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(result))
	}
	for i, e := range result {
		if e.Level != want[i] {
			t.Errorf("event %d (%s): level = %s, want %s", i, e.Type, e.Level, want[i])
		}
		if e.Time.IsZero() {
			t.Errorf("event %d has zero time", i)
		}
	}
}

func TestEventLog_FilterByTypeAndPrefix(t *testing.T) {
	log := newTestLog(t)

	now := time.Now().UTC()
	events := []Event{
		{Time: now, Level: "INFO", Type: EventLetterGenerated},
		{Time: now.Add(time.Second), Level: "INFO", Type: EventProfileSaved},
		{Time: now.Add(2 * time.Second), Level: "INFO", Type: EventLetterDeleted},
	}
	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}

	exact, err := log.Read(EventFilter{Type: EventLetterDeleted})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(exact) != 1 || exact[0].Type != EventLetterDeleted {
		t.Fatalf("exact filter: got %+v", exact)
	}

	prefixed, err := log.Read(EventFilter{Type: "letter."})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(prefixed) != 2 {
		t.Fatalf("prefix filter: expected 2 events, got %d", len(prefixed))
	}
	for _, e := range prefixed {
		if !strings.HasPrefix(e.Type, "letter.") {
			t.Errorf("unexpected type %s", e.Type)
		}
	}
}

func TestEventLog_FilterSinceAndLimit(t *testing.T) {
	log := newTestLog(t)

	base := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	for i, msg := range []string{"first", "second", "third", "fourth"} {
		e := Event{Time: base.Add(time.Duration(i) * time.Hour), Level: "INFO", Type: EventLetterGenerated, Message: msg}
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}

	since := base.Add(30 * time.Minute)
	result, err := log.Read(EventFilter{Since: &since, Limit: 2})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 events, got %d", len(result))
	}
	if result[0].Message != "third" || result[1].Message != "fourth" {
		t.Errorf("expected the two most recent events, got %q and %q", result[0].Message, result[1].Message)
	}
}

func TestEventLog_FilterByLevelIgnoresCase(t *testing.T) {
	log := newTestLog(t)

	now := time.Now().UTC()
	_ = log.Write(Event{Time: now, Level: "INFO", Type: EventLetterGenerated})
	_ = log.Write(Event{Time: now, Level: "WARN", Type: EventStoreDegraded})

	result, err := log.Read(EventFilter{Level: "warn"})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(result) != 1 || result[0].Type != EventStoreDegraded {
		t.Fatalf("expected the WARN event only, got %+v", result)
	}
}

func TestEventLog_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	content := `{"time":"2025-01-15T10:00:00Z","level":"INFO","type":"letter.generated","msg":"ok"}
not json at all

{"time":"2025-01-15T11:00:00Z","level":"INFO","type":"letter.deleted","msg":"ok"}
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("opening event log: %v", err)
	}
	defer log.Close()

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 valid events, got %d", len(result))
	}
}

func TestEventLog_EmptyLog(t *testing.T) {
	log := newTestLog(t)

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading empty log: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("expected 0 events from empty log, got %d", len(result))
	}
}

func TestEventLog_ConcurrentWrites(t *testing.T) {
	log := newTestLog(t)

	const goroutines = 10
	const eventsPerGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < eventsPerGoroutine; i++ {
				if err := log.LogEvent(EventLetterGenerated, map[string]any{"goroutine": id, "index": i}); err != nil {
					t.Errorf("concurrent write error: %v", err)
				}
			}
		}(g)
	}
	wg.Wait()

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events after concurrent writes: %v", err)
	}
	if expected := goroutines * eventsPerGoroutine; len(result) != expected {
		t.Errorf("expected %d events, got %d", expected, len(result))
	}
}
