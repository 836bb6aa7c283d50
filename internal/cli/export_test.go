package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/courrier/internal/observability"
)

// setExportFlags sets the export flags and restores the defaults after the test.
func setExportFlags(t *testing.T, format, output string) {
	t.Helper()
	exportFormat, exportOutput = format, output
	t.Cleanup(func() { exportFormat, exportOutput = "txt", "" })
}

func TestExportCommand_TextFile(t *testing.T) {
	mgr := useTestManager(t, &stubGenerator{body: "Madame, Monsieur,"})
	letter := seedLetter(t, mgr, "Orange")
	path := filepath.Join(t.TempDir(), "out", "lettre.txt")
	setExportFlags(t, "txt", path)

	out, _, err := runCmd(t, exportCmd, letter.ID[:8])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Exported Résiliation - Orange to "+path) {
		t.Errorf("unexpected output %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if string(data) != letter.Content {
		t.Errorf("file content = %q, want %q", data, letter.Content)
	}
}

func TestExportCommand_HTMLLogsEvent(t *testing.T) {
	mgr := useTestManager(t, &stubGenerator{body: "Tarif < 10 €"})
	letter := seedLetter(t, mgr, "Orange")
	dir := t.TempDir()
	path := filepath.Join(dir, "lettre.html")
	setExportFlags(t, "HTML", path)

	log, err := observability.NewJSONLEventLog(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	defer log.Close()
	origLog := EventLog
	EventLog = log
	defer func() { EventLog = origLog }()

	if _, _, err := runCmd(t, exportCmd, letter.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "<pre>") || !strings.Contains(string(data), "Tarif &lt; 10 €") {
		t.Errorf("unexpected HTML:\n%s", data)
	}

	events, err := log.Read(observability.EventFilter{Type: observability.EventLetterExported})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Data["format"] != "html" || events[0].Data["id"] != letter.ID {
		t.Errorf("unexpected events %+v", events)
	}
}

func TestExportCommand_Stdout(t *testing.T) {
	mgr := useTestManager(t, &stubGenerator{body: "corps"})
	letter := seedLetter(t, mgr, "Orange")
	setExportFlags(t, "txt", "-")

	out, _, err := runCmd(t, exportCmd, letter.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != letter.Content {
		t.Errorf("stdout = %q, want the letter content", out)
	}
}

func TestExportCommand_Errors(t *testing.T) {
	mgr := useTestManager(t, &stubGenerator{body: "corps"})
	letter := seedLetter(t, mgr, "Orange")

	setExportFlags(t, "pdf", "-")
	if _, _, err := runCmd(t, exportCmd, letter.ID); err == nil || !strings.Contains(err.Error(), "unsupported export format") {
		t.Errorf("unexpected error for pdf: %v", err)
	}

	setExportFlags(t, "txt", "-")
	if _, _, err := runCmd(t, exportCmd, "nope-nope"); err == nil {
		t.Error("expected error for unknown letter")
	}
}

func TestMailtoCommand(t *testing.T) {
	mgr := useTestManager(t, &stubGenerator{body: "Bonjour madame"})
	letter := seedLetter(t, mgr, "Orange")

	out, _, err := runCmd(t, mailtoCmd, letter.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "mailto:?subject=Courrier&body=") {
		t.Errorf("unexpected link %q", out)
	}
	if !strings.Contains(out, "Bonjour%20madame") || strings.Contains(out, "+") {
		t.Errorf("spaces must be encoded as %%20: %q", out)
	}
}
