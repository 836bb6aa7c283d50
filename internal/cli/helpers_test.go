package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/courrier/internal/core"
	"github.com/valter-silva-au/courrier/internal/storage"
	"github.com/valter-silva-au/courrier/pkg/models"
)

// stubGenerator returns a fixed body or error.
type stubGenerator struct {
	body  string
	err   error
	calls int
}

func (g *stubGenerator) Generate(_ context.Context, _ string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.body, nil
}

// useTestManager installs a LetterManager backed by an in-memory store and
// restores the previous one when the test ends.
func useTestManager(t *testing.T, gen *stubGenerator) core.LetterManager {
	t.Helper()
	orig := LetterMgr
	t.Cleanup(func() { LetterMgr = orig })

	store := storage.NewLetterStore(storage.NewMemoryKVStore(), nil, nil)
	LetterMgr = core.NewLetterManager(core.NewLetterTypeRegistry(), store, gen, nil)
	return LetterMgr
}

func testProfile() models.UserProfile {
	return models.UserProfile{
		FirstName:  "Jean",
		LastName:   "Dupont",
		Email:      "jean.dupont@example.fr",
		Address:    "12 rue des Lilas",
		PostalCode: "75011",
		City:       "Paris",
	}
}

// runCmd calls cmd.RunE with captured stdout and stderr.
func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	t.Cleanup(func() {
		cmd.SetOut(nil)
		cmd.SetErr(nil)
	})
	err := cmd.RunE(cmd, args)
	return stdout.String(), stderr.String(), err
}
