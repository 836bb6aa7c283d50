package core

import (
	"context"

	"github.com/valter-silva-au/courrier/pkg/models"
)

// LetterRepository is the subset of storage.LetterStore that LetterManager
// needs. Defining it here keeps core independent of the storage package.
type LetterRepository interface {
	GetProfile() (*models.UserProfile, bool)
	SaveProfile(profile models.UserProfile) error
	ListLetters() []models.Letter
	ReplaceLetters(letters []models.Letter) error
}

// BodyGenerator produces a letter body from a prompt. It mirrors
// integration.Generator so core does not import the integration package.
type BodyGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// HistoryLocker is implemented by repositories that can serialise history
// updates across processes. Repositories without it are only guarded by the
// manager's in-process mutex.
type HistoryLocker interface {
	LockHistory() (unlock func() error, err error)
}
