package cli

import (
	"errors"
	"fmt"

	"github.com/valter-silva-au/courrier/internal/core"
	"github.com/valter-silva-au/courrier/internal/integration"
	"github.com/valter-silva-au/courrier/internal/storage"
)

// explainError maps core, storage and generation errors to the message shown
// to the user. Errors it does not recognise are returned unchanged.
func explainError(err error) error {
	if err == nil {
		return nil
	}

	var ve *core.ValidationError
	if errors.As(err, &ve) {
		switch ve.Scope {
		case "profile":
			return fmt.Errorf("%w (run 'courrier profile set' to complete your profile)", err)
		case "type":
			return fmt.Errorf("%w (see 'courrier types')", err)
		}
		return err
	}

	if errors.Is(err, core.ErrUnknownLetterType) {
		return fmt.Errorf("%w (see 'courrier types')", err)
	}

	var ge *integration.GenerationError
	if errors.As(err, &ge) {
		return errors.New(ge.Message)
	}

	if errors.Is(err, storage.ErrStoreWrite) {
		return fmt.Errorf("the letter store could not be updated: %w", err)
	}

	return err
}
