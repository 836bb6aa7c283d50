package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/courrier/internal/core"
	"github.com/valter-silva-au/courrier/pkg/models"
	"golang.org/x/term"
)

var (
	genType        string
	genFields      []string
	genRecipient   models.Recipient
	genDraft       bool
	genDryRun      bool
	genInteractive bool
)

// stdinIsTerminal reports whether the interactive form can be shown.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// interactiveForm runs the bubbletea form; replaced in tests.
var interactiveForm = runForm

// parseFieldFlags turns repeated key=value flags into AdditionalInfo.
func parseFieldFlags(pairs []string) (models.AdditionalInfo, error) {
	info := models.AdditionalInfo{}
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --field %q: expected key=value", p)
		}
		info = info.With(key, value)
	}
	return info, nil
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a letter and save it to the history",
	Long: `Generate a letter of the given type for the saved profile.

Fields of the letter type are passed with repeated --field key=value flags
(see 'courrier types <type>' for the keys) and the recipient with the --to-*
flags. With --interactive a form asks for the recipient and every field in
order, prefilled with any flag values.

The letter is printed on stdout. --dry-run validates the input and prints the
prompt instead, without calling the generation service.`,
	Example: `  courrier generate --type resiliation \
    --to-company Orange --to-address "1 avenue Nelson Mandela" \
    --to-postal-code 94110 --to-city Arcueil \
    --field contractType=Internet --field resiliationDate=01/11/2026`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if LetterMgr == nil {
			return fmt.Errorf("letter manager not initialized")
		}

		info, err := parseFieldFlags(genFields)
		if err != nil {
			return err
		}
		recipient := genRecipient

		if genInteractive {
			if !stdinIsTerminal() {
				return fmt.Errorf("--interactive needs a terminal; pass --field and --to-* flags instead")
			}
			if genType == "" {
				return explainError(&core.ValidationError{Scope: "type", Reason: "no letter type selected"})
			}
			def, ok := LetterMgr.Registry().Lookup(models.LetterType(genType))
			if !ok {
				return explainError(fmt.Errorf("%w %q", core.ErrUnknownLetterType, genType))
			}
			recipient, info, err = interactiveForm(def, recipient, info)
			if err != nil {
				return err
			}
		}

		profile, _ := LetterMgr.GetProfile()
		req := models.LetterRequest{
			Profile:        *profile,
			Recipient:      recipient,
			Type:           models.LetterType(genType),
			AdditionalInfo: info,
			Draft:          genDraft,
		}

		out := cmd.OutOrStdout()
		if genDryRun {
			prompt, err := LetterMgr.Preview(req)
			if err != nil {
				return explainError(err)
			}
			fmt.Fprintln(out, prompt)
			return nil
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		fmt.Fprintln(cmd.ErrOrStderr(), "Generating letter...")
		letter, err := LetterMgr.Generate(ctx, req)
		if err != nil {
			if letter != nil {
				fmt.Fprintln(out, letter.Content)
			}
			return explainError(err)
		}

		fmt.Fprintln(out, letter.Content)
		fmt.Fprintf(cmd.ErrOrStderr(), "\nSaved %s as %s (%s)\n", letter.Title, letter.ID, letter.Status)
		return nil
	},
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&genType, "type", "t", "", "Letter type (see 'courrier types')")
	f.StringArrayVarP(&genFields, "field", "f", nil, "Letter field as key=value (repeatable)")
	f.StringVar(&genRecipient.Company, "to-company", "", "Recipient company or organisation")
	f.StringVar(&genRecipient.Service, "to-service", "", "Recipient department or service")
	f.StringVar(&genRecipient.FirstName, "to-first-name", "", "Recipient first name")
	f.StringVar(&genRecipient.LastName, "to-last-name", "", "Recipient last name")
	f.StringVar(&genRecipient.Email, "to-email", "", "Recipient email")
	f.StringVar(&genRecipient.Address, "to-address", "", "Recipient street address (required)")
	f.StringVar(&genRecipient.PostalCode, "to-postal-code", "", "Recipient postal code (required)")
	f.StringVar(&genRecipient.City, "to-city", "", "Recipient city (required)")
	f.BoolVar(&genDraft, "draft", false, "Save the letter as a draft")
	f.BoolVar(&genDryRun, "dry-run", false, "Validate and print the prompt without generating")
	f.BoolVarP(&genInteractive, "interactive", "i", false, "Fill the recipient and fields in an interactive form")
	_ = generateCmd.RegisterFlagCompletionFunc("type", completeLetterTypes)

	rootCmd.AddCommand(generateCmd)
}
