package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/courrier/internal/core"
	"github.com/valter-silva-au/courrier/pkg/models"
)

var listStorageOrder bool

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"history"},
	Short:   "List saved letters",
	Long: `List saved letters, newest first. Use --storage-order to list them in the
order they were saved.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if LetterMgr == nil {
			return fmt.Errorf("letter manager not initialized")
		}
		out := cmd.OutOrStdout()

		letters := LetterMgr.ListLetters(!listStorageOrder)
		if len(letters) == 0 {
			fmt.Fprintln(out, "No letters yet. Use 'courrier generate' to write one.")
			return nil
		}

		fmt.Fprintf(out, "%-10s %-16s %-10s %-16s %s\n", "ID", "TYPE", "STATUS", "CREATED", "TITLE")
		fmt.Fprintf(out, "%-10s %-16s %-10s %-16s %s\n", "--", "----", "------", "-------", "-----")
		for _, l := range letters {
			fmt.Fprintf(out, "%-10s %-16s %-10s %-16s %s\n",
				shortID(l.ID), l.Type, l.Status, l.CreatedAt.Local().Format("02/01/2006 15:04"), l.Title)
		}
		fmt.Fprintf(out, "\n%d letter(s)\n", len(letters))
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <letter-id>",
	Short: "Print a saved letter",
	Long:  "Print a saved letter. The ID may be abbreviated to a unique prefix of at least 4 characters.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		letter, err := findLetter(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), letter.Content)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <letter-id>",
	Short: "Delete a saved letter",
	Long: `Delete a saved letter. The ID may be abbreviated to a unique prefix of at
least 4 characters. Deleting a letter that does not exist is not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if LetterMgr == nil {
			return fmt.Errorf("letter manager not initialized")
		}
		id := args[0]
		if l, err := LetterMgr.GetLetter(id); err == nil {
			id = l.ID
		} else if !errors.Is(err, core.ErrLetterNotFound) {
			return err
		}

		removed, err := LetterMgr.DeleteLetter(id)
		if err != nil {
			return explainError(err)
		}
		if removed {
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted letter %s.\n", id)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "No letter %s; nothing to delete.\n", id)
		}
		return nil
	},
}

// findLetter resolves a full or abbreviated letter ID.
func findLetter(id string) (*models.Letter, error) {
	if LetterMgr == nil {
		return nil, fmt.Errorf("letter manager not initialized")
	}
	letter, err := LetterMgr.GetLetter(id)
	if err != nil {
		return nil, fmt.Errorf("finding letter: %w", err)
	}
	return letter, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// completeLetterIDs returns saved letter IDs for shell completion.
func completeLetterIDs(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if LetterMgr == nil || len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, l := range LetterMgr.ListLetters(true) {
		out = append(out, l.ID+"\t"+l.Title)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	listCmd.Flags().BoolVar(&listStorageOrder, "storage-order", false, "List in the order letters were saved")
	showCmd.ValidArgsFunction = completeLetterIDs
	deleteCmd.ValidArgsFunction = completeLetterIDs

	rootCmd.AddCommand(listCmd, showCmd, deleteCmd)
}
