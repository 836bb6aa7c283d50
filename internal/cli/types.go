package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/courrier/internal/core"
	"github.com/valter-silva-au/courrier/pkg/models"
)

var typesCmd = &cobra.Command{
	Use:   "types [type]",
	Short: "List letter types, or show the fields of one type",
	Long: `Without arguments, list every letter type in catalog order.

With a type name, show the fields that 'courrier generate --type <type>'
accepts, in the order they are asked, with their kind and allowed options.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if LetterMgr == nil {
			return fmt.Errorf("letter manager not initialized")
		}
		out := cmd.OutOrStdout()
		reg := LetterMgr.Registry()

		if len(args) == 0 {
			fmt.Fprintf(out, "%-16s %-28s %s\n", "TYPE", "TITLE", "DESCRIPTION")
			fmt.Fprintf(out, "%-16s %-28s %s\n", "----", "-----", "-----------")
			for _, d := range reg.All() {
				fmt.Fprintf(out, "%-16s %-28s %s\n", d.Type, d.Title, d.Description)
			}
			return nil
		}

		def, ok := reg.Lookup(models.LetterType(args[0]))
		if !ok {
			return explainError(fmt.Errorf("%w %q", core.ErrUnknownLetterType, args[0]))
		}
		fmt.Fprintf(out, "%s (%s)\n%s\n\n", def.Title, def.Type, def.Description)
		for _, f := range def.Fields {
			req := "optional"
			if f.Required {
				req = "required"
			}
			fmt.Fprintf(out, "  %-18s %-9s %-9s %s\n", f.Key, f.Kind, req, f.Label)
			if len(f.Options) > 0 {
				fmt.Fprintf(out, "  %-18s options: %s\n", "", strings.Join(f.Options, " | "))
			}
		}
		return nil
	},
}

// completeLetterTypes returns the catalog types for shell completion.
func completeLetterTypes(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	if LetterMgr == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, d := range LetterMgr.Registry().All() {
		out = append(out, string(d.Type)+"\t"+d.Title)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	typesCmd.ValidArgsFunction = completeLetterTypes
	rootCmd.AddCommand(typesCmd)
}
