package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/courrier/internal/core"
	"github.com/valter-silva-au/courrier/internal/observability"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export <letter-id>",
	Short: "Write a saved letter to a file",
	Long: `Write a saved letter to a .txt or .html file. The HTML page keeps the
letter's line breaks and can be printed or saved as PDF from a browser.

Without --output the file is written to the current directory as
courrier-<id>.<format>. Use --output - to write to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		letter, err := findLetter(args[0])
		if err != nil {
			return err
		}

		format := core.ExportFormat(strings.ToLower(exportFormat))
		rendered, err := core.RenderLetter(*letter, format)
		if err != nil {
			return err
		}

		path := exportOutput
		if path == "-" {
			_, err := fmt.Fprint(cmd.OutOrStdout(), rendered)
			return err
		}
		if path == "" {
			path = fmt.Sprintf("courrier-%s.%s", shortID(letter.ID), format)
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}

		if EventLog != nil {
			// Non-fatal: the export already succeeded.
			_ = EventLog.LogEvent(observability.EventLetterExported, map[string]any{
				"id":     letter.ID,
				"format": string(format),
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", letter.Title, path)
		return nil
	},
}

var mailtoCmd = &cobra.Command{
	Use:   "mailto <letter-id>",
	Short: "Print a mailto: link that opens the letter in your mail client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		letter, err := findLetter(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), core.MailtoLink(*letter))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "txt", "Export format: txt or html")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path, or - for stdout")
	_ = exportCmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"txt\tPlain text", "html\tPrintable HTML page"}, cobra.ShellCompDirectiveNoFileComp
	})
	exportCmd.ValidArgsFunction = completeLetterIDs
	mailtoCmd.ValidArgsFunction = completeLetterIDs

	rootCmd.AddCommand(exportCmd, mailtoCmd)
}
