package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var completionInstall bool

// shellCompletion describes how to generate and install completions for one shell.
type shellCompletion struct {
	generate func(w io.Writer) error
	// loadHint shows how to load the script in the current session.
	loadHint string
	// installPath returns the user-local file the script is installed to,
	// or "" when --install is not supported.
	installPath func(home string) string
	afterInstall string
}

func shellCompletions() map[string]shellCompletion {
	return map[string]shellCompletion{
		"bash": {
			generate: func(w io.Writer) error { return rootCmd.GenBashCompletionV2(w, true) },
			loadHint: `eval "$(courrier completion bash)"`,
			installPath: func(home string) string {
				return filepath.Join(home, ".local", "share", "bash-completion", "completions", "courrier")
			},
			afterInstall: "Restart your shell to load them.",
		},
		"zsh": {
			generate: rootCmd.GenZshCompletion,
			loadHint: `eval "$(courrier completion zsh)"`,
			installPath: func(home string) string {
				return filepath.Join(home, ".local", "share", "zsh", "site-functions", "_courrier")
			},
			afterInstall: "Make sure that directory is in your fpath, then run: autoload -Uz compinit && compinit",
		},
		"fish": {
			generate: func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
			loadHint: "courrier completion fish | source",
			installPath: func(home string) string {
				return filepath.Join(home, ".config", "fish", "completions", "courrier.fish")
			},
			afterInstall: "New fish sessions pick them up automatically.",
		},
		"powershell": {
			generate:    rootCmd.GenPowerShellCompletionWithDesc,
			loadHint:    "courrier completion powershell | Out-String | Invoke-Expression",
			installPath: func(string) string { return "" },
		},
	}
}

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Set up shell completions for courrier",
	Long: `Set up shell tab-completions for courrier commands, flags, letter types
and letter IDs.

Supported shells: bash, zsh, fish, powershell

Quick install (writes the script under your home directory):

  courrier completion bash --install
  courrier completion zsh --install
  courrier completion fish --install

Or print the completion script to stdout:

  courrier completion bash`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MaximumNArgs(1),
	RunE:      runCompletion,
}

func init() {
	completionCmd.Flags().BoolVar(&completionInstall, "install", false,
		"Install completions into your home directory")

	// Replace Cobra's default completion command with ours.
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}

func runCompletion(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	shell, ok := shellCompletions()[args[0]]
	if !ok {
		return fmt.Errorf("unsupported shell %q (supported: bash, zsh, fish, powershell)", args[0])
	}

	if completionInstall {
		return installCompletion(cmd, args[0], shell)
	}

	// Hints go to stderr so the script can be piped or eval'd.
	fmt.Fprintf(cmd.ErrOrStderr(), "# To load completions in your current session:\n#   %s\n", shell.loadHint)
	return shell.generate(cmd.OutOrStdout())
}

func installCompletion(cmd *cobra.Command, name string, shell shellCompletion) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("detecting home directory: %w", err)
	}
	target := shell.installPath(home)
	if target == "" {
		return fmt.Errorf("automatic install is not supported for %s; add the output of 'courrier completion %s' to your profile", name, name)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("creating completion directory: %w", err)
	}
	if err := writeCompletionFile(target, shell.generate); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s completions installed to %s\n", name, target)
	if shell.afterInstall != "" {
		fmt.Fprintln(out, shell.afterInstall)
	}
	return nil
}

// writeCompletionFile creates target and writes the generated script into
// it, reporting close errors.
func writeCompletionFile(target string, generate func(io.Writer) error) error {
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating completion file %s: %w", target, err)
	}

	writeErr := generate(f)
	closeErr := f.Close()

	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing completion file %s: %w", target, closeErr)
	}
	return nil
}
