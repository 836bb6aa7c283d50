package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	courriermcp "github.com/valter-silva-au/courrier/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the courrier MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the courrier MCP server on stdio",
	Long: `Start the courrier MCP server on stdio transport.

The server exposes courrier as MCP tools that AI assistants can call:
list_letter_types, generate_letter, list_letters, get_letter, delete_letter,
get_statistics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if LetterMgr == nil {
			return fmt.Errorf("letter manager not initialized")
		}

		srv := courriermcp.NewServer(LetterMgr, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
