package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/courrier/pkg/models"
)

var statsJSON bool

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	barStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	growthUpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	growthDnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// maxBarWidth caps the activity bars so busy days do not wrap.
const maxBarWidth = 30

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show letter statistics",
	Long: `Show how many letters you have written, by type, over the last 7 days,
and how this month compares with the previous one.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if LetterMgr == nil {
			return fmt.Errorf("letter manager not initialized")
		}
		stats := LetterMgr.Statistics()
		out := cmd.OutOrStdout()

		if statsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}

		fmt.Fprintln(out, renderStats(stats))
		return nil
	},
}

func renderStats(stats models.Statistics) string {
	var b strings.Builder

	greeting := "Bonjour"
	if p, ok := LetterMgr.GetProfile(); ok && p.FirstName != "" {
		greeting += " " + p.FirstName
	}
	b.WriteString(titleStyle.Render(" " + greeting + " "))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s %d\n", headerStyle.Render("Courriers rédigés:"), stats.TotalLetters)
	growth := fmt.Sprintf("%+.1f%%", stats.MonthlyGrowth)
	if stats.MonthlyGrowth < 0 {
		growth = growthDnStyle.Render(growth)
	} else {
		growth = growthUpStyle.Render(growth)
	}
	fmt.Fprintf(&b, "%s %s\n", headerStyle.Render("Ce mois-ci vs mois dernier:"), growth)

	b.WriteString("\n" + headerStyle.Render("Par type") + "\n")
	if stats.TotalLetters == 0 {
		b.WriteString("  Aucun courrier pour le moment.\n")
	}
	for _, d := range LetterMgr.Registry().All() {
		n := stats.LettersByType[d.Type]
		if n == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %-28s %d\n", d.Title, n)
	}

	b.WriteString("\n" + headerStyle.Render("7 derniers jours") + "\n")
	peak := 0
	for _, a := range stats.RecentActivity {
		peak = max(peak, a.Count)
	}
	for _, a := range stats.RecentActivity {
		width := a.Count
		if peak > maxBarWidth {
			width = a.Count * maxBarWidth / peak
		}
		fmt.Fprintf(&b, "  %-4s %s %d\n", a.Day, barStyle.Render(strings.Repeat("█", width)), a.Count)
	}

	return strings.TrimRight(b.String(), "\n")
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}
