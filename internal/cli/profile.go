package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/courrier/internal/core"
	"gopkg.in/yaml.v3"
)

var profileShowFormat string

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or edit your sender profile",
	Long: `The profile holds the sender details printed at the top of every letter.
First name, last name and email are required before generating.`,
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if LetterMgr == nil {
			return fmt.Errorf("letter manager not initialized")
		}
		out := cmd.OutOrStdout()
		p, ok := LetterMgr.GetProfile()

		switch profileShowFormat {
		case "yaml":
			data, err := yaml.Marshal(p)
			if err != nil {
				return fmt.Errorf("encoding profile: %w", err)
			}
			_, err = out.Write(data)
			return err
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		case "", "text":
		default:
			return fmt.Errorf("unknown format %q (use text, yaml or json)", profileShowFormat)
		}

		if !ok {
			fmt.Fprintln(out, "No profile saved yet. Run 'courrier profile set' to create one.")
			return nil
		}
		rows := []struct{ label, value string }{
			{"First name", p.FirstName},
			{"Last name", p.LastName},
			{"Email", p.Email},
			{"Phone", p.Phone},
			{"Address", p.Address},
			{"Postal code", p.PostalCode},
			{"City", p.City},
		}
		for _, r := range rows {
			fmt.Fprintf(out, "%-12s %s\n", r.label+":", r.value)
		}
		if err := core.ValidateProfile(p); err != nil {
			fmt.Fprintf(out, "\n%s\n", err)
		}
		return nil
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update profile fields",
	Long: `Update the saved profile. Only the flags you pass change; other fields keep
their saved value. The whole profile is then saved as one record.`,
	Example: `  courrier profile set --first-name Jean --last-name Dupont --email jean@exemple.fr`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if LetterMgr == nil {
			return fmt.Errorf("letter manager not initialized")
		}
		current, _ := LetterMgr.GetProfile()
		p := *current

		targets := map[string]*string{
			"first-name":  &p.FirstName,
			"last-name":   &p.LastName,
			"email":       &p.Email,
			"phone":       &p.Phone,
			"address":     &p.Address,
			"postal-code": &p.PostalCode,
			"city":        &p.City,
			"photo-uri":   &p.PhotoURI,
		}
		changed := 0
		for name, dst := range targets {
			if !cmd.Flags().Changed(name) {
				continue
			}
			v, err := cmd.Flags().GetString(name)
			if err != nil {
				return err
			}
			*dst = v
			changed++
		}
		if changed == 0 {
			return fmt.Errorf("nothing to update: pass at least one field flag (see --help)")
		}

		if err := LetterMgr.SaveProfile(p); err != nil {
			return explainError(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Profile saved.")
		if err := core.ValidateProfile(&p); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Note: %s\n", err)
		}
		return nil
	},
}

var profileResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the saved profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if LetterMgr == nil {
			return fmt.Errorf("letter manager not initialized")
		}
		if err := LetterMgr.ResetProfile(); err != nil {
			return explainError(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Profile cleared.")
		return nil
	},
}

func init() {
	profileShowCmd.Flags().StringVarP(&profileShowFormat, "output", "o", "text", "Output format: text, yaml or json")

	f := profileSetCmd.Flags()
	f.String("first-name", "", "First name")
	f.String("last-name", "", "Last name")
	f.String("email", "", "Email address")
	f.String("phone", "", "Phone number")
	f.String("address", "", "Street address")
	f.String("postal-code", "", "Postal code")
	f.String("city", "", "City, also used in the letter's dateline")
	f.String("photo-uri", "", "Path or URI of a profile photo")

	profileCmd.AddCommand(profileShowCmd, profileSetCmd, profileResetCmd)
	rootCmd.AddCommand(profileCmd)
}
