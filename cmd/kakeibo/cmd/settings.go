package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"kakeibo/internal/core"
)

// settingsCmd manages the profile document: display name, currency and the
// category set. Every change saves the profile wholesale.
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show and change profile settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current profile",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		_, profile, e := loadProfile(cmd)
		defer e.Close()

		fmt.Printf("Name:     %s\n", profile.Name)
		fmt.Printf("Currency: %s\n", profile.Currency)
		fmt.Println("Categories:")
		for _, c := range profile.Categories {
			fmt.Printf("  - %s\n", c)
		}
	},
}

var settingsNameCmd = &cobra.Command{
	Use:   "name <display-name>",
	Short: "Change the display name",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, profile, e := loadProfile(cmd)
		defer e.Close()

		// SaveSettings also merges the new name into the cached identity,
		// so whoami shows it without a re-login.
		profile.Name = args[0]
		saveProfile(cmd, e, profile)
		fmt.Println("Name set to", args[0])
	},
}

var settingsCurrencyCmd = &cobra.Command{
	Use:   "currency <code>",
	Short: "Change the default currency",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, profile, e := loadProfile(cmd)
		defer e.Close()

		profile.Currency = args[0]
		saveProfile(cmd, e, profile)
		fmt.Println("Currency set to", args[0])
	},
}

var settingsCategoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage expense categories",
}

var settingsCategoryAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a category",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, profile, e := loadProfile(cmd)
		defer e.Close()

		exitOnError(profile.AddCategory(args[0]), "add category")
		saveProfile(cmd, e, profile)
		fmt.Println("Added category", args[0])
	},
}

var settingsCategoryRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a category",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, profile, e := loadProfile(cmd)
		defer e.Close()

		if !profile.RemoveCategory(args[0]) {
			fmt.Printf("No category %q\n", args[0])
			return
		}
		saveProfile(cmd, e, profile)
		fmt.Println("Removed category", args[0])
	},
}

func init() {
	settingsCategoryCmd.AddCommand(settingsCategoryAddCmd)
	settingsCategoryCmd.AddCommand(settingsCategoryRemoveCmd)

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsNameCmd)
	settingsCmd.AddCommand(settingsCurrencyCmd)
	settingsCmd.AddCommand(settingsCategoryCmd)
}

func loadProfile(cmd *cobra.Command) (core.Identity, core.Profile, *env) {
	ctx := cmd.Context()
	e, err := openEnv(ctx)
	exitOnError(err, "initializing")

	identity, err := e.currentUser()
	exitOnError(err, "settings")

	profile, err := e.app.Mutator().Profile(ctx, identity.SubjectID)
	exitOnError(err, "loading profile")
	if profile.Currency == "" {
		profile.Currency = cfg.DefaultCurrency
	}
	return identity, profile, e
}

func saveProfile(cmd *cobra.Command, e *env, profile core.Profile) {
	exitOnError(e.app.SaveSettings(cmd.Context(), profile), "saving profile")
}
