package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// loginCmd consumes an ID token obtained from the identity provider and
// persists the session locally.
var loginCmd = &cobra.Command{
	Use:   "login [id-token]",
	Short: "Log in with an identity provider ID token",
	Long: `Log in with an ID token from the identity provider.

Pass the token as an argument, or pipe it on stdin:
  kakeibo login eyJhbGciOi...
  pbpaste | kakeibo login`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

func runLogin(cmd *cobra.Command, args []string) {
	var token string
	if len(args) == 1 {
		token = args[0]
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			exitOnError(err, "reading token from stdin")
		}
		token = strings.TrimSpace(line)
	}
	if token == "" {
		exitOnError(fmt.Errorf("no token provided"), "login")
	}

	ctx := cmd.Context()
	e, err := openEnv(ctx)
	exitOnError(err, "initializing")
	defer e.Close()

	identity, err := e.app.Login(ctx, token)
	exitOnError(err, "login failed")

	name := identity.DisplayName
	if name == "" {
		name = identity.SubjectID
	}
	fmt.Printf("Logged in as %s\n", name)
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and remove the persisted session",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		exitOnError(err, "initializing")
		defer e.Close()

		exitOnError(e.app.Logout(ctx), "logout failed")
		fmt.Println("Logged out")
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in identity",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		exitOnError(err, "initializing")
		defer e.Close()

		identity, err := e.currentUser()
		exitOnError(err, "whoami")

		fmt.Printf("Subject: %s\n", identity.SubjectID)
		if identity.DisplayName != "" {
			fmt.Printf("Name:    %s\n", identity.DisplayName)
		}
		if identity.Email != "" {
			fmt.Printf("Email:   %s\n", identity.Email)
		}
	},
}
