package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var deleteYes bool

// deleteCmd removes a record. The prompt guards against accidental loss;
// --yes skips it for scripted use.
var deleteCmd = &cobra.Command{
	Use:   "delete <record-id>",
	Short: "Delete an expense record",
	Args:  cobra.ExactArgs(1),
	Run:   runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip the confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) {
	recordID := args[0]

	ctx := cmd.Context()
	e, err := openEnv(ctx)
	exitOnError(err, "initializing")
	defer e.Close()

	identity, err := e.refreshLedger(ctx)
	exitOnError(err, "delete")

	if record, ok := e.app.Ledger().Find(recordID); ok {
		printRecord(os.Stdout, record)
		fmt.Println()
	}

	confirm := func() bool { return true }
	if !deleteYes {
		confirm = func() bool {
			fmt.Printf("Delete %s? [y/N] ", recordID)
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			answer := strings.ToLower(strings.TrimSpace(line))
			return answer == "y" || answer == "yes"
		}
	}

	deleted, err := e.app.Mutator().Delete(ctx, identity.SubjectID, recordID, confirm)
	exitOnError(err, "delete failed")
	if !deleted {
		fmt.Println("Canceled")
		return
	}
	fmt.Println("Deleted", recordID)
}
