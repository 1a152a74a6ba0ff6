package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"kakeibo/internal/core"
)

// addCmd submits free text for server-side parsing. The parsed record is
// echoed back so the result can be reviewed and corrected with `edit`.
var addCmd = &cobra.Command{
	Use:   "add <free text...>",
	Short: "Add an expense from free text",
	Long: `Add an expense. The text is parsed by the ledger service into a
structured record (item, amount, category, date), which is echoed back.

Example:
  kakeibo add lunch at the noodle place 120
  kakeibo add taxi 250 yesterday`,
	Args: cobra.MinimumNArgs(1),
	Run:  runAdd,
}

func runAdd(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	e, err := openEnv(ctx)
	exitOnError(err, "initializing")
	defer e.Close()

	identity, err := e.currentUser()
	exitOnError(err, "add")

	record, err := e.app.Mutator().Create(ctx, identity.SubjectID, strings.Join(args, " "))
	if errors.Is(err, core.ErrEmptyText) {
		exitOnError(err, "nothing to add")
	}
	exitOnError(err, "add failed")

	fmt.Println("Recorded:")
	printRecord(os.Stdout, record)
}

var recentCount int

// recentCmd lists the latest entries, a quick check that an add landed.
var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recent expenses",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		exitOnError(err, "initializing")
		defer e.Close()

		_, err = e.refreshLedger(ctx)
		exitOnError(err, "recent")

		limit := cfg.RecentLimit
		if cmd.Flags().Changed("count") {
			limit = recentCount
		}
		records := e.app.Ledger().Recent(limit)
		if len(records) == 0 {
			fmt.Println("No expenses yet")
			return
		}
		printRecords(os.Stdout, records)
	},
}

func init() {
	recentCmd.Flags().IntVarP(&recentCount, "count", "n", 5, "number of records to show")
}
