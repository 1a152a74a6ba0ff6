package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kakeibo/internal/core"
)

// dayCmd shows the records of one calendar day plus their total.
var dayCmd = &cobra.Command{
	Use:   "day [YYYY-MM-DD]",
	Short: "Show expenses for a day (default today)",
	Args:  cobra.MaximumNArgs(1),
	Run:   runDay,
}

func runDay(cmd *cobra.Command, args []string) {
	date := core.Today()
	if len(args) == 1 {
		var err error
		date, err = core.ParseDate(args[0])
		exitOnError(err, "invalid date")
	}

	ctx := cmd.Context()
	e, err := openEnv(ctx)
	exitOnError(err, "initializing")
	defer e.Close()

	_, err = e.refreshLedger(ctx)
	exitOnError(err, "day")

	records, total := e.app.Ledger().ForDate(date)
	if len(records) == 0 {
		fmt.Printf("No expenses on %s\n", date)
		return
	}

	printRecords(os.Stdout, records)
	currency := records[0].Currency
	if currency == "" {
		currency = cfg.DefaultCurrency
	}
	fmt.Printf("\nTotal: %s %s\n", total.StringFixed(2), currency)
}
