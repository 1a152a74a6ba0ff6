package cmd

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"kakeibo/internal/core"
)

var (
	editItem     string
	editAmount   string
	editCurrency string
	editCategory string
	editDate     string
	editNote     string
)

// editCmd replaces fields of an existing record. Unset flags keep the
// current value; the full record is sent to the service.
var editCmd = &cobra.Command{
	Use:   "edit <record-id>",
	Short: "Edit an expense record",
	Long: `Edit fields of an expense record. Only the given flags change;
the rest of the record is kept as-is.

Example:
  kakeibo edit aF3k91 --amount 150 --category Food`,
	Args: cobra.ExactArgs(1),
	Run:  runEdit,
}

func init() {
	editCmd.Flags().StringVar(&editItem, "item", "", "item description")
	editCmd.Flags().StringVar(&editAmount, "amount", "", "amount, e.g. 120 or 99.50")
	editCmd.Flags().StringVar(&editCurrency, "currency", "", "currency code")
	editCmd.Flags().StringVar(&editCategory, "category", "", "category name")
	editCmd.Flags().StringVar(&editDate, "date", "", "date (YYYY-MM-DD)")
	editCmd.Flags().StringVar(&editNote, "note", "", "free-form note")
}

func runEdit(cmd *cobra.Command, args []string) {
	recordID := args[0]

	ctx := cmd.Context()
	e, err := openEnv(ctx)
	exitOnError(err, "initializing")
	defer e.Close()

	identity, err := e.refreshLedger(ctx)
	exitOnError(err, "edit")

	record, ok := e.app.Ledger().Find(recordID)
	if !ok {
		exitOnError(fmt.Errorf("record %s not found", recordID), "edit")
	}

	if cmd.Flags().Changed("item") {
		record.Item = editItem
	}
	if cmd.Flags().Changed("amount") {
		amount, err := decimal.NewFromString(editAmount)
		exitOnError(err, "invalid amount")
		record.Amount = amount
	}
	if cmd.Flags().Changed("currency") {
		record.Currency = editCurrency
	}
	if cmd.Flags().Changed("category") {
		record.Category = editCategory
	}
	if cmd.Flags().Changed("date") {
		date, err := core.ParseDate(editDate)
		exitOnError(err, "invalid date")
		record.Date = date
	}
	if cmd.Flags().Changed("note") {
		record.Note = editNote
	}

	err = e.app.Mutator().Update(ctx, identity.SubjectID, recordID, record)
	exitOnError(err, "edit failed")

	fmt.Println("Updated:")
	printRecord(os.Stdout, record)
}
