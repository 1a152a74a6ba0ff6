package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"kakeibo/internal/calendar"
	"kakeibo/internal/core"
)

// calCmd renders a month grid. Days carrying at least one record are
// marked with *, today is bracketed.
var calCmd = &cobra.Command{
	Use:   "cal [YYYY-MM]",
	Short: "Show a month calendar of expense days (default current month)",
	Args:  cobra.MaximumNArgs(1),
	Run:   runCal,
}

func runCal(cmd *cobra.Command, args []string) {
	today := core.Today()
	agg := calendar.New(today)
	if len(args) == 1 {
		month, err := time.Parse("2006-01", args[0])
		exitOnError(err, "invalid month, want YYYY-MM")
		agg.View(core.NewDate(month.Year(), month.Month(), 1))
	}

	ctx := cmd.Context()
	e, err := openEnv(ctx)
	exitOnError(err, "initializing")
	defer e.Close()

	_, err = e.refreshLedger(ctx)
	exitOnError(err, "cal")

	year, month := agg.Viewed()
	marked := e.app.Ledger().DaysWithRecords(year, int(month))

	fmt.Printf("      %s %d\n", month, year)
	fmt.Println(" Su   Mo   Tu   We   Th   Fr   Sa")

	var row strings.Builder
	col := 0
	for cell := range agg.Cells(today, marked) {
		row.WriteString(formatCell(cell))
		col++
		if col%7 == 0 {
			fmt.Println(strings.TrimRight(row.String(), " "))
			row.Reset()
		}
	}
	if row.Len() > 0 {
		fmt.Println(strings.TrimRight(row.String(), " "))
	}
	if len(marked) > 0 {
		fmt.Println("\n* day has expenses")
	}
}

// formatCell renders one five-character calendar cell: brackets mark
// today, a trailing star marks a day with records.
func formatCell(c calendar.Cell) string {
	if c.Blank() {
		return "     "
	}
	l, r := " ", " "
	if c.IsToday {
		l, r = "[", "]"
	}
	star := " "
	if c.HasRecords {
		star = "*"
	}
	return fmt.Sprintf("%s%2d%s%s", l, c.Day, r, star)
}
