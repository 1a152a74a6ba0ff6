package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"kakeibo/internal/core"
)

// printRecords renders records as an aligned table.
func printRecords(w io.Writer, records []core.Record) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tITEM\tAMOUNT\tCATEGORY\tNOTE")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Date, r.Item, r.DisplayAmount(), r.Category, r.Note)
	}
	tw.Flush()
}

// printRecord renders one record as a detail block.
func printRecord(w io.Writer, r core.Record) {
	fmt.Fprintf(w, "ID:       %s\n", r.ID)
	fmt.Fprintf(w, "Date:     %s\n", r.Date)
	fmt.Fprintf(w, "Item:     %s\n", r.Item)
	fmt.Fprintf(w, "Amount:   %s\n", r.DisplayAmount())
	fmt.Fprintf(w, "Category: %s\n", r.Category)
	if r.Note != "" {
		fmt.Fprintf(w, "Note:     %s\n", r.Note)
	}
}
