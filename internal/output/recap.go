package output

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// RenderRecap prints one table row per entry followed by resolved/unresolved totals.
func RenderRecap(w io.Writer, records []ResolutionRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No entries processed.")
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Entry", "Song ID", "Name", "Note"})
	table.SetAutoWrapText(false)
	table.SetRowLine(false)

	resolved := 0
	for i, r := range records {
		if r.Resolved() {
			resolved++
		}
		table.Append([]string{fmt.Sprint(i + 1), r.Original, r.ID, r.Name, r.Note})
	}
	table.SetFooter([]string{"", "", "", "Resolved", fmt.Sprintf("%d/%d", resolved, len(records))})
	table.Render()
}
