package view

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Print writes the list as a table under its heading.
func Print(w io.Writer, l *List) error {
	if _, err := fmt.Fprintf(w, "== %s ==\n", l.Heading()); err != nil {
		return err
	}
	items := l.Items()
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "(no documents)")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tUPLOADED\tTHUMBNAIL\tVIEW")
	for _, it := range items {
		thumb := "file"
		if it.IsImage {
			thumb = "image"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", it.ID, it.Title, it.Uploaded, thumb, it.ViewURL)
	}
	return tw.Flush()
}
