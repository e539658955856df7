package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"payrecon/internal/usecase"
)

func writeReview(w io.Writer, items []usecase.ReviewOutput) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "no orders need review")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tTOTAL\tCREATED\tNOTES")
	for _, it := range items {
		o := it.Order
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\n",
			o.OrderNumber,
			o.TotalAmount, strings.ToUpper(o.Currency),
			o.CreatedAt.Format("2006-01-02 15:04"),
			strings.Join(it.Notes, "; "),
		)
	}
	return tw.Flush()
}
