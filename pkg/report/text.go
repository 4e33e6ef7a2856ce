package report

import (
	"fmt"
	"io"
)

// WriteText writes a human-readable report to w.
func (r *Report) WriteText(w io.Writer) {
	for _, m := range r.Messages {
		fmt.Fprintln(w, m.String())
	}
	fmt.Fprintf(w, "Check finished with %d fatal / %d error / %d warning\n",
		r.FatalCount(), r.ErrorCount(), r.WarningCount())
	if r.Suppressed > 0 {
		fmt.Fprintf(w, "(%d messages suppressed by --max-messages)\n", r.Suppressed)
	}
}
