package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/armadaproject/uilatency/internal/uilatency/stats"
)

// Print writes a human-readable summary of r to out.
func (r *SummaryReport) Print(out io.Writer) {
	_, _ = fmt.Fprintf(out, "\nScenario %s (%s), %d runs:\n", r.Scenario, r.URL, len(r.Raw))
	w := tabwriter.NewWriter(out, 1, 1, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "MEASUREMENT\tN\tAVG\tP50\tP95\tMIN\tMAX\tERRORS")
	for _, name := range r.Names() {
		s := r.Stats[name]
		_, _ = fmt.Fprintf(
			w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%d\n",
			name, s.Count, ms(s.Mean), ms(s.P50), ms(s.P95), ms(s.Min), ms(s.Max), r.Errors[name],
		)
	}
	_ = w.Flush()
}

func ms(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2fms", stats.Round(*v))
}
