package engine

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gtheory/domain/core"
)

// Report renders the session's result tables as aligned plain text. Every
// writer requires the corresponding computation to have run.

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func writeTitle(w io.Writer, title string) {
	fmt.Fprintf(w, "\n--------------------\n%s\n--------------------\n", title)
}

// WriteAnovaSummary prints the variance component table
func (s *Session) WriteAnovaSummary(w io.Writer) error {
	if s.anova == nil {
		return core.NewSequenceError("anova summary", "variance estimation")
	}
	writeTitle(w, "ANOVA Table")
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "Source\tT\tVariance")
	for _, row := range s.anova.Rows {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\n", row.Component, row.T, row.Variance)
	}
	return tw.Flush()
}

// WriteVarianceSummary prints only the estimated variances
func (s *Session) WriteVarianceSummary(w io.Writer) error {
	if s.anova == nil {
		return core.NewSequenceError("variance summary", "variance estimation")
	}
	writeTitle(w, "Variance Components")
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "Source\tVariance")
	for _, row := range s.anova.Rows {
		fmt.Fprintf(tw, "%s\t%.4f\n", row.Component, row.Variance)
	}
	return tw.Flush()
}

// WriteGCoefficientSummary prints the generalizability coefficient table
func (s *Session) WriteGCoefficientSummary(w io.Writer) error {
	if s.gcoeffs == nil {
		return core.NewSequenceError("g-coefficient summary", "generalizability coefficients")
	}
	writeTitle(w, "G Coefficients")
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "Source\tρ²\tφ²")
	for _, row := range s.gcoeffs.Rows {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\n", row.Component, row.Rho2, row.Phi2)
	}
	return tw.Flush()
}

// WriteDStudySummary prints one coefficient table per evaluated scenario
func (s *Session) WriteDStudySummary(w io.Writer) error {
	if s.dstudy == nil {
		return core.NewSequenceError("d-study summary", "decision study")
	}
	for _, scenario := range s.dstudy.Scenarios {
		writeTitle(w, "D-Study: "+scenario.Label)
		tw := newTabWriter(w)
		fmt.Fprintln(tw, "Source\tρ²\tφ²")
		for _, row := range scenario.Coefficients.Rows {
			fmt.Fprintf(tw, "%s\t%.4f\t%.4f\n", row.Component, row.Rho2, row.Phi2)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// WriteIntervalSummary prints the confidence interval tables with percentile
// headers derived from the run's significance level.
func (s *Session) WriteIntervalSummary(w io.Writer) error {
	if s.intervals == nil {
		return core.NewSequenceError("confidence interval summary", "confidence intervals")
	}
	for _, name := range s.algebra.Components() {
		interval, ok := s.intervals[name]
		if !ok {
			continue
		}
		lower := fmt.Sprintf("%.1f%%", interval.Alpha/2*100)
		upper := fmt.Sprintf("%.1f%%", (1-interval.Alpha/2)*100)
		writeTitle(w, fmt.Sprintf("%d%% CI for '%s'", int((1-interval.Alpha)*100), name))
		tw := newTabWriter(w)
		fmt.Fprintf(tw, "Group\t%s\tmean\t%s\n", lower, upper)
		for _, row := range interval.Rows {
			fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\n", row.Level, row.Lower, row.Mean, row.Upper)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
