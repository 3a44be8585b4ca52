package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/inodb/vcfcompare/internal/variantset"
)

// Writer prints reports in the plain-text layout of the comparison tool.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a new report writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteLoadSummary writes the read counts of one input file.
func (rw *Writer) WriteLoadSummary(s variantset.LoadSummary) error {
	_, err := fmt.Fprintf(rw.w, "\nreading %s\n%d records: %d substitutions, %d insertions, %d deletions, %d unclassified, %d duplicates, %d filtered\n",
		s.Path, s.Records,
		s.PerCategory[variantset.Substitution],
		s.PerCategory[variantset.Insertion],
		s.PerCategory[variantset.Deletion],
		s.Unclassified, s.Duplicates, s.Filtered)
	return err
}

// WriteCategory writes the stratified table (when available), warnings,
// diagnostics and the four summary lines of one category. Write errors
// surface on Flush.
func (rw *Writer) WriteCategory(r *CategoryReport) error {
	fmt.Fprintf(rw.w, "\n%s\n", r.Category)

	if r.Stratified() {
		fmt.Fprintf(rw.w, "1%% tp = %.2f%% cm, 1%% cm = %.2f%% fp\n",
			Ratio(r.TP, r.CM), Ratio(r.CM, r.FP))
		rw.writeTable(r)
	}

	for _, w := range r.Warnings {
		fmt.Fprintln(rw.w, w.String())
	}
	for _, d := range r.Diagnostics {
		fmt.Fprintf(rw.w, "NOTE: %s\n", d)
	}

	for _, rate := range r.Rates() {
		fmt.Fprintf(rw.w, "%s:\t%.2f%%\t(%d/%d)\n", rate.Name, rate.Percent, rate.Num, rate.Den)
	}
	return nil
}

func (rw *Writer) writeTable(r *CategoryReport) {
	axes := r.TPHist.Axes()
	if len(axes) == 0 {
		return
	}

	header := []string{"i\t"}
	rule := []string{"--------"}
	strata := make([][]Stratum, len(axes))
	for i, a := range axes {
		header = append(header, fmt.Sprintf("| tp/%s\t\tfp/%s\t", a, a))
		rule = append(rule, "+---------------------------------------")
		strata[i] = r.Strata(a)
	}
	fmt.Fprintln(rw.w, strings.TrimRight(strings.Join(header, ""), "\t"))
	fmt.Fprintln(rw.w, strings.Join(rule, ""))

	for b := 0; b < r.TPHist.Limit(); b++ {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%d\t", b)
		for i := range axes {
			s := strata[i][b]
			fmt.Fprintf(&sb, "| %.2f%% (%.2f%%)   \t%.2f%% (%.2f%%)\t", s.TPCum, s.TP, s.FPCum, s.FP)
		}
		fmt.Fprintln(rw.w, strings.TrimRight(sb.String(), "\t"))
	}
}

// WriteReport writes both load summaries and every category.
func (rw *Writer) WriteReport(r *Report) error {
	if err := rw.WriteLoadSummary(r.Truth); err != nil {
		return err
	}
	if err := rw.WriteLoadSummary(r.Candidate); err != nil {
		return err
	}
	for _, c := range r.Categories {
		if err := rw.WriteCategory(c); err != nil {
			return err
		}
	}
	return rw.Flush()
}

// Flush flushes buffered output.
func (rw *Writer) Flush() error {
	return rw.w.Flush()
}
