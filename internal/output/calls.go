// Package output writes per-call comparison listings.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/inodb/vcfcompare/internal/match"
	"github.com/inodb/vcfcompare/internal/variantset"
	"github.com/inodb/vcfcompare/internal/vcf"
)

// Status is the outcome of one call.
type Status string

const (
	StatusTP           Status = "tp"
	StatusFP           Status = "fp"
	StatusFN           Status = "fn"
	StatusCM           Status = "cm"
	StatusUnclassified Status = "unclassified"
)

// Sources
const (
	SourceTruth     = "truth"
	SourceCandidate = "candidate"
)

// CallsWriter writes one tab-delimited line per call.
type CallsWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewCallsWriter creates a new tab-delimited call writer.
func NewCallsWriter(w io.Writer) *CallsWriter {
	return &CallsWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#Source",
			"Category",
			"Location",
			"Ref",
			"Alt",
			"Status",
			"Annotation",
		},
	}
}

// WriteHeader writes the header line.
func (cw *CallsWriter) WriteHeader() error {
	_, err := cw.w.WriteString(strings.Join(cw.columns, "\t") + "\n")
	return err
}

// Write writes a single set entry.
func (cw *CallsWriter) Write(source string, cat variantset.Category, e variantset.Entry, st Status) error {
	return cw.writeRow(source, cat.String(),
		fmt.Sprintf("%s:%d", vcf.ChromName(e.Chrom), e.Pos),
		e.Allele.Ref, e.Allele.Alt, st, e.Annotation)
}

// WriteUnclassified writes a record that fell outside every category.
func (cw *CallsWriter) WriteUnclassified(source string, v *vcf.Variant) error {
	return cw.writeRow(source, variantset.Unclassified.String(),
		fmt.Sprintf("%s:%d", v.Chrom, v.Pos),
		v.Ref, v.Alt, StatusUnclassified, v.Info)
}

func (cw *CallsWriter) writeRow(source, cat, location, ref, alt string, st Status, annotation string) error {
	if annotation == "" {
		annotation = "-"
	}
	values := []string{source, cat, location, ref, alt, string(st), annotation}
	_, err := cw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// WriteComparison lists every candidate call as tp or fp and every truth
// call as cm or fn, one category at a time, followed by the unclassified
// records of both files. The header is written first.
func (cw *CallsWriter) WriteComparison(truth, candidate *variantset.Collection, opts match.Options) error {
	if err := cw.WriteHeader(); err != nil {
		return err
	}

	for _, cat := range variantset.Categories {
		ts, cs := truth.Set(cat), candidate.Set(cat)
		for _, e := range cs.Entries() {
			st := StatusFP
			if match.Find(ts, e, cat, opts) {
				st = StatusTP
			}
			if err := cw.Write(SourceCandidate, cat, e, st); err != nil {
				return err
			}
		}
		for _, e := range ts.Entries() {
			st := StatusFN
			if match.Find(cs, e, cat, opts) {
				st = StatusCM
			}
			if err := cw.Write(SourceTruth, cat, e, st); err != nil {
				return err
			}
		}
	}

	for _, v := range truth.Unclassified {
		if err := cw.WriteUnclassified(SourceTruth, v); err != nil {
			return err
		}
	}
	for _, v := range candidate.Unclassified {
		if err := cw.WriteUnclassified(SourceCandidate, v); err != nil {
			return err
		}
	}

	return cw.Flush()
}

// Flush flushes any buffered data to the underlying writer.
func (cw *CallsWriter) Flush() error {
	return cw.w.Flush()
}
