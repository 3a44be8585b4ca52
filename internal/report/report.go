// Package report aggregates match results into consistency-checked accuracy
// tables.
package report

import (
	"errors"
	"fmt"

	"github.com/inodb/vcfcompare/internal/match"
	"github.com/inodb/vcfcompare/internal/quality"
	"github.com/inodb/vcfcompare/internal/variantset"
)

// ErrInconsistent is returned by Report.Err in strict mode.
var ErrInconsistent = errors.New("inconsistent comparison counts")

// WarningKind identifies a failed sanity check.
type WarningKind string

const (
	KindTPCMDivergence WarningKind = "tp_cm_divergence"
	KindCandidateTotal WarningKind = "candidate_total"
	KindTruthTotal     WarningKind = "truth_total"
)

// ConsistencyWarning is a non-fatal sanity-check failure.
type ConsistencyWarning struct {
	Category variantset.Category
	Kind     WarningKind
	Message  string
}

func (w ConsistencyWarning) String() string {
	return fmt.Sprintf("WARNING [%s] %s: %s", w.Category, w.Kind, w.Message)
}

// Options controls report construction.
type Options struct {
	// Mode is the matching mode the counts came from. A tp/cm divergence
	// is expected in tolerant mode and is not fatal in strict mode.
	Mode match.Mode

	// InvertScore prints the cumulative score column as 100 minus the
	// cumulative percentage.
	InvertScore bool
}

// Rate is one of the four summary lines.
type Rate struct {
	Name    string
	Num     int
	Den     int
	Percent float64
}

// CategoryReport holds the accounting of one variant category.
type CategoryReport struct {
	Category       variantset.Category
	TP, FP, FN, CM int
	CandidateTotal int
	TruthTotal     int

	// Histograms of TP and FP candidate calls, nil when not stratified.
	TPHist *quality.Histogram
	FPHist *quality.Histogram

	Warnings    []ConsistencyWarning
	Diagnostics []string

	opts Options
}

// Build combines candidate-vs-truth (tpfp) and truth-vs-candidate (cmfn)
// results. cm and fn are taken from cmfn as computed, never derived from tp.
func Build(cat variantset.Category, tpfp, cmfn match.Result, candidateTotal, truthTotal int, opts Options) *CategoryReport {
	r := &CategoryReport{
		Category:       cat,
		TP:             tpfp.Matched,
		FP:             tpfp.Unmatched,
		CM:             cmfn.Matched,
		FN:             cmfn.Unmatched,
		CandidateTotal: candidateTotal,
		TruthTotal:     truthTotal,
		TPHist:         tpfp.MatchedHist,
		FPHist:         tpfp.UnmatchedHist,
		opts:           opts,
	}

	if r.TP != r.CM {
		r.warn(KindTPCMDivergence, fmt.Sprintf("tp (%d) != cm (%d)", r.TP, r.CM))
	}
	if r.TP+r.FP != r.CandidateTotal {
		r.warn(KindCandidateTotal, fmt.Sprintf("tp+fp (%d) != candidate total (%d)", r.TP+r.FP, r.CandidateTotal))
	}
	if r.CM+r.FN != r.TruthTotal {
		r.warn(KindTruthTotal, fmt.Sprintf("cm+fn (%d) != truth total (%d)", r.CM+r.FN, r.TruthTotal))
	}

	if r.CandidateTotal == 0 {
		r.diag("no candidate %s calls: tp and fp rates reported as 0%%", cat)
	}
	if r.TruthTotal == 0 {
		r.diag("no truth %s calls: fn and cm rates reported as 0%%", cat)
	}
	if r.Stratified() {
		if r.TP == 0 {
			r.diag("no %s true positives: tp strata reported as 0%%", cat)
		}
		if r.FP == 0 {
			r.diag("no %s false positives: fp strata reported as 0%%", cat)
		}
		if r.CM == 0 {
			r.diag("no %s confirmed matches: tp/cm ratio reported as 0", cat)
		}
		if tpu, fpu := r.TPHist.Unscored(), r.FPHist.Unscored(); tpu+fpu > 0 {
			r.diag("%d %s tp / %d fp calls unscored: cumulative strata stop short of 100%%", tpu, cat, fpu)
		}
	}

	return r
}

func (r *CategoryReport) warn(kind WarningKind, msg string) {
	r.Warnings = append(r.Warnings, ConsistencyWarning{Category: r.Category, Kind: kind, Message: msg})
}

func (r *CategoryReport) diag(format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, fmt.Sprintf(format, args...))
}

// Stratified reports whether quality histograms are available.
func (r *CategoryReport) Stratified() bool {
	return r.TPHist != nil && r.FPHist != nil
}

// Rates returns tp/|C|, fp/|C|, fn/|T| and cm/|T| in that order.
func (r *CategoryReport) Rates() []Rate {
	return []Rate{
		newRate("tp", r.TP, r.CandidateTotal),
		newRate("fp", r.FP, r.CandidateTotal),
		newRate("fn", r.FN, r.TruthTotal),
		newRate("cm", r.CM, r.TruthTotal),
	}
}

func newRate(name string, num, den int) Rate {
	return Rate{Name: name, Num: num, Den: den, Percent: Percent(num, den)}
}

// Percent returns num*100/den, or 0 when den is 0.
func Percent(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) * 100 / float64(den)
}

// Ratio returns num/den, or 0 when den is 0.
func Ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Stratum is one bucket row of an axis table.
type Stratum struct {
	Bucket  int
	TP      float64 // bucket-local share of TP calls
	TPCum   float64 // cumulative share of TP calls up to this bucket
	FP      float64
	FPCum   float64
	TPCount int
	FPCount int
}

// Strata returns one row per bucket of axis a in ascending bucket order.
// Shares are percentages of all TP (resp. FP) calls; the cumulative score
// column is inverted when Options.InvertScore is set.
func (r *CategoryReport) Strata(a quality.Axis) []Stratum {
	if !r.Stratified() || !r.TPHist.Axes().Has(a) {
		return nil
	}

	limit := r.TPHist.Limit()
	rows := make([]Stratum, limit)
	tpAcc, fpAcc := 0, 0
	for i := 0; i < limit; i++ {
		tp := r.TPHist.Count(a, i)
		fp := r.FPHist.Count(a, i)
		tpAcc += tp
		fpAcc += fp

		row := Stratum{
			Bucket:  i,
			TP:      Percent(tp, r.TP),
			TPCum:   Percent(tpAcc, r.TP),
			FP:      Percent(fp, r.FP),
			FPCum:   Percent(fpAcc, r.FP),
			TPCount: tp,
			FPCount: fp,
		}
		if a == quality.Score && r.opts.InvertScore {
			row.TPCum = 100 - row.TPCum
			row.FPCum = 100 - row.FPCum
		}
		rows[i] = row
	}
	return rows
}

// Report is the outcome of one comparison run.
type Report struct {
	Truth      variantset.LoadSummary
	Candidate  variantset.LoadSummary
	Categories []*CategoryReport
	Options    Options
}

// Category returns the report of cat, or nil.
func (r *Report) Category(cat variantset.Category) *CategoryReport {
	for _, c := range r.Categories {
		if c.Category == cat {
			return c
		}
	}
	return nil
}

// Warnings returns every consistency warning across categories.
func (r *Report) Warnings() []ConsistencyWarning {
	var ws []ConsistencyWarning
	for _, c := range r.Categories {
		ws = append(ws, c.Warnings...)
	}
	return ws
}

// Err returns nil unless strict is set and a warning is fatal. A tp/cm
// divergence is fatal only for exact matching, where it cannot happen
// legitimately.
func (r *Report) Err(strict bool) error {
	if !strict {
		return nil
	}
	for _, w := range r.Warnings() {
		if w.Kind == KindTPCMDivergence && r.Options.Mode == match.Tolerant {
			continue
		}
		return fmt.Errorf("%w: %s: %s", ErrInconsistent, w.Category, w.Message)
	}
	return nil
}
