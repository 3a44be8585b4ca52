// Package match counts the entries of one variant set that are found in
// another. Candidate-vs-truth gives TP/FP; truth-vs-candidate gives CM/FN.
package match

import (
	"errors"
	"fmt"
	"strings"

	"github.com/inodb/vcfcompare/internal/quality"
	"github.com/inodb/vcfcompare/internal/variantset"
)

// DefaultWindow is the tolerant-mode half window in bases.
const DefaultWindow = 10

// Mode selects the matching policy.
type Mode int

const (
	// Exact requires identical chromosome, position, ref and alt.
	Exact Mode = iota
	// Tolerant accepts a target entry within Window bases of the query.
	Tolerant
)

func (m Mode) String() string {
	switch m {
	case Exact:
		return "exact"
	case Tolerant:
		return "tolerant"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode parses "exact" or "tolerant".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exact", "":
		return Exact, nil
	case "tolerant":
		return Tolerant, nil
	}
	return Exact, fmt.Errorf("unknown matching mode %q (want exact or tolerant)", s)
}

// Options configures a match run.
type Options struct {
	Mode Mode

	// Window is the tolerant-mode half width W; offsets -W..+W are tried.
	Window int

	// DeletionOffset centres the tolerant window of a deletion on
	// pos + len(ref) - len(alt) instead of pos.
	DeletionOffset bool

	// IgnoreAlleles makes a tolerant hit need only an occupied target
	// position, whatever its alleles.
	IgnoreAlleles bool

	// Stratifier, when set, fills Result.Matched/UnmatchedHist from the
	// annotation of each query entry.
	Stratifier *quality.Stratifier
}

// DefaultOptions returns exact matching without stratification.
func DefaultOptions() Options {
	return Options{Mode: Exact, Window: DefaultWindow}
}

// Result holds the outcome of matching a query set against a target set.
type Result struct {
	Matched   int
	Unmatched int

	// Histograms of the matched and unmatched query entries; nil without
	// a stratifier.
	MatchedHist   *quality.Histogram
	UnmatchedHist *quality.Histogram
}

// Total returns Matched + Unmatched, the number of query entries examined.
func (r Result) Total() int {
	return r.Matched + r.Unmatched
}

// Count matches every entry of query against target. Entries are visited in
// chromosome, position, ref, alt order; each (ref, alt) at a position is
// matched on its own. Matched + Unmatched always equals query.Len().
func Count(query, target *variantset.Set, cat variantset.Category, opts Options) (Result, error) {
	var res Result
	if opts.Stratifier != nil {
		res.MatchedHist = opts.Stratifier.NewHistogram()
		res.UnmatchedHist = opts.Stratifier.NewHistogram()
	}

	for _, e := range query.Entries() {
		hit := Find(target, e, cat, opts)
		h := res.UnmatchedHist
		if hit {
			res.Matched++
			h = res.MatchedHist
		} else {
			res.Unmatched++
		}

		if opts.Stratifier != nil {
			if err := opts.Stratifier.Stratify(e.Annotation, h); err != nil {
				var ape *quality.AnnotationParseError
				if errors.As(err, &ape) {
					ape.Line = e.Line
				}
				return Result{}, fmt.Errorf("stratify %s %d:%d %s>%s: %w",
					cat, e.Chrom, e.Pos, e.Allele.Ref, e.Allele.Alt, err)
			}
		}
	}

	return res, nil
}

// Find reports whether e has a counterpart in target under opts.
func Find(target *variantset.Set, e variantset.Entry, cat variantset.Category, opts Options) bool {
	if opts.Mode == Exact {
		return target.Contains(e.Chrom, e.Pos, e.Allele)
	}

	for _, centre := range Centres(e, cat, opts) {
		for _, d := range Offsets(opts.Window) {
			pos := centre + d
			if opts.IgnoreAlleles {
				if target.HasPosition(e.Chrom, pos) {
					return true
				}
			} else if target.Contains(e.Chrom, pos, e.Allele) {
				return true
			}
		}
	}
	return false
}

// Centres returns the window centres scanned for e in tolerant mode, in
// order. Without DeletionOffset, or for non-deletions, it is just e.Pos.
// With it a deletion of span s is also looked up around pos+s and pos-s,
// so a call anchored s bases away from its counterpart matches in both
// directions and identical deletions always match.
func Centres(e variantset.Entry, cat variantset.Category, opts Options) []int64 {
	if !opts.DeletionOffset || cat != variantset.Deletion {
		return []int64{e.Pos}
	}
	s := variantset.Span(e.Allele.Ref, e.Allele.Alt)
	if s == 0 {
		return []int64{e.Pos}
	}
	return []int64{e.Pos, e.Pos + s, e.Pos - s}
}

// Offsets returns the tolerant scan order 0, -1, +1, -2, +2, ..., -w, +w.
// A negative w is treated as zero.
func Offsets(w int) []int64 {
	if w < 0 {
		w = 0
	}
	offsets := make([]int64, 0, 2*w+1)
	offsets = append(offsets, 0)
	for d := 1; d <= w; d++ {
		offsets = append(offsets, int64(-d), int64(d))
	}
	return offsets
}
