package match

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vcfcompare/internal/quality"
	"github.com/inodb/vcfcompare/internal/variantset"
)

const ann = "DEPTH=12;COV=20;SCORE=5"

type rec struct {
	chrom    int
	pos      int64
	ref, alt string
}

func setOf(recs ...rec) *variantset.Set {
	s := variantset.NewSet()
	for _, r := range recs {
		s.Add(r.chrom, r.pos, variantset.Allele{Ref: r.ref, Alt: r.alt}, ann)
	}
	return s
}

func both(t *testing.T, cand, truth *variantset.Set, cat variantset.Category, opts Options) (Result, Result) {
	t.Helper()
	tpfp, err := Count(cand, truth, cat, opts)
	require.NoError(t, err)
	cmfn, err := Count(truth, cand, cat, opts)
	require.NoError(t, err)
	return tpfp, cmfn
}

func TestCount_IdenticalExact(t *testing.T) {
	truth := setOf(rec{1, 100, "A", "T"})
	cand := setOf(rec{1, 100, "A", "T"})

	tpfp, cmfn := both(t, cand, truth, variantset.Substitution, DefaultOptions())
	assert.Equal(t, 1, tpfp.Matched, "tp")
	assert.Equal(t, 0, tpfp.Unmatched, "fp")
	assert.Equal(t, 1, cmfn.Matched, "cm")
	assert.Equal(t, 0, cmfn.Unmatched, "fn")
}

func TestCount_ShiftedTolerant(t *testing.T) {
	truth := setOf(rec{1, 100, "A", "T"})
	cand := setOf(rec{1, 103, "A", "T"})

	opts := Options{Mode: Tolerant, Window: 10}
	tpfp, cmfn := both(t, cand, truth, variantset.Substitution, opts)
	assert.Equal(t, 1, tpfp.Matched)
	assert.Equal(t, 0, tpfp.Unmatched)
	assert.Equal(t, 1, cmfn.Matched)

	// Exact mode gives no credit for the shift.
	tpfp, _ = both(t, cand, truth, variantset.Substitution, DefaultOptions())
	assert.Equal(t, 0, tpfp.Matched)
	assert.Equal(t, 1, tpfp.Unmatched)
}

func TestCount_SameSiteDifferentAlt(t *testing.T) {
	truth := setOf(rec{1, 100, "A", "T"})
	cand := setOf(rec{1, 100, "A", "G"})

	for _, opts := range []Options{DefaultOptions(), {Mode: Tolerant, Window: 10}} {
		t.Run(opts.Mode.String(), func(t *testing.T) {
			tpfp, cmfn := both(t, cand, truth, variantset.Substitution, opts)
			assert.Equal(t, 0, tpfp.Matched, "tp")
			assert.Equal(t, 1, tpfp.Unmatched, "fp")
			assert.Equal(t, 1, cmfn.Unmatched, "fn")
			assert.Equal(t, 0, cmfn.Matched, "cm")
		})
	}
}

func TestCount_WindowEdges(t *testing.T) {
	truth := setOf(rec{1, 100, "A", "T"})
	opts := Options{Mode: Tolerant, Window: 10}

	for _, tt := range []struct {
		pos  int64
		want int
	}{
		{90, 1}, {110, 1}, {89, 0}, {111, 0},
	} {
		res, err := Count(setOf(rec{1, tt.pos, "A", "T"}), truth, variantset.Substitution, opts)
		require.NoError(t, err)
		assert.Equal(t, tt.want, res.Matched, "pos %d", tt.pos)
	}

	// Different chromosome never matches.
	res, err := Count(setOf(rec{2, 100, "A", "T"}), truth, variantset.Substitution, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Matched)
}

func TestCount_MultiAllele(t *testing.T) {
	truth := setOf(rec{2, 500, "G", "A"}, rec{2, 500, "G", "C"})
	cand := setOf(rec{2, 500, "G", "C"}, rec{2, 500, "G", "T"})

	tpfp, cmfn := both(t, cand, truth, variantset.Substitution, DefaultOptions())
	assert.Equal(t, 1, tpfp.Matched)
	assert.Equal(t, 1, tpfp.Unmatched)
	assert.Equal(t, 1, cmfn.Matched)
	assert.Equal(t, 1, cmfn.Unmatched)

	// Two alternates each find their own truth entry without double counting.
	cand = setOf(rec{2, 500, "G", "A"}, rec{2, 500, "G", "C"})
	tpfp, _ = both(t, cand, truth, variantset.Substitution, DefaultOptions())
	assert.Equal(t, 2, tpfp.Matched)
	assert.Equal(t, 0, tpfp.Unmatched)
}

func TestCount_DeletionOffset(t *testing.T) {
	// Truth anchors the 3bp deletion 3 bases to the right of the candidate.
	// With a zero window only the offset can produce a hit.
	truth := setOf(rec{1, 203, "ATGC", "A"})
	cand := setOf(rec{1, 200, "ATGC", "A"})

	opts := Options{Mode: Tolerant, Window: 0}
	res, err := Count(cand, truth, variantset.Deletion, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Matched)

	opts.DeletionOffset = true
	res, err = Count(cand, truth, variantset.Deletion, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Matched)

	// The shift is found from the truth side as well.
	res, err = Count(truth, cand, variantset.Deletion, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Matched)

	// The offset applies to deletions only.
	res, err = Count(setOf(rec{1, 200, "A", "T"}), setOf(rec{1, 200, "A", "T"}), variantset.Substitution, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Matched)
}

func TestCount_DeletionOffsetLongDeletion(t *testing.T) {
	// A 14bp deletion spans further than the window; the identical call on
	// the other side must still match in both directions.
	truth := setOf(rec{1, 100, "ACGTACGTACGTACG", "A"})
	cand := setOf(rec{1, 100, "ACGTACGTACGTACG", "A"})

	for _, offset := range []bool{false, true} {
		opts := Options{Mode: Tolerant, Window: 10, DeletionOffset: offset}

		tpfp, err := Count(cand, truth, variantset.Deletion, opts)
		require.NoError(t, err)
		assert.Equal(t, 1, tpfp.Matched, "offset=%t", offset)
		assert.Equal(t, 0, tpfp.Unmatched, "offset=%t", offset)

		cmfn, err := Count(truth, cand, variantset.Deletion, opts)
		require.NoError(t, err)
		assert.Equal(t, 1, cmfn.Matched, "offset=%t", offset)
	}
}

func TestCentres(t *testing.T) {
	del := variantset.Entry{Chrom: 1, Pos: 200, Allele: variantset.Allele{Ref: "ATGC", Alt: "A"}}
	sub := variantset.Entry{Chrom: 1, Pos: 200, Allele: variantset.Allele{Ref: "A", Alt: "T"}}
	on := Options{Mode: Tolerant, DeletionOffset: true}

	assert.Equal(t, []int64{200, 203, 197}, Centres(del, variantset.Deletion, on))
	assert.Equal(t, []int64{200}, Centres(del, variantset.Deletion, Options{Mode: Tolerant}))
	assert.Equal(t, []int64{200}, Centres(sub, variantset.Substitution, on))
}

func TestCount_IgnoreAlleles(t *testing.T) {
	truth := setOf(rec{1, 100, "A", "T"})
	cand := setOf(rec{1, 105, "A", "G"})

	opts := Options{Mode: Tolerant, Window: 10}
	res, err := Count(cand, truth, variantset.Substitution, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Matched)

	opts.IgnoreAlleles = true
	res, err = Count(cand, truth, variantset.Substitution, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Matched)
}

func TestCount_EmptySets(t *testing.T) {
	res, err := Count(variantset.NewSet(), setOf(rec{1, 1, "A", "T"}), variantset.Substitution, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total())

	res, err = Count(setOf(rec{1, 1, "A", "T"}), variantset.NewSet(), variantset.Substitution, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Unmatched)
}

func TestOffsets(t *testing.T) {
	assert.Equal(t, []int64{0, -1, 1, -2, 2}, Offsets(2))
	assert.Equal(t, []int64{0}, Offsets(0))
	assert.Equal(t, []int64{0}, Offsets(-4))
	assert.Len(t, Offsets(DefaultWindow), 21)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Tolerant")
	require.NoError(t, err)
	assert.Equal(t, Tolerant, m)

	m, err = ParseMode("exact")
	require.NoError(t, err)
	assert.Equal(t, Exact, m)

	_, err = ParseMode("fuzzy")
	assert.Error(t, err)
}

func TestCount_Stratified(t *testing.T) {
	truth := setOf(rec{1, 100, "A", "T"})
	cand := variantset.NewSet()
	cand.Add(1, 100, variantset.Allele{Ref: "A", Alt: "T"}, "DEPTH=12;COV=20;SCORE=5")
	cand.Add(1, 150, variantset.Allele{Ref: "C", Alt: "G"}, "DEPTH=5;COV=0;SCORE=200")

	opts := DefaultOptions()
	opts.Stratifier = quality.NewStratifier(quality.AllAxes(), quality.DefaultLimit)

	res, err := Count(cand, truth, variantset.Substitution, opts)
	require.NoError(t, err)
	require.NotNil(t, res.MatchedHist)

	assert.Equal(t, 1, res.MatchedHist.Count(quality.Depth, 12))
	assert.Equal(t, 1, res.MatchedHist.Count(quality.Percentage, 60))
	assert.Equal(t, 1, res.MatchedHist.Count(quality.Score, 5))

	assert.Equal(t, 1, res.UnmatchedHist.Count(quality.Percentage, 99))
	assert.Equal(t, 1, res.UnmatchedHist.Count(quality.Score, 99))

	for _, a := range quality.AllAxes() {
		assert.Equal(t, res.Matched, res.MatchedHist.Total(a))
		assert.Equal(t, res.Unmatched, res.UnmatchedHist.Total(a))
	}
}

func TestCount_StratifyError(t *testing.T) {
	cand := variantset.NewSet()
	cand.Add(1, 100, variantset.Allele{Ref: "A", Alt: "T"}, "DEPTH=12")

	opts := DefaultOptions()
	opts.Stratifier = quality.NewStratifier(quality.AllAxes(), quality.DefaultLimit)

	_, err := Count(cand, variantset.NewSet(), variantset.Substitution, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1:100 A>T")

	var ape *quality.AnnotationParseError
	require.True(t, errors.As(err, &ape))
	assert.Zero(t, ape.Line, "entry added without a source line")

	withLine := variantset.NewSet()
	withLine.Insert(variantset.Entry{Chrom: 1, Pos: 100, Allele: variantset.Allele{Ref: "A", Alt: "T"}, Annotation: "DEPTH=12", Line: 7})
	_, err = Count(withLine, variantset.NewSet(), variantset.Substitution, opts)
	require.True(t, errors.As(err, &ape))
	assert.Equal(t, 7, ape.Line)
	assert.Contains(t, err.Error(), "at line 7")

	opts.Stratifier.Lenient = true
	res, err := Count(cand, variantset.NewSet(), variantset.Substitution, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Unmatched)
	assert.Equal(t, 1, res.UnmatchedHist.Unscored())
}

func randomSet(r *rand.Rand, n int) *variantset.Set {
	bases := []string{"A", "C", "G", "T"}
	s := variantset.NewSet()
	for i := 0; i < n; i++ {
		s.Add(1+r.Intn(2), int64(1+r.Intn(300)),
			variantset.Allele{Ref: bases[r.Intn(4)], Alt: bases[r.Intn(4)]}, ann)
	}
	return s
}

func TestCount_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for iter := 0; iter < 50; iter++ {
		cand := randomSet(r, 1+r.Intn(80))
		truth := randomSet(r, 1+r.Intn(80))

		prevTP := -1
		for w := 0; w <= 12; w++ {
			opts := Options{Mode: Tolerant, Window: w}
			tpfp, cmfn := both(t, cand, truth, variantset.Substitution, opts)

			require.Equal(t, cand.Len(), tpfp.Matched+tpfp.Unmatched)
			require.Equal(t, truth.Len(), cmfn.Matched+cmfn.Unmatched)
			require.GreaterOrEqual(t, tpfp.Matched, prevTP, "tp decreased when window grew to %d", w)
			prevTP = tpfp.Matched
		}

		tpfp, cmfn := both(t, cand, truth, variantset.Substitution, DefaultOptions())
		require.Equal(t, cand.Len(), tpfp.Total())
		require.Equal(t, truth.Len(), cmfn.Total())
		// Exact matching is symmetric.
		require.Equal(t, tpfp.Matched, cmfn.Matched)

		exactTP := 0
		for _, e := range cand.Entries() {
			if truth.Contains(e.Chrom, e.Pos, e.Allele) {
				exactTP++
			}
		}
		require.Equal(t, exactTP, tpfp.Matched)
	}
}
