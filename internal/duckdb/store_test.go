package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vcfcompare/internal/compare"
	"github.com/inodb/vcfcompare/internal/quality"
	"github.com/inodb/vcfcompare/internal/report"
	"github.com/inodb/vcfcompare/internal/variantset"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func runComparison(t *testing.T, cfg compare.Config) *report.Report {
	t.Helper()
	e, err := compare.NewEngine(cfg)
	require.NoError(t, err)
	rep, err := e.Run(context.Background(), findTestFile(t, "truth.vcf"), findTestFile(t, "candidate.vcf"))
	require.NoError(t, err)
	return rep
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
	assert.Empty(t, s.Path())
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "runs.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)

	// Reopening keeps the existing schema.
	s, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestWriteReportCounts(t *testing.T) {
	s := openInMemory(t)
	rep := runComparison(t, compare.DefaultConfig())

	id := NewRunID()
	require.NoError(t, s.WriteReport(id, rep))

	counts, err := s.Counts(id)
	require.NoError(t, err)
	require.Len(t, counts, 3)

	assert.Equal(t, "deletion", counts[0].Category)
	assert.Equal(t, "substitution", counts[2].Category)
	assert.Equal(t, CategoryCounts{
		Category:       "substitution",
		TP:             2,
		FP:             2,
		FN:             2,
		CM:             2,
		CandidateTotal: 4,
		TruthTotal:     4,
	}, counts[2])

	none, err := s.Counts("missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestWriteReportStrata(t *testing.T) {
	s := openInMemory(t)
	rep := runComparison(t, compare.DefaultConfig())

	id := NewRunID()
	require.NoError(t, s.WriteReport(id, rep))

	sub := rep.Category(variantset.Substitution)
	for _, a := range quality.AllAxes() {
		got, err := s.Strata(id, variantset.Substitution, a)
		require.NoError(t, err)
		assert.Equal(t, sub.Strata(a), got, a.String())
	}
}

func TestWriteReportUnstratified(t *testing.T) {
	s := openInMemory(t)
	cfg, err := compare.Preset("tolerant-position")
	require.NoError(t, err)
	rep := runComparison(t, cfg)

	id := NewRunID()
	require.NoError(t, s.WriteReport(id, rep))

	strata, err := s.Strata(id, variantset.Substitution, quality.Depth)
	require.NoError(t, err)
	assert.Empty(t, strata)

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, "tolerant", runs[0].Mode)
	assert.Equal(t, int64(5), runs[0].TruthRecords)
	assert.Equal(t, int64(6), runs[0].CandidateRecords)
	assert.Positive(t, runs[0].Truth.Size)
}

func TestMultipleRunsAndDelete(t *testing.T) {
	s := openInMemory(t)
	exact := runComparison(t, compare.DefaultConfig())
	cfg, err := compare.Preset("tolerant")
	require.NoError(t, err)
	tolerant := runComparison(t, cfg)

	a, b := NewRunID(), NewRunID()
	assert.NotEqual(t, a, b)
	require.NoError(t, s.WriteReport(a, exact))
	require.NoError(t, s.WriteReport(b, tolerant))

	ca, err := s.Counts(a)
	require.NoError(t, err)
	cb, err := s.Counts(b)
	require.NoError(t, err)
	assert.Equal(t, int64(0), ca[0].TP)
	assert.Equal(t, int64(1), cb[0].TP)

	require.NoError(t, s.DeleteRun(a))
	ca, err = s.Counts(a)
	require.NoError(t, err)
	assert.Empty(t, ca)

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, b, runs[0].ID)

	// Run ids are unique.
	assert.Error(t, s.WriteReport(b, tolerant))
}

func TestWriteReportRollsBackOnAppendFailure(t *testing.T) {
	s := openInMemory(t)
	rep := runComparison(t, compare.DefaultConfig())

	// category_counts succeeds, then the stratification rows no longer fit.
	_, err := s.DB().Exec("DROP TABLE stratification")
	require.NoError(t, err)
	_, err = s.DB().Exec("CREATE TABLE stratification (run_id VARCHAR)")
	require.NoError(t, err)

	id := NewRunID()
	require.Error(t, s.WriteReport(id, rep))

	runs, err := s.Runs()
	require.NoError(t, err)
	assert.Empty(t, runs)
	counts, err := s.Counts(id)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestStatFile(t *testing.T) {
	fp := StatFile(findTestFile(t, "truth.vcf"))
	assert.Positive(t, fp.Size)
	assert.False(t, fp.ModTime.IsZero())

	fp = StatFile("-")
	assert.Equal(t, "-", fp.Path)
	assert.Zero(t, fp.Size)
}

// findTestFile locates a test file in the testdata directory.
func findTestFile(t *testing.T, name string) string {
	t.Helper()

	paths := []string{
		filepath.Join("testdata", name),
		filepath.Join("..", "..", "testdata", name),
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	t.Fatalf("Test file not found: %s", name)
	return ""
}
