package quality

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnnotation(t *testing.T) {
	q, err := ParseAnnotation("DEPTH=12;COV=20;SCORE=5", DefaultKeys(), AllAxes())
	require.NoError(t, err)
	assert.Equal(t, Quality{Depth: 12, Coverage: 20, Score: 5, Percentage: 60}, q)
}

func TestParseAnnotation_Tolerant(t *testing.T) {
	tests := []struct {
		name       string
		annotation string
		want       Quality
	}{
		{"reordered", "SCORE=5;COV=20;DEPTH=12", Quality{12, 20, 5, 60}},
		{"aliases", "DP=12;COVERAGE=20;SC=5", Quality{12, 20, 5, 60}},
		{"lower case keys", "depth=12;cov=20;score=5", Quality{12, 20, 5, 60}},
		{"extra fields and flags", "SOMATIC;AF=0.5;DEPTH=12;COV=20;SCORE=5", Quality{12, 20, 5, 60}},
		{"whitespace", " DEPTH = 12 ; COV=20;SCORE=5 ", Quality{12, 20, 5, 60}},
		{"truncated percentage", "DEPTH=1;COV=3;SCORE=0", Quality{1, 3, 0, 33}},
		{"percentage above 100", "DEPTH=30;COV=10;SCORE=0", Quality{30, 10, 0, 300}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseAnnotation(tt.annotation, DefaultKeys(), AllAxes())
			require.NoError(t, err)
			assert.Equal(t, tt.want, q)
		})
	}
}

func TestParseAnnotation_ZeroCoverage(t *testing.T) {
	q, err := ParseAnnotation("DEPTH=5;COV=0;SCORE=200", DefaultKeys(), AllAxes())
	require.NoError(t, err)
	assert.Equal(t, PercentageSentinel, q.Percentage)
	assert.Equal(t, 100, q.Percentage)
}

func TestParseAnnotation_Errors(t *testing.T) {
	tests := []struct {
		name       string
		annotation string
		axes       Axes
		key        string
	}{
		{"missing score", "DEPTH=12;COV=20", AllAxes(), "SCORE"},
		{"missing coverage for percentage", "DEPTH=12;SCORE=5", Axes{Percentage}, "COV"},
		{"missing depth", "COV=20;SCORE=5", Axes{Depth}, "DEPTH"},
		{"non-integer depth", "DEPTH=abc;COV=20;SCORE=5", AllAxes(), "DEPTH"},
		{"empty annotation", ".", AllAxes(), "DEPTH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAnnotation(tt.annotation, DefaultKeys(), tt.axes)
			var ape *AnnotationParseError
			require.True(t, errors.As(err, &ape), "expected AnnotationParseError, got %v", err)
			assert.Equal(t, tt.key, ape.Key)
			assert.Equal(t, tt.annotation, ape.Annotation)
		})
	}
}

func TestParseAnnotation_OnlyRequiredKeys(t *testing.T) {
	// Two-axis stratification does not need a score.
	q, err := ParseAnnotation("DEPTH=12;COV=20", DefaultKeys(), Axes{Depth, Percentage})
	require.NoError(t, err)
	assert.Equal(t, 60, q.Percentage)
	assert.Equal(t, 0, q.Score)
}

func TestParseAxes(t *testing.T) {
	axes, err := ParseAxes("score, depth")
	require.NoError(t, err)
	assert.Equal(t, Axes{Depth, Score}, axes)
	assert.Equal(t, "depth,score", axes.String())

	axes, err = ParseAxes("")
	require.NoError(t, err)
	assert.Empty(t, axes)

	_, err = ParseAxes("depth,quality")
	assert.Error(t, err)
}

func TestHistogram_Clamping(t *testing.T) {
	h := NewHistogram(10, AllAxes())
	h.Add(Quality{Depth: 12, Percentage: 60, Score: 5})
	h.Add(Quality{Depth: -3, Percentage: 100, Score: 9})

	assert.Equal(t, 1, h.Count(Depth, 9))
	assert.Equal(t, 1, h.Count(Depth, 0))
	assert.Equal(t, 2, h.Count(Percentage, 9))
	assert.Equal(t, 1, h.Count(Score, 5))
	assert.Equal(t, 1, h.Count(Score, 9))
	assert.Equal(t, 0, h.Count(Score, 10))
	assert.Equal(t, 9, h.Bucket(1000))
}

func TestHistogram_Totals(t *testing.T) {
	h := NewHistogram(0, AllAxes())
	assert.Equal(t, DefaultLimit, h.Limit())

	for i := 0; i < 250; i++ {
		h.Add(Quality{Depth: i, Percentage: i * 3, Score: 250 - i})
	}
	for _, a := range AllAxes() {
		assert.Equal(t, 250, h.Total(a), a.String())
		for i := 0; i < h.Limit(); i++ {
			assert.GreaterOrEqual(t, h.Count(a, i), 0)
		}
	}
	assert.Equal(t, 250, h.Records())
	assert.Equal(t, 151, h.Count(Depth, DefaultLimit-1))
}

func TestHistogram_DisabledAxis(t *testing.T) {
	h := NewHistogram(10, Axes{Depth, Percentage})
	h.Add(Quality{Depth: 1, Percentage: 2, Score: 3})
	assert.Equal(t, 0, h.Total(Score))
	assert.Equal(t, 0, h.Count(Score, 3))
	assert.Equal(t, 1, h.Total(Depth))
}

func TestStratifier_Scenario(t *testing.T) {
	s := NewStratifier(AllAxes(), DefaultLimit)
	h := s.NewHistogram()

	require.NoError(t, s.Stratify("DEPTH=12;COV=20;SCORE=5", h))
	assert.Equal(t, 1, h.Count(Depth, 12))
	assert.Equal(t, 1, h.Count(Percentage, 60))
	assert.Equal(t, 1, h.Count(Score, 5))
}

func TestStratifier_StrictAndLenient(t *testing.T) {
	s := NewStratifier(AllAxes(), DefaultLimit)
	h := s.NewHistogram()

	err := s.Stratify("DEPTH=12;COV=20", h)
	var ape *AnnotationParseError
	assert.True(t, errors.As(err, &ape))
	assert.Equal(t, 0, h.Records())

	s.Lenient = true
	require.NoError(t, s.Stratify("DEPTH=12;COV=20", h))
	assert.Equal(t, 1, h.Unscored())
	assert.Equal(t, 0, h.Records())
	for _, a := range AllAxes() {
		assert.Equal(t, 0, h.Total(a))
	}
}
