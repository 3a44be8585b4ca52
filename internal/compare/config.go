// Package compare runs a full truth-versus-candidate comparison: loading,
// matching each category in both directions, and aggregating the report.
package compare

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/inodb/vcfcompare/internal/match"
	"github.com/inodb/vcfcompare/internal/quality"
	"github.com/inodb/vcfcompare/internal/variantset"
)

// QualityConfig controls stratification.
type QualityConfig struct {
	// Axes to stratify on; empty disables stratification.
	Axes        quality.Axes
	Limit       int
	Lenient     bool
	InvertScore bool
	Keys        quality.KeySet
}

// Config is the single configuration object of a comparison run.
type Config struct {
	Match   match.Options
	Quality QualityConfig
	Load    variantset.LoadOptions

	// Strict turns fatal consistency warnings into a run error.
	Strict bool

	// Parallel computes the three categories concurrently. Results are
	// identical to a sequential run.
	Parallel bool
}

// DefaultConfig returns exact, multi-allelic matching stratified on all
// three axes.
func DefaultConfig() Config {
	return Config{
		Match: match.DefaultOptions(),
		Quality: QualityConfig{
			Axes:  quality.AllAxes(),
			Limit: quality.DefaultLimit,
			Keys:  quality.DefaultKeys(),
		},
		Load: variantset.DefaultLoadOptions(),
	}
}

// Stratifier builds the stratifier described by the quality config, or nil
// when no axis is enabled.
func (c Config) Stratifier() *quality.Stratifier {
	if len(c.Quality.Axes) == 0 {
		return nil
	}
	s := quality.NewStratifier(c.Quality.Axes, c.Quality.Limit)
	if len(c.Quality.Keys.Depth)+len(c.Quality.Keys.Coverage)+len(c.Quality.Keys.Score) > 0 {
		s.Keys = c.Quality.Keys
	}
	s.Lenient = c.Quality.Lenient
	return s
}

// Validate checks option ranges.
func (c Config) Validate() error {
	if c.Match.Window < 0 {
		return fmt.Errorf("window must be >= 0, got %d", c.Match.Window)
	}
	if c.Quality.Limit < 0 {
		return fmt.Errorf("histogram limit must be >= 0, got %d", c.Quality.Limit)
	}
	if c.Load.MaxAlleleLength < 0 {
		return fmt.Errorf("max allele length must be >= 0, got %d", c.Load.MaxAlleleLength)
	}
	if c.Match.Mode == match.Exact && (c.Match.DeletionOffset || c.Match.IgnoreAlleles) {
		return fmt.Errorf("deletion offset and ignore-alleles need tolerant matching")
	}
	return nil
}

// presets reproduce the matching policies of earlier versions of the tool.
var presets = map[string]func() Config{
	// Current behaviour: exact, multi-allelic, three axes.
	"exact-multiallele": DefaultConfig,

	// Exact matching with the score column printed as 100 - cumulative.
	"exact-stats": func() Config {
		c := DefaultConfig()
		c.Quality.InvertScore = true
		return c
	},

	// Two-axis stratification without the score column.
	"exact-two-axis": func() Config {
		c := DefaultConfig()
		c.Quality.Axes = quality.Axes{quality.Depth, quality.Percentage}
		return c
	},

	// Position-only tolerant matching over single alleles with indels
	// limited to 5bp and no stratification.
	"tolerant-position": func() Config {
		c := DefaultConfig()
		c.Match.Mode = match.Tolerant
		c.Match.Window = match.DefaultWindow
		c.Match.IgnoreAlleles = true
		c.Load.MultiAllelic = false
		c.Load.MaxAlleleLength = 5
		c.Quality.Axes = nil
		return c
	},

	// Allele-aware tolerant matching with deletion anchor alignment.
	"tolerant": func() Config {
		c := DefaultConfig()
		c.Match.Mode = match.Tolerant
		c.Match.Window = match.DefaultWindow
		c.Match.DeletionOffset = true
		return c
	},
}

// Preset returns the named preset configuration.
func Preset(name string) (Config, error) {
	f, ok := presets[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown preset %q (available: %v)", name, PresetNames())
	}
	return f(), nil
}

// PresetNames lists the preset names in sorted order.
func PresetNames() []string {
	names := lo.Keys(presets)
	slices.Sort(names)
	return names
}
