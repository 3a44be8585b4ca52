package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vcfcompare/internal/compare"
	"github.com/inodb/vcfcompare/internal/duckdb"
	"github.com/inodb/vcfcompare/internal/match"
	"github.com/inodb/vcfcompare/internal/output"
	"github.com/inodb/vcfcompare/internal/quality"
	"github.com/inodb/vcfcompare/internal/report"
	"github.com/inodb/vcfcompare/internal/variantset"
)

type flagKey struct{ flag, key string }

// flagKeys maps compare flags to their configuration keys.
var flagKeys = []flagKey{
	{"preset", "preset"},
	{"mode", "match.mode"},
	{"window", "match.window"},
	{"deletion-offset", "match.deletion_offset"},
	{"ignore-alleles", "match.ignore_alleles"},
	{"axes", "quality.axes"},
	{"limit", "quality.limit"},
	{"lenient", "quality.lenient"},
	{"invert-score", "quality.invert_score"},
	{"multi-allelic", "load.multi_allelic"},
	{"max-allele-length", "load.max_allele_length"},
	{"filter-min-percentage", "filter.min_percentage"},
	{"filter-max-score", "filter.max_score"},
	{"strict", "report.strict"},
	{"parallel", "report.parallel"},
	{"export", "report.export"},
	{"calls", "report.calls"},
}

func newCompareCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "compare [flags] <truth.vcf> <candidate.vcf>",
		Short: "Compare a candidate call set against a truth set",
		Long: `Compare a candidate call set against a truth set.

Both inputs may be plain or gzip-compressed VCF files; use '-' to read one
of them from stdin. Flags override values from ~/.vcfcompare.yaml and
VCFCOMPARE_* environment variables, which in turn override the preset.`,
		Example: `  vcfcompare compare truth.vcf calls.vcf
  vcfcompare compare --mode tolerant --window 10 truth.vcf calls.vcf.gz
  vcfcompare compare --preset tolerant-position truth.vcf calls.vcf
  vcfcompare compare --axes depth --limit 50 -o report.txt truth.vcf calls.vcf
  vcfcompare compare --export runs.duckdb truth.vcf calls.vcf`,
		Args: usageArgs(cobra.ExactArgs(2)),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			for _, fk := range flagKeys {
				if err := viper.BindPFlag(fk.key, cmd.Flags().Lookup(fk.flag)); err != nil {
					return fmt.Errorf("bind flag %s: %w", fk.flag, err)
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(viper.GetViper())
			if err != nil {
				return usageError{err}
			}
			verbose, _ := cmd.Flags().GetBool("verbose")
			return runCompare(cmd, cfg, args[0], args[1], compareOutputs{
				report: outputFile,
				calls:  viper.GetString("report.calls"),
				export: viper.GetString("report.export"),
			}, verbose)
		},
	}

	def := compare.DefaultConfig()
	f := cmd.Flags()
	f.String("preset", "", "Start from a named preset (see 'vcfcompare presets')")
	f.String("mode", def.Match.Mode.String(), "Matching mode: exact or tolerant")
	f.Int("window", match.DefaultWindow, "Positional window for tolerant matching")
	f.Bool("deletion-offset", false, "Also scan deletions around pos +/- (len(ref) - len(alt))")
	f.Bool("ignore-alleles", false, "Match on position only (tolerant mode)")
	f.String("axes", def.Quality.Axes.String(), "Stratification axes: depth,percentage,score or none")
	f.Int("limit", quality.DefaultLimit, "Histogram buckets per axis")
	f.Bool("lenient", false, "Count calls with unparseable annotations as unscored instead of failing")
	f.Bool("invert-score", false, "Print the cumulative score column as 100 - cumulative")
	f.Bool("multi-allelic", def.Load.MultiAllelic, "Split comma-separated alternate alleles")
	f.Int("max-allele-length", 0, "Drop records with a longer ref or alt (0 = unlimited)")
	f.Int("filter-min-percentage", 0, "Drop calls below this depth/coverage percentage")
	f.Int("filter-max-score", 0, "Drop calls above this score")
	f.Bool("strict", false, "Exit with an error on inconsistent counts")
	f.Bool("parallel", false, "Compare the three categories concurrently")
	f.String("export", "", "Append the results to a DuckDB database")
	f.String("calls", "", "Write every call with its tp/fp/fn/cm status to this TSV file")
	f.StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// buildConfig resolves the preset and applies every key set by a flag, the
// config file or the environment.
func buildConfig(v *viper.Viper) (compare.Config, error) {
	cfg := compare.DefaultConfig()
	if name := v.GetString("preset"); name != "" {
		var err error
		if cfg, err = compare.Preset(name); err != nil {
			return cfg, err
		}
	}

	if v.IsSet("match.mode") {
		m, err := match.ParseMode(v.GetString("match.mode"))
		if err != nil {
			return cfg, err
		}
		cfg.Match.Mode = m
	}
	if v.IsSet("match.window") {
		cfg.Match.Window = v.GetInt("match.window")
	}
	if v.IsSet("match.deletion_offset") {
		cfg.Match.DeletionOffset = v.GetBool("match.deletion_offset")
	}
	if v.IsSet("match.ignore_alleles") {
		cfg.Match.IgnoreAlleles = v.GetBool("match.ignore_alleles")
	}

	if v.IsSet("quality.axes") {
		s := v.GetString("quality.axes")
		if strings.EqualFold(strings.TrimSpace(s), "none") {
			cfg.Quality.Axes = nil
		} else {
			axes, err := quality.ParseAxes(s)
			if err != nil {
				return cfg, err
			}
			cfg.Quality.Axes = axes
		}
	}
	if v.IsSet("quality.limit") {
		cfg.Quality.Limit = v.GetInt("quality.limit")
	}
	if v.IsSet("quality.lenient") {
		cfg.Quality.Lenient = v.GetBool("quality.lenient")
	}
	if v.IsSet("quality.invert_score") {
		cfg.Quality.InvertScore = v.GetBool("quality.invert_score")
	}

	if v.IsSet("load.multi_allelic") {
		cfg.Load.MultiAllelic = v.GetBool("load.multi_allelic")
	}
	if v.IsSet("load.max_allele_length") {
		cfg.Load.MaxAlleleLength = v.GetInt("load.max_allele_length")
	}
	if v.IsSet("filter.min_percentage") || v.IsSet("filter.max_score") {
		f := &variantset.Filter{MaxScore: math.MaxInt}
		if v.IsSet("filter.min_percentage") {
			f.MinPercentage = v.GetInt("filter.min_percentage")
		}
		if v.IsSet("filter.max_score") {
			f.MaxScore = v.GetInt("filter.max_score")
		}
		cfg.Load.Filter = f
	}

	if v.IsSet("report.strict") {
		cfg.Strict = v.GetBool("report.strict")
	}
	if v.IsSet("report.parallel") {
		cfg.Parallel = v.GetBool("report.parallel")
	}

	return cfg, cfg.Validate()
}

// compareOutputs names the files a compare run writes besides stdout.
type compareOutputs struct {
	report string
	calls  string
	export string
}

func runCompare(cmd *cobra.Command, cfg compare.Config, truthPath, candidatePath string, outs compareOutputs, verbose bool) error {
	if truthPath == "-" && candidatePath == "-" {
		return usageError{errors.New("only one input can be read from stdin")}
	}

	logger, err := newLogger(verbose)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	engine, err := compare.NewEngine(cfg)
	if err != nil {
		return usageError{err}
	}
	engine.SetLogger(logger)

	logger.Info("comparing",
		zap.String("truth", truthPath),
		zap.String("candidate", candidatePath),
		zap.Stringer("mode", cfg.Match.Mode),
		zap.Int("window", cfg.Match.Window),
		zap.Stringer("axes", cfg.Quality.Axes))

	truth, candidate, err := engine.Load(cmd.Context(), truthPath, candidatePath)
	if err != nil {
		return err
	}
	rep, runErr := engine.RunCollections(cmd.Context(), truth, candidate)
	if rep == nil {
		return runErr
	}

	// Create output writer
	var out io.Writer = cmd.OutOrStdout()
	if outs.report != "" {
		f, err := os.Create(outs.report)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := report.NewWriter(out).WriteReport(rep); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if outs.calls != "" {
		if err := writeCalls(outs.calls, truth, candidate, cfg.Match); err != nil {
			return err
		}
	}

	if outs.export != "" {
		if err := exportReport(cmd, outs.export, rep, logger); err != nil {
			return err
		}
	}

	return runErr
}

func writeCalls(path string, truth, candidate *variantset.Collection, opts match.Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create calls file: %w", err)
	}
	defer f.Close()

	if err := output.NewCallsWriter(f).WriteComparison(truth, candidate, opts); err != nil {
		return fmt.Errorf("write calls: %w", err)
	}
	return f.Close()
}

func exportReport(cmd *cobra.Command, path string, rep *report.Report, logger *zap.Logger) error {
	store, err := duckdb.Open(path)
	if err != nil {
		return fmt.Errorf("open export database: %w", err)
	}
	defer store.Close()

	id := duckdb.NewRunID()
	if err := store.WriteReport(id, rep); err != nil {
		return fmt.Errorf("export report: %w", err)
	}
	logger.Info("exported run", zap.String("run_id", id), zap.String("path", path))
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported run %s to %s\n", id, path)
	return nil
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the named comparison presets",
		Args:  usageArgs(cobra.NoArgs),
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			for _, name := range compare.PresetNames() {
				cfg, _ := compare.Preset(name)
				fmt.Fprintf(w, "%-20s mode=%s window=%d axes=%s multi-allelic=%t\n",
					name, cfg.Match.Mode, cfg.Match.Window, axesLabel(cfg.Quality.Axes), cfg.Load.MultiAllelic)
			}
		},
	}
}

func axesLabel(axes quality.Axes) string {
	if len(axes) == 0 {
		return "none"
	}
	return axes.String()
}
