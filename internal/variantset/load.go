package variantset

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vcfcompare/internal/quality"
	"github.com/inodb/vcfcompare/internal/vcf"
)

// Filter keeps records whose score is at most MaxScore and whose
// depth/coverage percentage is at least MinPercentage.
type Filter struct {
	MinPercentage int
	MaxScore      int
}

// Pass reports whether q survives the filter.
func (f Filter) Pass(q quality.Quality) bool {
	return q.Score <= f.MaxScore && q.Percentage >= f.MinPercentage
}

// LoadOptions controls how records become set entries.
type LoadOptions struct {
	// MultiAllelic splits comma-separated alternates into independent
	// entries. When false the alternate column is taken as one allele.
	MultiAllelic bool

	// MaxAlleleLength drops records whose ref or alt is longer.
	// Zero means unlimited.
	MaxAlleleLength int

	// Filter, when set, drops records failing the quality filter.
	Filter *Filter

	// Keys are the annotation key spellings used by Filter.
	Keys quality.KeySet

	// Lenient drops records with unparseable annotations from the filter
	// instead of failing the load.
	Lenient bool
}

// DefaultLoadOptions returns multi-allelic loading without filtering.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		MultiAllelic: true,
		Keys:         quality.DefaultKeys(),
	}
}

// LoadSummary counts what happened to the records of one file.
type LoadSummary struct {
	Path         string
	Records      int // data lines read
	Alleles      int // (ref, alt) pairs after splitting
	PerCategory  map[Category]int
	Unclassified int
	Duplicates   int
	Filtered     int
}

// Collection is the result of loading one file.
type Collection struct {
	Sets         map[Category]*Set
	Unclassified []*vcf.Variant
	Summary      LoadSummary
}

// NewCollection returns an empty collection with one set per category.
func NewCollection(path string) *Collection {
	c := &Collection{
		Sets: make(map[Category]*Set, len(Categories)),
		Summary: LoadSummary{
			Path:        path,
			PerCategory: make(map[Category]int, len(Categories)),
		},
	}
	for _, cat := range Categories {
		c.Sets[cat] = NewSet()
	}
	return c
}

// Set returns the set of a category, never nil for a comparable category.
func (c *Collection) Set(cat Category) *Set {
	return c.Sets[cat]
}

// Loader builds collections from variant parsers.
type Loader struct {
	opts   LoadOptions
	logger *zap.Logger
}

// NewLoader creates a loader with the given options.
func NewLoader(opts LoadOptions) *Loader {
	if len(opts.Keys.Depth) == 0 && len(opts.Keys.Coverage) == 0 && len(opts.Keys.Score) == 0 {
		opts.Keys = quality.DefaultKeys()
	}
	return &Loader{opts: opts, logger: zap.NewNop()}
}

// SetLogger sets the logger for skipped and unclassified records.
func (l *Loader) SetLogger(lg *zap.Logger) {
	l.logger = lg
}

// LoadFile opens path and loads it.
func (l *Loader) LoadFile(path string) (*Collection, error) {
	p, err := vcf.NewParser(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	return l.load(p, path)
}

// Load reads every record from p. Any parse error aborts the load and no
// collection is returned.
func (l *Loader) Load(p vcf.VariantParser) (*Collection, error) {
	path := ""
	if np, ok := p.(interface{ Path() string }); ok {
		path = np.Path()
	}
	return l.load(p, path)
}

func (l *Loader) load(p vcf.VariantParser, path string) (*Collection, error) {
	c := NewCollection(path)

	for {
		v, err := p.Next()
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		if v == nil {
			break
		}
		c.Summary.Records++

		variants := []*vcf.Variant{v}
		if l.opts.MultiAllelic {
			variants = vcf.SplitMultiAllelic(v)
		}

		for _, rec := range variants {
			c.Summary.Alleles++
			if err := l.addRecord(c, rec); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	l.logger.Info("loaded variants",
		zap.String("path", path),
		zap.Int("records", c.Summary.Records),
		zap.Int("substitutions", c.Summary.PerCategory[Substitution]),
		zap.Int("insertions", c.Summary.PerCategory[Insertion]),
		zap.Int("deletions", c.Summary.PerCategory[Deletion]),
		zap.Int("unclassified", c.Summary.Unclassified))

	return c, nil
}

func (l *Loader) addRecord(c *Collection, v *vcf.Variant) error {
	if limit := l.opts.MaxAlleleLength; limit > 0 && (len(v.Ref) > limit || len(v.Alt) > limit) {
		c.Summary.Filtered++
		return nil
	}

	if l.opts.Filter != nil {
		pass, err := l.passFilter(v)
		if err != nil {
			return err
		}
		if !pass {
			c.Summary.Filtered++
			return nil
		}
	}

	cat := Classify(v.Ref, v.Alt)
	if cat == Unclassified {
		c.Unclassified = append(c.Unclassified, v)
		c.Summary.Unclassified++
		l.logger.Warn("unclassified variant",
			zap.String("variant", v.Key()),
			zap.Int("line", v.Line))
		return nil
	}

	e := Entry{Chrom: v.ChromID, Pos: v.Pos, Allele: Allele{Ref: v.Ref, Alt: v.Alt}, Annotation: v.Info, Line: v.Line}
	if !c.Sets[cat].Insert(e) {
		c.Summary.Duplicates++
		l.logger.Warn("duplicate variant",
			zap.String("variant", v.Key()),
			zap.Int("line", v.Line))
		return nil
	}
	c.Summary.PerCategory[cat]++
	return nil
}

func (l *Loader) passFilter(v *vcf.Variant) (bool, error) {
	q, err := quality.ParseAnnotation(v.Info, l.opts.Keys, quality.Axes{quality.Percentage, quality.Score})
	if err == nil {
		return l.opts.Filter.Pass(q), nil
	}

	var ape *quality.AnnotationParseError
	if errors.As(err, &ape) {
		ape.Line = v.Line
	}
	if !l.opts.Lenient {
		return false, err
	}
	l.logger.Debug("filtering unscored variant",
		zap.String("variant", v.Key()),
		zap.Int("line", v.Line),
		zap.Error(err))
	return false, nil
}
