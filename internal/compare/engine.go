package compare

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vcfcompare/internal/match"
	"github.com/inodb/vcfcompare/internal/report"
	"github.com/inodb/vcfcompare/internal/variantset"
)

// Engine runs comparisons with a fixed configuration.
type Engine struct {
	cfg    Config
	logger *zap.Logger
}

// NewEngine validates cfg and returns an engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, logger: zap.NewNop()}, nil
}

// SetLogger sets the logger for progress and warnings.
func (e *Engine) SetLogger(l *zap.Logger) {
	e.logger = l
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Run loads both files and compares them. A load failure aborts the run.
// In strict mode a fatal consistency warning is returned as an error
// together with the report.
func (e *Engine) Run(ctx context.Context, truthPath, candidatePath string) (*report.Report, error) {
	truth, candidate, err := e.Load(ctx, truthPath, candidatePath)
	if err != nil {
		return nil, err
	}
	return e.RunCollections(ctx, truth, candidate)
}

// Load reads the truth and candidate files, concurrently when the engine is
// parallel.
func (e *Engine) Load(ctx context.Context, truthPath, candidatePath string) (*variantset.Collection, *variantset.Collection, error) {
	opts := e.cfg.Load
	opts.Lenient = opts.Lenient || e.cfg.Quality.Lenient
	if len(e.cfg.Quality.Keys.Depth)+len(e.cfg.Quality.Keys.Coverage)+len(e.cfg.Quality.Keys.Score) > 0 {
		opts.Keys = e.cfg.Quality.Keys
	}

	load := func(path string) (*variantset.Collection, error) {
		l := variantset.NewLoader(opts)
		l.SetLogger(e.logger.With(zap.String("file", path)))
		return l.LoadFile(path)
	}

	var truth, candidate *variantset.Collection
	if !e.cfg.Parallel {
		var err error
		if truth, err = load(truthPath); err != nil {
			return nil, nil, fmt.Errorf("truth: %w", err)
		}
		if candidate, err = load(candidatePath); err != nil {
			return nil, nil, fmt.Errorf("candidate: %w", err)
		}
		return truth, candidate, nil
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if truth, err = load(truthPath); err != nil {
			return fmt.Errorf("truth: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if candidate, err = load(candidatePath); err != nil {
			return fmt.Errorf("candidate: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return truth, candidate, nil
}

// RunCollections compares already loaded collections.
func (e *Engine) RunCollections(ctx context.Context, truth, candidate *variantset.Collection) (*report.Report, error) {
	ropts := report.Options{
		Mode:        e.cfg.Match.Mode,
		InvertScore: e.cfg.Quality.InvertScore,
	}
	rep := &report.Report{
		Truth:      truth.Summary,
		Candidate:  candidate.Summary,
		Categories: make([]*report.CategoryReport, len(variantset.Categories)),
		Options:    ropts,
	}

	mopts := e.cfg.Match
	if s := e.cfg.Stratifier(); s != nil {
		s.SetLogger(e.logger)
		mopts.Stratifier = s
	}

	compute := func(i int, cat variantset.Category) error {
		cr, err := e.compareCategory(cat, truth.Set(cat), candidate.Set(cat), mopts, ropts)
		if err != nil {
			return err
		}
		rep.Categories[i] = cr
		return nil
	}

	if e.cfg.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, cat := range variantset.Categories {
			i, cat := i, cat
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return compute(i, cat)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, cat := range variantset.Categories {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := compute(i, cat); err != nil {
				return nil, err
			}
		}
	}

	for _, w := range rep.Warnings() {
		e.logger.Warn("consistency check failed",
			zap.Stringer("category", w.Category),
			zap.String("kind", string(w.Kind)),
			zap.String("detail", w.Message))
	}

	return rep, rep.Err(e.cfg.Strict)
}

func (e *Engine) compareCategory(cat variantset.Category, truth, candidate *variantset.Set, mopts match.Options, ropts report.Options) (*report.CategoryReport, error) {
	tpfp, err := match.Count(candidate, truth, cat, mopts)
	if err != nil {
		return nil, fmt.Errorf("candidate %s: %w", cat, err)
	}

	// The reverse run only counts; stratification describes candidate calls.
	reverse := mopts
	reverse.Stratifier = nil
	cmfn, err := match.Count(truth, candidate, cat, reverse)
	if err != nil {
		return nil, fmt.Errorf("truth %s: %w", cat, err)
	}

	cr := report.Build(cat, tpfp, cmfn, candidate.Len(), truth.Len(), ropts)
	e.logger.Info("compared category",
		zap.Stringer("category", cat),
		zap.Int("tp", cr.TP),
		zap.Int("fp", cr.FP),
		zap.Int("fn", cr.FN),
		zap.Int("cm", cr.CM))
	return cr, nil
}
