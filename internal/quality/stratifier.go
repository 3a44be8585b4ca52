package quality

import (
	"go.uber.org/zap"
)

// Stratifier parses annotations and adds them to histograms.
type Stratifier struct {
	Keys  KeySet
	Axes  Axes
	Limit int

	// Lenient counts unparseable annotations as unscored instead of
	// failing the run.
	Lenient bool

	logger *zap.Logger
}

// NewStratifier creates a strict stratifier over axes with the default keys.
func NewStratifier(axes Axes, limit int) *Stratifier {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Stratifier{
		Keys:   DefaultKeys(),
		Axes:   axes,
		Limit:  limit,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger used for unscored records.
func (s *Stratifier) SetLogger(l *zap.Logger) {
	s.logger = l
}

// NewHistogram returns an empty histogram shaped for this stratifier.
func (s *Stratifier) NewHistogram() *Histogram {
	return NewHistogram(s.Limit, s.Axes)
}

// Parse extracts the metrics this stratifier needs from an annotation.
func (s *Stratifier) Parse(annotation string) (Quality, error) {
	return ParseAnnotation(annotation, s.Keys, s.Axes)
}

// Stratify parses annotation and increments one bucket per axis in h.
// In lenient mode a parse failure marks the record unscored and returns nil.
func (s *Stratifier) Stratify(annotation string, h *Histogram) error {
	q, err := s.Parse(annotation)
	if err != nil {
		if !s.Lenient {
			return err
		}
		h.AddUnscored()
		if s.logger != nil {
			s.logger.Debug("unscored record", zap.String("annotation", annotation), zap.Error(err))
		}
		return nil
	}
	h.Add(q)
	return nil
}
