// Package quality extracts per-call quality metrics from variant annotations
// and accumulates them into fixed-size histograms.
package quality

import (
	"fmt"
	"strconv"
	"strings"
)

// PercentageSentinel is the percentage assigned when coverage is zero.
const PercentageSentinel = 100

// Quality holds the metrics parsed from one annotation.
type Quality struct {
	Depth      int
	Coverage   int
	Score      int
	Percentage int
}

// KeySet lists the accepted spellings of each metric key.
// Lookups are case-insensitive.
type KeySet struct {
	Depth    []string
	Coverage []string
	Score    []string
}

// DefaultKeys returns the key spellings emitted by the callers we compare.
func DefaultKeys() KeySet {
	return KeySet{
		Depth:    []string{"DEPTH", "DP"},
		Coverage: []string{"COV", "COVERAGE"},
		Score:    []string{"SCORE", "SC"},
	}
}

// AnnotationParseError reports a missing or malformed quality field.
// Line is set by callers that know where the annotation came from.
type AnnotationParseError struct {
	Annotation string
	Key        string
	Message    string
	Line       int
}

func (e *AnnotationParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("annotation parse error at line %d (%s): %s in %q", e.Line, e.Key, e.Message, e.Annotation)
	}
	return fmt.Sprintf("annotation parse error (%s): %s in %q", e.Key, e.Message, e.Annotation)
}

// ParseAnnotation extracts the metrics required by axes from an annotation
// string of the form KEY=value;KEY=value. Key order does not matter.
// Keys whose metric is not needed by any axis are parsed when present but
// never required.
func ParseAnnotation(annotation string, keys KeySet, axes Axes) (Quality, error) {
	fields := splitAnnotation(annotation)

	var q Quality
	var err error

	needDepth := axes.Has(Depth) || axes.Has(Percentage)
	needCov := axes.Has(Percentage)
	needScore := axes.Has(Score)

	if q.Depth, err = lookupInt(fields, annotation, keys.Depth, needDepth); err != nil {
		return Quality{}, err
	}
	if q.Coverage, err = lookupInt(fields, annotation, keys.Coverage, needCov); err != nil {
		return Quality{}, err
	}
	if q.Score, err = lookupInt(fields, annotation, keys.Score, needScore); err != nil {
		return Quality{}, err
	}

	q.Percentage = percentage(q.Depth, q.Coverage)
	return q, nil
}

// percentage returns depth/coverage*100 truncated toward zero.
func percentage(depth, coverage int) int {
	if coverage == 0 {
		return PercentageSentinel
	}
	return depth * 100 / coverage
}

// splitAnnotation returns the KEY=value pairs with upper-cased keys.
// Flag entries without '=' are ignored.
func splitAnnotation(annotation string) map[string]string {
	fields := make(map[string]string)
	for _, kv := range strings.Split(annotation, ";") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		k = strings.ToUpper(strings.TrimSpace(k))
		if _, dup := fields[k]; !dup {
			fields[k] = strings.TrimSpace(v)
		}
	}
	return fields
}

func lookupInt(fields map[string]string, annotation string, names []string, required bool) (int, error) {
	for _, name := range names {
		raw, ok := fields[strings.ToUpper(name)]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			if !required {
				return 0, nil
			}
			return 0, &AnnotationParseError{
				Annotation: annotation,
				Key:        name,
				Message:    fmt.Sprintf("value %q is not an integer", raw),
			}
		}
		return n, nil
	}

	if !required {
		return 0, nil
	}
	key := "?"
	if len(names) > 0 {
		key = names[0]
	}
	return 0, &AnnotationParseError{
		Annotation: annotation,
		Key:        key,
		Message:    "missing required key",
	}
}
