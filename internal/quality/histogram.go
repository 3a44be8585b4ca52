package quality

import (
	"fmt"
	"strings"
)

// DefaultLimit is the default number of buckets per axis.
const DefaultLimit = 100

// Axis identifies one stratification dimension.
type Axis int

const (
	Depth Axis = iota
	Percentage
	Score

	numAxes
)

var axisNames = [numAxes]string{"depth", "percentage", "score"}

func (a Axis) String() string {
	if a < 0 || a >= numAxes {
		return fmt.Sprintf("axis(%d)", int(a))
	}
	return axisNames[a]
}

// Axes is an ordered set of enabled axes.
type Axes []Axis

// AllAxes returns depth, percentage and score.
func AllAxes() Axes {
	return Axes{Depth, Percentage, Score}
}

// Has reports whether a is enabled.
func (as Axes) Has(a Axis) bool {
	for _, x := range as {
		if x == a {
			return true
		}
	}
	return false
}

func (as Axes) String() string {
	names := make([]string, len(as))
	for i, a := range as {
		names[i] = a.String()
	}
	return strings.Join(names, ",")
}

// ParseAxes parses a comma-separated axis list such as "depth,percentage".
// Order is normalized to depth, percentage, score; duplicates are ignored.
func ParseAxes(s string) (Axes, error) {
	var seen [numAxes]bool
	for _, name := range strings.Split(s, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		found := false
		for i, n := range axisNames {
			if n == name {
				seen[i] = true
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown axis %q (want depth, percentage or score)", name)
		}
	}

	var axes Axes
	for i, ok := range seen {
		if ok {
			axes = append(axes, Axis(i))
		}
	}
	return axes, nil
}

// Histogram counts stratified records per bucket on each enabled axis.
// It only ever grows; buckets are never evicted.
type Histogram struct {
	limit    int
	axes     Axes
	counts   [numAxes][]int
	records  int
	unscored int
}

// NewHistogram creates a histogram with limit buckets on each axis.
// A non-positive limit selects DefaultLimit.
func NewHistogram(limit int, axes Axes) *Histogram {
	if limit <= 0 {
		limit = DefaultLimit
	}
	h := &Histogram{limit: limit, axes: axes}
	for _, a := range axes {
		h.counts[a] = make([]int, limit)
	}
	return h
}

// Bucket clamps a metric value to [0, limit-1].
func (h *Histogram) Bucket(value int) int {
	if value < 0 {
		return 0
	}
	if value >= h.limit {
		return h.limit - 1
	}
	return value
}

// Add increments one bucket on every enabled axis.
func (h *Histogram) Add(q Quality) {
	h.records++
	for _, a := range h.axes {
		h.counts[a][h.Bucket(q.value(a))]++
	}
}

// AddUnscored records a call whose annotation could not be parsed.
func (h *Histogram) AddUnscored() {
	h.unscored++
}

// Count returns the count of bucket i on axis a.
func (h *Histogram) Count(a Axis, i int) int {
	if a < 0 || a >= numAxes || h.counts[a] == nil || i < 0 || i >= h.limit {
		return 0
	}
	return h.counts[a][i]
}

// Total returns the sum of all buckets on axis a.
func (h *Histogram) Total(a Axis) int {
	if a < 0 || a >= numAxes {
		return 0
	}
	total := 0
	for _, c := range h.counts[a] {
		total += c
	}
	return total
}

// Records returns the number of stratified records.
func (h *Histogram) Records() int { return h.records }

// Unscored returns the number of records skipped in lenient mode.
func (h *Histogram) Unscored() int { return h.unscored }

// Limit returns the number of buckets per axis.
func (h *Histogram) Limit() int { return h.limit }

// Axes returns the enabled axes.
func (h *Histogram) Axes() Axes { return h.axes }

func (q Quality) value(a Axis) int {
	switch a {
	case Depth:
		return q.Depth
	case Percentage:
		return q.Percentage
	case Score:
		return q.Score
	}
	return 0
}
