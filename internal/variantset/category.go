// Package variantset loads variant records into category-tagged sets keyed
// by chromosome and position.
package variantset

// Category classifies a variant by comparing allele lengths.
type Category int

const (
	Unclassified Category = iota - 1
	Deletion
	Insertion
	Substitution
)

// Categories lists the comparable categories in evaluation order.
var Categories = []Category{Deletion, Insertion, Substitution}

func (c Category) String() string {
	switch c {
	case Deletion:
		return "deletion"
	case Insertion:
		return "insertion"
	case Substitution:
		return "substitution"
	}
	return "unclassified"
}

// Classify returns the category of a ref/alt pair. Predicates are evaluated
// in order deletion, insertion, substitution; a pair matching none (for
// example a multi-base replacement) is Unclassified.
func Classify(ref, alt string) Category {
	switch {
	case len(ref) > 1 && len(alt) <= 1:
		return Deletion
	case len(alt) > 1 && len(ref) <= 1:
		return Insertion
	case len(ref) == 1 && len(alt) == 1:
		return Substitution
	}
	return Unclassified
}

// Span returns the number of reference bases removed by a deletion.
// It is zero for other categories.
func Span(ref, alt string) int64 {
	if len(ref) <= len(alt) {
		return 0
	}
	return int64(len(ref) - len(alt))
}
