package variantset

import (
	"slices"
)

// Allele is a reference/alternate pair at one site.
type Allele struct {
	Ref string
	Alt string
}

// Entry is one (chrom, pos, ref, alt) record of a set with its annotation
// and the input line it was read from (0 when unknown).
type Entry struct {
	Chrom      int
	Pos        int64
	Allele     Allele
	Annotation string
	Line       int
}

type record struct {
	annotation string
	line       int
}

// Set maps chromosome id → position → allele → annotation.
// Several alternates at one position are kept side by side.
type Set struct {
	chroms map[int]map[int64]map[Allele]record
	n      int
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{chroms: make(map[int]map[int64]map[Allele]record)}
}

// Add inserts an entry without a source line and reports whether it was new.
func (s *Set) Add(chrom int, pos int64, a Allele, annotation string) bool {
	return s.Insert(Entry{Chrom: chrom, Pos: pos, Allele: a, Annotation: annotation})
}

// Insert adds e and reports whether it was new. An existing
// (chrom, pos, ref, alt) keeps its first annotation and line. Sets are
// filled by the loader and treated as read-only once matching starts.
func (s *Set) Insert(e Entry) bool {
	positions, ok := s.chroms[e.Chrom]
	if !ok {
		positions = make(map[int64]map[Allele]record)
		s.chroms[e.Chrom] = positions
	}
	alleles, ok := positions[e.Pos]
	if !ok {
		alleles = make(map[Allele]record, 1)
		positions[e.Pos] = alleles
	}
	if _, dup := alleles[e.Allele]; dup {
		return false
	}
	alleles[e.Allele] = record{annotation: e.Annotation, line: e.Line}
	s.n++
	return true
}

// Len returns the number of distinct (chrom, pos, ref, alt) entries.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return s.n
}

// Contains reports whether the exact entry exists.
func (s *Set) Contains(chrom int, pos int64, a Allele) bool {
	_, ok := s.site(chrom, pos)[a]
	return ok
}

// Get returns the entry stored for (chrom, pos, a).
func (s *Set) Get(chrom int, pos int64, a Allele) (Entry, bool) {
	r, ok := s.site(chrom, pos)[a]
	if !ok {
		return Entry{}, false
	}
	return Entry{Chrom: chrom, Pos: pos, Allele: a, Annotation: r.annotation, Line: r.line}, true
}

// AllelesAt returns the number of alleles recorded at a site.
func (s *Set) AllelesAt(chrom int, pos int64) int {
	return len(s.site(chrom, pos))
}

// HasPosition reports whether any allele is recorded at a site.
func (s *Set) HasPosition(chrom int, pos int64) bool {
	return len(s.site(chrom, pos)) > 0
}

func (s *Set) site(chrom int, pos int64) map[Allele]record {
	if s == nil {
		return nil
	}
	return s.chroms[chrom][pos]
}

// Entries returns every entry sorted by chromosome, position, ref and alt.
func (s *Set) Entries() []Entry {
	if s == nil {
		return nil
	}
	entries := make([]Entry, 0, s.n)
	for chrom, positions := range s.chroms {
		for pos, alleles := range positions {
			for a, r := range alleles {
				entries = append(entries, Entry{Chrom: chrom, Pos: pos, Allele: a, Annotation: r.annotation, Line: r.line})
			}
		}
	}
	slices.SortFunc(entries, compareEntries)
	return entries
}

func compareEntries(a, b Entry) int {
	switch {
	case a.Chrom != b.Chrom:
		return a.Chrom - b.Chrom
	case a.Pos < b.Pos:
		return -1
	case a.Pos > b.Pos:
		return 1
	case a.Allele.Ref != b.Allele.Ref:
		if a.Allele.Ref < b.Allele.Ref {
			return -1
		}
		return 1
	case a.Allele.Alt < b.Allele.Alt:
		return -1
	case a.Allele.Alt > b.Allele.Alt:
		return 1
	}
	return 0
}
