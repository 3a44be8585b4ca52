// Package vcf provides a minimal reader for tab-separated variant call files.
package vcf

import "strconv"

// Chromosome ids assigned to the sex chromosomes.
const (
	ChromX = 23
	ChromY = 24
)

// Variant represents a single variant record from a VCF file.
type Variant struct {
	Chrom   string // Chromosome token as written (e.g., "12", "chr12", "X")
	ChromID int    // Normalized numeric chromosome id
	Pos     int64  // 1-based genomic position
	Ref     string // Reference allele
	Alt     string // Alternate allele (may be comma-separated before splitting)
	Info    string // Raw annotation column (KEY=value;KEY=value)

	Line int    // 1-based line number in the source file
	Text string // Raw line, kept for diagnostics
}

// Key returns a compact "chrom:pos ref>alt" representation for logging.
func (v *Variant) Key() string {
	return v.Chrom + ":" + strconv.FormatInt(v.Pos, 10) + " " + v.Ref + ">" + v.Alt
}
