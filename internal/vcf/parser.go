package vcf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Column indexes of the fields the comparison needs.
const (
	colChrom = 0
	colPos   = 1
	colRef   = 3
	colAlt   = 4
	colInfo  = 7

	minColumns = 8
)

// Parser reads variants from a VCF file.
// Lines starting with '#' are kept as header lines and never parsed.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	path       string
	lineNumber int
	header     []string
}

// NewParser creates a new VCF parser for the given file.
// Supports both plain VCF and gzipped VCF (.vcf.gz) files; "-" reads stdin.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		p := NewParserFromReader(os.Stdin)
		p.path = "<stdin>"
		return p, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	p := &Parser{file: file, path: path}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("read vcf header: %w", err)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek vcf file: %w", err)
	}

	if n == 2 && buf[0] == 0x1f && buf[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = bufio.NewReader(file)
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader) *Parser {
	return &Parser{
		reader: bufio.NewReader(r),
		path:   "<reader>",
	}
}

// Next reads the next variant from the VCF file.
// Returns nil, nil when there are no more variants.
func (p *Parser) Next() (*Variant, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read variant line: %w", err)
		}
		if line == "" && err == io.EOF {
			return nil, nil
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		if line[0] == '#' {
			p.header = append(p.header, line)
			continue
		}

		return p.parseLine(line)
	}
}

// parseLine parses a single VCF data line into a Variant.
func (p *Parser) parseLine(line string) (*Variant, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < minColumns {
		return nil, p.errorf(line, "expected at least %d columns, found %d", minColumns, len(fields))
	}

	chromID, err := ChromID(fields[colChrom])
	if err != nil {
		return nil, p.errorf(line, "%v", err)
	}

	pos, err := strconv.ParseInt(fields[colPos], 10, 64)
	if err != nil || pos < 1 {
		return nil, p.errorf(line, "invalid position: %s", fields[colPos])
	}

	ref, alt := fields[colRef], fields[colAlt]
	if ref == "" || alt == "" {
		return nil, p.errorf(line, "empty allele")
	}

	return &Variant{
		Chrom:   fields[colChrom],
		ChromID: chromID,
		Pos:     pos,
		Ref:     ref,
		Alt:     alt,
		Info:    fields[colInfo],
		Line:    p.lineNumber,
		Text:    line,
	}, nil
}

func (p *Parser) errorf(line, format string, args ...any) *ParseError {
	return &ParseError{
		Path:    p.path,
		Line:    p.lineNumber,
		Text:    line,
		Message: fmt.Sprintf(format, args...),
	}
}

// SplitMultiAllelic splits a multi-allelic variant into separate variants.
// Empty alternates produced by stray commas are dropped.
func SplitMultiAllelic(v *Variant) []*Variant {
	if !strings.Contains(v.Alt, ",") {
		return []*Variant{v}
	}

	alts := strings.Split(v.Alt, ",")
	variants := make([]*Variant, 0, len(alts))
	for _, alt := range alts {
		if alt == "" {
			continue
		}
		nv := *v
		nv.Alt = alt
		variants = append(variants, &nv)
	}

	return variants
}

// Header returns the header lines seen so far.
func (p *Parser) Header() []string {
	return p.header
}

// Path returns the path the parser reads from.
func (p *Parser) Path() string {
	return p.path
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseError represents an error during VCF parsing with line context.
type ParseError struct {
	Path    string
	Line    int
	Text    string
	Message string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("vcf parse error at %s:%d: %s", e.Path, e.Line, e.Message)
}
