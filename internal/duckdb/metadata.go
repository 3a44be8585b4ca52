package duckdb

import (
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for an input file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file. Inputs that are
// not regular files, such as stdin, keep only their path.
func StatFile(path string) FileFingerprint {
	fp := FileFingerprint{Path: path}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return fp
	}
	fp.Size = info.Size()
	fp.ModTime = info.ModTime()
	return fp
}
