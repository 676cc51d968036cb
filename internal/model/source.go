package model

import (
	"path"
	"regexp"
	"strings"
)

// FileKind distinguishes binary/text exports from native spreadsheet grids.
type FileKind string

const (
	KindFile  FileKind = "file"
	KindSheet FileKind = "sheet"
)

// SourceFile is one bank export available for ingestion.
type SourceFile struct {
	ID   string // backend-specific handle (path, drive file ID)
	Name string
	Kind FileKind
}

// Ext returns the lower-cased extension without the dot.
func (f SourceFile) Ext() string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(f.Name)), ".")
}

var (
	dateSuffixRe = regexp.MustCompile(`_\d{8}(\.[^.]+)?$`)
	dateTokenRe  = regexp.MustCompile(`_(\d{8})(?:\.[^.]+)?$`)
)

// SourcePrefix strips the trailing _YYYYMMDD[.ext] from a file name.
// "QD_ZH_RMB_20260225.csv" -> "QD_ZH_RMB"
func SourcePrefix(name string) string {
	return dateSuffixRe.ReplaceAllString(name, "")
}

// DateToken returns the YYYYMMDD token of a file name, or "".
func DateToken(name string) string {
	m := dateTokenRe.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return m[1]
}
