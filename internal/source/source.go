// Package source lists and fetches bank exports from a local directory or
// a Google Drive folder.
package source

import (
	"context"
	"regexp"
	"strings"

	"github.com/cleared-dev/bankflow/internal/model"
)

// Source is where bank exports come from.
type Source interface {
	List(ctx context.Context) ([]model.SourceFile, error)
	Download(ctx context.Context, f model.SourceFile) ([]byte, error)
	SheetRows(ctx context.Context, f model.SourceFile, allSheets bool) ([][]string, error)
}

var (
	sheetNameRe = regexp.MustCompile(`_\d{8}$`)
	fileExtRe   = regexp.MustCompile(`(?i)\.(csv|xls|xlsx)$`)
	sheetTokens = []string{"ZH", "JH", "VTB", "OCBC", "RMB", "USD"}
)

// ValidSource reports whether f follows the export naming convention. A
// sheet needs a trailing _YYYYMMDD and a bank or currency token; a file
// needs a csv, xls or xlsx extension.
func ValidSource(f model.SourceFile) bool {
	name := strings.TrimSpace(f.Name)
	if f.Kind == model.KindSheet {
		if !sheetNameRe.MatchString(name) {
			return false
		}
		upper := strings.ToUpper(name)
		for _, tok := range sheetTokens {
			if strings.Contains(upper, tok) {
				return true
			}
		}
		return false
	}
	return fileExtRe.MatchString(name)
}

// LatestPerGroup keeps, per source prefix, the valid file with the greatest
// date token. Groups keep the order in which their prefix first appears.
func LatestPerGroup(files []model.SourceFile) []model.SourceFile {
	var order []string
	latest := map[string]model.SourceFile{}
	for _, f := range files {
		if !ValidSource(f) {
			continue
		}
		date := model.DateToken(f.Name)
		if date == "" {
			continue
		}
		prefix := model.SourcePrefix(f.Name)
		cur, ok := latest[prefix]
		if !ok {
			order = append(order, prefix)
		}
		if !ok || date > model.DateToken(cur.Name) {
			latest[prefix] = f
		}
	}
	out := make([]model.SourceFile, 0, len(order))
	for _, p := range order {
		out = append(out, latest[p])
	}
	return out
}

// FilterOnly keeps files whose upper-cased name contains only, upper-cased.
// An empty filter keeps everything.
func FilterOnly(files []model.SourceFile, only string) []model.SourceFile {
	only = strings.ToUpper(strings.TrimSpace(only))
	if only == "" {
		return files
	}
	var out []model.SourceFile
	for _, f := range files {
		if strings.Contains(strings.ToUpper(f.Name), only) {
			out = append(out, f)
		}
	}
	return out
}

// MergesAllSheets reports whether every worksheet of a sheet source is read.
func MergesAllSheets(f model.SourceFile) bool {
	return f.Kind == model.KindSheet && strings.Contains(strings.ToUpper(f.Name), "_JH_")
}

// MergeSheets joins worksheet grids. With all unset only the first
// non-empty worksheet is used; otherwise later worksheets contribute their
// rows minus the header row.
func MergeSheets(sheets [][][]string, all bool) [][]string {
	var out [][]string
	for _, rows := range sheets {
		if len(rows) == 0 {
			continue
		}
		if len(out) > 0 {
			out = append(out, rows[1:]...)
		} else {
			out = append(out, rows...)
		}
		if !all {
			break
		}
	}
	return out
}
