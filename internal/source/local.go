package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cleared-dev/bankflow/internal/importer"
	"github.com/cleared-dev/bankflow/internal/model"
)

// Dir reads exports from a local directory. Files with an extension are
// downloaded as-is. A file without an extension, or a subdirectory of CSV
// worksheets, is treated as a sheet.
type Dir struct {
	root string
}

// NewDir creates a Dir rooted at root.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// List implements Source. A missing directory lists nothing.
func (d *Dir) List(_ context.Context) ([]model.SourceFile, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading source dir: %w", err)
	}

	var files []model.SourceFile
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		kind := model.KindFile
		if e.IsDir() || filepath.Ext(name) == "" {
			kind = model.KindSheet
		}
		files = append(files, model.SourceFile{ID: name, Name: name, Kind: kind})
	}
	return files, nil
}

// Download implements Source.
func (d *Dir) Download(_ context.Context, f model.SourceFile) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(d.root, f.ID))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Name, err)
	}
	return data, nil
}

// SheetRows implements Source.
func (d *Dir) SheetRows(_ context.Context, f model.SourceFile, allSheets bool) ([][]string, error) {
	path := filepath.Join(d.root, f.ID)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", f.Name, err)
	}

	var parts []string
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("reading sheet dir %s: %w", f.Name, err)
		}
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
				parts = append(parts, filepath.Join(path, e.Name()))
			}
		}
		sort.Strings(parts)
	} else {
		parts = []string{path}
	}

	var sheets [][][]string
	for _, p := range parts {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading worksheet %s: %w", p, err)
		}
		rows, err := importer.LoadGrid(filepath.Base(p)+".csv", data)
		if err != nil {
			return nil, fmt.Errorf("decoding worksheet %s: %w", p, err)
		}
		sheets = append(sheets, rows)
	}
	return MergeSheets(sheets, allSheets), nil
}
