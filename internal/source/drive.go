package source

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/cleared-dev/bankflow/internal/model"
)

const (
	spreadsheetMime = "application/vnd.google-apps.spreadsheet"
	// sheetRange bounds each worksheet read.
	sheetRange = "A1:Z500"
)

// Drive reads exports from a Google Drive folder. Native spreadsheets are
// read through the Sheets API.
type Drive struct {
	files  *drive.Service
	sheets *sheets.Service
	folder string
}

// NewDrive authenticates with a service account key file and binds to a
// folder ID.
func NewDrive(ctx context.Context, credentialsPath, folderID string) (*Drive, error) {
	if folderID == "" {
		return nil, fmt.Errorf("drive folder ID is required")
	}
	jsonKey, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read service account key file: %w", err)
	}
	jwtConfig, err := google.JWTConfigFromJSON(jsonKey, drive.DriveReadonlyScope, sheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account key: %w", err)
	}
	httpClient := oauth2.NewClient(ctx, jwtConfig.TokenSource(ctx))

	files, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}
	sh, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return &Drive{files: files, sheets: sh, folder: folderID}, nil
}

// List implements Source.
func (d *Drive) List(ctx context.Context) ([]model.SourceFile, error) {
	var out []model.SourceFile
	q := fmt.Sprintf("'%s' in parents and trashed = false", d.folder)
	err := d.files.Files.List().
		Q(q).
		Fields("nextPageToken, files(id, name, mimeType)").
		PageSize(200).
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				kind := model.KindFile
				if f.MimeType == spreadsheetMime {
					kind = model.KindSheet
				}
				out = append(out, model.SourceFile{ID: f.Id, Name: f.Name, Kind: kind})
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("listing drive folder: %w", err)
	}
	return out, nil
}

// Download implements Source.
func (d *Drive) Download(ctx context.Context, f model.SourceFile) ([]byte, error) {
	resp, err := d.files.Files.Get(f.ID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", f.Name, err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Name, err)
	}
	return data, nil
}

// SheetRows implements Source.
func (d *Drive) SheetRows(ctx context.Context, f model.SourceFile, allSheets bool) ([][]string, error) {
	ss, err := d.sheets.Spreadsheets.Get(f.ID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading spreadsheet %s: %w", f.Name, err)
	}
	var grids [][][]string
	for _, sh := range ss.Sheets {
		if sh.Properties == nil {
			continue
		}
		rng := fmt.Sprintf("'%s'!%s", sh.Properties.Title, sheetRange)
		vr, err := d.sheets.Spreadsheets.Values.Get(f.ID, rng).
			ValueRenderOption("FORMATTED_VALUE").
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("reading %s of %s: %w", sh.Properties.Title, f.Name, err)
		}
		grids = append(grids, stringGrid(vr.Values))
		if !allSheets && len(vr.Values) > 0 {
			break
		}
	}
	return MergeSheets(grids, allSheets), nil
}

func stringGrid(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			if v != nil {
				out[i][j] = fmt.Sprint(v)
			}
		}
	}
	return out
}
