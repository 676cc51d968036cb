package importer

import "github.com/cleared-dev/bankflow/internal/synonym"

// SheetParser reads native spreadsheet grids with noisy headers and amounts
// stored as decorated text.
type SheetParser struct {
	fields synonym.FieldMap
}

// Format returns FormatGenericSheet.
func (p *SheetParser) Format() Format { return FormatGenericSheet }

// Parse is the standard header search with label and amount cleanup.
func (p *SheetParser) Parse(name string, rows [][]string) Result {
	return parseTabular(FormatGenericSheet, name, rows, tabular{
		fields: p.fields,
		label:  normalizeLabel,
		amount: cleanAmount,
	})
}
