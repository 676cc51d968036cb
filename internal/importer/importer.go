// Package importer turns bank exports into canonical records.
package importer

import (
	"fmt"
	"path"
	"strings"

	"github.com/cleared-dev/bankflow/internal/model"
	"github.com/cleared-dev/bankflow/internal/synonym"
)

// Format identifies an export layout.
type Format int

const (
	FormatStandard Format = iota
	FormatDirectionalLedger
	FormatForeignBankA
	FormatForeignBankB
	FormatGenericSheet
)

var formatNames = map[Format]string{
	FormatStandard:          "standard",
	FormatDirectionalLedger: "directional_ledger",
	FormatForeignBankA:      "foreign_bank_a",
	FormatForeignBankB:      "foreign_bank_b",
	FormatGenericSheet:      "generic_sheet",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// ParseFormat resolves a format name, case-insensitively.
func ParseFormat(s string) (Format, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, name := range formatNames {
		if name == s {
			return f, true
		}
	}
	return 0, false
}

// Detect picks the layout of a source from its name and kind.
func Detect(name string, kind model.FileKind) Format {
	upper := strings.ToUpper(name)
	if kind == model.KindSheet {
		switch {
		case strings.Contains(upper, "_ZH_"):
			return FormatDirectionalLedger
		case strings.Contains(upper, "_OCBC_"):
			return FormatForeignBankA
		case strings.Contains(upper, "_VTB_"):
			return FormatForeignBankB
		default:
			return FormatGenericSheet
		}
	}
	if strings.HasSuffix(strings.ToLower(name), ".csv") && strings.Contains(upper, "_ZH_") {
		return FormatDirectionalLedger
	}
	return FormatStandard
}

// Result is the outcome of parsing one source. An empty Records slice with
// a Reason means the source could not be read at all.
type Result struct {
	Format  Format
	Records []model.Record
	Rows    int // data rows inspected
	Reason  string
}

func empty(f Format, reason string) Result {
	return Result{Format: f, Reason: reason}
}

// Parser converts a grid of cells into canonical records. Parsers are pure:
// the same rows and name always give the same records.
type Parser interface {
	Parse(name string, rows [][]string) Result
	Format() Format
}

// Registry holds one parser per format.
type Registry struct {
	parsers map[Format]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[Format]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	if _, ok := r.parsers[p.Format()]; ok {
		panic("duplicate parser format: " + p.Format().String())
	}
	r.parsers[p.Format()] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(f Format) Parser {
	return r.parsers[f]
}

// Lookup returns the parser registered under a format name, or nil.
func (r *Registry) Lookup(name string) Parser {
	f, ok := ParseFormat(name)
	if !ok {
		return nil
	}
	return r.Get(f)
}

// Options configures the built-in parsers.
type Options struct {
	Fields   synonym.FieldMap
	Ledger   LedgerColumns
	ForeignA ForeignAConfig
	ForeignB ForeignBConfig
}

// DefaultOptions returns the parser settings used when no config is loaded.
func DefaultOptions() Options {
	return Options{
		Fields:   synonym.DefaultFieldMap(),
		Ledger:   DefaultLedgerColumns(),
		ForeignA: DefaultForeignAConfig(),
		ForeignB: DefaultForeignBConfig(),
	}
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry(opts Options) *Registry {
	if opts.Fields == nil {
		opts.Fields = synonym.DefaultFieldMap()
	}
	r := NewRegistry()
	r.Register(&StandardParser{fields: opts.Fields})
	r.Register(&LedgerParser{cols: opts.Ledger})
	r.Register(&ForeignAParser{fields: opts.Fields, cfg: opts.ForeignA})
	r.Register(&ForeignBParser{cfg: opts.ForeignB})
	r.Register(&SheetParser{fields: opts.Fields})
	return r
}

// Classifier assigns the business type of a parsed record.
type Classifier interface {
	ClassifyRecord(r model.Record) string
}

// Input is one source to parse: raw file bytes, or the rows of a native
// spreadsheet.
type Input struct {
	Name string
	Kind model.FileKind
	Data []byte
	Rows [][]string
}

// Importer dispatches sources to parsers and classifies the output.
type Importer struct {
	registry   *Registry
	classifier Classifier
}

// New creates an Importer.
func New(registry *Registry, classifier Classifier) *Importer {
	return &Importer{registry: registry, classifier: classifier}
}

// Parse reads one source. It never fails: unreadable input yields an empty
// result with a reason.
func (im *Importer) Parse(in Input) Result {
	format := Detect(in.Name, in.Kind)
	p := im.registry.Get(format)
	if p == nil {
		return empty(format, "no parser registered for "+format.String())
	}

	rows := in.Rows
	if rows == nil {
		grid, err := LoadGrid(in.Name, in.Data)
		if err != nil {
			return empty(format, err.Error())
		}
		rows = grid
	}
	if len(rows) == 0 {
		return empty(format, "no rows")
	}

	res := p.Parse(in.Name, rows)

	// Delimited exports from the directional bank sometimes arrive without
	// the bank token in the name.
	if format == FormatStandard && isDelimited(in.Name) && hasLedgerRows(rows) {
		if lp := im.registry.Get(FormatDirectionalLedger); lp != nil {
			if lr := lp.Parse(in.Name, rows); len(lr.Records) > 0 {
				res = lr
			}
		}
	}

	if im.classifier != nil {
		for i, r := range res.Records {
			res.Records[i] = r.WithType(im.classifier.ClassifyRecord(r))
		}
	}
	return res
}

func isDelimited(name string) bool {
	return strings.EqualFold(path.Ext(name), ".csv")
}
