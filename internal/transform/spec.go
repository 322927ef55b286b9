package transform

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/starford/mdtree/internal/apperr"
	"github.com/starford/mdtree/pkg/mdtree"
)

// Operation types.
const (
	OpUpper         = "upper"
	OpLower         = "lower"
	OpTitleHeadings = "title_headings"
	OpPruneHeadings = "prune_headings"
	OpPrune         = "prune"
	OpAppend        = "append"
)

// Output formats.
const (
	FormatCommonMark = "commonmark"
	FormatXML        = "xml"
)

// Op is one step of a transformation.
type Op struct {
	Type     string `json:"type" yaml:"type"`
	Lang     string `json:"lang,omitempty" yaml:"lang,omitempty"`
	Level    int    `json:"level,omitempty" yaml:"level,omitempty"`
	Where    string `json:"where,omitempty" yaml:"where,omitempty"`
	Markdown string `json:"markdown,omitempty" yaml:"markdown,omitempty"`
}

// Validate validates the operation.
func (o Op) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Type, validation.Required,
			validation.In(OpUpper, OpLower, OpTitleHeadings, OpPruneHeadings, OpPrune, OpAppend)),
		validation.Field(&o.Level, validation.When(o.Type == OpPruneHeadings,
			validation.Required, validation.Min(1), validation.Max(6))),
		validation.Field(&o.Where, validation.When(o.Type == OpPrune, validation.Required)),
		validation.Field(&o.Markdown, validation.When(o.Type == OpAppend, validation.Required)),
	)
}

// Spec is an ordered list of operations and the format of the result.
type Spec struct {
	Ops    []Op   `json:"ops" yaml:"ops"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Validate validates the operation list and output format.
func (s Spec) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Ops, validation.Required, validation.Length(1, 64)),
		validation.Field(&s.Format, validation.In(FormatCommonMark, FormatXML)),
	)
}

// Result is the outcome of Apply.
type Result struct {
	Output  string `json:"output"`
	Changed int    `json:"changed"`
	// Diff lists the changed lines of the CommonMark rendering, prefixed
	// with "-" and "+".
	Diff string `json:"diff,omitempty"`
}

// Apply parses src, runs every operation of spec in order and renders the
// result. Validation failures wrap apperr.ErrInvalidFormat.
func Apply(src string, spec Spec, opts ...mdtree.Option) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidFormat, err)
	}
	doc, err := mdtree.Parse(src, opts...)
	if err != nil {
		return nil, fmt.Errorf("transform: parse: %w", err)
	}
	defer doc.Close()

	before, err := doc.RenderCommonMark()
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for i, op := range spec.Ops {
		n, err := apply(doc, op, opts)
		if err != nil {
			return nil, fmt.Errorf("transform: op %d (%s): %w", i, op.Type, err)
		}
		res.Changed += n
	}

	after, err := doc.RenderCommonMark()
	if err != nil {
		return nil, err
	}
	res.Output = after
	if spec.Format == FormatXML {
		if res.Output, err = doc.RenderXML(); err != nil {
			return nil, err
		}
	}
	res.Diff = Diff(before, after)
	return res, nil
}

func apply(doc *mdtree.Document, op Op, opts []mdtree.Option) (int, error) {
	switch op.Type {
	case OpUpper:
		return Uppercase(doc, op.Lang)
	case OpLower:
		return Lowercase(doc, op.Lang)
	case OpTitleHeadings:
		return TitleHeadings(doc, op.Lang)
	case OpPruneHeadings:
		return PruneHeadings(doc, op.Level)
	case OpPrune:
		p, err := Compile(op.Where)
		if err != nil {
			return 0, err
		}
		return Prune(doc, Where(p))
	case OpAppend:
		return Append(doc, op.Markdown, opts...)
	}
	return 0, fmt.Errorf("%w: unknown op %q", apperr.ErrInvalidFormat, op.Type)
}

// Diff returns a line diff of before and after. Unchanged lines are omitted.
// It returns the empty string when both are equal.
func Diff(before, after string) string {
	if before == after {
		return ""
	}
	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		prefix := ""
		switch d.Type {
		case diffpatch.DiffDelete:
			prefix = "-"
		case diffpatch.DiffInsert:
			prefix = "+"
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix + line)
			if !strings.HasSuffix(line, "\n") {
				out.WriteByte('\n')
			}
		}
	}
	return out.String()
}
