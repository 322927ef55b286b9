package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/starford/mdtree/internal/parser"
	"github.com/starford/mdtree/internal/transform"
	"github.com/starford/mdtree/pkg/mdtree"
)

// readInput reads the named file, or stdin for "-".
func readInput(name string) ([]byte, error) {
	if name == "" {
		return nil, errors.New("missing FILE argument")
	}
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "Parse a Markdown file and print it as normalised CommonMark or XML",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "commonmark or xml",
				Value:   transform.FormatCommonMark,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			src, err := readInput(cmd.Args().First())
			if err != nil {
				return err
			}
			return render(cmd.Root().Writer, string(src), cmd.String("format"))
		},
	}
}

func render(w io.Writer, src, format string) error {
	_, body := parser.SplitFrontmatter([]byte(src))
	doc, err := mdtree.Parse(body)
	if err != nil {
		return err
	}
	defer doc.Close()

	var out string
	switch format {
	case transform.FormatCommonMark:
		out, err = doc.RenderCommonMark()
	case transform.FormatXML:
		out, err = doc.RenderXML()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func treeCommand() *cli.Command {
	return &cli.Command{
		Name:      "tree",
		Usage:     "Print the walk events of a Markdown file",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-color", Usage: "Disable colored output"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Bool("no-color") {
				color.NoColor = true
			}
			src, err := readInput(cmd.Args().First())
			if err != nil {
				return err
			}
			return dumpTree(cmd.Root().Writer, string(src))
		},
	}
}

var (
	enterColor = color.New(color.FgGreen).SprintFunc()
	exitColor  = color.New(color.FgRed).SprintFunc()
	kindColor  = color.New(color.FgCyan, color.Bold).SprintFunc()
	attrColor  = color.New(color.FgYellow).SprintfFunc()
	posColor   = color.New(color.Faint).SprintfFunc()
)

// dumpTree writes one line per iterator event, indented by depth.
func dumpTree(w io.Writer, src string) error {
	_, body := parser.SplitFrontmatter([]byte(src))
	doc, err := mdtree.Parse(body)
	if err != nil {
		return err
	}
	defer doc.Close()

	it, err := doc.Iter()
	if err != nil {
		return err
	}
	depth := 0
	for n, ev := range it.All() {
		if ev == mdtree.EventExit {
			depth--
		}
		line, err := describe(n, ev, depth)
		container := !n.Kind().IsLeaf()
		n.Close()
		if err != nil {
			it.Close()
			return err
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			it.Close()
			return err
		}
		if ev == mdtree.EventEnter && container {
			depth++
		}
	}
	return nil
}

func describe(n mdtree.Node, ev mdtree.EventType, depth int) (string, error) {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", depth))
	if ev == mdtree.EventExit {
		b.WriteString(exitColor("exit "))
		b.WriteByte(' ')
		b.WriteString(kindColor(n.Kind().String()))
		return b.String(), nil
	}
	b.WriteString(enterColor("enter"))
	b.WriteByte(' ')
	b.WriteString(kindColor(n.Kind().String()))

	attrs, err := attributes(n)
	if err != nil {
		return "", err
	}
	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(attrColor("%s=%s", a[0], a[1]))
	}

	line, err := n.StartLine()
	if err != nil {
		return "", err
	}
	if line > 0 {
		col, err := n.StartColumn()
		if err != nil {
			return "", err
		}
		b.WriteByte(' ')
		b.WriteString(posColor("@%d:%d", line, col))
	}
	return b.String(), nil
}

func attributes(n mdtree.Node) ([][2]string, error) {
	var (
		attrs [][2]string
		s     string
		err   error
	)
	add := func(k, v string) { attrs = append(attrs, [2]string{k, v}) }

	switch n := n.(type) {
	case *mdtree.Heading:
		var level int
		if level, err = n.Level(); err == nil {
			add("level", strconv.Itoa(level))
		}
	case *mdtree.List:
		var typ mdtree.ListType
		if typ, err = n.ListType(); err == nil {
			add("type", typ.String())
		}
	case *mdtree.Text:
		if s, err = n.Content(); err == nil {
			add("content", strconv.Quote(s))
		}
	case *mdtree.Code:
		if s, err = n.Content(); err == nil {
			add("content", strconv.Quote(s))
		}
	case *mdtree.CodeBlock:
		if s, err = n.FenceInfo(); err == nil && s != "" {
			add("info", strconv.Quote(s))
		}
	case *mdtree.Link:
		if s, err = n.URL(); err == nil {
			add("url", strconv.Quote(s))
		}
	case *mdtree.Image:
		if s, err = n.URL(); err == nil {
			add("url", strconv.Quote(s))
		}
	}
	return attrs, err
}

func transformCommand() *cli.Command {
	return &cli.Command{
		Name:      "transform",
		Usage:     "Apply tree operations to a Markdown file",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "upper", Usage: "Uppercase all text"},
			&cli.BoolFlag{Name: "lower", Usage: "Lowercase all text"},
			&cli.BoolFlag{Name: "title-headings", Usage: "Title-case heading text"},
			&cli.StringFlag{Name: "lang", Usage: "BCP 47 language for case mapping"},
			&cli.IntFlag{Name: "prune-level", Usage: "Remove headings of this level"},
			&cli.StringFlag{Name: "where", Usage: "Remove nodes matching this expression"},
			&cli.StringFlag{Name: "append", Usage: "Markdown appended to the document"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "commonmark or xml", Value: transform.FormatCommonMark},
			&cli.BoolFlag{Name: "diff", Usage: "Print a line diff instead of the result"},
			&cli.BoolFlag{Name: "write", Aliases: []string{"w"}, Usage: "Write the result back to FILE"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			opts := transformOptions{
				upper:         cmd.Bool("upper"),
				lower:         cmd.Bool("lower"),
				titleHeadings: cmd.Bool("title-headings"),
				lang:          cmd.String("lang"),
				pruneLevel:    int(cmd.Int("prune-level")),
				where:         cmd.String("where"),
				append:        cmd.String("append"),
				format:        cmd.String("format"),
				diff:          cmd.Bool("diff"),
			}
			name := cmd.Args().First()
			src, err := readInput(name)
			if err != nil {
				return err
			}
			out, err := runTransform(src, opts)
			if err != nil {
				return err
			}
			if cmd.Bool("write") {
				if name == "-" || opts.diff || opts.format != transform.FormatCommonMark {
					return errors.New("--write needs a FILE and commonmark output without --diff")
				}
				return os.WriteFile(name, []byte(out), 0o644)
			}
			_, err = io.WriteString(cmd.Root().Writer, out)
			return err
		},
	}
}

type transformOptions struct {
	upper, lower, titleHeadings bool
	lang                        string
	pruneLevel                  int
	where                       string
	append                      string
	format                      string
	diff                        bool
}

func (o transformOptions) spec() transform.Spec {
	var ops []transform.Op
	if o.pruneLevel > 0 {
		ops = append(ops, transform.Op{Type: transform.OpPruneHeadings, Level: o.pruneLevel})
	}
	if o.where != "" {
		ops = append(ops, transform.Op{Type: transform.OpPrune, Where: o.where})
	}
	if o.append != "" {
		ops = append(ops, transform.Op{Type: transform.OpAppend, Markdown: o.append})
	}
	if o.upper {
		ops = append(ops, transform.Op{Type: transform.OpUpper, Lang: o.lang})
	}
	if o.lower {
		ops = append(ops, transform.Op{Type: transform.OpLower, Lang: o.lang})
	}
	if o.titleHeadings {
		ops = append(ops, transform.Op{Type: transform.OpTitleHeadings, Lang: o.lang})
	}
	return transform.Spec{Ops: ops, Format: o.format}
}

// runTransform applies the operations to the body of src and returns either
// the full document, frontmatter included, or the diff.
func runTransform(src []byte, o transformOptions) (string, error) {
	front, body := parser.SplitFrontmatter(src)
	res, err := transform.Apply(body, o.spec())
	if err != nil {
		return "", err
	}
	if o.diff {
		return res.Diff, nil
	}
	if o.format == transform.FormatXML {
		return res.Output, nil
	}
	return front + res.Output, nil
}
