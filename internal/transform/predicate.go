package transform

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/starford/mdtree/internal/apperr"
	"github.com/starford/mdtree/pkg/mdtree"
)

// Env is the data a predicate sees for one node. Fields that do not apply to
// the node kind hold their zero value.
type Env struct {
	Kind    string `expr:"kind"`
	Level   int    `expr:"level"`
	Content string `expr:"content"`
	URL     string `expr:"url"`
	Title   string `expr:"title"`
	Info    string `expr:"info"`
	Line    int    `expr:"line"`
	Column  int    `expr:"column"`
}

// Predicate is a compiled boolean expression over Env, for example
// `kind == "heading" && level > 2`.
type Predicate struct {
	src     string
	program *vm.Program
}

// Compile compiles src. Syntax and type errors wrap apperr.ErrInvalidExpression.
func Compile(src string) (*Predicate, error) {
	program, err := expr.Compile(src, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidExpression, err)
	}
	return &Predicate{src: src, program: program}, nil
}

func (p *Predicate) String() string { return p.src }

// Match evaluates the predicate against n.
func (p *Predicate) Match(n mdtree.Node) (bool, error) {
	env, err := envFor(n)
	if err != nil {
		return false, err
	}
	out, err := expr.Run(p.program, env)
	if err != nil {
		return false, fmt.Errorf("%w: %v", apperr.ErrInvalidExpression, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

func envFor(n mdtree.Node) (Env, error) {
	var (
		env Env
		err error
	)
	env.Kind = n.Kind().String()
	if env.Line, err = n.StartLine(); err != nil {
		return env, err
	}
	if env.Column, err = n.StartColumn(); err != nil {
		return env, err
	}

	switch n := n.(type) {
	case *mdtree.Heading:
		env.Level, err = n.Level()
	case *mdtree.Text:
		env.Content, err = n.Content()
	case *mdtree.Code:
		env.Content, err = n.Content()
	case *mdtree.HtmlBlock:
		env.Content, err = n.Content()
	case *mdtree.HtmlInline:
		env.Content, err = n.Content()
	case *mdtree.CodeBlock:
		if env.Content, err = n.Content(); err == nil {
			env.Info, err = n.FenceInfo()
		}
	case *mdtree.Link:
		if env.URL, err = n.URL(); err == nil {
			env.Title, err = n.Title()
		}
	case *mdtree.Image:
		if env.URL, err = n.URL(); err == nil {
			env.Title, err = n.Title()
		}
	}
	return env, err
}
