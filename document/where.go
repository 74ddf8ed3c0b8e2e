package document

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/shibukawa/spinetree/category"
	"github.com/shibukawa/spinetree/token"
	"github.com/shibukawa/spinetree/tree"
)

// Sentinel errors
var (
	ErrInvalidWhere = errors.New("invalid where expression")
)

// Where is a compiled node predicate, e.g.
//
//	voice == "**kern" && "NOTE" in categories && measure >= 3
//
// Available variables: category, categories (the category and its
// ancestors), encoding, export, voice, stage, line, measure, hidden.
type Where struct {
	source    string
	program   cel.Program
	hierarchy *category.Hierarchy
}

// CompileWhere compiles a CEL predicate. A nil hierarchy uses the default
// one.
func CompileWhere(expr string, h *category.Hierarchy) (*Where, error) {
	if h == nil {
		h = category.Default()
	}

	env, err := cel.NewEnv(
		cel.HomogeneousAggregateLiterals(),
		cel.EagerlyValidateDeclarations(true),
		cel.Variable("category", cel.StringType),
		cel.Variable("categories", cel.ListType(cel.StringType)),
		cel.Variable("encoding", cel.StringType),
		cel.Variable("export", cel.StringType),
		cel.Variable("voice", cel.StringType),
		cel.Variable("stage", cel.IntType),
		cel.Variable("line", cel.IntType),
		cel.Variable("measure", cel.IntType),
		cel.Variable("hidden", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidWhere, expr, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("%w: %s: result is %s, not bool", ErrInvalidWhere, expr, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidWhere, expr, err)
	}

	return &Where{source: expr, program: program, hierarchy: h}, nil
}

func (w *Where) String() string {
	return w.source
}

// Match evaluates the predicate for one node of d.
func (w *Where) Match(d *Document, n *tree.Node) (bool, error) {
	if n.Token == nil {
		return false, nil
	}

	categories := w.hierarchy.Ancestors(n.Token.Category())
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}

	voice := ""
	if h := d.tree.Node(n.Header); h != nil {
		voice = h.Token.(*token.HeaderToken).VoiceType()
	}

	out, _, err := w.program.Eval(map[string]any{
		"category":   string(n.Token.Category()),
		"categories": names,
		"encoding":   n.Token.Encoding(),
		"export":     n.Token.Export(),
		"voice":      voice,
		"stage":      n.Stage,
		"line":       d.tree.Line(n.Stage),
		"measure":    d.MeasureOf(n.Stage),
		"hidden":     n.Token.Hidden(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to evaluate '%s' at line %d: %w", w.source, d.tree.Line(n.Stage), err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s: result is not bool", ErrInvalidWhere, w.source)
	}
	return matched, nil
}

// Select returns the nodes matching w in depth-first order.
func (d *Document) Select(w *Where) ([]*tree.Node, error) {
	var (
		nodes []*tree.Node
		err   error
	)
	d.Walk(func(n *tree.Node) bool {
		if err != nil {
			return false
		}
		var ok bool
		ok, err = w.Match(d, n)
		if ok {
			nodes = append(nodes, n)
		}
		return err == nil
	})
	return nodes, err
}
