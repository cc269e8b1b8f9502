package executor

import (
	"fmt"

	language "github.com/hanpama/hotgraph/internal/language"
)

// checkLimits rejects operations nested deeper than MaxDepth or selecting
// more than MaxComplexity fields. Fragment spreads are expanded, so a
// fragment used twice costs twice.
func (e *Executor) checkLimits(doc *language.QueryDocument, op *language.OperationDefinition) []GraphQLError {
	if e.opt.MaxDepth <= 0 && e.opt.MaxComplexity <= 0 {
		return nil
	}
	depth, complexity := Measure(doc, op)
	var errs []GraphQLError
	if e.opt.MaxDepth > 0 && depth > e.opt.MaxDepth {
		errs = append(errs, GraphQLError{
			Message: fmt.Sprintf("maximum query depth exceeded %d > %d", depth, e.opt.MaxDepth),
			Kind:    KindValidation,
		})
	}
	if e.opt.MaxComplexity > 0 && complexity > e.opt.MaxComplexity {
		errs = append(errs, GraphQLError{
			Message: fmt.Sprintf("maximum query complexity exceeded %d > %d", complexity, e.opt.MaxComplexity),
			Kind:    KindValidation,
		})
	}
	return errs
}

// Measure returns the deepest field nesting of op (root fields are depth 1)
// and the number of fields it selects.
func Measure(doc *language.QueryDocument, op *language.OperationDefinition) (depth, complexity int) {
	m := &measurer{doc: doc, active: map[string]bool{}}
	m.walk(op.SelectionSet, 1)
	return m.depth, m.complexity
}

type measurer struct {
	doc        *language.QueryDocument
	active     map[string]bool
	depth      int
	complexity int
}

func (m *measurer) walk(set language.SelectionSet, level int) {
	for _, selection := range set {
		switch sel := selection.(type) {
		case *language.Field:
			m.complexity++
			if level > m.depth {
				m.depth = level
			}
			m.walk(sel.SelectionSet, level+1)
		case *language.InlineFragment:
			m.walk(sel.SelectionSet, level)
		case *language.FragmentSpread:
			if m.active[sel.Name] {
				continue
			}
			def := m.doc.Fragments.ForName(sel.Name)
			if def == nil {
				continue
			}
			m.active[sel.Name] = true
			m.walk(def.SelectionSet, level)
			delete(m.active, sel.Name)
		}
	}
}
