package engine

import (
	"github.com/kristofer/hybris/pkg/ast"
	"github.com/kristofer/hybris/pkg/frame"
	"github.com/kristofer/hybris/pkg/herror"
	"github.com/kristofer/hybris/pkg/value"
)

// assignTo binds v to the lvalue described by target: an identifier, an
// attribute access, or a subscript access. Any other node kind is an
// internal inconsistency, not a user-facing error.
func (e *Engine) assignTo(scope *frame.Scope, f *frame.Frame, target *ast.Node, v value.Value) (value.Value, error) {
	switch target.Kind {
	case ast.KindIdentifier:
		f.Insert(target.Identifier, v)
		return v, nil
	case ast.KindAttributeGet:
		owner, err := e.Eval(scope, f, target.Children[0])
		if err != nil {
			return nil, err
		}
		if err := setAttribute(owner, target.Identifier, v); err != nil {
			return nil, err
		}
		return v, nil
	case ast.KindSubscriptGet:
		owner, err := e.Eval(scope, f, target.Children[0])
		if err != nil {
			return nil, err
		}
		idx, err := e.Eval(scope, f, target.Children[1])
		if err != nil {
			return nil, err
		}
		return v, setSubscript(owner, idx, v)
	default:
		return nil, herror.New(herror.RuntimeError, "invalid assignment target")
	}
}

func setAttribute(owner value.Value, name string, v value.Value) error {
	switch o := owner.(type) {
	case *value.Structure:
		if err := o.Set(name, v); err != nil {
			return herror.New(herror.AttributeError, "%v", err)
		}
		return nil
	case *value.Class:
		if err := o.Set(name, v); err != nil {
			return herror.New(herror.AttributeError, "%v", err)
		}
		return nil
	default:
		return herror.New(herror.AttributeError, "%s has no settable attributes", owner.Kind())
	}
}

func getAttribute(owner value.Value, name string) (value.Value, error) {
	switch o := owner.(type) {
	case *value.Structure:
		v, err := o.Get(name)
		if err != nil {
			return nil, herror.New(herror.AttributeError, "%v", err)
		}
		return v, nil
	case *value.Class:
		v, err := o.Get(name)
		if err != nil {
			return nil, herror.New(herror.AttributeError, "%v", err)
		}
		return v, nil
	default:
		return nil, herror.New(herror.AttributeError, "%s has no attribute %q", owner.Kind(), name)
	}
}

// setSubscript implements the engine's indexed-assignment contract:
// Vector/Matrix/Map accept any value, String accepts only a Char
// replacing one byte (spec.md's "char-only on string subscript-set" rule).
func setSubscript(owner, idx, v value.Value) error {
	switch o := owner.(type) {
	case *value.Vector:
		i, err := value.ToInt(idx)
		if err != nil {
			return err
		}
		if err := o.Set(int(i), v); err != nil {
			return herror.New(herror.IndexError, "%v", err)
		}
		return nil
	case *value.Map:
		o.Set(idx, v)
		return nil
	case *value.Matrix:
		row, col, err := matrixIndices(idx)
		if err != nil {
			return err
		}
		if err := o.Set(row, col, v); err != nil {
			return herror.New(herror.IndexError, "%v", err)
		}
		return nil
	case *value.String:
		c, ok := v.(*value.Char)
		if !ok {
			return herror.New(herror.TypeError, "string subscript assignment requires a char, got %s", v.Kind())
		}
		i, err := value.ToInt(idx)
		if err != nil {
			return err
		}
		if i < 0 || int(i) >= len(o.V) {
			return herror.New(herror.IndexError, "string index %d out of bounds", i)
		}
		bs := []byte(o.V)
		bs[i] = c.V
		o.V = string(bs)
		return nil
	default:
		return herror.New(herror.TypeError, "%s does not support subscript assignment", owner.Kind())
	}
}

func getSubscript(owner, idx value.Value) (value.Value, error) {
	switch o := owner.(type) {
	case *value.Vector:
		i, err := value.ToInt(idx)
		if err != nil {
			return nil, err
		}
		v, err := o.At(int(i))
		if err != nil {
			return nil, herror.New(herror.IndexError, "%v", err)
		}
		return v, nil
	case *value.Map:
		v, ok := o.At(idx)
		if !ok {
			return value.NewReference(nil), nil
		}
		return v, nil
	case *value.Matrix:
		row, col, err := matrixIndices(idx)
		if err != nil {
			return nil, err
		}
		v, err := o.At(row, col)
		if err != nil {
			return nil, herror.New(herror.IndexError, "%v", err)
		}
		return v, nil
	case *value.String:
		i, err := value.ToInt(idx)
		if err != nil {
			return nil, err
		}
		if i < 0 || int(i) >= len(o.V) {
			return nil, herror.New(herror.IndexError, "string index %d out of bounds", i)
		}
		return value.NewChar(o.V[i]), nil
	case *value.Binary:
		i, err := value.ToInt(idx)
		if err != nil {
			return nil, err
		}
		if i < 0 || int(i) >= len(o.V) {
			return nil, herror.New(herror.IndexError, "binary index %d out of bounds", i)
		}
		return value.NewChar(o.V[i]), nil
	default:
		return nil, herror.New(herror.TypeError, "%s does not support subscript access", owner.Kind())
	}
}

// matrixIndices unpacks a two-element vector index [row, col] used to
// subscript a Matrix.
func matrixIndices(idx value.Value) (row, col int, err error) {
	vec, ok := idx.(*value.Vector)
	if !ok || len(vec.Items) != 2 {
		return 0, 0, herror.New(herror.TypeError, "matrix subscript requires a [row, col] vector")
	}
	r, err := value.ToInt(vec.Items[0])
	if err != nil {
		return 0, 0, err
	}
	c, err := value.ToInt(vec.Items[1])
	if err != nil {
		return 0, 0, err
	}
	return int(r), int(c), nil
}

func (e *Engine) evalAssign(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	v, err := e.Eval(scope, f, node.Children[1])
	if err != nil {
		return nil, err
	}
	if f.State().Kind != frame.None {
		return unit(), nil
	}
	return e.assignTo(scope, f, node.Children[0], v)
}

var compoundOps = map[string]value.OpKind{
	"+": value.OpAdd, "-": value.OpSub, "*": value.OpMul, "/": value.OpDiv, "%": value.OpMod,
	"&": value.OpBitAnd, "|": value.OpBitOr, "^": value.OpBitXor, "<<": value.OpShl, ">>": value.OpShr,
}

func (e *Engine) evalCompoundAssign(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	target := node.Children[0]
	current, err := e.evalLvalueGet(scope, f, target)
	if err != nil {
		return nil, err
	}
	rhs, err := e.Eval(scope, f, node.Children[1])
	if err != nil {
		return nil, err
	}
	op, ok := compoundOps[node.Op]
	if !ok {
		return nil, herror.New(herror.RuntimeError, "unknown compound assignment operator %q", node.Op)
	}
	result, err := value.Operator(op, current, rhs)
	if err != nil {
		return nil, err
	}
	return e.assignTo(scope, f, target, result)
}

// evalLvalueGet reads the current value of an lvalue node without going
// through assignTo, for compound assignment's read-then-write.
func (e *Engine) evalLvalueGet(scope *frame.Scope, f *frame.Frame, target *ast.Node) (value.Value, error) {
	switch target.Kind {
	case ast.KindIdentifier:
		return e.evalIdentifier(scope, f, target)
	case ast.KindAttributeGet:
		return e.evalAttributeGet(scope, f, target)
	case ast.KindSubscriptGet:
		return e.evalSubscriptGet(scope, f, target)
	default:
		return nil, herror.New(herror.RuntimeError, "invalid compound-assignment target")
	}
}

// evalExplodeAssign destructures a vector rhs into the named targets;
// missing elements bind to false rather than erroring.
func (e *Engine) evalExplodeAssign(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	rhs, err := e.Eval(scope, f, node.Children[0])
	if err != nil {
		return nil, err
	}
	vec, _ := rhs.(*value.Vector)
	for i, name := range node.ExplodeVars {
		if vec != nil && i < len(vec.Items) {
			f.Insert(name, vec.Items[i])
		} else {
			f.Insert(name, value.NewBool(false))
		}
	}
	return rhs, nil
}

func (e *Engine) evalSubscriptGet(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	owner, err := e.Eval(scope, f, node.Children[0])
	if err != nil {
		return nil, err
	}
	idx, err := e.Eval(scope, f, node.Children[1])
	if err != nil {
		return nil, err
	}
	return getSubscript(owner, idx)
}

func (e *Engine) evalSubscriptSet(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	owner, err := e.Eval(scope, f, node.Children[0])
	if err != nil {
		return nil, err
	}
	idx, err := e.Eval(scope, f, node.Children[1])
	if err != nil {
		return nil, err
	}
	v, err := e.Eval(scope, f, node.Children[2])
	if err != nil {
		return nil, err
	}
	if err := setSubscript(owner, idx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (e *Engine) evalAttributeGet(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	owner, err := e.Eval(scope, f, node.Children[0])
	if err != nil {
		return nil, err
	}
	return getAttribute(owner, node.Identifier)
}

func (e *Engine) evalAttributeSet(scope *frame.Scope, f *frame.Frame, node *ast.Node) (value.Value, error) {
	owner, err := e.Eval(scope, f, node.Children[0])
	if err != nil {
		return nil, err
	}
	v, err := e.Eval(scope, f, node.Children[1])
	if err != nil {
		return nil, err
	}
	if err := setAttribute(owner, node.Identifier, v); err != nil {
		return nil, err
	}
	return v, nil
}
