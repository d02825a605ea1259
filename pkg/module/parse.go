package module

import (
	"github.com/kristofer/hybris/pkg/herror"
	"github.com/kristofer/hybris/pkg/value"
)

// Parsed holds the decoded outputs of a ParseArgs call, one field per
// possible format letter. Only the fields touched by the format string
// are meaningful; the rest retain their zero value, matching "excess
// format characters leave outputs at their default values".
type Parsed struct {
	Int    int64
	Long   int64
	Double float64
	Char   byte
	Bool   bool
	Str    string
	Value  value.Value
}

// ParseArgs implements the frame-parsing helper: it walks format
// left-to-right, consuming one argument per format letter, and returns one
// Parsed per format letter. Recognised letters are the C-style scalars
// (i/l/d/c/b/p/s for int/long/double/char/bool/c-string/owned-string) and
// the single-letter Hybris-type accessors (O structure, E extern, A alias,
// H handle, V vector, B binary, M map/matrix, R reference, S string,
// C class) that hand back the underlying value unconverted. Format
// characters are consumed in parallel with arguments; excess arguments are
// ignored, and each format letter left over once the arguments run out
// yields a zero-valued Parsed rather than an error, per the documented
// "excess format characters leave outputs at their default values" rule.
func ParseArgs(format string, args []value.Value) ([]Parsed, error) {
	out := make([]Parsed, 0, len(format))
	for i, f := range format {
		if i >= len(args) {
			out = append(out, Parsed{})
			continue
		}
		arg := args[i]
		p, err := parseOne(f, arg)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func parseOne(f rune, arg value.Value) (Parsed, error) {
	switch f {
	case 'i', 'l':
		n, err := value.ToInt(arg)
		if err != nil {
			return Parsed{}, err
		}
		return Parsed{Int: n, Long: n}, nil
	case 'd':
		fl, ok := arg.(*value.Float)
		if ok {
			return Parsed{Double: fl.V}, nil
		}
		n, err := value.ToInt(arg)
		if err != nil {
			return Parsed{}, err
		}
		return Parsed{Double: float64(n)}, nil
	case 'c':
		c, ok := arg.(*value.Char)
		if !ok {
			return Parsed{}, herror.New(herror.TypeError, "expected a char argument")
		}
		return Parsed{Char: c.V}, nil
	case 'b':
		return Parsed{Bool: value.Truthy(arg)}, nil
	case 'p', 's':
		return Parsed{Str: value.ToString(arg)}, nil
	case 'O', 'E', 'A', 'H', 'V', 'B', 'M', 'R', 'S', 'C':
		return Parsed{Value: arg}, nil
	default:
		return Parsed{}, herror.New(herror.RuntimeError, "unknown format character %q", f)
	}
}
