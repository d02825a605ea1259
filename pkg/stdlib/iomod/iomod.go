// Package iomod is a representative native module exposing console output
// and file handles through the Module & Builtin Dispatch ABI, backed by a
// value.Handle wrapping *os.File.
package iomod

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/kristofer/hybris/pkg/herror"
	"github.com/kristofer/hybris/pkg/module"
	"github.com/kristofer/hybris/pkg/value"
)

// fileHandle is the Go-side state behind an iomod Handle value.
type fileHandle struct {
	file   *os.File
	reader *bufio.Reader
}

func stringArg(v value.Value) (string, error) {
	s, ok := v.(*value.String)
	if !ok {
		return "", herror.New(herror.TypeError, "expected a string argument, got %s", v.Kind())
	}
	return s.V, nil
}

func fileArg(v value.Value) (*fileHandle, error) {
	h, ok := v.(*value.Handle)
	if !ok {
		return nil, herror.New(herror.TypeError, "expected a file handle, got %s", v.Kind())
	}
	fh, ok := h.Ptr.(*fileHandle)
	if !ok {
		return nil, herror.New(herror.TypeError, "handle does not wrap a file")
	}
	return fh, nil
}

// New builds the io module: print, println, open, read_line, write, close,
// and exit (forces the process exit code the CLI surface documents).
func New() *module.Module {
	m := module.NewModule("io")

	m.Register(&module.Function{
		Name: "print",
		Fn: func(args []value.Value) (value.Value, error) {
			fmt.Fprint(os.Stdout, value.ToString(args[0]))
			return value.NewReference(nil), nil
		},
		Sig: module.Signature{Arities: []module.Arity{{Count: 1}}},
	})

	m.Register(&module.Function{
		Name: "println",
		Fn: func(args []value.Value) (value.Value, error) {
			fmt.Fprintln(os.Stdout, value.ToString(args[0]))
			return value.NewReference(nil), nil
		},
		Sig: module.Signature{Arities: []module.Arity{{Count: 1}}},
	})

	m.Register(&module.Function{
		Name: "open",
		Fn: func(args []value.Value) (value.Value, error) {
			path, err := stringArg(args[0])
			if err != nil {
				return nil, err
			}
			mode, err := stringArg(args[1])
			if err != nil {
				return nil, err
			}
			var flag int
			switch mode {
			case "r":
				flag = os.O_RDONLY
			case "w":
				flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
			case "a":
				flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
			default:
				return nil, herror.New(herror.RuntimeError, "open: unknown mode %q (want r, w, or a)", mode)
			}
			f, osErr := os.OpenFile(path, flag, 0o644)
			if osErr != nil {
				return nil, herror.New(herror.RuntimeError, "open %q: %v", path, osErr)
			}
			fh := &fileHandle{file: f}
			if flag == os.O_RDONLY {
				fh.reader = bufio.NewReader(f)
			}
			return value.NewHandle(fh), nil
		},
		Sig: module.Signature{Arities: []module.Arity{{Count: 2, Types: []module.TypeSet{{value.KindString}, {value.KindString}}}}},
	})

	m.Register(&module.Function{
		Name: "read_line",
		Fn: func(args []value.Value) (value.Value, error) {
			fh, err := fileArg(args[0])
			if err != nil {
				return nil, err
			}
			if fh.reader == nil {
				return nil, herror.New(herror.RuntimeError, "read_line: handle is not open for reading")
			}
			line, rerr := fh.reader.ReadString('\n')
			if rerr != nil && rerr != io.EOF {
				return nil, herror.New(herror.RuntimeError, "read_line: %v", rerr)
			}
			if rerr == io.EOF && line == "" {
				return value.NewReference(nil), nil
			}
			return value.NewString(trimNewline(line)), nil
		},
		Sig: module.Signature{Arities: []module.Arity{{Count: 1, Types: []module.TypeSet{{value.KindHandle}}}}},
	})

	m.Register(&module.Function{
		Name: "write",
		Fn: func(args []value.Value) (value.Value, error) {
			fh, err := fileArg(args[0])
			if err != nil {
				return nil, err
			}
			if _, werr := fh.file.WriteString(value.ToString(args[1])); werr != nil {
				return nil, herror.New(herror.RuntimeError, "write: %v", werr)
			}
			return value.NewReference(nil), nil
		},
		Sig: module.Signature{Arities: []module.Arity{{Count: 2, Types: []module.TypeSet{{value.KindHandle}}}}},
	})

	m.Register(&module.Function{
		Name: "close",
		Fn: func(args []value.Value) (value.Value, error) {
			fh, err := fileArg(args[0])
			if err != nil {
				return nil, err
			}
			if cerr := fh.file.Close(); cerr != nil {
				return nil, herror.New(herror.RuntimeError, "close: %v", cerr)
			}
			return value.NewReference(nil), nil
		},
		Sig: module.Signature{Arities: []module.Arity{{Count: 1, Types: []module.TypeSet{{value.KindHandle}}}}},
	})

	m.Register(&module.Function{
		Name: "exit",
		Fn: func(args []value.Value) (value.Value, error) {
			code, err := value.ToInt(args[0])
			if err != nil {
				return nil, err
			}
			os.Exit(int(code))
			return value.NewReference(nil), nil
		},
		Sig: module.Signature{Arities: []module.Arity{{Count: 1}}},
	})

	return m
}

func trimNewline(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '\r' {
		s = s[:len(s)-1]
	}
	return s
}
