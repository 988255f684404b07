package adapter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/mouse-blink/loom/internal/domain/emit"
	m "github.com/mouse-blink/loom/internal/model"
)

// StarlarkEvaluator runs directive bodies as Starlark modules. Each body
// executes in its own thread with its own globals; every value handed in is
// frozen first, so no body can mutate what another body will read. Exported
// values, functions included, flow between bodies through the namespace.
type StarlarkEvaluator struct{}

// NewStarlarkEvaluator returns the default body evaluator.
func NewStarlarkEvaluator() *StarlarkEvaluator {
	return &StarlarkEvaluator{}
}

// Run executes one body and returns its top-level bindings.
func (e *StarlarkEvaluator) Run(ctx context.Context, req EvalRequest) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	predeclared, err := starlarkNamespace(req.Namespace)
	if err != nil {
		return nil, err
	}

	for name, builtin := range emitBuiltins(req.Buffer) {
		predeclared[name] = builtin
	}

	thread := &starlark.Thread{
		Name: string(req.Source),
		Print: func(_ *starlark.Thread, msg string) {
			if req.Print != nil {
				req.Print(msg)
			}
		},
	}

	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(ctx.Err().Error())
		case <-stop:
		}
	}()

	globals, err := starlark.ExecFileOptions(
		bodyFileOptions(),
		thread,
		chunkName(req.Source, req.BodyLine),
		req.Body,
		predeclared,
	)
	if err != nil {
		return nil, remapError(err)
	}

	out := make(map[string]any, len(globals))
	for name, value := range globals {
		out[name] = value
	}

	return out, nil
}

// bodyFileOptions enables the non-spec conveniences bodies rely on: sets,
// while loops, top-level control flow, reassignment, and recursion.
func bodyFileOptions() *syntax.FileOptions {
	return &syntax.FileOptions{
		Set:             true,
		While:           true,
		TopLevelControl: true,
		GlobalReassign:  true,
		Recursion:       true,
	}
}

// chunkName encodes the body's first line into the chunk filename, so any
// later stack frame, even one from a function exported into a different
// body, can be mapped back to real source coordinates.
func chunkName(source m.Path, bodyLine int) string {
	return fmt.Sprintf("%s#%d", source, bodyLine)
}

// remapChunkPos turns an interpreter position inside a chunk back into a
// source file span.
func remapChunkPos(pos syntax.Position) (m.Span, bool) {
	file := pos.Filename()

	hash := strings.LastIndex(file, "#")
	if hash < 0 {
		return m.Span{}, false
	}

	offset, err := strconv.Atoi(file[hash+1:])
	if err != nil {
		return m.Span{}, false
	}

	line := offset + int(pos.Line) - 1

	return m.Span{Source: m.Path(file[:hash]), Start: line, End: line}, true
}

// remapError shapes interpreter failures into *model.BodyError with frames
// in source coordinates. Frames inside builtins carry no chunk position and
// are dropped.
func remapError(err error) error {
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		stack := make([]m.Frame, 0, len(evalErr.CallStack))

		for _, fr := range evalErr.CallStack {
			span, ok := remapChunkPos(fr.Pos)
			if !ok {
				continue
			}

			name := fr.Name
			if name == "<toplevel>" {
				name = "<directive>"
			}

			stack = append(stack, m.Frame{Span: span, Func: name})
		}

		return &m.BodyError{Message: evalErr.Msg, Stack: stack}
	}

	var syntaxErr syntax.Error
	if errors.As(err, &syntaxErr) {
		return &m.BodyError{Message: syntaxErr.Msg, Stack: frameAt(syntaxErr.Pos)}
	}

	var resolveErrs resolve.ErrorList
	if errors.As(err, &resolveErrs) && len(resolveErrs) > 0 {
		return &m.BodyError{Message: resolveErrs[0].Msg, Stack: frameAt(resolveErrs[0].Pos)}
	}

	return err
}

func frameAt(pos syntax.Position) []m.Frame {
	span, ok := remapChunkPos(pos)
	if !ok {
		return nil
	}

	return []m.Frame{{Span: span, Func: "<directive>"}}
}

// starlarkNamespace converts the namespace into frozen predeclared values.
func starlarkNamespace(ns map[string]any) (starlark.StringDict, error) {
	dict := make(starlark.StringDict, len(ns))

	for name, value := range ns {
		converted, err := toStarlark(value)
		if err != nil {
			return nil, fmt.Errorf("namespace value %q: %w", name, err)
		}

		converted.Freeze()
		dict[name] = converted
	}

	return dict, nil
}

// toStarlark lifts a Go value into the interpreter. Values that are already
// interpreter values, such as exports from an earlier body, pass through
// untouched.
func toStarlark(v any) (starlark.Value, error) {
	switch x := v.(type) {
	case starlark.Value:
		return x, nil
	case nil:
		return starlark.None, nil
	case bool:
		return starlark.Bool(x), nil
	case string:
		return starlark.String(x), nil
	case int:
		return starlark.MakeInt(x), nil
	case int64:
		return starlark.MakeInt64(x), nil
	case float64:
		return starlark.Float(x), nil
	case []any:
		elems := make([]starlark.Value, len(x))

		for i, elem := range x {
			converted, err := toStarlark(elem)
			if err != nil {
				return nil, err
			}

			elems[i] = converted
		}

		return starlark.NewList(elems), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for key := range x {
			keys = append(keys, key)
		}

		sort.Strings(keys)

		dict := starlark.NewDict(len(x))

		for _, key := range keys {
			converted, err := toStarlark(x[key])
			if err != nil {
				return nil, err
			}

			if err := dict.SetKey(starlark.String(key), converted); err != nil {
				return nil, err
			}
		}

		return dict, nil
	default:
		return nil, fmt.Errorf("cannot expose %T to a directive body", v)
	}
}
