package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/mouse-blink/loom/internal/domain/emit"
	m "github.com/mouse-blink/loom/internal/model"
)

// FuncCall carries one dispatch to a registered body function.
type FuncCall struct {
	Source    m.Path
	Args      []string
	Namespace map[string]any
	Buffer    *emit.Buffer
	Print     func(string)
}

// BodyFunc is a directive body implemented in Go instead of a script.
type BodyFunc func(ctx context.Context, call FuncCall) (map[string]any, error)

// FuncEvaluator dispatches bodies to registered Go functions. The first
// token of the body's first non-blank line selects the function and the
// remaining tokens become its arguments. It exists for embedders that want
// generation steps without a scripting runtime.
type FuncEvaluator struct {
	funcs map[string]BodyFunc
}

// NewFuncEvaluator returns an evaluator with no functions registered.
func NewFuncEvaluator() *FuncEvaluator {
	return &FuncEvaluator{funcs: make(map[string]BodyFunc)}
}

// Register binds a name to a body function, replacing any previous binding.
func (e *FuncEvaluator) Register(name string, fn BodyFunc) {
	e.funcs[name] = fn
}

// Run dispatches one body.
func (e *FuncEvaluator) Run(ctx context.Context, req EvalRequest) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, args, ok := splitCall(req.Body)
	if !ok {
		return nil, fmt.Errorf("body names no function to call")
	}

	fn, ok := e.funcs[name]
	if !ok {
		return nil, fmt.Errorf("no body function registered as %q", name)
	}

	return fn(ctx, FuncCall{
		Source:    req.Source,
		Args:      args,
		Namespace: req.Namespace,
		Buffer:    req.Buffer,
		Print:     req.Print,
	})
}

func splitCall(body string) (name string, args []string, ok bool) {
	for _, line := range strings.Split(body, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		return fields[0], fields[1:], true
	}

	return "", nil, false
}
