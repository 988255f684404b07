package adapter

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/mouse-blink/loom/internal/domain/emit"
)

// emitBuiltins binds the text emission API to one directive's buffer. The
// names defined here are what bodies see: emit, block, raw, scope, enum,
// define and table.
func emitBuiltins(buf *emit.Buffer) map[string]*starlark.Builtin {
	return map[string]*starlark.Builtin{
		"emit":   starlark.NewBuiltin("emit", emitFn(buf)),
		"block":  starlark.NewBuiltin("block", blockFn(buf)),
		"raw":    starlark.NewBuiltin("raw", rawFn(buf)),
		"scope":  starlark.NewBuiltin("scope", scopeFn(buf)),
		"enum":   starlark.NewBuiltin("enum", enumFn(buf)),
		"define": starlark.NewBuiltin("define", defineFn(buf)),
		"table":  starlark.NewBuiltin("table", tableFn(buf)),
	}
}

type builtinFn func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error)

// emitFn writes each argument as one line at the current indent. With no
// arguments it writes a single blank line.
func emitFn(buf *emit.Buffer) builtinFn {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if len(kwargs) > 0 {
			return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
		}

		lines := make([]string, len(args))

		for i, arg := range args {
			s, ok := starlark.AsString(arg)
			if !ok {
				return nil, fmt.Errorf("%s: argument %d is %s, want string", b.Name(), i+1, arg.Type())
			}

			lines[i] = s
		}

		buf.Line(lines...)

		return starlark.None, nil
	}
}

func blockFn(buf *emit.Buffer) builtinFn {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var text string

		if err := starlark.UnpackArgs(b.Name(), args, kwargs, "text", &text); err != nil {
			return nil, err
		}

		buf.Block(text)

		return starlark.None, nil
	}
}

func rawFn(buf *emit.Buffer) builtinFn {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var text string

		if err := starlark.UnpackArgs(b.Name(), args, kwargs, "text", &text); err != nil {
			return nil, err
		}

		buf.Raw(text)

		return starlark.None, nil
	}
}

// scopeFn opens a brace pair around a callback. Opening, closing and
// indentation default from the header and can be overridden per call.
func scopeFn(buf *emit.Buffer) builtinFn {
	return func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var (
			header   string
			fn       starlark.Callable
			opening  starlark.Value
			closing  starlark.Value
			indented starlark.Value
		)

		err := starlark.UnpackArgs(b.Name(), args, kwargs,
			"header", &header,
			"fn?", &fn,
			"opening?", &opening,
			"closing?", &closing,
			"indented?", &indented,
		)
		if err != nil {
			return nil, err
		}

		var opts []emit.ScopeOption

		if s, ok := optionalString(opening); ok {
			opts = append(opts, emit.Opening(s))
		}

		if s, ok := optionalString(closing); ok {
			opts = append(opts, emit.Closing(s))
		}

		if indented != nil && indented != starlark.None {
			opts = append(opts, emit.Indented(bool(indented.Truth())))
		}

		body := func() error {
			if fn == nil {
				return nil
			}

			_, err := starlark.Call(thread, fn, nil, nil)

			return err
		}

		return starlark.None, buf.Scope(header, body, opts...)
	}
}

// enumFn renders a C enum. Members are strings, None for a gap, or
// (name, value) pairs.
func enumFn(buf *emit.Buffer) builtinFn {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var (
			name       string
			underlying starlark.Value
			members    starlark.Value
			count      = true
		)

		err := starlark.UnpackArgs(b.Name(), args, kwargs,
			"name", &name,
			"underlying", &underlying,
			"members", &members,
			"count?", &count,
		)
		if err != nil {
			return nil, err
		}

		underlyingType, _ := optionalString(underlying)

		parsed, err := enumMembers(members)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}

		return starlark.None, buf.Enum(name, underlyingType, parsed, count)
	}
}

func enumMembers(v starlark.Value) ([]emit.EnumMember, error) {
	iter, err := eachItem(v, "members")
	if err != nil {
		return nil, err
	}

	var members []emit.EnumMember

	for _, item := range iter {
		switch member := item.(type) {
		case starlark.NoneType:
			members = append(members, emit.EnumMember{})
		case starlark.String:
			members = append(members, emit.EnumMember{Name: string(member)})
		case starlark.Tuple:
			parsed, err := enumPair(member)
			if err != nil {
				return nil, err
			}

			members = append(members, parsed)
		case *starlark.List:
			parsed, err := enumPair(listItems(member))
			if err != nil {
				return nil, err
			}

			members = append(members, parsed)
		default:
			return nil, fmt.Errorf("member %s must be a string, None, or a (name, value) pair", item.String())
		}
	}

	return members, nil
}

func enumPair(pair []starlark.Value) (emit.EnumMember, error) {
	if len(pair) != 2 {
		return emit.EnumMember{}, fmt.Errorf("member pair must have exactly a name and a value, got %d elements", len(pair))
	}

	member := emit.EnumMember{Value: plainText(pair[1])}

	if pair[0] != starlark.None {
		member.Name = plainText(pair[0])
	}

	return member, nil
}

// defineFn renders a preprocessor define. A params value of None makes an
// object-like macro; a string or list of strings makes a function-like one.
func defineFn(buf *emit.Buffer) builtinFn {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var (
			name      string
			expansion starlark.Value
			params    starlark.Value
			doWhile   bool
		)

		err := starlark.UnpackArgs(b.Name(), args, kwargs,
			"name", &name,
			"expansion", &expansion,
			"params?", &params,
			"do_while?", &doWhile,
		)
		if err != nil {
			return nil, err
		}

		parsedParams, err := defineParams(params)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}

		buf.Define(name, parsedParams, plainText(expansion), doWhile)

		return starlark.None, nil
	}
}

func defineParams(v starlark.Value) ([]string, error) {
	if v == nil || v == starlark.None {
		return nil, nil
	}

	if s, ok := starlark.AsString(v); ok {
		return []string{s}, nil
	}

	items, err := eachItem(v, "params")
	if err != nil {
		return nil, err
	}

	params := make([]string, 0, len(items))

	for _, item := range items {
		s, ok := starlark.AsString(item)
		if !ok {
			return nil, fmt.Errorf("parameter %s must be a string", item.String())
		}

		params = append(params, s)
	}

	return params, nil
}

// tableFn renders a lookup table. Each row is a sequence of field pairs,
// (name, value) when the element type is given and (type, name, value) when
// it must be inferred, optionally preceded by one bare index value.
func tableFn(buf *emit.Buffer) builtinFn {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var (
			name     string
			rows     starlark.Value
			elemType starlark.Value
		)

		err := starlark.UnpackArgs(b.Name(), args, kwargs,
			"name", &name,
			"rows", &rows,
			"type?", &elemType,
		)
		if err != nil {
			return nil, err
		}

		elem, _ := optionalString(elemType)

		parsed, err := tableRows(rows, elem != "")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}

		return starlark.None, buf.Table(name, elem, parsed)
	}
}

func tableRows(v starlark.Value, typed bool) ([]emit.TableRow, error) {
	items, err := eachItem(v, "rows")
	if err != nil {
		return nil, err
	}

	rows := make([]emit.TableRow, 0, len(items))

	for _, item := range items {
		row, err := tableRow(item, typed)
		if err != nil {
			return nil, err
		}

		rows = append(rows, row)
	}

	return rows, nil
}

func tableRow(v starlark.Value, typed bool) (emit.TableRow, error) {
	elems, err := eachItem(v, "row")
	if err != nil {
		return emit.TableRow{}, err
	}

	var row emit.TableRow

	for i, elem := range elems {
		pair, ok := pairItems(elem)
		if !ok {
			if i != 0 {
				return emit.TableRow{}, fmt.Errorf("row index %s must come before the fields", elem.String())
			}

			row.Index = plainText(elem)

			continue
		}

		field, err := tableField(pair, typed)
		if err != nil {
			return emit.TableRow{}, err
		}

		row.Fields = append(row.Fields, field)
	}

	return row, nil
}

func tableField(pair []starlark.Value, typed bool) (emit.TableField, error) {
	if typed {
		if len(pair) != 2 {
			return emit.TableField{}, fmt.Errorf("field must be a (name, value) pair, got %d elements", len(pair))
		}

		return emit.TableField{Name: plainText(pair[0]), Value: plainText(pair[1])}, nil
	}

	if len(pair) != 3 {
		return emit.TableField{}, fmt.Errorf("field must be a (type, name, value) triple, got %d elements", len(pair))
	}

	return emit.TableField{Type: plainText(pair[0]), Name: plainText(pair[1]), Value: plainText(pair[2])}, nil
}

// eachItem materializes any iterable into a slice.
func eachItem(v starlark.Value, what string) ([]starlark.Value, error) {
	iterable, ok := v.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("%s must be iterable, got %s", what, v.Type())
	}

	iter := iterable.Iterate()
	defer iter.Done()

	var items []starlark.Value

	var item starlark.Value
	for iter.Next(&item) {
		items = append(items, item)
	}

	return items, nil
}

func pairItems(v starlark.Value) ([]starlark.Value, bool) {
	switch x := v.(type) {
	case starlark.Tuple:
		return x, true
	case *starlark.List:
		return listItems(x), true
	default:
		return nil, false
	}
}

func listItems(list *starlark.List) []starlark.Value {
	items := make([]starlark.Value, list.Len())

	for i := range items {
		items[i] = list.Index(i)
	}

	return items
}

// optionalString reads a possibly-absent string argument. None and an unset
// argument both read as absent.
func optionalString(v starlark.Value) (string, bool) {
	if v == nil || v == starlark.None {
		return "", false
	}

	s, ok := starlark.AsString(v)

	return s, ok
}

// plainText renders a value the way it should appear in generated C text:
// strings keep their content, everything else takes its C spelling.
func plainText(v starlark.Value) string {
	switch x := v.(type) {
	case starlark.String:
		return string(x)
	case starlark.NoneType:
		return "none"
	case starlark.Bool:
		if bool(x) {
			return "true"
		}

		return "false"
	case starlark.Float:
		return emit.ReprC(float64(x))
	case starlark.Int:
		return x.String()
	default:
		return v.String()
	}
}
