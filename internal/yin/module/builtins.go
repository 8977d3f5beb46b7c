package module

import (
	"fmt"

	"github.com/sonwh98/yin/internal/yin/value"
)

// builtins returns the bare-symbol arithmetic, comparison, and
// collection primitives every VM resolves at the third tier of
// variable lookup, under the reserved PrimitivesModule name.
func builtins() map[string]value.NativeFunc {
	return map[string]value.NativeFunc{
		"+":     arith(func(a, b float64) float64 { return a + b }),
		"-":     arith(func(a, b float64) float64 { return a - b }),
		"*":     arith(func(a, b float64) float64 { return a * b }),
		"/":     arith(func(a, b float64) float64 { return a / b }),
		"=":     cmp(func(a, b float64) bool { return a == b }),
		"<":     cmp(func(a, b float64) bool { return a < b }),
		">":     cmp(func(a, b float64) bool { return a > b }),
		"<=":    cmp(func(a, b float64) bool { return a <= b }),
		">=":    cmp(func(a, b float64) bool { return a >= b }),
		"not":   not,
		"list":  list,
		"first": first,
		"rest":  rest,
		"cons":  cons,
		"count": count,
	}
}

func numArg(args []value.Value, i int) (float64, error) {
	if i >= len(args) || args[i].Kind != value.KindNumber {
		return 0, fmt.Errorf("expected a number argument at position %d", i)
	}
	return args[i].Number, nil
}

func arith(op func(a, b float64) float64) value.NativeFunc {
	return func(args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Value{}, fmt.Errorf("arithmetic primitive requires at least one argument")
		}
		acc, err := numArg(args, 0)
		if err != nil {
			return value.Value{}, err
		}
		for i := 1; i < len(args); i++ {
			n, err := numArg(args, i)
			if err != nil {
				return value.Value{}, err
			}
			acc = op(acc, n)
		}
		return value.Number(acc), nil
	}
}

func cmp(op func(a, b float64) bool) value.NativeFunc {
	return func(args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return value.Value{}, fmt.Errorf("comparison primitive requires exactly two arguments")
		}
		a, err := numArg(args, 0)
		if err != nil {
			return value.Value{}, err
		}
		b, err := numArg(args, 1)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(op(a, b)), nil
	}
}

func not(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, fmt.Errorf("not requires exactly one argument")
	}
	return value.Bool(!args[0].Truthy()), nil
}

// list/first/rest/cons/count operate on the variadic argument vector
// itself; there is no list value kind, so none of them builds or takes
// apart a list. list and count return the number of arguments, first
// and cons return the first argument (nil when there is none), and rest
// returns the second argument (nil when there are fewer than two).
func list(args []value.Value) (value.Value, error) {
	return value.Number(float64(len(args))), nil
}

func first(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Nil(), nil
	}
	return args[0], nil
}

func rest(args []value.Value) (value.Value, error) {
	if len(args) <= 1 {
		return value.Nil(), nil
	}
	return args[1], nil
}

func cons(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Nil(), nil
	}
	return args[0], nil
}

func count(args []value.Value) (value.Value, error) {
	return value.Number(float64(len(args))), nil
}
