package main

import "github.com/chidiwilliams/scopeheap/runtime"

// length returns a constant; nothing is allocated.
func length(interpreter *Interpreter, args []runtime.Value) runtime.Value {
	switch payload := interpreter.load(args[0]).(type) {
	case runtime.ArrayValue:
		return runtime.Const(runtime.IntegerValue(len(payload)))
	case runtime.MapValue:
		return runtime.Const(runtime.IntegerValue(len(payload)))
	case runtime.StringValue:
		return runtime.Const(runtime.IntegerValue(len([]rune(payload))))
	default:
		panic(interpreter.error("len: unsupported value %s", payload))
	}
}

// concat allocates a new owned block holding both arguments joined.
func concat(interpreter *Interpreter, args []runtime.Value) runtime.Value {
	left, right := interpreter.load(args[0]), interpreter.load(args[1])
	switch left := left.(type) {
	case runtime.ArrayValue:
		if right, ok := right.(runtime.ArrayValue); ok {
			joined := make(runtime.ArrayValue, 0, len(left)+len(right))
			joined = append(joined, left...)
			joined = append(joined, right...)
			return interpreter.heap.Alloc(runtime.Clone(joined))
		}
	case runtime.StringValue:
		if right, ok := right.(runtime.StringValue); ok {
			return interpreter.heap.Alloc(left + right)
		}
	}
	panic(interpreter.error("concat: cannot join %s and %s", left, right))
}
