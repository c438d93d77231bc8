package main

import (
	"fmt"

	"github.com/chidiwilliams/scopeheap/runtime"
)

type nilValue struct{}

func (nilValue) String() string {
	return "nil"
}

type Return struct {
	Value runtime.Value
}

// FunctionValue represents a function's declaration and its closure
type FunctionValue struct {
	Name    string
	Params  []string
	Body    []Stmt
	closure *runtime.Environment
}

func (f *FunctionValue) Arity() int {
	return len(f.Params)
}

// Call interprets the function declaration. It creates a new environment for the call,
// moves the arguments into it, and interprets the body of the function. The call
// environment is torn down before Call returns, so an owned return value must have
// been moved out of it.
func (f *FunctionValue) Call(interpreter *Interpreter, args []runtime.Value) (value runtime.Value) {
	callEnv := interpreter.newScope(f.closure, "call "+f.Name)
	for i, param := range f.Params {
		if err := callEnv.Define(param, args[i]); err != nil {
			for _, arg := range args[i:] {
				interpreter.discard(arg)
			}
			interpreter.closeScope(callEnv)
			interpreter.check(err)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			if returnVal, ok := r.(Return); ok {
				value = returnVal.Value
			} else {
				panic(r)
			}
		}
	}()

	interpreter.executeBlock(f.Body, callEnv)

	// only reachable from functions without a return
	return nil
}

func (f *FunctionValue) String() string {
	return fmt.Sprintf("<fn %s>", f.Name)
}

type CallableValue interface {
	runtime.Payload
	Arity() int
	Call(interpreter *Interpreter, args []runtime.Value) runtime.Value
}

type predeclaredFn func(interpreter *Interpreter, args []runtime.Value) runtime.Value

func NewPredeclaredFunctionValue(name string, arity int, fn predeclaredFn) *PredeclaredFunctionValue {
	return &PredeclaredFunctionValue{name: name, arity: arity, fn: fn}
}

type PredeclaredFunctionValue struct {
	name  string
	arity int
	fn    predeclaredFn
}

func (p *PredeclaredFunctionValue) Arity() int {
	return p.arity
}

// Call runs the builtin. Arguments are never bound anywhere, so owned
// arguments are freed once the builtin returns.
func (p *PredeclaredFunctionValue) Call(interpreter *Interpreter, args []runtime.Value) runtime.Value {
	defer func() {
		for _, arg := range args {
			interpreter.discard(arg)
		}
	}()
	return p.fn(interpreter, args)
}

func (p *PredeclaredFunctionValue) String() string {
	return fmt.Sprintf("<builtin %s>", p.name)
}
