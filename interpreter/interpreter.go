package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/chidiwilliams/scopeheap/runtime"
	"github.com/cockroachdb/errors"
)

type runtimeError struct {
	message string
	cause   error
}

func (r runtimeError) Error() string {
	return r.message
}

func (r runtimeError) Unwrap() error {
	return r.cause
}

// fatalError carries an ownership violation up to Interpret.
type fatalError struct {
	err error
}

// NewInterpreter returns a new interpreter
func NewInterpreter(stdOut io.Writer, config Config, logger *slog.Logger) *Interpreter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	interpreter := &Interpreter{
		heap:      runtime.NewHeap(runtime.WithHeapLogger(logger)),
		stdOut:    stdOut,
		logger:    logger,
		rebind:    config.RebindPolicy(),
		leakCheck: config.LeakCheck,
		trace:     config.TraceScopes,
	}
	interpreter.builtins = interpreter.newScope(nil, "builtins")
	interpreter.predeclareFunction("len", NewPredeclaredFunctionValue("len", 1, length))
	interpreter.predeclareFunction("concat", NewPredeclaredFunctionValue("concat", 2, concat))
	interpreter.globals = interpreter.newScope(interpreter.builtins, "global")
	interpreter.env = interpreter.globals
	return interpreter
}

type Interpreter struct {
	heap      *runtime.Heap
	builtins  *runtime.Environment
	globals   *runtime.Environment
	env       *runtime.Environment
	stdOut    io.Writer
	logger    *slog.Logger
	rebind    runtime.RebindPolicy
	leakCheck bool
	trace     bool
}

// Interpret runs a whole program. The global scope is torn down when it
// finishes, whether or not the program failed.
func (i *Interpreter) Interpret(statements []Stmt) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = i.recovered(r)
		}
		if shutdownErr := i.shutdown(); err == nil {
			err = shutdownErr
		}
	}()
	for _, statement := range statements {
		i.interpret(statement)
	}
	return nil
}

func (i *Interpreter) interpret(stmt Stmt) {
	switch stmt := stmt.(type) {
	case *DefineStmt:
		value := i.evaluate(stmt.Initializer)
		if err := i.env.Define(stmt.Name, value); err != nil {
			i.discard(value)
			i.check(err)
		}
	case *AssignStmt:
		value := i.evaluate(stmt.Value)
		if err := i.env.Assign(stmt.Name, value); err != nil {
			i.discard(value)
			i.check(err)
		}
	case *PrintStmt:
		parts := make([]string, 0, len(stmt.Expressions))
		for _, expr := range stmt.Expressions {
			value := i.evaluate(expr)
			payload, err := value.Load()
			i.discard(value)
			i.check(err)
			parts = append(parts, payload.String())
		}
		_, _ = i.stdOut.Write([]byte(strings.Join(parts, " ") + "\n"))
	case *ExprStmt:
		i.discard(i.evaluate(stmt.Expr))
	case *BlockStmt:
		i.executeBlock(stmt.Statements, i.newScope(i.env, "block"))
	case *FunctionStmt:
		fnValue := &FunctionValue{Name: stmt.Name, Params: stmt.Params, Body: stmt.Body, closure: i.env}
		i.check(i.env.Define(stmt.Name, runtime.Const(fnValue)))
	case *ReturnStmt:
		var value runtime.Value
		if stmt.Value != nil {
			value = i.evaluate(stmt.Value)
		}
		panic(Return{Value: value})
	case *FailStmt:
		panic(i.error("%s", stmt.Message))
	default:
		panic(i.error("unexpected statement type: %s", stmt))
	}
}

func (i *Interpreter) evaluate(expr Expr) runtime.Value {
	switch expr := expr.(type) {
	case *LiteralExpr:
		return runtime.Const(expr.Value)
	case *AllocExpr:
		return i.heap.Alloc(runtime.Clone(expr.Value))
	case *VariableExpr:
		value, err := i.env.Lookup(expr.Name)
		i.check(err)
		return value
	case *CopyExpr:
		value, err := i.env.Lookup(expr.Name)
		i.check(err)
		return i.heap.Alloc(runtime.Clone(i.load(value)))
	case *MoveExpr:
		return i.take(expr.Name)
	case *CallExpr:
		callee, err := i.env.Lookup(expr.Callee)
		i.check(err)
		callable, ok := i.load(callee).(CallableValue)
		if !ok {
			panic(i.error("'%s' is not callable", expr.Callee))
		}
		if callable.Arity() != len(expr.Arguments) {
			panic(i.error("'%s' expects %d arguments but got %d", expr.Callee, callable.Arity(), len(expr.Arguments)))
		}
		i.logger.Debug("call", slog.String("function", expr.Callee), slog.Int("argument-count", len(expr.Arguments)))
		result := callable.Call(i, i.evaluateAll(expr.Arguments))
		if result == nil {
			return runtime.Const(nilValue{})
		}
		return result
	}
	panic(i.error("unexpected expression type: %s", expr))
}

// evaluateAll frees the values it already produced if a later one fails.
func (i *Interpreter) evaluateAll(exprs []Expr) (values []runtime.Value) {
	done := false
	defer func() {
		if !done {
			for _, value := range values {
				i.discard(value)
			}
		}
	}()
	for _, expr := range exprs {
		values = append(values, i.evaluate(expr))
	}
	done = true
	return values
}

func (i *Interpreter) take(name string) *runtime.OwnedValue {
	owned, err := i.env.TakeNearest(name)
	i.check(err)
	return owned
}

func (i *Interpreter) load(value runtime.Value) runtime.Payload {
	payload, err := value.Load()
	i.check(err)
	return payload
}

// discard releases a temporary that was never bound. References are left alone.
func (i *Interpreter) discard(value runtime.Value) {
	if value == nil {
		return
	}
	_, err := runtime.Release(value)
	i.check(err)
}

func (i *Interpreter) executeBlock(statements []Stmt, env *runtime.Environment) {
	previous := i.env
	i.env = env
	defer func() {
		i.env = previous
		i.closeScope(env)
	}()
	for _, stmt := range statements {
		i.interpret(stmt)
	}
}

func (i *Interpreter) newScope(enclosing *runtime.Environment, name string) *runtime.Environment {
	return runtime.NewEnvironment(enclosing,
		runtime.WithName(name),
		runtime.WithLogger(i.logger),
		runtime.WithRebindPolicy(i.rebind))
}

func (i *Interpreter) closeScope(env *runtime.Environment) {
	i.check(i.teardown(env))
}

func (i *Interpreter) teardown(env *runtime.Environment) error {
	report, err := env.Free()
	if i.trace && env != i.builtins {
		_, _ = fmt.Fprintf(i.stdOut, "teardown %s: freed=%v kept=%v\n", report.Scope, report.Freed, report.Skipped)
	}
	return err
}

func (i *Interpreter) shutdown() error {
	var errs error
	for _, env := range []*runtime.Environment{i.globals, i.builtins} {
		if env.State() == runtime.StateTornDown {
			continue
		}
		errs = errors.CombineErrors(errs, i.teardown(env))
	}
	if errs != nil {
		return errs
	}
	if i.leakCheck {
		if live := i.heap.LiveAddrs(); len(live) > 0 {
			return errors.AssertionFailedf("leaked %d block(s): %v", len(live), live)
		}
	}
	return nil
}

func (i *Interpreter) recovered(r any) error {
	switch r := r.(type) {
	case runtimeError:
		return r
	case fatalError:
		return r.err
	case Return:
		if _, err := runtime.Release(r.Value); err != nil {
			return err
		}
		return i.error("return outside of a function")
	default:
		panic(r)
	}
}

func (i *Interpreter) check(err error) {
	if err == nil {
		return
	}
	if runtime.IsFatal(err) {
		panic(fatalError{err: err})
	}
	panic(runtimeError{message: err.Error(), cause: err})
}

func (i *Interpreter) error(format string, any ...any) error {
	return runtimeError{message: fmt.Sprintf(format, any...)}
}

func (i *Interpreter) predeclareFunction(name string, callable CallableValue) {
	i.check(i.builtins.Define(name, runtime.Const(callable)))
}
