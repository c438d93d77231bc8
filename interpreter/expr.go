package main

import (
	"fmt"
	"strings"

	"github.com/chidiwilliams/scopeheap/runtime"
)

type Expr interface {
	fmt.Stringer
}

// VariableExpr evaluates to a reference to the named binding.
type VariableExpr struct {
	Name string
}

func (v VariableExpr) String() string {
	return v.Name
}

// LiteralExpr evaluates to a constant reference; nothing is allocated.
type LiteralExpr struct {
	Value runtime.Payload
}

func (l LiteralExpr) String() string {
	return fmt.Sprint(l.Value)
}

// AllocExpr evaluates to a fresh owned block holding a copy of Value.
type AllocExpr struct {
	Value runtime.Payload
}

func (a AllocExpr) String() string {
	return fmt.Sprintf("alloc(%s)", a.Value)
}

// CopyExpr allocates an owned deep copy of the named binding's data.
type CopyExpr struct {
	Name string
}

func (c CopyExpr) String() string {
	return fmt.Sprintf("copy(%s)", c.Name)
}

// MoveExpr takes ownership away from the scope that binds Name.
type MoveExpr struct {
	Name string
}

func (m MoveExpr) String() string {
	return fmt.Sprintf("move(%s)", m.Name)
}

type CallExpr struct {
	Callee    string
	Arguments []Expr
}

func (c CallExpr) String() string {
	args := make([]string, len(c.Arguments))
	for i, arg := range c.Arguments {
		args[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", c.Callee, strings.Join(args, ", "))
}
