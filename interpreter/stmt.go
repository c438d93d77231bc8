package main

import (
	"fmt"
	"strings"
)

type Stmt interface {
	fmt.Stringer
}

type PrintStmt struct {
	Expressions []Expr
}

func (p PrintStmt) String() string {
	return fmt.Sprintf("print %v;", p.Expressions)
}

type DefineStmt struct {
	Name        string
	Initializer Expr
}

func (d DefineStmt) String() string {
	return fmt.Sprintf("var %s = %s;", d.Name, d.Initializer)
}

type AssignStmt struct {
	Name  string
	Value Expr
}

func (a AssignStmt) String() string {
	return fmt.Sprintf("%s = %s;", a.Name, a.Value)
}

type ExprStmt struct {
	Expr Expr
}

func (e ExprStmt) String() string {
	return fmt.Sprintf("%s;", e.Expr)
}

type BlockStmt struct {
	Statements []Stmt
}

func (b BlockStmt) String() string {
	s := "{\n"
	for _, stmt := range b.Statements {
		s += stmt.String() + "\n"
	}
	s += "}"
	return s
}

type FunctionStmt struct {
	Name   string
	Params []string
	Body   []Stmt
}

func (f FunctionStmt) String() string {
	return fmt.Sprintf("func %s(%s) %s", f.Name, strings.Join(f.Params, ", "), BlockStmt{Statements: f.Body})
}

// ReturnStmt.Value is nil for a bare return.
type ReturnStmt struct {
	Value Expr
}

func (r ReturnStmt) String() string {
	if r.Value == nil {
		return "return;"
	}
	return fmt.Sprintf("return %s;", r.Value)
}

type FailStmt struct {
	Message string
}

func (f FailStmt) String() string {
	return fmt.Sprintf("fail %q;", f.Message)
}
