package main

import (
	"testing"

	"github.com/chidiwilliams/scopeheap/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScript(t *testing.T) {
	statements, err := ParseScript([]byte(`
- define: xs
  value: {alloc: [1, true, !char c, {k: v}]}
- assign: xs
  value: {literal: s}
- print: [xs, {copy: xs}, {move: xs}]
- eval: {call: f, args: [xs]}
- block:
    - fail: oops
- func: f
  params: [a, b]
  body:
    - return:
- return: a
`))
	require.NoError(t, err)
	require.Len(t, statements, 7)

	define := statements[0].(*DefineStmt)
	assert.Equal(t, "xs", define.Name)
	alloc := define.Initializer.(*AllocExpr)
	assert.Equal(t, runtime.ArrayValue{
		runtime.IntegerValue(1),
		runtime.BooleanValue(true),
		runtime.CharValue('c'),
		runtime.MapValue{runtime.StringValue("k"): runtime.StringValue("v")},
	}, alloc.Value)

	assert.Equal(t, &AssignStmt{Name: "xs", Value: &LiteralExpr{Value: runtime.StringValue("s")}}, statements[1])
	assert.Equal(t, &PrintStmt{Expressions: []Expr{
		&VariableExpr{Name: "xs"}, &CopyExpr{Name: "xs"}, &MoveExpr{Name: "xs"},
	}}, statements[2])
	assert.Equal(t, &ExprStmt{Expr: &CallExpr{Callee: "f", Arguments: []Expr{&VariableExpr{Name: "xs"}}}}, statements[3])
	assert.Equal(t, &BlockStmt{Statements: []Stmt{&FailStmt{Message: "oops"}}}, statements[4])
	assert.Equal(t, &FunctionStmt{Name: "f", Params: []string{"a", "b"}, Body: []Stmt{&ReturnStmt{}}}, statements[5])
	assert.Equal(t, &ReturnStmt{Value: &VariableExpr{Name: "a"}}, statements[6])
	assert.Equal(t, "func f(a, b) {\nreturn;\n}", statements[5].String())
}

func TestParseScriptEmpty(t *testing.T) {
	statements, err := ParseScript(nil)
	require.NoError(t, err)
	assert.Empty(t, statements)
}

func TestParseScriptErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		err    string
	}{
		{"not a list", "define: x", "line 1: expect a list of steps"},
		{"unknown step", "- loop: forever", "line 1: unknown step"},
		{"two keywords", "- define: x\n  print: x", "line 1: step has both 'define' and 'print'"},
		{"missing value", "- define: x", "line 1: missing 'value'"},
		{"extra key", "- define: x\n  value: y\n  type: int", "line 1: unexpected key 'type'"},
		{"bad expression", "- print: 5", "line 1: expect a name or an expression"},
		{"unknown expression", "- print: {borrow: x}", "line 1: unknown expression"},
		{"duplicate param", "- func: f\n  params: [a, a]\n  body: []", "line 2: duplicate parameter 'a'"},
		{"missing body", "- func: f", "line 1: missing 'body'"},
		{"bad char", "- print: {literal: !char ab}", "line 1: a char must be a single character"},
		{"null data", "- print: {alloc: null}", "line 1: unsupported value null"},
		{"invalid yaml", "- [", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScript([]byte(tt.source))
			require.Error(t, err)
			if tt.err != "" {
				assert.EqualError(t, err, tt.err)
			}
		})
	}
}
