package main

import (
	"fmt"
	"unicode/utf8"

	"github.com/chidiwilliams/scopeheap/runtime"
	"gopkg.in/yaml.v3"
)

type parseError struct {
	message string
}

func (p parseError) Error() string {
	return p.message
}

/**
Script grammar (YAML):
	script     => [ step* ]
	step       => define | assign | print | eval | block | func | return | fail
	define     => { define: NAME, value: expr }
	assign     => { assign: NAME, value: expr }
	print      => { print: expr | [ expr* ] }
	eval       => { eval: expr }
	block      => { block: [ step* ] }
	func       => { func: NAME, params: [ NAME* ], body: [ step* ] }
	return     => { return: expr? }
	fail       => { fail: STRING }
	expr       => NAME | { alloc: data } | { literal: data } | { copy: NAME }
	            | { move: NAME } | { call: NAME, args: [ expr* ] }
	data       => INT | BOOL | STRING | !char STRING | [ data* ] | { scalar: data }
*/

// ParseScript decodes a YAML script into statements.
func ParseScript(source []byte) ([]Stmt, error) {
	var document yaml.Node
	if err := yaml.Unmarshal(source, &document); err != nil {
		return nil, parseError{message: fmt.Sprintf("invalid script: %s", err)}
	}
	if len(document.Content) == 0 {
		return nil, nil
	}
	return NewParser().Parse(document.Content[0])
}

func NewParser() *Parser {
	return &Parser{}
}

type Parser struct{}

func (p *Parser) Parse(root *yaml.Node) (statements []Stmt, err error) {
	defer func() {
		if recoveredErr := recover(); recoveredErr != nil {
			var ok bool
			if err, ok = recoveredErr.(parseError); !ok {
				panic(recoveredErr)
			}
		}
	}()

	return p.steps(root), nil
}

var stepKeywords = []string{"define", "assign", "print", "eval", "block", "func", "return", "fail"}

func (p *Parser) steps(node *yaml.Node) []Stmt {
	if node.Kind != yaml.SequenceNode {
		panic(p.error(node, "expect a list of steps"))
	}
	statements := make([]Stmt, 0, len(node.Content))
	for _, step := range node.Content {
		statements = append(statements, p.step(step))
	}
	return statements
}

func (p *Parser) step(node *yaml.Node) Stmt {
	fields := p.fields(node, "step")

	keyword := ""
	for _, candidate := range stepKeywords {
		if _, ok := fields[candidate]; ok {
			if keyword != "" {
				panic(p.error(node, "step has both '%s' and '%s'", keyword, candidate))
			}
			keyword = candidate
		}
	}

	switch keyword {
	case "define":
		p.only(node, fields, "define", "value")
		return &DefineStmt{Name: p.name(fields["define"]), Initializer: p.expression(p.require(node, fields, "value"))}
	case "assign":
		p.only(node, fields, "assign", "value")
		return &AssignStmt{Name: p.name(fields["assign"]), Value: p.expression(p.require(node, fields, "value"))}
	case "print":
		p.only(node, fields, "print")
		value := fields["print"]
		if value.Kind != yaml.SequenceNode {
			return &PrintStmt{Expressions: []Expr{p.expression(value)}}
		}
		expressions := make([]Expr, len(value.Content))
		for i, element := range value.Content {
			expressions[i] = p.expression(element)
		}
		return &PrintStmt{Expressions: expressions}
	case "eval":
		p.only(node, fields, "eval")
		return &ExprStmt{Expr: p.expression(fields["eval"])}
	case "block":
		p.only(node, fields, "block")
		return &BlockStmt{Statements: p.steps(fields["block"])}
	case "func":
		p.only(node, fields, "func", "params", "body")
		return p.function(node, fields)
	case "return":
		p.only(node, fields, "return")
		value := fields["return"]
		if value.ShortTag() == "!!null" {
			return &ReturnStmt{}
		}
		return &ReturnStmt{Value: p.expression(value)}
	case "fail":
		p.only(node, fields, "fail")
		return &FailStmt{Message: p.scalar(fields["fail"])}
	default:
		panic(p.error(node, "unknown step"))
	}
}

func (p *Parser) function(node *yaml.Node, fields map[string]*yaml.Node) Stmt {
	fn := &FunctionStmt{Name: p.name(fields["func"])}
	if params, ok := fields["params"]; ok {
		if params.Kind != yaml.SequenceNode {
			panic(p.error(params, "expect a list of parameter names"))
		}
		seen := make(map[string]bool, len(params.Content))
		for _, param := range params.Content {
			name := p.name(param)
			if seen[name] {
				panic(p.error(param, "duplicate parameter '%s'", name))
			}
			seen[name] = true
			fn.Params = append(fn.Params, name)
		}
	}
	fn.Body = p.steps(p.require(node, fields, "body"))
	return fn
}

func (p *Parser) expression(node *yaml.Node) Expr {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!str" {
		return &VariableExpr{Name: node.Value}
	}
	if node.Kind != yaml.MappingNode {
		panic(p.error(node, "expect a name or an expression"))
	}

	fields := p.fields(node, "expression")
	switch {
	case fields["alloc"] != nil:
		p.only(node, fields, "alloc")
		return &AllocExpr{Value: p.data(fields["alloc"])}
	case fields["literal"] != nil:
		p.only(node, fields, "literal")
		return &LiteralExpr{Value: p.data(fields["literal"])}
	case fields["copy"] != nil:
		p.only(node, fields, "copy")
		return &CopyExpr{Name: p.name(fields["copy"])}
	case fields["move"] != nil:
		p.only(node, fields, "move")
		return &MoveExpr{Name: p.name(fields["move"])}
	case fields["call"] != nil:
		p.only(node, fields, "call", "args")
		call := &CallExpr{Callee: p.name(fields["call"])}
		if args, ok := fields["args"]; ok {
			if args.Kind != yaml.SequenceNode {
				panic(p.error(args, "expect a list of arguments"))
			}
			for _, arg := range args.Content {
				call.Arguments = append(call.Arguments, p.expression(arg))
			}
		}
		return call
	}
	panic(p.error(node, "unknown expression"))
}

func (p *Parser) data(node *yaml.Node) runtime.Payload {
	switch node.Kind {
	case yaml.ScalarNode:
		return p.scalarData(node)
	case yaml.SequenceNode:
		array := make(runtime.ArrayValue, len(node.Content))
		for i, element := range node.Content {
			array[i] = p.data(element)
		}
		return array
	case yaml.MappingNode:
		mapValue := make(runtime.MapValue, len(node.Content)/2)
		for j := 0; j < len(node.Content); j += 2 {
			keyNode := node.Content[j]
			if keyNode.Kind != yaml.ScalarNode {
				panic(p.error(keyNode, "map keys must be scalars"))
			}
			mapValue[p.scalarData(keyNode)] = p.data(node.Content[j+1])
		}
		return mapValue
	case yaml.AliasNode:
		return p.data(node.Alias)
	}
	panic(p.error(node, "unsupported data"))
}

func (p *Parser) scalarData(node *yaml.Node) runtime.Payload {
	switch node.ShortTag() {
	case "!!int":
		var i int
		if err := node.Decode(&i); err != nil {
			panic(p.error(node, "invalid integer %s", node.Value))
		}
		return runtime.IntegerValue(i)
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			panic(p.error(node, "invalid boolean %s", node.Value))
		}
		return runtime.BooleanValue(b)
	case "!!str":
		return runtime.StringValue(node.Value)
	case "!char":
		if utf8.RuneCountInString(node.Value) != 1 {
			panic(p.error(node, "a char must be a single character"))
		}
		r, _ := utf8.DecodeRuneInString(node.Value)
		return runtime.CharValue(r)
	}
	panic(p.error(node, "unsupported value %s", node.Value))
}

func (p *Parser) fields(node *yaml.Node, what string) map[string]*yaml.Node {
	if node.Kind != yaml.MappingNode {
		panic(p.error(node, "expect a %s mapping", what))
	}
	fields := make(map[string]*yaml.Node, len(node.Content)/2)
	for j := 0; j < len(node.Content); j += 2 {
		key := node.Content[j].Value
		if _, ok := fields[key]; ok {
			panic(p.error(node.Content[j], "duplicate key '%s'", key))
		}
		fields[key] = node.Content[j+1]
	}
	return fields
}

func (p *Parser) only(node *yaml.Node, fields map[string]*yaml.Node, allowed ...string) {
	for key := range fields {
		found := false
		for _, a := range allowed {
			if key == a {
				found = true
				break
			}
		}
		if !found {
			panic(p.error(node, "unexpected key '%s'", key))
		}
	}
}

func (p *Parser) require(node *yaml.Node, fields map[string]*yaml.Node, key string) *yaml.Node {
	value, ok := fields[key]
	if !ok {
		panic(p.error(node, "missing '%s'", key))
	}
	return value
}

func (p *Parser) name(node *yaml.Node) string {
	name := p.scalar(node)
	if name == "" {
		panic(p.error(node, "expect a name"))
	}
	return name
}

func (p *Parser) scalar(node *yaml.Node) string {
	if node.Kind != yaml.ScalarNode {
		panic(p.error(node, "expect a scalar"))
	}
	return node.Value
}

func (p *Parser) error(node *yaml.Node, format string, args ...any) parseError {
	return parseError{message: fmt.Sprintf("line %d: %s", node.Line, fmt.Sprintf(format, args...))}
}
