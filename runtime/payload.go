package runtime

import (
	"fmt"
	"sort"
	"strings"
)

// Payload is the data a Value points at. The environment never looks inside it.
type Payload interface {
	fmt.Stringer
}

type ArrayValue []Payload

func (a ArrayValue) String() string {
	values := make([]string, len(a))
	for i, value := range a {
		values[i] = value.String()
	}
	return "[" + strings.Join(values, " ") + "]"
}

// MapValue keys must be comparable scalar payloads.
type MapValue map[Payload]Payload

func (m MapValue) String() string {
	pairs := make([]string, 0, len(m))
	for key, value := range m {
		pairs = append(pairs, fmt.Sprintf("%s: %s", key, value))
	}
	sort.Strings(pairs)
	return fmt.Sprintf("{ %s }", strings.Join(pairs, ", "))
}

type IntegerValue int

func (i IntegerValue) String() string {
	return fmt.Sprintf("%d", i)
}

type StringValue string

func (s StringValue) String() string {
	return string(s)
}

type BooleanValue bool

func (b BooleanValue) String() string {
	return fmt.Sprintf("%t", b)
}

type CharValue rune

func (c CharValue) String() string {
	return string(c)
}

// Clone returns a deep copy of p. Scalars are returned as is.
func Clone(p Payload) Payload {
	switch p := p.(type) {
	case ArrayValue:
		out := make(ArrayValue, len(p))
		for i, element := range p {
			out[i] = Clone(element)
		}
		return out
	case MapValue:
		out := make(MapValue, len(p))
		for key, value := range p {
			out[key] = Clone(value)
		}
		return out
	default:
		return p
	}
}
