package resolver

import (
	"fmt"

	"github.com/itchyny/gojq"
)

// jqPath is a compiled jq expression reading one field of a payload
type jqPath struct {
	expr string
	code *gojq.Code
}

func compile(expr string) (*jqPath, error) {
	parsed, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", expr, err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, err)
	}
	return &jqPath{expr: expr, code: code}, nil
}

func mustCompile(expr string) *jqPath {
	p, err := compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// value returns the first result of the expression. Absent fields, nulls and
// evaluation errors all report false.
func (p *jqPath) value(input any) (any, bool) {
	iter := p.code.Run(input)
	v, ok := iter.Next()
	if !ok || v == nil {
		return nil, false
	}
	if _, isErr := v.(error); isErr {
		return nil, false
	}
	return v, true
}

// str returns the first result when it is a non-empty string
func (p *jqPath) str(input any) (string, bool) {
	v, ok := p.value(input)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// firstString returns the first path yielding a non-empty string
func firstString(input any, paths ...*jqPath) (string, bool) {
	for _, p := range paths {
		if s, ok := p.str(input); ok {
			return s, true
		}
	}
	return "", false
}
