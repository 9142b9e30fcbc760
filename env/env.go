// Package env implements the nested lexical scope chain the interpreter
// evaluates against. Each Environment holds one scope's bindings and a
// pointer to its enclosing scope, so a lookup walks outward until it
// either finds the name or runs off the end of the chain.
package env

import (
	"fmt"

	"github.com/lumenlang/lumen/ast"
)

// UndefinedVariableError is returned by Get and Assign when name is not
// bound anywhere in the environment chain. It carries the offending
// token so a caller can report a line number without re-deriving one.
type UndefinedVariableError struct {
	Name ast.Token
}

func (e UndefinedVariableError) Error() string {
	return fmt.Sprintf("Undefined variable '%s'.", e.Name.Lexeme)
}

// Environment holds one lexical scope's variable bindings.
type Environment struct {
	Enclosing *Environment
	values    map[string]interface{}
}

// New returns a scope enclosed by enclosing. Pass nil for the global scope.
func New(enclosing *Environment) *Environment {
	return &Environment{Enclosing: enclosing, values: make(map[string]interface{})}
}

// Define binds name to value in this scope, shadowing any binding of the
// same name in an enclosing scope. Re-declaring an existing name in the
// same scope silently replaces it, matching a `var` re-declaration at
// the top level.
func (e *Environment) Define(name string, value interface{}) {
	e.values[name] = value
}

// Get resolves name by walking outward from this scope.
func (e *Environment) Get(name ast.Token) (interface{}, error) {
	if val, ok := e.values[name.Lexeme]; ok {
		return val, nil
	}
	if e.Enclosing != nil {
		return e.Enclosing.Get(name)
	}
	return nil, UndefinedVariableError{Name: name}
}

// GetAt resolves name in the scope exactly distance hops out from this
// one. distance comes from the resolver, which has already proven the
// binding exists there, so no error can occur.
func (e *Environment) GetAt(distance int, name string) interface{} {
	return e.ancestor(distance).values[name]
}

// Assign rebinds an existing name by walking outward from this scope. It
// never creates a new binding — that is Define's job.
func (e *Environment) Assign(name ast.Token, value interface{}) error {
	if _, ok := e.values[name.Lexeme]; ok {
		e.values[name.Lexeme] = value
		return nil
	}
	if e.Enclosing != nil {
		return e.Enclosing.Assign(name, value)
	}
	return UndefinedVariableError{Name: name}
}

// AssignAt rebinds name in the scope exactly distance hops out, per the
// resolver's precomputed depth.
func (e *Environment) AssignAt(distance int, name ast.Token, value interface{}) {
	e.ancestor(distance).values[name.Lexeme] = value
}

func (e *Environment) ancestor(distance int) *Environment {
	env := e
	for i := 0; i < distance; i++ {
		env = env.Enclosing
	}
	return env
}
