package interpret

import (
	"fmt"

	"github.com/lumenlang/lumen/ast"
)

// Class is a runtime class value: a constructor callable and a method
// table, with single inheritance through Superclass.
type Class struct {
	Name       string
	Superclass *Class
	Methods    map[string]*Function
}

// Arity is the arity of the class's "init" method, or 0 if it has none.
func (c *Class) Arity() int {
	if init, ok := c.findMethod("init"); ok {
		return init.Arity()
	}
	return 0
}

// Call constructs and initializes a new Instance of c.
func (c *Class) Call(in *Interpreter, args []interface{}) interface{} {
	instance := &Instance{class: c, fields: make(map[string]interface{})}
	if init, ok := c.findMethod("init"); ok {
		init.bind(instance).Call(in, args)
	}
	return instance
}

func (c *Class) findMethod(name string) (*Function, bool) {
	if method, ok := c.Methods[name]; ok {
		return method, true
	}
	if c.Superclass != nil {
		return c.Superclass.findMethod(name)
	}
	return nil, false
}

func (c *Class) String() string { return c.Name }

// Instance is a runtime instance of a Class: a class pointer plus an
// open-ended field table, populated lazily by `set` expressions.
type Instance struct {
	class  *Class
	fields map[string]interface{}
}

// Get resolves a field first, then a bound method.
func (i *Instance) Get(name ast.Token) (interface{}, error) {
	if val, ok := i.fields[name.Lexeme]; ok {
		return val, nil
	}
	if method, ok := i.class.findMethod(name.Lexeme); ok {
		return method.bind(i), nil
	}
	return nil, fmt.Errorf("Undefined property '%s'.", name.Lexeme)
}

// Set always defines the field on the instance, even if it shadows a
// method of the same name — fields and methods share one namespace.
func (i *Instance) Set(name ast.Token, value interface{}) {
	i.fields[name.Lexeme] = value
}

func (i *Instance) String() string { return i.class.Name + " instance" }
