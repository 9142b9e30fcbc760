package interpret

import (
	"github.com/lumenlang/lumen/ast"
	"github.com/lumenlang/lumen/env"
)

// Callable is anything that can appear on the left of a CallExpr:
// user-defined functions and methods, classes (called to construct an
// instance), and native functions like clock.
type Callable interface {
	Arity() int
	Call(in *Interpreter, args []interface{}) interface{}
}

// Function is a user-defined function or method, closing over the
// environment active where it was declared (not where it is called).
type Function struct {
	declaration   *ast.FunctionStmt
	closure       *env.Environment
	isInitializer bool
}

func (f *Function) Arity() int { return len(f.declaration.Params) }

func (f *Function) Call(in *Interpreter, args []interface{}) (result interface{}) {
	defer func() {
		if r := recover(); r != nil {
			ret, ok := r.(returnSignal)
			if !ok {
				panic(r)
			}
			if f.isInitializer {
				result = f.closure.GetAt(0, "this")
				return
			}
			result = ret.Value
		}
	}()

	scope := env.New(f.closure)
	for i, param := range f.declaration.Params {
		scope.Define(param.Lexeme, args[i])
	}
	in.executeBlock(f.declaration.Body, scope)

	if f.isInitializer {
		return f.closure.GetAt(0, "this")
	}
	return nil
}

func (f *Function) String() string {
	return "<fn " + f.declaration.Name.Lexeme + ">"
}

// bind returns a copy of f whose closure additionally binds "this" to
// instance, used when a method is looked up off an instance (including
// via `super`).
func (f *Function) bind(instance *Instance) *Function {
	scope := env.New(f.closure)
	scope.Define("this", instance)
	return &Function{declaration: f.declaration, closure: scope, isInitializer: f.isInitializer}
}
