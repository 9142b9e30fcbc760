// Package resolve performs the static scope analysis pass described in
// SPEC_FULL.md §9: for every variable reference, it precomputes how many
// enclosing scopes to walk out to find the binding, so the interpreter
// never has to search the environment chain by name, and a closure keeps
// referring to the binding that was in scope where it was written. A
// variable declared inside a loop body gets a fresh binding on every
// iteration; the variable a `for` initializer declares is one binding
// shared by all iterations, so a closure over it sees its current value.
package resolve

import (
	"fmt"
	"io"

	"github.com/lumenlang/lumen/ast"
	"github.com/lumenlang/lumen/interpret"
)

type functionType int

const (
	functionTypeNone functionType = iota
	functionTypeFunction
	functionTypeMethod
	functionTypeInitializer
)

type classType int

const (
	classTypeNone classType = iota
	classTypeClass
	classTypeSubclass
)

type variable struct {
	token   ast.Token
	defined bool
	used    bool
}

// scope tracks the local variables declared in one lexical block.
type scope map[string]*variable

func (s scope) declare(name ast.Token) {
	s[name.Lexeme] = &variable{token: name}
}

func (s scope) define(name string) {
	if v, ok := s[name]; ok {
		v.defined = true
	}
}

func (s scope) use(name string) {
	if v, ok := s[name]; ok {
		v.used = true
	}
}

// set marks name as already declared, defined and used — for the
// synthetic "this"/"super" bindings the resolver injects itself, which
// should never trigger an unused-variable diagnostic.
func (s scope) set(name string) {
	s[name] = &variable{defined: true, used: true}
}

type scopeStack []scope

func (s *scopeStack) peek() scope   { return (*s)[len(*s)-1] }
func (s *scopeStack) push(sc scope) { *s = append(*s, sc) }
func (s *scopeStack) pop()          { *s = (*s)[:len(*s)-1] }
func (s *scopeStack) empty() bool   { return len(*s) == 0 }

// Resolver walks a statement list once, before evaluation, computing the
// scope depth of each variable reference and reporting scope-related
// errors: reading a variable in its own initializer, redeclaring a name
// in the same block, returning from top-level code, and using `this` or
// `super` outside a class.
type Resolver struct {
	interpreter     *interpret.Interpreter
	scopes          scopeStack
	currentFunction functionType
	currentClass    classType
	stdErr          io.Writer
	hadError        bool
}

// New returns a Resolver that reports its findings to interpreter and
// writes diagnostics to stdErr.
func New(interpreter *interpret.Interpreter, stdErr io.Writer) *Resolver {
	return &Resolver{interpreter: interpreter, stdErr: stdErr}
}

// Resolve resolves every statement in stmts and reports whether any
// resolution error was found. The caller should not proceed to
// interpretation when this returns true.
func (r *Resolver) Resolve(stmts []ast.Stmt) (hadError bool) {
	for _, stmt := range stmts {
		r.resolveStmt(stmt)
	}
	return r.hadError
}

func (r *Resolver) resolveStmt(stmt ast.Stmt) { stmt.Accept(r) }
func (r *Resolver) resolveExpr(expr ast.Expr) { expr.Accept(r) }

func (r *Resolver) resolveFunction(fn *ast.FunctionStmt, kind functionType) {
	enclosing := r.currentFunction
	r.currentFunction = kind
	defer func() { r.currentFunction = enclosing }()

	r.beginScope()
	for _, param := range fn.Params {
		r.declare(param)
		r.define(param)
	}
	r.Resolve(fn.Body)
	r.endScope()
}

func (r *Resolver) beginScope() { r.scopes.push(make(scope)) }

// endScope pops the current scope, first reporting every local variable
// declared in it that was never read.
func (r *Resolver) endScope() {
	for name, v := range r.scopes.peek() {
		if !v.used {
			r.error(v.token, fmt.Sprintf("Variable '%s' declared but not used.", name))
		}
	}
	r.scopes.pop()
}

func (r *Resolver) VisitAssignExpr(expr *ast.AssignExpr) interface{} {
	r.resolveExpr(expr.Value)
	r.resolveLocal(expr, expr.Name)
	return nil
}

func (r *Resolver) VisitBinaryExpr(expr *ast.BinaryExpr) interface{} {
	r.resolveExpr(expr.Left)
	r.resolveExpr(expr.Right)
	return nil
}

func (r *Resolver) VisitCallExpr(expr *ast.CallExpr) interface{} {
	r.resolveExpr(expr.Callee)
	for _, arg := range expr.Arguments {
		r.resolveExpr(arg)
	}
	return nil
}

func (r *Resolver) VisitGetExpr(expr *ast.GetExpr) interface{} {
	r.resolveExpr(expr.Object)
	return nil
}

func (r *Resolver) VisitGroupingExpr(expr *ast.GroupingExpr) interface{} {
	r.resolveExpr(expr.Expression)
	return nil
}

func (r *Resolver) VisitLiteralExpr(*ast.LiteralExpr) interface{} { return nil }

func (r *Resolver) VisitLogicalExpr(expr *ast.LogicalExpr) interface{} {
	r.resolveExpr(expr.Left)
	r.resolveExpr(expr.Right)
	return nil
}

func (r *Resolver) VisitSetExpr(expr *ast.SetExpr) interface{} {
	r.resolveExpr(expr.Value)
	r.resolveExpr(expr.Object)
	return nil
}

func (r *Resolver) VisitSuperExpr(expr *ast.SuperExpr) interface{} {
	switch r.currentClass {
	case classTypeNone:
		r.error(expr.Keyword, "Can't use 'super' outside of a class.")
	case classTypeClass:
		r.error(expr.Keyword, "Can't use 'super' in a class with no superclass.")
	}
	r.resolveLocal(expr, expr.Keyword)
	return nil
}

func (r *Resolver) VisitThisExpr(expr *ast.ThisExpr) interface{} {
	if r.currentClass == classTypeNone {
		r.error(expr.Keyword, "Can't use 'this' outside of a class.")
	}
	r.resolveLocal(expr, expr.Keyword)
	return nil
}

func (r *Resolver) VisitUnaryExpr(expr *ast.UnaryExpr) interface{} {
	r.resolveExpr(expr.Right)
	return nil
}

func (r *Resolver) VisitVariableExpr(expr *ast.VariableExpr) interface{} {
	if !r.scopes.empty() {
		if v, ok := r.scopes.peek()[expr.Name.Lexeme]; ok && !v.defined {
			r.error(expr.Name, "Can't read local variable in its own initializer.")
		}
	}
	r.resolveLocal(expr, expr.Name)
	return nil
}

func (r *Resolver) VisitBlockStmt(stmt *ast.BlockStmt) interface{} {
	r.beginScope()
	r.Resolve(stmt.Statements)
	r.endScope()
	return nil
}

func (r *Resolver) VisitBreakStmt(*ast.BreakStmt) interface{}       { return nil }
func (r *Resolver) VisitContinueStmt(*ast.ContinueStmt) interface{} { return nil }

func (r *Resolver) VisitClassStmt(stmt *ast.ClassStmt) interface{} {
	enclosingClass := r.currentClass
	r.currentClass = classTypeClass
	defer func() { r.currentClass = enclosingClass }()

	r.declare(stmt.Name)
	r.define(stmt.Name)

	if stmt.Superclass != nil && stmt.Name.Lexeme == stmt.Superclass.Name.Lexeme {
		r.error(stmt.Superclass.Name, "A class can't inherit from itself.")
	}

	if stmt.Superclass != nil {
		r.currentClass = classTypeSubclass
		r.resolveExpr(stmt.Superclass)

		r.beginScope()
		r.scopes.peek().set("super")
		defer r.endScope()
	}

	r.beginScope()
	r.scopes.peek().set("this")

	for _, method := range stmt.Methods {
		kind := functionTypeMethod
		if method.Name.Lexeme == "init" {
			kind = functionTypeInitializer
		}
		r.resolveFunction(method, kind)
	}

	r.endScope()
	return nil
}

func (r *Resolver) VisitExpressionStmt(stmt *ast.ExpressionStmt) interface{} {
	r.resolveExpr(stmt.Expr)
	return nil
}

func (r *Resolver) VisitFunctionStmt(stmt *ast.FunctionStmt) interface{} {
	r.declare(stmt.Name)
	r.define(stmt.Name)
	r.resolveFunction(stmt, functionTypeFunction)
	return nil
}

func (r *Resolver) VisitIfStmt(stmt *ast.IfStmt) interface{} {
	r.resolveExpr(stmt.Condition)
	r.resolveStmt(stmt.ThenBranch)
	if stmt.ElseBranch != nil {
		r.resolveStmt(stmt.ElseBranch)
	}
	return nil
}

func (r *Resolver) VisitPrintStmt(stmt *ast.PrintStmt) interface{} {
	r.resolveExpr(stmt.Expr)
	return nil
}

func (r *Resolver) VisitReturnStmt(stmt *ast.ReturnStmt) interface{} {
	if r.currentFunction == functionTypeNone {
		r.error(stmt.Keyword, "Can't return from top-level code.")
	}
	if stmt.Value != nil {
		if r.currentFunction == functionTypeInitializer {
			r.error(stmt.Keyword, "Can't return a value from an initializer.")
		}
		r.resolveExpr(stmt.Value)
	}
	return nil
}

func (r *Resolver) VisitVarStmt(stmt *ast.VarStmt) interface{} {
	r.declare(stmt.Name)
	if stmt.Initializer != nil {
		r.resolveExpr(stmt.Initializer)
	}
	r.define(stmt.Name)
	return nil
}

func (r *Resolver) VisitWhileStmt(stmt *ast.WhileStmt) interface{} {
	r.resolveExpr(stmt.Condition)
	r.resolveStmt(stmt.Body)
	return nil
}

// declare introduces name into the current scope, reporting an error if
// it shadows an already-declared name in the SAME scope (redeclaring in
// an enclosing scope is legal shadowing). No-op at global scope, where
// redeclaration is allowed.
func (r *Resolver) declare(name ast.Token) {
	if r.scopes.empty() {
		return
	}
	sc := r.scopes.peek()
	if _, ok := sc[name.Lexeme]; ok {
		r.error(name, "Already a variable with this name in this scope.")
	}
	sc.declare(name)
}

func (r *Resolver) define(name ast.Token) {
	if r.scopes.empty() {
		return
	}
	r.scopes.peek().define(name.Lexeme)
}

// resolveLocal walks the scope stack from innermost outward and, on
// finding name, reports its depth to the interpreter and marks it used.
// A name never found in any scope is left unresolved, meaning the
// interpreter will look it up in globals instead.
func (r *Resolver) resolveLocal(expr ast.Expr, name ast.Token) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name.Lexeme]; ok {
			r.interpreter.Resolve(expr, len(r.scopes)-1-i)
			r.scopes[i].use(name.Lexeme)
			return
		}
	}
}

func (r *Resolver) error(token ast.Token, message string) {
	where := " at '" + token.Lexeme + "'"
	if token.Kind == ast.Eof {
		where = " at end"
	}
	_, _ = io.WriteString(r.stdErr, fmt.Sprintf("[line %d] Error%s: %s\n", token.Line, where, message))
	r.hadError = true
}
