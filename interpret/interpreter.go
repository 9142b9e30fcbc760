// Package interpret is the tree-walking evaluator: it executes the
// statement list a parse produces against a chain of env.Environment
// scopes, using the resolver's precomputed variable depths wherever they
// are available. See SPEC_FULL.md §4.2 for the evaluation rules.
package interpret

import (
	"fmt"
	"io"
	"strconv"

	"github.com/lumenlang/lumen/ast"
	"github.com/lumenlang/lumen/env"
)

// ErrorKind classifies a runtime failure, matching the taxonomy in
// SPEC_FULL.md §7.
type ErrorKind int

const (
	UnexpectedType ErrorKind = iota
	UndefinedVariable
	InvalidOperand
	DivisionByZero
	NotCallable
	ArityMismatch
	UndefinedProperty
)

// RuntimeError is a single evaluation-time failure. Unlike a parse
// error, hitting one halts execution immediately rather than being
// accumulated.
type RuntimeError struct {
	Kind    ErrorKind
	Token   ast.Token
	Message string
}

func (e RuntimeError) Error() string {
	return fmt.Sprintf("%s\n[line %d]", e.Message, e.Token.Line)
}

// breakSignal, continueSignal and returnSignal are the panic values used
// to implement non-local control flow. They are never wrapped in an
// error and never reach a caller outside this package.
type breakSignal struct{}
type continueSignal struct{}
type returnSignal struct{ Value interface{} }

// Interpreter walks a resolved AST and produces side effects (writes to
// stdOut) plus, for the top-level Interpret call, the value of the last
// expression statement evaluated.
type Interpreter struct {
	environment *env.Environment
	globals     *env.Environment
	stdOut      io.Writer
	stdErr      io.Writer

	// locals maps a resolved Expr (by pointer identity — every ast.Expr
	// variant is a pointer type) to the number of enclosing scopes to walk
	// out to find its binding. Populated by resolve.Resolver.Resolve
	// before Interpret runs; an expr absent from this map is a global.
	locals map[ast.Expr]int
}

// New sets up an interpreter that writes program output to stdOut and
// error reports to stdErr.
func New(stdOut, stdErr io.Writer) *Interpreter {
	globals := env.New(nil)
	globals.Define("clock", clockFn{})

	return &Interpreter{
		globals:     globals,
		environment: globals,
		stdOut:      stdOut,
		stdErr:      stdErr,
		locals:      make(map[ast.Expr]int),
	}
}

// Interpret executes stmts in order, returning the value of the final
// top-level expression statement (mainly useful for a REPL) and whether
// a RuntimeError halted execution early.
func (in *Interpreter) Interpret(stmts []ast.Stmt) (result interface{}, hadRuntimeError bool) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(RuntimeError); ok {
				_, _ = io.WriteString(in.stdErr, e.Error()+"\n")
				hadRuntimeError = true
				return
			}
			panic(r)
		}
	}()

	for _, stmt := range stmts {
		result = in.execute(stmt)
	}
	return result, false
}

// Resolve records that expr resolves to a binding depth scopes out from
// wherever it is evaluated. Called by resolve.Resolver, never by this
// package.
func (in *Interpreter) Resolve(expr ast.Expr, depth int) {
	in.locals[expr] = depth
}

func (in *Interpreter) fail(kind ErrorKind, token ast.Token, message string) {
	panic(RuntimeError{Kind: kind, Token: token, Message: message})
}

func (in *Interpreter) execute(stmt ast.Stmt) interface{} {
	return stmt.Accept(in)
}

func (in *Interpreter) evaluate(expr ast.Expr) interface{} {
	return expr.Accept(in)
}

func (in *Interpreter) executeBlock(statements []ast.Stmt, scope *env.Environment) {
	previous := in.environment
	defer func() { in.environment = previous }()

	in.environment = scope
	for _, stmt := range statements {
		in.execute(stmt)
	}
}

func (in *Interpreter) VisitBlockStmt(stmt *ast.BlockStmt) interface{} {
	in.executeBlock(stmt.Statements, env.New(in.environment))
	return nil
}

func (in *Interpreter) VisitClassStmt(stmt *ast.ClassStmt) interface{} {
	var superclass *Class
	if stmt.Superclass != nil {
		value := in.evaluate(stmt.Superclass)
		class, ok := value.(*Class)
		if !ok {
			in.fail(UnexpectedType, stmt.Superclass.Name, "Superclass must be a class.")
		}
		superclass = class
	}

	in.environment.Define(stmt.Name.Lexeme, nil)

	if superclass != nil {
		in.environment = env.New(in.environment)
		in.environment.Define("super", superclass)
	}

	methods := make(map[string]*Function, len(stmt.Methods))
	for _, method := range stmt.Methods {
		methods[method.Name.Lexeme] = &Function{
			declaration:   method,
			closure:       in.environment,
			isInitializer: method.Name.Lexeme == "init",
		}
	}

	class := &Class{Name: stmt.Name.Lexeme, Superclass: superclass, Methods: methods}

	if superclass != nil {
		in.environment = in.environment.Enclosing
	}

	if err := in.environment.Assign(stmt.Name, class); err != nil {
		in.fail(UndefinedVariable, stmt.Name, err.Error())
	}
	return nil
}

func (in *Interpreter) VisitVarStmt(stmt *ast.VarStmt) interface{} {
	var value interface{}
	if stmt.Initializer != nil {
		value = in.evaluate(stmt.Initializer)
	}
	in.environment.Define(stmt.Name.Lexeme, value)
	return nil
}

func (in *Interpreter) VisitIfStmt(stmt *ast.IfStmt) interface{} {
	if isTruthy(in.evaluate(stmt.Condition)) {
		in.execute(stmt.ThenBranch)
	} else if stmt.ElseBranch != nil {
		in.execute(stmt.ElseBranch)
	}
	return nil
}

func (in *Interpreter) VisitWhileStmt(stmt *ast.WhileStmt) interface{} {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(breakSignal); !ok {
				panic(r)
			}
		}
	}()

	for isTruthy(in.evaluate(stmt.Condition)) {
		in.executeLoopBody(stmt.Body)
	}
	return nil
}

// executeLoopBody runs one iteration of a loop body, absorbing a
// continueSignal so the enclosing while's condition is re-checked.
func (in *Interpreter) executeLoopBody(body ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(continueSignal); !ok {
				panic(r)
			}
		}
	}()
	in.execute(body)
}

func (in *Interpreter) VisitBreakStmt(_ *ast.BreakStmt) interface{} {
	panic(breakSignal{})
}

func (in *Interpreter) VisitContinueStmt(_ *ast.ContinueStmt) interface{} {
	panic(continueSignal{})
}

func (in *Interpreter) VisitExpressionStmt(stmt *ast.ExpressionStmt) interface{} {
	return in.evaluate(stmt.Expr)
}

func (in *Interpreter) VisitFunctionStmt(stmt *ast.FunctionStmt) interface{} {
	fn := &Function{declaration: stmt, closure: in.environment}
	in.environment.Define(stmt.Name.Lexeme, fn)
	return nil
}

func (in *Interpreter) VisitPrintStmt(stmt *ast.PrintStmt) interface{} {
	value := in.evaluate(stmt.Expr)
	_, _ = io.WriteString(in.stdOut, stringify(value)+"\n")
	return nil
}

func (in *Interpreter) VisitReturnStmt(stmt *ast.ReturnStmt) interface{} {
	var value interface{}
	if stmt.Value != nil {
		value = in.evaluate(stmt.Value)
	}
	panic(returnSignal{Value: value})
}

func (in *Interpreter) VisitAssignExpr(expr *ast.AssignExpr) interface{} {
	value := in.evaluate(expr.Value)

	if distance, ok := in.locals[expr]; ok {
		in.environment.AssignAt(distance, expr.Name, value)
	} else if err := in.globals.Assign(expr.Name, value); err != nil {
		in.fail(UndefinedVariable, expr.Name, err.Error())
	}

	return value
}

func (in *Interpreter) VisitLogicalExpr(expr *ast.LogicalExpr) interface{} {
	left := in.evaluate(expr.Left)
	if expr.Operator.Kind == ast.Or {
		if isTruthy(left) {
			return left
		}
	} else if !isTruthy(left) {
		return left
	}
	return in.evaluate(expr.Right)
}

func (in *Interpreter) VisitCallExpr(expr *ast.CallExpr) interface{} {
	callee := in.evaluate(expr.Callee)

	args := make([]interface{}, len(expr.Arguments))
	for i, arg := range expr.Arguments {
		args[i] = in.evaluate(arg)
	}

	fn, ok := callee.(Callable)
	if !ok {
		in.fail(NotCallable, expr.Paren, "Can only call functions and classes.")
	}

	if len(args) != fn.Arity() {
		in.fail(ArityMismatch, expr.Paren,
			fmt.Sprintf("Expected %d arguments but got %d.", fn.Arity(), len(args)))
	}

	return fn.Call(in, args)
}

func (in *Interpreter) VisitGetExpr(expr *ast.GetExpr) interface{} {
	object := in.evaluate(expr.Object)
	instance, ok := object.(*Instance)
	if !ok {
		in.fail(UnexpectedType, expr.Name, "Only instances have properties.")
	}
	val, err := instance.Get(expr.Name)
	if err != nil {
		in.fail(UndefinedProperty, expr.Name, err.Error())
	}
	return val
}

func (in *Interpreter) VisitVariableExpr(expr *ast.VariableExpr) interface{} {
	return in.lookUpVariable(expr.Name, expr)
}

func (in *Interpreter) lookUpVariable(name ast.Token, expr ast.Expr) interface{} {
	if distance, ok := in.locals[expr]; ok {
		return in.environment.GetAt(distance, name.Lexeme)
	}
	value, err := in.globals.Get(name)
	if err != nil {
		in.fail(UndefinedVariable, name, err.Error())
	}
	return value
}

func (in *Interpreter) VisitBinaryExpr(expr *ast.BinaryExpr) interface{} {
	left := in.evaluate(expr.Left)
	right := in.evaluate(expr.Right)

	switch expr.Operator.Kind {
	case ast.Plus:
		leftNum, leftIsNum := left.(float64)
		rightNum, rightIsNum := right.(float64)
		if leftIsNum && rightIsNum {
			return leftNum + rightNum
		}
		leftStr, leftIsStr := left.(string)
		rightStr, rightIsStr := right.(string)
		if leftIsStr && rightIsStr {
			return leftStr + rightStr
		}
		in.fail(InvalidOperand, expr.Operator, "Operands must be two numbers or two strings.")
	case ast.Minus:
		l, r := in.checkNumberOperands(expr.Operator, left, right)
		return l - r
	case ast.Slash:
		l, r := in.checkNumberOperands(expr.Operator, left, right)
		if r == 0 {
			in.fail(DivisionByZero, expr.Operator, "Division by zero.")
		}
		return l / r
	case ast.Star:
		l, r := in.checkNumberOperands(expr.Operator, left, right)
		return l * r
	case ast.Greater:
		l, r := in.checkNumberOperands(expr.Operator, left, right)
		return l > r
	case ast.GreaterEqual:
		l, r := in.checkNumberOperands(expr.Operator, left, right)
		return l >= r
	case ast.Less:
		l, r := in.checkNumberOperands(expr.Operator, left, right)
		return l < r
	case ast.LessEqual:
		l, r := in.checkNumberOperands(expr.Operator, left, right)
		return l <= r
	case ast.EqualEqual:
		return left == right
	case ast.BangEqual:
		return left != right
	}
	return nil
}

func (in *Interpreter) VisitGroupingExpr(expr *ast.GroupingExpr) interface{} {
	return in.evaluate(expr.Expression)
}

func (in *Interpreter) VisitLiteralExpr(expr *ast.LiteralExpr) interface{} {
	return expr.Value
}

func (in *Interpreter) VisitSetExpr(expr *ast.SetExpr) interface{} {
	object := in.evaluate(expr.Object)

	instance, ok := object.(*Instance)
	if !ok {
		in.fail(UnexpectedType, expr.Name, "Only instances have fields.")
	}

	value := in.evaluate(expr.Value)
	instance.Set(expr.Name, value)
	return value
}

func (in *Interpreter) VisitSuperExpr(expr *ast.SuperExpr) interface{} {
	distance := in.locals[expr]
	superclass := in.environment.GetAt(distance, "super").(*Class)
	object := in.environment.GetAt(distance-1, "this").(*Instance)

	method, ok := superclass.findMethod(expr.Method.Lexeme)
	if !ok {
		in.fail(UndefinedProperty, expr.Method, fmt.Sprintf("Undefined property '%s'.", expr.Method.Lexeme))
	}
	return method.bind(object)
}

func (in *Interpreter) VisitThisExpr(expr *ast.ThisExpr) interface{} {
	return in.lookUpVariable(expr.Keyword, expr)
}

func (in *Interpreter) VisitUnaryExpr(expr *ast.UnaryExpr) interface{} {
	right := in.evaluate(expr.Right)
	switch expr.Operator.Kind {
	case ast.Bang:
		return !isTruthy(right)
	case ast.Minus:
		return -in.checkNumberOperand(expr.Operator, right)
	}
	return nil
}

func isTruthy(value interface{}) bool {
	if value == nil {
		return false
	}
	if b, ok := value.(bool); ok {
		return b
	}
	return true
}

func (in *Interpreter) checkNumberOperand(operator ast.Token, operand interface{}) float64 {
	if n, ok := operand.(float64); ok {
		return n
	}
	in.fail(UnexpectedType, operator, "Operand must be a number.")
	return 0
}

func (in *Interpreter) checkNumberOperands(operator ast.Token, left, right interface{}) (float64, float64) {
	l, lok := left.(float64)
	r, rok := right.(float64)
	if lok && rok {
		return l, r
	}
	in.fail(UnexpectedType, operator, "Operands must be numbers.")
	return 0, 0
}

// stringify renders a value the way `print` does. Numbers use
// strconv.FormatFloat with 'f' formatting and a -1 (shortest
// round-trippable) precision, so integral floats print without a
// trailing ".0" and non-integral floats keep exactly enough precision.
func stringify(value interface{}) string {
	if value == nil {
		return "nil"
	}
	if n, ok := value.(float64); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return fmt.Sprint(value)
}
