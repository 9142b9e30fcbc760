// Package parse implements the recursive-descent parser described in
// SPEC_FULL.md §4.1: source tokens in, a statement-sequence AST out,
// with panic-mode error recovery so a single malformed statement does
// not prevent the rest of the program from being checked.
package parse

import (
	"fmt"
	"strconv"

	"github.com/lumenlang/lumen/ast"
)

// ErrorKind classifies a parse failure, matching the taxonomy in
// SPEC_FULL.md §7.
type ErrorKind int

const (
	UnexpectedToken ErrorKind = iota
	ExpectedToken
	InvalidAssignmentTarget
	TooManyParameters
	TooManyArguments
	InvalidNumber
	EndOfFile
)

// Error is a single parse-time diagnostic. It always carries the
// offending token, so a driver can render a line number.
type Error struct {
	Kind    ErrorKind
	Token   ast.Token
	Message string
}

func (e Error) Error() string {
	where := " at '" + e.Token.Lexeme + "'"
	if e.Token.Kind == ast.Eof {
		where = " at end"
	}
	return fmt.Sprintf("[line %d] Parse Error%s: %s", e.Token.Line, where, e.Message)
}

// signal is the internal panic value used to unwind out of a broken
// declaration into the recovery loop. It carries no data: the Error that
// caused it has always been appended to Parser.errors already, so recover
// sites never need to re-record it.
type signal struct{}

const maxArgs = 255

// Parser consumes a flat token list and produces a statement list. See
// SPEC_FULL.md §4.1 for the grammar.
type Parser struct {
	tokens    []ast.Token
	current   int
	loopDepth int
	errors    []error
}

// New returns a Parser over tokens, which must end with an ast.Eof token.
func New(tokens []ast.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse is a convenience wrapper around New(tokens).Parse.
func Parse(tokens []ast.Token) ([]ast.Stmt, []error) {
	return New(tokens).Parse()
}

// Parse consumes every token up to Eof and returns the resulting
// statement list. If any error was reported, the returned statement
// list is not meaningful (per spec.md §4.1's contract) and should be
// discarded by the caller.
func (p *Parser) Parse() ([]ast.Stmt, []error) {
	var statements []ast.Stmt
	for !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			statements = append(statements, stmt)
		}
	}
	return statements, p.errors
}

// declaration parses a single top-level or block-level declaration,
// recovering to the next statement boundary on a parse error.
func (p *Parser) declaration() (stmt ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(signal); ok {
				p.synchronize()
				stmt = nil
				return
			}
			panic(r)
		}
	}()

	switch {
	case p.match(ast.Class):
		return p.classDeclaration()
	case p.match(ast.Fun):
		return p.function("function")
	case p.match(ast.Var):
		return p.varDeclaration()
	default:
		return p.statement()
	}
}

func (p *Parser) classDeclaration() ast.Stmt {
	name := p.consume(ast.Identifier, "Expect class name.")

	var superclass *ast.VariableExpr
	if p.match(ast.Less) {
		p.consume(ast.Identifier, "Expect superclass name.")
		superclass = &ast.VariableExpr{Name: p.previous()}
	}

	p.consume(ast.LeftBrace, "Expect '{' before class body.")

	var methods []*ast.FunctionStmt
	for !p.check(ast.RightBrace) && !p.isAtEnd() {
		methods = append(methods, p.function("method"))
	}

	p.consume(ast.RightBrace, "Expect '}' after class body.")
	return &ast.ClassStmt{Name: name, Superclass: superclass, Methods: methods}
}

func (p *Parser) function(kind string) *ast.FunctionStmt {
	name := p.consume(ast.Identifier, "Expect "+kind+" name.")
	p.consume(ast.LeftParen, "Expect '(' after "+kind+" name.")

	var params []ast.Token
	if !p.check(ast.RightParen) {
		for {
			if len(params) >= maxArgs {
				p.reportError(TooManyParameters, p.peek(), "Can't have more than 255 parameters.")
			}
			params = append(params, p.consume(ast.Identifier, "Expect parameter name."))
			if !p.match(ast.Comma) {
				break
			}
		}
	}
	p.consume(ast.RightParen, "Expect ')' after parameters.")

	p.consume(ast.LeftBrace, "Expect '{' before "+kind+" body.")
	body := p.block()
	return &ast.FunctionStmt{Name: name, Params: params, Body: body}
}

func (p *Parser) varDeclaration() ast.Stmt {
	name := p.consume(ast.Identifier, "Expect variable name.")
	var initializer ast.Expr
	if p.match(ast.Equal) {
		initializer = p.expression()
	}
	p.consume(ast.Semicolon, "Expect ';' after variable declaration.")
	return &ast.VarStmt{Name: name, Initializer: initializer}
}

func (p *Parser) statement() ast.Stmt {
	switch {
	case p.match(ast.Print):
		return p.printStatement()
	case p.match(ast.LeftBrace):
		return &ast.BlockStmt{Statements: p.block()}
	case p.match(ast.If):
		return p.ifStatement()
	case p.match(ast.While):
		return p.whileStatement()
	case p.match(ast.For):
		return p.forStatement()
	case p.match(ast.Return):
		return p.returnStatement()
	case p.match(ast.Break):
		return p.breakStatement()
	case p.match(ast.Continue):
		return p.continueStatement()
	default:
		return p.expressionStatement()
	}
}

// forStatement desugars into Block{ init?, While(cond-or-true,
// Block{ body, increment? }) } exactly as SPEC_FULL.md §4.1 describes;
// no distinct For AST node is ever produced.
func (p *Parser) forStatement() ast.Stmt {
	p.consume(ast.LeftParen, "Expect '(' after 'for'.")

	var initializer ast.Stmt
	switch {
	case p.match(ast.Semicolon):
		// no initializer
	case p.match(ast.Var):
		initializer = p.varDeclaration()
	default:
		initializer = p.expressionStatement()
	}

	var condition ast.Expr
	if !p.check(ast.Semicolon) {
		condition = p.expression()
	}
	p.consume(ast.Semicolon, "Expect ';' after loop condition.")

	var increment ast.Expr
	if !p.check(ast.RightParen) {
		increment = p.expression()
	}
	p.consume(ast.RightParen, "Expect ')' after for clauses.")

	p.loopDepth++
	body := p.statement()
	p.loopDepth--

	if increment != nil {
		body = &ast.BlockStmt{Statements: []ast.Stmt{body, &ast.ExpressionStmt{Expr: increment}}}
	}
	if condition == nil {
		condition = &ast.LiteralExpr{Value: true}
	}
	body = &ast.WhileStmt{Condition: condition, Body: body}

	if initializer != nil {
		body = &ast.BlockStmt{Statements: []ast.Stmt{initializer, body}}
	}
	return body
}

func (p *Parser) ifStatement() ast.Stmt {
	p.consume(ast.LeftParen, "Expect '(' after 'if'.")
	condition := p.expression()
	p.consume(ast.RightParen, "Expect ')' after if condition.")

	thenBranch := p.statement()
	var elseBranch ast.Stmt
	if p.match(ast.Else) {
		elseBranch = p.statement()
	}
	return &ast.IfStmt{Condition: condition, ThenBranch: thenBranch, ElseBranch: elseBranch}
}

func (p *Parser) printStatement() ast.Stmt {
	value := p.expression()
	p.consume(ast.Semicolon, "Expect ';' after value.")
	return &ast.PrintStmt{Expr: value}
}

func (p *Parser) returnStatement() ast.Stmt {
	keyword := p.previous()
	var value ast.Expr
	if !p.check(ast.Semicolon) {
		value = p.expression()
	}
	p.consume(ast.Semicolon, "Expect ';' after return value.")
	return &ast.ReturnStmt{Keyword: keyword, Value: value}
}

func (p *Parser) whileStatement() ast.Stmt {
	p.consume(ast.LeftParen, "Expect '(' after 'while'.")
	condition := p.expression()
	p.consume(ast.RightParen, "Expect ')' after while condition.")

	p.loopDepth++
	body := p.statement()
	p.loopDepth--
	return &ast.WhileStmt{Condition: condition, Body: body}
}

func (p *Parser) breakStatement() ast.Stmt {
	keyword := p.previous()
	if p.loopDepth == 0 {
		p.reportError(UnexpectedToken, keyword, "Can't use 'break' outside of a loop.")
	}
	p.consume(ast.Semicolon, "Expect ';' after 'break'.")
	return &ast.BreakStmt{Keyword: keyword}
}

func (p *Parser) continueStatement() ast.Stmt {
	keyword := p.previous()
	if p.loopDepth == 0 {
		p.reportError(UnexpectedToken, keyword, "Can't use 'continue' outside of a loop.")
	}
	p.consume(ast.Semicolon, "Expect ';' after 'continue'.")
	return &ast.ContinueStmt{Keyword: keyword}
}

func (p *Parser) block() []ast.Stmt {
	var statements []ast.Stmt
	for !p.check(ast.RightBrace) && !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			statements = append(statements, stmt)
		}
	}
	p.consume(ast.RightBrace, "Expect '}' after block.")
	return statements
}

func (p *Parser) expressionStatement() ast.Stmt {
	expr := p.expression()
	p.consume(ast.Semicolon, "Expect ';' after expression.")
	return &ast.ExpressionStmt{Expr: expr}
}

func (p *Parser) expression() ast.Expr {
	return p.assignment()
}

// assignment parses the LHS at the logic_or level first; if '=' follows,
// it re-interprets the LHS rather than looking ahead, per SPEC_FULL.md
// §4.1's "Assignment targets" note. The RHS recurses into assignment so
// `a = b = c` groups as `a = (b = c)`.
func (p *Parser) assignment() ast.Expr {
	expr := p.or()

	if p.match(ast.Equal) {
		equals := p.previous()
		value := p.assignment()

		switch target := expr.(type) {
		case *ast.VariableExpr:
			return &ast.AssignExpr{Name: target.Name, Value: value}
		case *ast.GetExpr:
			return &ast.SetExpr{Object: target.Object, Name: target.Name, Value: value}
		default:
			p.reportError(InvalidAssignmentTarget, equals, "Invalid assignment target.")
		}
	}

	return expr
}

func (p *Parser) or() ast.Expr {
	expr := p.and()
	for p.match(ast.Or) {
		operator := p.previous()
		right := p.and()
		expr = &ast.LogicalExpr{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) and() ast.Expr {
	expr := p.equality()
	for p.match(ast.And) {
		operator := p.previous()
		right := p.equality()
		expr = &ast.LogicalExpr{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) equality() ast.Expr {
	expr := p.comparison()
	for p.match(ast.BangEqual, ast.EqualEqual) {
		operator := p.previous()
		right := p.comparison()
		expr = &ast.BinaryExpr{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) comparison() ast.Expr {
	expr := p.term()
	for p.match(ast.Greater, ast.GreaterEqual, ast.Less, ast.LessEqual) {
		operator := p.previous()
		right := p.term()
		expr = &ast.BinaryExpr{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) term() ast.Expr {
	expr := p.factor()
	for p.match(ast.Minus, ast.Plus) {
		operator := p.previous()
		right := p.factor()
		expr = &ast.BinaryExpr{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) factor() ast.Expr {
	expr := p.unary()
	for p.match(ast.Slash, ast.Star) {
		operator := p.previous()
		right := p.unary()
		expr = &ast.BinaryExpr{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) unary() ast.Expr {
	if p.match(ast.Bang, ast.Minus) {
		operator := p.previous()
		right := p.unary()
		return &ast.UnaryExpr{Operator: operator, Right: right}
	}
	return p.call()
}

func (p *Parser) call() ast.Expr {
	expr := p.primary()

	for {
		switch {
		case p.match(ast.LeftParen):
			expr = p.finishCall(expr)
		case p.match(ast.Dot):
			name := p.consume(ast.Identifier, "Expect property name after '.'.")
			expr = &ast.GetExpr{Object: expr, Name: name}
		default:
			return expr
		}
	}
}

func (p *Parser) finishCall(callee ast.Expr) ast.Expr {
	var args []ast.Expr
	if !p.check(ast.RightParen) {
		for {
			if len(args) >= maxArgs {
				p.reportError(TooManyArguments, p.peek(), "Can't have more than 255 arguments.")
			}
			args = append(args, p.expression())
			if !p.match(ast.Comma) {
				break
			}
		}
	}
	paren := p.consume(ast.RightParen, "Expect ')' after arguments.")
	return &ast.CallExpr{Callee: callee, Paren: paren, Arguments: args}
}

func (p *Parser) primary() ast.Expr {
	switch {
	case p.match(ast.False):
		return &ast.LiteralExpr{Value: false}
	case p.match(ast.True):
		return &ast.LiteralExpr{Value: true}
	case p.match(ast.Nil):
		return &ast.LiteralExpr{Value: nil}
	case p.match(ast.Number):
		return p.numberLiteral()
	case p.match(ast.String):
		return p.stringLiteral()
	case p.match(ast.This):
		return &ast.ThisExpr{Keyword: p.previous()}
	case p.match(ast.Super):
		keyword := p.previous()
		p.consume(ast.Dot, "Expect '.' after 'super'.")
		method := p.consume(ast.Identifier, "Expect superclass method name.")
		return &ast.SuperExpr{Keyword: keyword, Method: method}
	case p.match(ast.Identifier):
		return &ast.VariableExpr{Name: p.previous()}
	case p.match(ast.LeftParen):
		expr := p.expression()
		p.consume(ast.RightParen, "Expect ')' after expression.")
		return &ast.GroupingExpr{Expression: expr}
	}

	panic(p.newError(UnexpectedToken, p.peek(), "Expect expression."))
}

// numberLiteral parses a Number token's lexeme as a 64-bit float, per
// SPEC_FULL.md §4.1's "Number literal handling".
func (p *Parser) numberLiteral() ast.Expr {
	token := p.previous()
	value, err := strconv.ParseFloat(token.Lexeme, 64)
	if err != nil {
		panic(p.newError(InvalidNumber, token, "Invalid number literal '"+token.Lexeme+"'."))
	}
	return &ast.LiteralExpr{Value: value}
}

// stringLiteral strips the lexeme's surrounding quote characters, per
// SPEC_FULL.md §4.1's "String literal handling". Escape sequences are
// not processed here — that is the scanner's responsibility, and this
// scanner does not implement any.
func (p *Parser) stringLiteral() ast.Expr {
	lexeme := p.previous().Lexeme
	return &ast.LiteralExpr{Value: lexeme[1 : len(lexeme)-1]}
}

// consume advances past the next token if it has the given kind,
// otherwise panics with a recorded parse error.
func (p *Parser) consume(kind ast.TokenKind, message string) ast.Token {
	if p.check(kind) {
		return p.advance()
	}
	panic(p.newError(ExpectedToken, p.peek(), message))
}

// reportError records a non-fatal error (parsing continues without
// unwinding), used for the 255-parameter/argument caps.
func (p *Parser) reportError(kind ErrorKind, token ast.Token, message string) {
	p.errors = append(p.errors, Error{Kind: kind, Token: token, Message: message})
}

// newError records a fatal error and returns the unwind signal to panic
// with; the caller is responsible for panicking.
func (p *Parser) newError(kind ErrorKind, token ast.Token, message string) signal {
	p.reportError(kind, token, message)
	return signal{}
}

// synchronize discards tokens until the next statement boundary: past a
// ';', or up to (not past) a token that starts a new declaration or
// statement. Always advances at least one token.
func (p *Parser) synchronize() {
	p.advance()
	for !p.isAtEnd() {
		if p.previous().Kind == ast.Semicolon {
			return
		}
		switch p.peek().Kind {
		case ast.Class, ast.Fun, ast.Var, ast.For, ast.If, ast.While, ast.Print, ast.Return:
			return
		}
		p.advance()
	}
}

func (p *Parser) match(kinds ...ast.TokenKind) bool {
	for _, kind := range kinds {
		if p.check(kind) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) check(kind ast.TokenKind) bool {
	return !p.isAtEnd() && p.peek().Kind == kind
}

func (p *Parser) advance() ast.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) isAtEnd() bool { return p.peek().Kind == ast.Eof }

func (p *Parser) peek() ast.Token { return p.tokens[p.current] }

func (p *Parser) previous() ast.Token { return p.tokens[p.current-1] }
