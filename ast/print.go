package ast

import "fmt"

// Printer renders an Expr tree as a parenthesized Lisp-like string.
// Useful for debugging the parser independently of the interpreter.
type Printer struct{}

// Print returns a string representation of expr.
func (p Printer) Print(expr Expr) string {
	return expr.Accept(p).(string)
}

func (p Printer) VisitAssignExpr(expr *AssignExpr) interface{} {
	return p.parenthesize("= "+expr.Name.Lexeme, expr.Value)
}

func (p Printer) VisitBinaryExpr(expr *BinaryExpr) interface{} {
	return p.parenthesize(expr.Operator.Lexeme, expr.Left, expr.Right)
}

func (p Printer) VisitCallExpr(expr *CallExpr) interface{} {
	return p.parenthesize("call", append([]Expr{expr.Callee}, expr.Arguments...)...)
}

func (p Printer) VisitGetExpr(expr *GetExpr) interface{} {
	return p.parenthesize("get "+expr.Name.Lexeme, expr.Object)
}

func (p Printer) VisitGroupingExpr(expr *GroupingExpr) interface{} {
	return p.parenthesize("group", expr.Expression)
}

func (p Printer) VisitLiteralExpr(expr *LiteralExpr) interface{} {
	if expr.Value == nil {
		return "nil"
	}
	return fmt.Sprint(expr.Value)
}

func (p Printer) VisitLogicalExpr(expr *LogicalExpr) interface{} {
	return p.parenthesize(expr.Operator.Lexeme, expr.Left, expr.Right)
}

func (p Printer) VisitSetExpr(expr *SetExpr) interface{} {
	return p.parenthesize("set "+expr.Name.Lexeme, expr.Object, expr.Value)
}

func (p Printer) VisitSuperExpr(expr *SuperExpr) interface{} {
	return "(super." + expr.Method.Lexeme + ")"
}

func (p Printer) VisitThisExpr(expr *ThisExpr) interface{} {
	return expr.Keyword.Lexeme
}

func (p Printer) VisitUnaryExpr(expr *UnaryExpr) interface{} {
	return p.parenthesize(expr.Operator.Lexeme, expr.Right)
}

func (p Printer) VisitVariableExpr(expr *VariableExpr) interface{} {
	return expr.Name.Lexeme
}

func (p Printer) parenthesize(name string, exprs ...Expr) string {
	str := "(" + name
	for _, expr := range exprs {
		str += " " + p.Print(expr)
	}
	return str + ")"
}
