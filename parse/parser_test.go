package parse

import (
	"testing"

	"github.com/lumenlang/lumen/ast"
	"github.com/lumenlang/lumen/scan"
)

func parseSource(t *testing.T, source string) ([]ast.Stmt, []error) {
	t.Helper()
	tokens, errs := scan.Scan(source)
	if len(errs) != 0 {
		t.Fatalf("scan errors: %v", errs)
	}
	return Parse(tokens)
}

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"arithmetic precedence", "1 + 2 * 3;", "(+ 1 (* 2 3))"},
		{"unary and grouping", "-(1 + 2);", "(- (group (+ 1 2)))"},
		{"comparison chain", "1 < 2 == true;", "(== (< 1 2) true)"},
		{"logical or", "1 or 2 and 3;", "(or 1 (and 2 3))"},
		{"assignment", "a = 1;", "(= a 1)"},
		{"call", "f(1, 2);", "(call f 1 2)"},
		{"get and set", "a.b = 1;", "(set b a 1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts, errs := parseSource(t, tt.source)
			if len(errs) != 0 {
				t.Fatalf("parse errors: %v", errs)
			}
			if len(stmts) != 1 {
				t.Fatalf("got %d statements, want 1", len(stmts))
			}
			exprStmt, ok := stmts[0].(*ast.ExpressionStmt)
			if !ok {
				t.Fatalf("got %T, want *ast.ExpressionStmt", stmts[0])
			}
			got := (ast.Printer{}).Print(exprStmt.Expr)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseForDesugarsToWhile(t *testing.T) {
	stmts, errs := parseSource(t, "for (var i = 0; i < 10; i = i + 1) print i;")
	if len(errs) != 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	if len(stmts) != 1 {
		t.Fatalf("got %d statements, want 1", len(stmts))
	}

	block, ok := stmts[0].(*ast.BlockStmt)
	if !ok || len(block.Statements) != 2 {
		t.Fatalf("got %#v, want a two-statement block wrapping the initializer and while loop", stmts[0])
	}
	if _, ok := block.Statements[0].(*ast.VarStmt); !ok {
		t.Errorf("first statement is %T, want *ast.VarStmt", block.Statements[0])
	}
	whileStmt, ok := block.Statements[1].(*ast.WhileStmt)
	if !ok {
		t.Fatalf("second statement is %T, want *ast.WhileStmt", block.Statements[1])
	}
	body, ok := whileStmt.Body.(*ast.BlockStmt)
	if !ok || len(body.Statements) != 2 {
		t.Fatalf("while body is %#v, want a two-statement block wrapping the loop body and increment", whileStmt.Body)
	}
}

func TestParseRecoversAfterError(t *testing.T) {
	stmts, errs := parseSource(t, "var a = ; print 1;")
	if len(errs) == 0 {
		t.Fatal("expected a parse error")
	}
	if len(stmts) != 1 {
		t.Fatalf("got %d statements, want the print statement after the bad declaration to still parse", len(stmts))
	}
	if _, ok := stmts[0].(*ast.PrintStmt); !ok {
		t.Errorf("got %T, want *ast.PrintStmt", stmts[0])
	}
}

func TestParseBreakOutsideLoopIsAnError(t *testing.T) {
	_, errs := parseSource(t, "break;")
	if len(errs) == 0 {
		t.Fatal("expected an error for break outside a loop")
	}
}

func TestParseInvalidAssignmentTarget(t *testing.T) {
	_, errs := parseSource(t, "1 + 2 = 3;")
	if len(errs) == 0 {
		t.Fatal("expected an invalid assignment target error")
	}
}
