package resolve_test

import (
	"bytes"
	"testing"

	"github.com/lumenlang/lumen/interpret"
	"github.com/lumenlang/lumen/parse"
	"github.com/lumenlang/lumen/resolve"
	"github.com/lumenlang/lumen/scan"
)

func resolveSource(t *testing.T, source string) (hadError bool, stdErr string) {
	t.Helper()

	tokens, scanErrs := scan.Scan(source)
	if len(scanErrs) != 0 {
		t.Fatalf("scan errors: %v", scanErrs)
	}
	statements, parseErrs := parse.Parse(tokens)
	if len(parseErrs) != 0 {
		t.Fatalf("parse errors: %v", parseErrs)
	}

	var out bytes.Buffer
	in := interpret.New(&out, &out)
	hadError = resolve.New(in, &out).Resolve(statements)
	return hadError, out.String()
}

func TestResolverReportsErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"self-reference in initializer", "var a = a;"},
		{"redeclaration in same scope", "{ var a = 1; var a = 2; }"},
		{"return from top level", "return 1;"},
		{"return value from initializer", "class C { init() { return 1; } }"},
		{"this outside class", "print this;"},
		{"super outside class", "print super.foo;"},
		{"class inherits from itself", "class C < C {}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hadError, stdErr := resolveSource(t, tt.source)
			if !hadError {
				t.Fatalf("expected a resolve error, got none (stderr: %q)", stdErr)
			}
		})
	}
}

func TestResolverAllowsShadowingInNestedScope(t *testing.T) {
	hadError, stdErr := resolveSource(t, `var a = 1;
{
    var a = a + 1;
    print a;
}`)
	if hadError {
		t.Fatalf("did not expect a resolve error, got: %s", stdErr)
	}
}

func TestResolverAllowsSuperInSubclass(t *testing.T) {
	hadError, stdErr := resolveSource(t, `class A { speak() { print "a"; } }
class B < A { speak() { super.speak(); } }`)
	if hadError {
		t.Fatalf("did not expect a resolve error, got: %s", stdErr)
	}
}
