package interpret_test

import (
	"bytes"
	"testing"

	"github.com/lumenlang/lumen/interpret"
	"github.com/lumenlang/lumen/parse"
	"github.com/lumenlang/lumen/resolve"
	"github.com/lumenlang/lumen/scan"
)

func run(t *testing.T, source string) (stdOut string, hadRuntimeError bool) {
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

	if resolve.New(in, &out).Resolve(statements) {
		t.Fatalf("resolve errors: %s", out.String())
	}

	_, hadRuntimeError = in.Interpret(statements)
	return out.String(), hadRuntimeError
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		name   string
		source string
		stdOut string
	}{
		{"string", `print "hello world";`, "hello world\n"},
		{"integral number has no trailing zero", "print 4.0;", "4\n"},
		{"non-integral number keeps precision", "print 1 / 4;", "0.25\n"},
		{"string as boolean", `print "" and 34;`, "34\n"},
		{"nil as boolean", "print nil and 34;", "nil\n"},

		{"arithmetic operations", "print -1 + 2 * 3 - 4 / 5;", "4.2\n"},
		{"logical operations", "print (!true or false) and false;", "false\n"},
		{"string concatenation", `print "hello" + " " + "world";`, "hello world\n"},
		{"equality across types is never coerced", `print 1 == "1";`, "false\n"},

		{"variable declaration", "var a = 10; print a*2;", "20\n"},
		{"variable assignment after declaration", "var a; a = 20; print a*2;", "40\n"},
		{"variable re-assignment", "var a = 10; print a; a = 20; print a*2;", "10\n40\n"},

		{"block scoping", `var a = "global";
{
    var a = "local";
    print a;
}
print a;`, "local\nglobal\n"},

		{"if block", `if (true) { if (false) { print "hello"; } else { print "world"; } }`, "world\n"},

		{"for loop", `var a = 0;
var temp;
for (var b = 1; a < 5; b = temp + b) {
    print a;
    temp = a;
    a = b;
}`, "0\n1\n1\n2\n3\n"},

		{"while loop with break", `var a = 1;
while (true) {
    a = a + 1;
    print a;
    if (a == 4) break;
}`, "2\n3\n4\n"},

		{"while loop with continue", `var a = 0;
while (a < 5) {
    a = a + 1;
    if (a == 3) continue;
    print a;
}`, "1\n2\n4\n5\n"},

		{"function", `fun sayHi(first, last) {
    print "Hello, " + first + " " + last;
}
sayHi("Dear", "Reader");`, "Hello, Dear Reader\n"},

		{"return statement", `fun add(a, b) {
    return a + b;
}
print add(1, 2);`, "3\n"},

		{"closure captures definition-time environment", `fun makeCounter() {
    var i = 0;
    fun count() {
        i = i + 1;
        print i;
    }
    return count;
}
var counter = makeCounter();
counter();
counter();`, "1\n2\n"},

		{"class instantiation and methods", `class Greeter {
    init(name) {
        this.name = name;
    }
    greet() {
        print "Hello, " + this.name;
    }
}
var g = Greeter("Ada");
g.greet();`, "Hello, Ada\n"},

		{"inheritance and super", `class Animal {
    speak() {
        print "...";
    }
}
class Dog < Animal {
    speak() {
        super.speak();
        print "Woof";
    }
}
Dog().speak();`, "...\nWoof\n"},

		{"native clock function is callable", `print clock() >= 0;`, "true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdOut, hadRuntimeError := run(t, tt.source)
			if hadRuntimeError {
				t.Fatalf("unexpected runtime error, stdOut so far: %s", stdOut)
			}
			if stdOut != tt.stdOut {
				t.Errorf("got stdOut %q, want %q", stdOut, tt.stdOut)
			}
		})
	}
}

func TestInterpretRuntimeErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"calling a non-callable value", "var a = 1; a();"},
		{"wrong arity", "fun f(a) { return a; } f(1, 2);"},
		{"adding a number and a string", `print 1 + "a";`},
		{"division by zero", "print 1 / 0;"},
		{"property access on a non-instance", "var a = 1; print a.b;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, hadRuntimeError := run(t, tt.source)
			if !hadRuntimeError {
				t.Fatal("expected a runtime error")
			}
		})
	}
}
