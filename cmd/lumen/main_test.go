package main

import (
	"bytes"
	"testing"
)

// TestRunEndToEndScenarios drives the scan -> parse -> resolve -> interpret
// pipeline the same way runFile does, one process-lifetime runner per case,
// covering spec.md §8's eight end-to-end scenarios plus the exit-code
// decision runFile makes from hadError/hadRuntimeError.
func TestRunEndToEndScenarios(t *testing.T) {
	tests := []struct {
		name            string
		source          string
		stdOut          string
		hadError        bool
		hadRuntimeError bool
	}{
		{"arithmetic precedence", "print 1 + 2 * 3;", "7\n", false, false},
		{"string concatenation", `var a = "hi"; var b = " there"; print a + b;`, "hi there\n", false, false},
		{"block shadowing restores outer binding", "var x = 1; { var x = 2; print x; } print x;", "2\n1\n", false, false},
		{"while loop", "var i = 0; while (i < 3) { print i; i = i + 1; }", "0\n1\n2\n", false, false},
		{"for loop", "for (var i = 0; i < 2; i = i + 1) print i;", "0\n1\n", false, false},
		{"division by zero halts before printing", "print 1/0;", "", false, true},
		{"adding a number and a string halts before printing", `print "a" + 1;`, "", false, true},
		{"short-circuit returns the operand, not a coerced bool", `print nil or "x"; print true and 0;`, "x\n0\n", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			r := newRunner(&out, &errOut)

			hadError, hadRuntimeError := r.run(tt.source)
			if hadError != tt.hadError {
				t.Errorf("hadError = %v, want %v (stderr: %q)", hadError, tt.hadError, errOut.String())
			}
			if hadRuntimeError != tt.hadRuntimeError {
				t.Errorf("hadRuntimeError = %v, want %v (stderr: %q)", hadRuntimeError, tt.hadRuntimeError, errOut.String())
			}

			if tt.hadRuntimeError {
				if errOut.Len() == 0 {
					t.Errorf("expected a runtime error report on stdErr, got empty output")
				}
			}
			if out.String() != tt.stdOut {
				t.Errorf("stdout = %q, want %q", out.String(), tt.stdOut)
			}
		})
	}
}

// TestRunFileExitCodes exercises the exit-code contract runFile documents:
// 65 on a static (scan/parse/resolve) error, 70 on a runtime error, without
// actually calling os.Exit.
func TestRunFileExitCodes(t *testing.T) {
	tests := []struct {
		name            string
		source          string
		hadError        bool
		hadRuntimeError bool
	}{
		{"unterminated string is a static error", `print "unterminated;`, true, false},
		{"undefined variable reference is a runtime error", "print undefined_name;", false, true},
		{"well-formed program is neither", "print 1;", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			r := newRunner(&out, &out)

			hadError, hadRuntimeError := r.run(tt.source)
			if hadError != tt.hadError {
				t.Errorf("hadError = %v, want %v", hadError, tt.hadError)
			}
			if hadRuntimeError != tt.hadRuntimeError {
				t.Errorf("hadRuntimeError = %v, want %v", hadRuntimeError, tt.hadRuntimeError)
			}
		})
	}
}
