// Command lumen runs Lumen source files, or a REPL when given none.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/lumenlang/lumen/interpret"
	"github.com/lumenlang/lumen/parse"
	"github.com/lumenlang/lumen/resolve"
	"github.com/lumenlang/lumen/scan"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "path to a Lumen source file; omit to start a REPL")
	flag.Parse()

	if filePath == "" {
		runPrompt()
		return
	}
	runFile(filePath)
}

func runFile(path string) {
	source, err := ioutil.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	r := newRunner(os.Stdout, os.Stderr)
	hadError, hadRuntimeError := r.run(string(source))
	if hadError {
		os.Exit(65)
	}
	if hadRuntimeError {
		os.Exit(70)
	}
}

func runPrompt() {
	r := newRunner(os.Stdout, os.Stderr)
	input := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !input.Scan() {
			return
		}
		r.run(input.Text())
	}
}

// runner wires the scan -> parse -> resolve -> interpret pipeline
// together, reusing one Interpreter across REPL lines so top-level
// variable and function declarations persist between them.
type runner struct {
	interpreter *interpret.Interpreter
	stdErr      io.Writer
}

func newRunner(stdOut, stdErr io.Writer) *runner {
	return &runner{interpreter: interpret.New(stdOut, stdErr), stdErr: stdErr}
}

func (r *runner) run(source string) (hadError, hadRuntimeError bool) {
	tokens, scanErrs := scan.Scan(source)
	if len(scanErrs) > 0 {
		r.report(scanErrs)
		return true, false
	}

	statements, parseErrs := parse.Parse(tokens)
	if len(parseErrs) > 0 {
		r.report(parseErrs)
		return true, false
	}

	resolver := resolve.New(r.interpreter, r.stdErr)
	if resolver.Resolve(statements) {
		return true, false
	}

	_, hadRuntimeError = r.interpreter.Interpret(statements)
	return false, hadRuntimeError
}

func (r *runner) report(errs []error) {
	for _, err := range errs {
		fmt.Fprintln(r.stdErr, err)
	}
}
