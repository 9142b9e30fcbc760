// Package ast defines the token and tree representation shared by the
// scanner, parser, resolver and interpreter.
package ast

import "fmt"

// TokenKind identifies the lexical category of a Token.
type TokenKind uint8

const (
	// single-character tokens
	LeftParen TokenKind = iota
	RightParen
	LeftBrace
	RightBrace
	Comma
	Dot
	Minus
	Plus
	Semicolon
	Slash
	Star

	// one or two character tokens
	Bang
	BangEqual
	Equal
	EqualEqual
	Greater
	GreaterEqual
	Less
	LessEqual

	// literals
	Identifier
	String
	Number

	// keywords
	And
	Class
	Else
	False
	Fun
	For
	If
	Nil
	Or
	Print
	Return
	Super
	This
	True
	Var
	While

	// supplemented keywords, see SPEC_FULL.md §3.4 (Break/Continue)
	Break
	Continue

	Eof
)

var tokenKindNames = map[TokenKind]string{
	LeftParen: "(", RightParen: ")", LeftBrace: "{", RightBrace: "}",
	Comma: ",", Dot: ".", Minus: "-", Plus: "+", Semicolon: ";",
	Slash: "/", Star: "*",
	Bang: "!", BangEqual: "!=", Equal: "=", EqualEqual: "==",
	Greater: ">", GreaterEqual: ">=", Less: "<", LessEqual: "<=",
	Identifier: "IDENTIFIER", String: "STRING", Number: "NUMBER",
	And: "and", Class: "class", Else: "else", False: "false", Fun: "fun",
	For: "for", If: "if", Nil: "nil", Or: "or", Print: "print",
	Return: "return", Super: "super", This: "this", True: "true",
	Var: "var", While: "while", Break: "break", Continue: "continue",
	Eof: "EOF",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TokenKind(%d)", uint8(k))
}

// Token is the contract between the scanner and the parser: {kind,
// lexeme, line}. Number and string values are not attached here — the
// parser derives them from Lexeme (see (*parse.Parser).primary), matching
// the original draft's parser rather than pre-parsing at scan time.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Line   int
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q line=%d", t.Kind, t.Lexeme, t.Line)
}

// Keywords maps reserved identifiers to their TokenKind, shared by the
// scanner and any tooling that needs to recognize reserved words.
var Keywords = map[string]TokenKind{
	"and": And, "class": Class, "else": Else, "false": False,
	"for": For, "fun": Fun, "if": If, "nil": Nil, "or": Or,
	"print": Print, "return": Return, "super": Super, "this": This,
	"true": True, "var": Var, "while": While,
	"break": Break, "continue": Continue,
}
