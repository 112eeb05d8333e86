// Package optic implements the Optic ranking/filter DSL (spec.md §3, §6):
// textual rules of the form
//
//	Rule Name { Matches { Site("example.com") } Action(Boost(2)) }
//
// grounded on the teacher's filter-expression lexer/parser/AST/evaluator
// pipeline (ai/vectorstore/filter), generalized from a SQL-like boolean
// filter DSL to the Optic rule grammar.
package optic

import "fmt"

// Kind enumerates the Optic DSL's lexical token categories.
type Kind int

const (
	kindBegin Kind = iota
	ERROR
	EOF
	IDENT
	STRING
	NUMBER
	RULE
	MATCHES
	ACTION
	BOOST
	DOWNRANK
	DISCARD
	RANKING
	LBRACE
	RBRACE
	LPAREN
	RPAREN
	COMMA
	kindEnd
)

var kindNames = [...]string{
	ERROR: "ERROR", EOF: "EOF", IDENT: "IDENT", STRING: "STRING", NUMBER: "NUMBER",
	RULE: "RULE", MATCHES: "MATCHES", ACTION: "ACTION", BOOST: "BOOST",
	DOWNRANK: "DOWNRANK", DISCARD: "DISCARD", RANKING: "RANKING",
	LBRACE: "LBRACE", RBRACE: "RBRACE", LPAREN: "LPAREN", RPAREN: "RPAREN", COMMA: "COMMA",
}

var keywords = map[string]Kind{
	"rule": RULE, "Rule": RULE,
	"matches": MATCHES, "Matches": MATCHES,
	"action": ACTION, "Action": ACTION,
	"boost": BOOST, "Boost": BOOST,
	"downrank": DOWNRANK, "Downrank": DOWNRANK,
	"discard": DISCARD, "Discard": DISCARD,
	"ranking": RANKING, "Ranking": RANKING,
}

func (k Kind) String() string {
	if k <= kindBegin || k >= kindEnd {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsKeyword reports whether ident names a reserved Optic keyword.
func IsKeyword(ident string) bool {
	_, ok := keywords[ident]
	return ok
}

func kindOf(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return IDENT
}

// Position is a 1-based line/column location in the source text.
type Position struct {
	Line, Column int
}

// Token is one lexical unit produced by the Lexer.
type Token struct {
	Kind     Kind
	Literal  string
	Position Position
	Err      error
}
