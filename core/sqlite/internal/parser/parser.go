// Package parser turns the supported subset of SELECT into a Statement.
//
// Two shapes are accepted:
//
//	SELECT COUNT(*) FROM t
//	SELECT c1, c2, ... FROM t      (or SELECT * FROM t)
//
// Anything else fails with a ParseError wrapping ErrUnsupportedStatement.
package parser

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/sqlitecat/core/errors"
)

// Kind identifies the plan a statement runs.
type Kind int

const (
	// Count counts the rows of a table.
	Count Kind = iota + 1
	// Project reads named columns from every row of a table.
	Project
)

func (k Kind) String() string {
	switch k {
	case Count:
		return "count"
	case Project:
		return "project"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Statement is a parsed query.
type Statement struct {
	Kind  Kind
	Table string

	// Columns lists the projected column names, unquoted. Empty when Star
	// is set or Kind is Count.
	Columns []string
	Star    bool
}

// String renders the statement as SQL.
func (s *Statement) String() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	switch {
	case s.Kind == Count:
		b.WriteString("COUNT(*)")
	case s.Star:
		b.WriteString("*")
	default:
		for i, c := range s.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(Quote(c))
		}
	}
	b.WriteString(" FROM ")
	b.WriteString(Quote(s.Table))
	return b.String()
}

// selectGrammar is the participle grammar for supported queries.
//
//nolint:govet // participle grammar tags are not standard struct tags
type selectGrammar struct {
	Count   bool     `"SELECT" ( @"COUNT" "(" "*" ")"`
	Star    bool     `         | @"*"`
	Columns []string `         | @(Ident | QuotedIdent) ( "," @(Ident | QuotedIdent) )* )`
	Table   []string `"FROM" @(Ident | QuotedIdent) ( "." @(Ident | QuotedIdent) )* ";"?`
}

// selectLexer defines the tokens of the supported SELECT subset.
var selectLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `(?i)\b(?:SELECT|FROM|COUNT)\b`},
	{Name: "QuotedIdent", Pattern: `"(?:[^"]|"")*"|` + "`(?:[^`]|``)*`" + `|\[[^\]]*\]`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_$]*`},
	{Name: "Number", Pattern: `[0-9]+(?:\.[0-9]*)?`},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "Punct", Pattern: `[-+*/%(),.;=<>!|]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// selectParser is the participle parser for supported queries.
var selectParser = participle.MustBuild[selectGrammar](
	participle.Lexer(selectLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Keyword"),
)

// Parse parses one query. The table name is the last part of a qualified
// name; quoting is removed from table and column names.
func Parse(sql string) (*Statement, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, errors.NewParse("SELECT", sql, "empty statement", errors.ErrUnsupportedStatement)
	}

	parsed, err := selectParser.ParseString("", sql)
	if err != nil {
		return nil, errors.NewParse("SELECT", sql, err.Error(), errors.ErrUnsupportedStatement)
	}

	stmt := &Statement{
		Kind:  Project,
		Table: Unquote(parsed.Table[len(parsed.Table)-1]),
		Star:  parsed.Star,
	}
	if parsed.Count {
		stmt.Kind = Count
	}
	for _, c := range parsed.Columns {
		stmt.Columns = append(stmt.Columns, Unquote(c))
	}
	return stmt, nil
}

// Unquote strips SQL identifier or string quoting: "x", `x`, [x] and 'x'.
// Doubled quote characters inside the quotes are collapsed.
func Unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	switch first, last := s[0], s[len(s)-1]; {
	case first == '"' && last == '"':
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	case first == '`' && last == '`':
		return strings.ReplaceAll(s[1:len(s)-1], "``", "`")
	case first == '\'' && last == '\'':
		return strings.ReplaceAll(s[1:len(s)-1], `''`, `'`)
	case first == '[' && last == ']':
		return s[1 : len(s)-1]
	default:
		return s
	}
}

// Quote returns name as written in SQL: bare when it is a plain identifier
// that is not a keyword, double-quoted otherwise.
func Quote(name string) string {
	if isPlainIdent(name) {
		switch strings.ToUpper(name) {
		case "SELECT", "FROM", "COUNT":
		default:
			return name
		}
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func isPlainIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (unicode.IsNumber(r) || r == '$'):
		default:
			return false
		}
	}
	return true
}
