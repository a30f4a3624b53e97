package schema

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/sqlitecat/core/errors"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/parser"
)

// ddlLexer tokenizes CREATE TABLE statements as stored in sqlite_schema.
var ddlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `--[^\n]*|/\*[\s\S]*?\*/`},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "QuotedIdent", Pattern: `"(?:[^"]|"")*"|` + "`(?:[^`]|``)*`" + `|\[[^\]]*\]`},
	{Name: "Number", Pattern: `(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_$]*`},
	{Name: "Punct", Pattern: `[(),;.]|[^\s\w]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var (
	tokWhitespace  = ddlLexer.Symbols()["Whitespace"]
	tokComment     = ddlLexer.Symbols()["Comment"]
	tokIdent       = ddlLexer.Symbols()["Ident"]
	tokQuotedIdent = ddlLexer.Symbols()["QuotedIdent"]
	tokString      = ddlLexer.Symbols()["String"]
	tokEOF         = lexer.EOF
)

// Keywords that end a column's type name and start its constraints.
var columnConstraintKeywords = map[string]bool{
	"CONSTRAINT": true, "PRIMARY": true, "NOT": true, "NULL": true,
	"UNIQUE": true, "CHECK": true, "DEFAULT": true, "COLLATE": true,
	"REFERENCES": true, "GENERATED": true, "AS": true,
}

// Keywords that start a table constraint instead of a column.
var tableConstraintKeywords = map[string]bool{
	"CONSTRAINT": true, "PRIMARY": true, "UNIQUE": true, "CHECK": true, "FOREIGN": true,
}

// tokenizeSQL lexes sql, dropping whitespace and comments.
func tokenizeSQL(sql string) ([]lexer.Token, error) {
	lex, err := ddlLexer.LexString("", sql)
	if err != nil {
		return nil, err
	}
	all, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, err
	}
	tokens := make([]lexer.Token, 0, len(all))
	for _, t := range all {
		if t.Type == tokWhitespace || t.Type == tokComment || t.Type == tokEOF {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens, nil
}

// ddlParser walks the token stream of one CREATE TABLE statement.
type ddlParser struct {
	sql    string
	tokens []lexer.Token
	pos    int
}

func (p *ddlParser) peek() lexer.Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return lexer.Token{Type: tokEOF}
}

func (p *ddlParser) next() lexer.Token {
	t := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

// keyword reports whether t is the unquoted keyword kw.
func keyword(t lexer.Token, kw string) bool {
	return t.Type == tokIdent && strings.EqualFold(t.Value, kw)
}

func (p *ddlParser) accept(kw string) bool {
	if keyword(p.peek(), kw) {
		p.pos++
		return true
	}
	return false
}

func (p *ddlParser) expect(kw string) error {
	if !p.accept(kw) {
		return p.errorf("expected %s, got %q", kw, p.peek().Value)
	}
	return nil
}

func (p *ddlParser) errorf(format string, args ...interface{}) error {
	return errors.NewParse("CREATE TABLE", p.sql, fmt.Sprintf(format, args...), nil)
}

// name reads an identifier, unquoting it.
func (p *ddlParser) name() (string, error) {
	t := p.next()
	switch t.Type {
	case tokIdent:
		return t.Value, nil
	case tokQuotedIdent, tokString:
		return parser.Unquote(t.Value), nil
	default:
		return "", p.errorf("expected a name, got %q", t.Value)
	}
}

// ParseCreateTable parses the CREATE TABLE statement stored for a table in
// sqlite_schema. Column constraints other than PRIMARY KEY, AUTOINCREMENT and
// NOT NULL are skipped.
func ParseCreateTable(sql string) (*Table, error) {
	tokens, err := tokenizeSQL(sql)
	if err != nil {
		return nil, errors.NewParse("CREATE TABLE", sql, err.Error(), nil)
	}
	p := &ddlParser{sql: sql, tokens: tokens}

	t := &Table{}
	if err := p.expect("CREATE"); err != nil {
		return nil, err
	}
	if p.accept("TEMP") || p.accept("TEMPORARY") {
		t.Temp = true
	}
	if err := p.expect("TABLE"); err != nil {
		return nil, err
	}
	if p.accept("IF") {
		if err := p.expect("NOT"); err != nil {
			return nil, err
		}
		if err := p.expect("EXISTS"); err != nil {
			return nil, err
		}
	}

	if t.Name, err = p.name(); err != nil {
		return nil, err
	}
	if p.peek().Value == "." {
		p.next()
		if t.Name, err = p.name(); err != nil {
			return nil, err
		}
	}

	if p.peek().Value != "(" {
		return nil, p.errorf("expected column list, got %q", p.peek().Value)
	}
	p.next()

	defs, err := p.definitions()
	if err != nil {
		return nil, err
	}
	for _, def := range defs {
		if len(def) > 0 && def[0].Type == tokIdent && tableConstraintKeywords[strings.ToUpper(def[0].Value)] {
			if err := t.applyTableConstraint(def); err != nil {
				return nil, p.errorf("%v", err)
			}
			continue
		}
		col, err := p.column(def)
		if err != nil {
			return nil, err
		}
		col.Position = len(t.Columns)
		t.Columns = append(t.Columns, col)
		if col.PrimaryKey {
			t.PrimaryKey = append(t.PrimaryKey, col.Name)
		}
	}
	if len(t.Columns) == 0 {
		return nil, p.errorf("table has no columns")
	}

	// table options
	for p.pos < len(p.tokens) {
		switch {
		case p.accept("WITHOUT"):
			if err := p.expect("ROWID"); err != nil {
				return nil, err
			}
			t.WithoutRowID = true
		case p.accept("STRICT"):
			t.Strict = true
		case p.peek().Value == "," || p.peek().Value == ";":
			p.next()
		default:
			return nil, p.errorf("unexpected %q after column list", p.peek().Value)
		}
	}

	return t, nil
}

// definitions splits the column list into definitions at top-level commas
// and consumes the closing parenthesis.
func (p *ddlParser) definitions() ([][]lexer.Token, error) {
	var defs [][]lexer.Token
	var cur []lexer.Token
	depth := 0
	for {
		t := p.next()
		switch {
		case t.Type == tokEOF:
			return nil, p.errorf("unterminated column list")
		case t.Value == "(" && t.Type != tokString && t.Type != tokQuotedIdent:
			depth++
		case t.Value == ")" && t.Type != tokString && t.Type != tokQuotedIdent:
			if depth == 0 {
				return append(defs, cur), nil
			}
			depth--
		case t.Value == "," && depth == 0 && t.Type != tokString && t.Type != tokQuotedIdent:
			defs = append(defs, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
}

// column parses one column definition: name, optional type, constraints.
func (p *ddlParser) column(def []lexer.Token) (*Column, error) {
	if len(def) == 0 {
		return nil, p.errorf("empty column definition")
	}
	sub := &ddlParser{sql: p.sql, tokens: def}
	name, err := sub.name()
	if err != nil {
		return nil, err
	}
	col := &Column{Name: name}

	// type name: identifiers up to the first constraint keyword, plus an
	// optional parenthesized size
	var typ []string
	for sub.pos < len(def) {
		t := sub.peek()
		if t.Type == tokIdent && !columnConstraintKeywords[strings.ToUpper(t.Value)] {
			typ = append(typ, t.Value)
			sub.next()
			continue
		}
		if t.Value == "(" && len(typ) > 0 {
			var group strings.Builder
			for sub.pos < len(def) {
				tok := sub.next()
				group.WriteString(tok.Value)
				if tok.Value == ")" {
					break
				}
			}
			typ[len(typ)-1] += group.String()
		}
		break
	}
	col.Type = strings.Join(typ, " ")
	col.Affinity = DetermineAffinity(col.Type)

	for sub.pos < len(def) {
		switch {
		case sub.accept("PRIMARY"):
			if err := sub.expect("KEY"); err != nil {
				return nil, err
			}
			col.PrimaryKey = true
		case sub.accept("AUTOINCREMENT"):
			col.Autoincrement = true
		case sub.accept("NOT"):
			if sub.accept("NULL") {
				col.NotNull = true
			}
		default:
			sub.next()
		}
	}
	return col, nil
}

// applyTableConstraint records the columns of a PRIMARY KEY table
// constraint. Other table constraints do not affect column layout.
func (t *Table) applyTableConstraint(def []lexer.Token) error {
	sub := &ddlParser{tokens: def}
	if sub.accept("CONSTRAINT") {
		if _, err := sub.name(); err != nil {
			return err
		}
	}
	if !sub.accept("PRIMARY") {
		return nil
	}
	if !sub.accept("KEY") || sub.peek().Value != "(" {
		return fmt.Errorf("malformed PRIMARY KEY constraint")
	}
	sub.next()

	for sub.pos < len(def) && sub.peek().Value != ")" {
		name, err := sub.name()
		if err != nil {
			return err
		}
		for _, c := range t.Columns {
			if strings.EqualFold(c.Name, name) {
				c.PrimaryKey = true
				t.PrimaryKey = append(t.PrimaryKey, c.Name)
			}
		}
		// skip COLLATE / ASC / DESC up to the next column
		for sub.pos < len(def) && sub.peek().Value != "," && sub.peek().Value != ")" {
			sub.next()
		}
		if sub.peek().Value == "," {
			sub.next()
		}
	}
	return nil
}
