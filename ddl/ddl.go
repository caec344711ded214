// Package ddl is a minimal DDL-fragment reader, not a general SQL parser: it
// turns the text SQLite stores in sqlite_master.sql for one table into a
// structured description the sqlite package's introspector maps into
// schema.Column/schema.Table values.
//
// No dedicated SQLite DDL-parsing library exists for this (see
// DESIGN.md), so it is read with a small hand-written, quote- and
// paren-depth-aware scanner plus targeted regexes, in the style of
// ariga.io/atlas/sql/sqlite's columnParts/reConstC/reConstT helpers,
// rather than a general SQL grammar. It only needs to accept the subset
// of DDL that schema.Table.CreateSQL itself emits (plus whatever SQLite
// normalizes it to on disk).
package ddl

import (
	"fmt"
	"regexp"
	"strings"
)

// Reference is a parsed `REFERENCES "table" ON DELETE action` clause.
type Reference struct {
	Table    string
	OnDelete string // one of "", "NO ACTION", "RESTRICT", "SET NULL", "SET DEFAULT", "CASCADE"
}

// Column is a parsed column definition.
type Column struct {
	Name       string
	Type       string
	NotNull    bool
	HasDefault bool
	Default    string
	Unique     bool
	PrimaryKey bool
	Choices    []string // from an inline CHECK("name" IN (...))
	References *Reference
}

// Table is a parsed CREATE TABLE statement.
type Table struct {
	Name         string
	Columns      []Column
	Constraints  []string // opaque table-level constraint strings, verbatim
	WithoutRowID bool
}

var (
	reCreate               = regexp.MustCompile(`(?is)^\s*CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?([` + "`" + `"\[]?[\w]+[` + "`" + `"\]]?)\s*\((.*)\)\s*(WITHOUT\s+ROWID)?\s*;?\s*$`)
	reNotNull              = regexp.MustCompile(`(?i)\bNOT\s+NULL\b`)
	reUnique               = regexp.MustCompile(`(?i)\bUNIQUE\b`)
	rePK                   = regexp.MustCompile(`(?i)\bPRIMARY\s+KEY\b`)
	reDefaultKw            = regexp.MustCompile(`(?i)\bDEFAULT\s*`)
	reRefs                 = regexp.MustCompile(`(?is)\bREFERENCES\s+["` + "`" + `\[]?(\w+)["` + "`" + `\]]?(?:\s*\([^)]*\))?(?:\s+ON\s+DELETE\s+(NO\s+ACTION|RESTRICT|SET\s+NULL|SET\s+DEFAULT|CASCADE))?`)
	reCheckIn              = regexp.MustCompile(`(?is)^\s*CHECK\s*\(\s*["` + "`" + `\[]?(\w+)["` + "`" + `\]]?\s+IN\s*\((.*)\)\s*\)\s*$`)
	reTableConstraintStart = regexp.MustCompile(`(?i)^(CONSTRAINT\b|PRIMARY\s+KEY\b|UNIQUE\s*\(|CHECK\s*\(|FOREIGN\s+KEY\b)`)
)

// Parse parses one stored CREATE TABLE statement into a structured Table.
// It reads the subset of DDL described in the package doc and returns an
// error for statements outside it (e.g. a table name that is not a single
// word). Within that subset, unknown or multi-word types, and constraints
// it cannot classify more precisely, are kept as opaque text.
func Parse(stmt string) (*Table, error) {
	m := reCreate.FindStringSubmatch(stmt)
	if m == nil {
		return nil, fmt.Errorf("ddl: could not parse CREATE TABLE statement: %s", truncate(stmt, 80))
	}
	t := &Table{
		Name:         unquoteIdent(m[1]),
		WithoutRowID: strings.TrimSpace(m[3]) != "",
	}
	items := splitTopLevel(m[2], ',')
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if reTableConstraintStart.MatchString(item) {
			t.Constraints = append(t.Constraints, item)
			continue
		}
		col, err := parseColumn(item)
		if err != nil {
			return nil, err
		}
		t.Columns = append(t.Columns, col)
	}
	return t, nil
}

func parseColumn(def string) (Column, error) {
	name, rest, err := splitFirstToken(def)
	if err != nil {
		return Column{}, fmt.Errorf("ddl: %w", err)
	}
	typ, rest := splitType(rest)
	c := Column{Name: unquoteIdent(name), Type: strings.TrimSpace(typ)}
	// Match NOT NULL/UNIQUE/PRIMARY KEY against parenthesized content
	// masked out, so a literal like CHECK("x" IN ('UNIQUE')) can't be
	// mistaken for a column-level UNIQUE constraint.
	outer := maskParens(rest)
	c.NotNull = reNotNull.MatchString(outer)
	c.Unique = reUnique.MatchString(outer)
	c.PrimaryKey = rePK.MatchString(outer)
	if v, ok := extractDefault(rest); ok {
		c.HasDefault = true
		c.Default = v
	}
	if rm := reRefs.FindStringSubmatch(rest); rm != nil {
		c.References = &Reference{
			Table:    unquoteIdent(rm[1]),
			OnDelete: normalizeSpace(strings.ToUpper(rm[2])),
		}
	}
	for _, constraint := range splitConstraintClauses(rest) {
		if cm := reCheckIn.FindStringSubmatch(constraint); cm != nil && strings.EqualFold(unquoteIdent(cm[1]), c.Name) {
			c.Choices = splitValues(cm[2])
		}
	}
	return c, nil
}

// extractDefault finds a DEFAULT clause in rest and reads its value,
// honoring balanced parens and quoted strings so that a parenthesized
// expression default (e.g. DEFAULT (strftime(...))) is not cut short by
// a later clause's own parens.
func extractDefault(rest string) (value string, ok bool) {
	loc := reDefaultKw.FindStringIndex(rest)
	if loc == nil {
		return "", false
	}
	s := rest[loc[1]:]
	if s == "" {
		return "", false
	}
	switch s[0] {
	case '(':
		depth := 0
		for i := 0; i < len(s); i++ {
			switch s[i] {
			case '(':
				depth++
			case ')':
				depth--
			}
			if depth == 0 {
				return s[:i+1], true
			}
		}
		return s, true
	case '\'':
		for i := 1; i < len(s); i++ {
			if s[i] == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					i++
					continue
				}
				return s[:i+1], true
			}
		}
		return s, true
	default:
		i := 0
		for i < len(s) && s[i] != ' ' && s[i] != '\t' && s[i] != '\n' {
			i++
		}
		return s[:i], true
	}
}

// splitType consumes the type-name tokens at the start of rest (e.g.
// "VARCHAR(40) NOT NULL" -> "VARCHAR(40)", "NOT NULL"), stopping at
// the first recognized column-constraint keyword.
func splitType(rest string) (typ, remainder string) {
	rest = strings.TrimSpace(rest)
	stop := regexp.MustCompile(`(?i)^(NOT\b|NULL\b|DEFAULT\b|UNIQUE\b|PRIMARY\b|REFERENCES\b|CHECK\b|COLLATE\b|CONSTRAINT\b|GENERATED\b|AS\b)`)
	var typeTokens []string
	for {
		rest = strings.TrimSpace(rest)
		if rest == "" || stop.MatchString(rest) {
			break
		}
		tok, after, paren := nextTypeToken(rest)
		if tok == "" {
			break
		}
		typeTokens = append(typeTokens, tok)
		rest = after
		if paren {
			// A parenthesized size/precision group ends the type.
			break
		}
	}
	return strings.Join(typeTokens, " "), rest
}

// nextTypeToken reads one identifier token, optionally followed
// immediately by a parenthesized argument list, e.g. "VARCHAR(40)".
func nextTypeToken(s string) (tok, rest string, hadParen bool) {
	i := 0
	for i < len(s) && (isIdentByte(s[i])) {
		i++
	}
	if i == 0 {
		return "", s, false
	}
	tok = s[:i]
	rest = s[i:]
	trimmed := strings.TrimLeft(rest, " \t\n")
	if strings.HasPrefix(trimmed, "(") {
		depth := 0
		j := 0
		for j < len(trimmed) {
			switch trimmed[j] {
			case '(':
				depth++
			case ')':
				depth--
			}
			j++
			if depth == 0 {
				break
			}
		}
		tok += trimmed[:j]
		rest = trimmed[j:]
		hadParen = true
	}
	return tok, rest, hadParen
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// splitFirstToken reads the column name, which may be a bare identifier
// or quoted with ", `, or [].
func splitFirstToken(def string) (name, rest string, err error) {
	def = strings.TrimSpace(def)
	if def == "" {
		return "", "", fmt.Errorf("empty column definition")
	}
	switch def[0] {
	case '"', '`':
		q := def[0]
		end := strings.IndexByte(def[1:], q)
		if end < 0 {
			return "", "", fmt.Errorf("unterminated quoted identifier in %q", def)
		}
		return def[:end+2], def[end+2:], nil
	case '[':
		end := strings.IndexByte(def, ']')
		if end < 0 {
			return "", "", fmt.Errorf("unterminated bracketed identifier in %q", def)
		}
		return def[:end+1], def[end+1:], nil
	default:
		i := 0
		for i < len(def) && isIdentByte(def[i]) {
			i++
		}
		if i == 0 {
			return "", "", fmt.Errorf("could not find column name in %q", def)
		}
		return def[:i], def[i:], nil
	}
}

// splitConstraintClauses splits the tail of a column definition into its
// constituent constraint clauses (NOT NULL, DEFAULT ..., CHECK(...), ...)
// by splitting on the constraint keywords at paren-depth 0.
func splitConstraintClauses(rest string) []string {
	var clauses []string
	kw := regexp.MustCompile(`(?i)\b(NOT\s+NULL|UNIQUE|PRIMARY\s+KEY|DEFAULT|REFERENCES|CHECK|COLLATE|CONSTRAINT)\b`)
	locs := kw.FindAllStringIndex(rest, -1)
	boundaries := make([]int, 0, len(locs)+1)
	for _, l := range locs {
		boundaries = append(boundaries, l[0])
	}
	boundaries = append(boundaries, len(rest))
	for i := 0; i < len(boundaries)-1; i++ {
		clause := strings.TrimSpace(rest[boundaries[i]:boundaries[i+1]])
		if clause != "" {
			clauses = append(clauses, clause)
		}
	}
	return clauses
}

// maskParens returns a copy of s with every byte at paren-depth > 0,
// and the parens themselves, replaced by spaces. Used to keep keyword
// matching (NOT NULL, UNIQUE, PRIMARY KEY) from firing inside a
// parenthesized clause's literal text, e.g. CHECK("x" IN ('UNIQUE')).
func maskParens(s string) string {
	b := []byte(s)
	depth := 0
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case '(':
			depth++
			b[i] = ' '
		case ')':
			depth--
			b[i] = ' '
		default:
			if depth > 0 {
				b[i] = ' '
			}
		}
	}
	return string(b)
}

// splitTopLevel splits s on sep, ignoring separators nested inside
// parens or single/double/backtick quotes.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// splitValues splits the comma-separated literal list inside a
// CHECK(col IN (...)) clause and strips surrounding quotes from each.
func splitValues(s string) []string {
	var values []string
	for _, v := range splitTopLevel(s, ',') {
		v = strings.TrimSpace(v)
		if len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'' {
			v = strings.ReplaceAll(v[1:len(v)-1], "''", "'")
		}
		values = append(values, v)
	}
	return values
}

func unquoteIdent(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		switch {
		case s[0] == '"' && s[len(s)-1] == '"':
			return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
		case s[0] == '`' && s[len(s)-1] == '`':
			return s[1 : len(s)-1]
		case s[0] == '[' && s[len(s)-1] == ']':
			return s[1 : len(s)-1]
		}
	}
	return s
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
