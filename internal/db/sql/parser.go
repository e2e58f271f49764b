package sql

import (
	"fmt"
	"strings"
	"unicode"
)

type QueryType int

const (
	DQL QueryType = iota
	DML
	DDL
)

func (qt QueryType) String() string {
	return []string{"DQL", "DML", "DDL"}[qt]
}

func (qt QueryType) IsSafe() bool {
	return qt == DQL
}

var keywordTypes = map[string]QueryType{
	"SELECT":   DQL,
	"VALUES":   DQL,
	"INSERT":   DML,
	"UPDATE":   DML,
	"DELETE":   DML,
	"MERGE":    DML,
	"CREATE":   DDL,
	"ALTER":    DDL,
	"DROP":     DDL,
	"TRUNCATE": DDL,
}

// Classify identifies a statement by its leading keyword. Comments and
// opening parentheses are skipped. For a WITH statement the keyword after
// the last CTE body decides, so "WITH x AS (...) DELETE ..." is DML.
func Classify(query string) (QueryType, error) {
	words := keywords(query)
	if len(words) == 0 {
		return 0, fmt.Errorf("Unable to identify query type: empty statement")
	}

	first := words[0]
	if first.word == "WITH" {
		for _, w := range words[1:] {
			if w.depth != 0 {
				continue
			}
			if qt, ok := keywordTypes[w.word]; ok {
				return qt, nil
			}
		}
		return 0, fmt.Errorf("Unable to identify query type after WITH")
	}

	if qt, ok := keywordTypes[first.word]; ok {
		return qt, nil
	}
	return 0, fmt.Errorf("Unable to identify query type: %s", first.word)
}

type keyword struct {
	word  string
	depth int
}

// keywords lists the bare words of query outside comments and string
// literals, with the parenthesis depth they appear at.
func keywords(query string) []keyword {
	var out []keyword
	depth := 0
	rs := []rune(query)

	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case r == '-' && i+1 < len(rs) && rs[i+1] == '-':
			for i < len(rs) && rs[i] != '\n' {
				i++
			}
		case r == '/' && i+1 < len(rs) && rs[i+1] == '*':
			i += 2
			for i+1 < len(rs) && !(rs[i] == '*' && rs[i+1] == '/') {
				i++
			}
			i++
		case r == '\'' || r == '"' || r == '[':
			closing := r
			if r == '[' {
				closing = ']'
			}
			i++
			for i < len(rs) && rs[i] != closing {
				i++
			}
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i+1 < len(rs) && (unicode.IsLetter(rs[i+1]) || unicode.IsDigit(rs[i+1]) || rs[i+1] == '_') {
				i++
			}
			out = append(out, keyword{word: strings.ToUpper(string(rs[start : i+1])), depth: depth})
		}
	}

	return out
}
