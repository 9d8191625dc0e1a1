package judge

import (
	"errors"
	"github.com/elmanelman/solution-judge/subtask"
	"strings"
	"unicode"
)

var (
	errMultipleStatements = errors.New("only a single statement is allowed")
	errNotAQuery          = errors.New("only SELECT statements are allowed")
)

var queryPrefixes = map[string]bool{"SELECT": true, "WITH": true}

// modifying keywords are rejected anywhere outside literals and comments,
// which also covers data-modifying WITH statements
var modifyingKeywords = map[string]bool{
	"INSERT":   true,
	"UPDATE":   true,
	"DELETE":   true,
	"MERGE":    true,
	"REPLACE":  true,
	"UPSERT":   true,
	"CREATE":   true,
	"ALTER":    true,
	"DROP":     true,
	"TRUNCATE": true,
	"GRANT":    true,
	"REVOKE":   true,
}

// checkRestrictions rejects anything but a single selection on QUERY-only subtasks.
func checkRestrictions(query string, allowed subtask.AllowedSQL) error {
	if allowed != subtask.AllowedQuery {
		return nil
	}

	words, semicolon := scanWords(query)
	if semicolon {
		return errMultipleStatements
	}
	if len(words) == 0 || !queryPrefixes[words[0]] {
		return errNotAQuery
	}
	for _, w := range words[1:] {
		if modifyingKeywords[w] {
			return errNotAQuery
		}
	}
	return nil
}

// scanWords returns the upper-cased bare words of query, skipping string
// literals, quoted identifiers and comments, and reports whether a statement
// separator occurs outside of them.
func scanWords(query string) (words []string, semicolon bool) {
	rs := []rune(query)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case r == '\'' || r == '"':
			i = skipQuoted(rs, i)
		case r == '-' && i+1 < len(rs) && rs[i+1] == '-':
			for i < len(rs) && rs[i] != '\n' {
				i++
			}
		case r == '/' && i+1 < len(rs) && rs[i+1] == '*':
			i += 2
			for i < len(rs) && !(rs[i] == '*' && i+1 < len(rs) && rs[i+1] == '/') {
				i++
			}
			i += 2
		case r == ';':
			semicolon = true
			i++
		case isWordRune(r):
			start := i
			for i < len(rs) && isWordRune(rs[i]) {
				i++
			}
			words = append(words, strings.ToUpper(string(rs[start:i])))
		default:
			i++
		}
	}
	return words, semicolon
}

// skipQuoted returns the index just past the literal opened at rs[i]. A doubled
// quote inside the literal is an escaped quote.
func skipQuoted(rs []rune, i int) int {
	quote := rs[i]
	i++
	for i < len(rs) {
		if rs[i] == quote {
			if i+1 < len(rs) && rs[i+1] == quote {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return i
}

func isWordRune(r rune) bool {
	return r == '_' || r == '$' || r == '#' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
