package hoard

import "strings"

// NegationMarker prefixes a query token that excludes a tag.
const NegationMarker = "-"

// Query is a parsed tag search. Both lists are free of duplicates and
// keep the order in which tags first appeared.
type Query struct {
	Include []string
	Exclude []string
}

// ParseQuery splits tokens into include and exclude tag names.
// Empty tokens and a bare marker are ignored. Repeated tags count once,
// so "cat cat" asks for the same posts as "cat".
func ParseQuery(tokens []string) Query {
	var q Query
	seenIn := make(map[string]bool)
	seenEx := make(map[string]bool)

	for _, tok := range tokens {
		if name, ok := strings.CutPrefix(tok, NegationMarker); ok {
			if name == "" || seenEx[name] {
				continue
			}
			seenEx[name] = true
			q.Exclude = append(q.Exclude, name)
			continue
		}
		if tok == "" || seenIn[tok] {
			continue
		}
		seenIn[tok] = true
		q.Include = append(q.Include, tok)
	}
	return q
}

// ParseQueryString splits s on whitespace and parses the tokens.
func ParseQueryString(s string) Query {
	return ParseQuery(strings.Fields(s))
}

// Empty reports whether the query can match nothing because it names no
// tag to include.
func (q Query) Empty() bool {
	return len(q.Include) == 0
}

func (q Query) String() string {
	parts := make([]string, 0, len(q.Include)+len(q.Exclude))
	parts = append(parts, q.Include...)
	for _, e := range q.Exclude {
		parts = append(parts, NegationMarker+e)
	}
	return strings.Join(parts, " ")
}
