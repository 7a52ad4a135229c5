// Package cql normalizes caller-supplied search input into Confluence
// Query Language.
//
// The caller may pass either free text ("baby tracker") or a query
// already written in CQL (`space = SD AND label = draft`). Free text is
// wrapped into a full-text clause against the content body; CQL input
// passes through untouched. Detection is deliberately explicit: a fixed
// vocabulary of CQL field names paired with a fixed set of operators,
// nothing else. A lone field name without an operator, or words like
// "and"/"or" inside plain prose, classify as free text.
package cql

import (
	"regexp"
	"strings"

	"github.com/morikuni/failure/v2"
	"github.com/samber/lo"
)

// ErrorCode defines error types for query normalization
type ErrorCode string

const (
	// InvalidArgument represents rejected caller input, e.g. an empty query
	InvalidArgument ErrorCode = "InvalidArgument"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}

// DefaultLimit is the result cap applied when the caller does not
// supply one.
const DefaultLimit = 10

// fields is the recognized CQL field vocabulary. Input containing one
// of these names followed by an operator is treated as CQL.
var fields = []string{
	"ancestor",
	"contributor",
	"created",
	"creator",
	"id",
	"label",
	"lastmodified",
	"mention",
	"parent",
	"space",
	"text",
	"title",
	"type",
	"watcher",
}

// cqlPattern matches a field name followed by a comparison operator.
// Operators are ordered so that multi-character ones win over their
// single-character prefixes.
var cqlPattern = regexp.MustCompile(
	`(?i)\b(` + strings.Join(fields, "|") + `)\s*(!=|!~|<=|>=|=|~|<|>|\bnot\s+in\b|\bin\b)`,
)

// IsCQL reports whether the input already looks like a CQL expression.
func IsCQL(query string) bool {
	return cqlPattern.MatchString(query)
}

// Normalize converts a search query into valid CQL.
//
// Free text becomes `text ~ "<query>"`; input detected as CQL passes
// through unchanged, so normalizing twice is a no-op. When spaces is
// non-empty a `space in (...)` clause is AND-appended, preserving the
// caller's key order. The result cap is not part of the query string
// and travels beside it.
func Normalize(query string, spaces []string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", failure.New(InvalidArgument,
			failure.Message("query must not be empty"),
		)
	}

	for _, key := range spaces {
		if strings.TrimSpace(key) == "" {
			return "", failure.New(InvalidArgument,
				failure.Message("space keys must not be empty"),
				failure.Context{"spaces": strings.Join(spaces, ",")},
			)
		}
	}

	normalized := query
	if !IsCQL(query) {
		normalized = `text ~ "` + escape(query) + `"`
	}

	if len(spaces) > 0 {
		quoted := lo.Map(spaces, func(key string, _ int) string {
			return `"` + escape(key) + `"`
		})
		normalized += ` AND space in (` + strings.Join(quoted, ",") + `)`
	}

	return normalized, nil
}

// escape backslash-escapes characters that would terminate a quoted
// CQL literal.
func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
