package database

import (
	"strconv"
	"strings"
)

// Rebind rewrites '?' placeholders into the connection's dialect.
// Repositories write queries once with '?' and call Rebind before executing
// them on a transaction.
func (db *DB) Rebind(query string) string {
	if !db.IsPostgres() {
		return query
	}
	return rebindDollar(query)
}

// rebindDollar converts '?' to $1, $2, ... leaving quoted literals untouched.
func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
