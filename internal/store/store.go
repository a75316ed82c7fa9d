package store

import (
	sq "github.com/Masterminds/squirrel"
)

// psql returns a statement builder using Postgres placeholders.
func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}
