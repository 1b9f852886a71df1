package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
)

// Row is one result row keyed by column name.
type Row map[string]any

// NamedParams binds params[i] to :pi.
func NamedParams(params []any) []any {
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = sql.Named("p"+strconv.Itoa(i), p)
	}
	return args
}

// Execute runs a compiled statement with its parameters. Text columns are
// returned as strings.
func (s *Store) Execute(ctx context.Context, statement string, params []any) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, statement, NamedParams(params)...)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	result := []Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}
