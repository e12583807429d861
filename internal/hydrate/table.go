package hydrate

import (
	"database/sql"
	"fmt"

	"github.com/roach88/fetchplan/internal/ir"
)

// Table is a tabular query result with driver values already converted.
type Table struct {
	Columns []string
	Rows    [][]ir.IRValue
}

// ReadTable drains rows into a Table. It does not close rows.
func ReadTable(rows *sql.Rows) (*Table, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	t := &Table{Columns: cols}
	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(t.Rows), err)
		}
		row := make([]ir.IRValue, len(cols))
		for i, v := range raw {
			cell, err := ir.FromDriver(v)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", len(t.Rows), cols[i], err)
			}
			row[i] = cell
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return t, nil
}
