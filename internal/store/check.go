package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/fetchplan/internal/schema"
)

// CheckRegistry verifies that every table and column mapped by reg exists.
// Every missing mapping is reported as a *schema.DefinitionError; the
// returned error joins all of them.
func (s *Store) CheckRegistry(ctx context.Context, reg *schema.Registry) error {
	tables := make(map[string]map[string]bool)
	columnsOf := func(table string) (map[string]bool, error) {
		if cols, ok := tables[table]; ok {
			return cols, nil
		}
		cols, err := s.tableColumns(ctx, table)
		if err != nil {
			return nil, err
		}
		tables[table] = cols
		return cols, nil
	}

	var problems []error
	for _, ent := range reg.Entities() {
		cols, err := columnsOf(ent.Table)
		if err != nil {
			return err
		}
		if len(cols) == 0 {
			problems = append(problems, &schema.DefinitionError{
				Entity:  ent.Name,
				Message: fmt.Sprintf("table %q does not exist", ent.Table),
			})
			continue
		}
		for _, f := range ent.Fields() {
			if !cols[f.Column] {
				problems = append(problems, &schema.DefinitionError{
					Entity:     ent.Name,
					Identifier: f.Name,
					Message:    fmt.Sprintf("column %s.%s does not exist", ent.Table, f.Column),
				})
			}
		}
		for _, j := range ent.Joins() {
			if !cols[j.LocalColumn] {
				problems = append(problems, &schema.DefinitionError{
					Entity:     ent.Name,
					Identifier: j.Name,
					Message:    fmt.Sprintf("column %s.%s does not exist", ent.Table, j.LocalColumn),
				})
			}
			target, err := columnsOf(j.Target.Table)
			if err != nil {
				return err
			}
			if len(target) > 0 && !target[j.TargetColumn] {
				problems = append(problems, &schema.DefinitionError{
					Entity:     ent.Name,
					Identifier: j.Name,
					Message:    fmt.Sprintf("column %s.%s does not exist", j.Target.Table, j.TargetColumn),
				})
			}
		}
	}
	return errors.Join(problems...)
}

// tableColumns returns the column names of table; empty if it does not exist.
func (s *Store) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid", table)
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column of %s: %w", table, err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
