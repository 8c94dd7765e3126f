package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"metaselect/internal/options"
)

const catalogTable = "meta"

// boolColumns are stored as integers in SQLite catalogs.
var boolColumns = map[string]bool{
	"multi_year_mean": true,
}

func loadSQLite(ctx context.Context, path string) ([]options.Record, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM %s ORDER BY rowid ASC`, catalogTable))
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []options.Record
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		record := make(options.Record, len(columns))
		for i, col := range columns {
			v := values[i]
			if v == nil {
				continue
			}
			record[col] = columnValue(col, v)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func columnValue(col string, v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case int64:
		if boolColumns[col] {
			return t != 0
		}
	}
	return v
}

// WriteSQLite stores records in a catalog at path, replacing any meta table
// already there with one untyped column per listed field. Booleans are stored
// as integers.
func WriteSQLite(ctx context.Context, path string, fields []string, records []options.Record) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	cols := make([]string, len(fields))
	marks := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = quoteIdent(f)
		marks[i] = "?"
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	migrations := []string{
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdent(catalogTable)),
		fmt.Sprintf(`CREATE TABLE %s (%s)`, quoteIdent(catalogTable), strings.Join(cols, ", ")),
	}
	for _, stmt := range migrations {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("catalog migration failed: %w", err)
		}
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteIdent(catalogTable), strings.Join(cols, ", "), strings.Join(marks, ", ")))
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, r := range records {
		args := make([]any, len(fields))
		for i, f := range fields {
			v := r[f]
			if b, ok := v.(bool); ok {
				if b {
					v = 1
				} else {
					v = 0
				}
			}
			args[i] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// quoteIdent quotes an SQL identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
