package schema

import (
	"database/sql"
	"fmt"
	"strings"

	"db-cloak/internal/dialect"
)

// Exists reports whether the table exists in the given schema of the
// source database.
func Exists(db *sql.DB, d dialect.Dialect, schemaName, tableName string) (bool, error) {
	var count int
	if err := db.QueryRow(d.TableExistsQuery(), schemaName, tableName).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", tableName, err)
	}
	return count > 0, nil
}

// Describe reads the column structure of a single table from
// information_schema plus its CREATE TABLE statement.
func Describe(db *sql.DB, d dialect.Dialect, schemaName, tableName string) (*Table, error) {
	t := &Table{Name: tableName}

	rows, err := db.Query(d.ColumnsQuery(), schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns of %s: %w", tableName, err)
	}
	defer rows.Close()

	for rows.Next() {
		var cName, dType, cType, isNull, cKey, extra, comment sql.NullString
		var cLen sql.NullString // CHARACTER_MAXIMUM_LENGTH can exceed int32, scan as string

		if err := rows.Scan(&cName, &dType, &cType, &cLen, &isNull, &cKey, &extra, &comment); err != nil {
			return nil, fmt.Errorf("failed to scan column (table: %s): %w", tableName, err)
		}
		if !cName.Valid {
			continue
		}

		isPK := strings.Contains(cKey.String, "PRI")

		isAutoInc := false
		if extra.Valid {
			isAutoInc = strings.Contains(strings.ToLower(extra.String), "auto_increment")
		}

		col := &Column{
			Name:       cName.String,
			DataType:   d.NormalizeType(dType.String),
			ColumnType: cType.String,
			IsNullable: isNull.String == "YES",
			IsPK:       isPK,
			IsAutoInc:  isAutoInc,
			Comment:    comment.String,
			Meaning:    AnalyzeMeaning(cName.String, comment.String),
		}

		if cLen.Valid && cLen.String != "" {
			var length int
			if _, err := fmt.Sscanf(cLen.String, "%d", &length); err == nil {
				col.Length = length
			}
		}
		t.Columns = append(t.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns of %s: %w", tableName, err)
	}

	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("table %s has no columns", tableName)
	}

	createSQL, err := CreateStatement(db, d, tableName)
	if err != nil {
		return nil, err
	}
	t.CreateSQL = createSQL

	return t, nil
}

// CreateStatement fetches the source CREATE TABLE statement, which is
// replayed verbatim against the destination so structure, keys,
// defaults and constraints survive the clone untouched.
func CreateStatement(db *sql.DB, d dialect.Dialect, tableName string) (string, error) {
	// SHOW CREATE TABLE returns (name, statement)
	var name, stmt string
	if err := db.QueryRow(d.ShowCreateQuery(tableName)).Scan(&name, &stmt); err != nil {
		return "", fmt.Errorf("failed to fetch CREATE TABLE for %s: %w", tableName, err)
	}
	return stmt, nil
}
