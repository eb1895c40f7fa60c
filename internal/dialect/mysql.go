package dialect

import (
	"fmt"
	"strings"
)

type MysqlDialect struct{}

func (d *MysqlDialect) TableExistsQuery() string {
	return `SELECT COUNT(*) FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND TABLE_TYPE = 'BASE TABLE'`
}

func (d *MysqlDialect) ColumnsQuery() string {
	return `SELECT COLUMN_NAME, DATA_TYPE, COLUMN_TYPE, CHARACTER_MAXIMUM_LENGTH, IS_NULLABLE, COLUMN_KEY, EXTRA, COLUMN_COMMENT FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION`
}

func (d *MysqlDialect) ShowCreateQuery(table string) string {
	return fmt.Sprintf("SHOW CREATE TABLE %s", d.QuoteIdentifier(table))
}

func (d *MysqlDialect) DropTableQuery(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.QuoteIdentifier(table))
}

func (d *MysqlDialect) SelectPageQuery(table string, cols []string, orderBy string, limit, offset int) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.QuoteIdentifier(c)
	}
	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), d.QuoteIdentifier(table))
	if orderBy != "" {
		q += fmt.Sprintf(" ORDER BY %s", d.QuoteIdentifier(orderBy))
	}
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", q, limit, offset)
}

func (d *MysqlDialect) InsertQuery(table string, cols []string, rowCount int) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.QuoteIdentifier(c)
	}
	row := "(" + GeneratePlaceholders(len(cols), d.Placeholder) + ")"
	rows := make([]string, rowCount)
	for i := range rows {
		rows[i] = row
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		d.QuoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(rows, ", "))
}

func (d *MysqlDialect) Placeholder(index int) string {
	return "?"
}

func (d *MysqlDialect) NormalizeType(sqlType string) string {
	return DefaultNormalizeType(sqlType)
}

func (d *MysqlDialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
