package schema

type Table struct {
	Name      string
	Columns   []*Column
	CreateSQL string
}

type Column struct {
	Name       string
	DataType   string // normalized base type (varchar, int, datetime, ...)
	ColumnType string // full declaration (varchar(255), decimal(10,2), ...)
	Length     int
	IsNullable bool
	IsPK       bool
	IsAutoInc  bool
	Comment    string
	Meaning    string // heuristic semantic hint ("email", "phone", ...)
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// PrimaryKey returns the primary key column name when the table has a
// single-column primary key, otherwise "".
func (t *Table) PrimaryKey() string {
	var pk string
	for _, c := range t.Columns {
		if c.IsPK {
			if pk != "" {
				return ""
			}
			pk = c.Name
		}
	}
	return pk
}

// ColumnNames returns the ordered column name list.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}
