package dialect

import "fmt"

// Factory returns the appropriate Dialect implementation based on driver name.
// Only MySQL is supported; cloning into a different engine is out of scope.
func GetDialect(driver string) (Dialect, error) {
	switch driver {
	case "", "mysql":
		return &MysqlDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q (only mysql is supported)", driver)
	}
}

// Ensure interface implementation
var _ Dialect = (*MysqlDialect)(nil)
