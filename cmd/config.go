package cmd

import (
	"database/sql"
	"fmt"

	"github.com/spf13/viper"
)

// Endpoint is one side of the clone (source or destination).
type Endpoint struct {
	DSN string `mapstructure:"dsn"`
}

// GetEndpoints returns the configured source and destination
// connections (flag > config > env).
func GetEndpoints() (source, destination Endpoint, err error) {
	source.DSN = viper.GetString("source.dsn")
	destination.DSN = viper.GetString("destination.dsn")

	if source.DSN == "" {
		return source, destination, fmt.Errorf("source.dsn is required (via flag or config)")
	}
	if destination.DSN == "" {
		return source, destination, fmt.Errorf("destination.dsn is required (via flag or config)")
	}
	return source, destination, nil
}

// driverName returns the configured driver, defaulting to mysql. The
// same name selects both the sql driver and the Dialect so the two
// cannot drift apart.
func driverName() string {
	if d := viper.GetString("source.driver"); d != "" {
		return d
	}
	return "mysql"
}

// openEndpoint opens and pings one endpoint. A connection failure here
// is fatal for the whole run.
func openEndpoint(e Endpoint, driver string) (*sql.DB, string, error) {
	db, err := sql.Open(driver, e.DSN)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to connect to db: %w", err)
	}

	var schemaName string
	if err := db.QueryRow("SELECT DATABASE()").Scan(&schemaName); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to get database name: %w", err)
	}
	if schemaName == "" {
		db.Close()
		return nil, "", fmt.Errorf("no database selected in DSN")
	}
	return db, schemaName, nil
}
