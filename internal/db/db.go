package db

import (
	"database/sql"
	"log"

	_ "github.com/lib/pq"
)

// openDB opens a database connection without pinging.
func openDB(dsn string) (*sql.DB, error) {
	return sql.Open("postgres", dsn)
}

// Open returns an open database connection, verified with a ping.
func Open(dsn string) (*sql.DB, error) {
	database, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := database.Ping(); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// MustOpen returns an open and verified database connection.
func MustOpen(dsn string) *sql.DB {
	database, err := Open(dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	return database
}
