package database

import (
	"database/sql"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/visagate/visa-processing-backend/internal/config"
)

// DB defines the interface for database operations
type DB interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
	Ping() error
	Close() error
}

// PostgresDB wraps sqlx.DB to implement the DB interface
type PostgresDB struct {
	*sqlx.DB
}

// Get executes a query that returns a single row
func (p *PostgresDB) Get(dest interface{}, query string, args ...interface{}) error {
	return p.DB.Get(dest, query, args...)
}

// Select executes a query that returns multiple rows
func (p *PostgresDB) Select(dest interface{}, query string, args ...interface{}) error {
	return p.DB.Select(dest, query, args...)
}

// Exec executes a query that doesn't return rows
func (p *PostgresDB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return p.DB.Exec(query, args...)
}

// QueryRow executes a query that returns a single row
func (p *PostgresDB) QueryRow(query string, args ...interface{}) *sql.Row {
	return p.DB.QueryRow(query, args...)
}

// Query executes a query that returns rows
func (p *PostgresDB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return p.DB.Query(query, args...)
}

// Ping checks the database connection
func (p *PostgresDB) Ping() error {
	return p.DB.Ping()
}

// Close closes the database connection
func (p *PostgresDB) Close() error {
	return p.DB.Close()
}

var passwordPattern = regexp.MustCompile(`(postgres(?:ql)?://[^:]+:)([^@]+)(@.+)`)

func maskPassword(url string) string {
	return passwordPattern.ReplaceAllString(url, "${1}****${3}")
}

// NewConnection creates a new database connection pool
func NewConnection(cfg config.DatabaseConfig) (DB, error) {
	pgxConfig, err := pgx.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	connStr := stdlib.RegisterConnConfig(pgxConfig)

	db, err := sqlx.Connect("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxLifetime / 2)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"url":       maskPassword(cfg.URL),
		"max_conns": cfg.MaxConnections,
	}).Info("Database connection established")

	return &PostgresDB{DB: db}, nil
}
