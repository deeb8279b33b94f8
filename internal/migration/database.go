package migration

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"

	"unclebob/internal/config"
)

// Server creates and drops databases on one database server
type Server interface {
	Exists(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, name string) error
	Drop(ctx context.Context, name string) error
	Close() error
}

// Connector opens a Server for the given database settings
type Connector func(ctx context.Context, db config.Database) (Server, error)

// Connect opens a Server for the engine of db
func Connect(ctx context.Context, db config.Database) (Server, error) {
	switch strings.ToLower(db.Engine) {
	case "", "mysql", "mariadb":
		return connectMySQL(ctx, db)
	case "postgres", "postgresql", "pgsql":
		return connectPostgres(ctx, db)
	default:
		return nil, fmt.Errorf("unsupported database engine %q", db.Engine)
	}
}

// mysqlServer manages databases through database/sql
type mysqlServer struct {
	db *sql.DB
}

// MySQLDSN returns the DSN of the server of db, without selecting a database
func MySQLDSN(db config.Database) string {
	host := db.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := db.Port
	if port == "" {
		port = "3306"
	}
	user := db.User
	if user == "" {
		user = "root"
	}

	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = db.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, port)
	return cfg.FormatDSN()
}

func connectMySQL(ctx context.Context, db config.Database) (Server, error) {
	// Connect to MySQL server (without specifying database)
	conn, err := sql.Open("mysql", MySQLDSN(db))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database server: %w", err)
	}

	// Test connection
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database server: %w", err)
	}
	return &mysqlServer{db: conn}, nil
}

// Exists checks if a database exists
func (s *mysqlServer) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?)"
	err := s.db.QueryRowContext(ctx, query, name).Scan(&exists)
	return exists, err
}

// Create creates a new database
func (s *mysqlServer) Create(ctx context.Context, name string) error {
	if !IsValidDatabaseName(name) {
		return fmt.Errorf("invalid database name: %s", name)
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE `%s`", name))
	return err
}

// Drop drops a database if it exists
func (s *mysqlServer) Drop(ctx context.Context, name string) error {
	if !IsValidDatabaseName(name) {
		return fmt.Errorf("invalid database name: %s", name)
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS `%s`", name))
	return err
}

func (s *mysqlServer) Close() error {
	return s.db.Close()
}

// IsValidDatabaseName reports whether name is safe to quote into DDL:
// letters, digits, underscore and dollar only, at most 63 characters.
func IsValidDatabaseName(name string) bool {
	if len(name) == 0 || len(name) > 63 {
		return false
	}
	for _, c := range name {
		switch {
		case c == '_', c == '$':
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
