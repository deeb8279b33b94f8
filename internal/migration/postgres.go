package migration

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"unclebob/internal/config"
)

// postgresServer manages databases through a pgx pool on the maintenance database
type postgresServer struct {
	pool *pgxpool.Pool
}

// PostgresURI returns the connection URI of the maintenance database of db's server
func PostgresURI(db config.Database) string {
	host := db.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := db.Port
	if port == "" {
		port = "5432"
	}
	user := db.User
	if user == "" {
		user = "postgres"
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, port),
		Path:   "/postgres",
	}
	if db.Password != "" {
		u.User = url.UserPassword(user, db.Password)
	} else {
		u.User = url.User(user)
	}
	return u.String()
}

func connectPostgres(ctx context.Context, db config.Database) (Server, error) {
	pool, err := pgxpool.New(ctx, PostgresURI(db))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database server: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database server: %w", err)
	}
	return &postgresServer{pool: pool}, nil
}

func (s *postgresServer) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", name).Scan(&exists)
	return exists, err
}

func (s *postgresServer) Create(ctx context.Context, name string) error {
	if !IsValidDatabaseName(name) {
		return fmt.Errorf("invalid database name: %s", name)
	}
	_, err := s.pool.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize())
	return err
}

func (s *postgresServer) Drop(ctx context.Context, name string) error {
	if !IsValidDatabaseName(name) {
		return fmt.Errorf("invalid database name: %s", name)
	}
	_, err := s.pool.Exec(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{name}.Sanitize())
	return err
}

func (s *postgresServer) Close() error {
	s.pool.Close()
	return nil
}
