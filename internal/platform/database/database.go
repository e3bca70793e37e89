package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	"quizmaster/internal/platform/config"
)

// DB is the process database handle together with the dialect it talks to.
// It is created once in main and handed to every repository and service.
type DB struct {
	*sql.DB
	Driver string
}

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects to the configured database and creates the schema if missing.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	var drvName string
	switch driver {
	case config.DriverSQLite:
		drvName = "sqlite"
	case config.DriverPostgres:
		drvName = "pgx"
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}

	sqlDB, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if driver == config.DriverSQLite {
		// One writer keeps transactions serialised; every statement of a
		// transaction must go through that transaction.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	db := &DB{DB: sqlDB, Driver: driver}
	if err := db.Migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// SerializableTx returns the options used for read-then-write sequences such as
// attempt numbering. SQLite already serialises writers, and its driver only
// accepts the default level.
func (db *DB) SerializableTx() *sql.TxOptions {
	if db.Driver == config.DriverPostgres {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return nil
}

func (db *DB) Close() {
	if db != nil && db.DB != nil {
		db.DB.Close()
		log.Println("Database connection closed.")
	}
}
