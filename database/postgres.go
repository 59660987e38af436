package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/SusheelSathyaraj/PaperPipe/config"
	"github.com/SusheelSathyaraj/PaperPipe/monitoring"
	"github.com/lib/pq"
)

type PostgreSQLClient struct {
	User     string
	Password string
	Host     string
	Port     int
	DBName   string
	SSLMode  string
	DB       *sql.DB
}

func NewPostgreSQLClient(user, password, host string, port int, dbname string) *PostgreSQLClient {
	return &PostgreSQLClient{
		User:     user,
		Password: password,
		Host:     host,
		Port:     port,
		DBName:   dbname,
		SSLMode:  "disable",
	}
}

func NewPostgreSQLClientFromConfig(cfg *config.Config) *PostgreSQLClient {
	return &PostgreSQLClient{
		User:     cfg.PostgreSQL.User,
		Password: cfg.PostgreSQL.Password,
		Host:     cfg.PostgreSQL.Host,
		Port:     cfg.PostgreSQL.Port,
		DBName:   cfg.PostgreSQL.DBName,
		SSLMode:  cfg.PostgreSQL.SSLMode,
	}
}

// DSN as a postgres:// URL so credentials are escaped
func (p *PostgreSQLClient) DSN() string {
	sslmode := p.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     userInfo(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     "/" + p.DBName,
		RawQuery: url.Values{"sslmode": {sslmode}}.Encode(),
	}
	return u.String()
}

// connect to Postgresql database
func (p *PostgreSQLClient) Connect() error {
	//open connection
	db, err := sql.Open("postgres", p.DSN())
	if err != nil {
		return fmt.Errorf("failed to open Postgresql connection: %w", err)
	}

	//testing connection
	if err = db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping postgresql database: %w", err)
	}
	p.DB = db
	monitoring.DefaultLogger.Info("Successfully connected to PostgreSQL database %s", p.DBName)
	return nil
}

// Close the database connection
func (p *PostgreSQLClient) Close() error {
	if p.DB != nil {
		return p.DB.Close()
	}
	return nil
}

func (p *PostgreSQLClient) ResetTable(ctx context.Context, table string) error {
	if p.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	query := "DELETE FROM " + quoteQualified(table, pq.QuoteIdentifier)
	if _, err := p.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to reset table %s: %w", table, err)
	}
	return nil
}

// appends the rows with COPY FROM STDIN inside one transaction
func (p *PostgreSQLClient) AppendRows(ctx context.Context, table string, rows [][]interface{}) error {
	if p.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	columns, data, err := splitHeader(rows)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := copyRows(ctx, tx, table, columns, data); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to append %d rows to %s: %w", len(data), table, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func copyRows(ctx context.Context, tx *sql.Tx, table string, columns []string, data [][]interface{}) error {
	var stmt *sql.Stmt
	var err error
	if schema, name, ok := strings.Cut(table, "."); ok {
		stmt, err = tx.PrepareContext(ctx, pq.CopyInSchema(schema, name, columns...))
	} else {
		stmt, err = tx.PrepareContext(ctx, pq.CopyIn(table, columns...))
	}
	if err != nil {
		return fmt.Errorf("failed to prepare copy: %w", err)
	}
	defer stmt.Close()

	for _, row := range data {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return err
		}
	}
	// an Exec without arguments flushes the buffered rows
	if _, err := stmt.ExecContext(ctx); err != nil {
		return err
	}
	return nil
}
