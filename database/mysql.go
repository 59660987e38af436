package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"

	"github.com/SusheelSathyaraj/PaperPipe/config"
	"github.com/SusheelSathyaraj/PaperPipe/monitoring"

	"github.com/go-sql-driver/mysql"
)

type MySQLClient struct {
	User     string
	Password string
	Host     string
	Port     int
	DBName   string
	DB       *sql.DB
}

// create a MySQL client using manual parameters, (for tests)
func NewMySQLClient(user, password, host string, port int, dbname string) *MySQLClient {
	return &MySQLClient{
		User:     user,
		Password: password,
		Host:     host,
		Port:     port,
		DBName:   dbname,
	}
}

// create a new MySQL client using config file
func NewMYSQLClientFromConfig(cfg *config.Config) *MySQLClient {
	return &MySQLClient{
		User:     cfg.MySQL.User,
		Password: cfg.MySQL.Password,
		Host:     cfg.MySQL.Host,
		Port:     cfg.MySQL.Port,
		DBName:   cfg.MySQL.DBName,
	}
}

// DSN for MySQL, format: user:password@tcp(host:port)/name
func (c *MySQLClient) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	cfg.DBName = c.DBName
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// to connect with the MySQL DB
func (c *MySQLClient) Connect() error {
	//open connection
	db, err := sql.Open("mysql", c.DSN())
	if err != nil {
		return fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	//test the connection
	if err = db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping to the MySQL database: %w", err)
	}

	c.DB = db

	monitoring.DefaultLogger.Info("Successfully connected to MySQL database %s", c.DBName)
	return nil
}

// closes the database connection
func (c *MySQLClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// removes every row of the table
func (c *MySQLClient) ResetTable(ctx context.Context, table string) error {
	if c.DB == nil {
		return fmt.Errorf("db connection not established")
	}
	query := "DELETE FROM " + quoteQualified(table, quoteMySQLIdentifier)
	if _, err := c.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to reset table %s: %w", table, err)
	}
	return nil
}

// appends the rows as a single multi-row INSERT inside one transaction
func (c *MySQLClient) AppendRows(ctx context.Context, table string, rows [][]interface{}) error {
	if c.DB == nil {
		return fmt.Errorf("db connection not established")
	}

	columns, data, err := splitHeader(rows)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	query, args := buildMySQLInsert(table, columns, data)

	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to append %d rows to %s: %w", len(data), table, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
