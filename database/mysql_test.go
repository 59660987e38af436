package database

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

var testRows = [][]interface{}{
	{"paper_id", "raw_id", "key", "value"},
	{35, 1, "dose", "10"},
	{35, 1, "effect", "high"},
}

func newMockMySQL(t *testing.T) (*MySQLClient, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &MySQLClient{DB: db}, mock
}

func TestMySQLAppendRows(t *testing.T) {
	client, mock := newMockMySQL(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `raw_key_value` (`paper_id`, `raw_id`, `key`, `value`) VALUES (?, ?, ?, ?), (?, ?, ?, ?)").
		WithArgs(35, 1, "dose", "10", 35, 1, "effect", "high").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	if err := client.AppendRows(context.Background(), "raw_key_value", testRows); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestMySQLAppendRowsRollsBackOnFailure(t *testing.T) {
	client, mock := newMockMySQL(t)
	boom := errors.New("packet too large")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `ndb`.`raw_kv` (`paper_id`, `raw_id`, `key`, `value`) VALUES (?, ?, ?, ?), (?, ?, ?, ?)").
		WillReturnError(boom)
	mock.ExpectRollback()

	err := client.AppendRows(context.Background(), "ndb.raw_kv", testRows)
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped driver error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestMySQLAppendHeaderOnly(t *testing.T) {
	client, mock := newMockMySQL(t)

	if err := client.AppendRows(context.Background(), "raw_key_value", testRows[:1]); err != nil {
		t.Errorf("Expected header only append to be a no-op, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Expected no statements, got %v", err)
	}
}

func TestMySQLResetTable(t *testing.T) {
	client, mock := newMockMySQL(t)

	mock.ExpectExec("DELETE FROM `raw_key_value`").WillReturnResult(sqlmock.NewResult(0, 12))

	if err := client.ResetTable(context.Background(), "raw_key_value"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestMySQLWithoutConnection(t *testing.T) {
	client := NewMySQLClient("user", "pass", "localhost", 3306, "ndb")

	if err := client.AppendRows(context.Background(), "t", testRows); err == nil {
		t.Errorf("Expected error without connection")
	}
	if err := client.ResetTable(context.Background(), "t"); err == nil {
		t.Errorf("Expected error without connection")
	}
}

func TestMySQLDSN(t *testing.T) {
	client := NewMySQLClient("ndb", "s3cret", "db.local", 3307, "variants")

	expected := "ndb:s3cret@tcp(db.local:3307)/variants?parseTime=true"
	if got := client.DSN(); got != expected {
		t.Errorf("Expected DSN %s, got %s", expected, got)
	}
}

func TestQuoteMySQLIdentifier(t *testing.T) {
	tests := []struct {
		in     string
		expect string
	}{
		{"raw_kv", "`raw_kv`"},
		{"odd`name", "`odd``name`"},
		{"ndb.raw_kv", "`ndb`.`raw_kv`"},
	}

	for i, tc := range tests {
		if got := quoteQualified(tc.in, quoteMySQLIdentifier); got != tc.expect {
			t.Errorf("[Test case: %d] quote(%s) expected %s, got %s", i+1, tc.in, tc.expect, got)
		}
	}
}

func TestMySQLConnection(t *testing.T) {
	//Ensure environment variables are all fetched

	dbuser := os.Getenv("MYSQL_USER")
	dbpass := os.Getenv("MYSQL_PASS")
	dbname := os.Getenv("MYSQL_NAME")
	dbhost := os.Getenv("MYSQL_HOST")
	dbport := os.Getenv("MYSQL_PORT")

	//if any env variable is missing, skip test
	if dbuser == "" || dbpass == "" || dbname == "" || dbhost == "" || dbport == "" {
		t.Skip("Skipping Tests: All of the Environment Variables must be present")
	}

	port, err := strconv.Atoi(dbport)
	if err != nil {
		t.Fatalf("invalid MYSQL_PORT %q", dbport)
	}

	client := NewMySQLClient(dbuser, dbpass, dbhost, port, dbname)
	if err := client.Connect(); err != nil {
		t.Fatalf("Failed to connect to the MySQL database %v", err)
	}
	defer client.Close()

	t.Log("Successfully connected to MySQL database")
}
