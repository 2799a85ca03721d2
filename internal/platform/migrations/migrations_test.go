package migrations

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

var queryMatcherAny = sqlmock.QueryMatcherFunc(func(expectedSQL, actualSQL string) error {
	return nil
})

func TestApplyRunsEveryStatement(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(queryMatcherAny))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	for range statements {
		mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	if err := Apply(context.Background(), db); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestApplyStopsOnFirstFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(queryMatcherAny))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(".*").WillReturnError(fmt.Errorf("syntax error"))

	err = Apply(context.Background(), db)
	if err == nil {
		t.Fatal("expected error from second statement")
	}
	if !strings.Contains(err.Error(), "apply migration 2") {
		t.Fatalf("error should name the failing statement, got %v", err)
	}
}

func TestStatementsAreIdempotent(t *testing.T) {
	for i, stmt := range statements {
		if strings.Contains(stmt, "CREATE TABLE ") && !strings.Contains(stmt, "IF NOT EXISTS") {
			t.Fatalf("statement %d creates a table without IF NOT EXISTS", i+1)
		}
		if strings.Contains(stmt, "CREATE INDEX ") && !strings.Contains(stmt, "IF NOT EXISTS") {
			t.Fatalf("statement %d creates an index without IF NOT EXISTS", i+1)
		}
	}
}
