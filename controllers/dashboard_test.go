package controllers

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"log"
	"os"
	"strings"
	"testing"

	"document-approval-api/config"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type brokenDriver struct{}

func (brokenDriver) Open(string) (driver.Conn, error) { return brokenConn{}, nil }

type brokenConn struct{}

func (brokenConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("prepare failed") }

func (brokenConn) Close() error { return nil }

func (brokenConn) Begin() (driver.Tx, error) { return nil, errors.New("begin failed") }

func (brokenConn) QueryContext(context.Context, string, []driver.NamedValue) (driver.Rows, error) {
	return nil, errors.New("query failed")
}

func (brokenConn) ExecContext(context.Context, string, []driver.NamedValue) (driver.Result, error) {
	return nil, errors.New("exec failed")
}

func newBrokenGormDB(t *testing.T) *gorm.DB {
	t.Helper()
	sql.Register(t.Name(), brokenDriver{})
	sqlDB, err := sql.Open(t.Name(), "")
	if err != nil {
		t.Fatalf("failed to open sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create gorm db: %v", err)
	}
	return gormDB
}

func TestDashboardLogsFailedQueries(t *testing.T) {
	prevDB := config.DB
	config.DB = newBrokenGormDB(t)
	defer func() { config.DB = prevDB }()

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	uploaderStats := getUploaderDashboard(5)
	approverStats := getApproverDashboard(3, 3)

	// Failed queries still render zero-valued stats rather than crashing.
	if uploaderStats["my_documents_total"].(int64) != 0 {
		t.Fatalf("expected zeroed uploader stats, got %v", uploaderStats)
	}
	if approverStats["my_pending_approvals"].(int64) != 0 {
		t.Fatalf("expected zeroed approver stats, got %v", approverStats)
	}

	logged := buf.String()
	if !strings.Contains(logged, "dashboard query failed") {
		t.Fatalf("expected failed queries to be logged, got: %q", logged)
	}
}
