// Package auditstore persists audit records to PostgreSQL via GORM. It is
// the durable counterpart to audit.LogSink: operators who need to query
// audit history after the fact enable this sink in addition to, or instead
// of, the log sink.
package auditstore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config holds the PostgreSQL connection parameters for the audit store.
type Config struct {
	Host         string
	Port         int
	Database     string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN returns the PostgreSQL connection string for c.
func (c *Config) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode)
}

// ApplyDefaults fills in unset fields with conservative defaults.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
}

// AuditRecord is the GORM model backing the audit_records table.
type AuditRecord struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	RequestID  int64  `gorm:"index"`
	OpCode     string `gorm:"size:64;index"`
	Subject    string `gorm:"size:4096;index"`
	Subject2   string `gorm:"size:4096"`
	RemoteAddr string `gorm:"size:128"`
	Success    bool
	ErrorKind  string `gorm:"size:64"`
	DurationUS int64
	CreatedAt  time.Time `gorm:"index"`
}

// TableName pins the table name so renaming the Go type doesn't migrate
// the schema out from under existing data.
func (AuditRecord) TableName() string { return "audit_records" }

// Store wraps a GORM connection to the audit database.
type Store struct {
	db *gorm.DB
}

// Open connects to PostgreSQL using config and migrates the audit schema.
func Open(config Config) (*Store, error) {
	config.ApplyDefaults()

	db, err := gorm.Open(postgres.Open(config.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to audit database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)

	if err := db.AutoMigrate(&AuditRecord{}); err != nil {
		return nil, fmt.Errorf("migrate audit schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Insert writes one audit record.
func (s *Store) Insert(ctx context.Context, rec *AuditRecord) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

// Recent returns the most recent audit records for subject, newest first.
func (s *Store) Recent(ctx context.Context, subject string, limit int) ([]AuditRecord, error) {
	var records []AuditRecord
	err := s.db.WithContext(ctx).
		Where("subject = ? OR subject2 = ?", subject, subject).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
