package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"xdrip-watch/common/config"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

const (
	pingTimeout = 5 * time.Second

	// 读数每 5 分钟一条，连接池保持很小
	defaultMaxConns = 5
	defaultMaxIdle  = 2
	connMaxLifetime = 30 * time.Minute
)

// NewPostgresDB 打开 PostgreSQL 连接池并确认可用
func NewPostgresDB(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	return open(ctx, "postgres", cfg.GetDSN(), cfg)
}

func open(ctx context.Context, driver, dsn string, cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxConns, maxIdle := defaultMaxConns, defaultMaxIdle
	if cfg.MaxConns > 0 {
		maxConns = cfg.MaxConns
	}
	if cfg.MaxIdle > 0 {
		maxIdle = cfg.MaxIdle
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(min(maxIdle, maxConns))
	db.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Database, err)
	}

	return db, nil
}

// EnsureSchema 创建读数表与传感器表（幂等），启动时调用
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// schemaStatements 按分号拆分 schema.sql，去掉注释行
func schemaStatements() []string {
	var stmts []string
	for _, chunk := range strings.Split(schemaSQL, ";") {
		var lines []string
		for _, line := range strings.Split(chunk, "\n") {
			if t := strings.TrimSpace(line); t != "" && !strings.HasPrefix(t, "--") {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			stmts = append(stmts, strings.Join(lines, "\n"))
		}
	}
	return stmts
}

// Close 关闭数据库连接
func Close(db *sql.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
