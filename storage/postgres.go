package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

var pgDialect = dialect{
	name:              "postgres",
	migrationTable:    `CREATE TABLE IF NOT EXISTS migration ("id" SERIAL PRIMARY KEY, "query" TEXT)`,
	registerMigration: `INSERT INTO migration (query) VALUES ($1)`,
	migrations: []string{
		`CREATE TABLE video (
id VARCHAR(64) PRIMARY KEY,
url VARCHAR(255) NOT NULL,
title TEXT NOT NULL,
author TEXT NOT NULL,
summary TEXT NOT NULL,
transcript TEXT NOT NULL,
created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		`CREATE INDEX video_created_at ON video (created_at DESC)`,
	},
	upsert: `INSERT INTO video (` + videoColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
url = EXCLUDED.url,
title = EXCLUDED.title,
author = EXCLUDED.author,
summary = EXCLUDED.summary,
transcript = EXCLUDED.transcript,
created_at = EXCLUDED.created_at`,
	get:    `SELECT ` + videoColumns + ` FROM video WHERE id = $1`,
	list:   `SELECT ` + videoColumns + ` FROM video ORDER BY created_at DESC`,
	delete: `DELETE FROM video WHERE id = $1`,
	clear:  `DELETE FROM video`,
	timeValue: func(t time.Time) any {
		return t
	},
}

type PostgresInfo struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

func (pi PostgresInfo) dsn() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", pi.Host, pi.Port, pi.User, pi.Password, pi.Database)
}

func NewPostgres(ctx context.Context, pgInfo PostgresInfo) (*SQL, error) {
	db, err := sql.Open("postgres", pgInfo.dsn())
	if err != nil {
		return nil, fmt.Errorf("could not open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not reach postgres: %w", err)
	}

	return newSQL(db, pgDialect), nil
}
