package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const videoColumns = `id, url, title, author, summary, transcript, created_at`

var sqliteDialect = dialect{
	name:              "sqlite",
	migrationTable:    `CREATE TABLE IF NOT EXISTS migration ("id" INTEGER PRIMARY KEY AUTOINCREMENT, "query" TEXT)`,
	registerMigration: `INSERT INTO migration (query) VALUES (?)`,
	migrations: []string{
		`CREATE TABLE video (
id TEXT PRIMARY KEY,
url TEXT NOT NULL,
title TEXT NOT NULL,
author TEXT NOT NULL,
summary TEXT NOT NULL,
transcript TEXT NOT NULL,
created_at INTEGER NOT NULL
)`,
		`CREATE INDEX video_created_at ON video (created_at)`,
	},
	upsert: `INSERT INTO video (` + videoColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
url = excluded.url,
title = excluded.title,
author = excluded.author,
summary = excluded.summary,
transcript = excluded.transcript,
created_at = excluded.created_at`,
	get:    `SELECT ` + videoColumns + ` FROM video WHERE id = ?`,
	list:   `SELECT ` + videoColumns + ` FROM video ORDER BY created_at DESC`,
	delete: `DELETE FROM video WHERE id = ?`,
	clear:  `DELETE FROM video`,
	timeValue: func(t time.Time) any {
		return t.UnixNano()
	},
}

// NewSQLite opens the sqlite database at path, creating the file if needed.
func NewSQLite(ctx context.Context, path string) (*SQL, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("could not open sqlite database: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not configure sqlite database: %w", err)
	}

	return newSQL(db, sqliteDialect), nil
}
