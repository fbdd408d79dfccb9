package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ewintr.nl/ytsum/model"
)

type dialect struct {
	name              string
	migrationTable    string
	registerMigration string
	migrations        []string
	upsert            string
	get               string
	list              string
	delete            string
	clear             string
	// timeValue converts the write time to the column representation
	timeValue func(time.Time) any
}

// SQL is a HistoryStore on top of database/sql. The dialect takes care of
// the differences between sqlite and postgres.
type SQL struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

func newSQL(db *sql.DB, d dialect) *SQL {
	return &SQL{
		db:      db,
		dialect: d,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *SQL) Init(ctx context.Context) error {
	if err := migrate(ctx, s.db, s.dialect); err != nil {
		return fmt.Errorf("could not migrate %s: %w", s.dialect.name, err)
	}
	return nil
}

// Upsert inserts the video or fully replaces the existing row with the same
// id. CreatedAt is set to the time of the write.
func (s *SQL) Upsert(ctx context.Context, video *model.VideoRecord) error {
	createdAt := s.now()
	if _, err := s.db.ExecContext(ctx, s.dialect.upsert,
		string(video.ID),
		video.URL,
		video.Title,
		video.Author,
		video.Summary,
		video.Transcript,
		s.dialect.timeValue(createdAt),
	); err != nil {
		return fmt.Errorf("could not save video %s: %w", video.ID, err)
	}
	video.CreatedAt = createdAt

	return nil
}

func (s *SQL) Get(ctx context.Context, id model.YoutubeVideoID) (model.VideoRecord, error) {
	video, err := scanVideo(s.db.QueryRowContext(ctx, s.dialect.get, string(id)))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return model.VideoRecord{}, ErrNotFound
	case err != nil:
		return model.VideoRecord{}, fmt.Errorf("could not get video %s: %w", id, err)
	}

	return video, nil
}

func (s *SQL) List(ctx context.Context) ([]model.VideoRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.list)
	if err != nil {
		return nil, fmt.Errorf("could not list videos: %w", err)
	}
	defer rows.Close()

	videos := []model.VideoRecord{}
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not list videos: %w", err)
	}

	return videos, nil
}

func (s *SQL) Delete(ctx context.Context, id model.YoutubeVideoID) (bool, error) {
	result, err := s.db.ExecContext(ctx, s.dialect.delete, string(id))
	if err != nil {
		return false, fmt.Errorf("could not delete video %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (s *SQL) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.clear); err != nil {
		return fmt.Errorf("could not clear videos: %w", err)
	}
	return nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVideo(row scanner) (model.VideoRecord, error) {
	var (
		video     model.VideoRecord
		id        string
		createdAt timeColumn
	)
	if err := row.Scan(&id, &video.URL, &video.Title, &video.Author, &video.Summary, &video.Transcript, &createdAt); err != nil {
		return model.VideoRecord{}, err
	}
	video.ID = model.YoutubeVideoID(id)
	video.CreatedAt = createdAt.Time

	return video, nil
}

// timeColumn reads both unix nanoseconds (sqlite) and timestamps (postgres).
type timeColumn struct {
	time.Time
}

func (tc *timeColumn) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		tc.Time = time.Unix(0, v).UTC()
	case time.Time:
		tc.Time = v.UTC()
	case nil:
		tc.Time = time.Time{}
	default:
		return fmt.Errorf("unsupported time value %T", src)
	}
	return nil
}
