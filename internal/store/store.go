// Package store provides the SQLite datastore for raw chat and progress rows.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/cpulse/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Store wraps the cpulse database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertMessages stores msgs in one transaction. Rows with an existing ID
// are replaced, so re-importing the same export is a no-op.
func (s *Store) InsertMessages(ctx context.Context, msgs []model.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO chat_messages
		(id, student_id, creator_id, role, content, created_at,
		 input_tokens, output_tokens, model, response_time_ms,
		 has_video_citations, video_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, m := range msgs {
		videos, err := encodeVideoIDs(m.VideoIDs)
		if err != nil {
			return fmt.Errorf("encoding video ids for %s: %w", m.ID, err)
		}
		_, err = stmt.ExecContext(ctx,
			m.ID, m.StudentID, m.CreatorID, string(m.Role), m.Content, m.CreatedAt.UnixNano(),
			nullInt(m.InputTokens), nullInt(m.OutputTokens), nullString(m.Model), nullInt(m.ResponseTimeMs),
			boolInt(m.HasVideoCitations), videos,
		)
		if err != nil {
			return fmt.Errorf("inserting message %s: %w", m.ID, err)
		}
	}

	return tx.Commit()
}

// UpsertProgress stores progress rows, keeping the most recently updated
// row per (creator, student).
func (s *Store) UpsertProgress(ctx context.Context, rows []model.StudentProgress) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range rows {
		_, err = tx.ExecContext(ctx, `INSERT INTO student_progress
			(creator_id, student_id, video_completion_rate, course_progress, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(creator_id, student_id) DO UPDATE SET
				video_completion_rate = excluded.video_completion_rate,
				course_progress = excluded.course_progress,
				updated_at = excluded.updated_at
			WHERE excluded.updated_at >= student_progress.updated_at`,
			p.CreatorID, p.StudentID, p.VideoCompletionRate, p.CourseProgress, unixNano(p.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("upserting progress for %s: %w", p.StudentID, err)
		}
	}

	return tx.Commit()
}

// Filter narrows LoadMessages. Zero fields match everything; the time
// bounds are [Since, Until).
type Filter struct {
	CreatorID string
	StudentID string
	Since     time.Time
	Until     time.Time
}

// LoadMessages returns matching messages ordered by time, then ID.
func (s *Store) LoadMessages(ctx context.Context, f Filter) ([]model.ChatMessage, error) {
	var (
		where []string
		args  []any
	)
	if f.CreatorID != "" {
		where = append(where, "creator_id = ?")
		args = append(args, f.CreatorID)
	}
	if f.StudentID != "" {
		where = append(where, "student_id = ?")
		args = append(args, f.StudentID)
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.Since.UnixNano())
	}
	if !f.Until.IsZero() {
		where = append(where, "created_at < ?")
		args = append(args, f.Until.UnixNano())
	}

	q := `SELECT id, student_id, creator_id, role, content, created_at,
		input_tokens, output_tokens, model, response_time_ms,
		has_video_citations, video_ids
		FROM chat_messages`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var msgs []model.ChatMessage
	for rows.Next() {
		var (
			m                 model.ChatMessage
			role              string
			createdAt         int64
			in, out, respTime sql.NullInt64
			modelName         sql.NullString
			hasCitations      int
			videos            string
		)
		err := rows.Scan(&m.ID, &m.StudentID, &m.CreatorID, &role, &m.Content, &createdAt,
			&in, &out, &modelName, &respTime, &hasCitations, &videos)
		if err != nil {
			return nil, err
		}
		m.Role = model.Role(role)
		m.CreatedAt = time.Unix(0, createdAt).UTC()
		m.InputTokens = fromNullInt(in)
		m.OutputTokens = fromNullInt(out)
		m.ResponseTimeMs = fromNullInt(respTime)
		m.Model = modelName.String
		m.HasVideoCitations = hasCitations != 0
		if m.VideoIDs, err = decodeVideoIDs(videos); err != nil {
			return nil, fmt.Errorf("decoding video ids for %s: %w", m.ID, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// LoadProgress returns the progress rows of a creator's students, ordered
// by student ID.
func (s *Store) LoadProgress(ctx context.Context, creatorID string) ([]model.StudentProgress, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT creator_id, student_id,
		video_completion_rate, course_progress, updated_at
		FROM student_progress WHERE creator_id = ? ORDER BY student_id`, creatorID)
	if err != nil {
		return nil, fmt.Errorf("querying progress: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.StudentProgress
	for rows.Next() {
		var p model.StudentProgress
		var updated int64
		if err := rows.Scan(&p.CreatorID, &p.StudentID, &p.VideoCompletionRate, &p.CourseProgress, &updated); err != nil {
			return nil, err
		}
		if updated != 0 {
			p.UpdatedAt = time.Unix(0, updated).UTC()
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Creators returns every creator ID that has messages or progress rows.
func (s *Store) Creators(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT creator_id FROM chat_messages
		UNION SELECT creator_id FROM student_progress ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("querying creators: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MessageCount returns the number of stored messages.
func (s *Store) MessageCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chat_messages").Scan(&count)
	return count, err
}

// FileInfo holds the tracked mtime and size of an imported file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// TrackedFiles returns file_path -> FileInfo for every imported file.
func (s *Store) TrackedFiles(ctx context.Context) (map[string]FileInfo, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT file_path, mtime_ns, size_bytes FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// TrackFile records that path was imported at the given mtime and size.
func (s *Store) TrackFile(ctx context.Context, path string, fi FileInfo) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO file_tracker (file_path, mtime_ns, size_bytes)
		VALUES (?, ?, ?)`, path, fi.MtimeNs, fi.SizeBytes)
	return err
}

func encodeVideoIDs(ids []string) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}
	b, err := json.Marshal(ids)
	return string(b), err
}

func decodeVideoIDs(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var ids []string
	err := json.Unmarshal([]byte(s), &ids)
	return ids, err
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func fromNullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return model.Int64(v.Int64)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}
