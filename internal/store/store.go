package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/panyeroa1/orbit-translator/internal/config"
	_ "modernc.org/sqlite"
)

// Record is the normalized view of one source row, regardless of which
// schema variant produced it.
type Record struct {
	ID         string
	Text       string
	SourceText string
	Language   string
	UpdatedAt  time.Time
}

// Store wraps the SQLite-backed source table the bridge watches.
type Store struct {
	db    *sql.DB
	cfg   config.StoreConfig
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the source store according to config.
func Open(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (*Store, error) {
	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, cfg: cfg, log: log, clock: time.Now}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if cfg.VacuumOnStart {
		if err := s.vacuum(ctx); err != nil {
			log.Warn("source store vacuum failed", slog.String("error", err.Error()))
		}
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS translations (
    id TEXT PRIMARY KEY,
    source_text TEXT NOT NULL,
    translated_text TEXT,
    target_language TEXT,
    updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_translations_updated ON translations(updated_at);
CREATE TABLE IF NOT EXISTS session_transcripts (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    full_transcript_text TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_session_transcripts_updated ON session_transcripts(updated_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

func (s *Store) vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// FetchLatest returns the most recently updated row of the watched table,
// normalized, or nil when the table is empty.
func (s *Store) FetchLatest(ctx context.Context) (*Record, error) {
	switch s.cfg.Table {
	case "translations":
		return s.fetchLatestTranslation(ctx)
	case "session_transcripts":
		return s.fetchLatestSessionTranscript(ctx)
	default:
		return nil, fmt.Errorf("unknown source table %q", s.cfg.Table)
	}
}

func (s *Store) fetchLatestTranslation(ctx context.Context) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source_text, COALESCE(translated_text, ''), COALESCE(target_language, ''), updated_at
		 FROM translations ORDER BY updated_at DESC, id DESC LIMIT 1`)

	var (
		id, sourceText, translatedText, language, updated string
	)
	if err := row.Scan(&id, &sourceText, &translatedText, &language, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return normalizeTranslation(id, sourceText, translatedText, language, parseTimestamp(updated)), nil
}

func (s *Store) fetchLatestSessionTranscript(ctx context.Context) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, full_transcript_text, updated_at
		 FROM session_transcripts ORDER BY updated_at DESC, id DESC LIMIT 1`)

	var id, text, updated string
	if err := row.Scan(&id, &text, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return normalizeSessionTranscript(id, text, parseTimestamp(updated)), nil
}

// UpsertTranslation writes a translations row, generating an id when none
// is given, and returns the normalized record.
func (s *Store) UpsertTranslation(ctx context.Context, id, sourceText, translatedText, language string) (*Record, error) {
	if id == "" {
		id = uuid.NewString()
	}
	updated := s.clock().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO translations(id, source_text, translated_text, target_language, updated_at)
		 VALUES(?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   source_text=excluded.source_text,
		   translated_text=excluded.translated_text,
		   target_language=excluded.target_language,
		   updated_at=excluded.updated_at`,
		id, sourceText, translatedText, language, updated)
	if err != nil {
		return nil, err
	}
	return normalizeTranslation(id, sourceText, translatedText, language, updated), nil
}

// UpsertSessionTranscript writes a session_transcripts row and returns the
// normalized record.
func (s *Store) UpsertSessionTranscript(ctx context.Context, id, sessionID, text string) (*Record, error) {
	if id == "" {
		id = uuid.NewString()
	}
	updated := s.clock().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_transcripts(id, session_id, full_transcript_text, updated_at)
		 VALUES(?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   session_id=excluded.session_id,
		   full_transcript_text=excluded.full_transcript_text,
		   updated_at=excluded.updated_at`,
		id, sessionID, text, updated)
	if err != nil {
		return nil, err
	}
	return normalizeSessionTranscript(id, text, updated), nil
}

func parseTimestamp(value string) time.Time {
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse("2006-01-02 15:04:05.999999999-07:00", value); err == nil {
		return ts
	}
	return time.Time{}
}
