package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/ridgeline-health/notegen/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It backs local
// development and single-practice deployments that do not run Postgres.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS ai_note_settings (
	id                           TEXT PRIMARY KEY,
	enabled                      INTEGER NOT NULL DEFAULT 0,
	provider                     TEXT NOT NULL DEFAULT 'openai',
	model                        TEXT NOT NULL DEFAULT '',
	minimum_confidence_threshold REAL NOT NULL DEFAULT 0.7,
	risk_assessment_enabled      INTEGER NOT NULL DEFAULT 0,
	updated_at                   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS clients (
	id            TEXT PRIMARY KEY,
	first_name    TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL DEFAULT '',
	date_of_birth TEXT,
	pronouns      TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS note_templates (
	id                 TEXT PRIMARY KEY,
	note_type          TEXT NOT NULL,
	note_format        TEXT NOT NULL,
	is_default         INTEGER NOT NULL DEFAULT 0,
	template_structure TEXT,
	ai_prompts         TEXT,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS ai_generation_audit (
	id                 TEXT PRIMARY KEY,
	request_type       TEXT NOT NULL,
	model_used         TEXT NOT NULL DEFAULT '',
	input_length       INTEGER NOT NULL DEFAULT 0,
	output_length      INTEGER NOT NULL DEFAULT 0,
	processing_time_ms INTEGER NOT NULL DEFAULT 0,
	confidence_score   REAL NOT NULL DEFAULT 0,
	success            INTEGER NOT NULL,
	error              TEXT NOT NULL DEFAULT '',
	created_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_note_templates_lookup ON note_templates(note_type, note_format, is_default, created_at);
CREATE INDEX IF NOT EXISTS idx_ai_generation_audit_created_at ON ai_generation_audit(created_at);
CREATE INDEX IF NOT EXISTS idx_ai_generation_audit_request_type ON ai_generation_audit(request_type);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetSettings(ctx context.Context) (*model.AISettings, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, enabled, provider, model, minimum_confidence_threshold, risk_assessment_enabled, updated_at FROM ai_note_settings ORDER BY updated_at DESC LIMIT 1`,
	)

	var st model.AISettings
	err := row.Scan(&st.ID, &st.Enabled, &st.Provider, &st.Model, &st.MinimumConfidenceThreshold, &st.RiskAssessmentEnabled, &st.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get settings")
	}
	return &st, nil
}

// UpsertSettings writes a settings row, used by local setup and tests. The
// production settings editor lives in the practice-management UI.
func (s *SQLiteStore) UpsertSettings(ctx context.Context, st model.AISettings) error {
	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ai_note_settings (id, enabled, provider, model, minimum_confidence_threshold, risk_assessment_enabled, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			enabled = excluded.enabled,
			provider = excluded.provider,
			model = excluded.model,
			minimum_confidence_threshold = excluded.minimum_confidence_threshold,
			risk_assessment_enabled = excluded.risk_assessment_enabled,
			updated_at = excluded.updated_at`,
		st.ID, st.Enabled, st.Provider, st.Model, st.MinimumConfidenceThreshold, st.RiskAssessmentEnabled, st.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: upsert settings")
}

func (s *SQLiteStore) GetClient(ctx context.Context, clientID string) (*model.Client, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, first_name, last_name, date_of_birth, pronouns, created_at FROM clients WHERE id = ?`,
		clientID,
	)

	var c model.Client
	var dob sql.NullString
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &dob, &c.Pronouns, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get client %s", clientID)
	}
	if dob.Valid && dob.String != "" {
		parsed, err := parseDateOfBirth(dob.String)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: client %s date_of_birth", clientID)
		}
		c.DateOfBirth = &parsed
	}
	return &c, nil
}

// parseDateOfBirth accepts a bare date or a full datetime string; only the
// date portion matters for age calculation.
func parseDateOfBirth(raw string) (time.Time, error) {
	if len(raw) > 10 {
		raw = raw[:10]
	}
	return time.Parse("2006-01-02", raw)
}

func (s *SQLiteStore) FindDefaultTemplate(ctx context.Context, noteType, noteFormat string) (*model.NoteTemplate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, note_type, note_format, is_default, template_structure, ai_prompts, created_at FROM note_templates WHERE note_type = ? AND note_format = ? AND is_default ORDER BY created_at DESC LIMIT 1`,
		noteType, noteFormat,
	)

	var t model.NoteTemplate
	var structure, prompts sql.NullString
	err := row.Scan(&t.ID, &t.NoteType, &t.NoteFormat, &t.IsDefault, &structure, &prompts, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find template %s/%s", noteType, noteFormat)
	}
	if structure.Valid {
		t.TemplateStructure = []byte(structure.String)
	}
	if prompts.Valid {
		t.AIPrompts = []byte(prompts.String)
	}
	return &t, nil
}

// InsertTemplate writes a template row, used by local setup and tests.
func (s *SQLiteStore) InsertTemplate(ctx context.Context, t model.NoteTemplate) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO note_templates (id, note_type, note_format, is_default, template_structure, ai_prompts, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.NoteType, t.NoteFormat, t.IsDefault, nullableJSON(t.TemplateStructure), nullableJSON(t.AIPrompts), t.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert template")
}

// InsertClient writes a client row, used by local setup and tests.
func (s *SQLiteStore) InsertClient(ctx context.Context, c model.Client) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	var dob any
	if c.DateOfBirth != nil {
		dob = c.DateOfBirth.Format("2006-01-02")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clients (id, first_name, last_name, date_of_birth, pronouns, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.FirstName, c.LastName, dob, c.Pronouns, c.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert client")
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func (s *SQLiteStore) InsertAudit(ctx context.Context, entry model.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ai_generation_audit (id, request_type, model_used, input_length, output_length, processing_time_ms, confidence_score, success, error, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.RequestType, entry.ModelUsed, entry.InputLength, entry.OutputLength,
		entry.ProcessingTimeMS, entry.ConfidenceScore, entry.Success, entry.Error, entry.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert audit")
}

func (s *SQLiteStore) ListAudit(ctx context.Context, filter AuditFilter) ([]model.AuditEntry, error) {
	query := `SELECT id, request_type, model_used, input_length, output_length, processing_time_ms, confidence_score, success, error, created_at FROM ai_generation_audit WHERE 1=1`
	var args []any

	if filter.RequestType != "" {
		query += ` AND request_type = ?`
		args = append(args, filter.RequestType)
	}
	if !filter.CreatedAfter.IsZero() {
		query += ` AND created_at > ?`
		args = append(args, filter.CreatedAfter)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list audit")
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.ID, &e.RequestType, &e.ModelUsed, &e.InputLength, &e.OutputLength,
			&e.ProcessingTimeMS, &e.ConfidenceScore, &e.Success, &e.Error, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan audit entry")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: iterate audit entries")
}
