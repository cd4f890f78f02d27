package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/ridgeline-health/notegen/internal/db"
	"github.com/ridgeline-health/notegen/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// the per-request hot path (settings, client, template reads; audit write).
var preparedStatements = map[string]string{
	"get_settings":  `SELECT id, enabled, provider, model, minimum_confidence_threshold, risk_assessment_enabled, updated_at FROM ai_note_settings ORDER BY updated_at DESC LIMIT 1`,
	"get_client":    `SELECT id, first_name, last_name, date_of_birth, pronouns, created_at FROM clients WHERE id = $1`,
	"find_template": `SELECT id, note_type, note_format, is_default, template_structure, ai_prompts, created_at FROM note_templates WHERE note_type = $1 AND note_format = $2 AND is_default ORDER BY created_at DESC LIMIT 1`,
	"insert_audit":  `INSERT INTO ai_generation_audit (id, request_type, model_used, input_length, output_length, processing_time_ms, confidence_score, success, error, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS ai_note_settings (
	id                           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	enabled                      BOOLEAN NOT NULL DEFAULT false,
	provider                     TEXT NOT NULL DEFAULT 'openai',
	model                        TEXT NOT NULL DEFAULT '',
	minimum_confidence_threshold DOUBLE PRECISION NOT NULL DEFAULT 0.7,
	risk_assessment_enabled      BOOLEAN NOT NULL DEFAULT false,
	updated_at                   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS clients (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	first_name    TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL DEFAULT '',
	date_of_birth DATE,
	pronouns      TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS note_templates (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	note_type          TEXT NOT NULL,
	note_format        TEXT NOT NULL,
	is_default         BOOLEAN NOT NULL DEFAULT false,
	template_structure JSONB,
	ai_prompts         JSONB,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ai_generation_audit (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	request_type       TEXT NOT NULL,
	model_used         TEXT NOT NULL DEFAULT '',
	input_length       INTEGER NOT NULL DEFAULT 0,
	output_length      INTEGER NOT NULL DEFAULT 0,
	processing_time_ms BIGINT NOT NULL DEFAULT 0,
	confidence_score   DOUBLE PRECISION NOT NULL DEFAULT 0,
	success            BOOLEAN NOT NULL,
	error              TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_note_templates_lookup ON note_templates(note_type, note_format, is_default, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_ai_generation_audit_created_at ON ai_generation_audit(created_at);
CREATE INDEX IF NOT EXISTS idx_ai_generation_audit_request_type ON ai_generation_audit(request_type);
`

// Migrate creates the pipeline's tables.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// GetSettings returns the most recently updated AI settings row, or nil
// when no row exists.
func (s *PostgresStore) GetSettings(ctx context.Context) (*model.AISettings, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, enabled, provider, model, minimum_confidence_threshold, risk_assessment_enabled, updated_at FROM ai_note_settings ORDER BY updated_at DESC LIMIT 1`,
	)

	var st model.AISettings
	err := row.Scan(&st.ID, &st.Enabled, &st.Provider, &st.Model, &st.MinimumConfidenceThreshold, &st.RiskAssessmentEnabled, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get settings")
	}
	return &st, nil
}

// GetClient returns one client's demographic fields, or nil when the id is
// unknown.
func (s *PostgresStore) GetClient(ctx context.Context, clientID string) (*model.Client, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, first_name, last_name, date_of_birth, pronouns, created_at FROM clients WHERE id = $1`,
		clientID,
	)

	var c model.Client
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.DateOfBirth, &c.Pronouns, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get client %s", clientID)
	}
	return &c, nil
}

// FindDefaultTemplate returns the default template for the pair, breaking
// duplicate-default ties by most recent created_at. Returns nil when no
// default exists.
func (s *PostgresStore) FindDefaultTemplate(ctx context.Context, noteType, noteFormat string) (*model.NoteTemplate, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, note_type, note_format, is_default, template_structure, ai_prompts, created_at FROM note_templates WHERE note_type = $1 AND note_format = $2 AND is_default ORDER BY created_at DESC LIMIT 1`,
		noteType, noteFormat,
	)

	var t model.NoteTemplate
	err := row.Scan(&t.ID, &t.NoteType, &t.NoteFormat, &t.IsDefault, &t.TemplateStructure, &t.AIPrompts, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: find template %s/%s", noteType, noteFormat)
	}
	return &t, nil
}

// InsertAudit appends one audit row.
func (s *PostgresStore) InsertAudit(ctx context.Context, entry model.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO ai_generation_audit (id, request_type, model_used, input_length, output_length, processing_time_ms, confidence_score, success, error, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID, entry.RequestType, entry.ModelUsed, entry.InputLength, entry.OutputLength,
		entry.ProcessingTimeMS, entry.ConfidenceScore, entry.Success, entry.Error, entry.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert audit")
}

// ListAudit returns audit entries matching the filter, newest first.
func (s *PostgresStore) ListAudit(ctx context.Context, filter AuditFilter) ([]model.AuditEntry, error) {
	query := `SELECT id, request_type, model_used, input_length, output_length, processing_time_ms, confidence_score, success, error, created_at FROM ai_generation_audit WHERE 1=1`
	var args []any

	if filter.RequestType != "" {
		args = append(args, filter.RequestType)
		query += ` AND request_type = $1`
	}
	if !filter.CreatedAfter.IsZero() {
		args = append(args, filter.CreatedAfter)
		query += ` AND created_at > $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list audit")
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.ID, &e.RequestType, &e.ModelUsed, &e.InputLength, &e.OutputLength,
			&e.ProcessingTimeMS, &e.ConfidenceScore, &e.Success, &e.Error, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan audit entry")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: iterate audit entries")
}
