package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-health/notegen/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetSettings_MissingRowIsNil(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, enabled, provider, model, minimum_confidence_threshold, risk_assessment_enabled, updated_at FROM ai_note_settings`).
		WillReturnError(pgx.ErrNoRows)

	settings, err := s.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Nil(t, settings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSettings(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{"id", "enabled", "provider", "model", "minimum_confidence_threshold", "risk_assessment_enabled", "updated_at"}).
		AddRow("s-1", true, "anthropic", "claude-sonnet-4-5-20250929", 0.7, true, now)
	mock.ExpectQuery(`FROM ai_note_settings ORDER BY updated_at DESC LIMIT 1`).
		WillReturnRows(rows)

	settings, err := s.GetSettings(context.Background())
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.True(t, settings.Enabled)
	assert.Equal(t, "anthropic", settings.Provider)
	assert.Equal(t, 0.7, settings.MinimumConfidenceThreshold)
	assert.True(t, settings.RiskAssessmentEnabled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetClient_MissingRowIsNil(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM clients WHERE id = \$1`).
		WithArgs("unknown-client").
		WillReturnError(pgx.ErrNoRows)

	client, err := s.GetClient(context.Background(), "unknown-client")
	require.NoError(t, err)
	assert.Nil(t, client)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetClient(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	dob := time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{"id", "first_name", "last_name", "date_of_birth", "pronouns", "created_at"}).
		AddRow("c-1", "Jordan", "Reyes", &dob, "they/them", now)
	mock.ExpectQuery(`FROM clients WHERE id = \$1`).
		WithArgs("c-1").
		WillReturnRows(rows)

	client, err := s.GetClient(context.Background(), "c-1")
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, "Jordan", client.FirstName)
	require.NotNil(t, client.DateOfBirth)
	assert.Equal(t, dob, *client.DateOfBirth)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindDefaultTemplate_MissingRowIsNil(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM note_templates WHERE note_type = \$1 AND note_format = \$2 AND is_default`).
		WithArgs("progress_note", "soap").
		WillReturnError(pgx.ErrNoRows)

	tmpl, err := s.FindDefaultTemplate(context.Background(), "progress_note", "soap")
	require.NoError(t, err)
	assert.Nil(t, tmpl)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindDefaultTemplate(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{"id", "note_type", "note_format", "is_default", "template_structure", "ai_prompts", "created_at"}).
		AddRow("t-1", "progress_note", "soap", true, []byte(`{}`), []byte(`{"system":"You are a clinical scribe."}`), now)
	mock.ExpectQuery(`FROM note_templates .* ORDER BY created_at DESC LIMIT 1`).
		WithArgs("progress_note", "soap").
		WillReturnRows(rows)

	tmpl, err := s.FindDefaultTemplate(context.Background(), "progress_note", "soap")
	require.NoError(t, err)
	require.NotNil(t, tmpl)
	assert.True(t, tmpl.IsDefault)

	prompts, err := tmpl.Prompts()
	require.NoError(t, err)
	assert.Equal(t, "You are a clinical scribe.", prompts.System)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertAudit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO ai_generation_audit`).
		WithArgs(pgxmock.AnyArg(), model.AuditRequestClinicalNote, "gpt-5", 1200, 3400, int64(850), 0.85, true, "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.InsertAudit(context.Background(), model.AuditEntry{
		RequestType:      model.AuditRequestClinicalNote,
		ModelUsed:        "gpt-5",
		InputLength:      1200,
		OutputLength:     3400,
		ProcessingTimeMS: 850,
		ConfidenceScore:  0.85,
		Success:          true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertAudit_FailureRow(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO ai_generation_audit`).
		WithArgs(pgxmock.AnyArg(), model.AuditRequestSectionContent, "gpt-5", 300, 0, int64(120), 0.0, false, "provider openai returned status 503", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.InsertAudit(context.Background(), model.AuditEntry{
		RequestType:      model.AuditRequestSectionContent,
		ModelUsed:        "gpt-5",
		InputLength:      300,
		ProcessingTimeMS: 120,
		Success:          false,
		Error:            "provider openai returned status 503",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListAudit_Filtered(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()
	after := now.Add(-24 * time.Hour)

	rows := pgxmock.NewRows([]string{"id", "request_type", "model_used", "input_length", "output_length", "processing_time_ms", "confidence_score", "success", "error", "created_at"}).
		AddRow("a-2", model.AuditRequestClinicalNote, "gpt-5", 100, 200, int64(500), 0.9, true, "", now).
		AddRow("a-1", model.AuditRequestClinicalNote, "gpt-5", 100, 0, int64(80), 0.0, false, "timeout", now.Add(-time.Hour))
	mock.ExpectQuery(`FROM ai_generation_audit WHERE 1=1 AND request_type = \$1 AND created_at > \$2 ORDER BY created_at DESC LIMIT \$3`).
		WithArgs(model.AuditRequestClinicalNote, after, 50).
		WillReturnRows(rows)

	entries, err := s.ListAudit(context.Background(), AuditFilter{
		RequestType:  model.AuditRequestClinicalNote,
		CreatedAfter: after,
		Limit:        50,
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a-2", entries[0].ID)
	assert.False(t, entries[1].Success)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS ai_note_settings`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
