package note

import (
	"context"
	"sync"
	"time"

	"github.com/ridgeline-health/notegen/internal/completion"
	"github.com/ridgeline-health/notegen/internal/model"
	"github.com/ridgeline-health/notegen/internal/store"
)

// fakeStore is an in-memory Store for pipeline tests.
type fakeStore struct {
	mu sync.Mutex

	settings    *model.AISettings
	settingsErr error
	client      *model.Client
	clientErr   error
	template    *model.NoteTemplate
	templateErr error

	auditErr error
	audits   []model.AuditEntry
}

func (f *fakeStore) GetSettings(context.Context) (*model.AISettings, error) {
	return f.settings, f.settingsErr
}

func (f *fakeStore) GetClient(context.Context, string) (*model.Client, error) {
	return f.client, f.clientErr
}

func (f *fakeStore) FindDefaultTemplate(context.Context, string, string) (*model.NoteTemplate, error) {
	return f.template, f.templateErr
}

func (f *fakeStore) InsertAudit(_ context.Context, entry model.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.auditErr != nil {
		return f.auditErr
	}
	f.audits = append(f.audits, entry)
	return nil
}

func (f *fakeStore) ListAudit(context.Context, store.AuditFilter) ([]model.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.AuditEntry, len(f.audits))
	copy(out, f.audits)
	return out, nil
}

func (f *fakeStore) Migrate(context.Context) error { return nil }
func (f *fakeStore) Close() error                  { return nil }

func (f *fakeStore) auditRows() []model.AuditEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.AuditEntry, len(f.audits))
	copy(out, f.audits)
	return out
}

// fakeProvider returns a canned result or error and records every request.
type fakeProvider struct {
	mu     sync.Mutex
	result *completion.Result
	err    error
	calls  []completion.Request
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, req completion.Request) (*completion.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeProvider) requests() []completion.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]completion.Request, len(f.calls))
	copy(out, f.calls)
	return out
}

// fakeFactory hands out one provider and records which names were asked for.
type fakeFactory struct {
	provider completion.Provider
	names    []string
}

func (f *fakeFactory) ForProvider(name string) completion.Provider {
	f.names = append(f.names, name)
	return f.provider
}

func enabledSettings() *model.AISettings {
	return &model.AISettings{
		ID:                         "s-1",
		Enabled:                    true,
		Provider:                   "openai",
		Model:                      "gpt-5",
		MinimumConfidenceThreshold: 0.7,
		UpdatedAt:                  time.Now().UTC(),
	}
}

func testClient() *model.Client {
	dob := time.Date(1992, 4, 10, 0, 0, 0, 0, time.UTC)
	return &model.Client{
		ID:          "c-1",
		FirstName:   "Jordan",
		LastName:    "Reyes",
		DateOfBirth: &dob,
		Pronouns:    "they/them",
	}
}

func testTemplate() *model.NoteTemplate {
	return &model.NoteTemplate{
		ID:         "t-1",
		NoteType:   "clinical_note",
		NoteFormat: "SOAP",
		IsDefault:  true,
		AIPrompts:  []byte(`{"system":"","instructions":"Keep the plan section concrete."}`),
	}
}
