// Package note implements the clinical note generation pipeline: normalize
// the request, resolve the output schema, call the completion provider,
// assess risk, score confidence, and audit the attempt.
package note

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ridgeline-health/notegen/internal/completion"
	"github.com/ridgeline-health/notegen/internal/model"
	"github.com/ridgeline-health/notegen/internal/risk"
	"github.com/ridgeline-health/notegen/internal/schema"
	"github.com/ridgeline-health/notegen/internal/store"
)

// auditTimeout bounds the detached audit write so a slow database cannot
// hold the response open.
const auditTimeout = 5 * time.Second

const sectionToolName = "generate_section"

// timeNow is stubbed in tests.
var timeNow = time.Now

// Generator runs the generation pipeline for notes and intake sections.
type Generator struct {
	store      store.Store
	providers  completion.ProviderFactory
	normalizer *Normalizer
}

func NewGenerator(st store.Store, providers completion.ProviderFactory) *Generator {
	return &Generator{
		store:      st,
		providers:  providers,
		normalizer: NewNormalizer(st),
	}
}

// GenerateNote produces a full clinical note. The main completion call fails
// loud: any provider or parse error fails the request. The risk assessment
// sub-call fails soft inside the assessor. Every attempt, success or
// failure, is audited.
func (g *Generator) GenerateNote(ctx context.Context, req model.GenerationRequest) (*model.GeneratedNote, error) {
	start := timeNow()
	audit := model.AuditEntry{
		RequestType: model.AuditRequestClinicalNote,
		InputLength: len(req.SourceText()),
	}

	nr, err := g.normalizer.Normalize(ctx, req)
	if err != nil {
		g.auditFailure(ctx, audit, start, err)
		return nil, err
	}
	audit.ModelUsed = nr.Settings.Model
	audit.InputLength = len(nr.SourceText)

	system, user, err := buildNotePrompts(nr)
	if err != nil {
		g.auditFailure(ctx, audit, start, err)
		return nil, eris.Wrap(err, "build prompts")
	}

	provider := g.providers.ForProvider(nr.Settings.Provider)
	res, err := provider.Complete(ctx, completion.Request{
		System: system,
		User:   user,
		Model:  nr.Settings.Model,
	})
	if err != nil {
		g.auditFailure(ctx, audit, start, err)
		return nil, err
	}
	if res.Model != "" {
		audit.ModelUsed = res.Model
	}

	// The assessor scans the generated content, so it cannot run in
	// parallel with the main completion call.
	assessor := risk.NewAssessor(provider, nr.Settings.Model)
	riskRes := assessor.Assess(ctx, nr.SourceText, string(res.JSON), nr.Settings.RiskAssessmentEnabled)

	score := ConfidenceScore(res.FinishReason)
	elapsed := timeNow().Sub(start)

	audit.OutputLength = len(res.JSON)
	audit.ProcessingTimeMS = elapsed.Milliseconds()
	audit.ConfidenceScore = score
	audit.Success = true
	g.audit(ctx, audit)

	return &model.GeneratedNote{
		Success:       true,
		Content:       res.JSON,
		RiskFlags:     riskRes.FlagStrings(),
		RiskSeverity:  string(riskRes.Severity),
		RiskRationale: riskRes.Rationale,
		Metadata: model.ConfidenceMetadata{
			AIGenerated:        true,
			AIModelUsed:        audit.ModelUsed,
			AIConfidenceScore:  score,
			AIProcessingTimeMS: elapsed.Milliseconds(),
			RequiresReview:     RequiresReview(score, nr.Settings.MinimumConfidenceThreshold),
		},
	}, nil
}

// GenerateSection produces one intake section as a forced tool call against
// that section's schema.
func (g *Generator) GenerateSection(ctx context.Context, req model.SectionRequest) (*model.GeneratedSection, error) {
	start := timeNow()
	audit := model.AuditEntry{
		RequestType: model.AuditRequestSectionContent,
		InputLength: len(req.Context),
	}

	if strings.TrimSpace(req.SectionType) == "" {
		err := &ValidationError{Message: "sectionType is required"}
		g.auditFailure(ctx, audit, start, err)
		return nil, err
	}

	settings, err := g.normalizer.Settings(ctx)
	if err != nil {
		g.auditFailure(ctx, audit, start, err)
		return nil, err
	}
	audit.ModelUsed = settings.Model

	node, err := schema.ForSection(schema.SectionType(req.SectionType))
	if err != nil {
		g.auditFailure(ctx, audit, start, err)
		return nil, err
	}

	provider := g.providers.ForProvider(settings.Provider)
	res, err := provider.Complete(ctx, completion.Request{
		System: sectionSystemPrompt,
		User:   buildSectionPrompt(req),
		Model:  settings.Model,
		Tool: &completion.ToolSpec{
			Name:        sectionToolName,
			Description: "Record the generated content for the " + req.SectionType + " intake section",
			Schema:      node,
		},
	})
	if err != nil {
		g.auditFailure(ctx, audit, start, err)
		return nil, err
	}
	if res.Model != "" {
		audit.ModelUsed = res.Model
	}

	audit.OutputLength = len(res.JSON)
	audit.ProcessingTimeMS = timeNow().Sub(start).Milliseconds()
	audit.ConfidenceScore = ConfidenceScore(res.FinishReason)
	audit.Success = true
	g.audit(ctx, audit)

	return &model.GeneratedSection{Content: res.JSON}, nil
}

func (g *Generator) auditFailure(ctx context.Context, entry model.AuditEntry, start time.Time, cause error) {
	entry.ProcessingTimeMS = timeNow().Sub(start).Milliseconds()
	entry.Success = false
	entry.Error = cause.Error()
	g.audit(ctx, entry)
}

// audit writes one row per attempt on a detached, time-bounded context: the
// write survives caller cancellation but can never fail or outlive the
// user-facing request by more than auditTimeout.
func (g *Generator) audit(ctx context.Context, entry model.AuditEntry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	if err := g.store.InsertAudit(ctx, entry); err != nil {
		zap.L().Warn("audit write failed",
			zap.String("request_type", entry.RequestType),
			zap.Error(err),
		)
	}
}
