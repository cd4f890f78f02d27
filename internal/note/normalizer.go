package note

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/ridgeline-health/notegen/internal/model"
	"github.com/ridgeline-health/notegen/internal/store"
)

// NormalizedRequest is a generation request after validation, with the
// supporting context loaded: live settings, client demographics, and the
// resolved default template.
type NormalizedRequest struct {
	Request    model.GenerationRequest
	SourceText string
	Settings   *model.AISettings
	Client     *model.Client
	Template   *model.NoteTemplate
}

// Normalizer validates requests and loads their supporting records. Settings
// and templates are read fresh per request so administrators can toggle AI
// behavior without a redeploy.
type Normalizer struct {
	store store.Store
}

func NewNormalizer(st store.Store) *Normalizer {
	return &Normalizer{store: st}
}

// Normalize validates the request and loads settings, client, and template.
// Field problems return ValidationError; a disabled or absent settings row
// returns ErrAIDisabled; a missing default template returns
// TemplateNotFoundError.
func (n *Normalizer) Normalize(ctx context.Context, req model.GenerationRequest) (*NormalizedRequest, error) {
	if strings.TrimSpace(req.NoteType) == "" {
		return nil, &ValidationError{Message: "noteType is required"}
	}
	if strings.TrimSpace(req.NoteFormat) == "" {
		return nil, &ValidationError{Message: "noteFormat is required"}
	}
	if strings.TrimSpace(req.ClientID) == "" {
		return nil, &ValidationError{Message: "clientId is required"}
	}

	source := norm.NFC.String(req.SourceText())
	if strings.TrimSpace(source) == "" {
		return nil, &ValidationError{Message: "sessionTranscript or freeTextInput is required"}
	}

	settings, err := n.Settings(ctx)
	if err != nil {
		return nil, err
	}

	// Client and template live in different tables and neither read depends
	// on the other.
	var (
		client   *model.Client
		template *model.NoteTemplate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		client, err = n.store.GetClient(gctx, req.ClientID)
		return err
	})
	g.Go(func() error {
		var err error
		template, err = n.store.FindDefaultTemplate(gctx, req.NoteType, req.NoteFormat)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "load request context")
	}

	if client == nil {
		return nil, eris.Errorf("client %s not found", req.ClientID)
	}
	if template == nil {
		return nil, &TemplateNotFoundError{NoteType: req.NoteType, NoteFormat: req.NoteFormat}
	}

	return &NormalizedRequest{
		Request:    req,
		SourceText: source,
		Settings:   settings,
		Client:     client,
		Template:   template,
	}, nil
}

// Settings reads the live AI settings row and enforces the enabled flag. An
// absent row means the feature was never configured and counts as disabled.
func (n *Normalizer) Settings(ctx context.Context) (*model.AISettings, error) {
	settings, err := n.store.GetSettings(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "read AI settings")
	}
	if settings == nil || !settings.Enabled {
		return nil, ErrAIDisabled
	}
	return settings, nil
}
