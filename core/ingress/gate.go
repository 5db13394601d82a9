package ingress

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mudler/xlog"

	"github.com/arcadialabs-io/actionbridge/core/enrich"
	"github.com/arcadialabs-io/actionbridge/core/integrations"
	"github.com/arcadialabs-io/actionbridge/core/ledger"
	"github.com/arcadialabs-io/actionbridge/core/types"
	models "github.com/arcadialabs-io/actionbridge/dbmodels"
)

type AnalyzeRequest struct {
	ActionID        string
	EventHash       string
	UserID          uuid.UUID
	OrganizationID  *uuid.UUID
	ActionType      types.ActionType
	LocalTitle      string
	LocalConfidence float64
	TriggerContext  types.ActionPayload
}

// ValidationError marks a malformed request, rejected before any side effect.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

func (r AnalyzeRequest) validate() error {
	switch {
	case r.ActionID == "":
		return &ValidationError{Field: "action_id"}
	case r.EventHash == "":
		return &ValidationError{Field: "event_hash"}
	case r.UserID == uuid.Nil:
		return &ValidationError{Field: "user_id"}
	case r.OrganizationID == nil || *r.OrganizationID == uuid.Nil:
		return &ValidationError{Field: "organization_id"}
	case r.ActionType == "":
		return &ValidationError{Field: "action_type"}
	case r.LocalTitle == "":
		return &ValidationError{Field: "local_title"}
	}
	return nil
}

// Gate is the dedup/ingress orchestrator: it makes repeated submissions of
// the same observation a no-op beyond the first, and routes new ones through
// enrichment into the ledger.
type Gate struct {
	ledger   *ledger.Store
	registry *integrations.Registry
	engine   *enrich.Engine
}

func NewGate(ledger *ledger.Store, registry *integrations.Registry, engine *enrich.Engine) *Gate {
	return &Gate{ledger: ledger, registry: registry, engine: engine}
}

// Analyze ingests one candidate action. The boolean reports deduplication:
// true means an existing record for (user_id, event_hash) was returned and
// enrichment did not run.
func (g *Gate) Analyze(ctx context.Context, req AnalyzeRequest) (*models.DetectedAction, bool, error) {
	if err := req.validate(); err != nil {
		return nil, false, err
	}

	existing, err := g.ledger.FindByNaturalKey(ctx, req.UserID, req.EventHash)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		xlog.Debug("Duplicate submission", "user", req.UserID, "eventHash", req.EventHash, "action", existing.ID)
		return existing, true, nil
	}

	// Connections are enrichment context only, never authorization.
	conns, err := g.registry.ListActive(ctx, req.UserID)
	if err != nil {
		xlog.Warn("Integration lookup failed, enriching without toolkit context", "user", req.UserID, "error", err)
		conns = nil
	}
	toolkits := make([]string, 0, len(conns))
	for _, c := range conns {
		toolkits = append(toolkits, c.ToolkitSlug)
	}

	enriched := g.engine.Enrich(ctx, enrich.Request{
		ActionType:        req.ActionType,
		LocalTitle:        req.LocalTitle,
		TriggerContext:    req.TriggerContext,
		ConnectedToolkits: toolkits,
	})

	rec := &models.DetectedAction{
		ID:              req.ActionID,
		UserID:          req.UserID,
		OrganizationID:  req.OrganizationID,
		Title:           enriched.Title,
		ActionType:      req.ActionType,
		ActionPayload:   enriched.ActionPayload,
		EventHash:       req.EventHash,
		TriggerContext:  req.TriggerContext,
		LocalConfidence: req.LocalConfidence,
		CloudConfidence: &enriched.CloudConfidence,
		Status:          types.StatusPending,
	}
	if enriched.Subtitle != "" {
		rec.Subtitle = &enriched.Subtitle
	}
	if !enriched.IsActionable {
		rec.Status = types.StatusInvalidated
		reason := enriched.InvalidationReason
		if reason == "" {
			reason = "Not actionable"
		}
		rec.StatusMessage = &reason
	}

	stored, created, err := g.ledger.InsertOrFetch(ctx, rec)
	if err != nil {
		return nil, false, err
	}
	if !created {
		// Lost the upsert race: another submission of the same observation
		// landed between the lookup and the insert. First writer wins.
		xlog.Debug("Upsert race lost", "user", req.UserID, "eventHash", req.EventHash)
		return stored, true, nil
	}

	xlog.Info("Action ingested", "action", stored.ID, "type", stored.ActionType, "status", stored.Status)
	return stored, false, nil
}
