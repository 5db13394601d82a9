package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/arcadialabs-io/actionbridge/core/types"
	"github.com/arcadialabs-io/actionbridge/pkg/llm"
)

// FallbackConfidence is the cloud confidence assigned when enrichment is
// unavailable and the pipeline passes the local detection through unchanged.
const FallbackConfidence = 0.5

type Request struct {
	ActionType        types.ActionType
	LocalTitle        string
	TriggerContext    types.ActionPayload
	ConnectedToolkits []string
}

type Result struct {
	IsActionable       bool
	Title              string
	Subtitle           string
	CloudConfidence    float64
	ActionPayload      types.ActionPayload
	InvalidationReason string
}

// Engine judges whether a locally-detected action is worth surfacing and
// produces the polished title, subtitle and execution payload.
//
// Policy is fail-open: when the provider is missing, unreachable or returns
// output we cannot parse, the local detection proceeds as actionable with
// FallbackConfidence rather than blocking the pipeline on enrichment
// availability.
type Engine struct {
	client llm.Client
	model  string
}

func NewEngine(client llm.Client, model string) *Engine {
	return &Engine{client: client, model: model}
}

type judgment struct {
	IsActionable       bool                   `json:"is_actionable"`
	Title              string                 `json:"title"`
	Subtitle           string                 `json:"subtitle"`
	Confidence         float64                `json:"confidence"`
	InvalidationReason string                 `json:"invalidation_reason"`
	ActionParams       map[string]interface{} `json:"action_params"`
}

var judgmentSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"is_actionable": {
			Type:        jsonschema.Boolean,
			Description: "Whether this is a genuine, executable action for the user.",
		},
		"title": {
			Type:        jsonschema.String,
			Description: "Short, polished action title shown to the user.",
		},
		"subtitle": {
			Type:        jsonschema.String,
			Description: "One-line supporting detail, may be empty.",
		},
		"confidence": {
			Type:        jsonschema.Number,
			Description: "Confidence in the actionability judgment, 0 to 1.",
		},
		"invalidation_reason": {
			Type:        jsonschema.String,
			Description: "Why the action is not actionable. Only when is_actionable is false.",
		},
		"action_params": {
			Type:                 jsonschema.Object,
			Description:          "Execution parameters matching the action type, e.g. summary/start/end/attendees for calendar events or to/subject/body for email replies.",
			AdditionalProperties: true,
		},
	},
	Required: []string{"is_actionable", "title", "confidence"},
}

const systemPrompt = `You validate candidate actions detected on a user's device.
Given the raw trigger context, decide whether the action is genuinely actionable,
and produce a polished title, an optional subtitle, and the execution parameters
for the action type. Only mark an action actionable when the trigger context
supports it. Keep titles short and concrete.`

func (e *Engine) Enrich(ctx context.Context, req Request) Result {
	if e.client == nil {
		xlog.Debug("No enrichment provider configured, passing through", "title", req.LocalTitle)
		return e.fallback(req)
	}

	var j judgment
	err := llm.GenerateTypedJSON(ctx, e.client, systemPrompt, userMessage(req), e.model, judgmentSchema, &j)
	if err != nil {
		xlog.Warn("Enrichment failed, passing local detection through", "error", err, "title", req.LocalTitle)
		return e.fallback(req)
	}
	if j.Title == "" {
		j.Title = req.LocalTitle
	}

	payload := types.ActionPayload{}
	if len(j.ActionParams) > 0 {
		payload["params"] = j.ActionParams
	}

	return Result{
		IsActionable:       j.IsActionable,
		Title:              j.Title,
		Subtitle:           j.Subtitle,
		CloudConfidence:    j.Confidence,
		ActionPayload:      payload,
		InvalidationReason: j.InvalidationReason,
	}
}

func (e *Engine) fallback(req Request) Result {
	return Result{
		IsActionable:    true,
		Title:           req.LocalTitle,
		CloudConfidence: FallbackConfidence,
		ActionPayload:   types.ActionPayload{},
	}
}

func userMessage(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Action type: %s\n", req.ActionType)
	fmt.Fprintf(&b, "Locally detected title: %s\n", req.LocalTitle)
	if len(req.ConnectedToolkits) > 0 {
		fmt.Fprintf(&b, "Connected toolkits: %s\n", strings.Join(req.ConnectedToolkits, ", "))
	} else {
		b.WriteString("Connected toolkits: none\n")
	}
	fmt.Fprintf(&b, "Trigger context:\n%s\n", req.TriggerContext.String())
	return b.String()
}
