package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mudler/xlog"
	"github.com/tidwall/gjson"

	"github.com/arcadialabs-io/actionbridge/core/types"
)

// Client invokes named remote operations on behalf of a connected account.
// It is a thin translation layer: no retries, no state. Results are values;
// a failed remote call is a failing ExecutionResult, not an error.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey, timeout string) *Client {
	dur, err := time.ParseDuration(timeout)
	if err != nil {
		dur = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: dur},
	}
}

// ResolveOwner looks up the owning user id for a connected account. It is
// best-effort: on any failure the caller proceeds without an owner id, so the
// second return value makes the soft-fail path explicit.
func (c *Client) ResolveOwner(ctx context.Context, connectedAccountID string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/v3/connected_accounts/%s", c.baseURL, connectedAccountID), nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		xlog.Warn("Owner resolution failed", "connectedAccount", connectedAccountID, "error", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		xlog.Warn("Owner resolution failed", "connectedAccount", connectedAccountID, "status", resp.StatusCode)
		return "", false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false
	}

	owner := gjson.GetBytes(body, "user_id").String()
	if owner == "" {
		return "", false
	}
	return owner, true
}

// Execute invokes the named tool with the connected account's credentials.
// Non-2xx responses and an explicit successful=false are both failures.
func (c *Client) Execute(ctx context.Context, toolSlug, connectedAccountID string, args map[string]interface{}) types.ExecutionResult {
	xlog.Debug("Executing broker tool", "tool", toolSlug, "connectedAccount", connectedAccountID)

	requestBody := map[string]interface{}{
		"connected_account_id": connectedAccountID,
		"arguments":            args,
	}
	if owner, ok := c.ResolveOwner(ctx, connectedAccountID); ok {
		requestBody["entity_id"] = owner
	}

	payload, err := json.Marshal(requestBody)
	if err != nil {
		return failure(toolSlug, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/api/v3/tools/execute/%s", c.baseURL, toolSlug), bytes.NewReader(payload))
	if err != nil {
		return failure(toolSlug, err.Error())
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return failure(toolSlug, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(toolSlug, err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failure(toolSlug, extractError(gjson.ParseBytes(body)))
	}

	parsed := gjson.ParseBytes(body)

	if errField := parsed.Get("error"); errField.Exists() && errField.Type != gjson.Null {
		return failure(toolSlug, extractError(errField))
	}

	if s := parsed.Get("successful"); s.Exists() && !s.Bool() {
		msg := parsed.Get("message").String()
		if msg == "" {
			msg = extractError(parsed)
		}
		return failure(toolSlug, msg)
	}

	var data map[string]interface{}
	if d := parsed.Get("data"); d.IsObject() {
		data = d.Value().(map[string]interface{})
	}

	return types.ExecutionResult{
		Success: true,
		Message: fmt.Sprintf("Successfully executed %s", toolSlug),
		Data:    data,
	}
}

func failure(toolSlug, msg string) types.ExecutionResult {
	xlog.Warn("Broker tool failed", "tool", toolSlug, "error", msg)
	return types.ExecutionResult{
		Success: false,
		Message: fmt.Sprintf("Failed to execute %s: %s", toolSlug, msg),
	}
}

// extractError digs a human-readable message out of the nested error shapes
// remote APIs produce.
func extractError(v gjson.Result) string {
	if v.Type == gjson.String && v.String() != "" {
		return v.String()
	}
	for _, key := range []string{"message", "detail", "details", "description", "reason", "error"} {
		if f := v.Get(key); f.Exists() {
			if msg := extractError(f); msg != "" && msg != "Unknown error" {
				return msg
			}
		}
	}
	if errs := v.Get("errors"); errs.IsArray() && len(errs.Array()) > 0 {
		if msg := extractError(errs.Array()[0]); msg != "" {
			return msg
		}
	}
	if v.Exists() && v.Type != gjson.Null {
		raw := v.Raw
		if len(raw) > 200 {
			raw = raw[:200] + "..."
		}
		if raw != "{}" && raw != `""` {
			return raw
		}
	}
	return "Unknown error"
}
