package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mudler/xlog"

	"github.com/arcadialabs-io/actionbridge/core/types"
	models "github.com/arcadialabs-io/actionbridge/dbmodels"
)

const (
	toolkitGoogleCalendar = "googlecalendar"

	toolCreateCalendarEvent = "GOOGLECALENDAR_CREATE_EVENT"
)

// mailProviders maps the payload's declared provider to its toolkit, send
// operation and display name.
var mailProviders = map[string]struct {
	Toolkit string
	Tool    string
	Name    string
}{
	"gmail":   {Toolkit: "gmail", Tool: "GMAIL_SEND_EMAIL", Name: "Gmail"},
	"outlook": {Toolkit: "outlook", Tool: "OUTLOOK_SEND_EMAIL", Name: "Outlook"},
}

func (d *Dispatcher) executeCalendarEvent(ctx context.Context, rec *models.DetectedAction) types.ExecutionResult {
	conn, ok, err := d.registry.ConnectionForToolkit(ctx, rec.UserID, toolkitGoogleCalendar)
	if err != nil {
		return types.ExecutionResult{Success: false, Message: fmt.Sprintf("Integration lookup failed: %s", err)}
	}
	if !ok {
		return types.ExecutionResult{Success: false, Message: "Google Calendar not connected"}
	}

	params := struct {
		Summary     string   `json:"summary"`
		Start       string   `json:"start"`
		End         string   `json:"end"`
		Description string   `json:"description"`
		Attendees   []string `json:"attendees"`
	}{}
	if err := rec.ActionPayload.Params().Unmarshal(&params); err != nil {
		return types.ExecutionResult{Success: false, Message: fmt.Sprintf("Invalid calendar payload: %s", err)}
	}
	if params.Summary == "" || params.Start == "" || params.End == "" {
		return types.ExecutionResult{Success: false, Message: "Calendar event needs summary, start and end"}
	}

	attendees := make([]map[string]interface{}, 0, len(params.Attendees))
	for _, email := range params.Attendees {
		attendees = append(attendees, map[string]interface{}{"email": email})
	}

	return d.broker.Execute(ctx, toolCreateCalendarEvent, conn.ConnectedAccountID, map[string]interface{}{
		"summary":     params.Summary,
		"start":       map[string]interface{}{"dateTime": params.Start},
		"end":         map[string]interface{}{"dateTime": params.End},
		"description": params.Description,
		"attendees":   attendees,
	})
}

func (d *Dispatcher) executeEmailReply(ctx context.Context, rec *models.DetectedAction) types.ExecutionResult {
	params := struct {
		Provider string `json:"provider"`
		To       string `json:"to"`
		Subject  string `json:"subject"`
		Body     string `json:"body"`
	}{}
	if err := rec.ActionPayload.Params().Unmarshal(&params); err != nil {
		return types.ExecutionResult{Success: false, Message: fmt.Sprintf("Invalid email payload: %s", err)}
	}
	if params.To == "" || params.Body == "" {
		return types.ExecutionResult{Success: false, Message: "Email reply needs recipient and body"}
	}

	providerKey := strings.ToLower(params.Provider)
	if providerKey == "" {
		providerKey = "gmail"
	}
	provider, ok := mailProviders[providerKey]
	if !ok {
		return types.ExecutionResult{Success: false, Message: fmt.Sprintf("Unsupported mail provider: %s", params.Provider)}
	}

	conn, ok, err := d.registry.ConnectionForToolkit(ctx, rec.UserID, provider.Toolkit)
	if err != nil {
		return types.ExecutionResult{Success: false, Message: fmt.Sprintf("Integration lookup failed: %s", err)}
	}
	if !ok {
		return types.ExecutionResult{Success: false, Message: fmt.Sprintf("%s not connected", provider.Name)}
	}

	return d.broker.Execute(ctx, provider.Tool, conn.ConnectedAccountID, map[string]interface{}{
		"recipient_email": params.To,
		"subject":         params.Subject,
		"body":            params.Body,
	})
}

func (d *Dispatcher) executeTaskCreate(ctx context.Context, rec *models.DetectedAction) types.ExecutionResult {
	params := struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Priority    string `json:"priority"`
		DueDate     string `json:"due_date"`
	}{}
	if err := rec.ActionPayload.Params().Unmarshal(&params); err != nil {
		return types.ExecutionResult{Success: false, Message: fmt.Sprintf("Invalid task payload: %s", err)}
	}
	if params.Title == "" {
		params.Title = rec.Title
	}
	if params.Priority == "" {
		params.Priority = "medium"
	}

	task := models.Task{
		UserID:         rec.UserID,
		OrganizationID: rec.OrganizationID,
		Title:          params.Title,
		Status:         "pending",
		Priority:       params.Priority,
		Source:         "action_pipeline",
		SourceRefID:    &rec.ID,
	}
	if params.Description != "" {
		task.Description = &params.Description
	}
	if params.DueDate != "" {
		if due, err := time.Parse(time.RFC3339, params.DueDate); err == nil {
			task.DueDate = &due
		} else {
			xlog.Warn("Ignoring unparsable task due date", "action", rec.ID, "dueDate", params.DueDate)
		}
	}

	if err := d.db.WithContext(ctx).Create(&task).Error; err != nil {
		return types.ExecutionResult{Success: false, Message: fmt.Sprintf("Failed to create task: %s", err)}
	}

	return types.ExecutionResult{
		Success: true,
		Message: fmt.Sprintf("Task created: %s", task.Title),
		Data:    map[string]interface{}{"task_id": task.ID.String()},
	}
}

func (d *Dispatcher) executeReminder(ctx context.Context, rec *models.DetectedAction) types.ExecutionResult {
	params := struct {
		Title    string `json:"title"`
		Body     string `json:"body"`
		RemindAt string `json:"remind_at"`
	}{}
	if err := rec.ActionPayload.Params().Unmarshal(&params); err != nil {
		return types.ExecutionResult{Success: false, Message: fmt.Sprintf("Invalid reminder payload: %s", err)}
	}
	if params.Title == "" {
		params.Title = rec.Title
	}

	notification := models.Notification{
		UserID: rec.UserID,
		Title:  params.Title,
		Source: "action_pipeline",
	}
	if params.Body != "" {
		notification.Body = &params.Body
	}
	if params.RemindAt != "" {
		if at, err := time.Parse(time.RFC3339, params.RemindAt); err == nil {
			notification.RemindAt = &at
		} else {
			xlog.Warn("Ignoring unparsable reminder time", "action", rec.ID, "remindAt", params.RemindAt)
		}
	}

	if err := d.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return types.ExecutionResult{Success: false, Message: fmt.Sprintf("Failed to create reminder: %s", err)}
	}

	return types.ExecutionResult{
		Success: true,
		Message: fmt.Sprintf("Reminder set: %s", notification.Title),
		Data:    map[string]interface{}{"notification_id": notification.ID.String()},
	}
}
