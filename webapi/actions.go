package webapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mudler/xlog"

	"github.com/arcadialabs-io/actionbridge/core/dispatch"
	"github.com/arcadialabs-io/actionbridge/core/ingress"
	"github.com/arcadialabs-io/actionbridge/core/types"
	models "github.com/arcadialabs-io/actionbridge/dbmodels"
)

const executeTimeout = 120 * time.Second

type analyzeRequest struct {
	ActionID        string              `json:"action_id"`
	EventHash       string              `json:"event_hash"`
	UserID          string              `json:"user_id"`
	OrganizationID  string              `json:"organization_id"`
	ActionType      string              `json:"action_type"`
	LocalTitle      string              `json:"local_title"`
	LocalConfidence float64             `json:"local_confidence"`
	TriggerContext  types.ActionPayload `json:"trigger_context"`
}

type actionResponse struct {
	ActionID        string              `json:"action_id"`
	Status          types.ActionStatus  `json:"status"`
	Title           string              `json:"title"`
	Subtitle        *string             `json:"subtitle,omitempty"`
	ActionType      types.ActionType    `json:"action_type"`
	ActionPayload   types.ActionPayload `json:"action_payload"`
	CloudConfidence *float64            `json:"cloud_confidence,omitempty"`
	StatusMessage   *string             `json:"status_message,omitempty"`
	Deduplicated    bool                `json:"deduplicated"`
}

func toActionResponse(rec *models.DetectedAction, deduplicated bool) actionResponse {
	return actionResponse{
		ActionID:        rec.ID,
		Status:          rec.Status,
		Title:           rec.Title,
		Subtitle:        rec.Subtitle,
		ActionType:      rec.ActionType,
		ActionPayload:   rec.ActionPayload,
		CloudConfidence: rec.CloudConfidence,
		StatusMessage:   rec.StatusMessage,
		Deduplicated:    deduplicated,
	}
}

func (a *App) AnalyzeAction() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		var payload analyzeRequest
		if err := c.BodyParser(&payload); err != nil {
			xlog.Error("Error parsing analyze payload", "error", err)
			return errorJSONMessage(c, http.StatusBadRequest, err.Error())
		}

		userID, err := uuid.Parse(payload.UserID)
		if err != nil {
			return errorJSONMessage(c, http.StatusBadRequest, "missing required field: user_id")
		}

		req := ingress.AnalyzeRequest{
			ActionID:        payload.ActionID,
			EventHash:       payload.EventHash,
			UserID:          userID,
			ActionType:      types.ActionType(payload.ActionType),
			LocalTitle:      payload.LocalTitle,
			LocalConfidence: payload.LocalConfidence,
			TriggerContext:  payload.TriggerContext,
		}
		if payload.OrganizationID != "" {
			orgID, err := uuid.Parse(payload.OrganizationID)
			if err != nil {
				return errorJSONMessage(c, http.StatusBadRequest, "invalid organization_id")
			}
			req.OrganizationID = &orgID
		}

		rec, deduplicated, err := a.config.Gate.Analyze(c.Context(), req)
		if err != nil {
			var verr *ingress.ValidationError
			if errors.As(err, &verr) {
				return errorJSONMessage(c, http.StatusBadRequest, verr.Error())
			}
			xlog.Error("Analyze failed", "error", err, "user", payload.UserID)
			return serverError(c, err.Error())
		}

		return c.JSON(toActionResponse(rec, deduplicated))
	}
}

type executeRequest struct {
	ActionID string `json:"action_id"`
	UserID   string `json:"user_id"`
}

func (a *App) ExecuteAction() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		var payload executeRequest
		if err := c.BodyParser(&payload); err != nil {
			xlog.Error("Error parsing execute payload", "error", err)
			return errorJSONMessage(c, http.StatusBadRequest, err.Error())
		}
		if payload.ActionID == "" {
			return errorJSONMessage(c, http.StatusBadRequest, "missing required field: action_id")
		}
		userID, err := uuid.Parse(payload.UserID)
		if err != nil {
			return errorJSONMessage(c, http.StatusBadRequest, "missing required field: user_id")
		}

		ctx, cancel := context.WithTimeout(c.Context(), executeTimeout)
		defer cancel()

		outcome, err := a.config.Dispatcher.Execute(ctx, payload.ActionID, userID)
		if err != nil {
			if errors.Is(err, dispatch.ErrActionNotFound) {
				return errorJSONMessage(c, http.StatusNotFound, "action not found")
			}
			var conflict *dispatch.StatusConflictError
			if errors.As(err, &conflict) {
				return c.Status(http.StatusConflict).JSON(struct {
					ActionID string             `json:"action_id"`
					Status   types.ActionStatus `json:"status"`
					Error    string             `json:"error"`
				}{ActionID: payload.ActionID, Status: conflict.Status, Error: conflict.Error()})
			}
			xlog.Error("Execute failed", "error", err, "action", payload.ActionID)
			return serverError(c, err.Error())
		}

		return c.JSON(struct {
			ActionID string             `json:"action_id"`
			Status   types.ActionStatus `json:"status"`
			Message  string             `json:"message"`
			Success  bool               `json:"success"`
		}{
			ActionID: outcome.Action.ID,
			Status:   outcome.Action.Status,
			Message:  outcome.Result.Message,
			Success:  outcome.Result.Success,
		})
	}
}

func (a *App) ApproveAction() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		var payload executeRequest
		if err := c.BodyParser(&payload); err != nil {
			return errorJSONMessage(c, http.StatusBadRequest, err.Error())
		}
		if payload.ActionID == "" {
			return errorJSONMessage(c, http.StatusBadRequest, "missing required field: action_id")
		}
		userID, err := uuid.Parse(payload.UserID)
		if err != nil {
			return errorJSONMessage(c, http.StatusBadRequest, "missing required field: user_id")
		}

		rec, err := a.config.Ledger.FindByID(c.Context(), payload.ActionID, userID)
		if err != nil {
			return serverError(c, err.Error())
		}
		if rec == nil {
			return errorJSONMessage(c, http.StatusNotFound, "action not found")
		}

		ok, err := a.config.Ledger.Approve(c.Context(), payload.ActionID, userID)
		if err != nil {
			return serverError(c, err.Error())
		}
		if !ok {
			current, err := a.config.Ledger.FindByID(c.Context(), payload.ActionID, userID)
			if err != nil || current == nil {
				return serverError(c, "action state changed during approval")
			}
			return c.Status(http.StatusConflict).JSON(struct {
				ActionID string             `json:"action_id"`
				Status   types.ActionStatus `json:"status"`
				Error    string             `json:"error"`
			}{ActionID: payload.ActionID, Status: current.Status, Error: "only pending actions can be approved"})
		}

		xlog.Info("Action approved", "action", payload.ActionID, "user", payload.UserID)
		return c.JSON(struct {
			ActionID string             `json:"action_id"`
			Status   types.ActionStatus `json:"status"`
		}{ActionID: payload.ActionID, Status: types.StatusApproved})
	}
}

func (a *App) ListActions() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		userID, err := uuid.Parse(c.Params("user_id"))
		if err != nil {
			return errorJSONMessage(c, http.StatusBadRequest, "invalid user_id")
		}
		limit, _ := strconv.Atoi(c.Query("limit", "50"))

		recs, err := a.config.Ledger.ListRecent(c.Context(), userID, limit)
		if err != nil {
			return serverError(c, err.Error())
		}

		responses := make([]actionResponse, 0, len(recs))
		for i := range recs {
			responses = append(responses, toActionResponse(&recs[i], false))
		}
		return c.JSON(responses)
	}
}
