package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mudler/xlog"
	"gorm.io/gorm"

	"github.com/arcadialabs-io/actionbridge/core/integrations"
	"github.com/arcadialabs-io/actionbridge/core/ledger"
	"github.com/arcadialabs-io/actionbridge/core/types"
	models "github.com/arcadialabs-io/actionbridge/dbmodels"
)

// ErrActionNotFound means no ledger row exists for the given id and user.
var ErrActionNotFound = errors.New("action not found")

// StatusConflictError reports an execute call against a record that is not in
// an executable state. It carries the current status so the caller can
// reconcile its local view.
type StatusConflictError struct {
	Status types.ActionStatus
}

func (e *StatusConflictError) Error() string {
	return fmt.Sprintf("action is not executable, current status: %s", e.Status)
}

// Broker invokes a named remote operation with a connected account's
// credentials. Failures are values in the result, never errors.
type Broker interface {
	Execute(ctx context.Context, toolSlug, connectedAccountID string, args map[string]interface{}) types.ExecutionResult
}

// Outcome is the result of one execute request: the final ledger record and
// the executor's raw result.
type Outcome struct {
	Action *models.DetectedAction
	Result types.ExecutionResult
}

// Dispatcher drives one approved action through the execution state machine:
// guard, claim, run the type-specific executor, record the terminal status.
type Dispatcher struct {
	ledger   *ledger.Store
	registry *integrations.Registry
	broker   Broker
	db       *gorm.DB
}

func NewDispatcher(store *ledger.Store, registry *integrations.Registry, broker Broker, db *gorm.DB) *Dispatcher {
	return &Dispatcher{ledger: store, registry: registry, broker: broker, db: db}
}

// Execute runs one action. Only malformed requests and ledger failures
// surface as errors; executor failures land in the ledger as a failed
// terminal status with an explanatory message.
func (d *Dispatcher) Execute(ctx context.Context, actionID string, userID uuid.UUID) (*Outcome, error) {
	rec, err := d.ledger.FindByID(ctx, actionID, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrActionNotFound
	}
	if !rec.Status.Executable() {
		return nil, &StatusConflictError{Status: rec.Status}
	}

	// Commit the executing claim before any external call. The conditional
	// update in the ledger is the only thing preventing a duplicate side
	// effect under concurrent execute calls.
	claimed, err := d.ledger.ClaimForExecution(ctx, actionID, userID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		current, err := d.ledger.FindByID(ctx, actionID, userID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, ErrActionNotFound
		}
		return nil, &StatusConflictError{Status: current.Status}
	}

	result := d.run(ctx, rec)

	final, err := d.ledger.Finalize(ctx, actionID, userID, result.Success, result.Message)
	if err != nil {
		return nil, err
	}

	logStatus := "success"
	if !result.Success {
		logStatus = "error"
	}
	if err := d.ledger.RecordExecution(ctx, &models.ExecutionLog{
		ActionID:   rec.ID,
		UserID:     rec.UserID,
		ActionType: rec.ActionType.String(),
		Status:     logStatus,
		Message:    result.Message,
	}); err != nil {
		xlog.Warn("Failed to record execution audit row", "action", rec.ID, "error", err)
	}

	xlog.Info("Action executed", "action", rec.ID, "type", rec.ActionType, "success", result.Success, "message", result.Message)
	return &Outcome{Action: final, Result: result}, nil
}

// run dispatches on the action type. Unknown types are a normal failing
// result, not an error.
func (d *Dispatcher) run(ctx context.Context, rec *models.DetectedAction) types.ExecutionResult {
	switch rec.ActionType {
	case types.ActionTypeCalendarEvent:
		return d.executeCalendarEvent(ctx, rec)
	case types.ActionTypeTaskCreate:
		return d.executeTaskCreate(ctx, rec)
	case types.ActionTypeEmailReply:
		return d.executeEmailReply(ctx, rec)
	case types.ActionTypeReminder:
		return d.executeReminder(ctx, rec)
	default:
		return types.ExecutionResult{
			Success: false,
			Message: fmt.Sprintf("Unknown action type: %s", rec.ActionType),
		}
	}
}
